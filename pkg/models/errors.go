package models

import "fmt"

// NotImplementedError is returned when a reserved node kind (loop, parallel,
// merge) is executed. These kinds exist in the data model as forward-looking
// variants and must fail fast instead of silently behaving like a task.
type NotImplementedError struct {
	Kind NodeKind
}

func (e *NotImplementedError) Error() string {
	return fmt.Sprintf("node kind %q is reserved and not implemented", e.Kind)
}
