// Package file provides a JSON-on-disk persistence implementation for
// development and tests.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/stepflow-io/stepflow/pkg/persistence"
)

// Persistence implements persistence.Persistence on a directory tree with
// one JSON document per entity.
type Persistence struct {
	root string

	workflows    *WorkflowRepository
	templates    *TemplateRepository
	executions   *ExecutionRepository
	logs         *ExecutionLogRepository
	approvals    *ApprovalRepository
	schedules    *ScheduleRepository
	integrations *IntegrationRepository
	metrics      *MetricsRepository
}

// NewPersistence creates a file-backed persistence rooted at the given
// directory, accepting both plain paths and file:// URLs.
func NewPersistence(root string) *Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Persistence{
		root:         cleanRoot,
		workflows:    &WorkflowRepository{store: newStore(cleanRoot, "workflows")},
		templates:    &TemplateRepository{store: newStore(cleanRoot, "templates")},
		executions:   &ExecutionRepository{store: newStore(cleanRoot, "executions")},
		logs:         &ExecutionLogRepository{store: newStore(cleanRoot, "logs")},
		approvals:    &ApprovalRepository{store: newStore(cleanRoot, "approvals")},
		schedules:    &ScheduleRepository{store: newStore(cleanRoot, "schedules")},
		integrations: &IntegrationRepository{store: newStore(cleanRoot, "integrations")},
		metrics:      &MetricsRepository{store: newStore(cleanRoot, "metrics")},
	}
}

func (p *Persistence) WorkflowRepository() persistence.WorkflowRepository { return p.workflows }
func (p *Persistence) TemplateRepository() persistence.TemplateRepository { return p.templates }
func (p *Persistence) ExecutionRepository() persistence.ExecutionRepository {
	return p.executions
}
func (p *Persistence) ExecutionLogRepository() persistence.ExecutionLogRepository { return p.logs }
func (p *Persistence) ApprovalRepository() persistence.ApprovalRepository         { return p.approvals }
func (p *Persistence) ScheduleRepository() persistence.ScheduleRepository         { return p.schedules }
func (p *Persistence) IntegrationRepository() persistence.IntegrationRepository {
	return p.integrations
}
func (p *Persistence) MetricsRepository() persistence.MetricsRepository { return p.metrics }

func (p *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(p.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

func (p *Persistence) Close(_ context.Context) error {
	return nil
}

// store serializes access to one entity directory. All repositories share
// the read-modify-write pattern, so concurrent engine writes stay safe.
type store struct {
	mu  sync.RWMutex
	dir string
}

func newStore(root, entity string) *store {
	return &store{dir: filepath.Join(root, entity)}
}

func (s *store) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

// read decodes the document with the given id into out. Returns os.ErrNotExist
// when the document is missing.
func (s *store) read(id string, out any) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.readLocked(id, out)
}

func (s *store) readLocked(id string, out any) error {
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		return err
	}

	return json.Unmarshal(data, out)
}

// write encodes v as the document with the given id.
func (s *store) write(id string, v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.writeLocked(id, v)
}

func (s *store) writeLocked(id string, v any) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", s.dir, err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(s.path(id), data, 0o644)
}

// update reads the current document into out (leaving it zero when absent),
// lets apply produce the replacement, and writes it back, all under one
// lock. This is the atomic read-modify-write primitive behind log appends
// and metric increments.
func (s *store) update(id string, out any, apply func() (any, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.readLocked(id, out); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	next, err := apply()
	if err != nil {
		return err
	}

	return s.writeLocked(id, next)
}

func (s *store) delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path(id))
	if errors.Is(err, os.ErrNotExist) {
		return os.ErrNotExist
	}

	return err
}

// ids lists all document ids in the store.
func (s *store) ids() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	var ids []string

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}

		ids = append(ids, strings.TrimSuffix(name, ".json"))
	}

	return ids, nil
}
