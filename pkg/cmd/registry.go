package cmd

import (
	"log/slog"

	"github.com/stepflow-io/stepflow/pkg/integration"
	"github.com/stepflow-io/stepflow/pkg/models"
	"github.com/stepflow-io/stepflow/pkg/nodes/approval"
	"github.com/stepflow-io/stepflow/pkg/nodes/condition"
	"github.com/stepflow-io/stepflow/pkg/nodes/control"
	"github.com/stepflow-io/stepflow/pkg/nodes/decision"
	"github.com/stepflow-io/stepflow/pkg/nodes/delay"
	integrationnode "github.com/stepflow-io/stepflow/pkg/nodes/integration"
	"github.com/stepflow-io/stepflow/pkg/nodes/notification"
	"github.com/stepflow-io/stepflow/pkg/nodes/task"
	"github.com/stepflow-io/stepflow/pkg/notify"
	"github.com/stepflow-io/stepflow/pkg/persistence"
	"github.com/stepflow-io/stepflow/pkg/protocol"
	"github.com/stepflow-io/stepflow/pkg/registry"
)

// NewRegistry builds the node registry with every native node kind wired to
// its collaborators.
func NewRegistry(
	logger *slog.Logger,
	store persistence.Persistence,
	notifier notify.Notifier,
	scheduler protocol.DelayScheduler,
) *registry.Registry {
	reg := registry.NewRegistry(logger)

	reg.Register(&control.StartFactory{})
	reg.Register(&control.EndFactory{})
	reg.Register(&task.Factory{})
	reg.Register(&decision.Factory{})
	reg.Register(&condition.Factory{})
	reg.Register(&approval.Factory{
		Approvals: store.ApprovalRepository(),
		Notifier:  notifier,
	})
	reg.Register(&notification.Factory{Notifier: notifier})
	reg.Register(&integrationnode.Factory{
		Integrations: store.IntegrationRepository(),
		Client:       integration.NewClient(),
	})
	reg.Register(&delay.Factory{Scheduler: scheduler})

	for _, kind := range models.ReservedNodeKinds {
		reg.Register(&control.ReservedFactory{NodeKind: kind})
	}

	return reg
}
