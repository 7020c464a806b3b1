// Package notification implements the notification node kind: it dispatches
// a message through the external notification collaborator.
package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/stepflow-io/stepflow/pkg/models"
	"github.com/stepflow-io/stepflow/pkg/notify"
	"github.com/stepflow-io/stepflow/pkg/template"
)

// Config is the typed configuration of a notification node.
type Config struct {
	Channel    string   `json:"channel"`
	Recipients []string `json:"recipients"`
	Subject    string   `json:"subject,omitempty"`
	Body       string   `json:"body"`
}

type NotificationNode struct {
	id       string
	config   Config
	notifier notify.Notifier
}

func NewNotificationNode(id string, raw map[string]any, notifier notify.Notifier) (*NotificationNode, error) {
	var config Config

	encoded, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(encoded, &config); err != nil {
		return nil, fmt.Errorf("malformed notification config: %w", err)
	}

	if len(config.Recipients) == 0 {
		return nil, errors.New("notification node requires at least one recipient")
	}

	if config.Channel == "" {
		config.Channel = string(notify.ChannelEmail)
	}

	return &NotificationNode{id: id, config: config, notifier: notifier}, nil
}

func (n *NotificationNode) ID() string            { return n.id }
func (n *NotificationNode) Kind() models.NodeKind { return models.NodeKindNotification }

func (n *NotificationNode) Execute(ctx context.Context, ectx models.ExecutionContext) (*models.NodeOutcome, error) {
	delivery, err := n.notifier.Send(ctx, notify.Notification{
		Channel:    notify.Channel(n.config.Channel),
		Recipients: n.config.Recipients,
		Subject:    template.SubstituteString(n.config.Subject, ectx.Variables),
		Body:       template.SubstituteString(n.config.Body, ectx.Variables),
	})
	if err != nil {
		return models.FailureOutcome("notification dispatch failed: " + err.Error()), nil
	}

	if !delivery.Delivered {
		return models.FailureOutcome("notification not delivered: " + delivery.Error), nil
	}

	return models.SuccessOutcome(map[string]any{"notification_delivered": true}), nil
}
