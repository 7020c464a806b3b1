// Package notify defines the outbound notification collaborator consumed by
// approval and notification nodes.
package notify

import "context"

// Channel is the delivery medium of a notification.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
	ChannelChat  Channel = "chat"
)

// Notification is one message to deliver.
type Notification struct {
	Channel    Channel        `json:"channel"`
	Recipients []string       `json:"recipients"`
	Subject    string         `json:"subject,omitempty"`
	Body       string         `json:"body"`
	Data       map[string]any `json:"data,omitempty"`
}

// Delivery reports the result of one delivery attempt.
type Delivery struct {
	Delivered bool   `json:"delivered"`
	Error     string `json:"error,omitempty"`
}

// Notifier delivers notifications through an external system. The engine
// treats delivery as a single attempt; retry policy belongs to the
// collaborator behind this interface.
type Notifier interface {
	Send(ctx context.Context, notification Notification) (Delivery, error)
}
