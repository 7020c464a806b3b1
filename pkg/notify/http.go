package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// HTTPNotifier posts notifications as JSON to a relay endpoint (the
// messaging subsystem's ingress). Delivery succeeds when the relay answers
// with a non-error status.
type HTTPNotifier struct {
	endpoint string
	client   *http.Client
}

func NewHTTPNotifier(endpoint string) *HTTPNotifier {
	return &HTTPNotifier{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

func (n *HTTPNotifier) Send(ctx context.Context, notification Notification) (Delivery, error) {
	payload, err := json.Marshal(notification)
	if err != nil {
		return Delivery{}, fmt.Errorf("failed to encode notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, bytes.NewReader(payload))
	if err != nil {
		return Delivery{}, fmt.Errorf("failed to create notification request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return Delivery{Delivered: false, Error: err.Error()}, nil
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 400 {
		return Delivery{
			Delivered: false,
			Error:     fmt.Sprintf("notification relay returned HTTP %d", resp.StatusCode),
		}, nil
	}

	return Delivery{Delivered: true}, nil
}
