package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPNotifierPostsNotification(t *testing.T) {
	var received Notification

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	notifier := NewHTTPNotifier(server.URL)

	delivery, err := notifier.Send(context.Background(), Notification{
		Channel:    ChannelChat,
		Recipients: []string{"#ops"},
		Subject:    "deploy done",
		Body:       "all green",
	})
	require.NoError(t, err)
	assert.True(t, delivery.Delivered)
	assert.Equal(t, ChannelChat, received.Channel)
	assert.Equal(t, []string{"#ops"}, received.Recipients)
}

func TestHTTPNotifierReportsRelayError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	notifier := NewHTTPNotifier(server.URL)

	delivery, err := notifier.Send(context.Background(), Notification{Body: "ping"})
	require.NoError(t, err)
	assert.False(t, delivery.Delivered)
	assert.Contains(t, delivery.Error, "HTTP 503")
}

func TestHTTPNotifierReportsConnectionError(t *testing.T) {
	notifier := NewHTTPNotifier("http://127.0.0.1:1/unreachable")

	delivery, err := notifier.Send(context.Background(), Notification{Body: "ping"})
	require.NoError(t, err)
	assert.False(t, delivery.Delivered)
	assert.NotEmpty(t, delivery.Error)
}
