package botnotify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	path   string
	secret string
	body   map[string]string
}

func newRecordingServer(t *testing.T) (*httptest.Server, *[]recordedRequest) {
	t.Helper()
	var requests []recordedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		requests = append(requests, recordedRequest{
			path:   r.URL.Path,
			secret: r.Header.Get("x-webhook-secret"),
			body:   body,
		})
		w.WriteHeader(http.StatusOK)
	}))
	return srv, &requests
}

func TestNotifyLinked(t *testing.T) {
	srv, requests := newRecordingServer(t)
	defer srv.Close()

	n := NewNotifier(srv.URL+"/", "hook-secret")
	require.True(t, n.Enabled())

	n.NotifyLinked(context.Background(), "5491122334455", "ana@example.com", "203.0.113.9")

	require.Len(t, *requests, 1)
	got := (*requests)[0]
	assert.Equal(t, "/webhook/linked", got.path)
	assert.Equal(t, "hook-secret", got.secret)
	assert.Equal(t, map[string]string{
		"chatId":   "5491122334455",
		"username": "ana@example.com",
		"ip":       "203.0.113.9",
	}, got.body)
}

func TestNotifySubscriptionActivated(t *testing.T) {
	srv, requests := newRecordingServer(t)
	defer srv.Close()

	n := NewNotifier(srv.URL, "hook-secret")
	n.NotifySubscriptionActivated(context.Background(), "user-pub-42")

	require.Len(t, *requests, 1)
	got := (*requests)[0]
	assert.Equal(t, "/webhook/subscription-activated", got.path)
	assert.Equal(t, map[string]string{"userId": "user-pub-42"}, got.body)
}

func TestDisabledNotifierIsNoOp(t *testing.T) {
	srv, requests := newRecordingServer(t)
	defer srv.Close()

	for _, n := range []*Notifier{
		NewNotifier("", "secret"),
		NewNotifier(srv.URL, ""),
		NewNotifier("", ""),
	} {
		assert.False(t, n.Enabled())
		n.NotifyLinked(context.Background(), "549", "u", "ip")
		n.NotifySubscriptionActivated(context.Background(), "pub")
	}
	assert.Empty(t, *requests)
}

func TestDeliveryFailureIsSwallowed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	n := NewNotifier(srv.URL, "hook-secret")
	// Must not panic or return anything; errors only get logged.
	n.NotifySubscriptionActivated(context.Background(), "user-pub-42")

	unreachable := NewNotifier("http://127.0.0.1:1", "hook-secret")
	unreachable.NotifyLinked(context.Background(), "549", "u", "ip")
}
