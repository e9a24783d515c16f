package paymentprovider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/lms-server/internal/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(config.Razorpay{
		KeyID:      "rzp_test",
		KeySecret:  "secret",
		APIURL:     srv.URL,
		TotalCount: 12,
		Timeout:    time.Second,
		MaxRetries: 3,
	}, WithBackOff(func() backoff.BackOff { return &backoff.ZeroBackOff{} }))
}

func TestClient_CreateSubscription(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/subscriptions", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "rzp_test", user)
		assert.Equal(t, "secret", pass)

		var body CreateSubscriptionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "plan_1", body.PlanID)
		assert.Equal(t, 12, body.TotalCount)
		assert.Equal(t, 1, body.CustomerNotify)
		assert.Equal(t, "u1", body.Notes["user_id"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"sub_123","entity":"subscription","plan_id":"plan_1","status":"created"}`))
	})

	sub, err := client.CreateSubscription(context.Background(), "plan_1", map[string]string{"user_id": "u1"})
	require.NoError(t, err)
	assert.Equal(t, "sub_123", sub.ID)
	assert.Equal(t, "created", sub.Status)
}

func TestClient_CreateSubscription_NotRetried(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := client.CreateSubscription(context.Background(), "plan_1", nil)
	require.Error(t, err)
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_CancelSubscription(t *testing.T) {
	tests := []struct {
		name      string
		statuses  []int
		wantErr   bool
		wantCalls int32
	}{
		{name: "success first try", statuses: []int{200}, wantCalls: 1},
		{name: "retried after 5xx", statuses: []int{502, 503, 200}, wantCalls: 3},
		{name: "4xx is permanent", statuses: []int{400}, wantErr: true, wantCalls: 1},
		{name: "gives up after max retries", statuses: []int{500, 500, 500, 500, 500}, wantErr: true, wantCalls: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				n := calls.Add(1)
				assert.Equal(t, "/subscriptions/sub_1/cancel", r.URL.Path)
				status := tt.statuses[n-1]
				w.WriteHeader(status)
				if status == http.StatusOK {
					_, _ = w.Write([]byte(`{"id":"sub_1","status":"cancelled"}`))
					return
				}
				_, _ = w.Write([]byte(`{"error":{"code":"BAD_REQUEST_ERROR","description":"nope"}}`))
			})

			sub, err := client.CancelSubscription(context.Background(), "sub_1")
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, "cancelled", sub.Status)
			}
			assert.Equal(t, tt.wantCalls, calls.Load())
		})
	}
}

func TestClient_CancelSubscription_ContextCancelled(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.CancelSubscription(ctx, "sub_1")
	assert.Error(t, err)
}
