package subscribe

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/lms-server/internal/http/middlewarectx"
	"github.com/magabrotheeeer/lms-server/internal/lib/apperr"
	"github.com/magabrotheeeer/lms-server/internal/models"
	subscriptionservice "github.com/magabrotheeeer/lms-server/internal/services/subscription"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) Buy(ctx context.Context, user *models.User) (*subscriptionservice.BuyResult, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*subscriptionservice.BuyResult), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestSubscribeHandler_ServeHTTP(t *testing.T) {
	user := &models.User{ID: "u1", Role: models.RoleLearner}

	tests := []struct {
		name           string
		result         *subscriptionservice.BuyResult
		mockErr        error
		wantStatusCode int
	}{
		{name: "created", result: &subscriptionservice.BuyResult{SubscriptionID: "sub_1", Key: "rzp_key"}, wantStatusCode: http.StatusOK},
		{name: "already subscribed", mockErr: apperr.Conflict("Already subscribed"), wantStatusCode: http.StatusConflict},
		{name: "gateway down", mockErr: apperr.Upstream("payment gateway is unavailable", io.ErrUnexpectedEOF), wantStatusCode: http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			var res any
			if tt.result != nil {
				res = tt.result
			}
			svc.On("Buy", mock.Anything, user).Return(res, tt.mockErr).Once()
			h := New(newNoopLogger(), svc)

			req := httptest.NewRequest(http.MethodPost, "/payments/subscribe", nil)
			req = req.WithContext(context.WithValue(req.Context(), middlewarectx.UserKey, user))
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatusCode, rr.Code)
			var got map[string]any
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&got))
			if tt.result != nil {
				assert.Equal(t, "sub_1", got["subscription_id"])
				assert.Equal(t, "rzp_key", got["key"])
				assert.NotContains(t, got, "customer_id")
			}
			svc.AssertExpectations(t)
		})
	}
}
