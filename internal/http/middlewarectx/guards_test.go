package middlewarectx_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/lms-server/internal/http/middlewarectx"
	"github.com/magabrotheeeer/lms-server/internal/lib/apperr"
	"github.com/magabrotheeeer/lms-server/internal/lib/jwt"
	"github.com/magabrotheeeer/lms-server/internal/models"
)

type UserProviderMock struct {
	mock.Mock
}

func (m *UserProviderMock) Profile(ctx context.Context, userID string) (*models.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func newTokenMaker() *jwt.MakerImpl {
	return jwt.NewJWTMaker("test-secret", time.Hour)
}

func subscribed(status models.SubscriptionStatus) *models.Subscription {
	return &models.Subscription{GatewaySubscriptionID: "sub_1", Status: status}
}

func TestChain(t *testing.T) {
	maker := newTokenMaker()
	validToken, err := maker.GenerateToken("u1")
	require.NoError(t, err)
	expired, err := jwt.NewJWTMaker("test-secret", time.Hour,
		jwt.WithClock(func() time.Time { return time.Now().Add(-2 * time.Hour) })).GenerateToken("u1")
	require.NoError(t, err)

	identity := func(users *UserProviderMock) middlewarectx.Guard {
		return middlewarectx.Identity(maker, users)
	}

	tests := []struct {
		name       string
		cookie     string
		user       *models.User
		userErr    error
		guards     func(users *UserProviderMock) []middlewarectx.Guard
		wantStatus int
		wantCalled bool
	}{
		{
			name:       "no cookie",
			guards:     func(u *UserProviderMock) []middlewarectx.Guard { return []middlewarectx.Guard{identity(u)} },
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "garbage token",
			cookie:     "not-a-jwt",
			guards:     func(u *UserProviderMock) []middlewarectx.Guard { return []middlewarectx.Guard{identity(u)} },
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "expired token",
			cookie:     expired,
			guards:     func(u *UserProviderMock) []middlewarectx.Guard { return []middlewarectx.Guard{identity(u)} },
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "deleted user",
			cookie:     validToken,
			userErr:    apperr.NotFound("User not found"),
			guards:     func(u *UserProviderMock) []middlewarectx.Guard { return []middlewarectx.Guard{identity(u)} },
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "authenticated",
			cookie:     validToken,
			user:       &models.User{ID: "u1", Role: models.RoleLearner},
			guards:     func(u *UserProviderMock) []middlewarectx.Guard { return []middlewarectx.Guard{identity(u)} },
			wantStatus: http.StatusOK,
			wantCalled: true,
		},
		{
			name:   "learner on admin route",
			cookie: validToken,
			user:   &models.User{ID: "u1", Role: models.RoleLearner},
			guards: func(u *UserProviderMock) []middlewarectx.Guard {
				return []middlewarectx.Guard{identity(u), middlewarectx.AuthorizeRoles(models.RoleAdmin)}
			},
			wantStatus: http.StatusForbidden,
		},
		{
			name:   "admin on admin route",
			cookie: validToken,
			user:   &models.User{ID: "u1", Role: models.RoleAdmin},
			guards: func(u *UserProviderMock) []middlewarectx.Guard {
				return []middlewarectx.Guard{identity(u), middlewarectx.AuthorizeRoles(models.RoleAdmin)}
			},
			wantStatus: http.StatusOK,
			wantCalled: true,
		},
		{
			name:   "learner without subscription",
			cookie: validToken,
			user:   &models.User{ID: "u1", Role: models.RoleLearner},
			guards: func(u *UserProviderMock) []middlewarectx.Guard {
				return []middlewarectx.Guard{identity(u), middlewarectx.AuthorizeSubscribers()}
			},
			wantStatus: http.StatusForbidden,
		},
		{
			name:   "learner with cancelled subscription",
			cookie: validToken,
			user:   &models.User{ID: "u1", Role: models.RoleLearner, Subscription: subscribed(models.SubscriptionCancelled)},
			guards: func(u *UserProviderMock) []middlewarectx.Guard {
				return []middlewarectx.Guard{identity(u), middlewarectx.AuthorizeSubscribers()}
			},
			wantStatus: http.StatusForbidden,
		},
		{
			name:   "learner with active subscription",
			cookie: validToken,
			user:   &models.User{ID: "u1", Role: models.RoleLearner, Subscription: subscribed(models.SubscriptionActive)},
			guards: func(u *UserProviderMock) []middlewarectx.Guard {
				return []middlewarectx.Guard{identity(u), middlewarectx.AuthorizeSubscribers()}
			},
			wantStatus: http.StatusOK,
			wantCalled: true,
		},
		{
			name:   "admin bypasses subscription check",
			cookie: validToken,
			user:   &models.User{ID: "u1", Role: models.RoleAdmin},
			guards: func(u *UserProviderMock) []middlewarectx.Guard {
				return []middlewarectx.Guard{identity(u), middlewarectx.AuthorizeSubscribers()}
			},
			wantStatus: http.StatusOK,
			wantCalled: true,
		},
		{
			name: "subscription check before identity",
			guards: func(_ *UserProviderMock) []middlewarectx.Guard {
				return []middlewarectx.Guard{middlewarectx.AuthorizeSubscribers()}
			},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := new(UserProviderMock)
			if tt.user != nil || tt.userErr != nil {
				users.On("Profile", mock.Anything, "u1").Return(tt.user, tt.userErr).Once()
			}

			called := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				user, ok := middlewarectx.UserFromContext(r.Context())
				assert.True(t, ok)
				assert.Equal(t, tt.user, user)
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: middlewarectx.TokenCookie, Value: tt.cookie})
			}
			rec := httptest.NewRecorder()

			middlewarectx.Chain(newNoopLogger(), tt.guards(users)...)(next).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCalled, called)
			if !tt.wantCalled {
				var body map[string]any
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
				assert.Equal(t, false, body["success"])
				assert.NotEmpty(t, body["message"])
			}
			users.AssertExpectations(t)
		})
	}
}
