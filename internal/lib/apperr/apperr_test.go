package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKind_Status(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{Validation("bad"), http.StatusBadRequest},
		{PaymentVerification("bad signature"), http.StatusBadRequest},
		{Unauthenticated("login"), http.StatusUnauthorized},
		{Forbidden("no"), http.StatusForbidden},
		{NotFound("missing"), http.StatusNotFound},
		{Conflict("exists"), http.StatusConflict},
		{Upstream("gateway", errors.New("timeout")), http.StatusBadGateway},
		{Internal("db", errors.New("boom")), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err).Status())
		})
	}
}

func TestAs_ThroughWrapping(t *testing.T) {
	cause := errors.New("connection reset")
	err := fmt.Errorf("services.Buy: %w", Upstream("payment gateway unavailable", cause))

	appErr, ok := As(err)
	require.True(t, ok)
	assert.Equal(t, KindUpstream, appErr.Kind)
	assert.Equal(t, "payment gateway unavailable", appErr.Message)
	assert.ErrorIs(t, err, cause)
}
