// Package paymentkey отдает публичный ключ платежного шлюза.
package paymentkey

import (
	"net/http"

	"github.com/magabrotheeeer/lms-server/internal/http/response"
)

// KeyProvider возвращает публичный ключ шлюза.
type KeyProvider interface {
	Key() string
}

// Handler обрабатывает запрос ключа.
type Handler struct {
	keys KeyProvider
}

// New создает Handler.
func New(keys KeyProvider) *Handler {
	return &Handler{keys: keys}
}

// ServeHTTP godoc
// @Summary Публичный ключ шлюза
// @Tags Payments
// @Produce json
// @Success 200 {object} response.MessageResponse
// @Router /payments/razorpay-key [get]
// @Security CookieAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, response.OK("Razorpay API key", map[string]any{
		"key": h.keys.Key(),
	}))
}
