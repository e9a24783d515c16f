// Package logout удаляет cookie с сессионным токеном.
// Сам токен не отзывается и действует до истечения срока.
package logout

import (
	"net/http"

	"github.com/magabrotheeeer/lms-server/internal/http/middlewarectx"
	"github.com/magabrotheeeer/lms-server/internal/http/response"
)

// Handler обрабатывает выход.
type Handler struct {
	secure bool
}

// New создает Handler.
func New(secure bool) *Handler {
	return &Handler{secure: secure}
}

// ServeHTTP godoc
// @Summary Выход
// @Tags User
// @Produce json
// @Success 200 {object} response.MessageResponse
// @Router /user/logout [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	middlewarectx.ClearTokenCookie(w, h.secure)
	response.JSON(w, r, http.StatusOK, response.OK("User logged out successfully", nil))
}
