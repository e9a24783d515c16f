// Package resetpassword устанавливает новый пароль по токену из письма.
package resetpassword

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/lms-server/internal/http/request"
	"github.com/magabrotheeeer/lms-server/internal/http/response"
)

// Request новый пароль.
type Request struct {
	Password string `json:"password" form:"password" validate:"required"`
}

// Service описывает бизнес-логику сброса пароля.
type Service interface {
	ResetPassword(ctx context.Context, rawToken, newPassword string) error
}

// Handler обрабатывает сброс пароля.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service, validate: validator.New()}
}

// ServeHTTP godoc
// @Summary Сброс пароля
// @Tags User
// @Accept json
// @Produce json
// @Param resetToken path string true "Токен из письма"
// @Param request body Request true "Новый пароль"
// @Success 200 {object} response.MessageResponse
// @Failure 400 {object} response.ErrorResponse "Токен недействителен или истек"
// @Router /user/reset-password/{resetToken} [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.user.resetpassword"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	if !response.Validate(w, r, log, h.validate, req) {
		return
	}

	if err := h.service.ResetPassword(r.Context(), chi.URLParam(r, "resetToken"), req.Password); err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	response.JSON(w, r, http.StatusOK, response.OK("Password changed successfully", nil))
}
