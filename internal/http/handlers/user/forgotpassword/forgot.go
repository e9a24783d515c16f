// Package forgotpassword отправляет пользователю ссылку для сброса пароля.
package forgotpassword

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/lms-server/internal/http/request"
	"github.com/magabrotheeeer/lms-server/internal/http/response"
)

// Request адрес, на который отправляется ссылка.
type Request struct {
	Email string `json:"email" form:"email" validate:"required,email"`
}

// Service описывает бизнес-логику восстановления пароля.
type Service interface {
	ForgotPassword(ctx context.Context, email string) error
}

// Handler обрабатывает запрос ссылки восстановления.
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
// @Summary Запрос сброса пароля
// @Tags User
// @Accept json
// @Produce json
// @Param request body Request true "Email"
// @Success 200 {object} response.MessageResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse "Email не зарегистрирован"
// @Router /user/reset [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.user.forgotpassword"
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

	if err := h.service.ForgotPassword(r.Context(), req.Email); err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	response.JSON(w, r, http.StatusOK, response.OK(
		fmt.Sprintf("Reset password link has been sent to %s", req.Email), nil))
}
