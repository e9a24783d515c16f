// Package updateuser меняет имя, email или аватар пользователя.
package updateuser

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/lms-server/internal/http/middlewarectx"
	"github.com/magabrotheeeer/lms-server/internal/http/request"
	"github.com/magabrotheeeer/lms-server/internal/http/response"
	"github.com/magabrotheeeer/lms-server/internal/lib/apperr"
	"github.com/magabrotheeeer/lms-server/internal/lib/sl"
	"github.com/magabrotheeeer/lms-server/internal/lib/upload"
	"github.com/magabrotheeeer/lms-server/internal/models"
	authservice "github.com/magabrotheeeer/lms-server/internal/services/auth"
)

// Request изменяемые поля профиля. Пустые поля не меняются.
type Request struct {
	FullName string `json:"fullName" form:"fullName" validate:"omitempty,max=50"`
	Email    string `json:"email" form:"email" validate:"omitempty,email"`
}

// Service описывает бизнес-логику изменения профиля.
type Service interface {
	UpdateUser(ctx context.Context, actor *models.User, targetID string, in authservice.UpdateInput) (*models.User, error)
}

// Handler обрабатывает изменение профиля.
type Handler struct {
	log      *slog.Logger
	service  Service
	saver    *upload.Saver
	validate *validator.Validate
}

// New создает Handler.
func New(log *slog.Logger, service Service, saver *upload.Saver) *Handler {
	return &Handler{log: log, service: service, saver: saver, validate: validator.New()}
}

// ServeHTTP godoc
// @Summary Изменение профиля
// @Tags User
// @Accept json,mpfd
// @Produce json
// @Param id path string true "ID пользователя"
// @Param request body Request true "Новые значения"
// @Success 200 {object} response.MessageResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /user/update/{id} [put]
// @Security CookieAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.user.updateuser"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	actor, ok := middlewarectx.UserFromContext(r.Context())
	if !ok {
		response.WriteError(w, r, log, apperr.Internal("no user in request context", nil))
		return
	}

	if err := h.saver.ParseForm(w, r); err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	avatar, err := h.saver.Save(r, "avatar")
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	defer func() {
		if err := avatar.Remove(); err != nil {
			log.Warn("failed to remove uploaded file", sl.Err(err))
		}
	}()

	var req Request
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	if !response.Validate(w, r, log, h.validate, req) {
		return
	}

	in := authservice.UpdateInput{FullName: req.FullName, Email: req.Email}
	if avatar != nil {
		in.AvatarPath = avatar.Path
	}
	user, err := h.service.UpdateUser(r.Context(), actor, chi.URLParam(r, "id"), in)
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	response.JSON(w, r, http.StatusOK, response.OK("User updated successfully", map[string]any{
		"user": user.View(),
	}))
}
