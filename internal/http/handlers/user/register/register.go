// Package register реализует HTTP-обработчик регистрации пользователя.
//
// Принимает JSON или multipart форму с необязательным аватаром, создает
// пользователя и кладет сессионный токен в cookie.
package register

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/lms-server/internal/http/middlewarectx"
	"github.com/magabrotheeeer/lms-server/internal/http/request"
	"github.com/magabrotheeeer/lms-server/internal/http/response"
	"github.com/magabrotheeeer/lms-server/internal/lib/sl"
	"github.com/magabrotheeeer/lms-server/internal/lib/upload"
	"github.com/magabrotheeeer/lms-server/internal/models"
	authservice "github.com/magabrotheeeer/lms-server/internal/services/auth"
)

// Request входные данные для регистрации.
type Request struct {
	FullName string `json:"fullName" form:"fullName" validate:"required,max=50"`
	Email    string `json:"email" form:"email" validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required"`
}

// Service описывает бизнес-логику регистрации.
type Service interface {
	Register(ctx context.Context, in authservice.RegisterInput) (*models.User, string, error)
}

// Handler обрабатывает регистрацию.
type Handler struct {
	log      *slog.Logger
	service  Service
	saver    *upload.Saver
	validate *validator.Validate
	tokenTTL time.Duration
	secure   bool
}

// New создает Handler. tokenTTL задает срок жизни cookie, secure включает флаг Secure.
func New(log *slog.Logger, service Service, saver *upload.Saver, tokenTTL time.Duration, secure bool) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		saver:    saver,
		validate: validator.New(),
		tokenTTL: tokenTTL,
		secure:   secure,
	}
}

// ServeHTTP godoc
// @Summary Регистрация
// @Description Создает пользователя с ролью LEARNER и устанавливает cookie token
// @Tags User
// @Accept json,mpfd
// @Produce json
// @Param request body Request true "Данные пользователя"
// @Success 201 {object} response.MessageResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse "Email уже занят"
// @Router /user/register [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.user.register"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

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

	in := authservice.RegisterInput{FullName: req.FullName, Email: req.Email, Password: req.Password}
	if avatar != nil {
		in.AvatarPath = avatar.Path
	}
	user, token, err := h.service.Register(r.Context(), in)
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}

	middlewarectx.SetTokenCookie(w, token, h.tokenTTL, h.secure)
	response.JSON(w, r, http.StatusCreated, response.OK("User registered successfully", map[string]any{
		"user": user.View(),
	}))
}
