// Package coursecreate создает курс с необязательной обложкой.
package coursecreate

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/lms-server/internal/http/request"
	"github.com/magabrotheeeer/lms-server/internal/http/response"
	"github.com/magabrotheeeer/lms-server/internal/lib/sl"
	"github.com/magabrotheeeer/lms-server/internal/lib/upload"
	"github.com/magabrotheeeer/lms-server/internal/models"
	courseservice "github.com/magabrotheeeer/lms-server/internal/services/course"
)

// Request поля нового курса. Обязательность проверяет сервис.
type Request struct {
	Title       string `json:"title" form:"title"`
	Description string `json:"description" form:"description"`
	Category    string `json:"category" form:"category"`
	CreatedBy   string `json:"createdBy" form:"createdBy"`
}

// Service описывает создание курса.
type Service interface {
	Create(ctx context.Context, in courseservice.CreateInput) (*models.Course, error)
}

// Handler обрабатывает создание курса.
type Handler struct {
	log     *slog.Logger
	service Service
	saver   *upload.Saver
}

// New создает Handler.
func New(log *slog.Logger, service Service, saver *upload.Saver) *Handler {
	return &Handler{log: log, service: service, saver: saver}
}

// ServeHTTP godoc
// @Summary Создание курса
// @Tags Courses
// @Accept json,mpfd
// @Produce json
// @Param request body Request true "Данные курса"
// @Success 201 {object} response.MessageResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Router /courses [post]
// @Security CookieAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.course.coursecreate"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	if err := h.saver.ParseForm(w, r); err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	thumbnail, err := h.saver.Save(r, "thumbnail")
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	defer func() {
		if err := thumbnail.Remove(); err != nil {
			log.Warn("failed to remove uploaded file", sl.Err(err))
		}
	}()

	var req Request
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, r, log, err)
		return
	}

	in := courseservice.CreateInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		CreatedBy:   req.CreatedBy,
	}
	if thumbnail != nil {
		in.ThumbnailPath = thumbnail.Path
	}
	course, err := h.service.Create(r.Context(), in)
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}

	log.Info("course created", slog.String("course_id", course.ID))
	response.JSON(w, r, http.StatusCreated, response.OK("Course created successfully", map[string]any{
		"course": course,
	}))
}
