// Package lectureadd добавляет лекцию в конец курса.
package lectureadd

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/lms-server/internal/http/request"
	"github.com/magabrotheeeer/lms-server/internal/http/response"
	"github.com/magabrotheeeer/lms-server/internal/lib/sl"
	"github.com/magabrotheeeer/lms-server/internal/lib/upload"
	"github.com/magabrotheeeer/lms-server/internal/models"
	courseservice "github.com/magabrotheeeer/lms-server/internal/services/course"
)

// Request поля лекции. Видео передается в поле формы lecture.
type Request struct {
	Title       string `json:"title" form:"title"`
	Description string `json:"description" form:"description"`
}

// Service описывает добавление лекции.
type Service interface {
	AddLecture(ctx context.Context, courseID string, in courseservice.LectureInput) (*models.Course, error)
}

// Handler обрабатывает добавление лекции.
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
// @Summary Добавление лекции
// @Tags Courses
// @Accept mpfd
// @Produce json
// @Param id path string true "ID курса"
// @Param title formData string true "Название"
// @Param description formData string true "Описание"
// @Param lecture formData file false "Видео"
// @Success 200 {object} response.MessageResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /courses/{id} [post]
// @Security CookieAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.course.lectureadd"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	if err := h.saver.ParseForm(w, r); err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	video, err := h.saver.Save(r, "lecture")
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	defer func() {
		if err := video.Remove(); err != nil {
			log.Warn("failed to remove uploaded file", sl.Err(err))
		}
	}()

	var req Request
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, r, log, err)
		return
	}

	in := courseservice.LectureInput{Title: req.Title, Description: req.Description}
	if video != nil {
		in.VideoPath = video.Path
	}
	course, err := h.service.AddLecture(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	response.JSON(w, r, http.StatusOK, response.OK("Course lecture added successfully", map[string]any{
		"course": course,
	}))
}
