// Package lectureremove удаляет лекцию из курса по courseId и lectureId.
package lectureremove

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/lms-server/internal/http/response"
	"github.com/magabrotheeeer/lms-server/internal/lib/apperr"
)

// Service описывает удаление лекции.
type Service interface {
	RemoveLecture(ctx context.Context, courseID, lectureID string) error
}

// Handler обрабатывает удаление лекции.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Удаление лекции
// @Tags Courses
// @Produce json
// @Param courseId query string true "ID курса"
// @Param lectureId query string true "ID лекции"
// @Success 200 {object} response.MessageResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /courses/lecture [delete]
// @Security CookieAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.course.lectureremove"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	courseID := r.URL.Query().Get("courseId")
	lectureID := r.URL.Query().Get("lectureId")
	if courseID == "" || lectureID == "" {
		response.WriteError(w, r, log, apperr.Validation("courseId and lectureId are required"))
		return
	}

	if err := h.service.RemoveLecture(r.Context(), courseID, lectureID); err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	response.JSON(w, r, http.StatusOK, response.OK("Course lecture removed successfully", nil))
}
