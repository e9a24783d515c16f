// Package courseremove удаляет курс вместе с лекциями и медиафайлами.
package courseremove

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/lms-server/internal/http/response"
)

// Service описывает удаление курса.
type Service interface {
	Delete(ctx context.Context, id string) error
}

// Handler обрабатывает удаление курса.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Удаление курса
// @Tags Courses
// @Produce json
// @Param id path string true "ID курса"
// @Success 200 {object} response.MessageResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /courses/{id} [delete]
// @Security CookieAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.course.courseremove"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id := chi.URLParam(r, "id")
	if err := h.service.Delete(r.Context(), id); err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	log.Info("course deleted", slog.String("course_id", id))
	response.JSON(w, r, http.StatusOK, response.OK("Course deleted successfully", nil))
}
