// Package courseget возвращает лекции курса подписчикам и администраторам.
package courseget

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/lms-server/internal/http/response"
	"github.com/magabrotheeeer/lms-server/internal/models"
)

// Service описывает получение курса.
type Service interface {
	Get(ctx context.Context, id string) (*models.Course, error)
}

// Handler обрабатывает запрос лекций курса.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Лекции курса
// @Tags Courses
// @Produce json
// @Param id path string true "ID курса"
// @Success 200 {object} response.MessageResponse
// @Failure 403 {object} response.ErrorResponse "Нет активной подписки"
// @Failure 404 {object} response.ErrorResponse
// @Router /courses/{id} [get]
// @Security CookieAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.course.courseget"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	course, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	response.JSON(w, r, http.StatusOK, response.OK("Course lectures fetched successfully", map[string]any{
		"lectures": course.Lectures,
	}))
}
