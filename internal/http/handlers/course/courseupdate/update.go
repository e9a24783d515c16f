// Package courseupdate меняет поля курса. Лекции этим запросом не меняются.
package courseupdate

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/lms-server/internal/http/request"
	"github.com/magabrotheeeer/lms-server/internal/http/response"
	"github.com/magabrotheeeer/lms-server/internal/models"
)

// Request изменяемые поля. Отсутствующее поле не меняется.
type Request struct {
	Title       *string `json:"title" form:"title"`
	Description *string `json:"description" form:"description"`
	Category    *string `json:"category" form:"category"`
	CreatedBy   *string `json:"createdBy" form:"createdBy"`
}

// Service описывает изменение курса.
type Service interface {
	Update(ctx context.Context, id string, upd models.CourseUpdate) (*models.Course, error)
}

// Handler обрабатывает изменение курса.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Изменение курса
// @Tags Courses
// @Accept json
// @Produce json
// @Param id path string true "ID курса"
// @Param request body Request true "Новые значения"
// @Success 200 {object} response.MessageResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /courses/{id} [put]
// @Security CookieAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.course.courseupdate"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, r, log, err)
		return
	}

	course, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), models.CourseUpdate{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		CreatedBy:   req.CreatedBy,
	})
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	response.JSON(w, r, http.StatusOK, response.OK("Course updated successfully", map[string]any{
		"course": course,
	}))
}
