// Package response содержит вспомогательные типы и функции для формирования
// унифицированных JSON-ответов HTTP-обработчиков. Успешный ответ имеет вид
// {success: true, message, ...данные}, ошибка {success: false, message}.
package response

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/lms-server/internal/lib/apperr"
	"github.com/magabrotheeeer/lms-server/internal/lib/sl"
)

// ErrorResponse структура ошибки, в том числе для Swagger-документации.
type ErrorResponse struct {
	Success bool   `json:"success" example:"false"`
	Message string `json:"message" example:"invalid request body"`
}

// MessageResponse успешный ответ без данных, для Swagger-документации.
type MessageResponse struct {
	Success bool   `json:"success" example:"true"`
	Message string `json:"message" example:"ok"`
}

// InternalMessage показывается клиенту вместо деталей непредвиденной ошибки.
const InternalMessage = "internal server error"

// OK возвращает тело успешного ответа с сообщением и данными payload.
func OK(message string, payload map[string]any) map[string]any {
	body := make(map[string]any, len(payload)+2)
	for k, v := range payload {
		body[k] = v
	}
	body["success"] = true
	body["message"] = message
	return body
}

// Error возвращает тело ответа с ошибкой.
func Error(msg string) ErrorResponse {
	return ErrorResponse{
		Success: false,
		Message: msg,
	}
}

// JSON пишет ответ со статусом status.
func JSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	render.Status(r, status)
	render.JSON(w, r, body)
}

// WriteError пишет ошибку со статусом, соответствующим ее категории.
// Непредвиденные ошибки логируются, клиент получает только InternalMessage.
func WriteError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	e, ok := apperr.As(err)
	if !ok || e.Kind == apperr.KindInternal {
		log.Error("request failed", sl.Err(err))
		JSON(w, r, http.StatusInternalServerError, Error(InternalMessage))
		return
	}
	if e.Kind == apperr.KindUpstream {
		log.Error("upstream call failed", sl.Err(err))
	} else {
		log.Info("request rejected", slog.String("reason", e.Message))
	}
	JSON(w, r, e.Kind.Status(), Error(e.Message))
}

// ValidationError формирует ответ 400 на основе ошибок валидации.
// Каждое нарушение формируется в человекочитаемый текст, объединенный через запятую.
func ValidationError(errs validator.ValidationErrors) ErrorResponse {
	var errsMsgs []string

	for _, err := range errs {
		switch err.ActualTag() {
		case "required":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is a required field", err.Field()))
		case "email":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be a valid email", err.Field()))
		case "min":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be at least %s characters long", err.Field(), err.Param()))
		case "max":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be at most %s characters long", err.Field(), err.Param()))
		case "uuid":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s can contain only uuid", err.Field()))
		default:
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is not a valid", err.Field()))
		}
	}
	return Error(strings.Join(errsMsgs, ", "))
}

// Validate проверяет req и при ошибке пишет ответ 400. Возвращает false, если
// запрос не прошел проверку.
func Validate(w http.ResponseWriter, r *http.Request, log *slog.Logger, v *validator.Validate, req any) bool {
	err := v.Struct(req)
	if err == nil {
		return true
	}
	log.Info("validation failed", sl.Err(err))
	if errs, ok := err.(validator.ValidationErrors); ok {
		JSON(w, r, http.StatusBadRequest, ValidationError(errs))
		return false
	}
	JSON(w, r, http.StatusBadRequest, Error("invalid request"))
	return false
}
