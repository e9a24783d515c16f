// Package request разбирает тела запросов: JSON, urlencoded и multipart формы.
package request

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/ajg/form"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/lms-server/internal/lib/apperr"
)

// Decode заполняет v из тела запроса в зависимости от Content-Type.
// Для multipart формы ParseMultipartForm должен быть вызван раньше.
// Пустое тело не является ошибкой.
func Decode(r *http.Request, v any) error {
	ct := r.Header.Get("Content-Type")
	switch {
	case strings.HasPrefix(ct, "multipart/form-data"), strings.HasPrefix(ct, "application/x-www-form-urlencoded"):
		if err := r.ParseForm(); err != nil {
			return apperr.Validation("invalid form body")
		}
		values := r.PostForm
		if r.MultipartForm != nil {
			values = r.MultipartForm.Value
		}
		dec := form.NewDecoder(nil)
		dec.IgnoreUnknownKeys(true)
		if err := dec.DecodeValues(v, values); err != nil {
			return apperr.Validation("invalid form body")
		}
		return nil
	default:
		err := render.DecodeJSON(r.Body, v)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return apperr.Validation("invalid request body")
		}
		return nil
	}
}
