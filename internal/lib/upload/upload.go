// Package upload принимает файлы из multipart форм и сохраняет их во
// временную директорию до отправки в хранилище медиафайлов.
package upload

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/lms-server/internal/lib/apperr"
)

// DefaultExtensions допустимые расширения изображений и видео.
var DefaultExtensions = []string{".jpg", ".jpeg", ".png", ".webp", ".mp4"}

// memoryLimit часть формы, которую ParseMultipartForm держит в памяти.
const memoryLimit = 8 << 20

// File сохраненный на диск файл запроса.
type File struct {
	Path         string
	OriginalName string
	Size         int64
}

// Remove удаляет временный файл. Безопасно вызывать для nil.
func (f *File) Remove() error {
	if f == nil {
		return nil
	}
	if err := os.Remove(f.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Saver сохраняет файлы запросов в Dir.
type Saver struct {
	Dir        string
	MaxSize    int64
	Extensions []string
}

// New создает Saver с расширениями по умолчанию.
func New(dir string, maxSize int64) *Saver {
	return &Saver{Dir: dir, MaxSize: maxSize, Extensions: DefaultExtensions}
}

// ParseForm ограничивает размер тела запроса и разбирает multipart форму.
// Обычные формы и JSON запросы пропускаются без изменений.
func (s *Saver) ParseForm(w http.ResponseWriter, r *http.Request) error {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return nil
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.MaxSize)
	if err := r.ParseMultipartForm(memoryLimit); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return apperr.Validation(fmt.Sprintf("file is too large, max %d MB", s.MaxSize>>20))
		}
		return apperr.Validation("invalid multipart form")
	}
	return nil
}

// Save сохраняет файл из поля field. Если поле отсутствует, возвращает nil, nil.
// ParseForm должен быть вызван раньше.
func (s *Saver) Save(r *http.Request, field string) (*File, error) {
	const op = "upload.Save"
	if r.MultipartForm == nil {
		return nil, nil
	}
	src, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Validation("invalid file in field " + field)
	}
	defer src.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !s.allowed(ext) {
		return nil, apperr.Validation(fmt.Sprintf("unsupported file type %q", ext))
	}
	if header.Size > s.MaxSize {
		return nil, apperr.Validation(fmt.Sprintf("file is too large, max %d MB", s.MaxSize>>20))
	}

	if err := os.MkdirAll(s.Dir, 0o750); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	path := filepath.Join(s.Dir, uuid.NewString()+ext)
	written, err := copyToFile(path, src)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &File{Path: path, OriginalName: header.Filename, Size: written}, nil
}

func (s *Saver) allowed(ext string) bool {
	for _, e := range s.Extensions {
		if e == ext {
			return true
		}
	}
	return false
}

func copyToFile(path string, src multipart.File) (int64, error) {
	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(dst, src)
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		return 0, err
	}
	return n, nil
}
