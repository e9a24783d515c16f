// Package course содержит бизнес-логику каталога курсов и лекций.
package course

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/lms-server/internal/cache"
	"github.com/magabrotheeeer/lms-server/internal/lib/apperr"
	"github.com/magabrotheeeer/lms-server/internal/lib/sl"
	"github.com/magabrotheeeer/lms-server/internal/mediastore"
	"github.com/magabrotheeeer/lms-server/internal/models"
	"github.com/magabrotheeeer/lms-server/internal/storage"
)

// Storage определяет методы хранилища курсов.
type Storage interface {
	CreateCourse(ctx context.Context, course models.Course) (*models.Course, error)
	ListCourses(ctx context.Context) ([]models.Course, error)
	GetCourse(ctx context.Context, id string) (*models.Course, error)
	UpdateCourse(ctx context.Context, id string, upd models.CourseUpdate) (*models.Course, error)
	DeleteCourse(ctx context.Context, id string) (*models.Course, error)
	AddLecture(ctx context.Context, courseID string, lecture models.Lecture) (*models.Course, error)
	RemoveLecture(ctx context.Context, courseID, lectureID string) (*models.Lecture, error)
}

// Cache описывает методы для кэширования каталога.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any) error
	Invalidate(ctx context.Context, keys ...string) error
}

// MediaStore загружает и удаляет обложки и видео.
type MediaStore interface {
	Upload(ctx context.Context, path string, kind mediastore.Kind) (models.Media, error)
	DestroyQuietly(ctx context.Context, media models.Media, kind mediastore.Kind)
}

// Service реализует операции над курсами.
type Service struct {
	store Storage
	cache Cache
	media MediaStore
	log   *slog.Logger
}

// New создает Service.
func New(store Storage, cache Cache, media MediaStore, log *slog.Logger) *Service {
	return &Service{
		store: store,
		cache: cache,
		media: media,
		log:   log,
	}
}

// List возвращает все курсы без лекций.
func (s *Service) List(ctx context.Context) ([]models.Course, error) {
	var courses []models.Course
	found, err := s.cache.Get(ctx, cache.KeyCourses, &courses)
	if err != nil {
		s.log.Warn("failed to read courses from cache", sl.Err(err))
	}
	if found {
		return courses, nil
	}

	courses, err = s.store.ListCourses(ctx)
	if err != nil {
		return nil, apperr.Internal("failed to list courses", err)
	}
	if courses == nil {
		courses = []models.Course{}
	}
	if err := s.cache.Set(ctx, cache.KeyCourses, courses); err != nil {
		s.log.Warn("failed to cache courses", sl.Err(err))
	}
	return courses, nil
}

// Get возвращает курс вместе с лекциями.
func (s *Service) Get(ctx context.Context, id string) (*models.Course, error) {
	key := cache.KeyCourseLectures(id)
	var course models.Course
	found, err := s.cache.Get(ctx, key, &course)
	if err != nil {
		s.log.Warn("failed to read course from cache", slog.String("key", key), sl.Err(err))
	}
	if found {
		return &course, nil
	}

	c, err := s.store.GetCourse(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apperr.NotFound("Invalid course id or course not found.")
	}
	if err != nil {
		return nil, apperr.Internal("failed to load course", err)
	}
	if c.Lectures == nil {
		c.Lectures = []models.Lecture{}
	}
	if err := s.cache.Set(ctx, key, c); err != nil {
		s.log.Warn("failed to cache course", slog.String("key", key), sl.Err(err))
	}
	return c, nil
}

// CreateInput поля нового курса. ThumbnailPath пустой, если файл не передан.
type CreateInput struct {
	Title         string
	Description   string
	Category      string
	CreatedBy     string
	ThumbnailPath string
}

// Create сохраняет курс. Обложка загружается до записи в базу и удаляется,
// если запись не удалась.
func (s *Service) Create(ctx context.Context, in CreateInput) (*models.Course, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Category = strings.TrimSpace(in.Category)
	in.CreatedBy = strings.TrimSpace(in.CreatedBy)
	if in.Title == "" || in.Description == "" || in.Category == "" || in.CreatedBy == "" {
		return nil, apperr.Validation("All fields are required")
	}

	var thumbnail models.Media
	if in.ThumbnailPath != "" {
		var err error
		thumbnail, err = s.media.Upload(ctx, in.ThumbnailPath, mediastore.Thumbnail)
		if err != nil {
			return nil, apperr.Upstream("File not uploaded, please try again", err)
		}
	}

	course, err := s.store.CreateCourse(ctx, models.Course{
		Title:       in.Title,
		Description: in.Description,
		Category:    in.Category,
		CreatedBy:   in.CreatedBy,
		Thumbnail:   thumbnail,
	})
	if err != nil {
		if in.ThumbnailPath != "" {
			s.media.DestroyQuietly(ctx, thumbnail, mediastore.Thumbnail)
		}
		return nil, apperr.Internal("Course could not be created, please try again", err)
	}

	s.invalidate(ctx)
	s.log.Info("course created", slog.String("course_id", course.ID))
	return course, nil
}

// Update меняет переданные поля курса.
func (s *Service) Update(ctx context.Context, id string, upd models.CourseUpdate) (*models.Course, error) {
	if upd.Empty() {
		return nil, apperr.Validation("Nothing to update")
	}
	course, err := s.store.UpdateCourse(ctx, id, upd)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apperr.NotFound("Invalid course id or course not found.")
	}
	if err != nil {
		return nil, apperr.Internal("failed to update course", err)
	}
	s.invalidate(ctx, id)
	return course, nil
}

// Delete удаляет курс с лекциями, затем их медиафайлы.
func (s *Service) Delete(ctx context.Context, id string) error {
	course, err := s.store.DeleteCourse(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return apperr.NotFound("Course with given id does not exist.")
	}
	if err != nil {
		return apperr.Internal("failed to delete course", err)
	}
	s.invalidate(ctx, id)

	s.media.DestroyQuietly(ctx, course.Thumbnail, mediastore.Thumbnail)
	for _, l := range course.Lectures {
		s.media.DestroyQuietly(ctx, l.Video, mediastore.Video)
	}
	s.log.Info("course deleted", slog.String("course_id", id), slog.Int("lectures", len(course.Lectures)))
	return nil
}

// LectureInput поля новой лекции. VideoPath пустой, если файл не передан.
type LectureInput struct {
	Title       string
	Description string
	VideoPath   string
}

// AddLecture добавляет лекцию в конец курса и возвращает курс с лекциями.
func (s *Service) AddLecture(ctx context.Context, courseID string, in LectureInput) (*models.Course, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if in.Title == "" || in.Description == "" {
		return nil, apperr.Validation("Title and Description are required")
	}

	var video models.Media
	if in.VideoPath != "" {
		var err error
		video, err = s.media.Upload(ctx, in.VideoPath, mediastore.Video)
		if err != nil {
			return nil, apperr.Upstream("File not uploaded, please try again", err)
		}
	}

	course, err := s.store.AddLecture(ctx, courseID, models.Lecture{
		Title:       in.Title,
		Description: in.Description,
		Video:       video,
	})
	if err != nil {
		if in.VideoPath != "" {
			s.media.DestroyQuietly(ctx, video, mediastore.Video)
		}
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperr.NotFound("Invalid course id or course not found.")
		}
		return nil, apperr.Internal("failed to add lecture", err)
	}
	s.invalidate(ctx, courseID)
	return course, nil
}

// RemoveLecture удаляет медиафайл лекции, затем саму лекцию.
func (s *Service) RemoveLecture(ctx context.Context, courseID, lectureID string) error {
	if courseID == "" {
		return apperr.Validation("Course ID is required")
	}
	if lectureID == "" {
		return apperr.Validation("Lecture ID is required")
	}

	course, err := s.store.GetCourse(ctx, courseID)
	if errors.Is(err, storage.ErrNotFound) {
		return apperr.NotFound("Invalid ID or Course does not exist.")
	}
	if err != nil {
		return apperr.Internal("failed to load course", err)
	}
	lecture, ok := course.Lecture(lectureID)
	if !ok {
		return apperr.NotFound("Lecture does not exist.")
	}

	s.media.DestroyQuietly(ctx, lecture.Video, mediastore.Video)

	if _, err := s.store.RemoveLecture(ctx, courseID, lectureID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apperr.NotFound("Lecture does not exist.")
		}
		return apperr.Internal("failed to remove lecture", err)
	}
	s.invalidate(ctx, courseID)
	return nil
}

func (s *Service) invalidate(ctx context.Context, courseIDs ...string) {
	keys := []string{cache.KeyCourses}
	for _, id := range courseIDs {
		keys = append(keys, cache.KeyCourseLectures(id))
	}
	if err := s.cache.Invalidate(ctx, keys...); err != nil {
		s.log.Warn("failed to invalidate course cache", slog.Any("keys", keys), sl.Err(err))
	}
}
