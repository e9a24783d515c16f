// Package mediastore загружает и удаляет медиафайлы в Cloudinary.
package mediastore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"github.com/magabrotheeeer/lms-server/internal/config"
	"github.com/magabrotheeeer/lms-server/internal/lib/sl"
	"github.com/magabrotheeeer/lms-server/internal/models"
)

// Kind тип загружаемого объекта.
type Kind int

const (
	// Avatar изображение 250x250 с кадрированием по лицу.
	Avatar Kind = iota
	// Thumbnail обложка курса.
	Thumbnail
	// Video видео лекции.
	Video
)

func (k Kind) resourceType() string {
	if k == Video {
		return "video"
	}
	return "image"
}

func (k Kind) transformation() string {
	if k == Avatar {
		return "c_fill,g_faces,h_250,w_250"
	}
	return ""
}

// API часть uploader.API, используемая хранилищем.
type API interface {
	Upload(ctx context.Context, file interface{}, uploadParams uploader.UploadParams) (*uploader.UploadResult, error)
	Destroy(ctx context.Context, params uploader.DestroyParams) (*uploader.DestroyResult, error)
}

// Store загружает файлы в папку folder с повторами и таймаутом на попытку.
type Store struct {
	api        API
	folder     string
	timeout    time.Duration
	maxRetries uint64
	log        *slog.Logger
	newBackOff func() backoff.BackOff
}

// New создает Store поверх Cloudinary API.
func New(cfg config.Cloudinary, log *slog.Logger) (*Store, error) {
	const op = "mediastore.New"
	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return NewWithAPI(&cld.Upload, cfg, log), nil
}

// NewWithAPI создает Store поверх произвольной реализации API.
func NewWithAPI(api API, cfg config.Cloudinary, log *slog.Logger) *Store {
	return &Store{
		api:        api,
		folder:     cfg.Folder,
		timeout:    cfg.Timeout,
		maxRetries: cfg.MaxRetries,
		log:        log,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 500 * time.Millisecond
			b.MaxElapsedTime = 0
			return b
		},
	}
}

// SetBackOff подменяет политику пауз между повторами.
func (s *Store) SetBackOff(f func() backoff.BackOff) {
	s.newBackOff = f
}

func (s *Store) retry(ctx context.Context, operation func(ctx context.Context) error) error {
	policy := backoff.WithContext(backoff.WithMaxRetries(s.newBackOff(), s.maxRetries), ctx)
	return backoff.Retry(func() error {
		attemptCtx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()
		return operation(attemptCtx)
	}, policy)
}

// Upload загружает локальный файл path и возвращает ссылку на объект.
func (s *Store) Upload(ctx context.Context, path string, kind Kind) (models.Media, error) {
	const op = "mediastore.Upload"
	params := uploader.UploadParams{
		Folder:         s.folder,
		ResourceType:   kind.resourceType(),
		Transformation: kind.transformation(),
	}

	var media models.Media
	err := s.retry(ctx, func(ctx context.Context) error {
		res, err := s.api.Upload(ctx, path, params)
		if err != nil {
			return err
		}
		if res.Error.Message != "" {
			return backoff.Permanent(errors.New(res.Error.Message))
		}
		if res.PublicID == "" || res.SecureURL == "" {
			return backoff.Permanent(errors.New("empty upload result"))
		}
		media = models.Media{PublicID: res.PublicID, SecureURL: res.SecureURL}
		return nil
	})
	if err != nil {
		return models.Media{}, fmt.Errorf("%s: %w", op, err)
	}
	return media, nil
}

// Destroy удаляет объект publicID.
func (s *Store) Destroy(ctx context.Context, publicID string, kind Kind) error {
	const op = "mediastore.Destroy"
	err := s.retry(ctx, func(ctx context.Context) error {
		res, err := s.api.Destroy(ctx, uploader.DestroyParams{
			PublicID:     publicID,
			ResourceType: kind.resourceType(),
		})
		if err != nil {
			return err
		}
		if res.Error.Message != "" {
			return backoff.Permanent(errors.New(res.Error.Message))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// DestroyQuietly удаляет объект и только логирует ошибку.
func (s *Store) DestroyQuietly(ctx context.Context, media models.Media, kind Kind) {
	if media.PublicID == "" || media.SecureURL == models.DefaultAvatarURL {
		return
	}
	if err := s.Destroy(ctx, media.PublicID, kind); err != nil {
		s.log.Warn("failed to destroy media object", slog.String("public_id", media.PublicID), sl.Err(err))
	}
}
