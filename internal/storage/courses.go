package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/lms-server/internal/models"
)

const courseColumns = `id, title, description, category, created_by,
	thumbnail_public_id, thumbnail_secure_url, number_of_lectures, created_at, updated_at`

func scanCourse(row rowScanner) (*models.Course, error) {
	var c models.Course
	err := row.Scan(&c.ID, &c.Title, &c.Description, &c.Category, &c.CreatedBy,
		&c.Thumbnail.PublicID, &c.Thumbnail.SecureURL, &c.NumberOfLectures, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// CreateCourse сохраняет курс без лекций.
func (s *Storage) CreateCourse(ctx context.Context, course models.Course) (*models.Course, error) {
	const op = "storage.CreateCourse"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	course.ID = uuid.NewString()
	course.Lectures = nil
	course.NumberOfLectures = 0
	query := `INSERT INTO courses (id, title, description, category, created_by, thumbnail_public_id, thumbnail_secure_url)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)
			  RETURNING created_at, updated_at`
	err := s.DB.QueryRowContext(ctx, query, course.ID, course.Title, course.Description, course.Category,
		course.CreatedBy, course.Thumbnail.PublicID, course.Thumbnail.SecureURL,
	).Scan(&course.CreatedAt, &course.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &course, nil
}

// ListCourses возвращает все курсы без списков лекций.
func (s *Storage) ListCourses(ctx context.Context) ([]models.Course, error) {
	const op = "storage.ListCourses"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT `+courseColumns+` FROM courses ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	result := []models.Course{}
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// GetCourse возвращает курс с лекциями в порядке добавления.
func (s *Storage) GetCourse(ctx context.Context, id string) (*models.Course, error) {
	const op = "storage.GetCourse"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	course, err := loadCourse(ctx, s.DB, id, false)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return course, nil
}

// UpdateCourse применяет изменения к курсу и возвращает его новое состояние.
func (s *Storage) UpdateCourse(ctx context.Context, id string, upd models.CourseUpdate) (*models.Course, error) {
	const op = "storage.UpdateCourse"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	var course *models.Course
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		course, err = loadCourse(ctx, tx, id, true)
		if err != nil {
			return err
		}
		upd.Apply(course)
		return tx.QueryRowContext(ctx, `UPDATE courses
				SET title = $2, description = $3, category = $4, created_by = $5, updated_at = NOW()
				WHERE id = $1
				RETURNING updated_at`,
			id, course.Title, course.Description, course.Category, course.CreatedBy,
		).Scan(&course.UpdatedAt)
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return course, nil
}

// DeleteCourse удаляет курс вместе с лекциями и возвращает удаленный курс,
// чтобы вызывающий мог удалить его медиафайлы.
func (s *Storage) DeleteCourse(ctx context.Context, id string) (*models.Course, error) {
	const op = "storage.DeleteCourse"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	var course *models.Course
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		course, err = loadCourse(ctx, tx, id, true)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `DELETE FROM courses WHERE id = $1`, id)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return course, nil
}

// AddLecture добавляет лекцию в конец курса и обновляет счетчик лекций в той же транзакции.
func (s *Storage) AddLecture(ctx context.Context, courseID string, lecture models.Lecture) (*models.Course, error) {
	const op = "storage.AddLecture"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	var course *models.Course
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		course, err = loadCourse(ctx, tx, courseID, true)
		if err != nil {
			return err
		}
		lecture.ID = uuid.NewString()
		err = tx.QueryRowContext(ctx, `INSERT INTO lectures
				(id, course_id, title, description, video_public_id, video_secure_url)
				VALUES ($1, $2, $3, $4, $5, $6)
				RETURNING created_at`,
			lecture.ID, courseID, lecture.Title, lecture.Description,
			lecture.Video.PublicID, lecture.Video.SecureURL,
		).Scan(&lecture.CreatedAt)
		if err != nil {
			return err
		}
		course.AddLecture(lecture)
		return saveLectureCount(ctx, tx, course)
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return course, nil
}

// RemoveLecture удаляет лекцию курса и обновляет счетчик лекций в той же транзакции.
// Возвращает удаленную лекцию.
func (s *Storage) RemoveLecture(ctx context.Context, courseID, lectureID string) (*models.Lecture, error) {
	const op = "storage.RemoveLecture"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	var removed models.Lecture
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		course, err := loadCourse(ctx, tx, courseID, true)
		if err != nil {
			return err
		}
		var ok bool
		removed, ok = course.RemoveLecture(lectureID)
		if !ok {
			return ErrNotFound
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM lectures WHERE id = $1 AND course_id = $2`, lectureID, courseID); err != nil {
			return err
		}
		return saveLectureCount(ctx, tx, course)
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &removed, nil
}

func saveLectureCount(ctx context.Context, tx *sql.Tx, course *models.Course) error {
	return tx.QueryRowContext(ctx,
		`UPDATE courses SET number_of_lectures = $2, updated_at = NOW() WHERE id = $1 RETURNING updated_at`,
		course.ID, course.NumberOfLectures,
	).Scan(&course.UpdatedAt)
}

// loadCourse читает курс и его лекции. forUpdate блокирует строку курса до конца транзакции.
func loadCourse(ctx context.Context, q querier, id string, forUpdate bool) (*models.Course, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	query := `SELECT ` + courseColumns + ` FROM courses WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	course, err := scanCourse(q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := q.QueryContext(ctx, `SELECT id, course_id, title, description, video_public_id, video_secure_url, created_at
			FROM lectures WHERE course_id = $1 ORDER BY seq`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	course.Lectures = []models.Lecture{}
	for rows.Next() {
		var l models.Lecture
		if err := rows.Scan(&l.ID, &l.CourseID, &l.Title, &l.Description,
			&l.Video.PublicID, &l.Video.SecureURL, &l.CreatedAt); err != nil {
			return nil, err
		}
		course.Lectures = append(course.Lectures, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	course.NumberOfLectures = len(course.Lectures)
	return course, nil
}
