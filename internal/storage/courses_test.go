package storage

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/lms-server/internal/models"
)

func TestStorage_CourseCRUD(t *testing.T) {
	storage := setupTestDatabase(t)
	factory := NewTestDataFactory(storage)
	ctx := context.Background()

	course := factory.CreateCourse(t, "go-basics")
	factory.CreateCourse(t, "sql-basics")

	list, err := storage.ListCourses(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	title := "Go Basics"
	updated, err := storage.UpdateCourse(ctx, course.ID, models.CourseUpdate{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Go Basics", updated.Title)
	assert.Equal(t, "programming", updated.Category)

	_, err = storage.UpdateCourse(ctx, "0b9a2c9e-8f6a-4a58-9f0e-0f1f7a3c1d2e", models.CourseUpdate{Title: &title})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = storage.AddLecture(ctx, course.ID, models.Lecture{Title: "l1", Description: "d", Video: models.Media{PublicID: "v1", SecureURL: "u1"}})
	require.NoError(t, err)

	deleted, err := storage.DeleteCourse(ctx, course.ID)
	require.NoError(t, err)
	assert.Len(t, deleted.Lectures, 1)

	_, err = storage.GetCourse(ctx, course.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStorage_LectureCountMatchesLectures(t *testing.T) {
	storage := setupTestDatabase(t)
	factory := NewTestDataFactory(storage)
	ctx := context.Background()
	course := factory.CreateCourse(t, "property")

	rng := rand.New(rand.NewSource(7))
	var ids []string
	for step := 0; step < 40; step++ {
		if len(ids) == 0 || rng.Intn(3) > 0 {
			c, err := storage.AddLecture(ctx, course.ID, models.Lecture{
				Title:       fmt.Sprintf("lecture %d", step),
				Description: "d",
				Video:       models.Media{PublicID: fmt.Sprintf("v%d", step), SecureURL: "u"},
			})
			require.NoError(t, err)
			ids = append(ids, c.Lectures[len(c.Lectures)-1].ID)
		} else {
			i := rng.Intn(len(ids))
			_, err := storage.RemoveLecture(ctx, course.ID, ids[i])
			require.NoError(t, err)
			ids = append(ids[:i], ids[i+1:]...)
		}

		got, err := storage.GetCourse(ctx, course.ID)
		require.NoError(t, err)
		require.Len(t, got.Lectures, len(ids))

		var stored int
		require.NoError(t, storage.DB.QueryRow(`SELECT number_of_lectures FROM courses WHERE id = $1`, course.ID).Scan(&stored))
		require.Equal(t, len(ids), stored)
		for i, l := range got.Lectures {
			require.Equal(t, ids[i], l.ID, "lectures keep insertion order")
		}
	}

	_, err := storage.RemoveLecture(ctx, course.ID, "0b9a2c9e-8f6a-4a58-9f0e-0f1f7a3c1d2e")
	assert.ErrorIs(t, err, ErrNotFound)
}
