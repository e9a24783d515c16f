package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/magabrotheeeer/lms-server/internal/migrations"
	"github.com/magabrotheeeer/lms-server/internal/models"
)

// setupTestDatabase поднимает PostgreSQL в контейнере и применяет миграции.
func setupTestDatabase(t *testing.T) *Storage {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err, "failed to start container")
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	storage, err := New(ctx, dsn)
	require.NoError(t, err, "failed to create storage")
	t.Cleanup(func() { _ = storage.Close() })

	migrationsPath, err := filepath.Abs("../../migrations")
	require.NoError(t, err)
	require.NoError(t, migrations.Run(storage.DB, migrationsPath))

	return storage
}

// TestDataFactory создает тестовые данные.
type TestDataFactory struct {
	storage *Storage
}

func NewTestDataFactory(storage *Storage) *TestDataFactory {
	return &TestDataFactory{storage: storage}
}

func (f *TestDataFactory) CreateUser(t *testing.T, email string, role models.Role) *models.User {
	t.Helper()
	user, err := f.storage.CreateUser(context.Background(), models.User{
		Email:        email,
		FullName:     "Test User",
		PasswordHash: "hash",
		Role:         role,
		Avatar:       models.Media{PublicID: email, SecureURL: models.DefaultAvatarURL},
	})
	require.NoError(t, err)
	return user
}

func (f *TestDataFactory) CreateSubscription(t *testing.T, userID, gatewayID string) *models.Subscription {
	t.Helper()
	sub, err := f.storage.CreateSubscription(context.Background(), models.Subscription{
		UserID:                userID,
		GatewaySubscriptionID: gatewayID,
		PlanID:                "plan_test",
	})
	require.NoError(t, err)
	return sub
}

func (f *TestDataFactory) CreateCourse(t *testing.T, title string) *models.Course {
	t.Helper()
	course, err := f.storage.CreateCourse(context.Background(), models.Course{
		Title:       title,
		Description: "description of " + title,
		Category:    "programming",
		CreatedBy:   "admin",
		Thumbnail:   models.Media{PublicID: "lms/" + title, SecureURL: "https://cdn.example.com/" + title},
	})
	require.NoError(t, err)
	return course
}
