package auth_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/lms-server/internal/config"
	"github.com/magabrotheeeer/lms-server/internal/lib/apperr"
	"github.com/magabrotheeeer/lms-server/internal/lib/jwt"
	"github.com/magabrotheeeer/lms-server/internal/lib/password"
	"github.com/magabrotheeeer/lms-server/internal/lib/resettoken"
	"github.com/magabrotheeeer/lms-server/internal/mediastore"
	"github.com/magabrotheeeer/lms-server/internal/models"
	services "github.com/magabrotheeeer/lms-server/internal/services/auth"
	"github.com/magabrotheeeer/lms-server/internal/storage"
)

type MockUserStorage struct {
	mock.Mock
}

func (m *MockUserStorage) CreateUser(ctx context.Context, user models.User) (*models.User, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserStorage) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserStorage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserStorage) UpdateUserProfile(ctx context.Context, id string, upd storage.UserProfileUpdate) (*models.User, error) {
	args := m.Called(ctx, id, upd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserStorage) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return m.Called(ctx, id, passwordHash).Error(0)
}

func (m *MockUserStorage) SetResetToken(ctx context.Context, id, digest string, expiry time.Time) error {
	return m.Called(ctx, id, digest, expiry).Error(0)
}

func (m *MockUserStorage) ClearResetToken(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockUserStorage) ResetPassword(ctx context.Context, digest string, now time.Time, passwordHash string) (string, error) {
	args := m.Called(ctx, digest, now, passwordHash)
	return args.String(0), args.Error(1)
}

type MockMedia struct {
	mock.Mock
}

func (m *MockMedia) Upload(ctx context.Context, path string, kind mediastore.Kind) (models.Media, error) {
	args := m.Called(ctx, path, kind)
	return args.Get(0).(models.Media), args.Error(1)
}

func (m *MockMedia) DestroyQuietly(ctx context.Context, media models.Media, kind mediastore.Kind) {
	m.Called(ctx, media, kind)
}

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(ctx context.Context, msg models.EmailMessage) error {
	return m.Called(ctx, msg).Error(0)
}

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	users  *MockUserStorage
	media  *MockMedia
	mailer *MockMailer
	tokens *jwt.MakerImpl
	svc    *services.Service
}

func newFixture() *fixture {
	f := &fixture{
		users:  new(MockUserStorage),
		media:  new(MockMedia),
		mailer: new(MockMailer),
		tokens: jwt.NewJWTMaker("test-secret", 7*24*time.Hour, jwt.WithClock(func() time.Time { return fixedNow })),
	}
	f.svc = services.New(f.users, f.tokens, f.media, f.mailer,
		config.PasswordReset{ResetTokenTTL: 30 * time.Minute, FrontendURL: "https://lms.dev/"},
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	f.svc.SetClock(func() time.Time { return fixedNow })
	return f
}

func mustHash(t *testing.T, raw string) string {
	t.Helper()
	h, err := password.GetHash(raw)
	require.NoError(t, err)
	return h
}

func TestService_Register(t *testing.T) {
	t.Run("creates learner with default avatar and token", func(t *testing.T) {
		f := newFixture()
		f.users.On("GetUserByEmail", mock.Anything, "a@x.com").Return(nil, storage.ErrNotFound).Once()
		f.users.On("CreateUser", mock.Anything, mock.MatchedBy(func(u models.User) bool {
			return u.Email == "a@x.com" && u.Role == models.RoleLearner &&
				u.Avatar.SecureURL == models.DefaultAvatarURL &&
				password.CompareHash(u.PasswordHash, "p") == nil
		})).Return(&models.User{ID: "u1", Email: "a@x.com", Role: models.RoleLearner}, nil).Once()

		user, token, err := f.svc.Register(context.Background(), services.RegisterInput{FullName: "A", Email: " A@x.com", Password: "p"})

		require.NoError(t, err)
		assert.Equal(t, "u1", user.ID)
		claims, err := f.tokens.ParseToken(token)
		require.NoError(t, err)
		assert.Equal(t, "u1", claims.UserID())
		f.users.AssertExpectations(t)
	})

	t.Run("duplicate email is a conflict", func(t *testing.T) {
		f := newFixture()
		f.users.On("GetUserByEmail", mock.Anything, "a@x.com").Return(&models.User{ID: "u1"}, nil).Once()

		_, _, err := f.svc.Register(context.Background(), services.RegisterInput{FullName: "A", Email: "a@x.com", Password: "p"})

		assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
		f.users.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
	})

	t.Run("lost race on unique index destroys uploaded avatar", func(t *testing.T) {
		f := newFixture()
		avatar := models.Media{PublicID: "lms/a", SecureURL: "https://cdn/a.png"}
		f.users.On("GetUserByEmail", mock.Anything, "a@x.com").Return(nil, storage.ErrNotFound).Once()
		f.media.On("Upload", mock.Anything, "/tmp/a.png", mediastore.Avatar).Return(avatar, nil).Once()
		f.users.On("CreateUser", mock.Anything, mock.Anything).Return(nil, storage.ErrAlreadyExists).Once()
		f.media.On("DestroyQuietly", mock.Anything, avatar, mediastore.Avatar).Once()

		_, _, err := f.svc.Register(context.Background(),
			services.RegisterInput{FullName: "A", Email: "a@x.com", Password: "p", AvatarPath: "/tmp/a.png"})

		assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
		f.media.AssertExpectations(t)
	})

	t.Run("upload failure creates nothing", func(t *testing.T) {
		f := newFixture()
		f.users.On("GetUserByEmail", mock.Anything, "a@x.com").Return(nil, storage.ErrNotFound).Once()
		f.media.On("Upload", mock.Anything, "/tmp/a.png", mediastore.Avatar).Return(models.Media{}, errors.New("timeout")).Once()

		_, _, err := f.svc.Register(context.Background(),
			services.RegisterInput{FullName: "A", Email: "a@x.com", Password: "p", AvatarPath: "/tmp/a.png"})

		assert.Equal(t, apperr.KindUpstream, apperr.KindOf(err))
		f.users.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
	})

	t.Run("missing fields", func(t *testing.T) {
		f := newFixture()
		_, _, err := f.svc.Register(context.Background(), services.RegisterInput{Email: "a@x.com", Password: "p"})
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	})
}

func TestService_Login(t *testing.T) {
	hash := mustHash(t, "secret")
	tests := []struct {
		name     string
		email    string
		password string
		setup    func(f *fixture)
		wantKind apperr.Kind
		wantErr  bool
	}{
		{
			name:     "valid credentials",
			email:    "A@x.com",
			password: "secret",
			setup: func(f *fixture) {
				f.users.On("GetUserByEmail", mock.Anything, "a@x.com").
					Return(&models.User{ID: "u1", PasswordHash: hash}, nil).Once()
			},
		},
		{
			name:     "wrong password",
			email:    "a@x.com",
			password: "nope",
			setup: func(f *fixture) {
				f.users.On("GetUserByEmail", mock.Anything, "a@x.com").
					Return(&models.User{ID: "u1", PasswordHash: hash}, nil).Once()
			},
			wantErr:  true,
			wantKind: apperr.KindUnauthenticated,
		},
		{
			name:     "unknown email",
			email:    "b@x.com",
			password: "secret",
			setup: func(f *fixture) {
				f.users.On("GetUserByEmail", mock.Anything, "b@x.com").Return(nil, storage.ErrNotFound).Once()
			},
			wantErr:  true,
			wantKind: apperr.KindUnauthenticated,
		},
		{
			name:     "empty password",
			email:    "a@x.com",
			setup:    func(_ *fixture) {},
			wantErr:  true,
			wantKind: apperr.KindValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			tt.setup(f)

			user, token, err := f.svc.Login(context.Background(), tt.email, tt.password)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, tt.wantKind, apperr.KindOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "u1", user.ID)
			assert.NotEmpty(t, token)
		})
	}
}

func TestService_ForgotPassword(t *testing.T) {
	t.Run("stores digest and mails raw token", func(t *testing.T) {
		f := newFixture()
		var digest string
		f.users.On("GetUserByEmail", mock.Anything, "a@x.com").Return(&models.User{ID: "u1", Email: "a@x.com"}, nil).Once()
		f.users.On("SetResetToken", mock.Anything, "u1", mock.Anything, fixedNow.Add(30*time.Minute)).
			Run(func(args mock.Arguments) { digest = args.String(2) }).Return(nil).Once()
		f.mailer.On("Send", mock.Anything, mock.MatchedBy(func(msg models.EmailMessage) bool {
			i := strings.Index(msg.HTML, "https://lms.dev/reset-password/")
			if i < 0 || msg.To != "a@x.com" {
				return false
			}
			raw := msg.HTML[i+len("https://lms.dev/reset-password/"):][:40]
			return resettoken.Digest(raw) == digest
		})).Return(nil).Once()

		require.NoError(t, f.svc.ForgotPassword(context.Background(), "a@x.com"))
		f.mailer.AssertExpectations(t)
	})

	t.Run("mail failure clears token", func(t *testing.T) {
		f := newFixture()
		f.users.On("GetUserByEmail", mock.Anything, "a@x.com").Return(&models.User{ID: "u1", Email: "a@x.com"}, nil).Once()
		f.users.On("SetResetToken", mock.Anything, "u1", mock.Anything, mock.Anything).Return(nil).Once()
		f.mailer.On("Send", mock.Anything, mock.Anything).Return(errors.New("smtp down")).Once()
		f.users.On("ClearResetToken", mock.Anything, "u1").Return(nil).Once()

		err := f.svc.ForgotPassword(context.Background(), "a@x.com")

		assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
		f.users.AssertExpectations(t)
	})

	t.Run("unknown email", func(t *testing.T) {
		f := newFixture()
		f.users.On("GetUserByEmail", mock.Anything, "a@x.com").Return(nil, storage.ErrNotFound).Once()

		err := f.svc.ForgotPassword(context.Background(), "a@x.com")
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	})
}

func TestService_ResetPassword(t *testing.T) {
	t.Run("valid token", func(t *testing.T) {
		f := newFixture()
		f.users.On("ResetPassword", mock.Anything, resettoken.Digest("raw"), fixedNow, mock.Anything).Return("u1", nil).Once()

		require.NoError(t, f.svc.ResetPassword(context.Background(), "raw", "new"))
		f.users.AssertExpectations(t)
	})

	t.Run("expired or unknown token", func(t *testing.T) {
		f := newFixture()
		f.users.On("ResetPassword", mock.Anything, mock.Anything, fixedNow, mock.Anything).Return("", storage.ErrNotFound).Once()

		err := f.svc.ResetPassword(context.Background(), "raw", "new")
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	})
}

func TestService_ChangePassword(t *testing.T) {
	hash := mustHash(t, "old")

	f := newFixture()
	f.users.On("GetUserByID", mock.Anything, "u1").Return(&models.User{ID: "u1", PasswordHash: hash}, nil)
	f.users.On("UpdatePassword", mock.Anything, "u1", mock.MatchedBy(func(h string) bool {
		return password.CompareHash(h, "new") == nil
	})).Return(nil).Once()

	require.NoError(t, f.svc.ChangePassword(context.Background(), "u1", "old", "new"))

	err := f.svc.ChangePassword(context.Background(), "u1", "wrong", "new")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	f.users.AssertNumberOfCalls(t, "UpdatePassword", 1)
}

func TestService_UpdateUser(t *testing.T) {
	oldAvatar := models.Media{PublicID: "lms/old", SecureURL: "https://cdn/old.png"}
	newAvatar := models.Media{PublicID: "lms/new", SecureURL: "https://cdn/new.png"}

	t.Run("replaces avatar and destroys old one after write", func(t *testing.T) {
		f := newFixture()
		actor := &models.User{ID: "u1", Role: models.RoleLearner}
		f.users.On("GetUserByID", mock.Anything, "u1").Return(&models.User{ID: "u1", Avatar: oldAvatar}, nil).Once()
		f.media.On("Upload", mock.Anything, "/tmp/n.png", mediastore.Avatar).Return(newAvatar, nil).Once()
		name := "New Name"
		f.users.On("UpdateUserProfile", mock.Anything, "u1", storage.UserProfileUpdate{FullName: &name, Avatar: &newAvatar}).
			Return(&models.User{ID: "u1", FullName: name, Avatar: newAvatar}, nil).Once()
		f.media.On("DestroyQuietly", mock.Anything, oldAvatar, mediastore.Avatar).Once()

		user, err := f.svc.UpdateUser(context.Background(), actor, "u1", services.UpdateInput{FullName: " New Name ", AvatarPath: "/tmp/n.png"})

		require.NoError(t, err)
		assert.Equal(t, newAvatar, user.Avatar)
		f.media.AssertExpectations(t)
	})

	t.Run("learner cannot update another user", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.UpdateUser(context.Background(), &models.User{ID: "u1", Role: models.RoleLearner}, "u2", services.UpdateInput{FullName: "x"})
		assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
	})

	t.Run("admin may update another user", func(t *testing.T) {
		f := newFixture()
		email := "c@x.com"
		f.users.On("GetUserByID", mock.Anything, "u2").Return(&models.User{ID: "u2"}, nil).Once()
		f.users.On("UpdateUserProfile", mock.Anything, "u2", storage.UserProfileUpdate{Email: &email}).
			Return(&models.User{ID: "u2", Email: email}, nil).Once()

		user, err := f.svc.UpdateUser(context.Background(), &models.User{ID: "a1", Role: models.RoleAdmin}, "u2", services.UpdateInput{Email: "C@x.com"})

		require.NoError(t, err)
		assert.Equal(t, email, user.Email)
	})

	t.Run("failed write destroys new avatar and keeps old", func(t *testing.T) {
		f := newFixture()
		f.users.On("GetUserByID", mock.Anything, "u1").Return(&models.User{ID: "u1", Avatar: oldAvatar}, nil).Once()
		f.media.On("Upload", mock.Anything, "/tmp/n.png", mediastore.Avatar).Return(newAvatar, nil).Once()
		f.users.On("UpdateUserProfile", mock.Anything, "u1", mock.Anything).Return(nil, storage.ErrAlreadyExists).Once()
		f.media.On("DestroyQuietly", mock.Anything, newAvatar, mediastore.Avatar).Once()

		_, err := f.svc.UpdateUser(context.Background(), &models.User{ID: "u1"}, "u1", services.UpdateInput{Email: "taken@x.com", AvatarPath: "/tmp/n.png"})

		assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
		f.media.AssertExpectations(t)
		f.media.AssertNotCalled(t, "DestroyQuietly", mock.Anything, oldAvatar, mediastore.Avatar)
	})
}
