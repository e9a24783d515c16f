// Package auth содержит бизнес-логику учетных записей: регистрацию, вход,
// восстановление и смену пароля, изменение профиля.
package auth

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"time"

	"github.com/magabrotheeeer/lms-server/internal/config"
	"github.com/magabrotheeeer/lms-server/internal/lib/apperr"
	"github.com/magabrotheeeer/lms-server/internal/lib/jwt"
	"github.com/magabrotheeeer/lms-server/internal/lib/password"
	"github.com/magabrotheeeer/lms-server/internal/lib/resettoken"
	"github.com/magabrotheeeer/lms-server/internal/lib/sl"
	"github.com/magabrotheeeer/lms-server/internal/mediastore"
	"github.com/magabrotheeeer/lms-server/internal/models"
	"github.com/magabrotheeeer/lms-server/internal/storage"
)

// UserStorage определяет методы хранилища пользователей.
type UserStorage interface {
	CreateUser(ctx context.Context, user models.User) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUserProfile(ctx context.Context, id string, upd storage.UserProfileUpdate) (*models.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	SetResetToken(ctx context.Context, id, digest string, expiry time.Time) error
	ClearResetToken(ctx context.Context, id string) error
	ResetPassword(ctx context.Context, digest string, now time.Time, passwordHash string) (string, error)
}

// MediaStore загружает и удаляет аватары.
type MediaStore interface {
	Upload(ctx context.Context, path string, kind mediastore.Kind) (models.Media, error)
	DestroyQuietly(ctx context.Context, media models.Media, kind mediastore.Kind)
}

// Mailer отправляет письма со ссылкой восстановления.
type Mailer interface {
	Send(ctx context.Context, msg models.EmailMessage) error
}

// Service реализует операции над учетными записями.
type Service struct {
	users       UserStorage
	tokens      jwt.Maker
	media       MediaStore
	mailer      Mailer
	log         *slog.Logger
	resetTTL    time.Duration
	frontendURL string
	now         func() time.Time
}

// New создает Service.
func New(users UserStorage, tokens jwt.Maker, media MediaStore, mailer Mailer, cfg config.PasswordReset, log *slog.Logger) *Service {
	return &Service{
		users:       users,
		tokens:      tokens,
		media:       media,
		mailer:      mailer,
		log:         log,
		resetTTL:    cfg.ResetTokenTTL,
		frontendURL: strings.TrimRight(cfg.FrontendURL, "/"),
		now:         time.Now,
	}
}

// SetClock подменяет источник текущего времени.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// RegisterInput данные регистрации. AvatarPath пустой, если файл не передан.
type RegisterInput struct {
	FullName   string
	Email      string
	Password   string
	AvatarPath string
}

// Register создает пользователя с ролью LEARNER и выпускает сессионный токен.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.User, string, error) {
	email := models.NormalizeEmail(in.Email)
	if strings.TrimSpace(in.FullName) == "" || email == "" || in.Password == "" {
		return nil, "", apperr.Validation("All fields are required")
	}

	_, err := s.users.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, "", apperr.Conflict("Email already exists")
	case !errors.Is(err, storage.ErrNotFound):
		return nil, "", apperr.Internal("failed to check email", err)
	}

	hash, err := password.GetHash(in.Password)
	if err != nil {
		return nil, "", apperr.Internal("failed to hash password", err)
	}

	avatar := models.Media{PublicID: email, SecureURL: models.DefaultAvatarURL}
	uploaded := false
	if in.AvatarPath != "" {
		avatar, err = s.media.Upload(ctx, in.AvatarPath, mediastore.Avatar)
		if err != nil {
			return nil, "", apperr.Upstream("File not uploaded, please try again", err)
		}
		uploaded = true
	}

	user, err := s.users.CreateUser(ctx, models.User{
		Email:        email,
		FullName:     strings.TrimSpace(in.FullName),
		PasswordHash: hash,
		Role:         models.RoleLearner,
		Avatar:       avatar,
	})
	if err != nil {
		if uploaded {
			s.media.DestroyQuietly(ctx, avatar, mediastore.Avatar)
		}
		if errors.Is(err, storage.ErrAlreadyExists) {
			return nil, "", apperr.Conflict("Email already exists")
		}
		return nil, "", apperr.Internal("User registration failed, please try again later", err)
	}

	token, err := s.tokens.GenerateToken(user.ID)
	if err != nil {
		return nil, "", apperr.Internal("failed to issue token", err)
	}
	s.log.Info("user registered", slog.String("user_id", user.ID))
	return user, token, nil
}

// Login проверяет пароль и выпускает сессионный токен.
// Неизвестный email и неверный пароль неразличимы для клиента.
func (s *Service) Login(ctx context.Context, email, rawPassword string) (*models.User, string, error) {
	email = models.NormalizeEmail(email)
	if email == "" || rawPassword == "" {
		return nil, "", apperr.Validation("Email and Password are required")
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, "", apperr.Unauthenticated("Email or Password do not match or user does not exist")
	}
	if err != nil {
		return nil, "", apperr.Internal("failed to load user", err)
	}

	if err := password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		if errors.Is(err, password.ErrMismatch) {
			return nil, "", apperr.Unauthenticated("Email or Password do not match or user does not exist")
		}
		return nil, "", apperr.Internal("failed to compare password", err)
	}

	token, err := s.tokens.GenerateToken(user.ID)
	if err != nil {
		return nil, "", apperr.Internal("failed to issue token", err)
	}
	return user, token, nil
}

// Profile возвращает пользователя по id.
func (s *Service) Profile(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apperr.NotFound("User not found")
	}
	if err != nil {
		return nil, apperr.Internal("Failed to load details", err)
	}
	return user, nil
}

// ForgotPassword выпускает токен восстановления и отправляет ссылку на email.
// Если письмо не ушло, токен гасится.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	email = models.NormalizeEmail(email)
	if email == "" {
		return apperr.Validation("Email is required")
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, storage.ErrNotFound) {
		return apperr.Validation("Email not registered")
	}
	if err != nil {
		return apperr.Internal("failed to load user", err)
	}

	token, err := resettoken.Issue(s.now(), s.resetTTL)
	if err != nil {
		return apperr.Internal("failed to issue reset token", err)
	}
	if err := s.users.SetResetToken(ctx, user.ID, token.Digest, token.Expiry); err != nil {
		return apperr.Internal("failed to save reset token", err)
	}

	if err := s.mailer.Send(ctx, resetEmail(user.Email, s.frontendURL+"/reset-password/"+token.Raw)); err != nil {
		s.log.Error("failed to send reset email", slog.String("user_id", user.ID), sl.Err(err))
		if clearErr := s.users.ClearResetToken(ctx, user.ID); clearErr != nil {
			s.log.Error("failed to clear reset token", slog.String("user_id", user.ID), sl.Err(clearErr))
		}
		return apperr.Internal("Failed to send email. Please try again later.", err)
	}
	return nil
}

func resetEmail(to, link string) models.EmailMessage {
	link = html.EscapeString(link)
	return models.EmailMessage{
		To:      to,
		Subject: "Reset Password",
		HTML: fmt.Sprintf(`You can reset your password by clicking <a href="%s" target="_blank">Reset your password</a>
<br>If the above link does not work, copy and paste this link into a new tab: <br>%s
<br>If you have not requested this, please ignore.`, link, link),
	}
}

// ResetPassword меняет пароль по сырому токену восстановления.
// Ранее выданные сессионные токены остаются действительными.
func (s *Service) ResetPassword(ctx context.Context, rawToken, newPassword string) error {
	if newPassword == "" {
		return apperr.Validation("Password is required")
	}
	if rawToken == "" {
		return apperr.Validation("Token is invalid or expired")
	}

	hash, err := password.GetHash(newPassword)
	if err != nil {
		return apperr.Internal("failed to hash password", err)
	}
	userID, err := s.users.ResetPassword(ctx, resettoken.Digest(rawToken), s.now(), hash)
	if errors.Is(err, storage.ErrNotFound) {
		return apperr.Validation("Token is invalid or expired")
	}
	if err != nil {
		return apperr.Internal("An error occurred while resetting password", err)
	}
	s.log.Info("password reset", slog.String("user_id", userID))
	return nil
}

// ChangePassword меняет пароль после проверки старого.
func (s *Service) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if oldPassword == "" || newPassword == "" {
		return apperr.Validation("Old password and new password are required")
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return apperr.Validation("Invalid user id or user does not exist")
	}
	if err != nil {
		return apperr.Internal("Failed to change password", err)
	}

	if err := password.CompareHash(user.PasswordHash, oldPassword); err != nil {
		if errors.Is(err, password.ErrMismatch) {
			return apperr.Validation("Invalid old password")
		}
		return apperr.Internal("Failed to change password", err)
	}

	hash, err := password.GetHash(newPassword)
	if err != nil {
		return apperr.Internal("Failed to change password", err)
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return apperr.Internal("Failed to change password", err)
	}
	return nil
}

// UpdateInput изменяемые поля профиля. Пустые строки означают без изменений.
type UpdateInput struct {
	FullName   string
	Email      string
	AvatarPath string
}

// UpdateUser меняет профиль пользователя targetID.
// Менять чужой профиль может только ADMIN. Новый аватар загружается до
// записи в базу, старый удаляется после успешной записи.
func (s *Service) UpdateUser(ctx context.Context, actor *models.User, targetID string, in UpdateInput) (*models.User, error) {
	if actor == nil {
		return nil, apperr.Internal("no user in request context", nil)
	}
	if actor.ID != targetID && !actor.IsAdmin() {
		return nil, apperr.Forbidden("You do not have permission to update this user")
	}

	target, err := s.users.GetUserByID(ctx, targetID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apperr.NotFound("User not found")
	}
	if err != nil {
		return nil, apperr.Internal("An error occurred while updating the user", err)
	}

	var upd storage.UserProfileUpdate
	if name := strings.TrimSpace(in.FullName); name != "" {
		upd.FullName = &name
	}
	if email := models.NormalizeEmail(in.Email); email != "" {
		upd.Email = &email
	}
	if in.AvatarPath != "" {
		avatar, err := s.media.Upload(ctx, in.AvatarPath, mediastore.Avatar)
		if err != nil {
			return nil, apperr.Upstream("File not uploaded, please try again", err)
		}
		upd.Avatar = &avatar
	}

	updated, err := s.users.UpdateUserProfile(ctx, target.ID, upd)
	if err != nil {
		if upd.Avatar != nil {
			s.media.DestroyQuietly(ctx, *upd.Avatar, mediastore.Avatar)
		}
		if errors.Is(err, storage.ErrAlreadyExists) {
			return nil, apperr.Conflict("Email already exists")
		}
		return nil, apperr.Internal("An error occurred while updating the user", err)
	}

	if upd.Avatar != nil && !target.HasDefaultAvatar() {
		s.media.DestroyQuietly(ctx, target.Avatar, mediastore.Avatar)
	}
	return updated, nil
}
