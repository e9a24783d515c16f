package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/lms-server/internal/models"
)

const userColumns = `u.id, u.email, u.full_name, u.password_hash, u.role,
	u.avatar_public_id, u.avatar_secure_url, u.reset_token_digest, u.reset_token_expiry,
	u.created_at, u.updated_at,
	s.id, s.user_id, s.gateway_subscription_id, s.plan_id, s.status, s.payment_id,
	s.created_at, s.updated_at`

const userFrom = `FROM users u LEFT JOIN subscriptions s ON s.id = u.subscription_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var (
		u          models.User
		role       string
		digest     sql.NullString
		expiry     sql.NullTime
		subID      sql.NullString
		subUserID  sql.NullString
		subGateway sql.NullString
		subPlan    sql.NullString
		subStatus  sql.NullString
		subPayment sql.NullString
		subCreated sql.NullTime
		subUpdated sql.NullTime
	)
	err := row.Scan(&u.ID, &u.Email, &u.FullName, &u.PasswordHash, &role,
		&u.Avatar.PublicID, &u.Avatar.SecureURL, &digest, &expiry,
		&u.CreatedAt, &u.UpdatedAt,
		&subID, &subUserID, &subGateway, &subPlan, &subStatus, &subPayment,
		&subCreated, &subUpdated)
	if err != nil {
		return nil, err
	}
	u.Role = models.Role(role)
	u.ResetTokenDigest = stringPtr(digest)
	u.ResetTokenExpiry = timePtr(expiry)
	if subID.Valid {
		u.Subscription = &models.Subscription{
			ID:                    subID.String,
			UserID:                subUserID.String,
			GatewaySubscriptionID: subGateway.String,
			PlanID:                subPlan.String,
			Status:                models.SubscriptionStatus(subStatus.String),
			PaymentID:             stringPtr(subPayment),
			CreatedAt:             subCreated.Time,
			UpdatedAt:             subUpdated.Time,
		}
	}
	return &u, nil
}

// CreateUser сохраняет нового пользователя и возвращает его с присвоенным ID.
// Возвращает ErrAlreadyExists, если email занят.
func (s *Storage) CreateUser(ctx context.Context, user models.User) (*models.User, error) {
	const op = "storage.CreateUser"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	user.ID = uuid.NewString()
	query := `INSERT INTO users (id, email, full_name, password_hash, role, avatar_public_id, avatar_secure_url)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)
			  RETURNING created_at, updated_at`
	err := s.DB.QueryRowContext(ctx, query,
		user.ID, user.Email, user.FullName, user.PasswordHash, string(user.Role),
		user.Avatar.PublicID, user.Avatar.SecureURL,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("%s: %w", op, ErrAlreadyExists)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &user, nil
}

// GetUserByID возвращает пользователя вместе с текущей подпиской.
func (s *Storage) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	const op = "storage.GetUserByID"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	row := s.DB.QueryRowContext(ctx, `SELECT `+userColumns+` `+userFrom+` WHERE u.id = $1`, id)
	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

// GetUserByEmail возвращает пользователя по нормализованному email.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.GetUserByEmail"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	row := s.DB.QueryRowContext(ctx, `SELECT `+userColumns+` `+userFrom+` WHERE u.email = $1`, email)
	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

// UserProfileUpdate изменяемые поля профиля, nil означает без изменений.
type UserProfileUpdate struct {
	FullName *string
	Email    *string
	Avatar   *models.Media
}

// UpdateUserProfile обновляет профиль и возвращает пользователя после изменения.
func (s *Storage) UpdateUserProfile(ctx context.Context, id string, upd UserProfileUpdate) (*models.User, error) {
	const op = "storage.UpdateUserProfile"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	var avatarID, avatarURL *string
	if upd.Avatar != nil {
		avatarID, avatarURL = &upd.Avatar.PublicID, &upd.Avatar.SecureURL
	}
	query := `UPDATE users SET
				full_name = COALESCE($2, full_name),
				email = COALESCE($3, email),
				avatar_public_id = COALESCE($4, avatar_public_id),
				avatar_secure_url = COALESCE($5, avatar_secure_url),
				updated_at = NOW()
			  WHERE id = $1`
	res, err := s.DB.ExecContext(ctx, query, id,
		nullString(upd.FullName), nullString(upd.Email), nullString(avatarID), nullString(avatarURL))
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("%s: %w", op, ErrAlreadyExists)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := expectOneRow(res); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s.GetUserByID(ctx, id)
}

// UpdatePassword сохраняет новый хэш пароля.
func (s *Storage) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	const op = "storage.UpdatePassword"
	if err := ctxDone(ctx, op); err != nil {
		return err
	}

	res, err := s.DB.ExecContext(ctx,
		`UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`, id, passwordHash)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := expectOneRow(res); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// SetResetToken сохраняет дайджест токена восстановления и срок его действия.
func (s *Storage) SetResetToken(ctx context.Context, id, digest string, expiry time.Time) error {
	const op = "storage.SetResetToken"
	if err := ctxDone(ctx, op); err != nil {
		return err
	}

	res, err := s.DB.ExecContext(ctx,
		`UPDATE users SET reset_token_digest = $2, reset_token_expiry = $3, updated_at = NOW() WHERE id = $1`,
		id, digest, expiry)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := expectOneRow(res); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ClearResetToken удаляет токен восстановления.
func (s *Storage) ClearResetToken(ctx context.Context, id string) error {
	const op = "storage.ClearResetToken"
	if err := ctxDone(ctx, op); err != nil {
		return err
	}

	_, err := s.DB.ExecContext(ctx,
		`UPDATE users SET reset_token_digest = NULL, reset_token_expiry = NULL, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ResetPassword одним запросом находит пользователя по действующему токену,
// меняет пароль и гасит токен. Повторное использование токена невозможно.
// Возвращает ErrNotFound, если токен неизвестен или просрочен.
func (s *Storage) ResetPassword(ctx context.Context, digest string, now time.Time, passwordHash string) (string, error) {
	const op = "storage.ResetPassword"
	if err := ctxDone(ctx, op); err != nil {
		return "", err
	}

	query := `UPDATE users
			  SET password_hash = $3, reset_token_digest = NULL, reset_token_expiry = NULL, updated_at = NOW()
			  WHERE reset_token_digest = $1 AND reset_token_expiry > $2
			  RETURNING id`
	var id string
	err := s.DB.QueryRowContext(ctx, query, digest, now, passwordHash).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// CountUsers возвращает число пользователей и число пользователей с активной подпиской.
func (s *Storage) CountUsers(ctx context.Context) (models.UserStats, error) {
	const op = "storage.CountUsers"
	if err := ctxDone(ctx, op); err != nil {
		return models.UserStats{}, err
	}

	query := `SELECT
				COUNT(*),
				COUNT(*) FILTER (WHERE s.status = 'active')
			  ` + userFrom
	var stats models.UserStats
	if err := s.DB.QueryRowContext(ctx, query).Scan(&stats.AllUsersCount, &stats.SubscribedUsersCount); err != nil {
		return models.UserStats{}, fmt.Errorf("%s: %w", op, err)
	}
	return stats, nil
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
