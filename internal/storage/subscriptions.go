package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/lms-server/internal/models"
)

// CreateSubscription сохраняет подписку в статусе created и делает ее
// текущей подпиской пользователя в одной транзакции.
func (s *Storage) CreateSubscription(ctx context.Context, sub models.Subscription) (*models.Subscription, error) {
	const op = "storage.CreateSubscription"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	sub.ID = uuid.NewString()
	sub.Status = models.SubscriptionCreated
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		query := `INSERT INTO subscriptions (id, user_id, gateway_subscription_id, plan_id, status)
				  VALUES ($1, $2, $3, $4, $5)
				  RETURNING created_at, updated_at`
		err := tx.QueryRowContext(ctx, query,
			sub.ID, sub.UserID, sub.GatewaySubscriptionID, sub.PlanID, string(sub.Status),
		).Scan(&sub.CreatedAt, &sub.UpdatedAt)
		if err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx,
			`UPDATE users SET subscription_id = $2, updated_at = NOW() WHERE id = $1`, sub.UserID, sub.ID)
		if err != nil {
			return err
		}
		return expectOneRow(res)
	})
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("%s: %w", op, ErrAlreadyExists)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &sub, nil
}

// GetSubscriptionByGatewayID возвращает подписку по идентификатору шлюза.
func (s *Storage) GetSubscriptionByGatewayID(ctx context.Context, gatewayID string) (*models.Subscription, error) {
	const op = "storage.GetSubscriptionByGatewayID"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT id, user_id, gateway_subscription_id, plan_id, status, payment_id, created_at, updated_at
			  FROM subscriptions WHERE gateway_subscription_id = $1`
	var (
		sub       models.Subscription
		status    string
		paymentID sql.NullString
	)
	err := s.DB.QueryRowContext(ctx, query, gatewayID).Scan(&sub.ID, &sub.UserID, &sub.GatewaySubscriptionID,
		&sub.PlanID, &status, &paymentID, &sub.CreatedAt, &sub.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	sub.Status = models.SubscriptionStatus(status)
	sub.PaymentID = stringPtr(paymentID)
	return &sub, nil
}

// ActivateSubscription переводит подписку пользователя из created в active и
// записывает платеж в одной транзакции.
//
// Повтор с тем же платежом после успешной активации не меняет данных и
// возвращает replayed = true. Любой другой промах условного обновления
// возвращает ErrConflict.
func (s *Storage) ActivateSubscription(ctx context.Context, payment models.Payment) (replayed bool, err error) {
	const op = "storage.ActivateSubscription"
	if err := ctxDone(ctx, op); err != nil {
		return false, err
	}

	err = s.withTx(ctx, func(tx *sql.Tx) error {
		var subID string
		query := `UPDATE subscriptions
				  SET status = 'active', payment_id = $3, updated_at = NOW()
				  WHERE gateway_subscription_id = $1 AND user_id = $2 AND status = 'created'
				  RETURNING id`
		err := tx.QueryRowContext(ctx, query,
			payment.GatewaySubscriptionID, payment.UserID, payment.GatewayPaymentID).Scan(&subID)
		if errors.Is(err, sql.ErrNoRows) {
			var exists bool
			err = tx.QueryRowContext(ctx, `SELECT EXISTS (
					SELECT 1 FROM payments
					WHERE gateway_payment_id = $1 AND gateway_subscription_id = $2 AND user_id = $3
				)`, payment.GatewayPaymentID, payment.GatewaySubscriptionID, payment.UserID).Scan(&exists)
			if err != nil {
				return err
			}
			if !exists {
				return ErrConflict
			}
			replayed = true
			return nil
		}
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `INSERT INTO payments
				(id, user_id, subscription_id, gateway_payment_id, gateway_subscription_id, signature)
				VALUES ($1, $2, $3, $4, $5, $6)`,
			uuid.NewString(), payment.UserID, subID, payment.GatewayPaymentID,
			payment.GatewaySubscriptionID, payment.Signature)
		return err
	})
	if isUniqueViolation(err) || errors.Is(err, ErrConflict) {
		return false, fmt.Errorf("%s: %w", op, ErrConflict)
	}
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return replayed, nil
}

// TransitionSubscription условно меняет статус подписки from -> to.
// Возвращает ErrNotFound, если подписки нет, и ErrConflict, если ее статус не from.
func (s *Storage) TransitionSubscription(ctx context.Context, gatewayID string, from, to models.SubscriptionStatus) error {
	const op = "storage.TransitionSubscription"
	if err := ctxDone(ctx, op); err != nil {
		return err
	}
	if !models.CanTransition(from, to) {
		return fmt.Errorf("%s: %s -> %s: %w", op, from, to, ErrConflict)
	}

	res, err := s.DB.ExecContext(ctx, `UPDATE subscriptions SET status = $3, updated_at = NOW()
			  WHERE gateway_subscription_id = $1 AND status = $2`, gatewayID, string(from), string(to))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n > 0 {
		return nil
	}

	var exists bool
	err = s.DB.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM subscriptions WHERE gateway_subscription_id = $1)`, gatewayID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !exists {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return fmt.Errorf("%s: %w", op, ErrConflict)
}
