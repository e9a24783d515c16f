package storage

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/lms-server/internal/models"
)

// ListPayments возвращает страницу платежей, новые первыми, и общее их число.
func (s *Storage) ListPayments(ctx context.Context, page models.Page) ([]models.Payment, int, error) {
	const op = "storage.ListPayments"
	if err := ctxDone(ctx, op); err != nil {
		return nil, 0, err
	}

	var total int
	if err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM payments`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	query := `SELECT id, user_id, subscription_id, gateway_payment_id, gateway_subscription_id, signature, created_at
			  FROM payments
			  ORDER BY created_at DESC, id
			  LIMIT $1 OFFSET $2`
	rows, err := s.DB.QueryContext(ctx, query, page.Limit, page.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	result := make([]models.Payment, 0, page.Limit)
	for rows.Next() {
		var p models.Payment
		if err := rows.Scan(&p.ID, &p.UserID, &p.SubscriptionID, &p.GatewayPaymentID,
			&p.GatewaySubscriptionID, &p.Signature, &p.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	return result, total, nil
}
