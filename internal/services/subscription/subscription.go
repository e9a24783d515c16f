// Package subscription управляет жизненным циклом платной подписки:
// покупка, проверка оплаты, отмена и события вебхука платежного шлюза.
package subscription

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/magabrotheeeer/lms-server/internal/config"
	"github.com/magabrotheeeer/lms-server/internal/lib/apperr"
	"github.com/magabrotheeeer/lms-server/internal/lib/sl"
	"github.com/magabrotheeeer/lms-server/internal/metrics"
	"github.com/magabrotheeeer/lms-server/internal/models"
	"github.com/magabrotheeeer/lms-server/internal/paymentprovider"
	"github.com/magabrotheeeer/lms-server/internal/storage"
)

// Storage определяет методы хранилища подписок и платежей.
type Storage interface {
	CreateSubscription(ctx context.Context, sub models.Subscription) (*models.Subscription, error)
	ActivateSubscription(ctx context.Context, payment models.Payment) (bool, error)
	TransitionSubscription(ctx context.Context, gatewayID string, from, to models.SubscriptionStatus) error
	ListPayments(ctx context.Context, page models.Page) ([]models.Payment, int, error)
}

// Gateway определяет методы платежного шлюза.
type Gateway interface {
	CreateSubscription(ctx context.Context, planID string, notes map[string]string) (*paymentprovider.Subscription, error)
	CancelSubscription(ctx context.Context, subscriptionID string) (*paymentprovider.Subscription, error)
	KeyID() string
}

// Service реализует операции над подписками.
type Service struct {
	store         Storage
	gateway       Gateway
	keySecret     string
	webhookSecret string
	planID        string
	log           *slog.Logger
}

// New создает Service.
func New(store Storage, gateway Gateway, cfg config.Razorpay, log *slog.Logger) *Service {
	return &Service{
		store:         store,
		gateway:       gateway,
		keySecret:     cfg.KeySecret,
		webhookSecret: cfg.WebhookSecret,
		planID:        cfg.PlanID,
		log:           log,
	}
}

// BuyResult данные для оформления оплаты на клиенте.
type BuyResult struct {
	SubscriptionID string `json:"subscription_id"`
	CustomerID     string `json:"customer_id,omitempty"`
	Key            string `json:"key"`
}

// Buy создает подписку в шлюзе и сохраняет ее в статусе created.
// Каждый вызов создает новую подписку, пока предыдущая не оплачена.
func (s *Service) Buy(ctx context.Context, user *models.User) (*BuyResult, error) {
	if user == nil {
		return nil, apperr.Internal("no user in request context", nil)
	}
	if user.IsAdmin() {
		return nil, apperr.Validation("Admin cannot purchase a subscription, admins already have full access")
	}
	if user.HasActiveSubscription() {
		return nil, apperr.Conflict("You are already subscribed")
	}

	gw, err := s.gateway.CreateSubscription(ctx, s.planID, map[string]string{
		"user_id": user.ID,
		"email":   user.Email,
	})
	if err != nil {
		return nil, apperr.Upstream("Failed to create subscription, please try again", err)
	}

	if _, err := s.store.CreateSubscription(ctx, models.Subscription{
		UserID:                user.ID,
		GatewaySubscriptionID: gw.ID,
		PlanID:                s.planID,
	}); err != nil {
		s.log.Error("gateway subscription created but not saved",
			slog.String("gateway_subscription_id", gw.ID), slog.String("user_id", user.ID), sl.Err(err))
		return nil, apperr.Internal("failed to save subscription", err)
	}
	metrics.SubscriptionTransition(string(models.SubscriptionCreated))
	s.log.Info("subscription created", slog.String("user_id", user.ID), slog.String("gateway_subscription_id", gw.ID))

	return &BuyResult{
		SubscriptionID: gw.ID,
		CustomerID:     gw.CustomerID,
		Key:            s.gateway.KeyID(),
	}, nil
}

// VerifyInput ответ платежной формы шлюза.
type VerifyInput struct {
	PaymentID      string
	SubscriptionID string
	Signature      string
}

// Verify проверяет подпись платежа и активирует подписку.
// Идентификатор подписки из запроса должен совпадать с сохраненным у
// пользователя, подпись считается по сохраненному. Повтор с тем же платежом
// успешен и ничего не меняет.
func (s *Service) Verify(ctx context.Context, user *models.User, in VerifyInput) error {
	if user == nil {
		return apperr.Internal("no user in request context", nil)
	}
	if in.PaymentID == "" || in.SubscriptionID == "" || in.Signature == "" {
		return apperr.Validation("razorpay_payment_id, razorpay_subscription_id and razorpay_signature are required")
	}
	if user.Subscription == nil {
		return apperr.PaymentVerification("Payment not verified, please try again")
	}

	gatewayID := user.Subscription.GatewaySubscriptionID
	if in.SubscriptionID != gatewayID {
		s.log.Warn("payment for another subscription",
			slog.String("user_id", user.ID), slog.String("gateway_subscription_id", in.SubscriptionID))
		return apperr.Conflict("Subscription does not match the pending subscription")
	}
	ok := paymentprovider.VerifySubscriptionSignature(s.keySecret, in.PaymentID, gatewayID, in.Signature)
	metrics.SignatureVerified("payment", ok)
	if !ok {
		s.log.Warn("payment signature mismatch", slog.String("user_id", user.ID), slog.String("payment_id", in.PaymentID))
		return apperr.PaymentVerification("Payment not verified, please try again")
	}

	replayed, err := s.store.ActivateSubscription(ctx, models.Payment{
		UserID:                user.ID,
		GatewayPaymentID:      in.PaymentID,
		GatewaySubscriptionID: gatewayID,
		Signature:             in.Signature,
	})
	if errors.Is(err, storage.ErrConflict) {
		return apperr.Conflict("Subscription is not awaiting payment")
	}
	if err != nil {
		return apperr.Internal("failed to activate subscription", err)
	}
	if replayed {
		s.log.Debug("payment already verified", slog.String("payment_id", in.PaymentID))
		return nil
	}
	metrics.SubscriptionTransition(string(models.SubscriptionActive))
	s.log.Info("subscription activated", slog.String("user_id", user.ID), slog.String("gateway_subscription_id", gatewayID))
	return nil
}

// Cancel отменяет активную подписку в шлюзе и локально.
func (s *Service) Cancel(ctx context.Context, user *models.User) error {
	if user == nil {
		return apperr.Internal("no user in request context", nil)
	}
	if user.IsAdmin() {
		return apperr.Validation("Admin does not need to cancel subscription")
	}
	if !user.HasActiveSubscription() {
		return apperr.Forbidden("You do not have an active subscription")
	}

	gatewayID := user.Subscription.GatewaySubscriptionID
	if _, err := s.gateway.CancelSubscription(ctx, gatewayID); err != nil {
		return apperr.Upstream("Failed to cancel subscription, please try again", err)
	}

	err := s.store.TransitionSubscription(ctx, gatewayID, models.SubscriptionActive, models.SubscriptionCancelled)
	switch {
	case errors.Is(err, storage.ErrConflict):
		return apperr.Conflict("Subscription is no longer active")
	case errors.Is(err, storage.ErrNotFound):
		return apperr.NotFound("Subscription not found")
	case err != nil:
		return apperr.Internal("failed to cancel subscription", err)
	}
	metrics.SubscriptionTransition(string(models.SubscriptionCancelled))
	s.log.Info("subscription cancelled", slog.String("user_id", user.ID), slog.String("gateway_subscription_id", gatewayID))
	return nil
}

// HandleWebhook применяет событие шлюза к локальной подписке.
// Событие для неизвестной или уже переведенной подписки игнорируется,
// поэтому повторная доставка безопасна.
func (s *Service) HandleWebhook(ctx context.Context, body []byte, signature string) error {
	ok := paymentprovider.VerifyWebhookSignature(s.webhookSecret, body, signature)
	metrics.SignatureVerified("webhook", ok)
	if !ok {
		return apperr.PaymentVerification("invalid webhook signature")
	}

	var event paymentprovider.WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return apperr.Validation("invalid webhook payload")
	}

	var target models.SubscriptionStatus
	switch event.Event {
	case paymentprovider.EventSubscriptionCancelled:
		target = models.SubscriptionCancelled
	case paymentprovider.EventSubscriptionCompleted, paymentprovider.EventSubscriptionHalted:
		target = models.SubscriptionExpired
	default:
		s.log.Debug("webhook event ignored", slog.String("event", event.Event))
		return nil
	}

	gatewayID := event.Payload.Subscription.Entity.ID
	if gatewayID == "" {
		return apperr.Validation("webhook payload has no subscription")
	}
	err := s.store.TransitionSubscription(ctx, gatewayID, models.SubscriptionActive, target)
	if errors.Is(err, storage.ErrConflict) || errors.Is(err, storage.ErrNotFound) {
		s.log.Info("webhook event does not apply",
			slog.String("event", event.Event), slog.String("gateway_subscription_id", gatewayID), sl.Err(err))
		return nil
	}
	if err != nil {
		return apperr.Internal("failed to apply webhook event", err)
	}
	metrics.SubscriptionTransition(string(target))
	s.log.Info("subscription updated by webhook",
		slog.String("event", event.Event), slog.String("gateway_subscription_id", gatewayID))
	return nil
}

// PaymentList страница записанных платежей.
type PaymentList struct {
	Payments []models.Payment `json:"payments"`
	Total    int              `json:"total"`
	Count    int              `json:"count"`
	Skip     int              `json:"skip"`
}

// ListPayments возвращает страницу платежей для администратора.
func (s *Service) ListPayments(ctx context.Context, page models.Page) (*PaymentList, error) {
	payments, total, err := s.store.ListPayments(ctx, page)
	if err != nil {
		return nil, apperr.Internal("failed to list payments", err)
	}
	if payments == nil {
		payments = []models.Payment{}
	}
	return &PaymentList{Payments: payments, Total: total, Count: page.Limit, Skip: page.Offset}, nil
}

// Key возвращает публичный ключ шлюза для клиентской формы оплаты.
func (s *Service) Key() string {
	return s.gateway.KeyID()
}
