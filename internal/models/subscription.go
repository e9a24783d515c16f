package models

import "time"

// SubscriptionStatus состояние жизненного цикла подписки.
type SubscriptionStatus string

const (
	// SubscriptionCreated подписка создана в шлюзе, но еще не оплачена.
	SubscriptionCreated SubscriptionStatus = "created"
	// SubscriptionActive открывает доступ к маршрутам для подписчиков.
	SubscriptionActive SubscriptionStatus = "active"
	// SubscriptionCancelled конечное состояние, новая покупка создает новую запись.
	SubscriptionCancelled SubscriptionStatus = "cancelled"
	// SubscriptionExpired конечное состояние, выставляется по событиям шлюза.
	SubscriptionExpired SubscriptionStatus = "expired"
)

var subscriptionTransitions = map[SubscriptionStatus][]SubscriptionStatus{
	SubscriptionCreated: {SubscriptionActive},
	SubscriptionActive:  {SubscriptionCancelled, SubscriptionExpired},
}

// CanTransition проверяет допустимость перехода между статусами.
func CanTransition(from, to SubscriptionStatus) bool {
	for _, next := range subscriptionTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Subscription связывает пользователя с подпиской в платежном шлюзе.
type Subscription struct {
	ID                    string
	UserID                string
	GatewaySubscriptionID string
	PlanID                string
	Status                SubscriptionStatus
	PaymentID             *string
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// SubscriptionView сериализуемая форма подписки внутри UserView.
type SubscriptionView struct {
	ID     string             `json:"id"`
	Status SubscriptionStatus `json:"status"`
}

// View возвращает представление подписки для ответов API.
func (s *Subscription) View() SubscriptionView {
	return SubscriptionView{
		ID:     s.GatewaySubscriptionID,
		Status: s.Status,
	}
}
