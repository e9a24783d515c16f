package models

import "time"

// Payment проверенный платеж шлюза, активировавший подписку.
type Payment struct {
	ID                    string    `json:"id"`
	UserID                string    `json:"userId"`
	SubscriptionID        string    `json:"subscriptionId"`
	GatewayPaymentID      string    `json:"razorpay_payment_id"`
	GatewaySubscriptionID string    `json:"razorpay_subscription_id"`
	Signature             string    `json:"razorpay_signature"`
	CreatedAt             time.Time `json:"createdAt"`
}

// Page ограничивает выборку списка.
type Page struct {
	Limit  int
	Offset int
}

const (
	// DefaultPageLimit используется, если клиент не указал размер.
	DefaultPageLimit = 10
	// MaxPageLimit верхняя граница размера страницы.
	MaxPageLimit = 100
)

// NewPage приводит limit и offset к допустимым значениям.
func NewPage(limit, offset int) Page {
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	if offset < 0 {
		offset = 0
	}
	return Page{Limit: limit, Offset: offset}
}

// UserStats счетчики для панели администратора.
type UserStats struct {
	AllUsersCount        int `json:"allUsersCount"`
	SubscribedUsersCount int `json:"subscribedUsersCount"`
}

// EmailMessage исходящее HTML письмо, оно же сообщение почтовой очереди.
type EmailMessage struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}
