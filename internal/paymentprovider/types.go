package paymentprovider

// CreateSubscriptionRequest тело запроса создания подписки.
type CreateSubscriptionRequest struct {
	PlanID         string            `json:"plan_id"`
	TotalCount     int               `json:"total_count"`
	CustomerNotify int               `json:"customer_notify"`
	Notes          map[string]string `json:"notes,omitempty"`
}

// Subscription подписка на стороне Razorpay.
type Subscription struct {
	ID         string            `json:"id"`
	Entity     string            `json:"entity"`
	PlanID     string            `json:"plan_id"`
	CustomerID string            `json:"customer_id"`
	Status     string            `json:"status"`
	ShortURL   string            `json:"short_url"`
	Notes      map[string]string `json:"notes"`
}

type cancelSubscriptionRequest struct {
	CancelAtCycleEnd int `json:"cancel_at_cycle_end"`
}

type errorResponse struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// WebhookEvent событие вебхука Razorpay.
type WebhookEvent struct {
	Event   string   `json:"event"`
	Payload struct {
		Subscription struct {
			Entity Subscription `json:"entity"`
		} `json:"subscription"`
		Payment struct {
			Entity struct {
				ID     string `json:"id"`
				Status string `json:"status"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// События подписок, на которые реагирует платформа.
const (
	EventSubscriptionActivated = "subscription.activated"
	EventSubscriptionCharged   = "subscription.charged"
	EventSubscriptionCancelled = "subscription.cancelled"
	EventSubscriptionCompleted = "subscription.completed"
	EventSubscriptionHalted    = "subscription.halted"
)
