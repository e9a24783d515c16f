// Package paymentprovider реализует клиент платежного шлюза Razorpay:
// создание и отмену подписок и проверку подписей платежей и вебхуков.
package paymentprovider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/magabrotheeeer/lms-server/internal/config"
)

// StatusError ответ шлюза с кодом не 2xx.
type StatusError struct {
	StatusCode  int
	Code        string
	Description string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("razorpay: status %d: %s %s", e.StatusCode, e.Code, e.Description)
}

// Client HTTP клиент Razorpay с Basic авторизацией.
type Client struct {
	keyID      string
	keySecret  string
	apiURL     string
	totalCount int
	maxRetries uint64
	httpClient *http.Client
	newBackOff func() backoff.BackOff
}

// Option настраивает Client.
type Option func(*Client)

// WithHTTPClient подменяет HTTP клиент.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithBackOff подменяет политику пауз между повторами.
func WithBackOff(f func() backoff.BackOff) Option {
	return func(c *Client) { c.newBackOff = f }
}

// NewClient создает клиент Razorpay.
func NewClient(cfg config.Razorpay, opts ...Option) *Client {
	c := &Client{
		keyID:      cfg.KeyID,
		keySecret:  cfg.KeySecret,
		apiURL:     cfg.APIURL,
		totalCount: cfg.TotalCount,
		maxRetries: cfg.MaxRetries,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 200 * time.Millisecond
			b.MaxElapsedTime = 0
			return b
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// KeyID возвращает публичный ключ для клиентского checkout.
func (c *Client) KeyID() string {
	return c.keyID
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.apiURL+path, &buf)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.keyID, c.keySecret)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := &StatusError{StatusCode: resp.StatusCode}
		var er errorResponse
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if json.Unmarshal(raw, &er) == nil {
			statusErr.Code, statusErr.Description = er.Error.Code, er.Error.Description
		}
		return statusErr
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// CreateSubscription создает подписку на план planID. Запрос не повторяется:
// у шлюза нет ключа идемпотентности для этого вызова.
func (c *Client) CreateSubscription(ctx context.Context, planID string, notes map[string]string) (*Subscription, error) {
	const op = "paymentprovider.CreateSubscription"
	req, err := c.newRequest(ctx, http.MethodPost, "/subscriptions", CreateSubscriptionRequest{
		PlanID:         planID,
		TotalCount:     c.totalCount,
		CustomerNotify: 1,
		Notes:          notes,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var sub Subscription
	if err := c.do(req, &sub); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &sub, nil
}

// CancelSubscription немедленно отменяет подписку. Сетевые ошибки и ответы 5xx
// повторяются с экспоненциальной паузой, ответы 4xx возвращаются сразу.
func (c *Client) CancelSubscription(ctx context.Context, subscriptionID string) (*Subscription, error) {
	const op = "paymentprovider.CancelSubscription"
	var sub Subscription
	operation := func() error {
		req, err := c.newRequest(ctx, http.MethodPost, "/subscriptions/"+subscriptionID+"/cancel",
			cancelSubscriptionRequest{CancelAtCycleEnd: 0})
		if err != nil {
			return backoff.Permanent(err)
		}
		err = c.do(req, &sub)
		var statusErr *StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode < http.StatusInternalServerError {
			return backoff.Permanent(err)
		}
		return err
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(c.newBackOff(), c.maxRetries), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &sub, nil
}
