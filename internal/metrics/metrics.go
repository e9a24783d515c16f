// Package metrics регистрирует метрики Prometheus сервиса.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lms_http_requests_total",
		Help: "Number of HTTP requests by route, method and status.",
	}, []string{"route", "method", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "lms_http_request_duration_seconds",
		Help:    "HTTP request latency by route and method.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method"})

	subscriptionTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lms_subscription_transitions_total",
		Help: "Subscription status changes by target status.",
	}, []string{"status"})

	signatureChecks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lms_signature_verifications_total",
		Help: "Gateway signature checks by kind and outcome.",
	}, []string{"kind", "result"})
)

// SubscriptionTransition учитывает переход подписки в status.
func SubscriptionTransition(status string) {
	subscriptionTransitions.WithLabelValues(status).Inc()
}

// SignatureVerified учитывает результат проверки подписи вида kind.
func SignatureVerified(kind string, ok bool) {
	result := "rejected"
	if ok {
		result = "accepted"
	}
	signatureChecks.WithLabelValues(kind, result).Inc()
}

// Middleware считает запросы по шаблону маршрута chi.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		httpRequests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		httpDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}
