// Package metrics содержит prometheus-метрики портала: исходы операций
// аутентификации и длительность HTTP-запросов.
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

// Операции аутентификации.
const (
	OpSignup = "signup"
	OpLogin  = "login"
	OpLogout = "logout"
	OpGuard  = "guard"
)

// Исходы операций.
const (
	OutcomeSuccess         = "success"
	OutcomeUserExists      = "user_exists"
	OutcomeUserNotFound    = "user_not_found"
	OutcomeInvalidPassword = "invalid_password"
	OutcomeUnauthenticated = "unauthenticated"
	OutcomeInvalidInput    = "invalid_input"
	OutcomeError           = "error"
)

// Metrics — набор метрик портала. Методы безопасны для nil-получателя.
type Metrics struct {
	authEvents      *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// New регистрирует метрики в reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		authEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portal",
			Name:      "auth_events_total",
			Help:      "Auth gateway operations by outcome.",
		}, []string{"operation", "outcome"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "portal",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}

// ObserveAuth увеличивает счётчик операции operation с исходом outcome.
func (m *Metrics) ObserveAuth(operation, outcome string) {
	if m == nil {
		return
	}
	m.authEvents.WithLabelValues(operation, outcome).Inc()
}

// Middleware замеряет длительность запросов. Маршрут берётся из шаблона chi,
// чтобы не плодить метки по каждому URL.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m == nil {
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.requestDuration.
			WithLabelValues(r.Method, route, strconv.Itoa(status)).
			Observe(time.Since(start).Seconds())
	})
}
