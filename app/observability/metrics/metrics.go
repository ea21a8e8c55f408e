package metrics

import (
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// AppMetrics holds the auth flow's metric instruments.
type AppMetrics struct {
	RegisterRequestsTotal metric.Int64Counter
	LoginRequestsTotal    metric.Int64Counter
	ResetRequestsTotal    metric.Int64Counter
	AuthDurationSeconds   metric.Float64Histogram
}

var (
	appMetrics *AppMetrics
	once       sync.Once
)

// InitAppMetrics initializes the instruments exactly once from the
// globally configured MeterProvider.
func InitAppMetrics() {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter("ecostep-api")
		var err error
		m := &AppMetrics{}

		m.RegisterRequestsTotal, err = meter.Int64Counter(
			"auth_register_requests_total",
			metric.WithDescription("Total number of completed register requests"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create auth_register_requests_total: %v", err)
		}

		m.LoginRequestsTotal, err = meter.Int64Counter(
			"auth_login_requests_total",
			metric.WithDescription("Total number of completed login requests"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create auth_login_requests_total: %v", err)
		}

		m.ResetRequestsTotal, err = meter.Int64Counter(
			"auth_reset_requests_total",
			metric.WithDescription("Total number of password reset requests"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create auth_reset_requests_total: %v", err)
		}

		m.AuthDurationSeconds, err = meter.Float64Histogram(
			"auth_operation_duration_seconds",
			metric.WithDescription("Duration of auth service operations in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create auth_operation_duration_seconds: %v", err)
		}

		appMetrics = m
	})
}

// Get returns the initialized instruments. Panics if InitAppMetrics was
// never called.
func Get() *AppMetrics {
	if appMetrics == nil {
		panic("metrics instruments not initialized. Call metrics.InitAppMetrics() first.")
	}
	return appMetrics
}
