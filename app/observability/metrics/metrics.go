package metrics

import (
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// AppMetrics holds the application's metric instruments.
type AppMetrics struct {
	BookingsCreatedTotal    metric.Int64Counter
	BookingsCancelledTotal  metric.Int64Counter
	WebhookEventsTotal      metric.Int64Counter
	WebhookDeadLettersTotal metric.Int64Counter
	WebhookDurationSeconds  metric.Float64Histogram
	MembershipsExpiredTotal metric.Int64Counter
	DbQueryDurationSeconds  metric.Float64Histogram
}

var (
	appMetrics *AppMetrics
	once       sync.Once
)

// InitAppMetrics initializes the global metrics instruments ONLY ONCE.
// It gets the Meter from the globally configured MeterProvider.
func InitAppMetrics() {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter("gritfit-api")
		var err error
		m := &AppMetrics{}

		m.BookingsCreatedTotal, err = meter.Int64Counter(
			"bookings_created_total",
			metric.WithDescription("Total number of bookings created, by path (membership/paid)"),
			metric.WithUnit("{booking}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create bookings_created_total: %v", err)
		}

		m.BookingsCancelledTotal, err = meter.Int64Counter(
			"bookings_cancelled_total",
			metric.WithDescription("Total number of bookings cancelled"),
			metric.WithUnit("{booking}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create bookings_cancelled_total: %v", err)
		}

		m.WebhookEventsTotal, err = meter.Int64Counter(
			"webhook_events_total",
			metric.WithDescription("Total number of payment/identity webhook events processed, by type and outcome"),
			metric.WithUnit("{event}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create webhook_events_total: %v", err)
		}

		m.WebhookDeadLettersTotal, err = meter.Int64Counter(
			"webhook_dead_letters_total",
			metric.WithDescription("Total number of webhook events written to the dead-letter table"),
			metric.WithUnit("{event}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create webhook_dead_letters_total: %v", err)
		}

		m.WebhookDurationSeconds, err = meter.Float64Histogram(
			"webhook_duration_seconds",
			metric.WithDescription("Duration of webhook event handling in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create webhook_duration_seconds: %v", err)
		}

		m.MembershipsExpiredTotal, err = meter.Int64Counter(
			"memberships_expired_total",
			metric.WithDescription("Total number of memberships flipped to expired by the sweep"),
			metric.WithUnit("{membership}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create memberships_expired_total: %v", err)
		}

		m.DbQueryDurationSeconds, err = meter.Float64Histogram(
			"db_query_duration_seconds",
			metric.WithDescription("Duration of database queries in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create db_query_duration_seconds: %v", err)
		}

		appMetrics = m
	})
}

// Get returns the global metrics instance, initializing it on first use.
// Before a meter provider is installed the instruments are no-ops.
func Get() *AppMetrics {
	InitAppMetrics()
	return appMetrics
}
