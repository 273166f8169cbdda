package metrics

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// OTelMetrics holds the instrument set for the attendance service.
type OTelMetrics struct {
	// Scheduler scan metrics
	ScanRunsTotal    metric.Int64Counter
	ScanDuration     metric.Float64Histogram
	ScanItemsTotal   metric.Int64Counter
	ScanFailuresTotal metric.Int64Counter

	// Attendance metrics
	CheckinsTotal       metric.Int64Counter
	CheckoutsTotal      metric.Int64Counter
	AutoCheckoutsTotal  metric.Int64Counter
	XPAdjustmentsTotal  metric.Int64Counter

	// Notification metrics
	NotificationsPublished metric.Int64Counter
	NotificationsDelivered metric.Int64Counter
	NotificationsFailed    metric.Int64Counter
}

var (
	metrics *OTelMetrics

	meter = otel.Meter("fieldops")
)

// InitMetrics creates the instrument set on the global meter.
func InitMetrics() error {
	var err error

	metrics = &OTelMetrics{}

	metrics.ScanRunsTotal, err = meter.Int64Counter(
		"scheduler_scan_runs_total",
		metric.WithDescription("Total number of scheduler scan runs"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return err
	}

	metrics.ScanDuration, err = meter.Float64Histogram(
		"scheduler_scan_duration_seconds",
		metric.WithDescription("Time spent per scheduler scan in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return err
	}

	metrics.ScanItemsTotal, err = meter.Int64Counter(
		"scheduler_scan_items_total",
		metric.WithDescription("Total number of items processed by scheduler scans"),
		metric.WithUnit("{item}"),
	)
	if err != nil {
		return err
	}

	metrics.ScanFailuresTotal, err = meter.Int64Counter(
		"scheduler_scan_failures_total",
		metric.WithDescription("Total number of item failures during scheduler scans"),
		metric.WithUnit("{failure}"),
	)
	if err != nil {
		return err
	}

	metrics.CheckinsTotal, err = meter.Int64Counter(
		"attendance_checkins_total",
		metric.WithDescription("Total number of check-ins"),
		metric.WithUnit("{checkin}"),
	)
	if err != nil {
		return err
	}

	metrics.CheckoutsTotal, err = meter.Int64Counter(
		"attendance_checkouts_total",
		metric.WithDescription("Total number of checkouts by reason"),
		metric.WithUnit("{checkout}"),
	)
	if err != nil {
		return err
	}

	metrics.AutoCheckoutsTotal, err = meter.Int64Counter(
		"attendance_auto_checkouts_total",
		metric.WithDescription("Total number of system-forced checkouts"),
		metric.WithUnit("{checkout}"),
	)
	if err != nil {
		return err
	}

	metrics.XPAdjustmentsTotal, err = meter.Int64Counter(
		"attendance_xp_adjustments_total",
		metric.WithDescription("Total number of XP ledger entries by reason"),
		metric.WithUnit("{entry}"),
	)
	if err != nil {
		return err
	}

	metrics.NotificationsPublished, err = meter.Int64Counter(
		"notifications_published_total",
		metric.WithDescription("Total number of notifications published to the queue"),
		metric.WithUnit("{notification}"),
	)
	if err != nil {
		return err
	}

	metrics.NotificationsDelivered, err = meter.Int64Counter(
		"notifications_delivered_total",
		metric.WithDescription("Total number of notifications delivered by the worker"),
		metric.WithUnit("{notification}"),
	)
	if err != nil {
		return err
	}

	metrics.NotificationsFailed, err = meter.Int64Counter(
		"notifications_failed_total",
		metric.WithDescription("Total number of notification delivery failures"),
		metric.WithUnit("{notification}"),
	)
	if err != nil {
		return err
	}

	return nil
}

// GetMetrics returns the global instrument set, or nil before InitMetrics.
func GetMetrics() *OTelMetrics {
	return metrics
}

// RecordScan records one scheduler scan run.
func (m *OTelMetrics) RecordScan(ctx context.Context, job string, duration float64, items, failures int64) {
	attrs := metric.WithAttributes(attribute.String("job", job))

	m.ScanRunsTotal.Add(ctx, 1, attrs)
	m.ScanDuration.Record(ctx, duration, attrs)
	m.ScanItemsTotal.Add(ctx, items, attrs)
	if failures > 0 {
		m.ScanFailuresTotal.Add(ctx, failures, attrs)
	}
}

// RecordCheckin records a worker check-in.
func (m *OTelMetrics) RecordCheckin(ctx context.Context, distant bool) {
	m.CheckinsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.Bool("distant", distant),
	))
}

// RecordCheckout records a checkout by reason. auto marks system-forced closes.
func (m *OTelMetrics) RecordCheckout(ctx context.Context, reason string, auto bool) {
	m.CheckoutsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("reason", reason),
	))
	if auto {
		m.AutoCheckoutsTotal.Add(ctx, 1, metric.WithAttributes(
			attribute.String("reason", reason),
		))
	}
}

// RecordXPAdjustment records an XP ledger entry.
func (m *OTelMetrics) RecordXPAdjustment(ctx context.Context, reason string, amount int64) {
	direction := "credit"
	if amount < 0 {
		direction = "debit"
	}
	m.XPAdjustmentsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("reason", reason),
		attribute.String("direction", direction),
	))
}

// RecordNotificationPublished records a notification handed to the queue.
func (m *OTelMetrics) RecordNotificationPublished(ctx context.Context, kind string) {
	m.NotificationsPublished.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
	))
}

// RecordNotificationDelivered records a notification delivered by the worker.
func (m *OTelMetrics) RecordNotificationDelivered(ctx context.Context, kind string) {
	m.NotificationsDelivered.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
	))
}

// RecordNotificationFailed records a notification delivery failure.
func (m *OTelMetrics) RecordNotificationFailed(ctx context.Context, kind, reason string) {
	m.NotificationsFailed.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("reason", reason),
	))
}
