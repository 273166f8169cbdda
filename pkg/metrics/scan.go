package metrics

import (
	"context"
	"time"
)

// RecordScan is a nil-safe wrapper used by the schedulers.
func RecordScan(job string, started time.Time, items, failures int) {
	m := GetMetrics()
	if m == nil {
		return
	}
	m.RecordScan(context.Background(), job, time.Since(started).Seconds(), int64(items), int64(failures))
}

// RecordCheckin is a nil-safe wrapper.
func RecordCheckin(distant bool) {
	m := GetMetrics()
	if m == nil {
		return
	}
	m.RecordCheckin(context.Background(), distant)
}

// RecordCheckout is a nil-safe wrapper.
func RecordCheckout(reason string, auto bool) {
	m := GetMetrics()
	if m == nil {
		return
	}
	m.RecordCheckout(context.Background(), reason, auto)
}

// RecordXPAdjustment is a nil-safe wrapper.
func RecordXPAdjustment(reason string, amount int64) {
	m := GetMetrics()
	if m == nil {
		return
	}
	m.RecordXPAdjustment(context.Background(), reason, amount)
}

// RecordNotificationPublished is a nil-safe wrapper.
func RecordNotificationPublished(kind string) {
	m := GetMetrics()
	if m == nil {
		return
	}
	m.RecordNotificationPublished(context.Background(), kind)
}

// RecordNotificationDelivered is a nil-safe wrapper.
func RecordNotificationDelivered(kind string) {
	m := GetMetrics()
	if m == nil {
		return
	}
	m.RecordNotificationDelivered(context.Background(), kind)
}

// RecordNotificationFailed is a nil-safe wrapper.
func RecordNotificationFailed(kind, reason string) {
	m := GetMetrics()
	if m == nil {
		return
	}
	m.RecordNotificationFailed(context.Background(), kind, reason)
}
