package queue

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"fieldops/internal/notify"
	"fieldops/pkg/logger"
	"fieldops/pkg/metrics"
	"fieldops/pkg/snowflake"
	"fieldops/storage/mq"
)

// Gateway is the queue-backed notify.Gateway used by the server and the
// schedulers. Publishing is fire-and-forget: the caller logs failures and
// keeps going.
type Gateway struct{}

var _ notify.Gateway = Gateway{}

func (Gateway) SendPush(n notify.Notification) error {
	return PublishNotification(n)
}

func (Gateway) Emit(room, event string, payload interface{}) error {
	return PublishEmit(room, event, payload)
}

func (Gateway) ScheduleScan(job string, delay time.Duration) error {
	return PublishJobTrigger(job, delay)
}

// PublishNotification hands a notification to the worker via the notify
// exchange.
func PublishNotification(n notify.Notification) error {
	id, err := snowflake.NextID()
	if err != nil {
		return fmt.Errorf("failed to generate message ID: %w", err)
	}

	msg := NotifyMessage{
		MessageID:    fmt.Sprintf("notify_%d", id),
		PublishedAt:  time.Now().Format(time.RFC3339),
		Notification: n,
	}

	routingKey := fmt.Sprintf("notify.push.%s", n.Kind)

	if err := mq.PublishMessage(mq.NotifyExchange, routingKey, msg); err != nil {
		logger.Logger.Error("Failed to publish notification",
			zap.String("message_id", msg.MessageID),
			zap.String("kind", string(n.Kind)),
			zap.Int64("worker_id", n.WorkerID),
			zap.Error(err),
		)
		return err
	}

	metrics.RecordNotificationPublished(string(n.Kind))

	logger.Logger.Info("Published notification",
		zap.String("message_id", msg.MessageID),
		zap.String("kind", string(n.Kind)),
		zap.Int64("worker_id", n.WorkerID),
	)

	return nil
}

// PublishJobTrigger publishes a delayed scan trigger through the delayed
// exchange. When the delay elapses the worker runs the named scan, so a
// due alert is delivered on time instead of waiting for the next poller
// tick. Scans are idempotent, so the poller and the trigger can overlap.
func PublishJobTrigger(job string, delay time.Duration) error {
	id, err := snowflake.NextID()
	if err != nil {
		return fmt.Errorf("failed to generate message ID: %w", err)
	}

	msg := JobTriggerMessage{
		MessageID:   fmt.Sprintf("trigger_%d", id),
		PublishedAt: time.Now().Format(time.RFC3339),
		Job:         job,
	}

	routingKey := fmt.Sprintf("trigger.scan.%s", job)

	if err := mq.PublishDelayedMessage(mq.DelayedExchange, routingKey, delay, msg); err != nil {
		logger.Logger.Error("Failed to publish job trigger",
			zap.String("message_id", msg.MessageID),
			zap.String("job", job),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
		return err
	}

	logger.Logger.Info("Published job trigger",
		zap.String("message_id", msg.MessageID),
		zap.String("job", job),
		zap.Duration("delay", delay),
	)

	return nil
}

// PublishEmit publishes a room event for live observers.
func PublishEmit(room, event string, payload interface{}) error {
	id, err := snowflake.NextID()
	if err != nil {
		return fmt.Errorf("failed to generate message ID: %w", err)
	}

	msg := EmitMessage{
		MessageID:   fmt.Sprintf("emit_%d", id),
		PublishedAt: time.Now().Format(time.RFC3339),
		Room:        room,
		Event:       event,
		Payload:     payload,
	}

	if err := mq.PublishMessage(mq.NotifyExchange, "notify.emit", msg); err != nil {
		logger.Logger.Error("Failed to publish room event",
			zap.String("message_id", msg.MessageID),
			zap.String("room", room),
			zap.String("event", event),
			zap.Error(err),
		)
		return err
	}

	return nil
}
