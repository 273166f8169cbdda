package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"fieldops/internal/cache"
	"fieldops/internal/notify"
	"fieldops/pkg/logger"
	"fieldops/pkg/metrics"
	"fieldops/storage/mq"
)

// PushSender forwards notifications to the external push transport.
type PushSender interface {
	SendPush(ctx context.Context, n notify.Notification) error
}

// SocketEmitter forwards room events to the external socket transport.
type SocketEmitter interface {
	Emit(ctx context.Context, room, event string, payload interface{}) error
}

// LogPushSender is the default sender: it only logs. Deployments plug in
// the real transport before starting consumers.
type LogPushSender struct{}

func (LogPushSender) SendPush(ctx context.Context, n notify.Notification) error {
	logger.Logger.Info("Push delivered (log transport)",
		zap.String("kind", string(n.Kind)),
		zap.Int64("worker_id", n.WorkerID),
		zap.String("title", n.Title),
	)
	return nil
}

// LogSocketEmitter is the default emitter: it only logs.
type LogSocketEmitter struct{}

func (LogSocketEmitter) Emit(ctx context.Context, room, event string, payload interface{}) error {
	logger.Logger.Info("Room event delivered (log transport)",
		zap.String("room", room),
		zap.String("event", event),
	)
	return nil
}

var (
	pushSender    PushSender    = LogPushSender{}
	socketEmitter SocketEmitter = LogSocketEmitter{}
)

// TriggerRunner runs one scheduler scan by job name. The worker installs
// the real scheduler at startup; the default drops triggers with a log so
// an unconfigured worker does not requeue them forever.
type TriggerRunner func(ctx context.Context, job string) error

var triggerRunner TriggerRunner = func(ctx context.Context, job string) error {
	logger.Logger.Warn("Dropping job trigger, no runner installed",
		zap.String("job", job),
	)
	return nil
}

// SetTransports swaps the delivery transports, called at worker startup.
func SetTransports(sender PushSender, emitter SocketEmitter) {
	if sender != nil {
		pushSender = sender
	}
	if emitter != nil {
		socketEmitter = emitter
	}
}

// SetTriggerRunner installs the scan runner for delayed job triggers.
func SetTriggerRunner(runner TriggerRunner) {
	if runner != nil {
		triggerRunner = runner
	}
}

// StartNotifyConsumer drains the notify queue. Duplicate message IDs are
// skipped via a Redis claim; delivery failures release the claim and
// requeue.
func StartNotifyConsumer(ctx context.Context) error {
	handler := func(body []byte) error {
		var probe struct {
			MessageID string `json:"message_id"`
			Event     string `json:"event"`
		}
		if err := json.Unmarshal(body, &probe); err != nil {
			return fmt.Errorf("failed to unmarshal notify message: %w", err)
		}
		if probe.MessageID == "" {
			logger.Logger.Warn("Dropping notify message without ID")
			return nil
		}

		claimed, err := cache.TryMarkMessageProcessing(ctx, probe.MessageID, 24*time.Hour)
		if err != nil {
			logger.Logger.Warn("Failed to check message processed status",
				zap.String("message_id", probe.MessageID),
				zap.Error(err),
			)
			// Claim check failed: deliver anyway rather than stall the queue.
		} else if !claimed {
			logger.Logger.Info("Message already processed, skipping",
				zap.String("message_id", probe.MessageID),
			)
			return nil
		}

		if probe.Event != "" {
			err = handleEmit(ctx, body)
		} else {
			err = handlePush(ctx, body)
		}
		if err != nil {
			if unmarkErr := cache.UnmarkMessageProcessing(ctx, probe.MessageID); unmarkErr != nil {
				logger.Logger.Warn("Failed to release message claim",
					zap.String("message_id", probe.MessageID),
					zap.Error(unmarkErr),
				)
			}
			return err
		}

		if err := cache.MarkMessageProcessed(ctx, probe.MessageID, 48*time.Hour); err != nil {
			logger.Logger.Warn("Failed to mark message as processed",
				zap.String("message_id", probe.MessageID),
				zap.Error(err),
			)
		}

		return nil
	}

	return mq.Consume(mq.ConsumeOptions{
		Queue:         mq.NotifyQueue,
		ConsumerTag:   "notify_consumer",
		PrefetchCount: 10,
		Handler:       handler,
	})
}

func handlePush(ctx context.Context, body []byte) error {
	var msg NotifyMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return fmt.Errorf("failed to unmarshal push message: %w", err)
	}

	kind := string(msg.Notification.Kind)
	if err := pushSender.SendPush(ctx, msg.Notification); err != nil {
		metrics.RecordNotificationFailed(kind, "push_transport")
		return fmt.Errorf("failed to deliver push: %w", err)
	}
	metrics.RecordNotificationDelivered(kind)

	return nil
}

func handleEmit(ctx context.Context, body []byte) error {
	var msg EmitMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return fmt.Errorf("failed to unmarshal emit message: %w", err)
	}

	if err := socketEmitter.Emit(ctx, msg.Room, msg.Event, msg.Payload); err != nil {
		metrics.RecordNotificationFailed(msg.Event, "socket_transport")
		return fmt.Errorf("failed to deliver room event: %w", err)
	}
	metrics.RecordNotificationDelivered(msg.Event)

	return nil
}

// StartTriggerConsumer drains the delayed scan triggers. Triggers are
// fire-when-due hints over idempotent scans, so a duplicate is harmless
// and dedupe uses the same claim scheme as notifications.
func StartTriggerConsumer(ctx context.Context) error {
	handler := func(body []byte) error {
		var msg JobTriggerMessage
		if err := json.Unmarshal(body, &msg); err != nil {
			return fmt.Errorf("failed to unmarshal job trigger: %w", err)
		}
		if msg.MessageID == "" || msg.Job == "" {
			logger.Logger.Warn("Dropping malformed job trigger")
			return nil
		}

		claimed, err := cache.TryMarkMessageProcessing(ctx, msg.MessageID, 24*time.Hour)
		if err != nil {
			logger.Logger.Warn("Failed to check trigger processed status",
				zap.String("message_id", msg.MessageID),
				zap.Error(err),
			)
		} else if !claimed {
			return nil
		}

		if err := triggerRunner(ctx, msg.Job); err != nil {
			if unmarkErr := cache.UnmarkMessageProcessing(ctx, msg.MessageID); unmarkErr != nil {
				logger.Logger.Warn("Failed to release trigger claim",
					zap.String("message_id", msg.MessageID),
					zap.Error(unmarkErr),
				)
			}
			return err
		}

		if err := cache.MarkMessageProcessed(ctx, msg.MessageID, 48*time.Hour); err != nil {
			logger.Logger.Warn("Failed to mark trigger as processed",
				zap.String("message_id", msg.MessageID),
				zap.Error(err),
			)
		}

		return nil
	}

	return mq.Consume(mq.ConsumeOptions{
		Queue:         mq.TriggerQueue,
		ConsumerTag:   "trigger_consumer",
		PrefetchCount: 5,
		Handler:       handler,
	})
}

// StartAllConsumers blocks until every consumer exits, normally on
// context shutdown.
func StartAllConsumers(ctx context.Context) {
	var wg sync.WaitGroup

	consumers := []struct {
		name     string
		consumer func(context.Context) error
	}{
		{"notify", StartNotifyConsumer},
		{"trigger", StartTriggerConsumer},
	}

	for _, c := range consumers {
		wg.Add(1)
		go func(name string, consumer func(context.Context) error) {
			defer wg.Done()

			logger.Logger.Info("Starting consumer",
				zap.String("consumer_name", name),
			)

			if err := consumer(ctx); err != nil {
				logger.Logger.Error("Consumer exited with error",
					zap.String("consumer_name", name),
					zap.Error(err),
				)
			}
		}(c.name, c.consumer)
	}

	wg.Wait()
}
