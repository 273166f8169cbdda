package mq

import (
	"context"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"fieldops/config"
)

const (
	// NotifyExchange carries worker- and team-facing notifications.
	NotifyExchange = "notify.topic"
	// DelayedExchange carries delayed messages via the delayed-message plugin.
	DelayedExchange = "scheduler.delayed"

	// NotifyQueue is consumed by the delivery worker.
	NotifyQueue = "fieldops.notify"
	// TriggerQueue carries delayed scan triggers to the worker.
	TriggerQueue = "fieldops.triggers"
)

var (
	conn     *amqp.Connection
	connOnce sync.Once
	connErr  error
)

func Init() error {
	connOnce.Do(func() {
		conn, connErr = amqp.Dial(config.Cfg.GetRabbitMQURL())
		if connErr != nil {
			return
		}

		connErr = declareTopology()
	})

	return connErr
}

func Connection() *amqp.Connection {
	return conn
}

func declareTopology() error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open topology channel: %w", err)
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(
		NotifyExchange, "topic", true, false, false, false, nil,
	); err != nil {
		return fmt.Errorf("failed to declare notify exchange: %w", err)
	}

	// Delayed exchange requires the rabbitmq_delayed_message_exchange plugin.
	if err := ch.ExchangeDeclare(
		DelayedExchange, "x-delayed-message", true, false, false, false,
		amqp.Table{"x-delayed-type": "topic"},
	); err != nil {
		return fmt.Errorf("failed to declare delayed exchange: %w", err)
	}

	if _, err := ch.QueueDeclare(
		NotifyQueue, true, false, false, false, nil,
	); err != nil {
		return fmt.Errorf("failed to declare notify queue: %w", err)
	}

	if _, err := ch.QueueDeclare(
		TriggerQueue, true, false, false, false, nil,
	); err != nil {
		return fmt.Errorf("failed to declare trigger queue: %w", err)
	}

	if err := ch.QueueBind(NotifyQueue, "notify.#", NotifyExchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind notify queue: %w", err)
	}
	if err := ch.QueueBind(TriggerQueue, "trigger.#", DelayedExchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind trigger queue to delayed exchange: %w", err)
	}

	return nil
}

func Close(ctx context.Context) error {
	if conn == nil {
		return nil
	}

	done := make(chan error, 1)
	go func() {
		done <- conn.Close()
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}
