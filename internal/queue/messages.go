package queue

import "fieldops/internal/notify"

// NotifyMessage wraps a notification for transport through RabbitMQ.
// MessageID drives consumer-side dedupe.
type NotifyMessage struct {
	MessageID    string              `json:"message_id"`
	PublishedAt  string              `json:"published_at"`
	Notification notify.Notification `json:"notification"`
}

// JobTriggerMessage asks the worker to run one scheduler scan. Published
// through the delayed exchange so it arrives when the scan is due.
type JobTriggerMessage struct {
	MessageID   string `json:"message_id"`
	PublishedAt string `json:"published_at"`
	Job         string `json:"job"`
}

// EmitMessage is a room/socket event for live observers.
type EmitMessage struct {
	MessageID   string      `json:"message_id"`
	PublishedAt string      `json:"published_at"`
	Room        string      `json:"room"`
	Event       string      `json:"event"`
	Payload     interface{} `json:"payload"`
}
