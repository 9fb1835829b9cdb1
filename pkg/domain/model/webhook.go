package model

import "time"

// WebhookEventType represents the type of webhook event received
type WebhookEventType string

const (
	EventTypePush WebhookEventType = "push"
)

// WebhookEvent represents a verified webhook delivery received from GitHub
type WebhookEvent struct {
	ID         string           // Retrieved from X-GitHub-Delivery header
	Type       WebhookEventType // Retrieved from X-GitHub-Event header
	ReceivedAt time.Time        // Time when the event was received
	RawPayload []byte           // Raw JSON payload
}

// IsSupportedEvent checks if the event is relayed to the worker
func (e *WebhookEvent) IsSupportedEvent() bool {
	return e.Type == EventTypePush
}
