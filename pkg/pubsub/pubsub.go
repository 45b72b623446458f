package pubsub

import (
	"context"
	"encoding/json"
	"time"
)

// AssetsTopic carries change notifications for host asset directories.
const AssetsTopic = "assets"

// Event types published on AssetsTopic.
const (
	EventStyle  = "style"  // only stylesheets changed, clients may swap them in place
	EventReload = "reload" // anything else changed, clients reload the page
)

// Event represents a pub/sub event
type Event struct {
	Topic   string          `json:"topic"`
	Type    string          `json:"type"`
	Data    json.RawMessage `json:"data"`
	Version int             `json:"version"` // per-topic counter, starts at 1
}

// Subscription represents a client subscription to a topic
type Subscription interface {
	Topic() string

	// Events returns a channel for receiving events. It is closed when the
	// publisher shuts down.
	Events() <-chan Event

	Close() error
}

// Publisher manages pub/sub subscriptions and event publishing
type Publisher interface {
	// Subscribe creates a new subscription to a topic.
	// Context cancellation closes the subscription.
	Subscribe(ctx context.Context, topic string) (Subscription, error)

	Publish(topic string, eventType string, data any) error

	Close() error
}

// AssetChange is the payload of an AssetsTopic event.
type AssetChange struct {
	Source string    `json:"source"` // name of the directory source that changed
	Paths  []string  `json:"paths"`  // asset paths relative to the source root
	At     time.Time `json:"at"`
}
