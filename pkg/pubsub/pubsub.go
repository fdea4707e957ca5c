// Package pubsub fans out analysis progress events to web subscribers.
package pubsub

import (
	"context"
	"encoding/json"
)

// Topic names used by the analysis runner.
const (
	TopicRunStatus   = "run_status"
	TopicCycleStream = "cycle_stream"
)

// Event represents a pub/sub event
type Event struct {
	Topic   string          `json:"topic"`
	Type    string          `json:"type"`    // e.g. "loading", "searching", "cycle", "done", "error"
	Data    json.RawMessage `json:"data"`    // Event payload
	Version int             `json:"version"` // Version number for ordering
}

// Subscription represents a client subscription to a topic
type Subscription interface {
	// Topic returns the subscription topic
	Topic() string

	// Events returns a channel for receiving events
	Events() <-chan Event

	// Close closes the subscription
	Close() error
}

// Publisher manages pub/sub subscriptions and event publishing
type Publisher interface {
	// Subscribe creates a new subscription to a topic.
	// Context cancellation will close the subscription.
	Subscribe(ctx context.Context, topic string) (Subscription, error)

	// Publish sends an event to all subscribers of a topic
	Publish(topic string, eventType string, data interface{}) error

	// Close shuts down the publisher and all subscriptions
	Close() error
}

// RunStatus describes where a search run currently stands.
type RunStatus struct {
	State   string `json:"state"` // loading, searching, done, error
	Message string `json:"message"`
	Step    int    `json:"step"`
	Total   int    `json:"total"`
}

// CycleStreamData announces progress of the cycle stream.
type CycleStreamData struct {
	Found    int  `json:"found"`
	Complete bool `json:"complete"`
}
