// Package event provides a process-wide pub/sub bus for session and task
// lifecycle events, built on watermill's in-process gochannel transport.
package event

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/context-kit/contextkit/internal/logging"
)

// Type identifies the kind of lifecycle event.
type Type string

const (
	ServerConnected Type = "server.connected"

	SessionCreated Type = "session.created"
	SessionDeleted Type = "session.deleted"
	TaskStarted    Type = "task.started"
	TaskCompleted  Type = "task.completed"
	TaskFailed     Type = "task.failed"
)

// topic is the single watermill topic all lifecycle events flow through.
const topic = "contextkit.events"

// Event is one lifecycle record.
type Event struct {
	Type      Type      `json:"type"`
	SessionID string    `json:"sessionId,omitempty"`
	TaskID    string    `json:"taskId,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// New builds an event stamped with the current time.
func New(t Type, sessionID, taskID string) Event {
	return Event{Type: t, SessionID: sessionID, TaskID: taskID, Timestamp: time.Now().UTC()}
}

// Bus is an in-process event bus. It is constructed by the entry point and
// injected; there is no global instance.
type Bus struct {
	pubsub *gochannel.GoChannel
}

// NewBus creates an event bus.
func NewBus() *Bus {
	return &Bus{
		pubsub: gochannel.NewGoChannel(
			gochannel.Config{OutputChannelBuffer: 100},
			watermill.NopLogger{},
		),
	}
}

// Publish sends an event to all subscribers. Publishing never blocks the
// caller on slow subscribers; delivery is best-effort.
func (b *Bus) Publish(e Event) {
	payload, err := json.Marshal(e)
	if err != nil {
		logging.Error().Err(err).Msg("failed to marshal event")
		return
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := b.pubsub.Publish(topic, msg); err != nil {
		logging.Warn().Err(err).Str("event", string(e.Type)).Msg("failed to publish event")
	}
}

// subscriberBuffer bounds how far a subscriber may lag before events are
// dropped for it.
const subscriberBuffer = 32

// Subscribe returns a channel of all events published after the call. The
// channel is buffered; a subscriber that stops draining loses events rather
// than stalling publishers. The subscription ends when ctx is cancelled or
// the bus closes.
func (b *Bus) Subscribe(ctx context.Context) (<-chan Event, error) {
	msgs, err := b.pubsub.Subscribe(ctx, topic)
	if err != nil {
		return nil, err
	}

	out := make(chan Event, subscriberBuffer)
	go func() {
		defer close(out)
		for msg := range msgs {
			var e Event
			if err := json.Unmarshal(msg.Payload, &e); err != nil {
				logging.Warn().Err(err).Msg("dropping undecodable event")
				msg.Ack()
				continue
			}
			select {
			case out <- e:
			default:
				logging.Warn().Str("event", string(e.Type)).Msg("dropping event for slow subscriber")
			}
			msg.Ack()
		}
	}()
	return out, nil
}

// Close shuts the bus down and terminates all subscriptions.
func (b *Bus) Close() error {
	return b.pubsub.Close()
}
