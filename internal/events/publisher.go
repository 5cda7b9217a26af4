// Package events publishes domain events about assignments and annotations.
package events

import (
	"context"
	"sync"

	"annotation-backend/internal/shared/telemetry"
)

// Publisher sends events to a downstream consumer.
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(ctx context.Context, evt Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
	return nil
}

// Events returns a copy of everything published so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// PublishBestEffort publishes evt and logs failures instead of returning them.
// The write that produced the event has already committed.
func PublishBestEffort(ctx context.Context, p Publisher, evt Event) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, evt); err != nil {
		telemetry.Error("events.publish_failed", map[string]any{
			"type":        evt.Type,
			"document_id": evt.DocumentID,
			"error":       err.Error(),
		})
	}
}

var (
	_ Publisher = Nop{}
	_ Publisher = (*Recorder)(nil)
)
