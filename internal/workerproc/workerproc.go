// Package workerproc decodes and applies domain events pulled off the events queue.
package workerproc

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"annotation-backend/internal/events"
	"annotation-backend/internal/shared/metrics"
	"annotation-backend/internal/shared/telemetry"
)

// MessageMeta captures details useful for logging and diagnostics.
type MessageMeta struct {
	BodyLen int
	BodySHA string
}

// ComputeMeta returns the body length and SHA-256 hash.
func ComputeMeta(body string) MessageMeta {
	if body == "" {
		return MessageMeta{BodyLen: 0, BodySHA: ""}
	}
	sum := sha256.Sum256([]byte(body))
	return MessageMeta{BodyLen: len(body), BodySHA: hex.EncodeToString(sum[:])}
}

// ErrEmptyBody indicates an empty queue payload.
type ErrEmptyBody struct {
	Meta MessageMeta
}

func (e ErrEmptyBody) Error() string { return "empty message body" }

// ErrDecode indicates a JSON decode failure.
type ErrDecode struct {
	Meta MessageMeta
	Err  error
}

func (e ErrDecode) Error() string {
	if e.Err == nil {
		return "decode message"
	}
	return "decode message: " + e.Err.Error()
}

// ErrMissingDocumentID indicates an event without a document id.
type ErrMissingDocumentID struct {
	Meta MessageMeta
	Type string
}

func (e ErrMissingDocumentID) Error() string { return "missing document id" }

// ErrUnknownType indicates an event type this worker does not handle.
type ErrUnknownType struct {
	Meta MessageMeta
	Type string
}

func (e ErrUnknownType) Error() string { return "unknown event type " + e.Type }

// ErrProcess indicates processing failed after successful parsing.
type ErrProcess struct {
	DocumentID string
	Type       string
	Err        error
}

func (e ErrProcess) Error() string {
	if e.Err == nil {
		return "process event"
	}
	return "process event: " + e.Err.Error()
}

func (e ErrProcess) Unwrap() error { return e.Err }

// Unrecoverable reports whether err means the message can never succeed and
// should be removed from the queue rather than retried.
func Unrecoverable(err error) bool {
	var (
		empty   ErrEmptyBody
		decode  ErrDecode
		missing ErrMissingDocumentID
		unknown ErrUnknownType
	)
	return errors.As(err, &empty) || errors.As(err, &decode) ||
		errors.As(err, &missing) || errors.As(err, &unknown)
}

// ParseMessage validates and decodes the queue payload.
func ParseMessage(body string) (events.Event, MessageMeta, error) {
	meta := ComputeMeta(body)
	if strings.TrimSpace(body) == "" {
		return events.Event{}, meta, ErrEmptyBody{Meta: meta}
	}

	evt, err := events.Decode([]byte(body))
	if err != nil {
		return events.Event{}, meta, ErrDecode{Meta: meta, Err: err}
	}
	switch evt.Type {
	case events.TypeAnnotationSubmitted, events.TypeDocumentAssigned, events.TypeDocumentClaimed:
	default:
		return evt, meta, ErrUnknownType{Meta: meta, Type: evt.Type}
	}
	if strings.TrimSpace(evt.DocumentID) == "" {
		return evt, meta, ErrMissingDocumentID{Meta: meta, Type: evt.Type}
	}
	return evt, meta, nil
}

// Reconciler recomputes and persists a document's status.
type Reconciler interface {
	Reconcile(ctx context.Context, documentID string) (string, error)
}

type parsedEventKey struct{}

// WithParsedEvent stores a decoded event in the context for reuse.
func WithParsedEvent(ctx context.Context, evt events.Event) context.Context {
	return context.WithValue(ctx, parsedEventKey{}, evt)
}

func parsedEventFromContext(ctx context.Context) (events.Event, bool) {
	if ctx == nil {
		return events.Event{}, false
	}
	evt, ok := ctx.Value(parsedEventKey{}).(events.Event)
	return evt, ok
}

// HandleMessage parses, validates, and applies an event payload.
//
// Submissions trigger a status recompute for the document; assignment and
// claim events are recorded in the audit log only. Processing is idempotent so
// redelivered messages are harmless.
func HandleMessage(ctx context.Context, reconciler Reconciler, body string) error {
	if reconciler == nil {
		return errors.New("reconciler not configured")
	}

	evt, ok := parsedEventFromContext(ctx)
	if !ok {
		var err error
		evt, _, err = ParseMessage(body)
		if err != nil {
			return err
		}
	}

	fields := map[string]any{
		"event_type":  evt.Type,
		"document_id": evt.DocumentID,
		"actor_id":    evt.ActorID,
	}

	switch evt.Type {
	case events.TypeAnnotationSubmitted:
		status, err := reconciler.Reconcile(ctx, evt.DocumentID)
		if err != nil {
			return ErrProcess{DocumentID: evt.DocumentID, Type: evt.Type, Err: err}
		}
		if status == "" {
			telemetry.Warn("worker.event.document_missing", fields)
			return nil
		}
		if evt.Status != "" && status != evt.Status {
			fields["event_status"] = evt.Status
			fields["status"] = status
			telemetry.Info("worker.event.status_repaired", fields)
			metrics.IncStatusRepairs()
		}
	case events.TypeDocumentAssigned, events.TypeDocumentClaimed:
		if evt.AssignedTo != nil {
			fields["assigned_to"] = *evt.AssignedTo
		} else {
			fields["assigned_to"] = nil
		}
		telemetry.Info("worker.event.audit", fields)
	default:
		return ErrUnknownType{Meta: ComputeMeta(body), Type: evt.Type}
	}
	return nil
}
