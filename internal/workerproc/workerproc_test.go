package workerproc

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"annotation-backend/internal/events"
	"annotation-backend/internal/shared/telemetry"
)

type fakeReconciler struct {
	status string
	err    error
	calls  []string
}

func (f *fakeReconciler) Reconcile(ctx context.Context, documentID string) (string, error) {
	f.calls = append(f.calls, documentID)
	return f.status, f.err
}

func encode(t *testing.T, evt events.Event) string {
	t.Helper()
	body, err := events.Encode(evt)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return string(body)
}

func TestParseMessageErrors(t *testing.T) {
	cases := []struct {
		name string
		body string
		want func(error) bool
	}{
		{"empty", "  ", func(err error) bool { _, ok := err.(ErrEmptyBody); return ok }},
		{"bad json", "{nope", func(err error) bool { _, ok := err.(ErrDecode); return ok }},
		{"unknown type", `{"type":"document.deleted","documentId":"d1"}`, func(err error) bool { _, ok := err.(ErrUnknownType); return ok }},
		{"missing id", `{"type":"document.claimed"}`, func(err error) bool { _, ok := err.(ErrMissingDocumentID); return ok }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := ParseMessage(tc.body)
			if err == nil || !tc.want(err) {
				t.Fatalf("unexpected error %T %v", err, err)
			}
			if !Unrecoverable(err) {
				t.Fatalf("expected %v to be unrecoverable", err)
			}
		})
	}
}

func TestHandleSubmittedReconciles(t *testing.T) {
	restore := telemetry.SetOutput(io.Discard)
	defer restore()

	rec := &fakeReconciler{status: "completed"}
	evt := events.New(events.TypeAnnotationSubmitted, "doc-1", "expert-1")
	evt.Status = "completed"

	if err := HandleMessage(context.Background(), rec, encode(t, evt)); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if len(rec.calls) != 1 || rec.calls[0] != "doc-1" {
		t.Fatalf("unexpected reconcile calls %v", rec.calls)
	}
}

func TestHandleSubmittedLogsRepair(t *testing.T) {
	var buf bytes.Buffer
	restore := telemetry.SetOutput(&buf)
	defer restore()

	rec := &fakeReconciler{status: "in_progress"}
	evt := events.New(events.TypeAnnotationSubmitted, "doc-2", "expert-1")
	evt.Status = "completed"

	if err := HandleMessage(context.Background(), rec, encode(t, evt)); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if !strings.Contains(buf.String(), "worker.event.status_repaired") {
		t.Fatalf("expected repair log, got %q", buf.String())
	}
}

func TestHandleSubmittedFailureIsRetryable(t *testing.T) {
	rec := &fakeReconciler{err: errors.New("db down")}
	evt := events.New(events.TypeAnnotationSubmitted, "doc-3", "expert-1")

	err := HandleMessage(context.Background(), rec, encode(t, evt))
	var procErr ErrProcess
	if !errors.As(err, &procErr) || procErr.DocumentID != "doc-3" {
		t.Fatalf("expected ErrProcess, got %v", err)
	}
	if Unrecoverable(err) {
		t.Fatalf("processing failures should be retried")
	}
}

func TestHandleClaimIsAuditOnly(t *testing.T) {
	var buf bytes.Buffer
	restore := telemetry.SetOutput(&buf)
	defer restore()

	rec := &fakeReconciler{}
	assignee := "expert-2"
	evt := events.New(events.TypeDocumentClaimed, "doc-4", assignee)
	evt.AssignedTo = &assignee

	ctx := WithParsedEvent(context.Background(), evt)
	if err := HandleMessage(ctx, rec, ""); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if len(rec.calls) != 0 {
		t.Fatalf("claims must not reconcile, got %v", rec.calls)
	}
	if !strings.Contains(buf.String(), "worker.event.audit") {
		t.Fatalf("expected audit log, got %q", buf.String())
	}
}
