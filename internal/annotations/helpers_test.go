package annotations

import (
	"context"
	"io"
	"sync"
	"testing"

	"annotation-backend/internal/shared/telemetry"
)

type fakeDocuments struct {
	mu   sync.Mutex
	docs map[string]DocumentRef
}

func newFakeDocuments(refs ...DocumentRef) *fakeDocuments {
	f := &fakeDocuments{docs: make(map[string]DocumentRef)}
	for _, ref := range refs {
		if ref.Status == "" {
			ref.Status = StatusPending
		}
		f.docs[ref.ID] = ref
	}
	return f
}

func (f *fakeDocuments) Lookup(ctx context.Context, documentID string) (DocumentRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ref, ok := f.docs[documentID]
	if !ok {
		return DocumentRef{}, ErrDocumentNotFound
	}
	return ref, nil
}

func (f *fakeDocuments) SetStatus(ctx context.Context, documentID, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	ref, ok := f.docs[documentID]
	if !ok {
		return ErrDocumentNotFound
	}
	ref.Status = status
	f.docs[documentID] = ref
	return nil
}

func (f *fakeDocuments) status(documentID string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.docs[documentID].Status
}

func quietLogs(t *testing.T) {
	t.Helper()
	restore := telemetry.SetOutput(io.Discard)
	t.Cleanup(restore)
}

func strPtr(s string) *string { return &s }
