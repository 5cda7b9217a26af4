package annotations

import (
	"context"
	"fmt"

	"annotation-backend/internal/shared/apperr"
)

var (
	ErrNotFound         = fmt.Errorf("annotation %w", apperr.ErrNotFound)
	ErrDocumentNotFound = fmt.Errorf("document %w", apperr.ErrNotFound)
)

// Repo stores annotations. Upsert must be atomic per (document, annotator).
type Repo interface {
	Upsert(ctx context.Context, documentID, annotatorID string, in Input) (Annotation, error)
	Get(ctx context.Context, documentID, annotatorID string) (Annotation, error)
	// ListByDocument returns the document's annotations ordered by created_at ascending.
	ListByDocument(ctx context.Context, documentID string) ([]Annotation, error)
	ListByAnnotator(ctx context.Context, annotatorID string) ([]Annotation, error)
	ListAll(ctx context.Context) ([]Annotation, error)
	Counts(ctx context.Context, documentID string) (total int, completed int, err error)
}

// DocumentGateway is the annotation flow's view of the documents store.
// Both methods return ErrDocumentNotFound for unknown ids.
type DocumentGateway interface {
	Lookup(ctx context.Context, documentID string) (DocumentRef, error)
	SetStatus(ctx context.Context, documentID, status string) error
}

// TxSubmitter performs authorize, upsert and reconcile in one transaction
// holding the document row lock. authorize runs after the lock is taken.
type TxSubmitter interface {
	SubmitAndReconcile(ctx context.Context, documentID, annotatorID string, in Input, authorize func(DocumentRef) error) (Annotation, Transition, error)
}

// TxReconciler recomputes a document's status while holding its row lock, so
// concurrent submissions cannot interleave between the count and the write.
// Unknown documents yield an empty status.
type TxReconciler interface {
	ReconcileLocked(ctx context.Context, documentID string) (string, error)
}

// Transition records the document status before and after a write.
type Transition struct {
	From string
	To   string
}

func (t Transition) String() string {
	if t.From == "" && t.To == "" {
		return ""
	}
	return t.From + "->" + t.To
}
