package annotations

import (
	"context"
	"errors"
)

// DeriveStatus maps annotation counts onto the document status:
// no annotations is pending, all completed is completed, anything else is in progress.
func DeriveStatus(total, completed int) string {
	switch {
	case total <= 0:
		return StatusPending
	case completed >= total:
		return StatusCompleted
	default:
		return StatusInProgress
	}
}

// Reconciler recomputes a document's status from its annotations.
type Reconciler struct {
	Repo      Repo
	Documents DocumentGateway
}

// Reconcile persists the derived status. Unknown documents are a no-op and
// return an empty status.
func (r *Reconciler) Reconcile(ctx context.Context, documentID string) (string, error) {
	total, completed, err := r.Repo.Counts(ctx, documentID)
	if err != nil {
		return "", err
	}
	status := DeriveStatus(total, completed)
	if err := r.Documents.SetStatus(ctx, documentID, status); err != nil {
		if errors.Is(err, ErrDocumentNotFound) {
			return "", nil
		}
		return "", err
	}
	return status, nil
}
