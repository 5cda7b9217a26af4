package documents

import (
	"context"
	"fmt"

	"annotation-backend/internal/shared/apperr"
)

var (
	ErrNotFound        = fmt.Errorf("document %w", apperr.ErrNotFound)
	ErrAlreadyAssigned = fmt.Errorf("%w: document is already assigned", apperr.ErrConflict)
)

// ListFilter narrows a listing to what one caller may see.
type ListFilter struct {
	// VisibleTo restricts results to unassigned documents and those assigned
	// to this user. Empty means no restriction.
	VisibleTo string
}

// Repo defines persistence operations for documents.
type Repo interface {
	Create(ctx context.Context, doc Document) error
	Get(ctx context.Context, documentID string) (Document, error)
	GetByTitle(ctx context.Context, title string) (Document, error)
	// List returns documents ordered by created_at, then id.
	List(ctx context.Context, filter ListFilter, limit, offset int) ([]Document, error)
	ListAll(ctx context.Context) ([]Document, error)
	// UpdateContent rewrites title, contents, word counts, object keys and assignee.
	UpdateContent(ctx context.Context, doc Document) error
	SetAssignee(ctx context.Context, documentID string, assignedTo *string) error
	// ClaimIfUnassigned sets assigned_to only when it is currently null.
	// It reports false when another user already holds the document.
	ClaimIfUnassigned(ctx context.Context, documentID, userID string) (bool, error)
	SetStatus(ctx context.Context, documentID, status string) error
}
