package users

import (
	"context"
	"fmt"

	"annotation-backend/internal/shared/apperr"
)

var (
	ErrNotFound          = fmt.Errorf("user %w", apperr.ErrNotFound)
	ErrDuplicateUsername = fmt.Errorf("%w: username already exists", apperr.ErrConflict)
)

type Repo interface {
	Upsert(ctx context.Context, user User) error
	GetByID(ctx context.Context, userID string) (User, error)
	GetByUsername(ctx context.Context, username string) (User, error)
	// ListByRole returns users holding role, ordered by username.
	ListByRole(ctx context.Context, role string) ([]User, error)
}
