package health

import (
	"context"
	"database/sql"
	"time"

	"annotation-backend/internal/shared/storage/db"
)

const pingTimeout = 2 * time.Second

// Service encapsulates health-related checks.
type Service struct {
	DB *sql.DB
}

// NewService constructs a new health service. db may be nil when running on
// in-memory repositories.
func NewService(database *sql.DB) *Service {
	return &Service{DB: database}
}

// Status reports liveness plus the state of the backing store.
func (s *Service) Status(ctx context.Context) map[string]any {
	out := map[string]any{"ok": true}
	if s == nil || s.DB == nil {
		out["database"] = "memory"
		return out
	}
	if err := db.Ping(ctx, s.DB, pingTimeout); err != nil {
		out["database"] = "unreachable"
		return out
	}
	out["database"] = "up"
	return out
}
