package stats

import (
	"context"
	"time"
)

// Store answers the aggregate queries behind every rollup.
type Store interface {
	DocumentCounts(ctx context.Context) (DocumentCounts, error)
	AnnotationTotals(ctx context.Context, filter AnnotationFilter) (AnnotationTotals, error)
	AssignmentCounts(ctx context.Context, userID string) (AssignmentCounts, error)
	Experts(ctx context.Context) ([]Expert, error)
	// DailyCounts buckets annotations created at or after since by UTC date, ascending.
	DailyCounts(ctx context.Context, since time.Time) ([]DailyRow, error)
	// UserActivity returns one row per expert with at least one annotation.
	UserActivity(ctx context.Context) ([]ActivityRow, error)
	DocumentActivity(ctx context.Context) ([]DocumentRow, error)
}
