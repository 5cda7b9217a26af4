// Package stats derives completion and approval rollups from documents and
// annotations. Nothing is cached; every call reads current facts.
package stats

import (
	"context"
	"fmt"
	"math"
	"time"

	"annotation-backend/internal/access"
	"annotation-backend/internal/shared/apperr"
	"annotation-backend/internal/shared/metrics"
	"annotation-backend/internal/shared/telemetry"
)

const (
	minDays = 1
	maxDays = 365
)

var (
	ErrAdminOnly = fmt.Errorf("%w: admin role required", apperr.ErrForbidden)
	ErrDays      = fmt.Errorf("%w: days must be between %d and %d", apperr.ErrInvalidInput, minDays, maxDays)
)

type Service struct {
	Store Store
	Now   func() time.Time
}

func (s *Service) Overview(ctx context.Context) (Overview, error) {
	docs, err := s.Store.DocumentCounts(ctx)
	if err != nil {
		return Overview{}, err
	}
	totals, err := s.Store.AnnotationTotals(ctx, AnnotationFilter{})
	if err != nil {
		return Overview{}, err
	}
	return Overview{
		TotalDocuments:      docs.Total,
		AnnotatedDocuments:  docs.Annotated,
		TotalAnnotations:    totals.Total,
		PositiveAnnotations: totals.Positive,
		PositiveRate:        percent(totals.Positive, totals.Total),
		CompletionRate:      percent(docs.Annotated, docs.Total),
		StatusDistribution: StatusDistribution{
			Pending:    docs.Pending,
			InProgress: docs.InProgress,
			Completed:  docs.Completed,
		},
	}, nil
}

// UserStats reports one user's annotation totals and assignment counts.
func (s *Service) UserStats(ctx context.Context, userID string) (UserStats, error) {
	totals, err := s.Store.AnnotationTotals(ctx, AnnotationFilter{AnnotatorID: userID})
	if err != nil {
		return UserStats{}, err
	}
	assigned, err := s.Store.AssignmentCounts(ctx, userID)
	if err != nil {
		return UserStats{}, err
	}
	return UserStats{
		UserID:               userID,
		CompletedAnnotations: totals.Completed,
		TotalAnnotations:     totals.Total,
		PositiveRate:         percent(totals.Positive, totals.Total),
		TotalTimeSeconds:     totals.TimeSpentSeconds,
		TotalTimeMinutes:     round2(float64(totals.TimeSpentSeconds) / 60),
		AssignedToMe:         assigned.AssignedToUser,
		AvailableForClaim:    assigned.Unassigned,
	}, nil
}

// MyStats is UserStats for the caller.
func (s *Service) MyStats(ctx context.Context, actor access.Actor) (UserStats, error) {
	out, err := s.UserStats(ctx, actor.UserID)
	if err != nil {
		return UserStats{}, err
	}
	out.Username = actor.Username
	return out, nil
}

// AllUsers reports UserStats for every expert, including idle ones.
func (s *Service) AllUsers(ctx context.Context, actor access.Actor) ([]UserStats, error) {
	if !access.IsAdmin(actor) {
		return nil, ErrAdminOnly
	}
	experts, err := s.Store.Experts(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]UserStats, 0, len(experts))
	for _, e := range experts {
		row, err := s.UserStats(ctx, e.ID)
		if err != nil {
			return nil, err
		}
		row.Username = e.Username
		row.FullName = e.FullName
		out = append(out, row)
	}
	return out, nil
}

// Temporal buckets annotations from the last days days by UTC creation date.
func (s *Service) Temporal(ctx context.Context, days int) ([]DailyStat, error) {
	if err := validateDays(days); err != nil {
		return nil, err
	}
	rows, err := s.Store.DailyCounts(ctx, s.windowStart(days))
	rows = orEmpty("temporal", rows, err)

	out := make([]DailyStat, 0, len(rows))
	for _, row := range rows {
		out = append(out, DailyStat{
			Date:         row.Date,
			Count:        row.Count,
			Positive:     row.Positive,
			ApprovalRate: percent(row.Positive, row.Count),
		})
	}
	return out, nil
}

// UserActivity lists experts with at least one annotation.
func (s *Service) UserActivity(ctx context.Context, actor access.Actor) ([]UserActivity, error) {
	if !access.IsAdmin(actor) {
		return nil, ErrAdminOnly
	}
	rows, err := s.Store.UserActivity(ctx)
	rows = orEmpty("user_activity", rows, err)

	out := make([]UserActivity, 0, len(rows))
	for _, row := range rows {
		avg := 0.0
		if row.Annotations > 0 {
			avg = round2(float64(row.TimeSpentSeconds) / float64(row.Annotations))
		}
		out = append(out, UserActivity{
			UserID:             row.UserID,
			Username:           row.Username,
			FullName:           row.FullName,
			AnnotationCount:    row.Annotations,
			CompletedCount:     row.Completed,
			ApprovalRate:       percent(row.Positive, row.Annotations),
			TotalTimeSeconds:   row.TimeSpentSeconds,
			AverageTimeSeconds: avg,
		})
	}
	return out, nil
}

func (s *Service) DocumentCompletion(ctx context.Context, actor access.Actor) (CompletionReport, error) {
	if !access.IsAdmin(actor) {
		return CompletionReport{}, ErrAdminOnly
	}
	rows, err := s.Store.DocumentActivity(ctx)
	if err != nil {
		return CompletionReport{}, err
	}
	counts, err := s.Store.DocumentCounts(ctx)
	if err != nil {
		return CompletionReport{}, err
	}

	report := CompletionReport{
		Documents:      make([]DocumentCompletion, 0, len(rows)),
		CompletionRate: percent(counts.Annotated, counts.Total),
	}
	for _, row := range rows {
		report.Documents = append(report.Documents, DocumentCompletion{
			DocumentID:      row.DocumentID,
			Title:           row.Title,
			Status:          row.Status,
			AnnotationCount: row.Annotations,
			AnnotatorCount:  row.Annotators,
		})
	}
	return report, nil
}

// ApprovalAnalysis splits approval by completion state. A nil days covers all time.
func (s *Service) ApprovalAnalysis(ctx context.Context, days *int) (ApprovalAnalysis, error) {
	filter := AnnotationFilter{}
	if days != nil {
		if err := validateDays(*days); err != nil {
			return ApprovalAnalysis{}, err
		}
		filter.Since = s.windowStart(*days)
	}
	totals, err := s.Store.AnnotationTotals(ctx, filter)
	if err != nil {
		return ApprovalAnalysis{}, err
	}
	return ApprovalAnalysis{
		Days:                   days,
		Total:                  totals.Total,
		Positive:               totals.Positive,
		Negative:               totals.Total - totals.Positive,
		ApprovalRate:           percent(totals.Positive, totals.Total),
		CompletedApprovalRate:  percent(totals.CompletedPositive, totals.Completed),
		InProgressApprovalRate: percent(totals.InProgressPositive, totals.InProgress),
	}, nil
}

// windowStart is midnight UTC days-1 days ago, so days=1 means today.
func (s *Service) windowStart(days int) time.Time {
	now := time.Now().UTC()
	if s.Now != nil {
		now = s.Now().UTC()
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return today.AddDate(0, 0, -(days - 1))
}

func validateDays(days int) error {
	if days < minDays || days > maxDays {
		return ErrDays
	}
	return nil
}

// orEmpty is the single place where a failed rollup query becomes an empty
// result instead of an error.
func orEmpty[T any](rollup string, rows []T, err error) []T {
	if err == nil {
		if rows == nil {
			return []T{}
		}
		return rows
	}
	metrics.IncStatsFallbacks()
	telemetry.Error("stats.query_failed", map[string]any{
		"rollup": rollup,
		"error":  err.Error(),
	})
	return []T{}
}

func percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return round2(float64(part) * 100 / float64(whole))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
