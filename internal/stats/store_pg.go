package stats

import (
	"context"
	"database/sql"
	"time"
)

// PGStore runs the rollup queries against Postgres.
type PGStore struct {
	DB *sql.DB
}

const documentCountsQuery = `
SELECT
  COUNT(*),
  COUNT(*) FILTER (WHERE EXISTS (
    SELECT 1 FROM annotations a WHERE a.document_id = d.id AND a.is_completed
  )),
  COUNT(*) FILTER (WHERE d.status = 'pending'),
  COUNT(*) FILTER (WHERE d.status = 'in_progress'),
  COUNT(*) FILTER (WHERE d.status = 'completed')
FROM documents d`

const annotationTotalsQuery = `
SELECT
  COUNT(*),
  COUNT(*) FILTER (WHERE evaluation),
  COUNT(*) FILTER (WHERE is_completed),
  COUNT(*) FILTER (WHERE is_completed AND evaluation),
  COUNT(*) FILTER (WHERE NOT is_completed),
  COUNT(*) FILTER (WHERE NOT is_completed AND evaluation),
  COALESCE(SUM(time_spent), 0)
FROM annotations
WHERE ($1 = '' OR annotator_id = $1)
  AND ($2::timestamptz IS NULL OR created_at >= $2)`

const assignmentCountsQuery = `
SELECT
  COUNT(*) FILTER (WHERE assigned_to = $1),
  COUNT(*) FILTER (WHERE assigned_to IS NULL)
FROM documents`

const expertsQuery = `
SELECT id, username, full_name
FROM users
WHERE role = 'expert'
ORDER BY username ASC`

const dailyCountsQuery = `
SELECT
  to_char(created_at AT TIME ZONE 'UTC', 'YYYY-MM-DD') AS day,
  COUNT(*),
  COUNT(*) FILTER (WHERE evaluation)
FROM annotations
WHERE created_at >= $1
GROUP BY day
ORDER BY day ASC`

const userActivityQuery = `
SELECT
  u.id,
  u.username,
  u.full_name,
  COUNT(a.id),
  COUNT(a.id) FILTER (WHERE a.is_completed),
  COUNT(a.id) FILTER (WHERE a.evaluation),
  COALESCE(SUM(a.time_spent), 0)
FROM users u
JOIN annotations a ON a.annotator_id = u.id
WHERE u.role = 'expert'
GROUP BY u.id, u.username, u.full_name
ORDER BY u.username ASC`

const documentActivityQuery = `
SELECT
  d.id,
  d.title,
  d.status,
  COUNT(a.id),
  COUNT(DISTINCT a.annotator_id)
FROM documents d
LEFT JOIN annotations a ON a.document_id = d.id
GROUP BY d.id, d.title, d.status, d.created_at
ORDER BY d.created_at ASC, d.id ASC`

func (s *PGStore) DocumentCounts(ctx context.Context) (DocumentCounts, error) {
	var out DocumentCounts
	err := s.DB.QueryRowContext(ctx, documentCountsQuery).Scan(
		&out.Total,
		&out.Annotated,
		&out.Pending,
		&out.InProgress,
		&out.Completed,
	)
	return out, err
}

func (s *PGStore) AnnotationTotals(ctx context.Context, filter AnnotationFilter) (AnnotationTotals, error) {
	var since sql.NullTime
	if !filter.Since.IsZero() {
		since = sql.NullTime{Time: filter.Since, Valid: true}
	}
	var out AnnotationTotals
	err := s.DB.QueryRowContext(ctx, annotationTotalsQuery, filter.AnnotatorID, since).Scan(
		&out.Total,
		&out.Positive,
		&out.Completed,
		&out.CompletedPositive,
		&out.InProgress,
		&out.InProgressPositive,
		&out.TimeSpentSeconds,
	)
	return out, err
}

func (s *PGStore) AssignmentCounts(ctx context.Context, userID string) (AssignmentCounts, error) {
	var out AssignmentCounts
	err := s.DB.QueryRowContext(ctx, assignmentCountsQuery, userID).Scan(&out.AssignedToUser, &out.Unassigned)
	return out, err
}

func (s *PGStore) Experts(ctx context.Context) ([]Expert, error) {
	rows, err := s.DB.QueryContext(ctx, expertsQuery)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Expert{}
	for rows.Next() {
		var e Expert
		if err := rows.Scan(&e.ID, &e.Username, &e.FullName); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *PGStore) DailyCounts(ctx context.Context, since time.Time) ([]DailyRow, error) {
	rows, err := s.DB.QueryContext(ctx, dailyCountsQuery, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []DailyRow{}
	for rows.Next() {
		var row DailyRow
		if err := rows.Scan(&row.Date, &row.Count, &row.Positive); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (s *PGStore) UserActivity(ctx context.Context) ([]ActivityRow, error) {
	rows, err := s.DB.QueryContext(ctx, userActivityQuery)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []ActivityRow{}
	for rows.Next() {
		var row ActivityRow
		if err := rows.Scan(
			&row.UserID,
			&row.Username,
			&row.FullName,
			&row.Annotations,
			&row.Completed,
			&row.Positive,
			&row.TimeSpentSeconds,
		); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (s *PGStore) DocumentActivity(ctx context.Context) ([]DocumentRow, error) {
	rows, err := s.DB.QueryContext(ctx, documentActivityQuery)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []DocumentRow{}
	for rows.Next() {
		var row DocumentRow
		if err := rows.Scan(&row.DocumentID, &row.Title, &row.Status, &row.Annotations, &row.Annotators); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
