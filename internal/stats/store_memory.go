package stats

import (
	"context"
	"sort"
	"time"

	"annotation-backend/internal/access"
	"annotation-backend/internal/annotations"
	"annotation-backend/internal/documents"
	"annotation-backend/internal/users"
)

// MemoryStore computes rollups by scanning the in-memory repositories.
type MemoryStore struct {
	Documents   documents.Repo
	Annotations annotations.Repo
	Users       users.Repo
}

func (s *MemoryStore) DocumentCounts(ctx context.Context) (DocumentCounts, error) {
	docs, err := s.Documents.ListAll(ctx)
	if err != nil {
		return DocumentCounts{}, err
	}
	all, err := s.Annotations.ListAll(ctx)
	if err != nil {
		return DocumentCounts{}, err
	}
	annotated := map[string]bool{}
	for _, a := range all {
		if a.IsCompleted {
			annotated[a.DocumentID] = true
		}
	}

	var out DocumentCounts
	for _, doc := range docs {
		out.Total++
		if annotated[doc.ID] {
			out.Annotated++
		}
		switch doc.Status {
		case annotations.StatusPending:
			out.Pending++
		case annotations.StatusInProgress:
			out.InProgress++
		case annotations.StatusCompleted:
			out.Completed++
		}
	}
	return out, nil
}

func (s *MemoryStore) AnnotationTotals(ctx context.Context, filter AnnotationFilter) (AnnotationTotals, error) {
	all, err := s.Annotations.ListAll(ctx)
	if err != nil {
		return AnnotationTotals{}, err
	}
	var out AnnotationTotals
	for _, a := range all {
		if filter.AnnotatorID != "" && a.AnnotatorID != filter.AnnotatorID {
			continue
		}
		if !filter.Since.IsZero() && a.CreatedAt.Before(filter.Since) {
			continue
		}
		out.Total++
		out.TimeSpentSeconds += a.TimeSpent
		if a.Evaluation {
			out.Positive++
		}
		if a.IsCompleted {
			out.Completed++
			if a.Evaluation {
				out.CompletedPositive++
			}
		} else {
			out.InProgress++
			if a.Evaluation {
				out.InProgressPositive++
			}
		}
	}
	return out, nil
}

func (s *MemoryStore) AssignmentCounts(ctx context.Context, userID string) (AssignmentCounts, error) {
	docs, err := s.Documents.ListAll(ctx)
	if err != nil {
		return AssignmentCounts{}, err
	}
	var out AssignmentCounts
	for _, doc := range docs {
		switch {
		case doc.AssignedTo == nil:
			out.Unassigned++
		case *doc.AssignedTo == userID:
			out.AssignedToUser++
		}
	}
	return out, nil
}

func (s *MemoryStore) Experts(ctx context.Context) ([]Expert, error) {
	list, err := s.Users.ListByRole(ctx, access.RoleExpert)
	if err != nil {
		return nil, err
	}
	out := make([]Expert, 0, len(list))
	for _, u := range list {
		out = append(out, Expert{ID: u.ID, Username: u.Username, FullName: u.FullName})
	}
	return out, nil
}

func (s *MemoryStore) DailyCounts(ctx context.Context, since time.Time) ([]DailyRow, error) {
	all, err := s.Annotations.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	buckets := map[string]*DailyRow{}
	for _, a := range all {
		if a.CreatedAt.Before(since) {
			continue
		}
		date := a.CreatedAt.UTC().Format(time.DateOnly)
		row, ok := buckets[date]
		if !ok {
			row = &DailyRow{Date: date}
			buckets[date] = row
		}
		row.Count++
		if a.Evaluation {
			row.Positive++
		}
	}
	out := make([]DailyRow, 0, len(buckets))
	for _, row := range buckets {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

func (s *MemoryStore) UserActivity(ctx context.Context) ([]ActivityRow, error) {
	experts, err := s.Experts(ctx)
	if err != nil {
		return nil, err
	}
	all, err := s.Annotations.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	byUser := map[string]*ActivityRow{}
	for _, e := range experts {
		byUser[e.ID] = &ActivityRow{UserID: e.ID, Username: e.Username, FullName: e.FullName}
	}
	for _, a := range all {
		row, ok := byUser[a.AnnotatorID]
		if !ok {
			continue
		}
		row.Annotations++
		row.TimeSpentSeconds += a.TimeSpent
		if a.IsCompleted {
			row.Completed++
		}
		if a.Evaluation {
			row.Positive++
		}
	}
	out := []ActivityRow{}
	for _, e := range experts {
		if row := byUser[e.ID]; row.Annotations > 0 {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (s *MemoryStore) DocumentActivity(ctx context.Context) ([]DocumentRow, error) {
	docs, err := s.Documents.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]DocumentRow, 0, len(docs))
	for _, doc := range docs {
		list, err := s.Annotations.ListByDocument(ctx, doc.ID)
		if err != nil {
			return nil, err
		}
		annotators := map[string]struct{}{}
		for _, a := range list {
			annotators[a.AnnotatorID] = struct{}{}
		}
		out = append(out, DocumentRow{
			DocumentID:  doc.ID,
			Title:       doc.Title,
			Status:      doc.Status,
			Annotations: len(list),
			Annotators:  len(annotators),
		})
	}
	return out, nil
}
