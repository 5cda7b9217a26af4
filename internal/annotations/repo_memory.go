package annotations

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryKey struct {
	documentID  string
	annotatorID string
}

type MemoryRepo struct {
	mu   sync.RWMutex
	rows map[memoryKey]Annotation
	now  func() time.Time
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		rows: make(map[memoryKey]Annotation),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func (r *MemoryRepo) Upsert(ctx context.Context, documentID, annotatorID string, in Input) (Annotation, error) {
	if err := ctx.Err(); err != nil {
		return Annotation{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	key := memoryKey{documentID: documentID, annotatorID: annotatorID}
	row, ok := r.rows[key]
	if ok {
		row.Evaluation = in.Evaluation
		row.Comments = cloneComments(in.Comments)
		row.TimeSpent += in.TimeSpent
		row.IsCompleted = in.IsCompleted
		row.UpdatedAt = now
	} else {
		row = Annotation{
			ID:          uuid.NewString(),
			DocumentID:  documentID,
			AnnotatorID: annotatorID,
			Evaluation:  in.Evaluation,
			Comments:    cloneComments(in.Comments),
			TimeSpent:   in.TimeSpent,
			IsCompleted: in.IsCompleted,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
	}
	r.rows[key] = row
	return copyAnnotation(row), nil
}

func (r *MemoryRepo) Get(ctx context.Context, documentID, annotatorID string) (Annotation, error) {
	if err := ctx.Err(); err != nil {
		return Annotation{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	row, ok := r.rows[memoryKey{documentID: documentID, annotatorID: annotatorID}]
	if !ok {
		return Annotation{}, ErrNotFound
	}
	return copyAnnotation(row), nil
}

func (r *MemoryRepo) ListByDocument(ctx context.Context, documentID string) ([]Annotation, error) {
	return r.filter(ctx, func(a Annotation) bool { return a.DocumentID == documentID })
}

func (r *MemoryRepo) ListByAnnotator(ctx context.Context, annotatorID string) ([]Annotation, error) {
	return r.filter(ctx, func(a Annotation) bool { return a.AnnotatorID == annotatorID })
}

func (r *MemoryRepo) ListAll(ctx context.Context) ([]Annotation, error) {
	return r.filter(ctx, func(Annotation) bool { return true })
}

func (r *MemoryRepo) Counts(ctx context.Context, documentID string) (int, int, error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	total, completed := 0, 0
	for key, row := range r.rows {
		if key.documentID != documentID {
			continue
		}
		total++
		if row.IsCompleted {
			completed++
		}
	}
	return total, completed, nil
}

func (r *MemoryRepo) filter(ctx context.Context, keep func(Annotation) bool) ([]Annotation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Annotation, 0)
	for _, row := range r.rows {
		if keep(row) {
			out = append(out, copyAnnotation(row))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func copyAnnotation(a Annotation) Annotation {
	a.Comments = cloneComments(a.Comments)
	return a
}
