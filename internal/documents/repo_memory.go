package documents

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	docs map[string]Document
	now  func() time.Time
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		docs: make(map[string]Document),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func (r *MemoryRepo) Create(ctx context.Context, doc Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = r.now()
	}
	doc.UpdatedAt = doc.CreatedAt
	r.docs[doc.ID] = copyDocument(doc)
	return nil
}

func (r *MemoryRepo) Get(ctx context.Context, documentID string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.docs[documentID]
	if !ok {
		return Document{}, ErrNotFound
	}
	return copyDocument(doc), nil
}

func (r *MemoryRepo) GetByTitle(ctx context.Context, title string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var found *Document
	for _, doc := range r.docs {
		if doc.Title != title {
			continue
		}
		if found == nil || less(doc, *found) {
			d := doc
			found = &d
		}
	}
	if found == nil {
		return Document{}, ErrNotFound
	}
	return copyDocument(*found), nil
}

func (r *MemoryRepo) List(ctx context.Context, filter ListFilter, limit, offset int) ([]Document, error) {
	all, err := r.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	visible := all[:0]
	for _, doc := range all {
		if filter.VisibleTo != "" && doc.AssignedTo != nil && *doc.AssignedTo != filter.VisibleTo {
			continue
		}
		visible = append(visible, doc)
	}
	if offset >= len(visible) {
		return []Document{}, nil
	}
	visible = visible[offset:]
	if limit > 0 && limit < len(visible) {
		visible = visible[:limit]
	}
	return visible, nil
}

func (r *MemoryRepo) ListAll(ctx context.Context) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Document, 0, len(r.docs))
	for _, doc := range r.docs {
		out = append(out, copyDocument(doc))
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out, nil
}

func (r *MemoryRepo) UpdateContent(ctx context.Context, doc Document) error {
	return r.mutate(ctx, doc.ID, func(existing *Document) {
		existing.Title = doc.Title
		existing.SourceContent = doc.SourceContent
		existing.GeneratedContent = doc.GeneratedContent
		existing.WordCountSource = doc.WordCountSource
		existing.WordCountGenerated = doc.WordCountGenerated
		existing.SourceObjectKey = copyString(doc.SourceObjectKey)
		existing.GeneratedObjectKey = copyString(doc.GeneratedObjectKey)
		existing.AssignedTo = copyString(doc.AssignedTo)
	})
}

func (r *MemoryRepo) SetAssignee(ctx context.Context, documentID string, assignedTo *string) error {
	return r.mutate(ctx, documentID, func(existing *Document) {
		existing.AssignedTo = copyString(assignedTo)
	})
}

func (r *MemoryRepo) ClaimIfUnassigned(ctx context.Context, documentID, userID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[documentID]
	if !ok {
		return false, ErrNotFound
	}
	if doc.AssignedTo != nil {
		return false, nil
	}
	doc.AssignedTo = &userID
	doc.UpdatedAt = r.now()
	r.docs[documentID] = doc
	return true, nil
}

func (r *MemoryRepo) SetStatus(ctx context.Context, documentID, status string) error {
	return r.mutate(ctx, documentID, func(existing *Document) {
		existing.Status = status
	})
}

func (r *MemoryRepo) mutate(ctx context.Context, documentID string, apply func(*Document)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[documentID]
	if !ok {
		return ErrNotFound
	}
	apply(&doc)
	doc.UpdatedAt = r.now()
	r.docs[documentID] = doc
	return nil
}

func less(a, b Document) bool {
	if a.CreatedAt.Equal(b.CreatedAt) {
		return a.ID < b.ID
	}
	return a.CreatedAt.Before(b.CreatedAt)
}

func copyDocument(doc Document) Document {
	doc.AssignedTo = copyString(doc.AssignedTo)
	doc.SourceObjectKey = copyString(doc.SourceObjectKey)
	doc.GeneratedObjectKey = copyString(doc.GeneratedObjectKey)
	return doc
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
