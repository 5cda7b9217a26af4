package annotations

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"annotation-backend/internal/access"
	"annotation-backend/internal/events"
	"annotation-backend/internal/shared/apperr"
	"annotation-backend/internal/shared/metrics"
	"annotation-backend/internal/shared/telemetry"
)

var (
	ErrNotPermitted = fmt.Errorf("%w: document is assigned to another user", apperr.ErrForbidden)
	ErrAdminOnly    = fmt.Errorf("%w: admin role required", apperr.ErrForbidden)
)

type Service struct {
	Repo      Repo
	Documents DocumentGateway
	Events    events.Publisher

	locks keyedMutex
}

// Submit creates or merges the actor's annotation for a document and
// recomputes the document status in the same unit of work.
func (s *Service) Submit(ctx context.Context, actor access.Actor, documentID string, in Input) (Annotation, Transition, error) {
	if strings.TrimSpace(actor.UserID) == "" {
		return Annotation{}, Transition{}, fmt.Errorf("%w: missing identity", apperr.ErrForbidden)
	}
	if err := in.Validate(); err != nil {
		return Annotation{}, Transition{}, err
	}

	authorize := func(ref DocumentRef) error {
		if !access.CanAccess(ref.AssignedTo, actor) {
			return ErrNotPermitted
		}
		return nil
	}

	var (
		annotation Annotation
		transition Transition
		err        error
	)
	if tx, ok := s.Repo.(TxSubmitter); ok {
		annotation, transition, err = tx.SubmitAndReconcile(ctx, documentID, actor.UserID, in, authorize)
	} else {
		annotation, transition, err = s.submitSerialized(ctx, documentID, actor.UserID, in, authorize)
	}
	if err != nil {
		return Annotation{}, Transition{}, err
	}

	metrics.IncAnnotationsSubmitted()
	metrics.ObserveAnnotationTimeSpent(float64(in.TimeSpent))
	telemetry.Info("annotation.submitted", map[string]any{
		"document_id":       documentID,
		"annotator_id":      actor.UserID,
		"annotation_id":     annotation.ID,
		"time_spent_total":  annotation.TimeSpent,
		"is_completed":      annotation.IsCompleted,
		"status_transition": transition.String(),
	})

	evt := events.New(events.TypeAnnotationSubmitted, documentID, actor.UserID)
	evt.Status = transition.To
	evt.TimeSpent = in.TimeSpent
	events.PublishBestEffort(ctx, s.Events, evt)

	return annotation, transition, nil
}

// submitSerialized is the non-transactional path: submissions for the same
// document run one at a time so reconciliation always sees the latest rows.
func (s *Service) submitSerialized(ctx context.Context, documentID, annotatorID string, in Input, authorize func(DocumentRef) error) (Annotation, Transition, error) {
	unlock := s.locks.lock(documentID)
	defer unlock()

	ref, err := s.Documents.Lookup(ctx, documentID)
	if err != nil {
		return Annotation{}, Transition{}, err
	}
	if err := authorize(ref); err != nil {
		return Annotation{}, Transition{}, err
	}

	annotation, err := s.Repo.Upsert(ctx, documentID, annotatorID, in)
	if err != nil {
		return Annotation{}, Transition{}, err
	}

	reconciler := Reconciler{Repo: s.Repo, Documents: s.Documents}
	status, err := reconciler.Reconcile(ctx, documentID)
	if err != nil {
		return Annotation{}, Transition{}, err
	}
	return annotation, Transition{From: ref.Status, To: status}, nil
}

// GetOwn returns the actor's annotation for a document. found is false when
// the actor has not annotated it yet.
func (s *Service) GetOwn(ctx context.Context, actor access.Actor, documentID string) (annotation Annotation, found bool, err error) {
	ref, err := s.Documents.Lookup(ctx, documentID)
	if err != nil {
		return Annotation{}, false, err
	}
	if !access.CanAccess(ref.AssignedTo, actor) {
		return Annotation{}, false, ErrNotPermitted
	}
	annotation, err = s.Repo.Get(ctx, documentID, actor.UserID)
	if errors.Is(err, ErrNotFound) {
		return Annotation{}, false, nil
	}
	if err != nil {
		return Annotation{}, false, err
	}
	return annotation, true, nil
}

// ListForDocument returns every annotation on a document. Admin only.
func (s *Service) ListForDocument(ctx context.Context, actor access.Actor, documentID string) ([]Annotation, error) {
	if !access.IsAdmin(actor) {
		return nil, ErrAdminOnly
	}
	if _, err := s.Documents.Lookup(ctx, documentID); err != nil {
		return nil, err
	}
	return s.Repo.ListByDocument(ctx, documentID)
}

// Reconcile recomputes a single document's status. It is serialized with
// submissions for the same document.
func (s *Service) Reconcile(ctx context.Context, documentID string) (string, error) {
	if tx, ok := s.Repo.(TxReconciler); ok {
		return tx.ReconcileLocked(ctx, documentID)
	}
	unlock := s.locks.lock(documentID)
	defer unlock()

	r := Reconciler{Repo: s.Repo, Documents: s.Documents}
	return r.Reconcile(ctx, documentID)
}

// keyedMutex hands out one mutex per key. Entries are dropped once no
// goroutine holds or waits on them.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*refMutex)
	}
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

func (k *keyedMutex) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
