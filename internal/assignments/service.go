// Package assignments moves documents between expert annotators.
package assignments

import (
	"context"
	"fmt"
	"strings"

	"annotation-backend/internal/access"
	"annotation-backend/internal/documents"
	"annotation-backend/internal/events"
	"annotation-backend/internal/shared/apperr"
	"annotation-backend/internal/shared/metrics"
	"annotation-backend/internal/shared/telemetry"
)

var (
	ErrAdminOnly  = fmt.Errorf("%w: admin role required", apperr.ErrForbidden)
	ErrExpertOnly = fmt.Errorf("%w: only experts can claim documents", apperr.ErrForbidden)
)

// Service is the assignment manager. It is the only writer of assigned_to
// outside of document creation and import.
type Service struct {
	Documents documents.Repo
	Users     documents.ExpertResolver
	Events    events.Publisher
}

// Assign sets or clears a document's assignee. A nil target clears it.
// Previous assignees keep their annotations.
func (s *Service) Assign(ctx context.Context, actor access.Actor, documentID string, target *string) (documents.Document, error) {
	if !access.IsAdmin(actor) {
		return documents.Document{}, ErrAdminOnly
	}
	doc, err := s.Documents.Get(ctx, documentID)
	if err != nil {
		return documents.Document{}, err
	}

	var assignedTo *string
	if target != nil {
		id := strings.TrimSpace(*target)
		if id == "" {
			return documents.Document{}, fmt.Errorf("%w: target user not found", apperr.ErrInvalidInput)
		}
		user, err := s.Users.RequireExpert(ctx, id)
		if err != nil {
			return documents.Document{}, err
		}
		assignedTo = &user.ID
	}

	if err := s.Documents.SetAssignee(ctx, documentID, assignedTo); err != nil {
		return documents.Document{}, err
	}

	metrics.IncAssignments()
	telemetry.Info("document.assigned", map[string]any{
		"document_id": documentID,
		"actor_id":    actor.UserID,
		"previous":    valueOf(doc.AssignedTo),
		"assigned_to": valueOf(assignedTo),
		"cleared":     assignedTo == nil,
	})
	evt := events.New(events.TypeDocumentAssigned, documentID, actor.UserID)
	evt.AssignedTo = assignedTo
	events.PublishBestEffort(ctx, s.Events, evt)

	return s.Documents.Get(ctx, documentID)
}

// Claim assigns an unassigned document to the calling expert. The first
// claimant wins; any later claim, including a repeat by the holder, conflicts.
func (s *Service) Claim(ctx context.Context, actor access.Actor, documentID string) (documents.Document, error) {
	if !access.IsExpert(actor) || strings.TrimSpace(actor.UserID) == "" {
		return documents.Document{}, ErrExpertOnly
	}

	won, err := s.Documents.ClaimIfUnassigned(ctx, documentID, actor.UserID)
	if err != nil {
		return documents.Document{}, err
	}
	if !won {
		metrics.IncClaimConflicts()
		telemetry.Warn("document.claim_conflict", map[string]any{
			"document_id": documentID,
			"actor_id":    actor.UserID,
		})
		return documents.Document{}, documents.ErrAlreadyAssigned
	}

	metrics.IncClaims()
	telemetry.Info("document.claimed", map[string]any{
		"document_id": documentID,
		"actor_id":    actor.UserID,
	})
	evt := events.New(events.TypeDocumentClaimed, documentID, actor.UserID)
	evt.AssignedTo = &actor.UserID
	events.PublishBestEffort(ctx, s.Events, evt)

	return s.Documents.Get(ctx, documentID)
}

func valueOf(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
