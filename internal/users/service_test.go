package users

import (
	"context"
	"errors"
	"testing"

	"annotation-backend/internal/access"
	"annotation-backend/internal/shared/apperr"
)

func TestRegisterValidatesAndAssignsID(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	ctx := context.Background()

	user, err := svc.Register(ctx, User{Username: " alice ", Role: "Expert", IsActive: true})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.ID == "" || user.Username != "alice" || user.Role != access.RoleExpert {
		t.Fatalf("unexpected user: %+v", user)
	}
	if user.CreatedAt.IsZero() {
		t.Fatalf("expected created_at to be set")
	}

	if _, err := svc.Register(ctx, User{Username: "bob", Role: "guest"}); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Fatalf("expected invalid input for unknown role, got %v", err)
	}
	if _, err := svc.Register(ctx, User{Role: access.RoleExpert}); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Fatalf("expected invalid input for empty username, got %v", err)
	}
	if _, err := svc.Register(ctx, User{Username: "alice", Role: access.RoleAdmin}); !errors.Is(err, ErrDuplicateUsername) {
		t.Fatalf("expected duplicate username, got %v", err)
	}
}

func TestListExpertsRequiresAdmin(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()
	for _, u := range []User{
		{ID: "u-2", Username: "zoe", Role: access.RoleExpert},
		{ID: "u-1", Username: "amy", Role: access.RoleExpert},
		{ID: "u-0", Username: "root", Role: access.RoleAdmin},
	} {
		if err := repo.Upsert(ctx, u); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	if _, err := svc.ListExperts(ctx, access.Actor{UserID: "u-1", Role: access.RoleExpert}); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}

	experts, err := svc.ListExperts(ctx, access.Actor{UserID: "u-0", Role: access.RoleAdmin})
	if err != nil {
		t.Fatalf("ListExperts: %v", err)
	}
	if len(experts) != 2 || experts[0].Username != "amy" || experts[1].Username != "zoe" {
		t.Fatalf("unexpected experts: %+v", experts)
	}
}

func TestGetByIDNotFound(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	if _, err := svc.GetByID(context.Background(), "missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found kind, got %v", err)
	}
}

func TestRequireExpert(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	ctx := context.Background()

	expert, err := svc.Register(ctx, User{Username: "expert1", Role: access.RoleExpert})
	if err != nil {
		t.Fatalf("Register expert: %v", err)
	}
	admin, err := svc.Register(ctx, User{Username: "admin", Role: access.RoleAdmin})
	if err != nil {
		t.Fatalf("Register admin: %v", err)
	}

	if got, err := svc.RequireExpert(ctx, expert.ID); err != nil || got.ID != expert.ID {
		t.Fatalf("expected expert, got %+v, %v", got, err)
	}
	if _, err := svc.RequireExpert(ctx, admin.ID); !errors.Is(err, ErrTargetNotExpert) || !errors.Is(err, apperr.ErrInvalidInput) {
		t.Fatalf("expected not-expert validation error, got %v", err)
	}
	if _, err := svc.RequireExpert(ctx, "missing"); !errors.Is(err, ErrTargetNotFound) || !errors.Is(err, apperr.ErrInvalidInput) {
		t.Fatalf("expected not-found validation error, got %v", err)
	}
}
