package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"annotation-backend/internal/access"
	"annotation-backend/internal/shared/apperr"
)

var errNotConfigured = errors.New("users service not configured")

type Service struct {
	Repo Repo
}

func NewService(repo Repo) *Service {
	return &Service{Repo: repo}
}

// Register validates and stores a user record, assigning an id when missing.
func (s *Service) Register(ctx context.Context, user User) (User, error) {
	if s == nil || s.Repo == nil {
		return User{}, errNotConfigured
	}
	user.Username = strings.TrimSpace(user.Username)
	user.Role = access.NormalizeRole(user.Role)
	if user.Username == "" {
		return User{}, fmt.Errorf("%w: username is required", apperr.ErrInvalidInput)
	}
	if !access.ValidRole(user.Role) {
		return User{}, fmt.Errorf("%w: role must be admin or expert", apperr.ErrInvalidInput)
	}
	if strings.TrimSpace(user.ID) == "" {
		user.ID = uuid.NewString()
	}
	if err := s.Repo.Upsert(ctx, user); err != nil {
		return User{}, err
	}
	return s.Repo.GetByID(ctx, user.ID)
}

func (s *Service) GetByID(ctx context.Context, userID string) (User, error) {
	if s == nil || s.Repo == nil {
		return User{}, errNotConfigured
	}
	if strings.TrimSpace(userID) == "" {
		return User{}, fmt.Errorf("%w: user id is required", apperr.ErrInvalidInput)
	}
	return s.Repo.GetByID(ctx, userID)
}

func (s *Service) GetByUsername(ctx context.Context, username string) (User, error) {
	if s == nil || s.Repo == nil {
		return User{}, errNotConfigured
	}
	return s.Repo.GetByUsername(ctx, strings.TrimSpace(username))
}

// ListExperts returns every expert account. Only admins may list users.
func (s *Service) ListExperts(ctx context.Context, actor access.Actor) ([]User, error) {
	if s == nil || s.Repo == nil {
		return nil, errNotConfigured
	}
	if !access.IsAdmin(actor) {
		return nil, fmt.Errorf("%w: admin role required", apperr.ErrForbidden)
	}
	return s.Repo.ListByRole(ctx, access.RoleExpert)
}

var (
	ErrTargetNotFound  = fmt.Errorf("%w: target user not found", apperr.ErrInvalidInput)
	ErrTargetNotExpert = fmt.Errorf("%w: target user is not an expert", apperr.ErrInvalidInput)
)

// RequireExpert resolves a user who is about to receive a document.
func (s *Service) RequireExpert(ctx context.Context, userID string) (User, error) {
	if s == nil || s.Repo == nil {
		return User{}, errNotConfigured
	}
	user, err := s.Repo.GetByID(ctx, strings.TrimSpace(userID))
	if errors.Is(err, ErrNotFound) {
		return User{}, ErrTargetNotFound
	}
	if err != nil {
		return User{}, err
	}
	if user.Role != access.RoleExpert {
		return User{}, ErrTargetNotExpert
	}
	return user, nil
}
