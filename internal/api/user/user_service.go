package user

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/gritfit/gritfit-api/internal/types"
)

var _ UserService = (*UserServiceImpl)(nil)

// UserService defines the business logic contract for user operations.
type UserService interface {
	// SyncFromClerk applies a user.created/user.updated identity event.
	SyncFromClerk(ctx context.Context, event types.ClerkEvent) (*types.User, error)
	GetUser(ctx context.Context, userID uuid.UUID) (*types.User, error)
	GetUserByClerkID(ctx context.Context, clerkID string) (*types.User, error)
	ListUsers(ctx context.Context) ([]types.User, error)
	UpdateUserRole(ctx context.Context, userID uuid.UUID, role types.UserRole) error
}

type UserServiceImpl struct {
	logger *slog.Logger
	repo   UserRepo
}

func NewUserService(repo UserRepo, logger *slog.Logger) *UserServiceImpl {
	return &UserServiceImpl{
		logger: logger,
		repo:   repo,
	}
}

func (s *UserServiceImpl) SyncFromClerk(ctx context.Context, event types.ClerkEvent) (*types.User, error) {
	l := s.logger.With(slog.String("method", "SyncFromClerk"), slog.String("event_type", event.Type))

	if event.Data.ID == "" {
		return nil, fmt.Errorf("%w: clerk event missing subject id", types.ErrValidation)
	}
	if len(event.Data.EmailAddresses) == 0 {
		return nil, fmt.Errorf("%w: clerk event missing email address", types.ErrValidation)
	}

	params := types.SyncUserParams{
		ClerkID:  event.Data.ID,
		Email:    event.Data.EmailAddresses[0].EmailAddress,
		ImageURL: event.Data.ImageURL,
	}
	if name := joinName(event.Data.FirstName, event.Data.LastName); name != "" {
		params.Name = &name
	}

	u, err := s.repo.UpsertByClerkID(ctx, params)
	if err != nil {
		l.ErrorContext(ctx, "Failed to upsert user from clerk event", slog.Any("error", err))
		return nil, fmt.Errorf("syncing user from clerk: %w", err)
	}
	l.InfoContext(ctx, "Synced user from identity provider", slog.String("clerk_id", params.ClerkID))
	return u, nil
}

func joinName(first, last *string) string {
	var parts []string
	if first != nil && *first != "" {
		parts = append(parts, *first)
	}
	if last != nil && *last != "" {
		parts = append(parts, *last)
	}
	return strings.Join(parts, " ")
}

func (s *UserServiceImpl) GetUser(ctx context.Context, userID uuid.UUID) (*types.User, error) {
	return s.repo.GetByID(ctx, userID)
}

func (s *UserServiceImpl) GetUserByClerkID(ctx context.Context, clerkID string) (*types.User, error) {
	return s.repo.GetByClerkID(ctx, clerkID)
}

func (s *UserServiceImpl) ListUsers(ctx context.Context) ([]types.User, error) {
	return s.repo.List(ctx)
}

func (s *UserServiceImpl) UpdateUserRole(ctx context.Context, userID uuid.UUID, role types.UserRole) error {
	switch role {
	case types.RoleAdmin, types.RoleTrainer, types.RoleUser:
	default:
		return fmt.Errorf("%w: unknown role %q", types.ErrValidation, role)
	}
	return s.repo.UpdateRole(ctx, userID, role)
}
