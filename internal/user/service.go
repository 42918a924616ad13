// Package user implements the business operations over the users table:
// lookup, find-or-create, synchronization from identity provider events,
// and deletion. The service layer owns the branching; the repository stays
// pure data access.
package user

import (
	"context"

	"appstarter/internal/types"
)

// Repository is the data access contract the service depends on. Satisfied
// by db.UserRepository; tests substitute an in-memory fake.
type Repository interface {
	FindByExternalID(ctx context.Context, externalID string) (*types.User, error)
	Create(ctx context.Context, payload types.IdentityPayload) (*types.User, error)
	UpdateByExternalID(ctx context.Context, externalID string, payload types.IdentityPayload) (*types.User, error)
	DeleteByExternalID(ctx context.Context, externalID string) error
}

// Service is the user domain capability interface.
type Service interface {
	// GetByExternalID returns the user for the given external identity key,
	// or (nil, nil) when no user exists. Absence is a normal outcome here,
	// not an error.
	GetByExternalID(ctx context.Context, externalID string) (*types.User, error)

	// GetOrCreate returns the existing user for the payload's external key,
	// creating it when absent. A concurrent create racing this call is
	// resolved by retrying the lookup.
	GetOrCreate(ctx context.Context, payload types.IdentityPayload) (*types.User, error)

	// SyncFromIdentity upserts the user from an identity provider payload:
	// create when unseen, otherwise refresh email/name/avatar.
	SyncFromIdentity(ctx context.Context, payload types.IdentityPayload) (*types.User, error)

	// DeleteByExternalID removes the user; deleting an absent key succeeds.
	DeleteByExternalID(ctx context.Context, externalID string) error
}

// DefaultService is the production Service implementation.
type DefaultService struct {
	repo Repository
}

// NewService creates a user service over the given repository.
func NewService(repo Repository) *DefaultService {
	return &DefaultService{repo: repo}
}

func (s *DefaultService) GetByExternalID(ctx context.Context, externalID string) (*types.User, error) {
	u, err := s.repo.FindByExternalID(ctx, externalID)
	if err != nil {
		if types.IsCode(err, types.ErrCodeNotFoundUser) {
			return nil, nil
		}
		return nil, err
	}
	return u, nil
}

func (s *DefaultService) GetOrCreate(ctx context.Context, payload types.IdentityPayload) (*types.User, error) {
	existing, err := s.GetByExternalID(ctx, payload.ExternalID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	created, err := s.repo.Create(ctx, payload)
	if err != nil {
		// A racing concurrent insert hit the unique constraint first; the
		// row now exists, so resolve the race by reading it back.
		if types.IsCode(err, types.ErrCodeConflictExternalID) {
			return s.repo.FindByExternalID(ctx, payload.ExternalID)
		}
		return nil, err
	}
	return created, nil
}

func (s *DefaultService) SyncFromIdentity(ctx context.Context, payload types.IdentityPayload) (*types.User, error) {
	existing, err := s.GetByExternalID(ctx, payload.ExternalID)
	if err != nil {
		return nil, err
	}

	if existing == nil {
		return s.repo.Create(ctx, payload)
	}

	updated, err := s.repo.UpdateByExternalID(ctx, payload.ExternalID, payload)
	if err != nil {
		// The row was deleted between the lookup and the update. Return the
		// pre-update row rather than failing the sync; a later deletion
		// event wins regardless.
		if types.IsCode(err, types.ErrCodeNotFoundUser) {
			return existing, nil
		}
		return nil, err
	}
	return updated, nil
}

func (s *DefaultService) DeleteByExternalID(ctx context.Context, externalID string) error {
	return s.repo.DeleteByExternalID(ctx, externalID)
}
