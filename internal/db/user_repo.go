package db

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"appstarter/internal/types"
)

// UserRepository provides data access for the users table. It is pure data
// access: no branching business logic lives here, only row <-> struct
// plumbing and error translation.
type UserRepository struct {
	db DBTX
}

// NewUserRepository creates a new UserRepository backed by the given
// database connection (pool or transaction).
func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

// userColumns defines the standard set of columns selected for user queries.
// Used consistently across all query methods to avoid column drift.
const userColumns = `id, external_id, email, name, avatar_url, created_at, updated_at`

// scanUser scans a single user row into a types.User struct. The columns
// must match the order defined in userColumns. Name and avatar_url may be
// NULL in the database.
func scanUser(row pgx.Row) (*types.User, error) {
	var u types.User
	var (
		name      *string
		avatarURL *string
	)
	err := row.Scan(
		&u.ID,
		&u.ExternalID,
		&u.Email,
		&name,
		&avatarURL,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if name != nil {
		u.Name = *name
	}
	if avatarURL != nil {
		u.AvatarURL = *avatarURL
	}
	return &u, nil
}

// FindByExternalID retrieves a user by the identity provider's external key.
// Returns ErrCodeNotFoundUser when no row matches; callers for whom absence
// is normal translate that into a nil result.
func (r *UserRepository) FindByExternalID(ctx context.Context, externalID string) (*types.User, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE external_id = $1`,
		externalID,
	)

	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.NewAppError(types.ErrCodeNotFoundUser, "user not found", nil)
		}
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to retrieve user", err)
	}
	return u, nil
}

// Create inserts a new user row and returns it as stored. A concurrent
// insert for the same external key surfaces as ErrCodeConflictExternalID
// (unique constraint on external_id); the caller may retry as a lookup.
func (r *UserRepository) Create(ctx context.Context, payload types.IdentityPayload) (*types.User, error) {
	row := r.db.QueryRow(ctx,
		`INSERT INTO users (id, external_id, email, name, avatar_url)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+userColumns,
		uuid.NewString(),
		payload.ExternalID,
		payload.Email,
		nilIfEmpty(payload.Name),
		nilIfEmpty(payload.AvatarURL),
	)

	u, err := scanUser(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, types.NewAppError(types.ErrCodeConflictExternalID, "user already exists", err)
		}
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to create user", err)
	}
	return u, nil
}

// UpdateByExternalID updates the mutable fields (email, name, avatar_url)
// of the user with the given external key and refreshes updated_at.
// Returns ErrCodeNotFoundUser when no row matches.
func (r *UserRepository) UpdateByExternalID(ctx context.Context, externalID string, payload types.IdentityPayload) (*types.User, error) {
	row := r.db.QueryRow(ctx,
		`UPDATE users
		 SET email = $1, name = $2, avatar_url = $3, updated_at = NOW()
		 WHERE external_id = $4
		 RETURNING `+userColumns,
		payload.Email,
		nilIfEmpty(payload.Name),
		nilIfEmpty(payload.AvatarURL),
		externalID,
	)

	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.NewAppError(types.ErrCodeNotFoundUser, "user not found", nil)
		}
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to update user", err)
	}
	return u, nil
}

// DeleteByExternalID physically removes the user with the given external
// key. Deleting a non-existent key is not an error.
func (r *UserRepository) DeleteByExternalID(ctx context.Context, externalID string) error {
	_, err := r.db.Exec(ctx,
		`DELETE FROM users WHERE external_id = $1`,
		externalID,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to delete user", err)
	}
	return nil
}

// CountUsers returns the total number of user rows. Used by the stats
// snapshot.
func (r *UserRepository) CountUsers(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	if err != nil {
		return 0, types.NewAppError(types.ErrCodeInternalDB, "failed to count users", err)
	}
	return count, nil
}
