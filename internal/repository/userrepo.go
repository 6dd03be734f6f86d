// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"

	"github.com/and161185/cadetcorps/internal/model"
	"github.com/gofrs/uuid/v5"
)

// UserRepository provides access to member accounts. It never writes total points;
// those belong to LedgerRepository.
type UserRepository interface {
	// Create inserts a new user.
	Create(ctx context.Context, u *model.User) error
	// GetByID loads a user by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	// GetByEmail loads a user by login email.
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	// List returns users filtered by role and status; empty filters match all.
	List(ctx context.Context, role model.Role, status model.Status) ([]model.User, error)
	// UpdateProfile overwrites editable profile fields.
	UpdateProfile(ctx context.Context, id uuid.UUID, p model.ProfileUpdate) error
	// SetStatus moves a member between active and alumni.
	SetStatus(ctx context.Context, id uuid.UUID, status model.Status) error
	// SetPassword replaces credentials and clears the must-change flag.
	SetPassword(ctx context.Context, id uuid.UUID, hash, salt []byte) error
	// CountActiveCadets returns the number of cadets with active status.
	CountActiveCadets(ctx context.Context) (int, error)
}
