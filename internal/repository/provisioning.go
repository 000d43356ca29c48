// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"

	"github.com/and161185/supermock-admin/internal/model"
	"github.com/gofrs/uuid/v5"
)

// AuthAdmin manages identities in the hosted auth service with service privileges.
type AuthAdmin interface {
	// CreateUser creates an identity with a pre-confirmed email; errs.ErrAlreadyExists if the email is registered.
	CreateUser(ctx context.Context, u model.NewAuthUser) (model.AuthUser, error)
	// DeleteUser removes an identity.
	DeleteUser(ctx context.Context, id uuid.UUID) error
}

// ProfileRepository provides access to application profiles and auth identity lookup.
type ProfileRepository interface {
	// FindByEmail loads a profile by normalized email; errs.ErrNotFound if absent.
	FindByEmail(ctx context.Context, email string) (*model.Profile, error)
	// Upsert inserts the profile unless one with the same id exists; created reports an insert.
	Upsert(ctx context.Context, p model.Profile) (created bool, err error)
	// Delete removes a profile by id.
	Delete(ctx context.Context, id uuid.UUID) error
	// AuthUserByEmail resolves an auth identity that has no profile; errs.ErrNotFound if absent.
	AuthUserByEmail(ctx context.Context, email string) (*model.AuthUser, error)
}

// CenterRepository answers authorization questions and manages staff memberships.
type CenterRepository interface {
	// IsOwner reports whether userID owns centerID.
	IsOwner(ctx context.Context, centerID, userID uuid.UUID) (bool, error)
	// IsMember reports whether userID has a membership in centerID.
	IsMember(ctx context.Context, centerID, userID uuid.UUID) (bool, error)
	// CreateMembership inserts a membership; errs.ErrAlreadyExists on (center, user) conflict.
	CreateMembership(ctx context.Context, m model.Membership) (model.Membership, error)
}

// StudentRepository stores student profiles.
type StudentRepository interface {
	// Create inserts a student; errs.ErrAlreadyExists on unique conflict.
	Create(ctx context.Context, s model.StudentProfile) (model.StudentProfile, error)
}
