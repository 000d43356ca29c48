// Package model defines domain entities used by services and repositories.
package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// Principal is the authenticated caller, read from a verified session token.
type Principal struct {
	ID             uuid.UUID
	Email          string
	EmailConfirmed bool
}

// Role is a staff role inside a center.
type Role string

// Staff roles accepted by member provisioning.
const (
	RoleAdmin    Role = "admin"
	RoleExaminer Role = "examiner"
)

// EnrollmentType classifies a student's enrollment.
type EnrollmentType string

// Enrollment types; EnrollmentRegular is the default.
const (
	EnrollmentRegular  EnrollmentType = "regular"
	EnrollmentMockOnly EnrollmentType = "mock_only"
	EnrollmentVisitor  EnrollmentType = "visitor"
)

// MemberRequest is a sanitized staff provisioning request.
type MemberRequest struct {
	FullName string    `json:"full_name" validate:"required,max=255"`
	Email    string    `json:"email" validate:"required,smemail"`
	Password string    `json:"password" validate:"required,max=72,staffpwd"`
	CenterID uuid.UUID `json:"center_id" validate:"required"`
	Role     Role      `json:"role" validate:"required,oneof=admin examiner"`
}

// StudentRequest is a sanitized student provisioning request. Optional fields are nil when absent.
type StudentRequest struct {
	Name           string         `json:"name" validate:"required,max=255"`
	Email          string         `json:"email" validate:"required,smemail"`
	Password       string         `json:"password" validate:"required,max=72,studentpin"`
	CenterID       uuid.UUID      `json:"center_id" validate:"required"`
	Phone          *string        `json:"phone" validate:"omitempty,max=32"`
	Guardian       *string        `json:"guardian" validate:"omitempty,max=255"`
	GuardianPhone  *string        `json:"guardian_phone" validate:"omitempty,max=32"`
	DateOfBirth    *string        `json:"date_of_birth" validate:"omitempty,isodate"`
	Address        *string        `json:"address" validate:"omitempty,max=500"`
	EnrollmentType EnrollmentType `json:"enrollment_type" validate:"oneof=regular mock_only visitor"`
}

// AuthUser is an identity in the hosted auth service.
type AuthUser struct {
	ID               uuid.UUID  `json:"id"`
	Email            string     `json:"email"`
	EmailConfirmedAt *time.Time `json:"email_confirmed_at"`
}

// Confirmed reports whether the identity's email is verified.
func (u AuthUser) Confirmed() bool { return u.EmailConfirmedAt != nil && !u.EmailConfirmedAt.IsZero() }

// NewAuthUser is the payload for creating an identity with a pre-confirmed email.
type NewAuthUser struct {
	Email    string
	Password string
	Metadata map[string]any
}

// Profile is the application-level record for an auth identity.
type Profile struct {
	ID       uuid.UUID `json:"id"`
	Email    string    `json:"email"`
	FullName string    `json:"full_name"`
}

// Membership binds a user to a center with a role. Unique per (CenterID, UserID).
type Membership struct {
	ID        uuid.UUID `json:"id"`
	CenterID  uuid.UUID `json:"center_id"`
	UserID    uuid.UUID `json:"user_id"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// StudentProfile is a student record bound to a center.
type StudentProfile struct {
	ID             uuid.UUID      `json:"id"`
	UserID         uuid.UUID      `json:"user_id"`
	CenterID       uuid.UUID      `json:"center_id"`
	Name           string         `json:"name"`
	Email          string         `json:"email"`
	Phone          *string        `json:"phone"`
	Guardian       *string        `json:"guardian"`
	GuardianPhone  *string        `json:"guardian_phone"`
	DateOfBirth    *string        `json:"date_of_birth"`
	Address        *string        `json:"address"`
	EnrollmentType EnrollmentType `json:"enrollment_type"`
	CreatedAt      time.Time      `json:"created_at"`
}

// IdentityKind tells how the identity for a provisioning request was obtained.
type IdentityKind int

// Identity kinds. Only IdentityFresh identities may be deleted on rollback.
const (
	IdentityExistingProfile IdentityKind = iota + 1
	IdentityFresh
	IdentityOrphan
)

func (k IdentityKind) String() string {
	switch k {
	case IdentityExistingProfile:
		return "existing_profile"
	case IdentityFresh:
		return "fresh"
	case IdentityOrphan:
		return "orphan"
	default:
		return "unknown"
	}
}

// IdentityOutcome is the result of resolving an email to a user id.
type IdentityOutcome struct {
	Kind   IdentityKind
	UserID uuid.UUID
}

// Created reports whether this request created the identity.
func (o IdentityOutcome) Created() bool { return o.Kind == IdentityFresh }

// NeedsProfile reports whether a profile row has to be ensured for the identity.
func (o IdentityOutcome) NeedsProfile() bool { return o.Kind != IdentityExistingProfile }

// JoinResult is returned by the center join procedure.
type JoinResult struct {
	Success    bool    `json:"success"`
	Error      *string `json:"error"`
	CenterSlug *string `json:"center_slug"`
}
