package postgres

import (
	"context"

	"github.com/and161185/supermock-admin/internal/errs"
	"github.com/and161185/supermock-admin/internal/model"
	"github.com/gofrs/uuid/v5"
)

// CenterRepo implements CenterRepository using PostgreSQL.
type CenterRepo struct{ db *DB }

// NewCenterRepo constructs a center repository.
func NewCenterRepo(db *DB) *CenterRepo { return &CenterRepo{db: db} }

// IsOwner reports whether userID owns centerID.
func (r *CenterRepo) IsOwner(ctx context.Context, centerID, userID uuid.UUID) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM centers WHERE id=$1 AND owner_id=$2)`
	var ok bool
	err := r.db.Pool.QueryRow(ctx, q, centerID, userID).Scan(&ok)
	return ok, err
}

// IsMember reports whether userID has a membership in centerID.
func (r *CenterRepo) IsMember(ctx context.Context, centerID, userID uuid.UUID) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM center_members WHERE center_id=$1 AND user_id=$2)`
	var ok bool
	err := r.db.Pool.QueryRow(ctx, q, centerID, userID).Scan(&ok)
	return ok, err
}

// CreateMembership inserts a membership row.
func (r *CenterRepo) CreateMembership(ctx context.Context, m model.Membership) (model.Membership, error) {
	const q = `
INSERT INTO center_members (center_id, user_id, role)
VALUES ($1, $2, $3)
RETURNING id, created_at`
	if err := r.db.Pool.QueryRow(ctx, q, m.CenterID, m.UserID, string(m.Role)).Scan(&m.ID, &m.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return model.Membership{}, errs.ErrAlreadyExists
		}
		return model.Membership{}, err
	}
	return m, nil
}
