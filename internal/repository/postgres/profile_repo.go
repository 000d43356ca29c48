package postgres

import (
	"context"
	"errors"

	"github.com/and161185/supermock-admin/internal/errs"
	"github.com/and161185/supermock-admin/internal/model"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
)

// ProfileRepo implements ProfileRepository using PostgreSQL.
type ProfileRepo struct{ db *DB }

// NewProfileRepo constructs a profile repository.
func NewProfileRepo(db *DB) *ProfileRepo { return &ProfileRepo{db: db} }

// FindByEmail selects a profile by lower-cased email.
func (r *ProfileRepo) FindByEmail(ctx context.Context, email string) (*model.Profile, error) {
	const q = `
SELECT id, email, COALESCE(full_name, '')
FROM profiles WHERE lower(email)=$1
LIMIT 1`
	var p model.Profile
	if err := r.db.Pool.QueryRow(ctx, q, email).Scan(&p.ID, &p.Email, &p.FullName); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Upsert inserts a profile row, leaving an existing row with the same id untouched.
func (r *ProfileRepo) Upsert(ctx context.Context, p model.Profile) (bool, error) {
	const q = `
INSERT INTO profiles (id, email, full_name)
VALUES ($1, $2, $3)
ON CONFLICT (id) DO NOTHING`
	tag, err := r.db.Pool.Exec(ctx, q, p.ID, p.Email, p.FullName)
	if err != nil {
		if isUniqueViolation(err) {
			return false, errs.ErrAlreadyExists
		}
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// Delete removes a profile.
func (r *ProfileRepo) Delete(ctx context.Context, id uuid.UUID) error {
	const q = `DELETE FROM profiles WHERE id=$1`
	_, err := r.db.Pool.Exec(ctx, q, id)
	return err
}

// AuthUserByEmail calls admin_get_auth_user_by_email.
func (r *ProfileRepo) AuthUserByEmail(ctx context.Context, email string) (*model.AuthUser, error) {
	const q = `SELECT id, email, email_confirmed_at FROM admin_get_auth_user_by_email($1)`
	var u model.AuthUser
	if err := r.db.Pool.QueryRow(ctx, q, email).Scan(&u.ID, &u.Email, &u.EmailConfirmedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}
