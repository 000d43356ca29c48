package postgres

import (
	"context"

	"github.com/and161185/supermock-admin/internal/errs"
	"github.com/and161185/supermock-admin/internal/model"
)

// StudentRepo implements StudentRepository using PostgreSQL.
type StudentRepo struct{ db *DB }

// NewStudentRepo constructs a student repository.
func NewStudentRepo(db *DB) *StudentRepo { return &StudentRepo{db: db} }

// Create inserts a student row.
func (r *StudentRepo) Create(ctx context.Context, s model.StudentProfile) (model.StudentProfile, error) {
	const q = `
INSERT INTO students (user_id, center_id, name, email, phone, guardian, guardian_phone, date_of_birth, address, enrollment_type)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8::date, $9, $10)
RETURNING id, created_at`
	err := r.db.Pool.QueryRow(ctx, q,
		s.UserID, s.CenterID, s.Name, s.Email, s.Phone, s.Guardian, s.GuardianPhone, s.DateOfBirth, s.Address, string(s.EnrollmentType),
	).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return model.StudentProfile{}, errs.ErrAlreadyExists
		}
		return model.StudentProfile{}, err
	}
	return s, nil
}
