package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/and161185/supermock-admin/internal/errs"
	"github.com/and161185/supermock-admin/internal/model"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
)

// ReviewRepo implements ReviewRepository by calling the review procedures.
type ReviewRepo struct{ db *DB }

// NewReviewRepo constructs a review repository.
func NewReviewRepo(db *DB) *ReviewRepo { return &ReviewRepo{db: db} }

// asCaller runs fn in a transaction whose JWT claims and role are those of p.
func (r *ReviewRepo) asCaller(ctx context.Context, p model.Principal, fn func(tx pgx.Tx) error) (err error) {
	claims, err := json.Marshal(map[string]any{
		"sub":   p.ID.String(),
		"email": p.Email,
		"role":  "authenticated",
	})
	if err != nil {
		return err
	}

	tx, err := r.db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		if e := tx.Commit(ctx); e != nil {
			err = e
		}
	}()

	const set = `SELECT set_config('request.jwt.claims', $1, true), set_config('role', 'authenticated', true)`
	if _, err = tx.Exec(ctx, set, string(claims)); err != nil {
		return err
	}
	return fn(tx)
}

// callJSON runs a procedure returning jsonb and decodes it into out. A NULL result yields errs.ErrNotFound.
func (r *ReviewRepo) callJSON(ctx context.Context, p model.Principal, q string, out any, args ...any) error {
	return r.asCaller(ctx, p, func(tx pgx.Tx) error {
		var raw []byte
		if err := tx.QueryRow(ctx, q, args...).Scan(&raw); err != nil {
			return err
		}
		if len(raw) == 0 || string(raw) == "null" {
			return errs.ErrNotFound
		}
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode procedure result: %w", err)
		}
		return nil
	})
}

// CenterReviews calls get_center_reviews.
func (r *ReviewRepo) CenterReviews(ctx context.Context, p model.Principal, centerID uuid.UUID) ([]model.RawAttemptReview, error) {
	const q = `SELECT COALESCE(get_center_reviews($1), '[]'::jsonb)`
	var out []model.RawAttemptReview
	if err := r.callJSON(ctx, p, q, &out, centerID); err != nil {
		return nil, err
	}
	return out, nil
}

// AttemptPreview calls get_attempt_preview.
func (r *ReviewRepo) AttemptPreview(ctx context.Context, p model.Principal, attemptID uuid.UUID) (*model.RawAttemptDetail, error) {
	const q = `SELECT get_attempt_preview($1)`
	var out model.RawAttemptDetail
	if err := r.callJSON(ctx, p, q, &out, attemptID); err != nil {
		return nil, err
	}
	return &out, nil
}

// GradingData calls get_grading_data.
func (r *ReviewRepo) GradingData(ctx context.Context, p model.Principal, moduleID uuid.UUID) (*model.RawGradingData, error) {
	const q = `SELECT get_grading_data($1)`
	var out model.RawGradingData
	if err := r.callJSON(ctx, p, q, &out, moduleID); err != nil {
		return nil, err
	}
	return &out, nil
}

// SaveGrades calls save_grades with the full answers array.
func (r *ReviewRepo) SaveGrades(
	ctx context.Context, p model.Principal, moduleID uuid.UUID, answers []model.GradeAnswer, feedback *string,
) (model.SaveGradesResult, error) {
	payload, err := json.Marshal(answers)
	if err != nil {
		return model.SaveGradesResult{}, err
	}
	const q = `SELECT save_grades($1, $2::jsonb, $3)`
	var out model.SaveGradesResult
	if err := r.callJSON(ctx, p, q, &out, moduleID, string(payload), feedback); err != nil {
		return model.SaveGradesResult{}, err
	}
	return out, nil
}

// JoinCenter calls verify_and_join_center.
func (r *ReviewRepo) JoinCenter(ctx context.Context, p model.Principal, passcodeHash string) (model.JoinResult, error) {
	const q = `SELECT verify_and_join_center($1)`
	var out model.JoinResult
	if err := r.callJSON(ctx, p, q, &out, passcodeHash); err != nil {
		return model.JoinResult{}, err
	}
	return out, nil
}
