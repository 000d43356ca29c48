package repository

import (
	"context"

	"github.com/and161185/supermock-admin/internal/model"
	"github.com/gofrs/uuid/v5"
)

// ReviewRepository calls the review procedures as the given principal, so row-level security applies.
type ReviewRepository interface {
	// CenterReviews lists attempts awaiting or past review for a center.
	CenterReviews(ctx context.Context, p model.Principal, centerID uuid.UUID) ([]model.RawAttemptReview, error)
	// AttemptPreview loads an attempt with its modules; errs.ErrNotFound if not visible.
	AttemptPreview(ctx context.Context, p model.Principal, attemptID uuid.UUID) (*model.RawAttemptDetail, error)
	// GradingData loads a module with its answers; errs.ErrNotFound if not visible.
	GradingData(ctx context.Context, p model.Principal, moduleID uuid.UUID) (*model.RawGradingData, error)
	// SaveGrades submits every decision for a module in one call.
	SaveGrades(ctx context.Context, p model.Principal, moduleID uuid.UUID, answers []model.GradeAnswer, feedback *string) (model.SaveGradesResult, error)
	// JoinCenter verifies a passcode hash and adds the principal to the matching center.
	JoinCenter(ctx context.Context, p model.Principal, passcodeHash string) (model.JoinResult, error)
}
