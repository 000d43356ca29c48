package service

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/and161185/supermock-admin/internal/convert"
	"github.com/and161185/supermock-admin/internal/crypto"
	"github.com/and161185/supermock-admin/internal/errs"
	"github.com/and161185/supermock-admin/internal/grading"
	"github.com/and161185/supermock-admin/internal/model"
	"github.com/and161185/supermock-admin/internal/repository"
)

const (
	msgSaveRejected = "Grades could not be saved"
	msgJoinRejected = "Could not join center"
)

// ReviewService serves the examiner review pages and keeps grading drafts.
type ReviewService struct {
	repo   repository.ReviewRepository
	drafts *grading.Drafts
	log    *zap.Logger
}

// NewReviewService constructs ReviewService. A nil drafts store gets the default ttl.
func NewReviewService(repo repository.ReviewRepository, drafts *grading.Drafts, log *zap.Logger) *ReviewService {
	if drafts == nil {
		drafts = grading.NewDrafts(0)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ReviewService{repo: repo, drafts: drafts, log: log}
}

// CenterReviews lists the attempts of a center. An empty center yields an empty slice.
func (s *ReviewService) CenterReviews(ctx context.Context, p model.Principal, centerID uuid.UUID) ([]model.AttemptReview, error) {
	rows, err := s.repo.CenterReviews(ctx, p, centerID)
	if err != nil {
		return nil, fmt.Errorf("center reviews: %w", err)
	}
	return convert.ToAttemptReviews(rows), nil
}

// AttemptPreview loads a single attempt with all of its modules.
func (s *ReviewService) AttemptPreview(ctx context.Context, p model.Principal, attemptID uuid.UUID) (model.AttemptDetail, error) {
	raw, err := s.repo.AttemptPreview(ctx, p, attemptID)
	if err != nil {
		return model.AttemptDetail{}, fmt.Errorf("attempt preview: %w", err)
	}
	return convert.ToAttemptDetail(*raw), nil
}

// GradingData loads a module for grading together with the caller's draft decisions.
func (s *ReviewService) GradingData(ctx context.Context, p model.Principal, moduleID uuid.UUID) (model.GradeModuleDetail, error) {
	raw, err := s.repo.GradingData(ctx, p, moduleID)
	if err != nil {
		return model.GradeModuleDetail{}, fmt.Errorf("grading data: %w", err)
	}
	out := convert.ToGradeModuleDetail(*raw)
	out.Decisions = s.drafts.All(p.ID, moduleID)
	return out, nil
}

// SetDecision upserts one decision in the caller's draft.
func (s *ReviewService) SetDecision(p model.Principal, moduleID uuid.UUID, dec model.GradingDecision) error {
	if msg := decisionProblem(dec); msg != "" {
		return errs.Invalid(msg)
	}
	s.drafts.Set(p.ID, moduleID, dec)
	return nil
}

func decisionProblem(dec model.GradingDecision) string {
	switch {
	case dec.AnswerID.IsNil():
		return "answerId is required"
	case math.IsNaN(dec.MarksAwarded) || math.IsInf(dec.MarksAwarded, 0) || dec.MarksAwarded < 0:
		return "marksAwarded must be a non-negative number"
	}
	return ""
}

// Decisions returns the caller's draft for a module.
func (s *ReviewService) Decisions(p model.Principal, moduleID uuid.UUID) []model.GradingDecision {
	return s.drafts.All(p.ID, moduleID)
}

// ClearDecisions discards the caller's draft for a module.
func (s *ReviewService) ClearDecisions(p model.Principal, moduleID uuid.UUID) {
	s.drafts.Clear(p.ID, moduleID)
}

// SaveGrades merges extra into the draft and submits it when every answer has a valid decision.
// A rejected extra leaves the draft untouched. The draft is cleared only after the remote
// store accepts it, and only if no decision was written to it while the save was in flight.
func (s *ReviewService) SaveGrades(
	ctx context.Context, p model.Principal, moduleID uuid.UUID, extra []model.GradingDecision, feedback *string,
) (model.SaveGradesResult, error) {
	var problems []string
	for i, dec := range extra {
		if msg := decisionProblem(dec); msg != "" {
			problems = append(problems, fmt.Sprintf("decisions[%d]: %s", i, msg))
		}
	}
	if err := errs.Invalid(problems...); err != nil {
		return model.SaveGradesResult{}, err
	}
	s.drafts.SetAll(p.ID, moduleID, extra)

	raw, err := s.repo.GradingData(ctx, p, moduleID)
	if err != nil {
		return model.SaveGradesResult{}, fmt.Errorf("grading data: %w", err)
	}

	decs, version := s.drafts.Snapshot(p.ID, moduleID)
	set := grading.NewDecisions()
	for _, dec := range decs {
		set.Set(dec)
	}
	if err := checkComplete(raw.Module.Answers, set); err != nil {
		return model.SaveGradesResult{}, err
	}

	res, err := s.repo.SaveGrades(ctx, p, moduleID, convert.ToGradeAnswers(set.All()), feedback)
	if err != nil {
		return model.SaveGradesResult{}, fmt.Errorf("save grades: %w", err)
	}
	if !res.Success {
		msg := msgSaveRejected
		if res.Error != nil && *res.Error != "" {
			msg = *res.Error
		}
		return model.SaveGradesResult{}, errs.Conflict(msg)
	}

	if !s.drafts.ClearIfUnchanged(p.ID, moduleID, version) {
		s.log.Warn("draft changed during save, kept", zap.Stringer("module_id", moduleID))
	}
	s.log.Info("grades saved", zap.Stringer("module_id", moduleID), zap.Int("answers", set.Len()))
	return res, nil
}

func checkComplete(answers []model.RawAnswer, set *grading.Decisions) error {
	ids := make([]uuid.UUID, 0, len(answers))
	for _, a := range answers {
		ids = append(ids, a.ID)
	}

	var problems []string
	if missing := set.Missing(ids); len(missing) > 0 {
		problems = append(problems, fmt.Sprintf("%d of %d answers have no decision", len(missing), len(ids)))
	}
	for _, id := range set.Unknown(ids) {
		problems = append(problems, fmt.Sprintf("answer %s does not belong to this module", id))
	}
	for _, a := range answers {
		dec, ok := set.Get(a.ID)
		if !ok || a.MaxMarks == nil {
			continue
		}
		if dec.MarksAwarded > *a.MaxMarks {
			problems = append(problems, fmt.Sprintf("answer %s: marks must be between 0 and %g", a.ID, *a.MaxMarks))
		}
	}
	return errs.Invalid(problems...)
}

// JoinCenter adds the caller to the center whose passcode matches.
func (s *ReviewService) JoinCenter(ctx context.Context, p model.Principal, passcode string) (model.JoinResult, error) {
	passcode = strings.TrimSpace(passcode)
	if passcode == "" {
		return model.JoinResult{}, errs.Invalid("passcode is required")
	}

	res, err := s.repo.JoinCenter(ctx, p, crypto.HashPasscode(passcode))
	if err != nil {
		return model.JoinResult{}, fmt.Errorf("join center: %w", err)
	}
	if !res.Success {
		msg := msgJoinRejected
		if res.Error != nil && *res.Error != "" {
			msg = *res.Error
		}
		return model.JoinResult{}, errs.Conflict(msg)
	}
	s.log.Info("center joined", zap.Stringer("user_id", p.ID))
	return res, nil
}
