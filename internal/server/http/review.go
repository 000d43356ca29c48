package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid/v5"

	"github.com/and161185/supermock-admin/internal/errs"
	"github.com/and161185/supermock-admin/internal/model"
	"github.com/and161185/supermock-admin/internal/validation"
)

type decisionRequest struct {
	QuestionRef  string   `json:"questionRef"`
	IsCorrect    *bool    `json:"isCorrect"`
	MarksAwarded *float64 `json:"marksAwarded"`
}

type saveRequest struct {
	Feedback  *string                 `json:"feedback"`
	Decisions []model.GradingDecision `json:"decisions"`
}

type saveResponse struct {
	Success    bool     `json:"success"`
	BandScore  *float64 `json:"bandScore,omitempty"`
	TotalScore *float64 `json:"totalScore,omitempty"`
}

// pathID parses a uuid route parameter; a bad value is a validation error.
func pathID(r *http.Request, name string) (uuid.UUID, error) {
	return validation.ID(chi.URLParam(r, name), name)
}

// caller returns the principal set by authMiddleware.
func caller(r *http.Request) (model.Principal, error) {
	p, ok := PrincipalFromCtx(r.Context())
	if !ok {
		return model.Principal{}, errs.ErrUnauthorized
	}
	return p, nil
}

func (s *Server) handleCenterReviews(w http.ResponseWriter, r *http.Request) {
	p, err := caller(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	centerID, err := pathID(r, "centerID")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	rows, err := s.reviews.CenterReviews(r.Context(), p, centerID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleAttemptPreview(w http.ResponseWriter, r *http.Request) {
	p, err := caller(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	attemptID, err := pathID(r, "attemptID")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	detail, err := s.reviews.AttemptPreview(r.Context(), p, attemptID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleGradingData(w http.ResponseWriter, r *http.Request) {
	p, err := caller(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	moduleID, err := pathID(r, "moduleID")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	detail, err := s.reviews.GradingData(r.Context(), p, moduleID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleListDecisions(w http.ResponseWriter, r *http.Request) {
	p, err := caller(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	moduleID, err := pathID(r, "moduleID")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.reviews.Decisions(p, moduleID))
}

func (s *Server) handleClearDecisions(w http.ResponseWriter, r *http.Request) {
	p, err := caller(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	moduleID, err := pathID(r, "moduleID")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.reviews.ClearDecisions(p, moduleID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetDecision(w http.ResponseWriter, r *http.Request) {
	p, err := caller(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	moduleID, err := pathID(r, "moduleID")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	answerID, err := pathID(r, "answerID")
	if err != nil {
		s.fail(w, r, err)
		return
	}

	var in decisionRequest
	if err := decodeJSON(w, r, s.maxBody, &in); err != nil {
		s.fail(w, r, err)
		return
	}
	var problems []string
	if in.IsCorrect == nil {
		problems = append(problems, "isCorrect is required")
	}
	if in.MarksAwarded == nil {
		problems = append(problems, "marksAwarded is required")
	}
	if err := errs.Invalid(problems...); err != nil {
		s.fail(w, r, err)
		return
	}

	dec := model.GradingDecision{
		AnswerID:     answerID,
		QuestionRef:  validation.SanitizeString(in.QuestionRef, validation.MaxRefLen),
		IsCorrect:    *in.IsCorrect,
		MarksAwarded: *in.MarksAwarded,
	}
	if err := s.reviews.SetDecision(p, moduleID, dec); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dec)
}

func (s *Server) handleSaveGrades(w http.ResponseWriter, r *http.Request) {
	p, err := caller(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	moduleID, err := pathID(r, "moduleID")
	if err != nil {
		s.fail(w, r, err)
		return
	}

	var in saveRequest
	if err := decodeOptionalJSON(w, r, s.maxBody*8, &in); err != nil {
		s.fail(w, r, err)
		return
	}
	if in.Feedback != nil {
		fb := validation.Clip(*in.Feedback, validation.MaxFeedbackLen)
		in.Feedback = &fb
	}

	res, err := s.reviews.SaveGrades(r.Context(), p, moduleID, in.Decisions, in.Feedback)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saveResponse{Success: true, BandScore: res.BandScore, TotalScore: res.TotalScore})
}
