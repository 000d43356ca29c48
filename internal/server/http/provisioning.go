package httpserver

import (
	"fmt"
	"math"
	"net/http"

	"go.uber.org/zap"

	"github.com/and161185/supermock-admin/internal/errs"
	"github.com/and161185/supermock-admin/internal/model"
	"github.com/and161185/supermock-admin/internal/validation"
)

type memberResponse struct {
	Success    bool             `json:"success"`
	Membership model.Membership `json:"membership"`
}

type studentResponse struct {
	Success bool                 `json:"success"`
	Student model.StudentProfile `json:"student"`
}

type joinResponse struct {
	Success    bool    `json:"success"`
	CenterSlug *string `json:"centerSlug,omitempty"`
}

// handleCreateMember: size, parse, validate, authenticate, rate limit, provision.
func (s *Server) handleCreateMember(w http.ResponseWriter, r *http.Request) {
	body, err := readObject(w, r, s.maxBody)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	req, err := validation.MemberRequest(body)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	p, ok := s.admit(w, r)
	if !ok {
		return
	}

	m, err := s.members.Provision(r.Context(), p, req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, memberResponse{Success: true, Membership: m})
}

func (s *Server) handleCreateStudent(w http.ResponseWriter, r *http.Request) {
	body, err := readObject(w, r, s.maxBody)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	req, err := validation.StudentRequest(body)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	p, ok := s.admit(w, r)
	if !ok {
		return
	}

	st, err := s.students.Provision(r.Context(), p, req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, studentResponse{Success: true, Student: st})
}

func (s *Server) handleJoinCenter(w http.ResponseWriter, r *http.Request) {
	body, err := readObject(w, r, s.maxBody)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	passcode, _ := body["passcode"].(string)
	if passcode == "" {
		s.fail(w, r, errs.Invalid("passcode is required"))
		return
	}
	p, ok := s.admit(w, r)
	if !ok {
		return
	}

	res, err := s.reviews.JoinCenter(r.Context(), p, passcode)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, joinResponse{Success: true, CenterSlug: res.CenterSlug})
}

// admit authenticates the caller and charges its rate budget. It writes the error response itself.
func (s *Server) admit(w http.ResponseWriter, r *http.Request) (model.Principal, bool) {
	p, err := s.authenticate(r)
	if err != nil {
		s.fail(w, r, err)
		return model.Principal{}, false
	}
	if err := s.charge(w, r, p); err != nil {
		s.fail(w, r, err)
		return model.Principal{}, false
	}
	return p, true
}

func (s *Server) charge(w http.ResponseWriter, r *http.Request, p model.Principal) error {
	if s.limiter == nil {
		return nil
	}
	ok, wait, err := s.limiter.Allow(r.Context(), p.ID.String())
	if err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	if !ok {
		s.metrics.ObserveRateLimited(r.URL.Path)
		s.log.Info("rate limited", zap.Stringer("user_id", p.ID), zap.Duration("retry_after", wait))
		retryAfter(w, int(math.Ceil(wait.Seconds())))
		return errs.ErrRateLimited
	}
	return nil
}
