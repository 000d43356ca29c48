package httpserver

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap/zaptest"

	"github.com/and161185/supermock-admin/internal/limiter"
	"github.com/and161185/supermock-admin/internal/model"
	"github.com/and161185/supermock-admin/internal/service"
)

var testSecret = []byte("super-secret-jwt-token-with-at-least-32-characters")

func makeJWT(t *testing.T, sub string, key []byte, method jwt.SigningMethod, iat time.Time, ttl time.Duration) string {
	t.Helper()
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			IssuedAt:  jwt.NewNumericDate(iat),
			ExpiresAt: jwt.NewNumericDate(iat.Add(ttl)),
		},
		Email: "owner@center.test",
		Role:  "authenticated",
	}
	claims.UserMetadata.EmailVerified = true
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("SignedString: %v", err)
	}
	return s
}

func validToken(t *testing.T, id uuid.UUID) string {
	return makeJWT(t, id.String(), testSecret, jwt.SigningMethodHS256, time.Now().UTC().Add(-time.Minute), time.Hour)
}

type fakeMembers struct {
	calls int
	got   model.MemberRequest
	res   model.Membership
	err   error
}

var _ service.MemberProvisioner = (*fakeMembers)(nil)

func (f *fakeMembers) Provision(_ context.Context, _ model.Principal, req model.MemberRequest) (model.Membership, error) {
	f.calls++
	f.got = req
	return f.res, f.err
}

type fakeStudents struct {
	calls int
	got   model.StudentRequest
	res   model.StudentProfile
	err   error
}

var _ service.StudentProvisioner = (*fakeStudents)(nil)

func (f *fakeStudents) Provision(_ context.Context, _ model.Principal, req model.StudentRequest) (model.StudentProfile, error) {
	f.calls++
	f.got = req
	return f.res, f.err
}

type fakeReviewer struct {
	reviews   []model.AttemptReview
	preview   model.AttemptDetail
	grading   model.GradeModuleDetail
	decisions map[uuid.UUID][]model.GradingDecision
	save      model.SaveGradesResult
	join      model.JoinResult
	err       error

	lastPrincipal model.Principal
	lastPasscode  string
	lastFeedback  *string
	lastExtra     []model.GradingDecision
}

var _ Reviewer = (*fakeReviewer)(nil)

func (f *fakeReviewer) CenterReviews(_ context.Context, p model.Principal, _ uuid.UUID) ([]model.AttemptReview, error) {
	f.lastPrincipal = p
	return f.reviews, f.err
}

func (f *fakeReviewer) AttemptPreview(context.Context, model.Principal, uuid.UUID) (model.AttemptDetail, error) {
	return f.preview, f.err
}

func (f *fakeReviewer) GradingData(context.Context, model.Principal, uuid.UUID) (model.GradeModuleDetail, error) {
	return f.grading, f.err
}

func (f *fakeReviewer) SetDecision(_ model.Principal, moduleID uuid.UUID, dec model.GradingDecision) error {
	if f.err != nil {
		return f.err
	}
	if f.decisions == nil {
		f.decisions = map[uuid.UUID][]model.GradingDecision{}
	}
	f.decisions[moduleID] = append(f.decisions[moduleID], dec)
	return nil
}

func (f *fakeReviewer) Decisions(_ model.Principal, moduleID uuid.UUID) []model.GradingDecision {
	if d := f.decisions[moduleID]; d != nil {
		return d
	}
	return []model.GradingDecision{}
}

func (f *fakeReviewer) ClearDecisions(_ model.Principal, moduleID uuid.UUID) {
	delete(f.decisions, moduleID)
}

func (f *fakeReviewer) SaveGrades(_ context.Context, _ model.Principal, _ uuid.UUID, extra []model.GradingDecision, feedback *string) (model.SaveGradesResult, error) {
	f.lastExtra = extra
	f.lastFeedback = feedback
	return f.save, f.err
}

func (f *fakeReviewer) JoinCenter(_ context.Context, _ model.Principal, passcode string) (model.JoinResult, error) {
	f.lastPasscode = passcode
	return f.join, f.err
}

type fakeLimiter struct {
	allow bool
	wait  time.Duration
	err   error
	keys  []string
}

var _ limiter.Limiter = (*fakeLimiter)(nil)

func (l *fakeLimiter) Allow(_ context.Context, key string) (bool, time.Duration, error) {
	l.keys = append(l.keys, key)
	return l.allow, l.wait, l.err
}

type harness struct {
	members  *fakeMembers
	students *fakeStudents
	reviews  *fakeReviewer
	limiter  *fakeLimiter
	handler  http.Handler
}

func newHarness(t *testing.T) *harness {
	h := &harness{
		members:  &fakeMembers{},
		students: &fakeStudents{},
		reviews:  &fakeReviewer{},
		limiter:  &fakeLimiter{allow: true},
	}
	srv := New(h.members, h.students, h.reviews, h.limiter, zaptest.NewLogger(t), Options{
		JWTSecret:   testSecret,
		CORSOrigins: []string{"https://admin.supermock.test"},
		Public:      PublicConfig{SupabaseURL: "https://project.supabase.co", SupabaseAnonKey: "anon", TurnstileSiteKey: "site"},
	})
	h.handler = srv.Router()
	return h
}

func (h *harness) do(method, path, token string, body []byte) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}

var errUpstreamHTTP = errors.New("db password rejected: connection refused")

func ptrTo[T any](v T) *T { return &v }
