package httpserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/require"

	"github.com/and161185/supermock-admin/internal/errs"
	"github.com/and161185/supermock-admin/internal/model"
)

func TestReviews_RequireSession(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	id := uuid.Must(uuid.NewV4())

	for _, path := range []string{
		"/centers/" + id.String() + "/reviews",
		"/attempts/" + id.String() + "/preview",
		"/grading/" + id.String(),
		"/grading/" + id.String() + "/decisions",
	} {
		rec := h.do(http.MethodGet, path, "", nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code, path)
		require.Equal(t, "Unauthorized", errorOf(t, rec.Body.Bytes()))
	}
}

func TestCenterReviews(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	caller := uuid.Must(uuid.NewV4())

	h.reviews.reviews = []model.AttemptReview{}
	rec := h.do(http.MethodGet, "/centers/"+uuid.Must(uuid.NewV4()).String()+"/reviews", validToken(t, caller), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `[]`, rec.Body.String())
	require.Equal(t, caller, h.reviews.lastPrincipal.ID)
	require.Equal(t, "owner@center.test", h.reviews.lastPrincipal.Email)
	require.True(t, h.reviews.lastPrincipal.EmailConfirmed)

	rec = h.do(http.MethodGet, "/centers/not-a-uuid/reviews", validToken(t, caller), nil)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	h.reviews.err = errUpstreamHTTP
	rec = h.do(http.MethodGet, "/centers/"+uuid.Must(uuid.NewV4()).String()+"/reviews", validToken(t, caller), nil)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestAttemptPreview_NotFound(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.reviews.err = errs.ErrNotFound

	rec := h.do(http.MethodGet, "/attempts/"+uuid.Must(uuid.NewV4()).String()+"/preview", validToken(t, uuid.Must(uuid.NewV4())), nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGradingData(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.reviews.grading = model.GradeModuleDetail{PaperTitle: "Mock 3", StudentName: "Student", Decisions: []model.GradingDecision{}}

	rec := h.do(http.MethodGet, "/grading/"+uuid.Must(uuid.NewV4()).String(), validToken(t, uuid.Must(uuid.NewV4())), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var out model.GradeModuleDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Equal(t, "Mock 3", out.PaperTitle)
	require.NotNil(t, out.Decisions)
}

func TestDecisions_PutListClear(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	tok := validToken(t, uuid.Must(uuid.NewV4()))
	module := uuid.Must(uuid.NewV4())
	answer := uuid.Must(uuid.NewV4())
	base := "/grading/" + module.String() + "/decisions"

	rec := h.do(http.MethodPut, base+"/"+answer.String(), tok, []byte(`{"questionRef":"Q1","isCorrect":true,"marksAwarded":1}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.JSONEq(t, `{"answerId":"`+answer.String()+`","questionRef":"Q1","isCorrect":true,"marksAwarded":1}`, rec.Body.String())

	rec = h.do(http.MethodPut, base+"/"+answer.String(), tok, []byte(`{"questionRef":"Q1"}`))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Equal(t, "isCorrect is required; marksAwarded is required", errorOf(t, rec.Body.Bytes()))

	rec = h.do(http.MethodPut, base+"/"+answer.String(), tok, []byte(`{"isCorrect":true,"marksAwarded":1,"extra":1}`))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(http.MethodPut, base+"/nope", tok, []byte(`{"isCorrect":true,"marksAwarded":1}`))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = h.do(http.MethodGet, base, tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []model.GradingDecision
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)

	rec = h.do(http.MethodDelete, base, tok, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = h.do(http.MethodGet, base, tok, nil)
	require.JSONEq(t, `[]`, rec.Body.String())
}

func TestSaveGrades(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	tok := validToken(t, uuid.Must(uuid.NewV4()))
	path := "/grading/" + uuid.Must(uuid.NewV4()).String() + "/save"
	band := 7.0
	h.reviews.save = model.SaveGradesResult{Success: true, BandScore: &band}

	answer := uuid.Must(uuid.NewV4())
	body := `{"feedback":"  Student's essay is coherent.  ","decisions":[{"answerId":"` + answer.String() + `","questionRef":"Q1","isCorrect":true,"marksAwarded":1}]}`
	rec := h.do(http.MethodPost, path, tok, []byte(body))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.JSONEq(t, `{"success":true,"bandScore":7}`, rec.Body.String())
	require.Equal(t, "Student's essay is coherent.", *h.reviews.lastFeedback)
	require.Len(t, h.reviews.lastExtra, 1)
	require.Equal(t, answer, h.reviews.lastExtra[0].AnswerID)

	rec = h.do(http.MethodPost, path, tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Nil(t, h.reviews.lastFeedback)

	// chunked with nothing in it
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(""))
	req.ContentLength = -1
	req.Header.Set("Authorization", "Bearer "+tok)
	rec = httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Nil(t, h.reviews.lastFeedback)
	require.Empty(t, h.reviews.lastExtra)

	rec = h.do(http.MethodPost, path, tok, []byte(`{"feedback":`))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	h.reviews.err = errs.Invalid("1 of 2 answers have no decision")
	rec = h.do(http.MethodPost, path, tok, nil)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Equal(t, "1 of 2 answers have no decision", errorOf(t, rec.Body.Bytes()))

	h.reviews.err = errs.Conflict("Module already graded")
	rec = h.do(http.MethodPost, path, tok, nil)
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestPublicConfigAndHealth(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	rec := h.do(http.MethodGet, "/config", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"supabaseUrl":"https://project.supabase.co","supabaseAnonKey":"anon","turnstileSiteKey":"site"}`, rec.Body.String())

	rec = h.do(http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = h.do(http.MethodGet, "/nowhere", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	req, _ := http.NewRequest(http.MethodOptions, "/create/members", nil)
	req.Header.Set("Origin", "https://admin.supermock.test")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "authorization,content-type")
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)

	require.Equal(t, "https://admin.supermock.test", rec.Header().Get("Access-Control-Allow-Origin"))
	require.Zero(t, h.members.calls)
}
