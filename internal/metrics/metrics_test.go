package metrics

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/and161185/supermock-admin/internal/errs"
)

func TestOutcome(t *testing.T) {
	require.Equal(t, "success", Outcome(nil))
	require.Equal(t, "invalid", Outcome(errs.Invalid("x")))
	require.Equal(t, "forbidden", Outcome(fmt.Errorf("wrap: %w", errs.ErrForbidden)))
	require.Equal(t, "conflict", Outcome(errs.Conflict("dup")))
	require.Equal(t, "rate_limited", Outcome(errs.ErrRateLimited))
	require.Equal(t, "error", Outcome(errors.New("boom")))
}

func TestCounters(t *testing.T) {
	m := New()
	m.ObserveProvisioning("member", nil)
	m.ObserveProvisioning("member", errs.ErrForbidden)
	m.ObserveRollback("member", "delete_auth_user", nil)
	m.ObserveRollback("member", "delete_auth_user", errors.New("x"))
	m.ObserveRateLimited("/create/members")
	m.ObserveHTTP(http.MethodPost, "/create/members", http.StatusCreated, 20*time.Millisecond)

	require.Equal(t, 1.0, testutil.ToFloat64(m.provisioning.WithLabelValues("member", "success")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.provisioning.WithLabelValues("member", "forbidden")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.rollbacks.WithLabelValues("member", "delete_auth_user", "failed")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.rateLimited.WithLabelValues("/create/members")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("POST", "/create/members", "201")))
}

func TestHandler_Exposes(t *testing.T) {
	m := New()
	m.ObserveProvisioning("student", nil)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, strings.Contains(rec.Body.String(), `supermock_provisioning_total{outcome="success",workflow="student"} 1`))
}

func TestNilIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveProvisioning("member", nil)
	m.ObserveRollback("member", "x", nil)
	m.ObserveRateLimited("r")
	m.ObserveHTTP("GET", "/", 200, time.Second)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}
