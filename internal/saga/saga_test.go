package saga

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestAbort_RunsInReverseAndReturnsCause(t *testing.T) {
	s := New("member", zaptest.NewLogger(t))
	var order []string
	s.Completed("auth_user", func(context.Context) error { order = append(order, "auth_user"); return nil })
	s.Completed("profile", func(context.Context) error { order = append(order, "profile"); return nil })
	require.Equal(t, 2, s.Len())

	cause := errors.New("insert membership")
	got := s.Abort(context.Background(), cause)

	require.Same(t, cause, got)
	require.Equal(t, []string{"profile", "auth_user"}, order)
	require.Equal(t, 0, s.Len())
}

func TestAbort_CompensationFailureDoesNotMaskCause(t *testing.T) {
	type outcome struct {
		step string
		err  error
	}
	var seen []outcome
	s := New("student", zaptest.NewLogger(t)).WithObserver(func(_, step string, err error) {
		seen = append(seen, outcome{step, err})
	})
	boom := errors.New("delete failed")
	ran := false
	s.Completed("first", func(context.Context) error { ran = true; return nil })
	s.Completed("second", func(context.Context) error { return boom })

	cause := errors.New("profile insert")
	require.ErrorIs(t, s.Abort(context.Background(), cause), cause)
	require.True(t, ran, "earlier compensation must still run")
	require.Equal(t, []outcome{{"second", boom}, {"first", nil}}, seen)
}

func TestAbort_SurvivesCancelledRequestContext(t *testing.T) {
	s := New("member", nil).WithTimeout(time.Second)
	var ctxErr error
	s.Completed("auth_user", func(ctx context.Context) error {
		ctxErr = ctx.Err()
		_, ok := ctx.Deadline()
		require.True(t, ok)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = s.Abort(ctx, errors.New("x"))
	require.NoError(t, ctxErr)
}

func TestAbort_NoSteps(t *testing.T) {
	cause := errors.New("early")
	require.Same(t, cause, New("member", nil).Abort(context.Background(), cause))
}
