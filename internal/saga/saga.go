// Package saga runs compensating actions for multi-step remote workflows.
package saga

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Compensation undoes a completed step.
type Compensation func(ctx context.Context) error

type step struct {
	name string
	undo Compensation
}

// Observer is notified about each compensation outcome.
type Observer func(workflow, step string, err error)

// Saga records compensations in completion order and unwinds them in reverse.
// A Saga is used by a single request and is not safe for concurrent use.
type Saga struct {
	workflow string
	log      *zap.Logger
	timeout  time.Duration
	observe  Observer
	steps    []step
}

// New returns an empty saga for workflow.
func New(workflow string, log *zap.Logger) *Saga {
	if log == nil {
		log = zap.NewNop()
	}
	return &Saga{workflow: workflow, log: log, timeout: 10 * time.Second}
}

// WithTimeout bounds the whole rollback.
func (s *Saga) WithTimeout(d time.Duration) *Saga {
	if d > 0 {
		s.timeout = d
	}
	return s
}

// WithObserver sets a callback fired after each compensation.
func (s *Saga) WithObserver(o Observer) *Saga {
	s.observe = o
	return s
}

// Completed registers the compensation for a step that has just succeeded.
func (s *Saga) Completed(name string, undo Compensation) {
	s.steps = append(s.steps, step{name: name, undo: undo})
}

// Len returns the number of registered compensations.
func (s *Saga) Len() int { return len(s.steps) }

// Abort runs every registered compensation in reverse order and returns cause unchanged.
// Compensations run on a context detached from ctx cancellation; their failures are logged only.
func (s *Saga) Abort(ctx context.Context, cause error) error {
	if len(s.steps) == 0 {
		return cause
	}
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	for i := len(s.steps) - 1; i >= 0; i-- {
		st := s.steps[i]
		err := st.undo(rctx)
		if err != nil {
			s.log.Error("rollback step failed",
				zap.String("workflow", s.workflow),
				zap.String("step", st.name),
				zap.Error(err),
				zap.NamedError("cause", cause),
			)
		} else {
			s.log.Info("rollback step done",
				zap.String("workflow", s.workflow),
				zap.String("step", st.name),
			)
		}
		if s.observe != nil {
			s.observe(s.workflow, st.name, err)
		}
	}
	s.steps = nil
	return cause
}
