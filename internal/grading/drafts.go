package grading

import (
	"context"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/supermock-admin/internal/model"
)

// DefaultTTL is how long an untouched draft is kept.
const DefaultTTL = 12 * time.Hour

type draftKey struct {
	principal uuid.UUID
	module    uuid.UUID
}

type draft struct {
	decisions *Decisions
	touched   time.Time
	version   uint64
}

// Drafts keeps one Decisions set per (principal, module). Safe for concurrent use.
type Drafts struct {
	mu     sync.Mutex
	ttl    time.Duration
	now    func() time.Time
	drafts map[draftKey]*draft
	// seq stamps every write, so a recreated draft never reuses a version
	seq uint64
}

// NewDrafts constructs a store; ttl <= 0 selects DefaultTTL.
func NewDrafts(ttl time.Duration) *Drafts {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Drafts{ttl: ttl, now: time.Now, drafts: make(map[draftKey]*draft)}
}

// WithClock replaces the time source.
func (s *Drafts) WithClock(now func() time.Time) *Drafts {
	s.now = now
	return s
}

func (s *Drafts) lookup(k draftKey, create bool) *draft {
	now := s.now()
	d, ok := s.drafts[k]
	if ok && now.Sub(d.touched) > s.ttl {
		delete(s.drafts, k)
		ok = false
	}
	if !ok {
		if !create {
			return nil
		}
		d = &draft{decisions: NewDecisions()}
		s.drafts[k] = d
	}
	d.touched = now
	return d
}

// Set upserts a decision in the principal's draft for module.
func (s *Drafts) Set(principal, module uuid.UUID, dec model.GradingDecision) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.lookup(draftKey{principal, module}, true)
	d.decisions.Set(dec)
	s.seq++
	d.version = s.seq
}

// SetAll upserts decs under one lock, as a single write.
func (s *Drafts) SetAll(principal, module uuid.UUID, decs []model.GradingDecision) {
	if len(decs) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.lookup(draftKey{principal, module}, true)
	for _, dec := range decs {
		d.decisions.Set(dec)
	}
	s.seq++
	d.version = s.seq
}

// All returns a snapshot of the draft, ordered by answer id.
func (s *Drafts) All(principal, module uuid.UUID) []model.GradingDecision {
	s.mu.Lock()
	defer s.mu.Unlock()
	decs, _ := s.snapshot(principal, module)
	return decs
}

// Snapshot returns the draft together with its version, for ClearIfUnchanged.
func (s *Drafts) Snapshot(principal, module uuid.UUID) ([]model.GradingDecision, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot(principal, module)
}

func (s *Drafts) snapshot(principal, module uuid.UUID) ([]model.GradingDecision, uint64) {
	d := s.lookup(draftKey{principal, module}, false)
	if d == nil {
		return []model.GradingDecision{}, 0
	}
	return d.decisions.All(), d.version
}

// ClearIfUnchanged drops the draft only if nothing was written since Snapshot returned version.
func (s *Drafts) ClearIfUnchanged(principal, module uuid.UUID, version uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := draftKey{principal, module}
	d, ok := s.drafts[k]
	if !ok {
		return true
	}
	if d.version != version {
		return false
	}
	delete(s.drafts, k)
	return true
}

// Clear drops the draft.
func (s *Drafts) Clear(principal, module uuid.UUID) {
	s.mu.Lock()
	delete(s.drafts, draftKey{principal, module})
	s.mu.Unlock()
}

// Sweep drops drafts idle for longer than the ttl.
func (s *Drafts) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	n := 0
	for k, d := range s.drafts {
		if now.Sub(d.touched) > s.ttl {
			delete(s.drafts, k)
			n++
		}
	}
	return n
}

// RunSweeper calls Sweep every interval until ctx is done.
func (s *Drafts) RunSweeper(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.Sweep()
		}
	}
}
