// Package grading holds examiners' per-answer grading decisions until they are submitted.
package grading

import (
	"bytes"
	"sort"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/supermock-admin/internal/model"
)

// Decisions maps answer id to the latest decision for it. Not safe for concurrent use.
type Decisions struct {
	m map[uuid.UUID]model.GradingDecision
}

// NewDecisions returns an empty set.
func NewDecisions() *Decisions {
	return &Decisions{m: make(map[uuid.UUID]model.GradingDecision)}
}

// Set upserts the decision for d.AnswerID.
func (d *Decisions) Set(dec model.GradingDecision) {
	d.m[dec.AnswerID] = dec
}

// Get returns the decision for answerID.
func (d *Decisions) Get(answerID uuid.UUID) (model.GradingDecision, bool) {
	dec, ok := d.m[answerID]
	return dec, ok
}

// All returns the decisions ordered by answer id.
func (d *Decisions) All() []model.GradingDecision {
	out := make([]model.GradingDecision, 0, len(d.m))
	for _, dec := range d.m {
		out = append(out, dec)
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i].AnswerID.Bytes(), out[j].AnswerID.Bytes()) < 0
	})
	return out
}

// Clear removes every decision.
func (d *Decisions) Clear() {
	clear(d.m)
}

// Len returns the number of decisions.
func (d *Decisions) Len() int { return len(d.m) }

// Missing returns the answer ids without a decision, in input order.
func (d *Decisions) Missing(answerIDs []uuid.UUID) []uuid.UUID {
	var out []uuid.UUID
	for _, id := range answerIDs {
		if _, ok := d.m[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}

// Unknown returns decided answer ids that are not in answerIDs.
func (d *Decisions) Unknown(answerIDs []uuid.UUID) []uuid.UUID {
	known := make(map[uuid.UUID]struct{}, len(answerIDs))
	for _, id := range answerIDs {
		known[id] = struct{}{}
	}
	var out []uuid.UUID
	for _, dec := range d.All() {
		if _, ok := known[dec.AnswerID]; !ok {
			out = append(out, dec.AnswerID)
		}
	}
	return out
}
