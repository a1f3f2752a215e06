package staleserve

import (
	"context"
	"net/http"
)

// StatusHeader is the response header reflecting the cache outcome
// for a request.
const StatusHeader = "X-Cache-Status"

// Outcome is the terminal per-request cache outcome label.
type Outcome string

const (
	OutcomeHit          Outcome = "HIT"
	OutcomeMiss         Outcome = "MISS"
	OutcomeFresh        Outcome = "FRESH"
	OutcomeStale        Outcome = "STALE"
	OutcomeRevalidating Outcome = "REVALIDATING"
	OutcomeBypass       Outcome = "BYPASS"
)

// State is the per-request cache state record, attached to the
// request context for introspection by the wrapped handler or a
// logging layer.
type State struct {
	Hit          bool
	Stale        bool
	Revalidating bool
	Miss         bool
	Bypass       bool
	Fresh        bool
	// Store is the kind of the active backend.
	Store string
}

// set marks exactly one outcome flag, clearing the others.
func (s *State) set(outcome Outcome) {
	s.reset()
	switch outcome {
	case OutcomeHit:
		s.Hit = true
	case OutcomeMiss:
		s.Miss = true
	case OutcomeFresh:
		s.Fresh = true
	case OutcomeStale:
		// a stale hit is immediately followed by revalidation
		s.Stale = true
		s.Revalidating = true
	case OutcomeRevalidating:
		s.Revalidating = true
	case OutcomeBypass:
		s.Bypass = true
	}
}

// reset returns the record to the neutral all-false state, so a
// completed revalidation never leaks into another request's
// observation.
func (s *State) reset() {
	s.Hit = false
	s.Stale = false
	s.Revalidating = false
	s.Miss = false
	s.Bypass = false
	s.Fresh = false
}

type stateCtxKey struct{}

func withState(r *http.Request, s *State) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), stateCtxKey{}, s))
}

// StateFromRequest returns the cache state record attached to the
// request, or nil if the request did not pass through the middleware.
func StateFromRequest(r *http.Request) *State {
	s, _ := r.Context().Value(stateCtxKey{}).(*State)
	return s
}
