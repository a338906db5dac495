// Copyright (c) 2026 CropDesk Authors <dev@cropdesk.app>
// All rights reserved. See LICENSE for details.

package models

import (
	"errors"
	"fmt"
)

// State is the lifecycle phase of an edit record. The flow is
// uploaded → estimating → estimated → editing ⇄ saved → accepted | rejected,
// with rejected records re-acceptable later.
type State string

const (
	StateUploaded   State = "uploaded"
	StateEstimating State = "estimating"
	StateEstimated  State = "estimated"
	StateEditing    State = "editing"
	StateSaved      State = "saved"
	StateAccepted   State = "accepted"
	StateRejected   State = "rejected"
)

// ErrInvalidTransition is wrapped by every transition rejection so callers
// can match with errors.Is.
var ErrInvalidTransition = errors.New("invalid state transition")

// transitions is the full set of legal moves. Acceptance always passes
// through saved: a record with no committed crop can never jump straight to
// accepted, which is what makes "accept implies save" enforceable upstream.
var transitions = map[State][]State{
	StateUploaded:   {StateEstimating},
	StateEstimating: {StateEstimated},
	StateEstimated:  {StateEditing, StateSaved, StateRejected},
	StateEditing:    {StateEditing, StateSaved, StateRejected},
	StateSaved:      {StateSaved, StateEditing, StateAccepted, StateRejected},
	StateAccepted:   {StateEditing, StateSaved, StateRejected},
	StateRejected:   {StateEditing, StateSaved, StateAccepted},
}

// Valid reports whether s is a known state.
func (s State) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// CanTransition reports whether moving from s to next is legal.
func (s State) CanTransition(next State) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Transition returns next if the move is legal, or an error wrapping
// ErrInvalidTransition otherwise. The receiver is never mutated; callers
// store the returned state.
func (s State) Transition(next State) (State, error) {
	if !s.CanTransition(next) {
		return s, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s, next)
	}
	return next, nil
}

// Terminal reports whether the record is excluded from export. Rejected
// records stay addressable and can be accepted again later.
func (s State) Terminal() bool {
	return s == StateRejected
}
