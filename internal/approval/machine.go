package approval

import (
	"fmt"

	"backend/pkg/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status enum constants for a request's lifecycle. Approved and rejected
// are terminal.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Action is what an approver does to a pending request.
type Action string

const (
	ActionApproved Action = "approved"
	ActionRejected Action = "rejected"
)

// ParseAction validates a raw action string from a request payload.
func ParseAction(s string) (Action, error) {
	switch Action(s) {
	case ActionApproved, ActionRejected:
		return Action(s), nil
	}
	return "", fmt.Errorf("%w: action must be approved or rejected", apperror.ErrValidation)
}

// Actor is the authenticated user attempting a transition.
type Actor struct {
	ID         uuid.UUID
	Role       Role
	DivisionID *uuid.UUID
}

// RequestState is the slice of a request the transition function needs.
type RequestState struct {
	Status       Status
	RequiredRole Role
	DivisionID   *uuid.UUID
	Amount       decimal.Decimal
}

// Outcome is the state the request moves to after a successful transition.
type Outcome struct {
	Status       Status
	RequiredRole Role
	// Escalated is true when the approval advanced required_role instead
	// of finalizing the request.
	Escalated bool
}

// Act applies one approver action to a pending request and returns the
// next state. It never mutates its inputs and performs no I/O; persistence
// and notification happen around it.
//
// Preconditions, each failing with ErrForbidden and no state change:
// the request must still be pending, the actor's role must equal the
// request's current required_role, and division-scoped approvers must
// belong to the request's division.
func Act(state RequestState, actor Actor, action Action) (Outcome, error) {
	if state.Status != StatusPending {
		return Outcome{}, fmt.Errorf("%w: request is already %s", apperror.ErrForbidden, state.Status)
	}
	if actor.Role != state.RequiredRole {
		return Outcome{}, fmt.Errorf("%w: request awaits %s", apperror.ErrForbidden, state.RequiredRole)
	}
	if actor.Role.DivisionScoped() {
		if actor.DivisionID == nil || state.DivisionID == nil || *actor.DivisionID != *state.DivisionID {
			return Outcome{}, fmt.Errorf("%w: request belongs to another division", apperror.ErrForbidden)
		}
	}

	if action == ActionRejected {
		return Outcome{Status: StatusRejected, RequiredRole: state.RequiredRole}, nil
	}

	if withinAuthority(actor.Role, state.Amount) {
		return Outcome{Status: StatusApproved, RequiredRole: state.RequiredRole}, nil
	}

	idx := escalationIndex(state.RequiredRole)
	if idx < 0 || idx+1 >= len(EscalationOrder) {
		// The last tier has unlimited authority, so this is unreachable
		// unless required_role was corrupted outside the machine.
		return Outcome{}, fmt.Errorf("%w: request has invalid required role %q", apperror.ErrForbidden, state.RequiredRole)
	}

	return Outcome{
		Status:       StatusPending,
		RequiredRole: EscalationOrder[idx+1],
		Escalated:    true,
	}, nil
}
