package approval

import (
	"testing"

	"backend/pkg/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pendingState(amount string, role Role, divisionID *uuid.UUID) RequestState {
	return RequestState{
		Status:       StatusPending,
		RequiredRole: role,
		DivisionID:   divisionID,
		Amount:       decimal.RequireFromString(amount),
	}
}

func approver(role Role, divisionID *uuid.UUID) Actor {
	return Actor{ID: uuid.New(), Role: role, DivisionID: divisionID}
}

func TestActApproveWithinAuthority(t *testing.T) {
	division := uuid.New()
	state := pendingState("50.00", RoleTeamLead, &division)

	outcome, err := Act(state, approver(RoleTeamLead, &division), ActionApproved)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, outcome.Status)
	assert.Equal(t, RoleTeamLead, outcome.RequiredRole)
	assert.False(t, outcome.Escalated)
}

func TestActApproveEscalates(t *testing.T) {
	division := uuid.New()
	state := pendingState("150.00", RoleTeamLead, &division)

	outcome, err := Act(state, approver(RoleTeamLead, &division), ActionApproved)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, outcome.Status)
	assert.Equal(t, RoleDivisionManager, outcome.RequiredRole)
	assert.True(t, outcome.Escalated)
}

// A 250.00 request needs every tier: two escalating approvals and a final
// one from the sales director.
func TestActFullEscalationChain(t *testing.T) {
	division := uuid.New()
	state := pendingState("250.00", RoleTeamLead, &division)

	outcome, err := Act(state, approver(RoleTeamLead, &division), ActionApproved)
	require.NoError(t, err)
	require.True(t, outcome.Escalated)
	require.Equal(t, RoleDivisionManager, outcome.RequiredRole)

	state.RequiredRole = outcome.RequiredRole
	outcome, err = Act(state, approver(RoleDivisionManager, &division), ActionApproved)
	require.NoError(t, err)
	require.True(t, outcome.Escalated)
	require.Equal(t, RoleSalesDirector, outcome.RequiredRole)

	state.RequiredRole = outcome.RequiredRole
	outcome, err = Act(state, approver(RoleSalesDirector, nil), ActionApproved)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, outcome.Status)
	assert.False(t, outcome.Escalated)
}

func TestActRejectIsTerminal(t *testing.T) {
	division := uuid.New()
	state := pendingState("150.00", RoleDivisionManager, &division)

	outcome, err := Act(state, approver(RoleDivisionManager, &division), ActionRejected)
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, outcome.Status)
	assert.Equal(t, RoleDivisionManager, outcome.RequiredRole)
	assert.False(t, outcome.Escalated)
}

func TestActForbidden(t *testing.T) {
	division := uuid.New()
	otherDivision := uuid.New()

	testCases := []struct {
		name  string
		state RequestState
		actor Actor
	}{
		{
			name: "already approved",
			state: RequestState{
				Status:       StatusApproved,
				RequiredRole: RoleTeamLead,
				DivisionID:   &division,
				Amount:       decimal.RequireFromString("50.00"),
			},
			actor: approver(RoleTeamLead, &division),
		},
		{
			name: "already rejected",
			state: RequestState{
				Status:       StatusRejected,
				RequiredRole: RoleTeamLead,
				DivisionID:   &division,
				Amount:       decimal.RequireFromString("50.00"),
			},
			actor: approver(RoleTeamLead, &division),
		},
		{
			name:  "role does not match required tier",
			state: pendingState("50.00", RoleTeamLead, &division),
			actor: approver(RoleDivisionManager, &division),
		},
		{
			name:  "sales director cannot skip the ladder",
			state: pendingState("250.00", RoleTeamLead, &division),
			actor: approver(RoleSalesDirector, nil),
		},
		{
			name:  "division mismatch",
			state: pendingState("50.00", RoleTeamLead, &division),
			actor: approver(RoleTeamLead, &otherDivision),
		},
		{
			name:  "scoped approver with no division",
			state: pendingState("50.00", RoleTeamLead, &division),
			actor: approver(RoleTeamLead, nil),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Act(tc.state, tc.actor, ActionApproved)
			assert.ErrorIs(t, err, apperror.ErrForbidden)
		})
	}
}

func TestActDirectorUnscoped(t *testing.T) {
	// The sales director approves across divisions, even when the
	// request has no division snapshot.
	state := pendingState("500.00", RoleSalesDirector, nil)

	outcome, err := Act(state, approver(RoleSalesDirector, nil), ActionApproved)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, outcome.Status)
}

func TestParseAction(t *testing.T) {
	action, err := ParseAction("approved")
	require.NoError(t, err)
	assert.Equal(t, ActionApproved, action)

	action, err = ParseAction("rejected")
	require.NoError(t, err)
	assert.Equal(t, ActionRejected, action)

	_, err = ParseAction("maybe")
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestParseRole(t *testing.T) {
	role, err := ParseRole("division_manager")
	require.NoError(t, err)
	assert.Equal(t, RoleDivisionManager, role)
	assert.True(t, role.IsApprover())
	assert.True(t, role.DivisionScoped())

	role, err = ParseRole("sales_director")
	require.NoError(t, err)
	assert.True(t, role.IsApprover())
	assert.False(t, role.DivisionScoped())

	role, err = ParseRole("agent")
	require.NoError(t, err)
	assert.False(t, role.IsApprover())

	_, err = ParseRole("superuser")
	assert.Error(t, err)
}
