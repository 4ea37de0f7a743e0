package approval

import "github.com/shopspring/decimal"

// thresholdBands maps each division-scoped approver tier to the largest
// amount it may finalize on its own (inclusive). Amounts above the last
// band always reach the sales director. Creation and escalation both read
// this table, so the two can never drift apart.
var thresholdBands = []struct {
	Limit decimal.Decimal
	Role  Role
}{
	{decimal.NewFromInt(99), RoleTeamLead},
	{decimal.NewFromInt(199), RoleDivisionManager},
}

// RequiredRoleForAmount returns the first approver role a request of the
// given total must be routed to. Amount is assumed non-negative.
func RequiredRoleForAmount(amount decimal.Decimal) Role {
	for _, band := range thresholdBands {
		if amount.LessThanOrEqual(band.Limit) {
			return band.Role
		}
	}
	return RoleSalesDirector
}

// withinAuthority reports whether an approver at the given tier may
// finalize a request of the given amount without escalating further.
// The last tier in the ladder can finalize anything.
func withinAuthority(role Role, amount decimal.Decimal) bool {
	for _, band := range thresholdBands {
		if band.Role == role {
			return amount.LessThanOrEqual(band.Limit)
		}
	}
	return true
}
