package approval

import "fmt"

// Role is a closed set of user roles. The three approver roles form the
// escalation ladder; agent and admin never act on pending requests.
type Role string

const (
	RoleAgent           Role = "agent"
	RoleTeamLead        Role = "team_lead"
	RoleDivisionManager Role = "division_manager"
	RoleSalesDirector   Role = "sales_director"
	RoleAdmin           Role = "admin"
)

// EscalationOrder is the fixed sequence required_role advances through.
// Adding a tier means inserting here and in the threshold bands.
var EscalationOrder = []Role{RoleTeamLead, RoleDivisionManager, RoleSalesDirector}

var validRoles = map[Role]bool{
	RoleAgent:           true,
	RoleTeamLead:        true,
	RoleDivisionManager: true,
	RoleSalesDirector:   true,
	RoleAdmin:           true,
}

// ParseRole converts a raw string (JWT claim, request payload) into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !validRoles[r] {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// IsApprover reports whether the role may act on pending requests.
func (r Role) IsApprover() bool {
	for _, a := range EscalationOrder {
		if r == a {
			return true
		}
	}
	return false
}

// DivisionScoped reports whether the role only sees requests from its own
// division. The sales director approves across all divisions.
func (r Role) DivisionScoped() bool {
	return r == RoleTeamLead || r == RoleDivisionManager
}

// escalationIndex returns the position of r in the ladder, or -1.
func escalationIndex(r Role) int {
	for i, a := range EscalationOrder {
		if r == a {
			return i
		}
	}
	return -1
}
