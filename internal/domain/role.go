package domain

// Role identifies the kind of user driving a request.
type Role string

const (
	RoleStudent          Role = "student"
	RolePOSManager       Role = "pos_manager"
	RoleCafeteriaManager Role = "cafeteria_manager"
	RoleUniversityAdmin  Role = "university_admin"
)

// Capability is a coarse permission checked by the HTTP layer before
// dispatching to a ledger operation.
type Capability string

const (
	CapManageSchedule Capability = "manage_schedule"
	CapManageBudget   Capability = "manage_budget"
	CapViewDashboard  Capability = "view_dashboard"
	CapViewInsights   Capability = "view_insights"
)

var roleCapabilities = map[Role][]Capability{
	RoleStudent:          {},
	RolePOSManager:       {CapViewDashboard},
	RoleCafeteriaManager: {CapManageSchedule, CapManageBudget, CapViewDashboard},
	RoleUniversityAdmin:  {CapViewDashboard, CapViewInsights},
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	_, ok := roleCapabilities[r]
	return ok
}

// Can reports whether the role carries the given capability.
// Unknown roles carry nothing.
func (r Role) Can(c Capability) bool {
	for _, cap := range roleCapabilities[r] {
		if cap == c {
			return true
		}
	}
	return false
}
