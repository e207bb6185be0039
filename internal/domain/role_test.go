package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRole_Can(t *testing.T) {
	tests := []struct {
		role       Role
		capability Capability
		want       bool
	}{
		{RoleStudent, CapViewDashboard, false},
		{RolePOSManager, CapViewDashboard, true},
		{RolePOSManager, CapManageSchedule, false},
		{RoleCafeteriaManager, CapManageSchedule, true},
		{RoleCafeteriaManager, CapManageBudget, true},
		{RoleCafeteriaManager, CapViewInsights, false},
		{RoleUniversityAdmin, CapViewInsights, true},
		{RoleUniversityAdmin, CapManageBudget, false},
		{Role("intruder"), CapViewDashboard, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.role.Can(tt.capability),
			"%s / %s", tt.role, tt.capability)
	}
}

func TestRole_Valid(t *testing.T) {
	assert.True(t, RoleStudent.Valid())
	assert.True(t, RoleCafeteriaManager.Valid())
	assert.False(t, Role("intruder").Valid())
	assert.False(t, Role("").Valid())
}
