package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoleValid(t *testing.T) {
	assert.True(t, RoleUser.Valid())
	assert.True(t, RoleCollaborator.Valid())
	assert.True(t, RoleAdmin.Valid())
	assert.False(t, Role("").Valid())
	assert.False(t, Role("superadmin").Valid())
}

func TestRolePredicates(t *testing.T) {
	tests := []struct {
		role              Role
		canModerate       bool
		canCreateAuctions bool
	}{
		{RoleUser, false, false},
		{RoleCollaborator, false, true},
		{RoleAdmin, true, true},
		{Role(""), false, false},
		{Role("unknown"), false, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			assert.Equal(t, tt.canModerate, tt.role.CanModerate())
			assert.Equal(t, tt.canCreateAuctions, tt.role.CanCreateAuctions())
		})
	}
}

func TestVisibleRegions(t *testing.T) {
	tests := []struct {
		name    string
		role    Role
		regions []Region
	}{
		{
			name:    "admin_sees_admin_and_collaborator_regions",
			role:    RoleAdmin,
			regions: []Region{RegionAdmin, RegionAdminCollaborator},
		},
		{
			name:    "collaborator_sees_collaborator_region",
			role:    RoleCollaborator,
			regions: []Region{RegionAdminCollaborator},
		},
		{
			name:    "user_sees_user_region",
			role:    RoleUser,
			regions: []Region{RegionUserOnly},
		},
		{
			name:    "unknown_role_sees_nothing",
			role:    Role("moderator"),
			regions: nil,
		},
		{
			name:    "empty_role_sees_nothing",
			role:    Role(""),
			regions: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.regions, VisibleRegions(tt.role))
		})
	}
}

func TestRegionVisible(t *testing.T) {
	assert.True(t, RegionVisible(RoleAdmin, RegionAdmin))
	assert.False(t, RegionVisible(RoleAdmin, RegionUserOnly))
	assert.False(t, RegionVisible(RoleCollaborator, RegionAdmin))
	assert.True(t, RegionVisible(RoleCollaborator, RegionAdminCollaborator))
	assert.False(t, RegionVisible(RoleUser, RegionAdmin))
	assert.False(t, RegionVisible(Role("unknown"), RegionAdmin))
}
