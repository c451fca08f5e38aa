package shared

// Role is the closed enumeration of account roles. Checks go through the
// predicates below rather than ad hoc string comparisons so a typo cannot
// silently grant or deny access.
type Role string

const (
	RoleUser         Role = "user"
	RoleCollaborator Role = "collaborator"
	RoleAdmin        Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleCollaborator, RoleAdmin:
		return true
	}
	return false
}

// CanModerate reports whether the role may delete auctions, review
// requests, and receive notifications.
func (r Role) CanModerate() bool {
	return r == RoleAdmin
}

// CanCreateAuctions reports whether the role may create auctions directly,
// bypassing the request workflow.
func (r Role) CanCreateAuctions() bool {
	return r == RoleAdmin || r == RoleCollaborator
}

// Region tags a UI area with the roles allowed to see it.
type Region string

const (
	RegionAdmin             Region = "admin-only"
	RegionAdminCollaborator Region = "admin-collaborator-only"
	RegionUserOnly          Region = "user-only"
)

// VisibleRegions maps a role to the regions it may see. Everything defaults
// to hidden: an unrecognized or empty role gets nothing privileged.
func VisibleRegions(r Role) []Region {
	switch r {
	case RoleAdmin:
		return []Region{RegionAdmin, RegionAdminCollaborator}
	case RoleCollaborator:
		return []Region{RegionAdminCollaborator}
	case RoleUser:
		return []Region{RegionUserOnly}
	}
	return nil
}

// RegionVisible reports whether a single region is shown for the role.
func RegionVisible(r Role, region Region) bool {
	for _, v := range VisibleRegions(r) {
		if v == region {
			return true
		}
	}
	return false
}
