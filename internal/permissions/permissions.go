// Package permissions holds the static role to permission table used to
// authorise every tenant request.
//
// The table is fixed at compile time. Nothing in this package mutates it, so
// lookups are safe from any goroutine without locking.
package permissions

import (
	"slices"
	"sort"
	"strings"
)

// Role is a named bundle of permissions a user holds within an organization.
type Role string

const (
	RoleResident      Role = "resident"
	RoleStaff         Role = "staff"
	RoleCoordinator   Role = "coordinator"
	RoleManager       Role = "manager"
	RoleAdmin         Role = "admin"
	RolePlatformAdmin Role = "platform_admin"
)

// Permission is an "action:resource" tag, or the Wildcard.
type Permission string

// Wildcard grants every permission. Only platform_admin carries it.
const Wildcard Permission = "*"

const (
	ReadOwnProfile   Permission = "read:own_profile"
	UpdateOwnProfile Permission = "update:own_profile"
	ReadOwnIncidents Permission = "read:own_incidents"

	ReadDashboard   Permission = "read:dashboard"
	ReadResidents   Permission = "read:residents"
	UpdateResidents Permission = "update:residents"
	ReadCaseNotes   Permission = "read:case_notes"
	CreateCaseNotes Permission = "create:case_notes"
	ReadProperties  Permission = "read:properties"
	ReadIncidents   Permission = "read:incidents"
	CreateIncidents Permission = "create:incidents"
	ReadSearch      Permission = "read:search"

	CreateResidents  Permission = "create:residents"
	AssignProperties Permission = "assign:properties"
	UpdateIncidents  Permission = "update:incidents"
	ReadReports      Permission = "read:reports"

	DeleteResidents  Permission = "delete:residents"
	CreateProperties Permission = "create:properties"
	UpdateProperties Permission = "update:properties"
	DeleteProperties Permission = "delete:properties"
	CloseIncidents   Permission = "close:incidents"
	ExportReports    Permission = "export:reports"
	ReadFinancials   Permission = "read:financials"
	ReadActivity     Permission = "read:activity"
	InviteMembers    Permission = "invite:members"

	ManageMembers   Permission = "manage:members"
	ManageBilling   Permission = "manage:billing"
	UpdateSettings  Permission = "update:settings"
	DeleteIncidents Permission = "delete:incidents"
)

// Action returns the part before the colon ("read" for "read:residents").
func (p Permission) Action() string {
	action, _, _ := strings.Cut(string(p), ":")
	return action
}

// Resource returns the part after the colon, or "*" for the wildcard.
func (p Permission) Resource() string {
	if p == Wildcard {
		return "*"
	}
	_, resource, _ := strings.Cut(string(p), ":")
	return resource
}

var residentPermissions = []Permission{
	ReadOwnProfile,
	UpdateOwnProfile,
	ReadOwnIncidents,
}

var staffPermissions = []Permission{
	ReadDashboard,
	ReadResidents,
	UpdateResidents,
	ReadCaseNotes,
	CreateCaseNotes,
	ReadProperties,
	ReadIncidents,
	CreateIncidents,
	ReadSearch,
}

var coordinatorPermissions = concat(staffPermissions,
	CreateResidents,
	AssignProperties,
	UpdateIncidents,
	ReadReports,
)

var managerPermissions = concat(coordinatorPermissions,
	DeleteResidents,
	CreateProperties,
	UpdateProperties,
	DeleteProperties,
	CloseIncidents,
	ExportReports,
	ReadFinancials,
	ReadActivity,
	InviteMembers,
)

var adminPermissions = concat(managerPermissions,
	ManageMembers,
	ManageBilling,
	UpdateSettings,
	DeleteIncidents,
)

var table = map[Role][]Permission{
	RoleResident:      residentPermissions,
	RoleStaff:         staffPermissions,
	RoleCoordinator:   coordinatorPermissions,
	RoleManager:       managerPermissions,
	RoleAdmin:         adminPermissions,
	RolePlatformAdmin: {Wildcard},
}

// rank orders roles for CanManageRole. Residents sit outside the staff ladder.
var rank = map[Role]int{
	RoleResident:      0,
	RoleStaff:         1,
	RoleCoordinator:   2,
	RoleManager:       3,
	RoleAdmin:         4,
	RolePlatformAdmin: 5,
}

func concat(base []Permission, extra ...Permission) []Permission {
	out := make([]Permission, 0, len(base)+len(extra))
	out = append(out, base...)
	return append(out, extra...)
}

// Roles returns every known role, lowest privilege first.
func Roles() []Role {
	roles := make([]Role, 0, len(rank))
	for r := range rank {
		roles = append(roles, r)
	}
	sort.Slice(roles, func(i, j int) bool { return rank[roles[i]] < rank[roles[j]] })
	return roles
}

// ParseRole converts a string to a Role. ok is false for unknown roles.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	_, ok := table[r]
	return r, ok
}

// Valid reports whether r is one of the fixed roles.
func (r Role) Valid() bool {
	_, ok := table[r]
	return ok
}

// PermissionsFor returns a copy of the role's static permission set.
// Unknown roles get an empty, non-nil slice.
func PermissionsFor(role Role) []Permission {
	perms, ok := table[role]
	if !ok {
		return []Permission{}
	}
	return slices.Clone(perms)
}

// HasPermission reports whether role grants perm. The wildcard on
// platform_admin short-circuits every check.
func HasPermission(role Role, perm Permission) bool {
	perms, ok := table[role]
	if !ok {
		return false
	}
	for _, p := range perms {
		if p == Wildcard || p == perm {
			return true
		}
	}
	return false
}

// HasAnyPermission reports whether role grants at least one of perms.
func HasAnyPermission(role Role, perms ...Permission) bool {
	for _, p := range perms {
		if HasPermission(role, p) {
			return true
		}
	}
	return false
}

// HasAllPermissions reports whether role grants every one of perms.
func HasAllPermissions(role Role, perms ...Permission) bool {
	for _, p := range perms {
		if !HasPermission(role, p) {
			return false
		}
	}
	return true
}

// CanManageRole reports whether a member holding actor may assign or revoke
// target. Admins manage every role up to their own; platform_admin is only
// ever granted out of band.
func CanManageRole(actor, target Role) bool {
	if !actor.Valid() || !target.Valid() {
		return false
	}
	if target == RolePlatformAdmin {
		return false
	}
	if !HasPermission(actor, ManageMembers) {
		return false
	}
	return rank[target] <= rank[actor]
}

// CanInviteRole reports whether a member holding actor may invite someone
// into target. Inviters cannot grant more than they hold.
func CanInviteRole(actor, target Role) bool {
	if !actor.Valid() || !target.Valid() || target == RolePlatformAdmin {
		return false
	}
	if !HasPermission(actor, InviteMembers) {
		return false
	}
	return rank[target] <= rank[actor]
}
