package portal

import (
	"fmt"

	"github.com/retailhub/portal-gateway/pkg/enums"
)

// viewByRole is the canonical role-to-portal assignment. Every known role
// lands on exactly one portal; the disjointness is enforced at init so a
// future role addition cannot silently double-book a console.
var viewByRole = map[enums.Role]enums.PortalView{
	enums.RoleCustomer:       enums.PortalStorefront,
	enums.RoleCSR:            enums.PortalCsrConsole,
	enums.RoleStoreManager:   enums.PortalCsrConsole,
	enums.RoleLogistics:      enums.PortalLogisticsConsole,
	enums.RoleStoreLogistics: enums.PortalLogisticsConsole,
	enums.RoleTenantAdmin:    enums.PortalTenantConsole,
	enums.RoleAdmin:          enums.PortalAdminConsole,
}

func init() {
	if err := validateAssignments(); err != nil {
		panic(err)
	}
}

func validateAssignments() error {
	for _, role := range enums.Roles() {
		view, ok := viewByRole[role]
		if !ok {
			return fmt.Errorf("portal: role %s has no portal assignment", role)
		}
		if !view.IsValid() || view == enums.PortalUnknown {
			return fmt.Errorf("portal: role %s maps to invalid portal %q", role, view)
		}
	}
	return nil
}

// For resolves the portal view a role lands on. Unknown or unparseable
// roles resolve to PortalUnknown rather than failing; the caller decides
// whether that denies login or renders a dead-end page.
func For(role enums.Role) enums.PortalView {
	if view, ok := viewByRole[role]; ok {
		return view
	}
	return enums.PortalUnknown
}

// ForRawRole resolves a portal from the raw role string the auth service
// returned, tolerating the legacy "ROLE_" prefix.
func ForRawRole(raw string) enums.PortalView {
	role, err := enums.ParseRole(raw)
	if err != nil {
		return enums.PortalUnknown
	}
	return For(role)
}

// RolesFor returns every role that lands on the given portal view.
func RolesFor(view enums.PortalView) []enums.Role {
	var roles []enums.Role
	for _, role := range enums.Roles() {
		if viewByRole[role] == view {
			roles = append(roles, role)
		}
	}
	return roles
}
