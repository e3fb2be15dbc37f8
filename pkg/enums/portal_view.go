package enums

import "fmt"

// PortalView identifies the role-specific dashboard a session lands on.
type PortalView string

const (
	PortalStorefront       PortalView = "storefront"
	PortalCsrConsole       PortalView = "csr_console"
	PortalLogisticsConsole PortalView = "logistics_console"
	PortalTenantConsole    PortalView = "tenant_console"
	PortalAdminConsole     PortalView = "admin_console"
	PortalUnknown          PortalView = "unknown"
)

var validPortalViews = []PortalView{
	PortalStorefront,
	PortalCsrConsole,
	PortalLogisticsConsole,
	PortalTenantConsole,
	PortalAdminConsole,
	PortalUnknown,
}

// String implements fmt.Stringer.
func (p PortalView) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PortalView.
func (p PortalView) IsValid() bool {
	for _, candidate := range validPortalViews {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePortalView converts raw input into a PortalView.
func ParsePortalView(value string) (PortalView, error) {
	for _, candidate := range validPortalViews {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid portal view %q", value)
}
