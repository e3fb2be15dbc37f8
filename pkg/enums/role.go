package enums

import (
	"fmt"
	"strings"
)

// Role is the account role issued by the auth service.
type Role string

const (
	RoleCustomer       Role = "CUSTOMER"
	RoleCSR            Role = "CSR"
	RoleStoreManager   Role = "STORE_MANAGER"
	RoleAdmin          Role = "ADMIN"
	RoleLogistics      Role = "LOGISTICS"
	RoleStoreLogistics Role = "STORE_LOGISTICS"
	RoleTenantAdmin    Role = "TENANT_ADMIN"
)

var validRoles = []Role{
	RoleCustomer,
	RoleCSR,
	RoleStoreManager,
	RoleAdmin,
	RoleLogistics,
	RoleStoreLogistics,
	RoleTenantAdmin,
}

// String implements fmt.Stringer.
func (r Role) String() string {
	return string(r)
}

// IsValid reports whether the value is a known Role.
func (r Role) IsValid() bool {
	for _, candidate := range validRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRole converts raw input into a Role. The auth service historically
// issued Spring-style "ROLE_" prefixed values; those normalize to the same
// role.
func ParseRole(value string) (Role, error) {
	normalized := strings.ToUpper(strings.TrimSpace(value))
	normalized = strings.TrimPrefix(normalized, "ROLE_")
	for _, candidate := range validRoles {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid role %q", value)
}

// Roles returns the full set of known roles.
func Roles() []Role {
	out := make([]Role, len(validRoles))
	copy(out, validRoles)
	return out
}
