package enums

import "fmt"

// AuthScheme selects how backend requests carry credentials. The deployed
// service variants accept either a bearer token or HTTP Basic credentials.
type AuthScheme string

const (
	AuthSchemeBearer AuthScheme = "bearer"
	AuthSchemeBasic  AuthScheme = "basic"
	AuthSchemeNone   AuthScheme = "none"
)

var validAuthSchemes = []AuthScheme{
	AuthSchemeBearer,
	AuthSchemeBasic,
	AuthSchemeNone,
}

// String implements fmt.Stringer.
func (a AuthScheme) String() string {
	return string(a)
}

// IsValid reports whether the value is a known AuthScheme.
func (a AuthScheme) IsValid() bool {
	for _, candidate := range validAuthSchemes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAuthScheme converts raw input into an AuthScheme.
func ParseAuthScheme(value string) (AuthScheme, error) {
	for _, candidate := range validAuthSchemes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid auth scheme %q", value)
}
