// Package env reads process environment variables outside the structured
// config path, for knobs like LOG_FORMAT that matter before config loads.
package env

import "os"

// Get returns the named environment variable, or fallback when it is
// unset or empty.
func Get(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
