// Package environment reads configuration overrides from the process
// environment. Every helper degrades to a caller-supplied default instead of
// failing, so a typo in an optional variable never prevents startup.
package environment

import (
	"os"
	"time"
)

// StringOr returns the named variable's value, or def when it is unset or
// empty.
func StringOr(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}

// DurationOr parses the named variable as a time.Duration ("30s", "5m").
// Returns def when the variable is unset, empty, or unparsable.
func DurationOr(name string, def time.Duration) time.Duration {
	v := os.Getenv(name)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
