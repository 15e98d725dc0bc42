// Package testutil holds helpers shared by package tests.
package testutil

import (
	"os"
	"testing"
)

// WithEnv points key at val for the duration of a test scope and returns
// the cleanup that restores the previous value. Tests use it to redirect
// HOME so config reads and writes stay inside t.TempDir().
func WithEnv(t *testing.T, key, val string) func() {
	t.Helper()
	old, had := os.LookupEnv(key)
	if val == "" {
		_ = os.Unsetenv(key)
	} else {
		_ = os.Setenv(key, val)
	}
	return func() {
		if had {
			_ = os.Setenv(key, old)
		} else {
			_ = os.Unsetenv(key)
		}
	}
}
