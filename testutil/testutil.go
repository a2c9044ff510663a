package testutil

import (
	"os"
	"testing"
)

// RequireTestEnvironment fails the test unless GO_ENV=test, so a suite that
// calls config.Load never reads a development or production .env file.
func RequireTestEnvironment(t *testing.T) {
	t.Helper()
	if env := os.Getenv("GO_ENV"); env != "test" {
		t.Fatalf("refusing to run with GO_ENV=%q, set GO_ENV=test", env)
	}
}

// MustSetTestEnvironment switches GO_ENV to test for the duration of t.
// An explicit non-test GO_ENV is treated as a mistake and fails the test.
func MustSetTestEnvironment(t *testing.T) {
	t.Helper()
	if env := os.Getenv("GO_ENV"); env != "" && env != "test" {
		t.Fatalf("refusing to run with GO_ENV=%q, set GO_ENV=test", env)
	}
	t.Setenv("GO_ENV", "test")
	RequireTestEnvironment(t)
}
