package testutil

import (
	"os"
	"testing"
)

// RequireTestEnvironment fails the test unless GO_ENV=test. The suites run
// migrations and truncate tables, so pointing them at a dev database by
// accident must be a hard stop.
func RequireTestEnvironment(t *testing.T) {
	t.Helper()

	if env := os.Getenv("GO_ENV"); env != "test" {
		t.Fatalf("tests must run with GO_ENV=test (got %q)", env)
	}
}

// ForceTestEnvironment sets GO_ENV=test for the current process. Suite
// setup calls this before loading config so the test env file is picked.
func ForceTestEnvironment(t *testing.T) {
	t.Helper()

	if err := os.Setenv("GO_ENV", "test"); err != nil {
		t.Fatalf("failed to set GO_ENV=test: %v", err)
	}
}

// RequireTestEnvironmentOrSkip skips instead of failing. For tests that
// need external services (a live Auth0 tenant, a running postgres) and are
// optional outside CI.
func RequireTestEnvironmentOrSkip(t *testing.T) {
	t.Helper()

	if env := os.Getenv("GO_ENV"); env != "test" {
		t.Skipf("skipping: GO_ENV must be 'test' (current: %q)", env)
	}
}
