// Package testutil provides helpers shared by the CRM integration tests:
// caller scopes, deterministic IDs, polling assertions and JSON plumbing
// for driving the HTTP API.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/bizconsult/crm/internal/domain/identity"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// NewTestUUID generates a deterministic UUID for testing.
// Uses the provided seed string to create a reproducible UUID.
func NewTestUUID(seed string) uuid.UUID {
	namespace := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	return uuid.NewSHA1(namespace, []byte(seed))
}

// StaffContext returns a context scoped to a staff member
func StaffContext(userID uuid.UUID, teamID *uuid.UUID) context.Context {
	return identity.WithScope(context.Background(), identity.AccessScope{
		UserID: userID,
		Role:   identity.RoleStaff,
		TeamID: teamID,
	})
}

// LeaderContext returns a context scoped to a team leader
func LeaderContext(userID uuid.UUID, teamID uuid.UUID) context.Context {
	return identity.WithScope(context.Background(), identity.AccessScope{
		UserID: userID,
		Role:   identity.RoleTeamLeader,
		TeamID: &teamID,
	})
}

// AdminContext returns a context with unrestricted scope
func AdminContext() context.Context {
	return identity.WithScope(context.Background(), identity.SystemScope())
}

// ContextWithTimeout creates a context with a timeout for tests and
// cancels it when the test ends.
func ContextWithTimeout(t *testing.T, timeout time.Duration) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	t.Cleanup(cancel)
	return ctx
}

// RequireEventually retries condition until it passes or the timeout expires.
func RequireEventually(t *testing.T, condition func() bool, timeout, interval time.Duration, msgAndArgs ...any) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(interval)
	}

	require.Fail(t, "Condition not met within timeout", msgAndArgs...)
}
