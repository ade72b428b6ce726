package testutil

import (
	"os"
	"testing"
)

// SkipIfShort skips the test if running in short mode
func SkipIfShort(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
}

// VaultAddrEnv names the environment variable integration tests read to
// locate a live Vault server.
const VaultAddrEnv = "LEASEKEEPER_VAULT_ADDR"

// RequireVault skips the test unless LEASEKEEPER_VAULT_ADDR points at a
// reachable Vault server. It returns the configured address.
func RequireVault(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	addr := os.Getenv(VaultAddrEnv)
	if addr == "" {
		t.Skipf("skipping integration test (set %s to run)", VaultAddrEnv)
	}
	return addr
}
