package utils

import "testing"

func TestClaimScriptsCompile(t *testing.T) {
	// Compile-time smoke test: scripts should be initialized.
	if claimAcquireScript == nil || claimReleaseScript == nil {
		t.Fatalf("expected scripts to be initialized")
	}
}

func TestAcquireClaim_RejectsBadInput(t *testing.T) {
	if _, err := AcquireClaim(nil, nil, "k", "o", 1); err == nil {
		t.Fatalf("expected error for nil client")
	}
	if err := ReleaseClaim(nil, nil, "k", "o"); err == nil {
		t.Fatalf("expected error for nil client")
	}
}
