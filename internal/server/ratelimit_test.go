package server

import (
	"testing"
	"time"

	"github.com/spirekeep/idlespire/internal/config"
)

func testRateLimiter(t *testing.T, cfg config.RateLimitConfig) *LoginRateLimiter {
	t.Helper()
	rl := NewLoginRateLimiter(cfg)
	t.Cleanup(rl.Stop)
	return rl
}

func TestRateLimiterLocksAfterMaxAttempts(t *testing.T) {
	rl := testRateLimiter(t, config.RateLimitConfig{
		MaxAttempts: 3, LockoutSeconds: 30, MaxLockoutSeconds: 300,
	})

	for i := 0; i < 2; i++ {
		if locked, _ := rl.RecordFailure("10.0.0.1"); locked {
			t.Fatalf("failure %d must not lock yet", i+1)
		}
	}
	locked, dur := rl.RecordFailure("10.0.0.1")
	if !locked {
		t.Fatal("third failure must trigger the lockout")
	}
	if dur != 30*time.Second {
		t.Errorf("first lockout should be 30s, got %v", dur)
	}

	if isLocked, remaining := rl.IsLocked("10.0.0.1"); !isLocked || remaining <= 0 {
		t.Error("IsLocked must report the active lockout")
	}
	if isLocked, _ := rl.IsLocked("10.0.0.2"); isLocked {
		t.Error("other IPs must be unaffected")
	}
}

func TestRateLimiterExponentialBackoff(t *testing.T) {
	rl := testRateLimiter(t, config.RateLimitConfig{
		MaxAttempts: 1, LockoutSeconds: 30, MaxLockoutSeconds: 300,
	})

	expected := []time.Duration{
		30 * time.Second,
		60 * time.Second,
		120 * time.Second,
		240 * time.Second,
		300 * time.Second, // capped
		300 * time.Second,
	}
	for i, want := range expected {
		locked, dur := rl.RecordFailure("10.0.0.1")
		if !locked {
			t.Fatalf("offense %d must lock immediately with MaxAttempts 1", i+1)
		}
		if dur != want {
			t.Errorf("offense %d: expected lockout %v, got %v", i+1, want, dur)
		}
	}
}

func TestRateLimiterSuccessClearsHistory(t *testing.T) {
	rl := testRateLimiter(t, config.RateLimitConfig{
		MaxAttempts: 2, LockoutSeconds: 30, MaxLockoutSeconds: 300,
	})

	rl.RecordFailure("10.0.0.1")
	rl.RecordSuccess("10.0.0.1")

	// A cleared IP gets the full allowance again.
	if locked, _ := rl.RecordFailure("10.0.0.1"); locked {
		t.Error("success must reset the failure count")
	}
}

func TestRateLimiterDefaults(t *testing.T) {
	rl := testRateLimiter(t, config.RateLimitConfig{})

	// Zero config falls back to 5 attempts / 30s.
	for i := 0; i < 4; i++ {
		if locked, _ := rl.RecordFailure("10.0.0.1"); locked {
			t.Fatalf("failure %d must not lock with default limits", i+1)
		}
	}
	locked, dur := rl.RecordFailure("10.0.0.1")
	if !locked || dur != 30*time.Second {
		t.Errorf("defaults should lock on the fifth failure for 30s, got %v/%v", locked, dur)
	}
}
