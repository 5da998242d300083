package server

import (
	"sync"
	"time"

	"github.com/spirekeep/idlespire/internal/config"
)

// LoginRateLimiter locks out IPs after repeated failed logins, with
// exponential backoff on repeat offenders.
type LoginRateLimiter struct {
	mu                sync.Mutex
	attempts          map[string]*attemptInfo
	maxAttempts       int
	lockoutSeconds    int
	maxLockoutSeconds int
	stopCleanup       chan struct{}
	stopOnce          sync.Once
}

type attemptInfo struct {
	failures     int
	lockedUntil  time.Time
	lockoutCount int
}

// NewLoginRateLimiter creates a limiter and starts its cleanup loop.
func NewLoginRateLimiter(cfg config.RateLimitConfig) *LoginRateLimiter {
	rl := &LoginRateLimiter{
		attempts:          make(map[string]*attemptInfo),
		maxAttempts:       cfg.MaxAttempts,
		lockoutSeconds:    cfg.LockoutSeconds,
		maxLockoutSeconds: cfg.MaxLockoutSeconds,
		stopCleanup:       make(chan struct{}),
	}
	if rl.maxAttempts == 0 {
		rl.maxAttempts = 5
	}
	if rl.lockoutSeconds == 0 {
		rl.lockoutSeconds = 30
	}
	if rl.maxLockoutSeconds == 0 {
		rl.maxLockoutSeconds = 300
	}

	go rl.cleanupLoop()
	return rl
}

// Stop stops the cleanup goroutine.
func (rl *LoginRateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCleanup) })
}

// IsLocked reports whether ip is locked out and for how much longer.
func (rl *LoginRateLimiter) IsLocked(ip string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	info, ok := rl.attempts[ip]
	if !ok {
		return false, 0
	}
	if time.Now().Before(info.lockedUntil) {
		return true, time.Until(info.lockedUntil)
	}
	return false, 0
}

// RecordFailure notes a failed login. Reports whether ip is now locked out
// and for how long.
func (rl *LoginRateLimiter) RecordFailure(ip string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	info, ok := rl.attempts[ip]
	if !ok {
		info = &attemptInfo{}
		rl.attempts[ip] = info
	}

	info.failures++
	if info.failures < rl.maxAttempts {
		return false, 0
	}

	lockout := time.Duration(rl.lockoutSeconds) * time.Second
	for i := 0; i < info.lockoutCount; i++ {
		lockout *= 2
	}
	if maxLockout := time.Duration(rl.maxLockoutSeconds) * time.Second; lockout > maxLockout {
		lockout = maxLockout
	}

	info.lockoutCount++
	info.failures = 0
	info.lockedUntil = time.Now().Add(lockout)
	return true, lockout
}

// RecordSuccess clears the failure history for ip.
func (rl *LoginRateLimiter) RecordSuccess(ip string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.attempts, ip)
}

// cleanupLoop drops stale entries so the map doesn't grow forever.
func (rl *LoginRateLimiter) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stopCleanup:
			return
		case <-ticker.C:
			rl.mu.Lock()
			now := time.Now()
			for ip, info := range rl.attempts {
				if info.failures == 0 && now.After(info.lockedUntil) {
					delete(rl.attempts, ip)
				}
			}
			rl.mu.Unlock()
		}
	}
}
