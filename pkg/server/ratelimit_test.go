package server

import (
	"fmt"
	"testing"
	"time"
)

func TestRateLimiterPerIP(t *testing.T) {
	l := newIPRateLimiter(1)

	if !l.allow("10.0.0.1") {
		t.Error("Expected first call to be allowed")
	}
	if l.allow("10.0.0.1") {
		t.Error("Expected second call from same IP to be denied")
	}
	if !l.allow("10.0.0.2") {
		t.Error("Expected another IP to have its own budget")
	}
}

func TestRateLimiterEvictsIdleEntries(t *testing.T) {
	l := newIPRateLimiter(10)
	for i := 0; i < 5; i++ {
		l.allow(fmt.Sprintf("10.0.0.%d", i))
	}

	// Age every entry past the idle TTL and arm the next prune.
	stale := time.Now().Add(-2 * limiterIdleTTL)
	l.mu.Lock()
	for _, e := range l.limiters {
		e.lastSeen = stale
	}
	l.lastPrune = stale
	l.mu.Unlock()

	l.allow("10.0.1.1")

	l.mu.Lock()
	n := len(l.limiters)
	l.mu.Unlock()
	if n != 1 {
		t.Errorf("Expected only the fresh entry to survive, got %d entries", n)
	}
}
