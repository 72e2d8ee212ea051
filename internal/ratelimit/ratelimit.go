// Package ratelimit implements the sliding-window RPM/TPM limiter the
// embedder client checks before every call (§4.2). Unlike a token bucket,
// capacity here is freed only as old entries age out of the window, which
// lets CheckAndRecord account for a variable per-call token cost instead of
// a fixed request cost.
package ratelimit

import (
	"sync"
	"time"

	"github.com/docsearch-mcp/docserver/internal/domain"
)

// entry records one accounted call: when it happened and how many tokens
// it spent against the TPM budget.
type entry struct {
	at     time.Time
	tokens int
}

// Limiter enforces independent requests-per-minute and tokens-per-minute
// ceilings over a sliding one-minute window.
type Limiter struct {
	mu  sync.Mutex
	rpm int
	tpm int

	window  time.Duration
	entries []entry

	now func() time.Time
}

// New creates a Limiter with the given requests-per-minute and
// tokens-per-minute ceilings. A ceiling of 0 disables that dimension.
func New(rpm, tpm int) *Limiter {
	return &Limiter{
		rpm:    rpm,
		tpm:    tpm,
		window: time.Minute,
		now:    time.Now,
	}
}

// prune drops entries older than the window. Caller must hold mu.
func (l *Limiter) prune(at time.Time) {
	cutoff := at.Add(-l.window)
	i := 0
	for i < len(l.entries) && l.entries[i].at.Before(cutoff) {
		i++
	}
	if i > 0 {
		l.entries = l.entries[i:]
	}
}

// Check reports whether a call costing tokens would fit within both
// ceilings right now, without recording anything.
func (l *Limiter) Check(tokens int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.check(tokens)
}

func (l *Limiter) check(tokens int) bool {
	at := l.now()
	l.prune(at)

	if l.rpm > 0 && len(l.entries) >= l.rpm {
		return false
	}
	if l.tpm > 0 {
		used := 0
		for _, e := range l.entries {
			used += e.tokens
		}
		if used+tokens > l.tpm {
			return false
		}
	}
	return true
}

// Record accounts for a call that already happened, regardless of whether
// it would have passed Check. Used to account for calls made outside the
// limiter's own gating (e.g. replays).
func (l *Limiter) Record(tokens int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	at := l.now()
	l.prune(at)
	l.entries = append(l.entries, entry{at: at, tokens: tokens})
}

// CheckAndRecord atomically checks and, if it fits, records the call. It
// returns a domain.RateLimitError with RetryAfterSeconds set when the call
// does not fit.
func (l *Limiter) CheckAndRecord(tokens int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.check(tokens) {
		l.entries = append(l.entries, entry{at: l.now(), tokens: tokens})
		return nil
	}

	return &domain.RateLimitError{RetryAfterSeconds: l.retryAfter()}
}

// retryAfter computes how many whole seconds until the oldest entry ages
// out of the window, freeing enough room. Caller must hold mu.
func (l *Limiter) retryAfter() int {
	if len(l.entries) == 0 {
		return 0
	}
	oldest := l.entries[0].at
	until := oldest.Add(l.window).Sub(l.now())
	if until <= 0 {
		return 0
	}
	secs := int(until / time.Second)
	if until%time.Second > 0 {
		secs++
	}
	return secs
}
