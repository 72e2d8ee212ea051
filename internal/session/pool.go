// Package session implements the per-product session bookkeeping pool and
// TTL reaper described in §4.10: a map from session id to last-activity
// timestamp, refreshed on every request and swept periodically. The MCP
// SDK's streamable HTTP handler owns the actual protocol transport per
// session; this pool is the authoritative layer our HTTP dispatcher
// consults to decide whether a session id is still valid, so it can answer
// the spec's "unknown session id" branch for sessions we have evicted even
// if the SDK's own internal state has not yet forgotten them. Grounded on
// the teacher's RunHTTP graceful-shutdown idiom (context-cancel goroutine
// beside an http.Server) in internal/adapters/driving/mcp/server.go.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/docsearch-mcp/docserver/internal/domain"
	"github.com/docsearch-mcp/docserver/internal/logger"
)

// DefaultIdleTTL and DefaultSweepInterval match the spec's 30-minute idle
// eviction on a 5-minute sweep cadence.
const (
	DefaultIdleTTL       = 30 * time.Minute
	DefaultSweepInterval = 5 * time.Minute
)

// Pool holds one product's live session bookkeeping, keyed by session id.
type Pool struct {
	productID string
	idleTTL   time.Duration

	mu      sync.Mutex
	entries map[string]*domain.Session
	now     func() time.Time
}

// NewPool creates an empty pool for one product.
func NewPool(productID string, idleTTL time.Duration) *Pool {
	if idleTTL <= 0 {
		idleTTL = DefaultIdleTTL
	}
	return &Pool{
		productID: productID,
		idleTTL:   idleTTL,
		entries:   make(map[string]*domain.Session),
		now:       time.Now,
	}
}

// Put registers a newly initialized session.
func (p *Pool) Put(id, clientInfo string) *domain.Session {
	e := &domain.Session{
		ID:           id,
		ProductID:    p.productID,
		LastActivity: p.now(),
		ClientInfo:   clientInfo,
	}

	p.mu.Lock()
	p.entries[id] = e
	p.mu.Unlock()
	return e
}

// Touch refreshes a session's last-activity timestamp. The second return is
// false for an unknown or evicted session id.
func (p *Pool) Touch(id string) (*domain.Session, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	e, ok := p.entries[id]
	if !ok {
		return nil, false
	}
	e.LastActivity = p.now()
	return e, true
}

// Remove drops a session, e.g. on transport close or explicit DELETE.
func (p *Pool) Remove(id string) {
	p.mu.Lock()
	delete(p.entries, id)
	p.mu.Unlock()
}

// Len reports the number of live sessions, for health reporting.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}

// sweep evicts sessions idle longer than idleTTL and returns their ids.
func (p *Pool) sweep() []string {
	cutoff := p.now().Add(-p.idleTTL)

	p.mu.Lock()
	var evicted []string
	for id, e := range p.entries {
		if e.LastActivity.Before(cutoff) {
			evicted = append(evicted, id)
			delete(p.entries, id)
		}
	}
	p.mu.Unlock()
	return evicted
}

// RunSweeper runs the periodic idle-session reaper until ctx is cancelled.
// It never blocks shutdown: the sweep tick is the only blocking operation,
// and ctx.Done() always wins a pending select.
func (p *Pool) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, id := range p.sweep() {
				logger.Info("evicted idle session %s for product %s", id, p.productID)
			}
		}
	}
}
