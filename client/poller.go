package client

import (
	"context"
	"sync"
	"time"

	"github.com/pj950/live-scoring/api/models"
	"github.com/pj950/live-scoring/logging"
)

// DefaultInterval is the recommended polling cadence; other clients see a
// change at most one interval after it commits.
const DefaultInterval = 3 * time.Second

// Poller keeps a local copy of the snapshot fresh. Each fetch replaces the
// whole snapshot; there is no merging. A failed fetch keeps the last-known
// snapshot so a transient error never blanks the view.
type Poller struct {
	client   *Client
	interval time.Duration

	mu       sync.RWMutex
	snapshot *models.StateResponse
	loaded   bool

	refresh chan struct{}
}

func NewPoller(client *Client, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Poller{
		client:   client,
		interval: interval,
		refresh:  make(chan struct{}, 1),
	}
}

// Run fetches once immediately and then on every tick until ctx is done.
func (p *Poller) Run(ctx context.Context) {
	p.fetch(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.fetch(ctx)
		case <-p.refresh:
			p.fetch(ctx)
		}
	}
}

// Submit applies a mutation and schedules an immediate re-fetch so the
// caller observes its own write without waiting for the next tick.
func (p *Poller) Submit(ctx context.Context, action string, payload interface{}) error {
	if err := p.client.Do(ctx, action, payload); err != nil {
		return err
	}

	select {
	case p.refresh <- struct{}{}:
	default:
	}
	return nil
}

// Snapshot returns the last-known snapshot and whether any fetch has ever
// succeeded, so callers can tell "no data yet" from "empty state".
func (p *Poller) Snapshot() (*models.StateResponse, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.snapshot, p.loaded
}

func (p *Poller) fetch(ctx context.Context) {
	state, err := p.client.State(ctx)
	if err != nil {
		logging.Log.Warnf("POLL: fetch failed, keeping last snapshot: %v", err)
		return
	}

	p.mu.Lock()
	p.snapshot = state
	p.loaded = true
	p.mu.Unlock()
}
