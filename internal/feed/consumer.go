// Package feed consumes decoded push-channel messages and applies them to the
// live aggregate state, falling back to a bulk refresh when a message cannot
// be parsed.
package feed

import (
	"context"
	"log"

	"golang.org/x/time/rate"

	"github.com/pulsedeck/pulsedeck/internal/ingest"
	"github.com/pulsedeck/pulsedeck/internal/reconcile"
)

// Refresher provides the bulk dataset used for initial load and recovery.
type Refresher interface {
	FetchAll(ctx context.Context) (ingest.Dataset, error)
}

// Consumer binds one push-channel session to one aggregate state. It is not
// safe for concurrent use; messages are handled strictly in arrival order.
type Consumer struct {
	state     *reconcile.State
	refresher Refresher

	// limiter throttles the malformed-message refresh fallback so a burst of
	// garbage cannot turn into a refresh storm.
	limiter *rate.Limiter
}

// NewConsumer creates a consumer around an existing state.
func NewConsumer(state *reconcile.State, refresher Refresher, refreshLimit rate.Limit) *Consumer {
	return &Consumer{
		state:     state,
		refresher: refresher,
		limiter:   rate.NewLimiter(refreshLimit, 1),
	}
}

// HandleMessage parses and applies one raw push message. Malformed payloads
// are discarded and compensated with a throttled bulk refresh; nothing here
// is fatal.
func (c *Consumer) HandleMessage(ctx context.Context, raw []byte) {
	event, err := ingest.ParseMessage(raw)
	if err != nil {
		log.Printf("Discarding push message: %v", err)
		if c.limiter.Allow() {
			c.Refresh(ctx)
		}
		return
	}
	c.state.Apply(event)
}

// Refresh fetches the full dataset and replaces the state with it. A fetch
// that raced with live events, or was superseded by a newer refresh, is
// discarded by the state's sequence guard.
func (c *Consumer) Refresh(ctx context.Context) {
	seq := c.state.BeginRefresh()
	ds, err := c.refresher.FetchAll(ctx)
	if err != nil {
		log.Printf("Bulk refresh failed: %v", err)
		return
	}
	if !c.state.ApplyRefresh(seq, ds) {
		log.Printf("Discarding stale bulk refresh (seq %d)", seq)
	}
}
