package feed

import (
	"context"
	"time"

	"github.com/pulsedeck/pulsedeck/internal/engine"
	"github.com/pulsedeck/pulsedeck/internal/reconcile"
)

// Loop is the goroutine that owns the aggregate state. It applies the tapped
// push stream strictly in arrival order, rolls the window forward once per
// bucket, and answers read queries from the same goroutine, so the state
// never needs a lock.
type Loop struct {
	state     *reconcile.State
	consumer  *Consumer
	messages  <-chan []byte
	queries   chan chan engine.Result
	rollEvery time.Duration
}

// NewLoop binds a state, its consumer and a raw message source. rollEvery
// should match the bucket width of the maintained series.
func NewLoop(state *reconcile.State, consumer *Consumer, messages <-chan []byte, rollEvery time.Duration) *Loop {
	return &Loop{
		state:     state,
		consumer:  consumer,
		messages:  messages,
		queries:   make(chan chan engine.Result),
		rollEvery: rollEvery,
	}
}

// Run processes messages, window rolls and queries until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) {
	roll := time.NewTicker(l.rollEvery)
	defer roll.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case raw := <-l.messages:
			l.consumer.HandleMessage(ctx, raw)
		case now := <-roll.C:
			l.state.Advance(now.UTC())
		case reply := <-l.queries:
			reply <- l.state.Result()
		}
	}
}

// Result returns the current derived view without recomputing it from raw
// data. The read is serialized through the owning goroutine.
func (l *Loop) Result(ctx context.Context) (engine.Result, error) {
	reply := make(chan engine.Result, 1)
	select {
	case l.queries <- reply:
	case <-ctx.Done():
		return engine.Result{}, ctx.Err()
	}
	select {
	case result := <-reply:
		return result, nil
	case <-ctx.Done():
		return engine.Result{}, ctx.Err()
	}
}
