// Package engine implements the reservation core: capacity-safe hold
// creation, the hold→booking lifecycle, FIFO waitlist promotion, operator
// inventory adjustments and the idempotency layer.  Every operation that
// touches a departure's capacity runs inside a store transaction that first
// acquires the departure's exclusive lock, so capacity mutations for one
// departure are linearized in commit order.
package engine

import (
    "context"

    "github.com/voyagekit/tour-reservation/internal/model"
    "github.com/voyagekit/tour-reservation/internal/store"
)

// Events receives domain notifications after the owning transaction has
// committed.  Implementations must not block request handling; failures are
// the publisher's problem, never the caller's.
type Events interface {
    BookingConfirmed(ctx context.Context, b *model.Booking)
    WaitlistNotified(ctx context.Context, departureID string, holds []model.Hold)
}

// nopEvents is used when no broker is configured.
type nopEvents struct{}

func (nopEvents) BookingConfirmed(context.Context, *model.Booking)       {}
func (nopEvents) WaitlistNotified(context.Context, string, []model.Hold) {}

// Engine bundles the core services over a single store.
type Engine struct {
    store  store.Store
    clock  Clock
    events Events
}

// New constructs the engine.  events may be nil.
func New(s store.Store, clock Clock, events Events) *Engine {
    if clock == nil {
        clock = RealClock{}
    }
    if events == nil {
        events = nopEvents{}
    }
    return &Engine{store: s, clock: clock, events: events}
}

// Store exposes the underlying store for read-only queries.
func (e *Engine) Store() store.Store { return e.store }
