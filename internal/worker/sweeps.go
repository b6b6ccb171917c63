package worker

import (
    "context"
    "time"

    "github.com/voyagekit/tour-reservation/internal/engine"
)

// Default cadences and batch bound for the three sweeps.
const (
    DefaultExpiryInterval    = 60 * time.Second
    DefaultPromotionInterval = 30 * time.Second
    DefaultSweepInterval     = time.Hour
    DefaultBatchSize         = 100
)

// HoldExpiry returns the worker that expires past-TTL holds and restores
// their seats.
func HoldExpiry(e *engine.Engine, interval time.Duration, batchSize int) *Worker {
    if interval <= 0 {
        interval = DefaultExpiryInterval
    }
    if batchSize <= 0 {
        batchSize = DefaultBatchSize
    }
    return New("hold-expiry", interval, func(ctx context.Context) error {
        _, err := e.ExpireHolds(ctx, batchSize)
        return err
    })
}

// WaitlistPromotion returns the worker that converts freed capacity into
// short-TTL holds for waiting customers.
func WaitlistPromotion(e *engine.Engine, interval time.Duration, batchSize int) *Worker {
    if interval <= 0 {
        interval = DefaultPromotionInterval
    }
    if batchSize <= 0 {
        batchSize = DefaultBatchSize
    }
    return New("waitlist-promotion", interval, func(ctx context.Context) error {
        _, err := e.PromoteWaitlists(ctx, batchSize)
        return err
    })
}

// IdempotencySweep returns the worker that evicts expired idempotency
// records.
func IdempotencySweep(idem *engine.Idempotency, interval time.Duration, batchSize int) *Worker {
    if interval <= 0 {
        interval = DefaultSweepInterval
    }
    if batchSize <= 0 {
        batchSize = DefaultBatchSize
    }
    return New("idempotency-sweep", interval, func(ctx context.Context) error {
        _, err := idem.Sweep(ctx, batchSize)
        return err
    })
}
