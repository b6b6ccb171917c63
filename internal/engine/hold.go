package engine

import (
    "context"
    "errors"
    "fmt"
    "log"
    "time"

    "github.com/google/uuid"

    "github.com/voyagekit/tour-reservation/internal/model"
    "github.com/voyagekit/tour-reservation/internal/problem"
    "github.com/voyagekit/tour-reservation/internal/store"
)

// Hold validation bounds.
const (
    MinHoldSeats      = 1
    MaxHoldSeats      = 10
    MinHoldTTLSeconds = 60
    MaxHoldTTLSeconds = 3600
    MaxCustomerRefLen = 128

    // WaitlistHoldTTLSeconds is the short TTL used for holds manufactured
    // by waitlist promotion.
    WaitlistHoldTTLSeconds = 300
)

// CreateHoldParams carries the createHold request.
type CreateHoldParams struct {
    DepartureID    uuid.UUID
    Seats          int
    CustomerRef    string
    TTLSeconds     int
    IdempotencyKey string
}

func (p CreateHoldParams) validate() *problem.Problem {
    var violations []problem.Violation
    if p.Seats < MinHoldSeats || p.Seats > MaxHoldSeats {
        violations = append(violations, problem.Violation{
            Field:   "seats",
            Message: fmt.Sprintf("must be between %d and %d", MinHoldSeats, MaxHoldSeats),
        })
    }
    if p.TTLSeconds < MinHoldTTLSeconds || p.TTLSeconds > MaxHoldTTLSeconds {
        violations = append(violations, problem.Violation{
            Field:   "ttl_seconds",
            Message: fmt.Sprintf("must be between %d and %d", MinHoldTTLSeconds, MaxHoldTTLSeconds),
        })
    }
    if p.CustomerRef == "" || len(p.CustomerRef) > MaxCustomerRefLen {
        violations = append(violations, problem.Violation{
            Field:   "customer_ref",
            Message: fmt.Sprintf("must be 1-%d characters", MaxCustomerRefLen),
        })
    }
    if len(violations) > 0 {
        return problem.Validation(violations...)
    }
    return nil
}

// CreateHold reserves seats on a departure for a limited time.  The whole
// operation runs under the departure lock: capacity is checked and
// decremented in the same transaction that inserts the hold, so concurrent
// requests can never jointly oversell.
func (e *Engine) CreateHold(ctx context.Context, p CreateHoldParams) (*model.Hold, error) {
    if prob := p.validate(); prob != nil {
        return nil, prob
    }
    var hold *model.Hold
    err := e.store.WithTx(ctx, func(tx store.Tx) error {
        d, err := tx.GetDepartureForUpdate(ctx, p.DepartureID)
        if errors.Is(err, store.ErrNotFound) {
            return problem.NotFound("departure", p.DepartureID.String())
        }
        if err != nil {
            return err
        }
        hold, err = e.createHoldLocked(ctx, tx, d, p)
        return err
    })
    if err != nil {
        return nil, err
    }
    log.Printf("hold created id=%s departure=%s seats=%d customer=%s expires_at=%s",
        hold.ID, p.DepartureID, p.Seats, p.CustomerRef, hold.ExpiresAt.Format(time.RFC3339))
    return hold, nil
}

// createHoldLocked inserts a hold and decrements capacity for a departure
// already locked in tx.  The caller's *d is updated in place so a loop (the
// waitlist promoter) observes its own decrements.
func (e *Engine) createHoldLocked(ctx context.Context, tx store.Tx, d *model.Departure, p CreateHoldParams) (*model.Hold, error) {
    if d.CapacityAvailable < p.Seats {
        return nil, problem.CapacityFull(d.ID.String(), p.Seats, d.CapacityAvailable)
    }
    now := e.clock.Now()
    hold := &model.Hold{
        ID:             newID(),
        DepartureID:    d.ID,
        Seats:          p.Seats,
        CustomerRef:    p.CustomerRef,
        ExpiresAt:      now.Add(time.Duration(p.TTLSeconds) * time.Second),
        Status:         model.HoldStatusActive,
        IdempotencyKey: p.IdempotencyKey,
        CreatedAt:      now,
        UpdatedAt:      now,
    }
    if err := tx.InsertHold(ctx, hold); err != nil {
        return nil, err
    }
    d.CapacityAvailable -= p.Seats
    d.UpdatedAt = now
    if err := tx.SaveDepartureCapacity(ctx, d); err != nil {
        return nil, err
    }
    return hold, nil
}

// ExpireHolds transitions up to batchSize past-TTL ACTIVE holds to EXPIRED,
// restoring their seats.  Each hold is an independent unit of work in its
// own transaction; one failure is logged and does not abort its peers.
func (e *Engine) ExpireHolds(ctx context.Context, batchSize int) (int, error) {
    now := e.clock.Now()
    refs, err := e.store.ExpiredHolds(ctx, now, batchSize)
    if err != nil {
        return 0, err
    }
    expired := 0
    for _, ref := range refs {
        if err := ctx.Err(); err != nil {
            return expired, err
        }
        changed, err := e.expireOne(ctx, ref, now)
        if err != nil {
            log.Printf("expire hold %s failed: %v", ref.HoldID, err)
            continue
        }
        if changed {
            expired++
        }
    }
    if expired > 0 {
        log.Printf("expired %d holds", expired)
    }
    return expired, nil
}

// errAlreadyFinal aborts the expiry transaction without side effects when
// the hold was confirmed, cancelled or expired by someone else meanwhile.
var errAlreadyFinal = errors.New("hold already in a terminal state")

func (e *Engine) expireOne(ctx context.Context, ref store.HoldRef, now time.Time) (bool, error) {
    err := e.store.WithTx(ctx, func(tx store.Tx) error {
        // Departure lock first, same order as every other capacity writer.
        d, err := tx.GetDepartureForUpdate(ctx, ref.DepartureID)
        if err != nil {
            return err
        }
        h, err := tx.GetHoldForUpdate(ctx, ref.HoldID)
        if err != nil {
            return err
        }
        if h.Status != model.HoldStatusActive || h.ExpiresAt.After(now) {
            return errAlreadyFinal
        }
        if err := tx.UpdateHoldStatus(ctx, h.ID, model.HoldStatusExpired, now); err != nil {
            return err
        }
        d.CapacityAvailable += h.Seats
        if d.CapacityAvailable > d.CapacityTotal {
            d.CapacityAvailable = d.CapacityTotal
        }
        d.UpdatedAt = now
        return tx.SaveDepartureCapacity(ctx, d)
    })
    if errors.Is(err, errAlreadyFinal) {
        return false, nil
    }
    if err != nil {
        return false, err
    }
    return true, nil
}
