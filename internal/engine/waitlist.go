package engine

import (
    "context"
    "errors"
    "fmt"
    "log"

    "github.com/google/uuid"

    "github.com/voyagekit/tour-reservation/internal/model"
    "github.com/voyagekit/tour-reservation/internal/problem"
    "github.com/voyagekit/tour-reservation/internal/store"
)

// JoinWaitlist enrolls a customer on a departure's waitlist.  The
// (departure_id, customer_ref) uniqueness makes the operation naturally
// idempotent: an existing entry is returned unchanged, including when a
// concurrent request wins the insert race.
func (e *Engine) JoinWaitlist(ctx context.Context, departureID uuid.UUID, customerRef string) (*model.WaitlistEntry, error) {
    if customerRef == "" || len(customerRef) > MaxCustomerRefLen {
        return nil, problem.Validation(problem.Violation{
            Field:   "customer_ref",
            Message: fmt.Sprintf("must be 1-%d characters", MaxCustomerRefLen),
        })
    }
    if _, err := e.store.GetDeparture(ctx, departureID); err != nil {
        if errors.Is(err, store.ErrNotFound) {
            return nil, problem.NotFound("departure", departureID.String())
        }
        return nil, err
    }
    var entry *model.WaitlistEntry
    err := e.store.WithTx(ctx, func(tx store.Tx) error {
        existing, err := tx.FindWaitlistEntry(ctx, departureID, customerRef)
        if err == nil {
            entry = existing
            return nil
        }
        if !errors.Is(err, store.ErrNotFound) {
            return err
        }
        now := e.clock.Now()
        fresh := &model.WaitlistEntry{
            ID:          newID(),
            DepartureID: departureID,
            CustomerRef: customerRef,
            CreatedAt:   now,
        }
        err = tx.InsertWaitlistEntry(ctx, fresh)
        if errors.Is(err, store.ErrDuplicate) {
            // Lost the insert race; the concurrent row is the entry.
            existing, err := tx.FindWaitlistEntry(ctx, departureID, customerRef)
            if err != nil {
                return err
            }
            entry = existing
            return nil
        }
        if err != nil {
            return err
        }
        entry = fresh
        log.Printf("waitlist joined entry=%s departure=%s customer=%s", fresh.ID, departureID, customerRef)
        return nil
    })
    if err != nil {
        return nil, err
    }
    return entry, nil
}

// NotifyWaitlistResult reports what a promotion pass did.
type NotifyWaitlistResult struct {
    ProcessedCount int
    HoldsCreated   []model.Hold
}

// NotifyWaitlist promotes waiting customers into short-TTL holds, strictly
// FIFO by (created_at, id).  Everything happens under the departure lock in
// one transaction, so a concurrent createHold cannot interleave between the
// capacity read and the promotions.  An entry whose hold cannot be created
// is skipped without being marked notified; it stays at the head of the
// queue for the next pass.
func (e *Engine) NotifyWaitlist(ctx context.Context, departureID uuid.UUID) (*NotifyWaitlistResult, error) {
    result := &NotifyWaitlistResult{HoldsCreated: []model.Hold{}}
    err := e.store.WithTx(ctx, func(tx store.Tx) error {
        d, err := tx.GetDepartureForUpdate(ctx, departureID)
        if errors.Is(err, store.ErrNotFound) {
            return problem.NotFound("departure", departureID.String())
        }
        if err != nil {
            return err
        }
        if d.CapacityAvailable == 0 {
            return nil
        }
        entries, err := tx.UnnotifiedWaitlistEntries(ctx, departureID, d.CapacityAvailable)
        if err != nil {
            return err
        }
        now := e.clock.Now()
        for _, entry := range entries {
            if d.CapacityAvailable <= 0 {
                break
            }
            p := CreateHoldParams{
                DepartureID:    departureID,
                Seats:          1,
                CustomerRef:    entry.CustomerRef,
                TTLSeconds:     WaitlistHoldTTLSeconds,
                IdempotencyKey: fmt.Sprintf("waitlist-%s-%d", entry.ID, now.Unix()),
            }
            hold, err := e.createHoldLocked(ctx, tx, d, p)
            if err != nil {
                log.Printf("waitlist promotion skipped entry=%s departure=%s: %v", entry.ID, departureID, err)
                continue
            }
            if err := tx.MarkWaitlistNotified(ctx, entry.ID, now); err != nil {
                return err
            }
            result.HoldsCreated = append(result.HoldsCreated, *hold)
            result.ProcessedCount++
        }
        return nil
    })
    if err != nil {
        return nil, err
    }
    if result.ProcessedCount > 0 {
        log.Printf("waitlist notified departure=%s processed=%d", departureID, result.ProcessedCount)
        e.events.WaitlistNotified(ctx, departureID.String(), result.HoldsCreated)
    }
    return result, nil
}

// PromoteWaitlists runs one promotion sweep: every departure with free
// capacity and unnotified waitlist entries gets a NotifyWaitlist pass.
// Used by the promotion worker.
func (e *Engine) PromoteWaitlists(ctx context.Context, batchSize int) (int, error) {
    ids, err := e.store.DeparturesWithWaitlistDemand(ctx, batchSize)
    if err != nil {
        return 0, err
    }
    total := 0
    for _, id := range ids {
        if err := ctx.Err(); err != nil {
            return total, err
        }
        res, err := e.NotifyWaitlist(ctx, id)
        if err != nil {
            log.Printf("waitlist promotion failed departure=%s: %v", id, err)
            continue
        }
        total += res.ProcessedCount
    }
    return total, nil
}
