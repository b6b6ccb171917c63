package engine

import (
    "context"
    "errors"
    "log"

    "github.com/google/uuid"

    "github.com/voyagekit/tour-reservation/internal/model"
    "github.com/voyagekit/tour-reservation/internal/problem"
    "github.com/voyagekit/tour-reservation/internal/store"
)

// AdjustInventoryParams carries an operator capacity change.
type AdjustInventoryParams struct {
    DepartureID uuid.UUID
    Delta       int
    Reason      string
    Actor       string
}

// AdjustInventory applies a delta to a departure's total capacity and
// appends an audit row with before/after snapshots.  Reductions are refused
// when they would cut into seats already held or booked: |delta| may not
// exceed capacity_available.
func (e *Engine) AdjustInventory(ctx context.Context, p AdjustInventoryParams) (*model.InventoryAdjustment, error) {
    var violations []problem.Violation
    if p.Delta == 0 {
        violations = append(violations, problem.Violation{Field: "delta", Message: "must not be zero"})
    }
    if p.Reason == "" {
        violations = append(violations, problem.Violation{Field: "reason", Message: "must not be empty"})
    }
    if len(violations) > 0 {
        return nil, problem.Validation(violations...)
    }
    if p.Actor == "" {
        p.Actor = "system"
    }
    var adj *model.InventoryAdjustment
    err := e.store.WithTx(ctx, func(tx store.Tx) error {
        d, err := tx.GetDepartureForUpdate(ctx, p.DepartureID)
        if errors.Is(err, store.ErrNotFound) {
            return problem.NotFound("departure", p.DepartureID.String())
        }
        if err != nil {
            return err
        }
        newTotal := d.CapacityTotal + p.Delta
        if newTotal < 0 {
            return problem.CapacityConflict(d.ID.String(), p.Delta, d.CapacityAvailable)
        }
        if p.Delta < 0 && -p.Delta > d.CapacityAvailable {
            return problem.CapacityConflict(d.ID.String(), p.Delta, d.CapacityAvailable)
        }
        totalBefore := d.CapacityTotal
        availableBefore := d.CapacityAvailable
        d.CapacityTotal = newTotal
        d.CapacityAvailable += p.Delta
        // The guards above make clamping unreachable; keep the bounds anyway.
        if d.CapacityAvailable < 0 {
            d.CapacityAvailable = 0
        }
        if d.CapacityAvailable > d.CapacityTotal {
            d.CapacityAvailable = d.CapacityTotal
        }
        now := e.clock.Now()
        d.UpdatedAt = now
        if err := tx.SaveDepartureCapacity(ctx, d); err != nil {
            return err
        }
        adj = &model.InventoryAdjustment{
            ID:              newID(),
            DepartureID:     d.ID,
            Delta:           p.Delta,
            Reason:          p.Reason,
            Actor:           p.Actor,
            TotalBefore:     totalBefore,
            TotalAfter:      d.CapacityTotal,
            AvailableBefore: availableBefore,
            AvailableAfter:  d.CapacityAvailable,
            CreatedAt:       now,
        }
        return tx.InsertAdjustment(ctx, adj)
    })
    if err != nil {
        return nil, err
    }
    log.Printf("inventory adjusted departure=%s delta=%d actor=%s total=%d->%d available=%d->%d",
        p.DepartureID, p.Delta, p.Actor, adj.TotalBefore, adj.TotalAfter, adj.AvailableBefore, adj.AvailableAfter)
    return adj, nil
}
