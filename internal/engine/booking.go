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

// maxBookingCodeRetries bounds re-rolls on a code uniqueness collision.
const maxBookingCodeRetries = 5

// ConfirmBooking turns an ACTIVE hold into a CONFIRMED booking.  Capacity is
// untouched: the seats were decremented when the hold was created.  The
// expiry check runs against the clock before the status field is consulted,
// so a hold whose row still reads ACTIVE but whose TTL has lapsed is refused
// even if the expiry worker has not visited it yet.
func (e *Engine) ConfirmBooking(ctx context.Context, holdID uuid.UUID) (*model.Booking, error) {
    var booking *model.Booking
    var replayed bool
    err := e.store.WithTx(ctx, func(tx store.Tx) error {
        h, err := tx.GetHoldForUpdate(ctx, holdID)
        if errors.Is(err, store.ErrNotFound) {
            return problem.NotFound("hold", holdID.String())
        }
        if err != nil {
            return err
        }
        now := e.clock.Now()
        if !h.ExpiresAt.After(now) {
            return problem.HoldExpired(h.ID.String(), h.ExpiresAt.UTC().Format(time.RFC3339))
        }
        switch h.Status {
        case model.HoldStatusActive:
            // fall through to confirmation below
        case model.HoldStatusConfirmed:
            existing, err := tx.GetBookingByHold(ctx, h.ID)
            if err != nil {
                return err
            }
            booking = existing
            replayed = true
            return nil
        default:
            return problem.Conflict(fmt.Sprintf("hold %s is not active (status: %s)", h.ID, h.Status))
        }

        booking, err = e.insertBookingWithCode(ctx, tx, h, now)
        if err != nil {
            return err
        }
        return tx.UpdateHoldStatus(ctx, h.ID, model.HoldStatusConfirmed, now)
    })
    if err != nil {
        return nil, err
    }
    if !replayed {
        log.Printf("booking confirmed id=%s code=%s hold=%s seats=%d", booking.ID, booking.Code, holdID, booking.Seats)
        e.events.BookingConfirmed(ctx, booking)
    }
    return booking, nil
}

// insertBookingWithCode inserts the booking, re-rolling the confirmation
// code when the unique index reports a collision.
func (e *Engine) insertBookingWithCode(ctx context.Context, tx store.Tx, h *model.Hold, now time.Time) (*model.Booking, error) {
    for attempt := 0; attempt < maxBookingCodeRetries; attempt++ {
        code, err := newBookingCode()
        if err != nil {
            return nil, err
        }
        b := &model.Booking{
            ID:          newID(),
            HoldID:      h.ID,
            DepartureID: h.DepartureID,
            Code:        code,
            Seats:       h.Seats,
            CustomerRef: h.CustomerRef,
            Status:      model.BookingStatusConfirmed,
            CreatedAt:   now,
            UpdatedAt:   now,
        }
        err = tx.InsertBooking(ctx, b)
        if errors.Is(err, store.ErrDuplicate) {
            continue
        }
        if err != nil {
            return nil, err
        }
        return b, nil
    }
    return nil, fmt.Errorf("booking code generation exhausted %d attempts", maxBookingCodeRetries)
}

// CancelBooking cancels a booking and restores its seats to the departure,
// capped at capacity_total in case an operator reduced total in the
// meantime.  Cancelling an already-cancelled booking returns it unchanged.
func (e *Engine) CancelBooking(ctx context.Context, bookingID uuid.UUID) (*model.Booking, error) {
    var booking *model.Booking
    err := e.store.WithTx(ctx, func(tx store.Tx) error {
        b, err := tx.GetBookingForUpdate(ctx, bookingID)
        if errors.Is(err, store.ErrNotFound) {
            return problem.NotFound("booking", bookingID.String())
        }
        if err != nil {
            return err
        }
        if b.Status == model.BookingStatusCanceled {
            booking = b
            return nil
        }
        d, err := tx.GetDepartureForUpdate(ctx, b.DepartureID)
        if err != nil {
            return err
        }
        now := e.clock.Now()
        if err := tx.UpdateBookingStatus(ctx, b.ID, model.BookingStatusCanceled, now); err != nil {
            return err
        }
        if err := tx.UpdateHoldStatus(ctx, b.HoldID, model.HoldStatusCanceled, now); err != nil {
            return err
        }
        d.CapacityAvailable += b.Seats
        if d.CapacityAvailable > d.CapacityTotal {
            d.CapacityAvailable = d.CapacityTotal
        }
        d.UpdatedAt = now
        if err := tx.SaveDepartureCapacity(ctx, d); err != nil {
            return err
        }
        b.Status = model.BookingStatusCanceled
        b.UpdatedAt = now
        booking = b
        log.Printf("booking canceled id=%s code=%s seats_restored=%d available=%d",
            b.ID, b.Code, b.Seats, d.CapacityAvailable)
        return nil
    })
    if err != nil {
        return nil, err
    }
    return booking, nil
}

// GetBooking loads a booking by id.  Read-only, no idempotency involved.
func (e *Engine) GetBooking(ctx context.Context, bookingID uuid.UUID) (*model.Booking, error) {
    b, err := e.store.GetBooking(ctx, bookingID)
    if errors.Is(err, store.ErrNotFound) {
        return nil, problem.NotFound("booking", bookingID.String())
    }
    if err != nil {
        return nil, err
    }
    return b, nil
}
