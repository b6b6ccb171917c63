// Package store defines the persistence contract for the reservation engine.
// Two implementations exist: mysql (production, row locks via
// SELECT ... FOR UPDATE) and memory (single-process, sharded mutex map).
// Every code path that read-modify-writes a departure's capacity goes
// through Tx.GetDepartureForUpdate so that all capacity mutations for one
// departure are serialized, whichever backend is in use.
package store

import (
    "context"
    "errors"
    "time"

    "github.com/google/uuid"

    "github.com/voyagekit/tour-reservation/internal/model"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert violates a uniqueness constraint
// (waitlist (departure_id, customer_ref), booking code, tour slug,
// idempotency (key, method)).
var ErrDuplicate = errors.New("duplicate")

// HoldRef identifies an expired hold candidate together with its departure,
// so the expiry worker can take the departure lock first.
type HoldRef struct {
    HoldID      uuid.UUID
    DepartureID uuid.UUID
}

// DepartureSearch carries the filters and cursor for departure search.
type DepartureSearch struct {
    TourID        *uuid.UUID
    DateFrom      *time.Time
    DateTo        *time.Time
    AvailableOnly bool
    Cursor        *uuid.UUID
    Limit         int
}

// Tx is a transactional unit of work.  All reads and writes inside the
// callback passed to Store.WithTx either commit together or roll back
// together.  Methods returning a single row report ErrNotFound when the row
// does not exist.
type Tx interface {
    // GetDepartureForUpdate loads a departure and acquires its exclusive,
    // transaction-scoped lock.  The lock is released on commit or rollback.
    GetDepartureForUpdate(ctx context.Context, id uuid.UUID) (*model.Departure, error)
    // SaveDepartureCapacity persists capacity_total, capacity_available and
    // updated_at for a departure previously locked in this transaction.
    SaveDepartureCapacity(ctx context.Context, d *model.Departure) error
    InsertDeparture(ctx context.Context, d *model.Departure) error

    InsertHold(ctx context.Context, h *model.Hold) error
    // GetHoldForUpdate loads a hold, serialized against concurrent writers
    // of the same hold row.
    GetHoldForUpdate(ctx context.Context, id uuid.UUID) (*model.Hold, error)
    UpdateHoldStatus(ctx context.Context, id uuid.UUID, status string, updatedAt time.Time) error

    InsertBooking(ctx context.Context, b *model.Booking) error
    GetBookingForUpdate(ctx context.Context, id uuid.UUID) (*model.Booking, error)
    GetBookingByHold(ctx context.Context, holdID uuid.UUID) (*model.Booking, error)
    UpdateBookingStatus(ctx context.Context, id uuid.UUID, status string, updatedAt time.Time) error

    InsertWaitlistEntry(ctx context.Context, e *model.WaitlistEntry) error
    FindWaitlistEntry(ctx context.Context, departureID uuid.UUID, customerRef string) (*model.WaitlistEntry, error)
    // UnnotifiedWaitlistEntries returns up to limit entries with a null
    // notified_at, ordered ascending by (created_at, id).
    UnnotifiedWaitlistEntries(ctx context.Context, departureID uuid.UUID, limit int) ([]model.WaitlistEntry, error)
    MarkWaitlistNotified(ctx context.Context, entryID uuid.UUID, at time.Time) error

    InsertAdjustment(ctx context.Context, a *model.InventoryAdjustment) error

    InsertTour(ctx context.Context, t *model.Tour) error
    GetTour(ctx context.Context, id uuid.UUID) (*model.Tour, error)
}

// Store is the root persistence handle.  Reads that need no transaction and
// the idempotency record operations live directly on the store; the
// idempotency table has its own serialization (the unique (key, method)
// constraint) and deliberately does not share the domain transaction.
type Store interface {
    // WithTx runs fn inside a transaction, committing when fn returns nil
    // and rolling back otherwise.
    WithTx(ctx context.Context, fn func(tx Tx) error) error

    GetDeparture(ctx context.Context, id uuid.UUID) (*model.Departure, error)
    GetBooking(ctx context.Context, id uuid.UUID) (*model.Booking, error)
    GetHold(ctx context.Context, id uuid.UUID) (*model.Hold, error)
    SearchDepartures(ctx context.Context, q DepartureSearch) ([]model.Departure, error)

    // ExpiredHolds returns up to limit ACTIVE holds with expires_at <= now.
    ExpiredHolds(ctx context.Context, now time.Time, limit int) ([]HoldRef, error)
    // DeparturesWithWaitlistDemand returns departures that have available
    // capacity and at least one unnotified waitlist entry.
    DeparturesWithWaitlistDemand(ctx context.Context, limit int) ([]uuid.UUID, error)

    GetIdempotencyRecord(ctx context.Context, key, method string) (*model.IdempotencyRecord, error)
    // PutIdempotencyRecord inserts a record; a duplicate (key, method) is
    // reported as ErrDuplicate and is benign for callers.
    PutIdempotencyRecord(ctx context.Context, rec *model.IdempotencyRecord) error
    // SweepIdempotencyRecords deletes up to limit expired records and
    // returns how many were removed.
    SweepIdempotencyRecords(ctx context.Context, now time.Time, limit int) (int, error)

    Ping(ctx context.Context) error
}
