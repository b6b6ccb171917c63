package model

import (
    "time"

    "github.com/google/uuid"
)

// Hold status values.  A hold starts ACTIVE and moves to exactly one of the
// terminal states; there are no transitions out of a terminal state.
const (
    HoldStatusActive    = "ACTIVE"
    HoldStatusExpired   = "EXPIRED"
    HoldStatusConfirmed = "CONFIRMED"
    HoldStatusCanceled  = "CANCELED"
)

// Hold is a time-limited reservation of seats on a departure, pending
// confirmation into a booking.  Creating a hold decrements the departure's
// available capacity; expiring or cancelling it restores the seats.
// Confirming does not touch capacity because the seats were already
// decremented at hold time.
//
// Fields:
//  ID             – primary key identifier.
//  DepartureID    – departure the seats belong to.
//  Seats          – number of seats held, 1..10.
//  CustomerRef    – opaque customer reference (max 128 chars).
//  ExpiresAt      – when the hold lapses if unconfirmed.
//  Status         – ACTIVE, EXPIRED, CONFIRMED or CANCELED.
//  IdempotencyKey – key of the request that created the hold.
//  CreatedAt      – creation timestamp.
//  UpdatedAt      – last update timestamp.
type Hold struct {
    ID             uuid.UUID // holds.id
    DepartureID    uuid.UUID // holds.departure_id
    Seats          int       // holds.seats
    CustomerRef    string    // holds.customer_ref
    ExpiresAt      time.Time // holds.expires_at
    Status         string    // holds.status
    IdempotencyKey string    // holds.idempotency_key
    CreatedAt      time.Time // holds.created_at
    UpdatedAt      time.Time // holds.updated_at
}
