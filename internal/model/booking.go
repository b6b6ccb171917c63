package model

import (
    "time"

    "github.com/google/uuid"
)

// Booking status values.
const (
    BookingStatusConfirmed = "CONFIRMED"
    BookingStatusCanceled  = "CANCELED"
)

// Booking is a confirmed, customer-visible reservation arising from a hold.
// Exactly one booking exists per confirmed hold (holds.id is unique in
// bookings.hold_id).  The code is the short confirmation reference shown to
// the customer, 8 chars from [A-Z0-9], globally unique.
//
// Fields:
//  ID          – primary key identifier.
//  HoldID      – hold this booking was confirmed from (unique).
//  DepartureID – departure the seats belong to.
//  Code        – unique confirmation code.
//  Seats       – number of seats, copied from the hold.
//  CustomerRef – customer reference, copied from the hold.
//  Status      – CONFIRMED or CANCELED.
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type Booking struct {
    ID          uuid.UUID // bookings.id
    HoldID      uuid.UUID // bookings.hold_id
    DepartureID uuid.UUID // bookings.departure_id
    Code        string    // bookings.code
    Seats       int       // bookings.seats
    CustomerRef string    // bookings.customer_ref
    Status      string    // bookings.status
    CreatedAt   time.Time // bookings.created_at
    UpdatedAt   time.Time // bookings.updated_at
}
