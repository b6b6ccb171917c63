package model

import (
    "time"

    "github.com/google/uuid"
)

// Departure is a scheduled instance of a tour with finite seat capacity.
// CapacityAvailable is decremented when holds are created and restored when
// holds expire or bookings are cancelled.  The invariant
// 0 <= CapacityAvailable <= CapacityTotal must hold at all times; every
// mutation of either field happens under the departure's exclusive lock.
//
// Fields:
//  ID                – primary key identifier.
//  TourID            – tour this departure belongs to.
//  StartsAt          – scheduled departure time (UTC).
//  CapacityTotal     – total sellable seats.
//  CapacityAvailable – seats not currently held or booked.
//  Price             – per-seat price in minor units with ISO 4217 currency.
//  CreatedAt         – creation timestamp.
//  UpdatedAt         – last update timestamp.
type Departure struct {
    ID                uuid.UUID // departures.id
    TourID            uuid.UUID // departures.tour_id
    StartsAt          time.Time // departures.starts_at
    CapacityTotal     int       // departures.capacity_total
    CapacityAvailable int       // departures.capacity_available
    Price             Money     // departures.price_amount / price_currency
    CreatedAt         time.Time // departures.created_at
    UpdatedAt         time.Time // departures.updated_at
}
