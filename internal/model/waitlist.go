package model

import (
    "time"

    "github.com/google/uuid"
)

// WaitlistEntry records a customer waiting for capacity on a departure.
// Entries are unique per (departure_id, customer_ref) and are promoted in
// FIFO order by (created_at, id).  NotifiedAt is set exactly once, when the
// promotion engine manufactures a short-TTL hold for the customer.
//
// Fields:
//  ID          – primary key identifier.
//  DepartureID – departure the customer is waiting for.
//  CustomerRef – opaque customer reference (max 128 chars).
//  NotifiedAt  – when the entry was promoted; nil while still waiting.
//  CreatedAt   – creation timestamp, the FIFO ordering key.
type WaitlistEntry struct {
    ID          uuid.UUID  // waitlist_entries.id
    DepartureID uuid.UUID  // waitlist_entries.departure_id
    CustomerRef string     // waitlist_entries.customer_ref
    NotifiedAt  *time.Time // waitlist_entries.notified_at (nullable)
    CreatedAt   time.Time  // waitlist_entries.created_at
}
