package model

import (
    "time"

    "github.com/google/uuid"
)

// Tour represents a sellable tour product.  Tours themselves carry no
// capacity; capacity lives on individual departures.  The slug is a
// URL-friendly unique identifier used by operator tooling.
//
// Fields:
//  ID          – primary key identifier.
//  Name        – human readable tour name.
//  Slug        – unique, URL-safe identifier.
//  Description – optional free-form description.
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type Tour struct {
    ID          uuid.UUID // tours.id
    Name        string    // tours.name
    Slug        string    // tours.slug
    Description string    // tours.description (nullable, empty when unset)
    CreatedAt   time.Time // tours.created_at
    UpdatedAt   time.Time // tours.updated_at
}
