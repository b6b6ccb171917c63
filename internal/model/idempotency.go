package model

import (
    "time"

    "github.com/google/uuid"
)

// IdempotencyRecord binds a client-supplied key and method name to the
// canonical outcome of the first execution.  The request body hash detects
// key reuse with a different body; the stored status and response body are
// replayed verbatim on subsequent calls.  Records expire after a TTL and are
// swept by a background worker.
//
// Fields:
//  ID              – primary key identifier.
//  Key             – client supplied Idempotency-Key header value.
//  Method          – logical method name, e.g. "booking/hold".
//  RequestHash     – SHA-256 of the canonicalized request body, 64 hex chars.
//  StatusCode      – HTTP status of the stored response.
//  ResponseBody    – stored response body, JSON.
//  ResponseHeaders – optional stored headers, JSON object, empty when none.
//  ExpiresAt       – eviction deadline.
//  CreatedAt       – creation timestamp.
type IdempotencyRecord struct {
    ID              uuid.UUID // idempotency_records.id
    Key             string    // idempotency_records.idempotency_key
    Method          string    // idempotency_records.method
    RequestHash     string    // idempotency_records.request_body_hash
    StatusCode      int       // idempotency_records.response_status_code
    ResponseBody    []byte    // idempotency_records.response_body
    ResponseHeaders []byte    // idempotency_records.response_headers (nullable)
    ExpiresAt       time.Time // idempotency_records.expires_at
    CreatedAt       time.Time // idempotency_records.created_at
}
