package mysql

import (
    "context"
    "time"

    "github.com/google/uuid"

    "github.com/voyagekit/tour-reservation/internal/model"
    "github.com/voyagekit/tour-reservation/internal/store"
)

// GetIdempotencyRecord loads a record by (key, method).  Expiry is not
// applied here; the engine compares expires_at against its own clock so
// tests with a fake clock behave identically.
func (s *Store) GetIdempotencyRecord(ctx context.Context, key, method string) (*model.IdempotencyRecord, error) {
    row := s.db.QueryRowContext(ctx,
        `SELECT id, idempotency_key, method, request_body_hash,
                response_status_code, response_body, response_headers,
                expires_at, created_at
         FROM idempotency_records
         WHERE idempotency_key = ? AND method = ?`,
        key, method)
    var rec model.IdempotencyRecord
    var id string
    var headers []byte
    err := row.Scan(&id, &rec.Key, &rec.Method, &rec.RequestHash,
        &rec.StatusCode, &rec.ResponseBody, &headers, &rec.ExpiresAt, &rec.CreatedAt)
    if err != nil {
        return nil, mapRowErr(err)
    }
    if rec.ID, err = uuid.Parse(id); err != nil {
        return nil, err
    }
    rec.ResponseHeaders = headers
    return &rec, nil
}

// PutIdempotencyRecord inserts the canonical outcome for (key, method).
// A concurrent writer winning the race surfaces as ErrDuplicate, which
// callers treat as benign: the next check finds the winner's record.
func (s *Store) PutIdempotencyRecord(ctx context.Context, rec *model.IdempotencyRecord) error {
    var headers interface{}
    if len(rec.ResponseHeaders) > 0 {
        headers = rec.ResponseHeaders
    }
    _, err := s.db.ExecContext(ctx,
        `INSERT INTO idempotency_records
            (id, idempotency_key, method, request_body_hash,
             response_status_code, response_body, response_headers,
             expires_at, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
        rec.ID.String(), rec.Key, rec.Method, rec.RequestHash,
        rec.StatusCode, rec.ResponseBody, headers,
        rec.ExpiresAt.UTC(), rec.CreatedAt.UTC())
    if isDuplicate(err) {
        return store.ErrDuplicate
    }
    return err
}

// SweepIdempotencyRecords deletes expired records in bounded batches.
func (s *Store) SweepIdempotencyRecords(ctx context.Context, now time.Time, limit int) (int, error) {
    res, err := s.db.ExecContext(ctx,
        `DELETE FROM idempotency_records WHERE expires_at <= ? LIMIT ?`,
        now.UTC(), limit)
    if err != nil {
        return 0, err
    }
    n, err := res.RowsAffected()
    return int(n), err
}
