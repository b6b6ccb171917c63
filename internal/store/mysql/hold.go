package mysql

import (
    "context"
    "database/sql"
    "time"

    "github.com/google/uuid"

    "github.com/voyagekit/tour-reservation/internal/model"
    "github.com/voyagekit/tour-reservation/internal/store"
)

const holdCols = `id, departure_id, seats, customer_ref, expires_at, status,
       idempotency_key, created_at, updated_at`

func scanHold(row *sql.Row) (*model.Hold, error) {
    var h model.Hold
    var id, departureID string
    err := row.Scan(&id, &departureID, &h.Seats, &h.CustomerRef, &h.ExpiresAt,
        &h.Status, &h.IdempotencyKey, &h.CreatedAt, &h.UpdatedAt)
    if err != nil {
        return nil, mapRowErr(err)
    }
    if h.ID, err = uuid.Parse(id); err != nil {
        return nil, err
    }
    if h.DepartureID, err = uuid.Parse(departureID); err != nil {
        return nil, err
    }
    return &h, nil
}

func (t *tx) InsertHold(ctx context.Context, h *model.Hold) error {
    _, err := t.tx.ExecContext(ctx,
        `INSERT INTO holds
            (id, departure_id, seats, customer_ref, expires_at, status,
             idempotency_key, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
        h.ID.String(), h.DepartureID.String(), h.Seats, h.CustomerRef,
        h.ExpiresAt.UTC(), h.Status, h.IdempotencyKey, h.CreatedAt.UTC(), h.UpdatedAt.UTC())
    if isDuplicate(err) {
        return store.ErrDuplicate
    }
    return err
}

func (t *tx) GetHoldForUpdate(ctx context.Context, id uuid.UUID) (*model.Hold, error) {
    row := t.tx.QueryRowContext(ctx,
        `SELECT `+holdCols+` FROM holds WHERE id = ? FOR UPDATE`, id.String())
    return scanHold(row)
}

func (t *tx) UpdateHoldStatus(ctx context.Context, id uuid.UUID, status string, updatedAt time.Time) error {
    res, err := t.tx.ExecContext(ctx,
        `UPDATE holds SET status = ?, updated_at = ? WHERE id = ?`,
        status, updatedAt.UTC(), id.String())
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return store.ErrNotFound
    }
    return nil
}

func (s *Store) GetHold(ctx context.Context, id uuid.UUID) (*model.Hold, error) {
    row := s.db.QueryRowContext(ctx,
        `SELECT `+holdCols+` FROM holds WHERE id = ?`, id.String())
    return scanHold(row)
}

// ExpiredHolds lists ACTIVE holds past their TTL.  The list is only a set
// of candidates: each hold is finalized in its own transaction which
// re-reads the row under the departure lock, so a hold another worker
// already expired is skipped there.
func (s *Store) ExpiredHolds(ctx context.Context, now time.Time, limit int) ([]store.HoldRef, error) {
    rows, err := s.db.QueryContext(ctx,
        `SELECT id, departure_id FROM holds
         WHERE status = ? AND expires_at <= ?
         ORDER BY expires_at
         LIMIT ?`,
        model.HoldStatusActive, now.UTC(), limit)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var refs []store.HoldRef
    for rows.Next() {
        var id, departureID string
        if err := rows.Scan(&id, &departureID); err != nil {
            return nil, err
        }
        ref := store.HoldRef{}
        if ref.HoldID, err = uuid.Parse(id); err != nil {
            return nil, err
        }
        if ref.DepartureID, err = uuid.Parse(departureID); err != nil {
            return nil, err
        }
        refs = append(refs, ref)
    }
    return refs, rows.Err()
}
