package mysql

import (
    "context"
    "database/sql"
    "time"

    "github.com/google/uuid"

    "github.com/voyagekit/tour-reservation/internal/model"
    "github.com/voyagekit/tour-reservation/internal/store"
)

const waitlistCols = `id, departure_id, customer_ref, notified_at, created_at`

func scanWaitlistRow(scan func(dest ...interface{}) error) (*model.WaitlistEntry, error) {
    var e model.WaitlistEntry
    var id, departureID string
    var notifiedAt sql.NullTime
    err := scan(&id, &departureID, &e.CustomerRef, &notifiedAt, &e.CreatedAt)
    if err != nil {
        return nil, mapRowErr(err)
    }
    if e.ID, err = uuid.Parse(id); err != nil {
        return nil, err
    }
    if e.DepartureID, err = uuid.Parse(departureID); err != nil {
        return nil, err
    }
    if notifiedAt.Valid {
        ts := notifiedAt.Time
        e.NotifiedAt = &ts
    }
    return &e, nil
}

func (t *tx) InsertWaitlistEntry(ctx context.Context, e *model.WaitlistEntry) error {
    var notifiedAt interface{}
    if e.NotifiedAt != nil {
        notifiedAt = e.NotifiedAt.UTC()
    }
    _, err := t.tx.ExecContext(ctx,
        `INSERT INTO waitlist_entries (id, departure_id, customer_ref, notified_at, created_at)
         VALUES (?, ?, ?, ?, ?)`,
        e.ID.String(), e.DepartureID.String(), e.CustomerRef, notifiedAt, e.CreatedAt.UTC())
    if isDuplicate(err) {
        return store.ErrDuplicate
    }
    return err
}

func (t *tx) FindWaitlistEntry(ctx context.Context, departureID uuid.UUID, customerRef string) (*model.WaitlistEntry, error) {
    row := t.tx.QueryRowContext(ctx,
        `SELECT `+waitlistCols+` FROM waitlist_entries
         WHERE departure_id = ? AND customer_ref = ?`,
        departureID.String(), customerRef)
    return scanWaitlistRow(row.Scan)
}

// UnnotifiedWaitlistEntries returns the FIFO head of the waitlist: oldest
// first, id as the tie-break for identical timestamps.
func (t *tx) UnnotifiedWaitlistEntries(ctx context.Context, departureID uuid.UUID, limit int) ([]model.WaitlistEntry, error) {
    rows, err := t.tx.QueryContext(ctx,
        `SELECT `+waitlistCols+` FROM waitlist_entries
         WHERE departure_id = ? AND notified_at IS NULL
         ORDER BY created_at, id
         LIMIT ?`,
        departureID.String(), limit)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var entries []model.WaitlistEntry
    for rows.Next() {
        e, err := scanWaitlistRow(rows.Scan)
        if err != nil {
            return nil, err
        }
        entries = append(entries, *e)
    }
    return entries, rows.Err()
}

func (t *tx) MarkWaitlistNotified(ctx context.Context, entryID uuid.UUID, at time.Time) error {
    res, err := t.tx.ExecContext(ctx,
        `UPDATE waitlist_entries SET notified_at = ? WHERE id = ? AND notified_at IS NULL`,
        at.UTC(), entryID.String())
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

// DeparturesWithWaitlistDemand finds departures the promotion worker should
// visit: available capacity and at least one unnotified entry.
func (s *Store) DeparturesWithWaitlistDemand(ctx context.Context, limit int) ([]uuid.UUID, error) {
    rows, err := s.db.QueryContext(ctx,
        `SELECT DISTINCT d.id
         FROM departures d
         JOIN waitlist_entries w ON w.departure_id = d.id AND w.notified_at IS NULL
         WHERE d.capacity_available > 0
         LIMIT ?`, limit)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var ids []uuid.UUID
    for rows.Next() {
        var raw string
        if err := rows.Scan(&raw); err != nil {
            return nil, err
        }
        id, err := uuid.Parse(raw)
        if err != nil {
            return nil, err
        }
        ids = append(ids, id)
    }
    return ids, rows.Err()
}

func (t *tx) InsertAdjustment(ctx context.Context, a *model.InventoryAdjustment) error {
    _, err := t.tx.ExecContext(ctx,
        `INSERT INTO inventory_adjustments
            (id, departure_id, delta, reason, actor,
             capacity_total_before, capacity_total_after,
             capacity_available_before, capacity_available_after, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
        a.ID.String(), a.DepartureID.String(), a.Delta, a.Reason, a.Actor,
        a.TotalBefore, a.TotalAfter, a.AvailableBefore, a.AvailableAfter,
        a.CreatedAt.UTC())
    return err
}
