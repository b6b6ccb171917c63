// Package mysql implements store.Store on MySQL via database/sql.  The
// per-departure lock is the departure row itself: GetDepartureForUpdate
// issues SELECT ... FOR UPDATE, so every capacity read-modify-write for one
// departure is serialized by InnoDB row locking for the duration of the
// transaction.  All timestamps are stored and compared in UTC.
package mysql

import (
    "context"
    "database/sql"
    "errors"

    "github.com/go-sql-driver/mysql"
    "github.com/google/uuid"

    "github.com/voyagekit/tour-reservation/internal/model"
    "github.com/voyagekit/tour-reservation/internal/store"
)

// Store wraps the connection pool.
type Store struct {
    db *sql.DB
}

// New returns a Store bound to the provided database handle.
func New(db *sql.DB) *Store { return &Store{db: db} }

// DB exposes the underlying handle for migrations and health checks.
func (s *Store) DB() *sql.DB { return s.db }

type tx struct {
    tx *sql.Tx
}

// WithTx begins a transaction, runs fn, and commits when fn returns nil.
// Any error from fn (or from commit) rolls the transaction back, which also
// releases every row lock taken inside it.
func (s *Store) WithTx(ctx context.Context, fn func(t store.Tx) error) error {
    sqlTx, err := s.db.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    committed := false
    defer func() {
        if !committed {
            _ = sqlTx.Rollback()
        }
    }()
    if err := fn(&tx{tx: sqlTx}); err != nil {
        return err
    }
    if err := sqlTx.Commit(); err != nil {
        return err
    }
    committed = true
    return nil
}

// Ping verifies the connection.
func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// isDuplicate reports whether err is a MySQL duplicate-key violation.
func isDuplicate(err error) bool {
    var me *mysql.MySQLError
    return errors.As(err, &me) && me.Number == 1062
}

// mapRowErr converts sql.ErrNoRows to the store sentinel.
func mapRowErr(err error) error {
    if errors.Is(err, sql.ErrNoRows) {
        return store.ErrNotFound
    }
    return err
}

const departureCols = `id, tour_id, starts_at, capacity_total, capacity_available,
       price_amount, price_currency, created_at, updated_at`

func scanDeparture(row *sql.Row) (*model.Departure, error) {
    var d model.Departure
    var id, tourID string
    err := row.Scan(&id, &tourID, &d.StartsAt, &d.CapacityTotal, &d.CapacityAvailable,
        &d.Price.Amount, &d.Price.Currency, &d.CreatedAt, &d.UpdatedAt)
    if err != nil {
        return nil, mapRowErr(err)
    }
    d.ID, err = uuid.Parse(id)
    if err != nil {
        return nil, err
    }
    d.TourID, err = uuid.Parse(tourID)
    if err != nil {
        return nil, err
    }
    return &d, nil
}

func (t *tx) GetDepartureForUpdate(ctx context.Context, id uuid.UUID) (*model.Departure, error) {
    row := t.tx.QueryRowContext(ctx,
        `SELECT `+departureCols+` FROM departures WHERE id = ? FOR UPDATE`, id.String())
    return scanDeparture(row)
}

func (t *tx) SaveDepartureCapacity(ctx context.Context, d *model.Departure) error {
    res, err := t.tx.ExecContext(ctx,
        `UPDATE departures SET capacity_total = ?, capacity_available = ?, updated_at = ? WHERE id = ?`,
        d.CapacityTotal, d.CapacityAvailable, d.UpdatedAt.UTC(), d.ID.String())
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

func (t *tx) InsertDeparture(ctx context.Context, d *model.Departure) error {
    _, err := t.tx.ExecContext(ctx,
        `INSERT INTO departures
            (id, tour_id, starts_at, capacity_total, capacity_available,
             price_amount, price_currency, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
        d.ID.String(), d.TourID.String(), d.StartsAt.UTC(),
        d.CapacityTotal, d.CapacityAvailable,
        d.Price.Amount, d.Price.Currency, d.CreatedAt.UTC(), d.UpdatedAt.UTC())
    if isDuplicate(err) {
        return store.ErrDuplicate
    }
    return err
}

func (t *tx) InsertTour(ctx context.Context, tr *model.Tour) error {
    _, err := t.tx.ExecContext(ctx,
        `INSERT INTO tours (id, name, slug, description, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
        tr.ID.String(), tr.Name, tr.Slug, tr.Description, tr.CreatedAt.UTC(), tr.UpdatedAt.UTC())
    if isDuplicate(err) {
        return store.ErrDuplicate
    }
    return err
}

func (t *tx) GetTour(ctx context.Context, id uuid.UUID) (*model.Tour, error) {
    row := t.tx.QueryRowContext(ctx,
        `SELECT id, name, slug, description, created_at, updated_at FROM tours WHERE id = ?`,
        id.String())
    var tr model.Tour
    var rawID string
    err := row.Scan(&rawID, &tr.Name, &tr.Slug, &tr.Description, &tr.CreatedAt, &tr.UpdatedAt)
    if err != nil {
        return nil, mapRowErr(err)
    }
    tr.ID, err = uuid.Parse(rawID)
    if err != nil {
        return nil, err
    }
    return &tr, nil
}

func (s *Store) GetDeparture(ctx context.Context, id uuid.UUID) (*model.Departure, error) {
    row := s.db.QueryRowContext(ctx,
        `SELECT `+departureCols+` FROM departures WHERE id = ?`, id.String())
    return scanDeparture(row)
}

// SearchDepartures applies the optional filters and pages by id so that a
// cursor remains stable while rows are inserted concurrently.
func (s *Store) SearchDepartures(ctx context.Context, q store.DepartureSearch) ([]model.Departure, error) {
    query := `SELECT ` + departureCols + ` FROM departures WHERE 1=1`
    var args []interface{}
    if q.TourID != nil {
        query += ` AND tour_id = ?`
        args = append(args, q.TourID.String())
    }
    if q.DateFrom != nil {
        query += ` AND starts_at >= ?`
        args = append(args, q.DateFrom.UTC())
    }
    if q.DateTo != nil {
        query += ` AND starts_at < ?`
        args = append(args, q.DateTo.UTC())
    }
    if q.AvailableOnly {
        query += ` AND capacity_available > 0`
    }
    if q.Cursor != nil {
        query += ` AND id > ?`
        args = append(args, q.Cursor.String())
    }
    query += ` ORDER BY id`
    limit := q.Limit
    if limit <= 0 {
        limit = 50
    }
    query += ` LIMIT ?`
    args = append(args, limit)

    rows, err := s.db.QueryContext(ctx, query, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var out []model.Departure
    for rows.Next() {
        var d model.Departure
        var id, tourID string
        if err := rows.Scan(&id, &tourID, &d.StartsAt, &d.CapacityTotal, &d.CapacityAvailable,
            &d.Price.Amount, &d.Price.Currency, &d.CreatedAt, &d.UpdatedAt); err != nil {
            return nil, err
        }
        if d.ID, err = uuid.Parse(id); err != nil {
            return nil, err
        }
        if d.TourID, err = uuid.Parse(tourID); err != nil {
            return nil, err
        }
        out = append(out, d)
    }
    return out, rows.Err()
}

var _ store.Store = (*Store)(nil)
var _ store.Tx = (*tx)(nil)
