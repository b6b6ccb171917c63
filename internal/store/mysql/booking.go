package mysql

import (
    "context"
    "database/sql"
    "time"

    "github.com/google/uuid"

    "github.com/voyagekit/tour-reservation/internal/model"
    "github.com/voyagekit/tour-reservation/internal/store"
)

const bookingCols = `id, hold_id, departure_id, code, seats, customer_ref,
       status, created_at, updated_at`

func scanBooking(row *sql.Row) (*model.Booking, error) {
    var b model.Booking
    var id, holdID, departureID string
    err := row.Scan(&id, &holdID, &departureID, &b.Code, &b.Seats,
        &b.CustomerRef, &b.Status, &b.CreatedAt, &b.UpdatedAt)
    if err != nil {
        return nil, mapRowErr(err)
    }
    if b.ID, err = uuid.Parse(id); err != nil {
        return nil, err
    }
    if b.HoldID, err = uuid.Parse(holdID); err != nil {
        return nil, err
    }
    if b.DepartureID, err = uuid.Parse(departureID); err != nil {
        return nil, err
    }
    return &b, nil
}

func (t *tx) InsertBooking(ctx context.Context, b *model.Booking) error {
    _, err := t.tx.ExecContext(ctx,
        `INSERT INTO bookings
            (id, hold_id, departure_id, code, seats, customer_ref, status, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
        b.ID.String(), b.HoldID.String(), b.DepartureID.String(), b.Code,
        b.Seats, b.CustomerRef, b.Status, b.CreatedAt.UTC(), b.UpdatedAt.UTC())
    if isDuplicate(err) {
        return store.ErrDuplicate
    }
    return err
}

func (t *tx) GetBookingForUpdate(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
    row := t.tx.QueryRowContext(ctx,
        `SELECT `+bookingCols+` FROM bookings WHERE id = ? FOR UPDATE`, id.String())
    return scanBooking(row)
}

func (t *tx) GetBookingByHold(ctx context.Context, holdID uuid.UUID) (*model.Booking, error) {
    row := t.tx.QueryRowContext(ctx,
        `SELECT `+bookingCols+` FROM bookings WHERE hold_id = ?`, holdID.String())
    return scanBooking(row)
}

func (t *tx) UpdateBookingStatus(ctx context.Context, id uuid.UUID, status string, updatedAt time.Time) error {
    res, err := t.tx.ExecContext(ctx,
        `UPDATE bookings SET status = ?, updated_at = ? WHERE id = ?`,
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

func (s *Store) GetBooking(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
    row := s.db.QueryRowContext(ctx,
        `SELECT `+bookingCols+` FROM bookings WHERE id = ?`, id.String())
    return scanBooking(row)
}
