package memory

import (
    "context"
    "errors"
    "testing"
    "time"

    "github.com/google/uuid"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/voyagekit/tour-reservation/internal/model"
    "github.com/voyagekit/tour-reservation/internal/store"
)

func seed(t *testing.T, s *Store, capacity int) uuid.UUID {
    t.Helper()
    ctx := context.Background()
    tourID := uuid.New()
    depID := uuid.New()
    now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
    err := s.WithTx(ctx, func(tx store.Tx) error {
        if err := tx.InsertTour(ctx, &model.Tour{ID: tourID, Name: "T", Slug: "t-" + tourID.String()}); err != nil {
            return err
        }
        return tx.InsertDeparture(ctx, &model.Departure{
            ID:                depID,
            TourID:            tourID,
            StartsAt:          now.Add(24 * time.Hour),
            CapacityTotal:     capacity,
            CapacityAvailable: capacity,
            Price:             model.Money{Amount: 100, Currency: "EUR"},
            CreatedAt:         now,
            UpdatedAt:         now,
        })
    })
    require.NoError(t, err)
    return depID
}

// A failed transaction must leave no partial effects: the inserted hold and
// the capacity decrement both roll back.
func TestWithTxRollsBackOnError(t *testing.T) {
    s := New()
    ctx := context.Background()
    depID := seed(t, s, 10)

    boom := errors.New("boom")
    holdID := uuid.New()
    err := s.WithTx(ctx, func(tx store.Tx) error {
        d, err := tx.GetDepartureForUpdate(ctx, depID)
        if err != nil {
            return err
        }
        if err := tx.InsertHold(ctx, &model.Hold{
            ID:          holdID,
            DepartureID: depID,
            Seats:       3,
            CustomerRef: "c1",
            Status:      model.HoldStatusActive,
            ExpiresAt:   time.Now().Add(time.Minute),
        }); err != nil {
            return err
        }
        d.CapacityAvailable -= 3
        if err := tx.SaveDepartureCapacity(ctx, d); err != nil {
            return err
        }
        return boom
    })
    require.ErrorIs(t, err, boom)

    _, err = s.GetHold(ctx, holdID)
    assert.ErrorIs(t, err, store.ErrNotFound)

    d, err := s.GetDeparture(ctx, depID)
    require.NoError(t, err)
    assert.Equal(t, 10, d.CapacityAvailable)
}

// A context cancelled before commit counts as failure: the caller gets an
// error, so the hold insert and the capacity decrement must both roll back.
func TestWithTxRollsBackOnCancelledContext(t *testing.T) {
    s := New()
    depID := seed(t, s, 10)

    ctx, cancel := context.WithCancel(context.Background())
    cancel()

    holdID := uuid.New()
    err := s.WithTx(ctx, func(tx store.Tx) error {
        d, err := tx.GetDepartureForUpdate(ctx, depID)
        if err != nil {
            return err
        }
        if err := tx.InsertHold(ctx, &model.Hold{
            ID:          holdID,
            DepartureID: depID,
            Seats:       3,
            CustomerRef: "c1",
            Status:      model.HoldStatusActive,
            ExpiresAt:   time.Now().Add(time.Minute),
        }); err != nil {
            return err
        }
        d.CapacityAvailable -= 3
        return tx.SaveDepartureCapacity(ctx, d)
    })
    require.ErrorIs(t, err, context.Canceled)

    bg := context.Background()
    _, err = s.GetHold(bg, holdID)
    assert.ErrorIs(t, err, store.ErrNotFound)

    d, err := s.GetDeparture(bg, depID)
    require.NoError(t, err)
    assert.Equal(t, 10, d.CapacityAvailable)
}

func TestDepartureLockSerializesTransactions(t *testing.T) {
    s := New()
    ctx := context.Background()
    depID := seed(t, s, 100)

    const workers = 50
    done := make(chan error, workers)
    for i := 0; i < workers; i++ {
        go func() {
            done <- s.WithTx(ctx, func(tx store.Tx) error {
                d, err := tx.GetDepartureForUpdate(ctx, depID)
                if err != nil {
                    return err
                }
                d.CapacityAvailable--
                return tx.SaveDepartureCapacity(ctx, d)
            })
        }()
    }
    for i := 0; i < workers; i++ {
        require.NoError(t, <-done)
    }

    d, err := s.GetDeparture(ctx, depID)
    require.NoError(t, err)
    assert.Equal(t, 50, d.CapacityAvailable)
}

func TestUnnotifiedWaitlistEntriesFIFO(t *testing.T) {
    s := New()
    ctx := context.Background()
    depID := seed(t, s, 1)

    base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
    // insert out of creation order; ties broken by id
    entries := []model.WaitlistEntry{
        {ID: uuid.New(), DepartureID: depID, CustomerRef: "late", CreatedAt: base.Add(2 * time.Second)},
        {ID: uuid.New(), DepartureID: depID, CustomerRef: "early", CreatedAt: base},
        {ID: uuid.New(), DepartureID: depID, CustomerRef: "middle", CreatedAt: base.Add(time.Second)},
    }
    err := s.WithTx(ctx, func(tx store.Tx) error {
        for i := range entries {
            if err := tx.InsertWaitlistEntry(ctx, &entries[i]); err != nil {
                return err
            }
        }
        return nil
    })
    require.NoError(t, err)

    err = s.WithTx(ctx, func(tx store.Tx) error {
        got, err := tx.UnnotifiedWaitlistEntries(ctx, depID, 10)
        if err != nil {
            return err
        }
        require.Len(t, got, 3)
        assert.Equal(t, "early", got[0].CustomerRef)
        assert.Equal(t, "middle", got[1].CustomerRef)
        assert.Equal(t, "late", got[2].CustomerRef)

        // marking one removes it from the unnotified set
        if err := tx.MarkWaitlistNotified(ctx, got[0].ID, base.Add(time.Minute)); err != nil {
            return err
        }
        got, err = tx.UnnotifiedWaitlistEntries(ctx, depID, 10)
        if err != nil {
            return err
        }
        require.Len(t, got, 2)
        assert.Equal(t, "middle", got[0].CustomerRef)
        return nil
    })
    require.NoError(t, err)
}

func TestWaitlistDuplicateKey(t *testing.T) {
    s := New()
    ctx := context.Background()
    depID := seed(t, s, 1)

    err := s.WithTx(ctx, func(tx store.Tx) error {
        e := &model.WaitlistEntry{ID: uuid.New(), DepartureID: depID, CustomerRef: "c1", CreatedAt: time.Now()}
        if err := tx.InsertWaitlistEntry(ctx, e); err != nil {
            return err
        }
        dup := &model.WaitlistEntry{ID: uuid.New(), DepartureID: depID, CustomerRef: "c1", CreatedAt: time.Now()}
        return tx.InsertWaitlistEntry(ctx, dup)
    })
    assert.ErrorIs(t, err, store.ErrDuplicate)
}

func TestBookingUniqueness(t *testing.T) {
    s := New()
    ctx := context.Background()
    depID := seed(t, s, 5)
    holdID := uuid.New()

    insert := func(code string, hold uuid.UUID) error {
        return s.WithTx(ctx, func(tx store.Tx) error {
            return tx.InsertBooking(ctx, &model.Booking{
                ID:          uuid.New(),
                HoldID:      hold,
                DepartureID: depID,
                Code:        code,
                Seats:       1,
                CustomerRef: "c1",
                Status:      model.BookingStatusConfirmed,
            })
        })
    }
    require.NoError(t, insert("AAAA1111", holdID))
    // same code
    assert.ErrorIs(t, insert("AAAA1111", uuid.New()), store.ErrDuplicate)
    // same hold
    assert.ErrorIs(t, insert("BBBB2222", holdID), store.ErrDuplicate)
}

func TestExpiredHoldsFiltersAndOrders(t *testing.T) {
    s := New()
    ctx := context.Background()
    depID := seed(t, s, 10)
    now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

    mk := func(status string, expires time.Time) uuid.UUID {
        id := uuid.New()
        err := s.WithTx(ctx, func(tx store.Tx) error {
            return tx.InsertHold(ctx, &model.Hold{
                ID: id, DepartureID: depID, Seats: 1, CustomerRef: "c",
                Status: status, ExpiresAt: expires,
            })
        })
        require.NoError(t, err)
        return id
    }

    oldest := mk(model.HoldStatusActive, now.Add(-2*time.Hour))
    newer := mk(model.HoldStatusActive, now.Add(-time.Minute))
    mk(model.HoldStatusActive, now.Add(time.Hour))       // not yet expired
    mk(model.HoldStatusConfirmed, now.Add(-2*time.Hour)) // terminal

    refs, err := s.ExpiredHolds(ctx, now, 10)
    require.NoError(t, err)
    require.Len(t, refs, 2)
    assert.Equal(t, oldest, refs[0].HoldID)
    assert.Equal(t, newer, refs[1].HoldID)

    refs, err = s.ExpiredHolds(ctx, now, 1)
    require.NoError(t, err)
    require.Len(t, refs, 1)
    assert.Equal(t, oldest, refs[0].HoldID)
}

func TestSearchDeparturesCursorPagination(t *testing.T) {
    s := New()
    ctx := context.Background()
    tourID := uuid.New()
    now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

    err := s.WithTx(ctx, func(tx store.Tx) error {
        if err := tx.InsertTour(ctx, &model.Tour{ID: tourID, Name: "T", Slug: "t"}); err != nil {
            return err
        }
        for i := 0; i < 5; i++ {
            if err := tx.InsertDeparture(ctx, &model.Departure{
                ID: uuid.New(), TourID: tourID,
                StartsAt:      now.Add(time.Duration(i) * 24 * time.Hour),
                CapacityTotal: 10, CapacityAvailable: 10,
                Price: model.Money{Amount: 100, Currency: "EUR"},
            }); err != nil {
                return err
            }
        }
        return nil
    })
    require.NoError(t, err)

    page1, err := s.SearchDepartures(ctx, store.DepartureSearch{TourID: &tourID, Limit: 2})
    require.NoError(t, err)
    require.Len(t, page1, 2)

    cursor := page1[1].ID
    page2, err := s.SearchDepartures(ctx, store.DepartureSearch{TourID: &tourID, Cursor: &cursor, Limit: 2})
    require.NoError(t, err)
    require.Len(t, page2, 2)
    // pages never overlap and stay ordered
    assert.Greater(t, page2[0].ID.String(), page1[1].ID.String())

    cursor = page2[1].ID
    page3, err := s.SearchDepartures(ctx, store.DepartureSearch{TourID: &tourID, Cursor: &cursor, Limit: 2})
    require.NoError(t, err)
    assert.Len(t, page3, 1)
}
