package engine_test

import (
    "context"
    "regexp"
    "testing"
    "time"

    "github.com/google/uuid"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/voyagekit/tour-reservation/internal/model"
    "github.com/voyagekit/tour-reservation/internal/problem"
)

var bookingCodeRe = regexp.MustCompile(`^[A-Z0-9]{8}$`)

func TestConfirmBooking(t *testing.T) {
    env := newTestEnv(t)
    depID := env.seedDeparture(t, 10)
    ctx := context.Background()

    hold, err := env.eng.CreateHold(ctx, holdParams(depID, 4))
    require.NoError(t, err)

    booking, err := env.eng.ConfirmBooking(ctx, hold.ID)
    require.NoError(t, err)

    assert.Equal(t, model.BookingStatusConfirmed, booking.Status)
    assert.Equal(t, hold.ID, booking.HoldID)
    assert.Equal(t, 4, booking.Seats)
    assert.Equal(t, hold.CustomerRef, booking.CustomerRef)
    assert.Regexp(t, bookingCodeRe, booking.Code)

    // confirmation never touches capacity; the hold already paid for it
    assert.Equal(t, 6, env.available(t, depID))

    got, err := env.store.GetHold(ctx, hold.ID)
    require.NoError(t, err)
    assert.Equal(t, model.HoldStatusConfirmed, got.Status)

    require.Len(t, env.events.confirmed, 1)
    assert.Equal(t, booking.ID, env.events.confirmed[0].ID)
}

func TestConfirmBookingReplay(t *testing.T) {
    env := newTestEnv(t)
    depID := env.seedDeparture(t, 10)
    ctx := context.Background()

    hold, err := env.eng.CreateHold(ctx, holdParams(depID, 2))
    require.NoError(t, err)

    first, err := env.eng.ConfirmBooking(ctx, hold.ID)
    require.NoError(t, err)
    second, err := env.eng.ConfirmBooking(ctx, hold.ID)
    require.NoError(t, err)

    assert.Equal(t, first.ID, second.ID)
    assert.Equal(t, first.Code, second.Code)
    assert.Equal(t, 8, env.available(t, depID))
    // replay emits no second event
    assert.Len(t, env.events.confirmed, 1)
}

func TestConfirmExpiredHold(t *testing.T) {
    env := newTestEnv(t)
    depID := env.seedDeparture(t, 10)
    ctx := context.Background()

    p := holdParams(depID, 2)
    p.TTLSeconds = 60
    hold, err := env.eng.CreateHold(ctx, p)
    require.NoError(t, err)

    env.clock.Advance(61 * time.Second)

    _, err = env.eng.ConfirmBooking(ctx, hold.ID)
    require.Error(t, err)
    prob := problem.From(err)
    assert.Equal(t, 410, prob.Status)
    assert.Equal(t, problem.CodeHoldExpired, prob.Code)
}

// The clock decides, not the status column: a hold the expiry worker has not
// visited yet is still refused once its TTL lapsed.
func TestConfirmLapsedButUnsweptHold(t *testing.T) {
    env := newTestEnv(t)
    depID := env.seedDeparture(t, 10)
    ctx := context.Background()

    p := holdParams(depID, 1)
    p.TTLSeconds = 60
    hold, err := env.eng.CreateHold(ctx, p)
    require.NoError(t, err)

    env.clock.Advance(2 * time.Minute)

    got, err := env.store.GetHold(ctx, hold.ID)
    require.NoError(t, err)
    require.Equal(t, model.HoldStatusActive, got.Status) // worker never ran

    _, err = env.eng.ConfirmBooking(ctx, hold.ID)
    require.Error(t, err)
    assert.Equal(t, problem.CodeHoldExpired, problem.From(err).Code)
}

func TestConfirmCanceledHold(t *testing.T) {
    env := newTestEnv(t)
    depID := env.seedDeparture(t, 10)
    ctx := context.Background()

    hold, err := env.eng.CreateHold(ctx, holdParams(depID, 2))
    require.NoError(t, err)
    booking, err := env.eng.ConfirmBooking(ctx, hold.ID)
    require.NoError(t, err)
    _, err = env.eng.CancelBooking(ctx, booking.ID)
    require.NoError(t, err)

    _, err = env.eng.ConfirmBooking(ctx, hold.ID)
    require.Error(t, err)
    assert.Equal(t, 409, problem.From(err).Status)
}

func TestConfirmUnknownHold(t *testing.T) {
    env := newTestEnv(t)
    _, err := env.eng.ConfirmBooking(context.Background(), uuid.New())
    require.Error(t, err)
    assert.Equal(t, 404, problem.From(err).Status)
}

func TestCancelBookingRestoresSeats(t *testing.T) {
    env := newTestEnv(t)
    depID := env.seedDeparture(t, 10)
    ctx := context.Background()

    hold, err := env.eng.CreateHold(ctx, holdParams(depID, 4))
    require.NoError(t, err)
    booking, err := env.eng.ConfirmBooking(ctx, hold.ID)
    require.NoError(t, err)
    require.Equal(t, 6, env.available(t, depID))

    canceled, err := env.eng.CancelBooking(ctx, booking.ID)
    require.NoError(t, err)
    assert.Equal(t, model.BookingStatusCanceled, canceled.Status)
    assert.Equal(t, 10, env.available(t, depID))

    got, err := env.store.GetHold(ctx, hold.ID)
    require.NoError(t, err)
    assert.Equal(t, model.HoldStatusCanceled, got.Status)
}

func TestCancelBookingIdempotent(t *testing.T) {
    env := newTestEnv(t)
    depID := env.seedDeparture(t, 10)
    ctx := context.Background()

    hold, err := env.eng.CreateHold(ctx, holdParams(depID, 3))
    require.NoError(t, err)
    booking, err := env.eng.ConfirmBooking(ctx, hold.ID)
    require.NoError(t, err)

    _, err = env.eng.CancelBooking(ctx, booking.ID)
    require.NoError(t, err)
    again, err := env.eng.CancelBooking(ctx, booking.ID)
    require.NoError(t, err)

    assert.Equal(t, model.BookingStatusCanceled, again.Status)
    // seats restored exactly once
    assert.Equal(t, 10, env.available(t, depID))
}

// When an operator shrank the departure while seats were committed, a later
// cancellation restores seats only up to the new total.
func TestCancelRestoreCappedAtTotal(t *testing.T) {
    env := newTestEnv(t)
    depID := env.seedDeparture(t, 10)
    ctx := context.Background()

    hold, err := env.eng.CreateHold(ctx, holdParams(depID, 6))
    require.NoError(t, err)
    booking, err := env.eng.ConfirmBooking(ctx, hold.ID)
    require.NoError(t, err)
    require.Equal(t, 4, env.available(t, depID))

    _, err = env.eng.AdjustInventory(ctx, adjustParams(depID, -4, "boat swap"))
    require.NoError(t, err)
    require.Equal(t, 0, env.available(t, depID))

    _, err = env.eng.CancelBooking(ctx, booking.ID)
    require.NoError(t, err)

    d, err := env.eng.GetDeparture(ctx, depID)
    require.NoError(t, err)
    assert.Equal(t, 6, d.CapacityTotal)
    assert.Equal(t, 6, d.CapacityAvailable)
}

func TestGetBooking(t *testing.T) {
    env := newTestEnv(t)
    depID := env.seedDeparture(t, 5)
    ctx := context.Background()

    hold, err := env.eng.CreateHold(ctx, holdParams(depID, 1))
    require.NoError(t, err)
    booking, err := env.eng.ConfirmBooking(ctx, hold.ID)
    require.NoError(t, err)

    got, err := env.eng.GetBooking(ctx, booking.ID)
    require.NoError(t, err)
    assert.Equal(t, booking.Code, got.Code)

    _, err = env.eng.GetBooking(ctx, uuid.New())
    require.Error(t, err)
    assert.Equal(t, 404, problem.From(err).Status)
}
