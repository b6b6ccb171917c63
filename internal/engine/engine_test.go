package engine_test

import (
    "context"
    "sync"
    "testing"
    "time"

    "github.com/google/uuid"
    "github.com/stretchr/testify/require"

    "github.com/voyagekit/tour-reservation/internal/engine"
    "github.com/voyagekit/tour-reservation/internal/model"
    "github.com/voyagekit/tour-reservation/internal/store/memory"
)

// fakeClock is a manually advanced clock shared by engine tests.
type fakeClock struct {
    mu  sync.Mutex
    now time.Time
}

func newFakeClock() *fakeClock {
    return &fakeClock{now: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
    c.mu.Lock()
    defer c.mu.Unlock()
    return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
    c.mu.Lock()
    c.now = c.now.Add(d)
    c.mu.Unlock()
}

// capturingEvents records event callbacks for assertions.
type capturingEvents struct {
    mu        sync.Mutex
    confirmed []model.Booking
    notified  [][]model.Hold
}

func (e *capturingEvents) BookingConfirmed(_ context.Context, b *model.Booking) {
    e.mu.Lock()
    defer e.mu.Unlock()
    e.confirmed = append(e.confirmed, *b)
}

func (e *capturingEvents) WaitlistNotified(_ context.Context, _ string, holds []model.Hold) {
    e.mu.Lock()
    defer e.mu.Unlock()
    e.notified = append(e.notified, holds)
}

type testEnv struct {
    eng    *engine.Engine
    clock  *fakeClock
    store  *memory.Store
    events *capturingEvents
}

func newTestEnv(t *testing.T) *testEnv {
    t.Helper()
    st := memory.New()
    clock := newFakeClock()
    events := &capturingEvents{}
    return &testEnv{
        eng:    engine.New(st, clock, events),
        clock:  clock,
        store:  st,
        events: events,
    }
}

// seedDeparture creates a tour and one departure with the given capacity.
func (env *testEnv) seedDeparture(t *testing.T, capacity int) uuid.UUID {
    t.Helper()
    ctx := context.Background()
    tour, err := env.eng.CreateTour(ctx, engine.CreateTourParams{
        Name: "Fjord Cruise",
        Slug: "fjord-cruise-" + uuid.NewString(),
    })
    require.NoError(t, err)
    d, err := env.eng.CreateDeparture(ctx, engine.CreateDepartureParams{
        TourID:        tour.ID,
        StartsAt:      env.clock.Now().Add(30 * 24 * time.Hour),
        CapacityTotal: capacity,
        Price:         model.Money{Amount: 14900, Currency: "EUR"},
    })
    require.NoError(t, err)
    return d.ID
}

func (env *testEnv) available(t *testing.T, departureID uuid.UUID) int {
    t.Helper()
    d, err := env.eng.GetDeparture(context.Background(), departureID)
    require.NoError(t, err)
    return d.CapacityAvailable
}
