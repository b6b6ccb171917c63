// Package memory implements store.Store for single-process deployments and
// tests.  Serialization follows the same rule as the SQL backend: an
// exclusive per-departure mutex is acquired by GetDepartureForUpdate (or on
// first touch of a hold/booking row belonging to that departure) and held
// until the transaction commits or rolls back.  Rollback is implemented with
// an undo journal so a failed transaction leaves no partial effects.
package memory

import (
    "context"
    "sort"
    "strings"
    "sync"
    "time"

    "github.com/google/uuid"

    "github.com/voyagekit/tour-reservation/internal/model"
    "github.com/voyagekit/tour-reservation/internal/store"
)

type waitKey struct {
    departureID uuid.UUID
    customerRef string
}

type idemKey struct {
    key    string
    method string
}

// Store holds all tables in maps guarded by a structural RWMutex.  Row-level
// serialization is provided by the per-departure mutexes in locks.
type Store struct {
    mu sync.RWMutex

    tours         map[uuid.UUID]model.Tour
    tourSlugs     map[string]uuid.UUID
    departures    map[uuid.UUID]model.Departure
    holds         map[uuid.UUID]model.Hold
    bookings      map[uuid.UUID]model.Booking
    bookingByHold map[uuid.UUID]uuid.UUID
    bookingCodes  map[string]uuid.UUID
    waitlist      map[uuid.UUID]model.WaitlistEntry
    waitlistKeys  map[waitKey]uuid.UUID
    adjustments   map[uuid.UUID]model.InventoryAdjustment
    idem          map[idemKey]model.IdempotencyRecord

    locks sync.Map // departure id -> *sync.Mutex
}

// New returns an empty in-memory store.
func New() *Store {
    return &Store{
        tours:         make(map[uuid.UUID]model.Tour),
        tourSlugs:     make(map[string]uuid.UUID),
        departures:    make(map[uuid.UUID]model.Departure),
        holds:         make(map[uuid.UUID]model.Hold),
        bookings:      make(map[uuid.UUID]model.Booking),
        bookingByHold: make(map[uuid.UUID]uuid.UUID),
        bookingCodes:  make(map[string]uuid.UUID),
        waitlist:      make(map[uuid.UUID]model.WaitlistEntry),
        waitlistKeys:  make(map[waitKey]uuid.UUID),
        adjustments:   make(map[uuid.UUID]model.InventoryAdjustment),
        idem:          make(map[idemKey]model.IdempotencyRecord),
    }
}

func (s *Store) departureLock(id uuid.UUID) *sync.Mutex {
    l, _ := s.locks.LoadOrStore(id, &sync.Mutex{})
    return l.(*sync.Mutex)
}

type tx struct {
    s    *Store
    held map[uuid.UUID]*sync.Mutex
    undo []func()
}

// WithTx runs fn and rolls back all journaled mutations when fn fails.
// A context cancelled by commit time counts as a failure too: the caller
// sees an error, so none of the transaction's effects may persist.
// Departure locks acquired during fn are released on return.
func (s *Store) WithTx(ctx context.Context, fn func(t store.Tx) error) error {
    t := &tx{s: s, held: make(map[uuid.UUID]*sync.Mutex)}
    err := fn(t)
    if err == nil {
        err = ctx.Err()
    }
    if err != nil {
        s.mu.Lock()
        for i := len(t.undo) - 1; i >= 0; i-- {
            t.undo[i]()
        }
        s.mu.Unlock()
    }
    for _, l := range t.held {
        l.Unlock()
    }
    return err
}

// lockDeparture acquires the departure mutex once per transaction.
func (t *tx) lockDeparture(id uuid.UUID) {
    if _, ok := t.held[id]; ok {
        return
    }
    l := t.s.departureLock(id)
    l.Lock()
    t.held[id] = l
}

func (t *tx) GetDepartureForUpdate(ctx context.Context, id uuid.UUID) (*model.Departure, error) {
    t.lockDeparture(id)
    t.s.mu.RLock()
    defer t.s.mu.RUnlock()
    d, ok := t.s.departures[id]
    if !ok {
        return nil, store.ErrNotFound
    }
    return &d, nil
}

func (t *tx) SaveDepartureCapacity(ctx context.Context, d *model.Departure) error {
    t.s.mu.Lock()
    defer t.s.mu.Unlock()
    prev, ok := t.s.departures[d.ID]
    if !ok {
        return store.ErrNotFound
    }
    t.undo = append(t.undo, func() { t.s.departures[d.ID] = prev })
    cur := prev
    cur.CapacityTotal = d.CapacityTotal
    cur.CapacityAvailable = d.CapacityAvailable
    cur.UpdatedAt = d.UpdatedAt
    t.s.departures[d.ID] = cur
    return nil
}

func (t *tx) InsertDeparture(ctx context.Context, d *model.Departure) error {
    t.s.mu.Lock()
    defer t.s.mu.Unlock()
    if _, ok := t.s.tours[d.TourID]; !ok {
        return store.ErrNotFound
    }
    cp := *d
    t.s.departures[d.ID] = cp
    t.undo = append(t.undo, func() { delete(t.s.departures, cp.ID) })
    return nil
}

func (t *tx) InsertHold(ctx context.Context, h *model.Hold) error {
    t.s.mu.Lock()
    defer t.s.mu.Unlock()
    cp := *h
    t.s.holds[h.ID] = cp
    t.undo = append(t.undo, func() { delete(t.s.holds, cp.ID) })
    return nil
}

func (t *tx) GetHoldForUpdate(ctx context.Context, id uuid.UUID) (*model.Hold, error) {
    t.s.mu.RLock()
    h, ok := t.s.holds[id]
    t.s.mu.RUnlock()
    if !ok {
        return nil, store.ErrNotFound
    }
    // Serialize on the owning departure, then re-read: the row may have
    // changed while we waited for the lock.
    t.lockDeparture(h.DepartureID)
    t.s.mu.RLock()
    defer t.s.mu.RUnlock()
    h, ok = t.s.holds[id]
    if !ok {
        return nil, store.ErrNotFound
    }
    return &h, nil
}

func (t *tx) UpdateHoldStatus(ctx context.Context, id uuid.UUID, status string, updatedAt time.Time) error {
    t.s.mu.Lock()
    defer t.s.mu.Unlock()
    prev, ok := t.s.holds[id]
    if !ok {
        return store.ErrNotFound
    }
    t.undo = append(t.undo, func() { t.s.holds[id] = prev })
    cur := prev
    cur.Status = status
    cur.UpdatedAt = updatedAt
    t.s.holds[id] = cur
    return nil
}

func (t *tx) InsertBooking(ctx context.Context, b *model.Booking) error {
    t.s.mu.Lock()
    defer t.s.mu.Unlock()
    if _, exists := t.s.bookingCodes[b.Code]; exists {
        return store.ErrDuplicate
    }
    if _, exists := t.s.bookingByHold[b.HoldID]; exists {
        return store.ErrDuplicate
    }
    cp := *b
    t.s.bookings[b.ID] = cp
    t.s.bookingByHold[b.HoldID] = b.ID
    t.s.bookingCodes[b.Code] = b.ID
    t.undo = append(t.undo, func() {
        delete(t.s.bookings, cp.ID)
        delete(t.s.bookingByHold, cp.HoldID)
        delete(t.s.bookingCodes, cp.Code)
    })
    return nil
}

func (t *tx) GetBookingForUpdate(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
    t.s.mu.RLock()
    b, ok := t.s.bookings[id]
    t.s.mu.RUnlock()
    if !ok {
        return nil, store.ErrNotFound
    }
    t.lockDeparture(b.DepartureID)
    t.s.mu.RLock()
    defer t.s.mu.RUnlock()
    b, ok = t.s.bookings[id]
    if !ok {
        return nil, store.ErrNotFound
    }
    return &b, nil
}

func (t *tx) GetBookingByHold(ctx context.Context, holdID uuid.UUID) (*model.Booking, error) {
    t.s.mu.RLock()
    defer t.s.mu.RUnlock()
    id, ok := t.s.bookingByHold[holdID]
    if !ok {
        return nil, store.ErrNotFound
    }
    b := t.s.bookings[id]
    return &b, nil
}

func (t *tx) UpdateBookingStatus(ctx context.Context, id uuid.UUID, status string, updatedAt time.Time) error {
    t.s.mu.Lock()
    defer t.s.mu.Unlock()
    prev, ok := t.s.bookings[id]
    if !ok {
        return store.ErrNotFound
    }
    t.undo = append(t.undo, func() { t.s.bookings[id] = prev })
    cur := prev
    cur.Status = status
    cur.UpdatedAt = updatedAt
    t.s.bookings[id] = cur
    return nil
}

func (t *tx) InsertWaitlistEntry(ctx context.Context, e *model.WaitlistEntry) error {
    t.s.mu.Lock()
    defer t.s.mu.Unlock()
    k := waitKey{departureID: e.DepartureID, customerRef: e.CustomerRef}
    if _, exists := t.s.waitlistKeys[k]; exists {
        return store.ErrDuplicate
    }
    cp := *e
    t.s.waitlist[e.ID] = cp
    t.s.waitlistKeys[k] = e.ID
    t.undo = append(t.undo, func() {
        delete(t.s.waitlist, cp.ID)
        delete(t.s.waitlistKeys, k)
    })
    return nil
}

func (t *tx) FindWaitlistEntry(ctx context.Context, departureID uuid.UUID, customerRef string) (*model.WaitlistEntry, error) {
    t.s.mu.RLock()
    defer t.s.mu.RUnlock()
    id, ok := t.s.waitlistKeys[waitKey{departureID: departureID, customerRef: customerRef}]
    if !ok {
        return nil, store.ErrNotFound
    }
    e := t.s.waitlist[id]
    return &e, nil
}

func (t *tx) UnnotifiedWaitlistEntries(ctx context.Context, departureID uuid.UUID, limit int) ([]model.WaitlistEntry, error) {
    t.s.mu.RLock()
    defer t.s.mu.RUnlock()
    var entries []model.WaitlistEntry
    for _, e := range t.s.waitlist {
        if e.DepartureID == departureID && e.NotifiedAt == nil {
            entries = append(entries, e)
        }
    }
    sortWaitlistFIFO(entries)
    if limit > 0 && len(entries) > limit {
        entries = entries[:limit]
    }
    return entries, nil
}

func (t *tx) MarkWaitlistNotified(ctx context.Context, entryID uuid.UUID, at time.Time) error {
    t.s.mu.Lock()
    defer t.s.mu.Unlock()
    prev, ok := t.s.waitlist[entryID]
    if !ok {
        return store.ErrNotFound
    }
    t.undo = append(t.undo, func() { t.s.waitlist[entryID] = prev })
    cur := prev
    notified := at
    cur.NotifiedAt = &notified
    t.s.waitlist[entryID] = cur
    return nil
}

func (t *tx) InsertAdjustment(ctx context.Context, a *model.InventoryAdjustment) error {
    // Adjustments are append-only and only ever read through reporting
    // queries; storing the row is enough for the audit trail.
    t.s.mu.Lock()
    defer t.s.mu.Unlock()
    cp := *a
    t.s.adjustments[a.ID] = cp
    t.undo = append(t.undo, func() { delete(t.s.adjustments, cp.ID) })
    return nil
}

func (t *tx) InsertTour(ctx context.Context, tr *model.Tour) error {
    t.s.mu.Lock()
    defer t.s.mu.Unlock()
    if _, exists := t.s.tourSlugs[tr.Slug]; exists {
        return store.ErrDuplicate
    }
    cp := *tr
    t.s.tours[tr.ID] = cp
    t.s.tourSlugs[tr.Slug] = tr.ID
    t.undo = append(t.undo, func() {
        delete(t.s.tours, cp.ID)
        delete(t.s.tourSlugs, cp.Slug)
    })
    return nil
}

func (t *tx) GetTour(ctx context.Context, id uuid.UUID) (*model.Tour, error) {
    t.s.mu.RLock()
    defer t.s.mu.RUnlock()
    tr, ok := t.s.tours[id]
    if !ok {
        return nil, store.ErrNotFound
    }
    return &tr, nil
}

func (s *Store) GetDeparture(ctx context.Context, id uuid.UUID) (*model.Departure, error) {
    s.mu.RLock()
    defer s.mu.RUnlock()
    d, ok := s.departures[id]
    if !ok {
        return nil, store.ErrNotFound
    }
    return &d, nil
}

func (s *Store) GetBooking(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
    s.mu.RLock()
    defer s.mu.RUnlock()
    b, ok := s.bookings[id]
    if !ok {
        return nil, store.ErrNotFound
    }
    return &b, nil
}

func (s *Store) GetHold(ctx context.Context, id uuid.UUID) (*model.Hold, error) {
    s.mu.RLock()
    defer s.mu.RUnlock()
    h, ok := s.holds[id]
    if !ok {
        return nil, store.ErrNotFound
    }
    return &h, nil
}

func (s *Store) SearchDepartures(ctx context.Context, q store.DepartureSearch) ([]model.Departure, error) {
    s.mu.RLock()
    var out []model.Departure
    for _, d := range s.departures {
        if q.TourID != nil && d.TourID != *q.TourID {
            continue
        }
        if q.DateFrom != nil && d.StartsAt.Before(*q.DateFrom) {
            continue
        }
        if q.DateTo != nil && !d.StartsAt.Before(*q.DateTo) {
            continue
        }
        if q.AvailableOnly && d.CapacityAvailable <= 0 {
            continue
        }
        if q.Cursor != nil && strings.Compare(d.ID.String(), q.Cursor.String()) <= 0 {
            continue
        }
        out = append(out, d)
    }
    s.mu.RUnlock()
    sort.Slice(out, func(i, j int) bool {
        return strings.Compare(out[i].ID.String(), out[j].ID.String()) < 0
    })
    if q.Limit > 0 && len(out) > q.Limit {
        out = out[:q.Limit]
    }
    return out, nil
}

func (s *Store) ExpiredHolds(ctx context.Context, now time.Time, limit int) ([]store.HoldRef, error) {
    s.mu.RLock()
    var expired []model.Hold
    for _, h := range s.holds {
        if h.Status == model.HoldStatusActive && !h.ExpiresAt.After(now) {
            expired = append(expired, h)
        }
    }
    s.mu.RUnlock()
    sort.Slice(expired, func(i, j int) bool { return expired[i].ExpiresAt.Before(expired[j].ExpiresAt) })
    if limit > 0 && len(expired) > limit {
        expired = expired[:limit]
    }
    refs := make([]store.HoldRef, 0, len(expired))
    for _, h := range expired {
        refs = append(refs, store.HoldRef{HoldID: h.ID, DepartureID: h.DepartureID})
    }
    return refs, nil
}

func (s *Store) DeparturesWithWaitlistDemand(ctx context.Context, limit int) ([]uuid.UUID, error) {
    s.mu.RLock()
    defer s.mu.RUnlock()
    demand := make(map[uuid.UUID]bool)
    for _, e := range s.waitlist {
        if e.NotifiedAt == nil {
            demand[e.DepartureID] = true
        }
    }
    var ids []uuid.UUID
    for id := range demand {
        if d, ok := s.departures[id]; ok && d.CapacityAvailable > 0 {
            ids = append(ids, id)
        }
        if limit > 0 && len(ids) >= limit {
            break
        }
    }
    return ids, nil
}

func (s *Store) GetIdempotencyRecord(ctx context.Context, key, method string) (*model.IdempotencyRecord, error) {
    s.mu.RLock()
    defer s.mu.RUnlock()
    rec, ok := s.idem[idemKey{key: key, method: method}]
    if !ok {
        return nil, store.ErrNotFound
    }
    return &rec, nil
}

func (s *Store) PutIdempotencyRecord(ctx context.Context, rec *model.IdempotencyRecord) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    k := idemKey{key: rec.Key, method: rec.Method}
    if _, exists := s.idem[k]; exists {
        return store.ErrDuplicate
    }
    s.idem[k] = *rec
    return nil
}

func (s *Store) SweepIdempotencyRecords(ctx context.Context, now time.Time, limit int) (int, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    removed := 0
    for k, rec := range s.idem {
        if !rec.ExpiresAt.After(now) {
            delete(s.idem, k)
            removed++
            if limit > 0 && removed >= limit {
                break
            }
        }
    }
    return removed, nil
}

// Ping always succeeds; there is no external dependency to probe.
func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }

// sortWaitlistFIFO orders entries by (created_at, id): creation time is the
// fairness key, the id breaks exact-timestamp ties deterministically.
func sortWaitlistFIFO(entries []model.WaitlistEntry) {
    sort.Slice(entries, func(i, j int) bool {
        if entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
            return strings.Compare(entries[i].ID.String(), entries[j].ID.String()) < 0
        }
        return entries[i].CreatedAt.Before(entries[j].CreatedAt)
    })
}
