package service

import (
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sharthi/stall-marketplace/internal/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// --- In-memory store ---
//
// memStore stands in for Postgres. WithinTx serializes transactions and
// restores a snapshot when fn fails, which is what the real transaction gives us.

type memStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	events   map[uuid.UUID]models.Event
	stalls   map[uuid.UUID]models.Stall
	bookings map[uuid.UUID]models.Booking
}

func newMemStore() *memStore {
	return &memStore{
		events:   map[uuid.UUID]models.Event{},
		stalls:   map[uuid.UUID]models.Stall{},
		bookings: map[uuid.UUID]models.Booking{},
	}
}

func (m *memStore) WithinTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.Lock()
	stalls := cloneMap(m.stalls)
	bookings := cloneMap(m.bookings)
	m.mu.Unlock()

	if err := fn(nil); err != nil {
		m.mu.Lock()
		m.stalls = stalls
		m.bookings = bookings
		m.mu.Unlock()
		return err
	}
	return nil
}

func cloneMap[K comparable, V any](in map[K]V) map[K]V {
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func (m *memStore) addEvent(organizerID string, startAt *time.Time) models.Event {
	e := models.Event{ID: uuid.New(), OrganizerID: organizerID, Title: "Flea Market", CityID: "blr", StartAt: startAt, Status: "active"}
	m.mu.Lock()
	m.events[e.ID] = e
	m.mu.Unlock()
	return e
}

func (m *memStore) addStall(event models.Event, price int64, qty int) models.Stall {
	s := models.Stall{
		ID: uuid.New(), EventID: event.ID, OrganizerID: event.OrganizerID,
		Name: "Corner", Tier: "GOLD", Price: price, QtyTotal: qty, QtyLeft: qty,
	}
	m.mu.Lock()
	m.stalls[s.ID] = s
	m.mu.Unlock()
	return s
}

func (m *memStore) stall(id uuid.UUID) models.Stall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stalls[id]
}

func (m *memStore) activeBookings(stallID uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, b := range m.bookings {
		if b.StallID == stallID && b.IsActive() {
			n++
		}
	}
	return n
}

// --- EventRepository ---

type memEvents struct{ *memStore }

func (r memEvents) FindByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.events[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &e, nil
}

func (r memEvents) Upsert(ctx context.Context, event *models.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events[event.ID] = *event
	return nil
}

func (r memEvents) CountByOrganizer(ctx context.Context, organizerID string) (int64, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var total, active int64
	for _, e := range r.events {
		if e.OrganizerID != organizerID {
			continue
		}
		total++
		if e.Status == "active" {
			active++
		}
	}
	return total, active, nil
}

// --- StallRepository ---

type memStalls struct{ *memStore }

func (r memStalls) Create(ctx context.Context, tx *gorm.DB, stall *models.Stall) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stalls[stall.ID] = *stall
	return nil
}

func (r memStalls) FindByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Stall, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.stalls[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &s, nil
}

func (r memStalls) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Stall, error) {
	return r.FindByID(ctx, tx, id)
}

func (r memStalls) FindByEvent(ctx context.Context, eventID uuid.UUID) ([]models.Stall, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Stall
	for _, s := range r.stalls {
		if s.EventID == eventID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Price != out[j].Price {
			return out[i].Price < out[j].Price
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (r memStalls) Update(ctx context.Context, tx *gorm.DB, stall *models.Stall) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stalls[stall.ID] = *stall
	return nil
}

func (r memStalls) DecrementLeft(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.stalls[id]
	if !ok || s.QtyLeft <= 0 {
		return false, nil
	}
	s.QtyLeft--
	r.stalls[id] = s
	return true, nil
}

func (r memStalls) IncrementLeft(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.stalls[id]
	if !ok || s.QtyLeft >= s.QtyTotal {
		return false, nil
	}
	s.QtyLeft++
	r.stalls[id] = s
	return true, nil
}

func (r memStalls) DeleteUnsold(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.stalls[id]
	if !ok || s.QtyLeft != s.QtyTotal {
		return false, nil
	}
	delete(r.stalls, id)
	return true, nil
}

// --- BookingRepository ---

type memBookings struct{ *memStore }

func (r memBookings) Create(ctx context.Context, tx *gorm.DB, booking *models.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.bookings {
		if b.CreatorID == booking.CreatorID && b.StallID == booking.StallID && b.IsActive() {
			return gorm.ErrDuplicatedKey
		}
	}
	stored := *booking
	stored.Event, stored.Stall = nil, nil
	r.bookings[booking.ID] = stored
	return nil
}

func (r memBookings) FindByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &b, nil
}

func (r memBookings) FindActiveByCreatorAndStall(ctx context.Context, tx *gorm.DB, creatorID string, stallID uuid.UUID) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.bookings {
		if b.CreatorID == creatorID && b.StallID == stallID && b.IsActive() {
			return &b, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r memBookings) ListActiveByCreator(ctx context.Context, creatorID string) ([]models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Booking
	for _, b := range r.bookings {
		if b.CreatorID != creatorID || !b.IsActive() {
			continue
		}
		if e, ok := r.events[b.EventID]; ok {
			b.Event = &e
		}
		if s, ok := r.stalls[b.StallID]; ok {
			b.Stall = &s
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r memBookings) ListActiveByOrganizer(ctx context.Context, organizerID string) ([]models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Booking
	for _, b := range r.bookings {
		if b.OrganizerID == organizerID && b.IsActive() {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r memBookings) CountByStall(ctx context.Context, tx *gorm.DB, stallID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, b := range r.bookings {
		if b.StallID == stallID {
			n++
		}
	}
	return n, nil
}

func (r memBookings) MarkReviewed(ctx context.Context, tx *gorm.DB, id uuid.UUID, rating int, text *string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok || b.Reviewed || !b.IsActive() {
		return false, nil
	}
	b.Reviewed = true
	b.Rating = &rating
	b.ReviewText = text
	r.bookings[id] = b
	return true, nil
}

func (r memBookings) Cancel(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok || b.Status != models.StatusPaid {
		return false, nil
	}
	b.Status = models.StatusCancelled
	r.bookings[id] = b
	return true, nil
}

// --- Publisher ---

type published struct {
	key     string
	payload any
}

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []published
	err  error
}

func (p *recordingPublisher) Publish(routingKey string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, published{key: routingKey, payload: payload})
	return p.err
}

func (p *recordingPublisher) keys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	keys := make([]string, 0, len(p.msgs))
	for _, m := range p.msgs {
		keys = append(keys, m.key)
	}
	return keys
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
