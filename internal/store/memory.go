package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Windi-Fikriyansyah/homeease_be/internal/models"
)

// Memory is an in-process Store used by tests and STORE_DRIVER=memory.
// It enforces the same unique constraints as the Postgres schema.
type Memory struct {
	mu       sync.RWMutex
	txMu     sync.Mutex
	users    map[uuid.UUID]models.User
	workers  map[uuid.UUID]models.Worker
	reviews  map[uuid.UUID]models.Review
	bookings map[uuid.UUID]models.Booking
}

func NewMemory() *Memory {
	return &Memory{
		users:    make(map[uuid.UUID]models.User),
		workers:  make(map[uuid.UUID]models.Worker),
		reviews:  make(map[uuid.UUID]models.Review),
		bookings: make(map[uuid.UUID]models.Booking),
	}
}

// Transaction serializes with other transactions. When fn fails, only the
// writes made through tx are reverted.
func (m *Memory) Transaction(ctx context.Context, fn func(tx Store) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	tx := &memTx{Memory: m}
	if err := fn(tx); err != nil {
		tx.rollback()
		return err
	}
	return nil
}

// memTx records an undo step for every successful write.
type memTx struct {
	*Memory
	undo []func()
}

// Nested transactions join the outer one.
func (t *memTx) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return fn(t)
}

func (t *memTx) rollback() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
}

// restore puts back prev (or removes id when it did not exist). Runs with mu held.
func restore[V any](m map[uuid.UUID]V, id uuid.UUID, prev V, existed bool) func() {
	return func() {
		if existed {
			m[id] = prev
		} else {
			delete(m, id)
		}
	}
}

func lookup[V any](mu *sync.RWMutex, m map[uuid.UUID]V, id uuid.UUID) (V, bool) {
	mu.RLock()
	defer mu.RUnlock()
	v, ok := m[id]
	return v, ok
}

func (t *memTx) CreateUser(ctx context.Context, u *models.User) error {
	if err := t.Memory.CreateUser(ctx, u); err != nil {
		return err
	}
	t.undo = append(t.undo, restore(t.users, u.ID, models.User{}, false))
	return nil
}

func (t *memTx) UpdateUser(ctx context.Context, u *models.User) error {
	prev, ok := lookup(&t.mu, t.users, u.ID)
	if err := t.Memory.UpdateUser(ctx, u); err != nil {
		return err
	}
	t.undo = append(t.undo, restore(t.users, u.ID, prev, ok))
	return nil
}

func (t *memTx) CreateWorker(ctx context.Context, w *models.Worker) error {
	if err := t.Memory.CreateWorker(ctx, w); err != nil {
		return err
	}
	t.undo = append(t.undo, restore(t.workers, w.ID, models.Worker{}, false))
	return nil
}

func (t *memTx) UpdateWorker(ctx context.Context, w *models.Worker) error {
	prev, ok := lookup(&t.mu, t.workers, w.ID)
	if err := t.Memory.UpdateWorker(ctx, w); err != nil {
		return err
	}
	t.undo = append(t.undo, restore(t.workers, w.ID, prev, ok))
	return nil
}

func (t *memTx) CreateReview(ctx context.Context, r *models.Review) error {
	if err := t.Memory.CreateReview(ctx, r); err != nil {
		return err
	}
	t.undo = append(t.undo, restore(t.reviews, r.ID, models.Review{}, false))
	return nil
}

func (t *memTx) CreateBooking(ctx context.Context, b *models.Booking) error {
	if err := t.Memory.CreateBooking(ctx, b); err != nil {
		return err
	}
	t.undo = append(t.undo, restore(t.bookings, b.ID, models.Booking{}, false))
	return nil
}

func (t *memTx) UpdateBookingStatus(ctx context.Context, id uuid.UUID, from, to models.BookingStatus) (*models.Booking, error) {
	prev, ok := lookup(&t.mu, t.bookings, id)
	b, err := t.Memory.UpdateBookingStatus(ctx, id, from, to)
	if err != nil {
		return nil, err
	}
	t.undo = append(t.undo, restore(t.bookings, id, prev, ok))
	return b, nil
}

func (m *Memory) CreateUser(ctx context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.users {
		if existing.Email == u.Email || existing.Phone == u.Phone {
			return ErrDuplicate
		}
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	now := time.Now()
	u.CreatedAt, u.UpdatedAt = now, now
	m.users[u.ID] = *u
	return nil
}

func (m *Memory) findUser(match func(models.User) bool) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if match(u) {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return m.findUser(func(u models.User) bool { return u.ID == id })
}

func (m *Memory) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return m.findUser(func(u models.User) bool { return u.Email == email })
}

func (m *Memory) FindUserByPhone(ctx context.Context, phone string) (*models.User, error) {
	return m.findUser(func(u models.User) bool { return u.Phone == phone })
}

func (m *Memory) FindUserByEmailAndRole(ctx context.Context, email string, role models.Role) (*models.User, error) {
	return m.findUser(func(u models.User) bool { return u.Email == email && u.Role == role })
}

func (m *Memory) FindUserConflict(ctx context.Context, excludeID uuid.UUID, email, phone string) (*models.User, error) {
	return m.findUser(func(u models.User) bool {
		return u.ID != excludeID && (u.Email == email || u.Phone == phone)
	})
}

func (m *Memory) UpdateUser(ctx context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.users[u.ID]
	if !ok {
		return ErrNotFound
	}
	for id, other := range m.users {
		if id != u.ID && (other.Email == u.Email || other.Phone == u.Phone) {
			return ErrDuplicate
		}
	}
	cur.Name, cur.Email, cur.Phone, cur.Address, cur.City = u.Name, u.Email, u.Phone, u.Address, u.City
	cur.UpdatedAt = time.Now()
	m.users[u.ID] = cur
	return nil
}

func (m *Memory) CreateWorker(ctx context.Context, w *models.Worker) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.workers {
		if existing.UserID == w.UserID {
			return ErrDuplicate
		}
	}
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	now := time.Now()
	w.CreatedAt, w.UpdatedAt = now, now
	stored := *w
	stored.User, stored.Reviews = nil, nil
	m.workers[w.ID] = stored
	return nil
}

// hydrate returns a detached copy of w with its owner attached. Callers hold mu.
func (m *Memory) hydrate(w models.Worker, withReviews bool) models.Worker {
	w.Services = append(w.Services[:0:0], w.Services...)
	w.Cities = append(w.Cities[:0:0], w.Cities...)
	if u, ok := m.users[w.UserID]; ok {
		w.User = &u
	}
	if withReviews {
		w.Reviews = []models.Review{}
		for _, r := range m.reviews {
			if r.WorkerID == w.ID {
				w.Reviews = append(w.Reviews, r)
			}
		}
		sort.Slice(w.Reviews, func(i, j int) bool {
			return w.Reviews[i].CreatedAt.After(w.Reviews[j].CreatedAt)
		})
	}
	return w
}

func (m *Memory) GetWorker(ctx context.Context, id uuid.UUID) (*models.Worker, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	w, ok := m.workers[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := m.hydrate(w, true)
	return &out, nil
}

func (m *Memory) GetWorkerByUser(ctx context.Context, userID uuid.UUID) (*models.Worker, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, w := range m.workers {
		if w.UserID == userID {
			out := m.hydrate(w, false)
			out.User = nil
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) SearchWorkers(ctx context.Context, service, city string) ([]models.Worker, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	city = strings.TrimSpace(city)
	out := []models.Worker{}
	for _, w := range m.workers {
		if !w.OffersService(service) {
			continue
		}
		for _, c := range w.Cities {
			if strings.EqualFold(c, city) {
				out = append(out, m.hydrate(w, false))
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Rating != out[j].Rating {
			return out[i].Rating > out[j].Rating
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (m *Memory) UpdateWorker(ctx context.Context, w *models.Worker) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.workers[w.ID]
	if !ok {
		return ErrNotFound
	}
	cur.Services = append(w.Services[:0:0], w.Services...)
	cur.Cities = append(w.Cities[:0:0], w.Cities...)
	cur.Experience = w.Experience
	cur.Rating = w.Rating
	cur.Availability = w.Availability
	cur.UpdatedAt = time.Now()
	m.workers[w.ID] = cur
	return nil
}

func (m *Memory) ListServices(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := map[string]bool{}
	out := []string{}
	for _, w := range m.workers {
		for _, s := range w.Services {
			if !seen[s] {
				seen[s] = true
				out = append(out, s)
			}
		}
	}
	sort.Strings(out)
	return out, nil
}

func (m *Memory) CreateReview(ctx context.Context, r *models.Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.reviews {
		if existing.WorkerID == r.WorkerID && existing.UserID == r.UserID {
			return ErrDuplicate
		}
	}
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	r.CreatedAt = time.Now()
	m.reviews[r.ID] = *r
	return nil
}

func (m *Memory) AverageRating(ctx context.Context, workerID uuid.UUID) (float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var sum, n int
	for _, r := range m.reviews {
		if r.WorkerID == workerID {
			sum += r.Rating
			n++
		}
	}
	if n == 0 {
		return 0, nil
	}
	return float64(sum) / float64(n), nil
}

func (m *Memory) CreateBooking(ctx context.Context, b *models.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.bookings {
		if existing.WorkerID == b.WorkerID && existing.Date.Equal(b.Date) && existing.Status.Active() && b.Status.Active() {
			return ErrDuplicate
		}
	}
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	now := time.Now()
	b.CreatedAt, b.UpdatedAt = now, now
	m.bookings[b.ID] = *b
	return nil
}

func (m *Memory) GetBooking(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &b, nil
}

func (m *Memory) ListBookings(ctx context.Context, f BookingFilter) ([]models.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []models.Booking{}
	for _, b := range m.bookings {
		if f.UserID != nil && b.UserID != *f.UserID {
			continue
		}
		if f.WorkerID != nil && b.WorkerID != *f.WorkerID {
			continue
		}
		if f.Status != "" && b.Status != f.Status {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (m *Memory) HasActiveBooking(ctx context.Context, workerID uuid.UUID, date time.Time) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, b := range m.bookings {
		if b.WorkerID == workerID && b.Date.Equal(date) && b.Status.Active() {
			return true, nil
		}
	}
	return false, nil
}

func (m *Memory) UpdateBookingStatus(ctx context.Context, id uuid.UUID, from, to models.BookingStatus) (*models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	if b.Status != from {
		return nil, ErrStale
	}
	b.Status = to
	b.UpdatedAt = time.Now()
	m.bookings[id] = b
	return &b, nil
}

func (m *Memory) CountBookingsByStatus(ctx context.Context, workerID uuid.UUID) (map[models.BookingStatus]int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := map[models.BookingStatus]int64{}
	for _, b := range m.bookings {
		if b.WorkerID == workerID {
			out[b.Status]++
		}
	}
	return out, nil
}
