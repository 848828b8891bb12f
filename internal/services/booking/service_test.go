package booking

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Windi-Fikriyansyah/homeease_be/internal/apperr"
	"github.com/Windi-Fikriyansyah/homeease_be/internal/events"
	"github.com/Windi-Fikriyansyah/homeease_be/internal/models"
	"github.com/Windi-Fikriyansyah/homeease_be/internal/services/auth"
	"github.com/Windi-Fikriyansyah/homeease_be/internal/store"
)

type sentNotification struct {
	UserID uuid.UUID
	Msg    Notification
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
}

func (r *recordingNotifier) Notify(_ context.Context, userID uuid.UUID, msg any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sentNotification{UserID: userID, Msg: msg.(Notification)})
	return nil
}

type fixture struct {
	mem      *store.Memory
	svc      *Service
	events   *events.Recorder
	notifier *recordingNotifier

	customer    *auth.Caller
	worker      *auth.Caller
	otherWorker *auth.Caller
}

var slot = time.Date(2026, 6, 10, 14, 0, 0, 0, time.UTC)

func seedWorker(t *testing.T, mem *store.Memory, phone string, available bool) *auth.Caller {
	t.Helper()
	ctx := context.Background()
	u := &models.User{Name: "W" + phone, Email: phone + "@example.com", Phone: phone, Address: "a", City: "Delhi", Role: models.RoleWorker}
	require.NoError(t, mem.CreateUser(ctx, u))
	w := &models.Worker{UserID: u.ID, Services: []string{"Plumbing"}, Cities: []string{"Delhi"}, Availability: available}
	require.NoError(t, mem.CreateWorker(ctx, w))
	return &auth.Caller{UserID: u.ID, Role: models.RoleWorker, WorkerID: &w.ID}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mem := store.NewMemory()
	rec := &events.Recorder{}
	n := &recordingNotifier{}

	cust := &models.User{Name: "Asha", Email: "asha@example.com", Phone: "100", Address: "a", City: "Delhi", Role: models.RoleCustomer}
	require.NoError(t, mem.CreateUser(context.Background(), cust))

	return &fixture{
		mem:         mem,
		svc:         NewService(mem, rec, n, zap.NewNop()),
		events:      rec,
		notifier:    n,
		customer:    &auth.Caller{UserID: cust.ID, Role: models.RoleCustomer},
		worker:      seedWorker(t, mem, "200", true),
		otherWorker: seedWorker(t, mem, "300", true),
	}
}

func (f *fixture) book(t *testing.T) *models.Booking {
	t.Helper()
	b, err := f.svc.Create(context.Background(), f.customer, CreateInput{
		WorkerID: *f.worker.WorkerID, Service: "Plumbing", City: "Delhi", Date: slot,
	})
	require.NoError(t, err)
	return b
}

func TestCreate_ThenListByWorker(t *testing.T) {
	f := newFixture(t)
	b := f.book(t)

	list, err := f.svc.List(context.Background(), store.BookingFilter{WorkerID: f.worker.WorkerID})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, b.ID, list[0].ID)
	assert.Equal(t, models.BookingPending, list[0].Status)
	assert.Equal(t, f.customer.UserID, list[0].UserID)

	msgs := f.events.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, events.TopicBookingCreated, msgs[0].Topic)
	assert.Equal(t, b.ID.String(), msgs[0].Key)

	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, f.worker.UserID, f.notifier.sent[0].UserID)
	assert.Equal(t, NotifyBookingCreated, f.notifier.sent[0].Msg.Type)
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.customer, CreateInput{WorkerID: *f.worker.WorkerID, Service: "Plumbing", City: "Delhi"})
	assert.True(t, apperr.Is(err, apperr.BadRequest))

	_, err = f.svc.Create(ctx, f.customer, CreateInput{WorkerID: uuid.New(), Service: "Plumbing", City: "Delhi", Date: slot})
	assert.True(t, apperr.Is(err, apperr.NotFound))

	_, err = f.svc.Create(ctx, f.customer, CreateInput{WorkerID: *f.worker.WorkerID, Service: "Painting", City: "Delhi", Date: slot})
	assert.True(t, apperr.Is(err, apperr.BadRequest))

	_, err = f.svc.Create(ctx, f.worker, CreateInput{WorkerID: *f.worker.WorkerID, Service: "Plumbing", City: "Delhi", Date: slot})
	assert.True(t, apperr.Is(err, apperr.BadRequest))

	_, err = f.svc.Create(ctx, nil, CreateInput{WorkerID: *f.worker.WorkerID, Service: "Plumbing", City: "Delhi", Date: slot})
	assert.True(t, apperr.Is(err, apperr.Forbidden))
}

func TestCreate_UnavailableWorkerIsConflict(t *testing.T) {
	f := newFixture(t)
	busy := seedWorker(t, f.mem, "400", false)

	_, err := f.svc.Create(context.Background(), f.customer, CreateInput{
		WorkerID: *busy.WorkerID, Service: "Plumbing", City: "Delhi", Date: slot,
	})
	assert.True(t, apperr.Is(err, apperr.Conflict))
}

func TestCreate_DoubleBookingRejectedUntilSlotFreed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.book(t)

	in := CreateInput{WorkerID: *f.worker.WorkerID, Service: "Plumbing", City: "Delhi", Date: slot}
	_, err := f.svc.Create(ctx, f.customer, in)
	assert.True(t, apperr.Is(err, apperr.Conflict))

	in.Date = slot.Add(time.Hour)
	_, err = f.svc.Create(ctx, f.customer, in)
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(ctx, f.worker, first.ID, models.BookingCancelled)
	require.NoError(t, err)

	in.Date = slot
	_, err = f.svc.Create(ctx, f.customer, in)
	assert.NoError(t, err)
}

func TestCreate_ConcurrentSameSlotOnlyOneWins(t *testing.T) {
	f := newFixture(t)
	in := CreateInput{WorkerID: *f.worker.WorkerID, Service: "Plumbing", City: "Delhi", Date: slot}

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Create(context.Background(), f.customer, in)
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
		} else {
			assert.True(t, apperr.Is(err, apperr.Conflict))
		}
	}
	assert.Equal(t, 1, ok)
}

func TestUpdateStatus_NonOwnerWorkerIsForbidden(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.book(t)

	_, err := f.svc.UpdateStatus(ctx, f.otherWorker, b.ID, models.BookingAccepted)
	assert.True(t, apperr.Is(err, apperr.Forbidden))

	got, err := f.mem.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingPending, got.Status)
}

func TestUpdateStatus_CustomerIsForbidden(t *testing.T) {
	f := newFixture(t)
	b := f.book(t)

	_, err := f.svc.UpdateStatus(context.Background(), f.customer, b.ID, models.BookingCancelled)
	assert.True(t, apperr.Is(err, apperr.Forbidden))
}

func TestUpdateStatus_UnknownBookingIsNotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.UpdateStatus(context.Background(), f.worker, uuid.New(), models.BookingAccepted)
	assert.True(t, apperr.Is(err, apperr.NotFound))
}

func TestUpdateStatus_EnforcesTransitionTable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.book(t)

	_, err := f.svc.UpdateStatus(ctx, f.worker, b.ID, models.BookingCompleted)
	assert.True(t, apperr.Is(err, apperr.InvalidTransition))

	_, err = f.svc.UpdateStatus(ctx, f.worker, b.ID, "done")
	assert.True(t, apperr.Is(err, apperr.BadRequest))

	updated, err := f.svc.UpdateStatus(ctx, f.worker, b.ID, models.BookingAccepted)
	require.NoError(t, err)
	assert.Equal(t, models.BookingAccepted, updated.Status)

	updated, err = f.svc.UpdateStatus(ctx, f.worker, b.ID, models.BookingCompleted)
	require.NoError(t, err)
	assert.Equal(t, models.BookingCompleted, updated.Status)

	_, err = f.svc.UpdateStatus(ctx, f.worker, b.ID, models.BookingCancelled)
	assert.True(t, apperr.Is(err, apperr.InvalidTransition))
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "Booking is already completed and can no longer change", appErr.Message)

	msgs := f.events.Messages()
	require.Len(t, msgs, 3)
	ev := msgs[2].Value.(events.BookingEvent)
	assert.Equal(t, models.BookingAccepted, ev.PreviousStatus)
	assert.Equal(t, models.BookingCompleted, ev.Booking.Status)
}

func TestUpdateStatus_NotifiesRequesterAndWorker(t *testing.T) {
	f := newFixture(t)
	b := f.book(t)

	_, err := f.svc.UpdateStatus(context.Background(), f.worker, b.ID, models.BookingAccepted)
	require.NoError(t, err)

	var recipients []uuid.UUID
	for _, n := range f.notifier.sent[1:] {
		assert.Equal(t, NotifyBookingStatusUpdate, n.Msg.Type)
		recipients = append(recipients, n.UserID)
	}
	assert.ElementsMatch(t, []uuid.UUID{f.customer.UserID, f.worker.UserID}, recipients)
}

type staleStore struct{ store.Store }

func (staleStore) UpdateBookingStatus(context.Context, uuid.UUID, models.BookingStatus, models.BookingStatus) (*models.Booking, error) {
	return nil, store.ErrStale
}

func TestUpdateStatus_LostRaceIsConflict(t *testing.T) {
	f := newFixture(t)
	b := f.book(t)

	svc := NewService(staleStore{f.mem}, events.Nop{}, &recordingNotifier{}, zap.NewNop())
	_, err := svc.UpdateStatus(context.Background(), f.worker, b.ID, models.BookingAccepted)
	assert.True(t, apperr.Is(err, apperr.Conflict))
}

func TestGet_VisibleToRequesterAndWorkerOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.book(t)

	_, err := f.svc.Get(ctx, f.customer, b.ID)
	assert.NoError(t, err)
	_, err = f.svc.Get(ctx, f.worker, b.ID)
	assert.NoError(t, err)
	_, err = f.svc.Get(ctx, f.otherWorker, b.ID)
	assert.True(t, apperr.Is(err, apperr.Forbidden))
}

func TestList_FiltersAndOrdersByDateDesc(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := f.svc.Create(ctx, f.customer, CreateInput{
			WorkerID: *f.worker.WorkerID, Service: "Plumbing", City: "Delhi", Date: slot.Add(time.Duration(i) * 24 * time.Hour),
		})
		require.NoError(t, err)
	}

	list, err := f.svc.List(ctx, store.BookingFilter{UserID: &f.customer.UserID})
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.True(t, list[0].Date.After(list[1].Date))
	assert.True(t, list[1].Date.After(list[2].Date))

	_, err = f.svc.UpdateStatus(ctx, f.worker, list[0].ID, models.BookingAccepted)
	require.NoError(t, err)
	accepted, err := f.svc.List(ctx, store.BookingFilter{Status: models.BookingAccepted})
	require.NoError(t, err)
	require.Len(t, accepted, 1)
	assert.Equal(t, list[0].ID, accepted[0].ID)

	_, err = f.svc.List(ctx, store.BookingFilter{Status: "archived"})
	assert.True(t, apperr.Is(err, apperr.BadRequest))
}

func TestStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.book(t)
	_, err := f.svc.UpdateStatus(ctx, f.worker, b.ID, models.BookingAccepted)
	require.NoError(t, err)

	stats, err := f.svc.Stats(ctx, f.worker)
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.Total)
	assert.EqualValues(t, 1, stats.ByStatus[models.BookingAccepted])
	assert.EqualValues(t, 0, stats.ByStatus[models.BookingPending])

	_, err = f.svc.Stats(ctx, f.customer)
	assert.True(t, apperr.Is(err, apperr.Forbidden))
}
