//go:build integration

package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"github.com/Windi-Fikriyansyah/homeease_be/internal/db"
	"github.com/Windi-Fikriyansyah/homeease_be/internal/models"
)

func newPostgresStore(t *testing.T) *GormStore {
	t.Helper()
	ctx := context.Background()

	pg, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("homeease_test"),
		postgres.WithUsername("homeease"),
		postgres.WithPassword("homeease_test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(pg) })

	dsn, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	gdb, err := db.Connect(dsn, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	return NewGormStore(gdb)
}

func seedPG(t *testing.T, s *GormStore) (*models.User, *models.Worker) {
	t.Helper()
	ctx := context.Background()
	u := &models.User{Name: "Ravi", Email: "ravi@example.com", Phone: "1", Address: "a", City: "Delhi", Password: "h", Role: models.RoleWorker}
	require.NoError(t, s.CreateUser(ctx, u))
	w := &models.Worker{UserID: u.ID, Services: []string{"Plumbing", "Electrical"}, Cities: []string{"New Delhi", "Delhi"}, Experience: 4, Availability: true}
	require.NoError(t, s.CreateWorker(ctx, w))
	return u, w
}

func TestGormStore_Postgres(t *testing.T) {
	s := newPostgresStore(t)
	ctx := context.Background()
	u, w := seedPG(t, s)

	t.Run("unique email", func(t *testing.T) {
		dup := &models.User{Name: "X", Email: u.Email, Phone: "2", Address: "a", City: "c", Password: "h", Role: models.RoleCustomer}
		assert.ErrorIs(t, s.CreateUser(ctx, dup), ErrDuplicate)
	})

	t.Run("search matches city case-insensitively and exactly", func(t *testing.T) {
		got, err := s.SearchWorkers(ctx, "Plumbing", "delhi")
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, w.ID, got[0].ID)
		require.NotNil(t, got[0].User)
		assert.Equal(t, "Ravi", got[0].User.Name)

		got, err = s.SearchWorkers(ctx, "Plumbing", "Del")
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("update keeps zero values", func(t *testing.T) {
		cur, err := s.GetWorker(ctx, w.ID)
		require.NoError(t, err)
		cur.Availability = false
		cur.Experience = 0
		require.NoError(t, s.UpdateWorker(ctx, cur))

		got, err := s.GetWorker(ctx, w.ID)
		require.NoError(t, err)
		assert.False(t, got.Availability)
		assert.Zero(t, got.Experience)
	})

	t.Run("active slot index rejects double booking", func(t *testing.T) {
		date := time.Date(2026, 7, 1, 10, 0, 0, 0, time.UTC)
		first := &models.Booking{UserID: uuid.New(), WorkerID: w.ID, Service: "Plumbing", City: "Delhi", Date: date, Status: models.BookingPending}
		require.NoError(t, s.CreateBooking(ctx, first))

		second := &models.Booking{UserID: uuid.New(), WorkerID: w.ID, Service: "Plumbing", City: "Delhi", Date: date, Status: models.BookingPending}
		assert.ErrorIs(t, s.CreateBooking(ctx, second), ErrDuplicate)

		taken, err := s.HasActiveBooking(ctx, w.ID, date)
		require.NoError(t, err)
		assert.True(t, taken)

		_, err = s.UpdateBookingStatus(ctx, first.ID, models.BookingPending, models.BookingCancelled)
		require.NoError(t, err)
		second.ID = uuid.Nil
		assert.NoError(t, s.CreateBooking(ctx, second))
	})

	t.Run("compare-and-set status", func(t *testing.T) {
		b := &models.Booking{UserID: uuid.New(), WorkerID: w.ID, Service: "Plumbing", City: "Delhi",
			Date: time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC), Status: models.BookingPending}
		require.NoError(t, s.CreateBooking(ctx, b))

		_, err := s.UpdateBookingStatus(ctx, b.ID, models.BookingPending, models.BookingAccepted)
		require.NoError(t, err)
		_, err = s.UpdateBookingStatus(ctx, b.ID, models.BookingPending, models.BookingCancelled)
		assert.ErrorIs(t, err, ErrStale)
		_, err = s.UpdateBookingStatus(ctx, uuid.New(), models.BookingPending, models.BookingCancelled)
		assert.ErrorIs(t, err, ErrNotFound)

		counts, err := s.CountBookingsByStatus(ctx, w.ID)
		require.NoError(t, err)
		assert.EqualValues(t, 1, counts[models.BookingAccepted])
	})

	t.Run("transaction rolls back", func(t *testing.T) {
		err := s.Transaction(ctx, func(tx Store) error {
			require.NoError(t, tx.CreateUser(ctx, &models.User{Name: "T", Email: "t@example.com", Phone: "9", Address: "a", City: "c", Password: "h", Role: models.RoleCustomer}))
			return ErrDuplicate
		})
		assert.ErrorIs(t, err, ErrDuplicate)
		_, err = s.FindUserByEmail(ctx, "t@example.com")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("services catalog", func(t *testing.T) {
		services, err := s.ListServices(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"Electrical", "Plumbing"}, services)
	})
}
