// Package store persists users, worker profiles, reviews and bookings.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/Windi-Fikriyansyah/homeease_be/internal/models"
)

var (
	ErrNotFound  = errors.New("store: record not found")
	ErrDuplicate = errors.New("store: duplicate key")
	// ErrStale is returned by compare-and-set updates whose expected state no longer holds.
	ErrStale = errors.New("store: stale record")
)

type BookingFilter struct {
	UserID   *uuid.UUID
	WorkerID *uuid.UUID
	Status   models.BookingStatus
}

// Store is implemented by GormStore (Postgres) and Memory.
type Store interface {
	// Transaction runs fn against a store bound to a single transaction.
	// Any error returned by fn rolls back every write made through tx.
	Transaction(ctx context.Context, fn func(tx Store) error) error

	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUserByPhone(ctx context.Context, phone string) (*models.User, error)
	FindUserByEmailAndRole(ctx context.Context, email string, role models.Role) (*models.User, error)
	// FindUserConflict returns another user (not excludeID) holding email or phone.
	FindUserConflict(ctx context.Context, excludeID uuid.UUID, email, phone string) (*models.User, error)
	UpdateUser(ctx context.Context, u *models.User) error

	CreateWorker(ctx context.Context, w *models.Worker) error
	// GetWorker loads the owning User and the worker's reviews.
	GetWorker(ctx context.Context, id uuid.UUID) (*models.Worker, error)
	GetWorkerByUser(ctx context.Context, userID uuid.UUID) (*models.Worker, error)
	// SearchWorkers matches service exactly and city case-insensitively, loading the owning User.
	SearchWorkers(ctx context.Context, service, city string) ([]models.Worker, error)
	UpdateWorker(ctx context.Context, w *models.Worker) error
	ListServices(ctx context.Context) ([]string, error)

	CreateReview(ctx context.Context, r *models.Review) error
	AverageRating(ctx context.Context, workerID uuid.UUID) (float64, error)

	CreateBooking(ctx context.Context, b *models.Booking) error
	GetBooking(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	// ListBookings orders by requested date, most recent first.
	ListBookings(ctx context.Context, f BookingFilter) ([]models.Booking, error)
	HasActiveBooking(ctx context.Context, workerID uuid.UUID, date time.Time) (bool, error)
	// UpdateBookingStatus sets status to `to` only if it is still `from`.
	UpdateBookingStatus(ctx context.Context, id uuid.UUID, from, to models.BookingStatus) (*models.Booking, error)
	CountBookingsByStatus(ctx context.Context, workerID uuid.UUID) (map[models.BookingStatus]int64, error)
}
