// Package booking creates bookings and moves them through their status lifecycle.
package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Windi-Fikriyansyah/homeease_be/internal/apperr"
	"github.com/Windi-Fikriyansyah/homeease_be/internal/events"
	"github.com/Windi-Fikriyansyah/homeease_be/internal/metrics"
	"github.com/Windi-Fikriyansyah/homeease_be/internal/models"
	"github.com/Windi-Fikriyansyah/homeease_be/internal/services/auth"
	"github.com/Windi-Fikriyansyah/homeease_be/internal/store"
)

const (
	NotifyBookingCreated      = "booking_created"
	NotifyBookingStatusUpdate = "booking_status_update"

	publishTimeout = 3 * time.Second
)

// Notifier pushes a message to every live connection of a user.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, msg any) error
}

type Notification struct {
	Type    string         `json:"type"`
	Booking models.Booking `json:"booking"`
}

type Service struct {
	store     store.Store
	publisher events.Publisher
	notifier  Notifier
	log       *zap.Logger
	now       func() time.Time
}

func NewService(st store.Store, pub events.Publisher, notifier Notifier, log *zap.Logger) *Service {
	return &Service{store: st, publisher: pub, notifier: notifier, log: log, now: time.Now}
}

type CreateInput struct {
	WorkerID uuid.UUID
	Service  string
	City     string
	Date     time.Time
}

// Create books a pending slot with a worker. A worker holds at most one
// active booking per requested date.
func (s *Service) Create(ctx context.Context, caller *auth.Caller, in CreateInput) (*models.Booking, error) {
	if caller == nil {
		return nil, apperr.NewForbidden("Unauthorized")
	}
	in.Service = strings.TrimSpace(in.Service)
	in.City = strings.TrimSpace(in.City)
	if in.WorkerID == uuid.Nil || in.Service == "" || in.City == "" || in.Date.IsZero() {
		return nil, apperr.NewBadRequest("worker_id, service, city and date are required")
	}
	if caller.OwnsWorker(in.WorkerID) {
		return nil, apperr.NewBadRequest("You cannot book yourself")
	}

	b := &models.Booking{
		UserID:   caller.UserID,
		WorkerID: in.WorkerID,
		Service:  in.Service,
		City:     in.City,
		Date:     in.Date.UTC(),
		Status:   models.BookingPending,
	}

	var workerOwner uuid.UUID
	err := s.store.Transaction(ctx, func(tx store.Store) error {
		w, err := tx.GetWorker(ctx, in.WorkerID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return apperr.NewNotFound("Worker not found")
			}
			return err
		}
		if !w.OffersService(in.Service) {
			return apperr.NewBadRequest("Worker does not offer this service")
		}
		if !w.Availability {
			return apperr.NewConflict("Worker is not available")
		}
		workerOwner = w.UserID

		taken, err := tx.HasActiveBooking(ctx, in.WorkerID, b.Date)
		if err != nil {
			return err
		}
		if taken {
			return apperr.NewConflict("Worker already has a booking at this time")
		}
		return tx.CreateBooking(ctx, b)
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperr.NewConflict("Worker already has a booking at this time")
		}
		return nil, s.classify(err)
	}

	metrics.BookingsCreated.Inc()
	s.log.Info("booking created",
		zap.Stringer("booking_id", b.ID),
		zap.Stringer("user_id", b.UserID),
		zap.Stringer("worker_id", b.WorkerID),
	)

	s.publish(ctx, events.TopicBookingCreated, events.BookingEvent{
		Type:       events.TopicBookingCreated,
		Booking:    *b,
		ActorID:    caller.UserID.String(),
		OccurredAt: s.now().UTC(),
	})
	s.notify(ctx, Notification{Type: NotifyBookingCreated, Booking: *b}, workerOwner)
	return b, nil
}

// List returns bookings matching the filter, most recent requested date first.
func (s *Service) List(ctx context.Context, f store.BookingFilter) ([]models.Booking, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, apperr.NewBadRequest(fmt.Sprintf("Unknown status %q", f.Status))
	}
	bookings, err := s.store.ListBookings(ctx, f)
	if err != nil {
		return nil, apperr.NewInternal(err)
	}
	return bookings, nil
}

// Get returns a booking to its requester or its worker.
func (s *Service) Get(ctx context.Context, caller *auth.Caller, id uuid.UUID) (*models.Booking, error) {
	b, err := s.store.GetBooking(ctx, id)
	if err != nil {
		return nil, s.classify(err)
	}
	if b.UserID != caller.UserID && !caller.OwnsWorker(b.WorkerID) {
		return nil, apperr.NewForbidden("You can only view your own bookings")
	}
	return b, nil
}

// UpdateStatus lets the booked worker move a booking along
// pending -> accepted|cancelled, accepted -> completed.
func (s *Service) UpdateStatus(ctx context.Context, caller *auth.Caller, id uuid.UUID, next models.BookingStatus) (*models.Booking, error) {
	if caller == nil || caller.Role != models.RoleWorker {
		return nil, apperr.NewForbidden("Unauthorized: Only workers can update booking status")
	}
	if !next.Valid() {
		return nil, apperr.NewBadRequest(fmt.Sprintf("Unknown status %q", next))
	}

	current, err := s.store.GetBooking(ctx, id)
	if err != nil {
		return nil, s.classify(err)
	}
	if !caller.OwnsWorker(current.WorkerID) {
		return nil, apperr.NewForbidden("Unauthorized: You can only update your own bookings")
	}
	if current.Status.Terminal() {
		return nil, apperr.NewInvalidTransition(
			fmt.Sprintf("Booking is already %s and can no longer change", current.Status))
	}
	if !current.Status.CanTransitionTo(next) {
		return nil, apperr.NewInvalidTransition(
			fmt.Sprintf("Cannot change booking status from %s to %s", current.Status, next))
	}

	updated, err := s.store.UpdateBookingStatus(ctx, id, current.Status, next)
	if err != nil {
		if errors.Is(err, store.ErrStale) {
			return nil, apperr.NewConflict("Booking was updated by another request, reload and retry")
		}
		return nil, s.classify(err)
	}

	metrics.BookingTransitions.WithLabelValues(string(current.Status), string(next)).Inc()
	s.log.Info("booking status updated",
		zap.Stringer("booking_id", id),
		zap.String("from", string(current.Status)),
		zap.String("to", string(next)),
	)

	s.publish(ctx, events.TopicBookingStatusChanged, events.BookingEvent{
		Type:           events.TopicBookingStatusChanged,
		Booking:        *updated,
		PreviousStatus: current.Status,
		ActorID:        caller.UserID.String(),
		OccurredAt:     s.now().UTC(),
	})
	s.notify(ctx, Notification{Type: NotifyBookingStatusUpdate, Booking: *updated}, updated.UserID, caller.UserID)
	return updated, nil
}

type Stats struct {
	Total    int64                          `json:"total"`
	ByStatus map[models.BookingStatus]int64 `json:"by_status"`
}

// Stats counts the calling worker's bookings per status.
func (s *Service) Stats(ctx context.Context, caller *auth.Caller) (*Stats, error) {
	if caller == nil || !caller.IsWorker() {
		return nil, apperr.NewForbidden("Only workers have booking stats")
	}
	counts, err := s.store.CountBookingsByStatus(ctx, *caller.WorkerID)
	if err != nil {
		return nil, apperr.NewInternal(err)
	}

	out := &Stats{ByStatus: map[models.BookingStatus]int64{
		models.BookingPending:   0,
		models.BookingAccepted:  0,
		models.BookingCompleted: 0,
		models.BookingCancelled: 0,
	}}
	for status, n := range counts {
		out.ByStatus[status] = n
		out.Total += n
	}
	return out, nil
}

func (s *Service) classify(err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return apperr.NewNotFound("Booking not found")
	case apperr.KindOf(err) != apperr.Internal:
		return err
	}
	return apperr.NewInternal(err)
}

// publish is best effort: the booking is already committed.
func (s *Service) publish(ctx context.Context, topic string, ev events.BookingEvent) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := s.publisher.Publish(ctx, topic, ev.Booking.ID.String(), ev); err != nil {
		metrics.EventPublishFailures.WithLabelValues(topic).Inc()
		s.log.Warn("publish booking event", zap.String("topic", topic), zap.Stringer("booking_id", ev.Booking.ID), zap.Error(err))
	}
}

func (s *Service) notify(ctx context.Context, n Notification, users ...uuid.UUID) {
	seen := make(map[uuid.UUID]bool, len(users))
	for _, u := range users {
		if u == uuid.Nil || seen[u] {
			continue
		}
		seen[u] = true
		if err := s.notifier.Notify(ctx, u, n); err != nil {
			s.log.Warn("notify user", zap.Stringer("user_id", u), zap.Error(err))
		}
	}
}
