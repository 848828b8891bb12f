// Package directory serves worker lookups, worker profile edits and reviews.
package directory

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Windi-Fikriyansyah/homeease_be/internal/apperr"
	"github.com/Windi-Fikriyansyah/homeease_be/internal/cache"
	"github.com/Windi-Fikriyansyah/homeease_be/internal/models"
	"github.com/Windi-Fikriyansyah/homeease_be/internal/services/auth"
	"github.com/Windi-Fikriyansyah/homeease_be/internal/store"
	"github.com/Windi-Fikriyansyah/homeease_be/internal/utils"
)

type Service struct {
	store    store.Store
	cache    cache.Cache
	cacheTTL time.Duration
	log      *zap.Logger
}

func NewService(st store.Store, c cache.Cache, cacheTTL time.Duration, log *zap.Logger) *Service {
	if c == nil {
		c = cache.Nop{}
	}
	return &Service{store: st, cache: c, cacheTTL: cacheTTL, log: log}
}

// FindWorkers matches service exactly and city case-insensitively. The
// owning identity is reduced to its public contact fields.
func (s *Service) FindWorkers(ctx context.Context, service, city string) ([]models.Worker, error) {
	service, city = strings.TrimSpace(service), strings.TrimSpace(city)
	if service == "" || city == "" {
		return nil, apperr.NewBadRequest("Service and city are required")
	}

	workers, err := s.store.SearchWorkers(ctx, service, city)
	if err != nil {
		return nil, apperr.NewInternal(err)
	}
	for i := range workers {
		if u := workers[i].User; u != nil {
			workers[i].User = &models.User{ID: u.ID, Name: u.Name, Phone: u.Phone, Address: u.Address, City: u.City}
		}
		if workers[i].Reviews == nil {
			workers[i].Reviews = []models.Review{}
		}
	}
	return workers, nil
}

// GetWorker reads through the cache.
func (s *Service) GetWorker(ctx context.Context, id uuid.UUID) (*models.Worker, error) {
	key := cache.WorkerKey(id.String())

	if raw, err := s.cache.Get(ctx, key); err == nil {
		var w models.Worker
		if err := json.Unmarshal(raw, &w); err == nil {
			return &w, nil
		}
		s.log.Warn("dropping undecodable cache entry", zap.String("key", key))
	} else if !errors.Is(err, cache.ErrMiss) {
		s.log.Warn("worker cache get", zap.String("key", key), zap.Error(err))
	}

	w, err := s.store.GetWorker(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Worker not found")
	}
	if w.Reviews == nil {
		w.Reviews = []models.Review{}
	}

	if raw, err := json.Marshal(w); err == nil {
		if err := s.cache.Set(ctx, key, raw, s.cacheTTL); err != nil {
			s.log.Warn("worker cache set", zap.String("key", key), zap.Error(err))
		}
	}
	return w, nil
}

func (s *Service) GetWorkerByIdentity(ctx context.Context, userID uuid.UUID) (*models.Worker, error) {
	w, err := s.store.GetWorkerByUser(ctx, userID)
	if err != nil {
		return nil, notFoundOr(err, "Worker not found")
	}
	return w, nil
}

// WorkerUpdate is the set of fields a worker may change on their own
// profile. Nil fields are left untouched.
type WorkerUpdate struct {
	Services     []string
	Cities       []string
	Experience   *int
	Availability *bool
}

func (s *Service) UpdateWorkerProfile(ctx context.Context, caller *auth.Caller, id uuid.UUID, upd WorkerUpdate) (*models.Worker, error) {
	w, err := s.store.GetWorker(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Worker not found")
	}
	if caller == nil || w.UserID != caller.UserID {
		return nil, apperr.NewForbidden("Unauthorized: You can only update your own profile")
	}

	if upd.Services != nil {
		services := utils.CleanList(upd.Services)
		if len(services) == 0 {
			return nil, apperr.NewBadRequest("Services cannot be empty")
		}
		w.Services = services
	}
	if upd.Cities != nil {
		cities := utils.CleanList(upd.Cities)
		if len(cities) == 0 {
			return nil, apperr.NewBadRequest("Cities cannot be empty")
		}
		w.Cities = cities
	}
	if upd.Experience != nil {
		if *upd.Experience < 0 {
			return nil, apperr.NewBadRequest("Experience cannot be negative")
		}
		w.Experience = *upd.Experience
	}
	if upd.Availability != nil {
		w.Availability = *upd.Availability
	}

	if err := s.store.UpdateWorker(ctx, w); err != nil {
		return nil, notFoundOr(err, "Worker not found")
	}
	s.invalidate(ctx, id)

	updated, err := s.store.GetWorker(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Worker not found")
	}
	return updated, nil
}

// AddReview records a customer's review of a worker who completed a booking
// for them and recomputes the worker's rating as the mean of all reviews.
func (s *Service) AddReview(ctx context.Context, caller *auth.Caller, workerID uuid.UUID, rating int, comment string) (*models.Review, error) {
	if caller == nil || caller.Role != models.RoleCustomer {
		return nil, apperr.NewForbidden("Only customers can review workers")
	}
	comment = strings.TrimSpace(comment)
	if rating < 1 || rating > 5 {
		return nil, apperr.NewBadRequest("Rating must be between 1 and 5")
	}
	if comment == "" {
		return nil, apperr.NewBadRequest("Comment is required")
	}

	review := &models.Review{WorkerID: workerID, UserID: caller.UserID, Rating: rating, Comment: comment}
	err := s.store.Transaction(ctx, func(tx store.Store) error {
		w, err := tx.GetWorker(ctx, workerID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return apperr.NewNotFound("Worker not found")
			}
			return err
		}

		done, err := tx.ListBookings(ctx, store.BookingFilter{
			UserID:   &caller.UserID,
			WorkerID: &workerID,
			Status:   models.BookingCompleted,
		})
		if err != nil {
			return err
		}
		if len(done) == 0 {
			return apperr.NewForbidden("You can only review workers who completed a booking for you")
		}

		if err := tx.CreateReview(ctx, review); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				return apperr.NewConflict("You have already reviewed this worker")
			}
			return err
		}

		avg, err := tx.AverageRating(ctx, workerID)
		if err != nil {
			return err
		}
		w.Rating = math.Round(avg*100) / 100
		return tx.UpdateWorker(ctx, w)
	})
	if err != nil {
		if apperr.KindOf(err) != apperr.Internal {
			return nil, err
		}
		return nil, apperr.NewInternal(err)
	}

	s.invalidate(ctx, workerID)
	return review, nil
}

func (s *Service) ListServices(ctx context.Context) ([]string, error) {
	services, err := s.store.ListServices(ctx)
	if err != nil {
		return nil, apperr.NewInternal(err)
	}
	if services == nil {
		services = []string{}
	}
	return services, nil
}

// InvalidateWorker drops the cached copy of a worker, e.g. after its owning
// identity changed.
func (s *Service) InvalidateWorker(ctx context.Context, id uuid.UUID) {
	s.invalidate(ctx, id)
}

func (s *Service) invalidate(ctx context.Context, id uuid.UUID) {
	if err := s.cache.Delete(ctx, cache.WorkerKey(id.String())); err != nil {
		s.log.Warn("worker cache delete", zap.Stringer("worker_id", id), zap.Error(err))
	}
}

func notFoundOr(err error, msg string) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NewNotFound(msg)
	}
	return apperr.NewInternal(err)
}
