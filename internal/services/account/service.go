package account

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Windi-Fikriyansyah/homeease_be/internal/apperr"
	"github.com/Windi-Fikriyansyah/homeease_be/internal/models"
	"github.com/Windi-Fikriyansyah/homeease_be/internal/services/auth"
	"github.com/Windi-Fikriyansyah/homeease_be/internal/store"
	"github.com/Windi-Fikriyansyah/homeease_be/internal/utils"
)

// WorkerInvalidator drops cached worker views that embed the identity.
type WorkerInvalidator interface {
	InvalidateWorker(ctx context.Context, id uuid.UUID)
}

type Service struct {
	store   store.Store
	workers WorkerInvalidator
	log     *zap.Logger
}

func NewService(st store.Store, workers WorkerInvalidator, log *zap.Logger) *Service {
	return &Service{store: st, workers: workers, log: log}
}

func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NewNotFound("User not found")
		}
		return nil, apperr.NewInternal(err)
	}
	return u, nil
}

type UserUpdate struct {
	Name    string
	Email   string
	Phone   string
	Address string
	City    string
}

// UpdateUser replaces the caller's own contact fields. Email and phone
// collisions with another identity are reported as BadRequest.
func (s *Service) UpdateUser(ctx context.Context, caller *auth.Caller, id uuid.UUID, upd UserUpdate) (*models.User, error) {
	upd.Name = strings.TrimSpace(upd.Name)
	upd.Email = strings.ToLower(strings.TrimSpace(upd.Email))
	upd.Phone = strings.TrimSpace(upd.Phone)
	upd.Address = strings.TrimSpace(upd.Address)
	upd.City = strings.TrimSpace(upd.City)

	if upd.Name == "" || upd.Email == "" || upd.Phone == "" || upd.Address == "" || upd.City == "" {
		return nil, apperr.NewBadRequest("All fields are required")
	}
	if !utils.ValidEmail(upd.Email) {
		return nil, apperr.NewBadRequest("Invalid email address")
	}
	if caller == nil || caller.UserID != id {
		return nil, apperr.NewForbidden("You can only update your own profile")
	}

	if _, err := s.GetUser(ctx, id); err != nil {
		return nil, err
	}

	other, err := s.store.FindUserConflict(ctx, id, upd.Email, upd.Phone)
	switch {
	case err == nil:
		if other.Email == upd.Email {
			return nil, apperr.NewBadRequest("Email is already in use")
		}
		return nil, apperr.NewBadRequest("Phone number is already in use")
	case !errors.Is(err, store.ErrNotFound):
		return nil, apperr.NewInternal(err)
	}

	err = s.store.UpdateUser(ctx, &models.User{
		ID:      id,
		Name:    upd.Name,
		Email:   upd.Email,
		Phone:   upd.Phone,
		Address: upd.Address,
		City:    upd.City,
	})
	switch {
	case errors.Is(err, store.ErrDuplicate):
		return nil, apperr.NewBadRequest("Email or phone must be unique")
	case errors.Is(err, store.ErrNotFound):
		return nil, apperr.NewNotFound("User not found")
	case err != nil:
		return nil, apperr.NewInternal(err)
	}

	if caller.WorkerID != nil && s.workers != nil {
		s.workers.InvalidateWorker(ctx, *caller.WorkerID)
	}
	return s.GetUser(ctx, id)
}
