// Package auth registers identities, issues bearer tokens and resolves them
// back into a Caller.
package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Windi-Fikriyansyah/homeease_be/internal/apperr"
	"github.com/Windi-Fikriyansyah/homeease_be/internal/metrics"
	"github.com/Windi-Fikriyansyah/homeease_be/internal/models"
	"github.com/Windi-Fikriyansyah/homeease_be/internal/store"
	"github.com/Windi-Fikriyansyah/homeease_be/internal/utils"
)

const minPasswordLen = 6

type Options struct {
	Secret     string
	TokenTTL   time.Duration
	BcryptCost int
}

type Service struct {
	store store.Store
	opts  Options
	log   *zap.Logger
	now   func() time.Time
}

func NewService(st store.Store, opts Options, log *zap.Logger) *Service {
	if opts.TokenTTL == 0 {
		opts.TokenTTL = 24 * time.Hour
	}
	return &Service{store: st, opts: opts, log: log, now: time.Now}
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Phone    string
	Address  string
	City     string
	Role     models.Role

	// Worker-only fields.
	Services   []string
	Cities     []string
	Experience *int
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (in *RegisterInput) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Address = strings.TrimSpace(in.Address)
	in.City = strings.TrimSpace(in.City)
	in.Services = utils.CleanList(in.Services)
	in.Cities = utils.CleanList(in.Cities)
}

func (in RegisterInput) validate() error {
	if in.Name == "" || in.Email == "" || in.Password == "" || in.Phone == "" ||
		in.Address == "" || in.City == "" || in.Role == "" {
		return apperr.NewBadRequest("All basic fields are required")
	}
	if !in.Role.Valid() {
		return apperr.NewBadRequest("Role must be user or worker")
	}
	if !utils.ValidEmail(in.Email) {
		return apperr.NewBadRequest("Invalid email address")
	}
	if len(in.Password) < minPasswordLen {
		return apperr.NewBadRequest("Password must be at least 6 characters")
	}
	if in.Role == models.RoleWorker {
		if len(in.Services) == 0 || len(in.Cities) == 0 || in.Experience == nil {
			return apperr.NewBadRequest("Worker details are required")
		}
		if *in.Experience < 0 {
			return apperr.NewBadRequest("Experience cannot be negative")
		}
	}
	return nil
}

// Register creates the identity and, for workers, the worker profile in one
// transaction. No token is issued.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.normalize()
	if err := in.validate(); err != nil {
		return nil, err
	}

	hash, err := utils.HashPassword(in.Password, s.opts.BcryptCost)
	if err != nil {
		return nil, apperr.NewInternal(err)
	}

	user := &models.User{
		Name:     in.Name,
		Email:    in.Email,
		Phone:    in.Phone,
		Address:  in.Address,
		City:     in.City,
		Password: hash,
		Role:     in.Role,
	}

	err = s.store.Transaction(ctx, func(tx store.Store) error {
		if _, err := tx.FindUserByEmail(ctx, in.Email); err == nil {
			return apperr.NewConflict("Email already in use")
		} else if !errors.Is(err, store.ErrNotFound) {
			return err
		}
		if _, err := tx.FindUserByPhone(ctx, in.Phone); err == nil {
			return apperr.NewConflict("Phone number already in use")
		} else if !errors.Is(err, store.ErrNotFound) {
			return err
		}

		if err := tx.CreateUser(ctx, user); err != nil {
			return err
		}
		if in.Role != models.RoleWorker {
			return nil
		}
		return tx.CreateWorker(ctx, &models.Worker{
			UserID:       user.ID,
			Services:     in.Services,
			Cities:       in.Cities,
			Experience:   *in.Experience,
			Availability: true,
		})
	})
	switch {
	case err == nil:
		s.log.Info("identity registered", zap.Stringer("user_id", user.ID), zap.String("role", string(user.Role)))
		return user, nil
	case errors.Is(err, store.ErrDuplicate):
		// lost a race with a concurrent registration
		return nil, apperr.NewConflict("Email or phone already in use")
	case apperr.KindOf(err) != apperr.Internal:
		return nil, err
	default:
		return nil, apperr.NewInternal(err)
	}
}

// Login matches (email, role) exactly. Unknown email, wrong role and wrong
// password all fail the same way.
func (s *Service) Login(ctx context.Context, email, password string, role models.Role) (string, *models.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" || role == "" {
		return "", nil, apperr.NewBadRequest("All fields are required")
	}
	if !role.Valid() {
		return "", nil, apperr.NewBadRequest("Role must be user or worker")
	}

	user, err := s.store.FindUserByEmailAndRole(ctx, email, role)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", nil, s.rejectLogin()
		}
		return "", nil, apperr.NewInternal(err)
	}
	if !utils.CheckPassword(user.Password, password) {
		return "", nil, s.rejectLogin()
	}

	token, err := s.issue(user)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// LoginWithVerifiedEmail issues a token for an identity whose email was
// verified by an external provider.
func (s *Service) LoginWithVerifiedEmail(ctx context.Context, email string, role models.Role) (string, *models.User, error) {
	if !role.Valid() {
		return "", nil, apperr.NewBadRequest("Role must be user or worker")
	}
	user, err := s.store.FindUserByEmailAndRole(ctx, normalizeEmail(email), role)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", nil, apperr.NewNotFound("No account registered for this email")
		}
		return "", nil, apperr.NewInternal(err)
	}
	token, err := s.issue(user)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

func (s *Service) rejectLogin() error {
	metrics.AuthFailures.WithLabelValues("login").Inc()
	return apperr.NewInvalidCredential("Invalid credentials")
}

func (s *Service) issue(user *models.User) (string, error) {
	token, err := utils.SignJWT(s.opts.Secret, user.ID.String(), string(user.Role), s.opts.TokenTTL, s.now())
	if err != nil {
		return "", apperr.NewInternal(err)
	}
	return token, nil
}

// Authenticate verifies a bearer token and resolves the caller. Worker
// tokens must map to an existing worker profile.
func (s *Service) Authenticate(ctx context.Context, token string) (*Caller, error) {
	if strings.TrimSpace(token) == "" {
		return nil, apperr.NewUnauthenticated("Access denied. No token provided.")
	}

	claims, err := utils.ParseJWT(s.opts.Secret, token, s.now())
	if err != nil {
		metrics.AuthFailures.WithLabelValues("token").Inc()
		return nil, apperr.Wrap(apperr.InvalidCredential, "Invalid or expired token", err)
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		metrics.AuthFailures.WithLabelValues("token").Inc()
		return nil, apperr.Wrap(apperr.InvalidCredential, "Invalid or expired token", err)
	}
	role := models.Role(claims.Role)
	if !role.Valid() {
		metrics.AuthFailures.WithLabelValues("token").Inc()
		return nil, apperr.NewInvalidCredential("Invalid or expired token")
	}

	caller := &Caller{UserID: userID, Role: role}
	if role != models.RoleWorker {
		return caller, nil
	}

	worker, err := s.store.GetWorkerByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.log.Warn("worker token without worker profile", zap.Stringer("user_id", userID))
			return nil, apperr.NewNotFound("Worker profile not found")
		}
		return nil, apperr.NewInternal(err)
	}
	caller.WorkerID = &worker.ID
	return caller, nil
}
