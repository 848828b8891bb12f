package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Windi-Fikriyansyah/homeease_be/internal/models"
)

// GormStore is the Postgres-backed Store. The *gorm.DB must be opened with
// TranslateError enabled so unique violations surface as gorm.ErrDuplicatedKey.
type GormStore struct {
	DB *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{DB: db}
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	}
	return err
}

func (s *GormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{DB: tx})
	})
}

func (s *GormStore) CreateUser(ctx context.Context, u *models.User) error {
	return translate(s.DB.WithContext(ctx).Create(u).Error)
}

func (s *GormStore) firstUser(ctx context.Context, query string, args ...any) (*models.User, error) {
	var u models.User
	if err := s.DB.WithContext(ctx).Where(query, args...).First(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s *GormStore) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.firstUser(ctx, "id = ?", id)
}

func (s *GormStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.firstUser(ctx, "email = ?", email)
}

func (s *GormStore) FindUserByPhone(ctx context.Context, phone string) (*models.User, error) {
	return s.firstUser(ctx, "phone = ?", phone)
}

func (s *GormStore) FindUserByEmailAndRole(ctx context.Context, email string, role models.Role) (*models.User, error) {
	return s.firstUser(ctx, "email = ? AND role = ?", email, role)
}

func (s *GormStore) FindUserConflict(ctx context.Context, excludeID uuid.UUID, email, phone string) (*models.User, error) {
	return s.firstUser(ctx, "id <> ? AND (email = ? OR phone = ?)", excludeID, email, phone)
}

func (s *GormStore) UpdateUser(ctx context.Context, u *models.User) error {
	res := s.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", u.ID).
		Updates(map[string]any{
			"name":       u.Name,
			"email":      u.Email,
			"phone":      u.Phone,
			"address":    u.Address,
			"city":       u.City,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) CreateWorker(ctx context.Context, w *models.Worker) error {
	return translate(s.DB.WithContext(ctx).Create(w).Error)
}

func (s *GormStore) GetWorker(ctx context.Context, id uuid.UUID) (*models.Worker, error) {
	var w models.Worker
	err := s.DB.WithContext(ctx).
		Preload("User").
		Preload("Reviews", func(db *gorm.DB) *gorm.DB { return db.Order("created_at DESC") }).
		First(&w, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &w, nil
}

func (s *GormStore) GetWorkerByUser(ctx context.Context, userID uuid.UUID) (*models.Worker, error) {
	var w models.Worker
	if err := s.DB.WithContext(ctx).First(&w, "user_id = ?", userID).Error; err != nil {
		return nil, translate(err)
	}
	return &w, nil
}

func (s *GormStore) SearchWorkers(ctx context.Context, service, city string) ([]models.Worker, error) {
	var workers []models.Worker
	err := s.DB.WithContext(ctx).
		Preload("User").
		Where("EXISTS (SELECT 1 FROM jsonb_array_elements_text(workers.services) AS s(v) WHERE s.v = ?)", service).
		Where("EXISTS (SELECT 1 FROM jsonb_array_elements_text(workers.cities) AS c(v) WHERE lower(c.v) = ?)",
			strings.ToLower(strings.TrimSpace(city))).
		Order("rating DESC, created_at ASC").
		Find(&workers).Error
	if err != nil {
		return nil, translate(err)
	}
	return workers, nil
}

// UpdateWorker persists the mutable profile fields. Select keeps zero values
// (availability=false, experience=0) from being skipped.
func (s *GormStore) UpdateWorker(ctx context.Context, w *models.Worker) error {
	res := s.DB.WithContext(ctx).Model(&models.Worker{ID: w.ID}).
		Select("services", "cities", "experience", "rating", "availability", "updated_at").
		Updates(&models.Worker{
			Services:     w.Services,
			Cities:       w.Cities,
			Experience:   w.Experience,
			Rating:       w.Rating,
			Availability: w.Availability,
			UpdatedAt:    time.Now(),
		})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) ListServices(ctx context.Context) ([]string, error) {
	var services []string
	err := s.DB.WithContext(ctx).
		Raw("SELECT DISTINCT s.v FROM workers, jsonb_array_elements_text(workers.services) AS s(v) ORDER BY s.v").
		Scan(&services).Error
	if err != nil {
		return nil, translate(err)
	}
	return services, nil
}

func (s *GormStore) CreateReview(ctx context.Context, r *models.Review) error {
	return translate(s.DB.WithContext(ctx).Create(r).Error)
}

func (s *GormStore) AverageRating(ctx context.Context, workerID uuid.UUID) (float64, error) {
	var avg float64
	err := s.DB.WithContext(ctx).Model(&models.Review{}).
		Where("worker_id = ?", workerID).
		Select("COALESCE(AVG(rating), 0)").
		Scan(&avg).Error
	return avg, translate(err)
}

func (s *GormStore) CreateBooking(ctx context.Context, b *models.Booking) error {
	return translate(s.DB.WithContext(ctx).Create(b).Error)
}

func (s *GormStore) GetBooking(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	var b models.Booking
	if err := s.DB.WithContext(ctx).First(&b, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &b, nil
}

func (s *GormStore) ListBookings(ctx context.Context, f BookingFilter) ([]models.Booking, error) {
	q := s.DB.WithContext(ctx).Model(&models.Booking{})
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if f.WorkerID != nil {
		q = q.Where("worker_id = ?", *f.WorkerID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}

	var bookings []models.Booking
	if err := q.Order("date DESC").Find(&bookings).Error; err != nil {
		return nil, translate(err)
	}
	return bookings, nil
}

func (s *GormStore) HasActiveBooking(ctx context.Context, workerID uuid.UUID, date time.Time) (bool, error) {
	var n int64
	err := s.DB.WithContext(ctx).Model(&models.Booking{}).
		Where("worker_id = ? AND date = ?", workerID, date).
		Where("status IN ?", models.ActiveBookingStatuses).
		Count(&n).Error
	return n > 0, translate(err)
}

func (s *GormStore) UpdateBookingStatus(ctx context.Context, id uuid.UUID, from, to models.BookingStatus) (*models.Booking, error) {
	res := s.DB.WithContext(ctx).Model(&models.Booking{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{"status": to, "updated_at": time.Now()})
	if res.Error != nil {
		return nil, translate(res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := s.GetBooking(ctx, id); err != nil {
			return nil, err
		}
		return nil, ErrStale
	}
	return s.GetBooking(ctx, id)
}

func (s *GormStore) CountBookingsByStatus(ctx context.Context, workerID uuid.UUID) (map[models.BookingStatus]int64, error) {
	var rows []struct {
		Status models.BookingStatus
		Total  int64
	}
	err := s.DB.WithContext(ctx).Model(&models.Booking{}).
		Select("status, COUNT(*) AS total").
		Where("worker_id = ?", workerID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, translate(err)
	}

	out := make(map[models.BookingStatus]int64, len(rows))
	for _, r := range rows {
		out[r.Status] = r.Total
	}
	return out, nil
}
