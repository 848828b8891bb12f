package db

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Windi-Fikriyansyah/homeease_be/internal/models"
)

// Connect opens the Postgres pool with unique-violation translation enabled.
func Connect(dsn string, log *zap.Logger) (*gorm.DB, error) {
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	log.Info("connected to postgres")
	return gdb, nil
}

// Migrate creates the tables plus the partial unique index that keeps a
// worker from holding two active bookings for the same slot.
func Migrate(gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(&models.User{}, &models.Worker{}, &models.Review{}, &models.Booking{}); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}

	err := gdb.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_bookings_worker_slot_active
		ON bookings (worker_id, date) WHERE status IN ('pending', 'accepted')`).Error
	if err != nil {
		return fmt.Errorf("create booking slot index: %w", err)
	}
	return nil
}
