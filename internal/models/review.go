package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Review struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	WorkerID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_reviews_worker_user" json:"worker_id"`
	UserID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_reviews_worker_user" json:"user_id"`

	Rating  int    `gorm:"not null" json:"rating"` // 1-5
	Comment string `gorm:"type:text;not null" json:"comment"`

	CreatedAt time.Time `json:"created_at"`
}

func (r *Review) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return
}
