package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Worker is the service-provider extension of a User (1:1 on UserID).
type Worker struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`

	Services   datatypes.JSONSlice[string] `gorm:"type:jsonb;not null" json:"services"`
	Cities     datatypes.JSONSlice[string] `gorm:"type:jsonb;not null" json:"cities"`
	Experience int                         `gorm:"not null;default:0" json:"experience"`

	Rating       float64 `gorm:"not null;default:0" json:"rating"`
	Availability bool    `gorm:"not null;default:true" json:"availability"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	User    *User    `gorm:"foreignKey:UserID;constraint:OnDelete:RESTRICT" json:"user,omitempty"`
	Reviews []Review `gorm:"foreignKey:WorkerID" json:"reviews"`
}

func (w *Worker) BeforeCreate(tx *gorm.DB) (err error) {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return
}

// OffersService reports whether service is one of the worker's offerings.
func (w *Worker) OffersService(service string) bool {
	for _, s := range w.Services {
		if s == service {
			return true
		}
	}
	return false
}
