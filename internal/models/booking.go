package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingAccepted  BookingStatus = "accepted"
	BookingCompleted BookingStatus = "completed"
	BookingCancelled BookingStatus = "cancelled"
)

// bookingTransitions lists the statuses reachable from each status.
// Completed and cancelled are terminal.
var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingPending:  {BookingAccepted, BookingCancelled},
	BookingAccepted: {BookingCompleted},
}

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingPending, BookingAccepted, BookingCompleted, BookingCancelled:
		return true
	}
	return false
}

func (s BookingStatus) Terminal() bool {
	return s == BookingCompleted || s == BookingCancelled
}

// Active bookings hold the worker's time slot.
func (s BookingStatus) Active() bool {
	return s == BookingPending || s == BookingAccepted
}

func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, allowed := range bookingTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ActiveBookingStatuses is used by slot conflict checks.
var ActiveBookingStatuses = []BookingStatus{BookingPending, BookingAccepted}

// Booking links a requesting User to a Worker. Only Status changes after creation.
type Booking struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID   uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	WorkerID uuid.UUID `gorm:"type:uuid;not null;index" json:"worker_id"`

	Service string    `gorm:"type:varchar(120);not null" json:"service"`
	City    string    `gorm:"type:varchar(120);not null" json:"city"`
	Date    time.Time `gorm:"not null;index" json:"date"`

	Status BookingStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (b *Booking) BeforeCreate(tx *gorm.DB) (err error) {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return
}
