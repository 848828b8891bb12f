package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleCustomer Role = "user"
	RoleWorker   Role = "worker"
)

func (r Role) Valid() bool {
	return r == RoleCustomer || r == RoleWorker
}

// User is an identity record. Email is omitted from public directory projections.
type User struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name    string    `gorm:"not null" json:"name"`
	Email   string    `gorm:"type:varchar(150);uniqueIndex;not null" json:"email,omitempty"`
	Phone   string    `gorm:"type:varchar(30);uniqueIndex;not null" json:"phone"`
	Address string    `gorm:"type:text;not null" json:"address"`
	City    string    `gorm:"type:varchar(120);not null" json:"city"`

	Password string `gorm:"not null" json:"-"`
	Role     Role   `gorm:"type:varchar(20);not null;index" json:"role,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return
}
