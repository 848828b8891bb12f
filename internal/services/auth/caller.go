package auth

import (
	"github.com/google/uuid"

	"github.com/Windi-Fikriyansyah/homeease_be/internal/models"
)

// Caller is the authenticated identity behind a request. WorkerID is set
// only for worker accounts.
type Caller struct {
	UserID   uuid.UUID
	Role     models.Role
	WorkerID *uuid.UUID
}

func (c Caller) IsWorker() bool {
	return c.Role == models.RoleWorker && c.WorkerID != nil
}

// OwnsWorker reports whether the caller is the worker identified by id.
func (c Caller) OwnsWorker(id uuid.UUID) bool {
	return c.WorkerID != nil && *c.WorkerID == id
}
