package shared

import (
	"time"

	"github.com/google/uuid"
)

// User represents an account in the system. The password hash never leaves
// the server. Role is assigned out-of-band; no API call mutates it.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"display_name"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// Notification is owned by one admin. Created by the request workflow,
// mutated only through its read flag, never deleted.
type Notification struct {
	ID        uuid.UUID `json:"id"`
	AdminID   uuid.UUID `json:"admin_id"`
	RequestID uuid.UUID `json:"request_id"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}
