package doctor

import (
	"time"

	"github.com/google/uuid"
)

// Doctor maps to the doctor table. The password hash is never serialized.
type Doctor struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// AuthResponse is returned by the register and login endpoints.
type AuthResponse struct {
	Message string    `json:"message"`
	Token   string    `json:"token"`
	Name    string    `json:"name"`
	Email   string    `json:"email"`
	ID      uuid.UUID `json:"id"`
}
