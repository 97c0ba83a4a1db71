package doctor

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned by GetByEmail when no doctor has the email.
	ErrNotFound = errors.New("doctor not found")
	// ErrEmailTaken is returned by Create when the email is already registered.
	ErrEmailTaken = errors.New("email already registered")
)

type Repository interface {
	Create(ctx context.Context, d *Doctor) error
	GetByEmail(ctx context.Context, email string) (*Doctor, error)
	// GetByID returns (nil, nil) when the doctor does not exist; lookups by id
	// are optional.
	GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
}
