package patient

import "context"

// Repository persists patients. GetByEmail returns (nil, nil) when absent.
type Repository interface {
	// Upsert inserts p if no patient with its email exists; otherwise it
	// returns the existing row unchanged. The returned patient always has
	// its id and created_at populated.
	Upsert(ctx context.Context, p *Patient) (*Patient, error)
	GetByEmail(ctx context.Context, email string) (*Patient, error)
}
