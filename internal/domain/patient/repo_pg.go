package patient

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const cols = `id, name, phone, email, address, gender, age, blood_group, created_at`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.Name, &p.Phone, &p.Email,
		&p.Address, &p.Gender, &p.Age, &p.BloodGroup, &p.CreatedAt)
	return &p, err
}

// Upsert relies on the unique email index. The no-op DO UPDATE makes the
// RETURNING clause yield the existing row instead of failing, so two
// concurrent calls with the same email both get the same patient back and
// neither overwrites the other's fields.
func (r *repoPG) Upsert(ctx context.Context, p *Patient) (*Patient, error) {
	id := uuid.New()
	return scanPatient(r.pool.QueryRow(ctx, `
		INSERT INTO patient (id, name, phone, email, address, gender, age, blood_group)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (email) DO UPDATE SET email = EXCLUDED.email
		RETURNING `+cols,
		id, p.Name, p.Phone, p.Email, p.Address, p.Gender, p.Age, p.BloodGroup))
}

func (r *repoPG) GetByEmail(ctx context.Context, email string) (*Patient, error) {
	p, err := scanPatient(r.pool.QueryRow(ctx,
		`SELECT `+cols+` FROM patient WHERE email = $1`, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}
