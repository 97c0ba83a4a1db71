package otp

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) Replace(ctx context.Context, c *Code) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO otp_code (patient_email, code, expires_at, consumed)
		VALUES ($1, $2, $3, FALSE)
		ON CONFLICT (patient_email) DO UPDATE
		SET code = EXCLUDED.code,
		    expires_at = EXCLUDED.expires_at,
		    consumed = FALSE,
		    created_at = now()`,
		c.PatientEmail, c.Code, c.ExpiresAt)
	return err
}

// Consume flips the consumed flag in the same statement that checks the
// code, so of two racing verifications exactly one sees RowsAffected = 1.
func (r *repoPG) Consume(ctx context.Context, email, code string, now time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE otp_code
		SET consumed = TRUE
		WHERE patient_email = $1
		  AND code = $2
		  AND NOT consumed
		  AND expires_at > $3`,
		email, code, now)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
