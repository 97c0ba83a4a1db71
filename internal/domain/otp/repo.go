package otp

import (
	"context"
	"time"
)

type Repository interface {
	// Replace stores c as the active code for its email, superseding any
	// prior code whether or not it was consumed.
	Replace(ctx context.Context, c *Code) error
	// Consume atomically marks the code consumed and reports whether it was
	// live (matching, unconsumed, unexpired at now). A second call with the
	// same code returns false.
	Consume(ctx context.Context, email, code string, now time.Time) (bool, error)
}
