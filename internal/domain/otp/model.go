package otp

import "time"

// Code is the single active one-time code for a patient email. A new
// request replaces the previous row, so at most one code is live per
// email at any time.
type Code struct {
	PatientEmail string    `db:"patient_email"`
	Code         string    `db:"code"`
	ExpiresAt    time.Time `db:"expires_at"`
	Consumed     bool      `db:"consumed"`
	CreatedAt    time.Time `db:"created_at"`
}
