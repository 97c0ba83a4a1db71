package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/prescripto/vault/internal/domain/patient"
	"github.com/prescripto/vault/internal/platform/mailer"
)

var (
	// ErrPatientNotFound is returned by Send when no patient has the email.
	ErrPatientNotFound = errors.New("patient not found")
	// ErrDeliveryFailed is returned by Send when the code could not be mailed.
	ErrDeliveryFailed = errors.New("otp delivery failed")
)

// PatientLookup is the slice of the patient service Send needs.
type PatientLookup interface {
	FindByEmail(ctx context.Context, email string) (*patient.Patient, error)
}

type Service struct {
	repo     Repository
	patients PatientLookup
	mail     *mailer.Mailer
	ttl      time.Duration
	log      zerolog.Logger

	// now is swappable in tests
	now func() time.Time
}

func NewService(repo Repository, patients PatientLookup, mail *mailer.Mailer, ttl time.Duration, log zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		patients: patients,
		mail:     mail,
		ttl:      ttl,
		log:      log,
		now:      time.Now,
	}
}

// generateCode returns a 6-digit numeric code with leading zeros preserved.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// Send issues a fresh code for the patient's email and mails it. Any
// previously issued code for the email stops working.
func (s *Service) Send(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	p, err := s.patients.FindByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("lookup patient: %w", err)
	}
	if p == nil {
		return ErrPatientNotFound
	}

	code, err := generateCode()
	if err != nil {
		return err
	}

	expiresAt := s.now().Add(s.ttl)
	if err := s.repo.Replace(ctx, &Code{
		PatientEmail: email,
		Code:         code,
		ExpiresAt:    expiresAt,
	}); err != nil {
		return fmt.Errorf("store otp: %w", err)
	}

	err = s.mail.SendTemplate(ctx, "otp-code", map[string]string{
		"code":    code,
		"minutes": fmt.Sprintf("%d", int(s.ttl.Minutes())),
	}, email)
	if err != nil {
		s.log.Error().Err(err).Str("email", email).Msg("otp mail delivery failed")
		return ErrDeliveryFailed
	}

	s.log.Info().Str("email", email).Time("expires_at", expiresAt).Msg("otp issued")
	return nil
}

// Verify consumes the code if it is live. It reports a plain bool: wrong
// code, expired code, and already-consumed code are indistinguishable to
// the caller.
func (s *Service) Verify(ctx context.Context, email, code string) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	code = strings.TrimSpace(code)
	if code == "" {
		return false, nil
	}
	return s.repo.Consume(ctx, email, code, s.now())
}
