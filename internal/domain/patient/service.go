package patient

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

type Service struct {
	repo Repository
	log  zerolog.Logger
}

func NewService(repo Repository, log zerolog.Logger) *Service {
	return &Service{repo: repo, log: log}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// FindOrCreate looks up a patient by email and creates one with the given
// demographics if none exists. When the patient already exists the stored
// record wins and the provided fields are ignored. Safe under concurrent
// calls with the same email.
func (s *Service) FindOrCreate(ctx context.Context, p *Patient) (*Patient, error) {
	p.Email = normalizeEmail(p.Email)
	p.Name = strings.TrimSpace(p.Name)
	if p.Email == "" {
		return nil, fmt.Errorf("patient email is required")
	}
	if p.Name == "" {
		return nil, fmt.Errorf("patient name is required")
	}

	stored, err := s.repo.Upsert(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("upsert patient: %w", err)
	}
	s.log.Debug().Str("email", stored.Email).Stringer("id", stored.ID).Msg("patient resolved")
	return stored, nil
}

// FindByEmail returns (nil, nil) when no patient has the email.
func (s *Service) FindByEmail(ctx context.Context, email string) (*Patient, error) {
	return s.repo.GetByEmail(ctx, normalizeEmail(email))
}
