package doctor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/prescripto/vault/internal/platform/auth"
)

// ErrInvalidCredentials is returned by Authenticate for unknown emails and
// wrong passwords alike.
var ErrInvalidCredentials = errors.New("invalid credentials")

type Service struct {
	repo   Repository
	tokens *auth.Manager
	log    zerolog.Logger
}

func NewService(repo Repository, tokens *auth.Manager, log zerolog.Logger) *Service {
	return &Service{repo: repo, tokens: tokens, log: log}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a doctor account with a bcrypt-hashed password. Registering
// an email twice fails with ErrEmailTaken.
func (s *Service) Register(ctx context.Context, name, email, rawPassword string) (*Doctor, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if name == "" {
		return nil, fmt.Errorf("name is required")
	}
	if email == "" {
		return nil, fmt.Errorf("email is required")
	}
	if rawPassword == "" {
		return nil, fmt.Errorf("password is required")
	}

	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(rawPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	d := &Doctor{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := s.repo.Create(ctx, d); err != nil {
		return nil, err
	}

	s.log.Info().Str("email", d.Email).Msg("doctor registered")
	return d, nil
}

// Authenticate checks the password and returns the doctor with a signed
// session token. Unknown email and wrong password are indistinguishable.
func (s *Service) Authenticate(ctx context.Context, email, rawPassword string) (*Doctor, string, error) {
	d, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(d.PasswordHash), []byte(rawPassword)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(d.ID, d.Name, d.Email)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}
	return d, token, nil
}

// FindByEmail returns the doctor or ErrNotFound.
func (s *Service) FindByEmail(ctx context.Context, email string) (*Doctor, error) {
	return s.repo.GetByEmail(ctx, normalizeEmail(email))
}

// FindByID returns (nil, nil) when absent.
func (s *Service) FindByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	return s.repo.GetByID(ctx, id)
}
