package auth

import (
	"context"

	"golang.org/x/crypto/bcrypt"

	"github.com/meridian-portal/meridian-portal/internal/shared"
)

// Service wraps authentication business rules.
type Service struct {
	dir Directory
}

// NewService constructs a new Service.
func NewService(dir Directory) *Service {
	return &Service{dir: dir}
}

// Authenticate validates email/password credentials. Every failure mode maps
// to ErrInvalidCredentials so responses carry no account-existence oracle.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := s.dir.FindByEmail(ctx, email)
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return user, nil
}
