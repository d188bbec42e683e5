package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/flatcms/core/internal/domain/entities"
	"github.com/flatcms/core/internal/infrastructure/logger"
	"github.com/flatcms/core/internal/ports"
)

// AuthService verifies sign-in attempts against the credential store
type AuthService struct {
	credRepo ports.CredentialRepository
	logger   *logger.Logger

	dummyOnce sync.Once
	dummyHash []byte
}

// NewAuthService creates a new auth service
func NewAuthService(credRepo ports.CredentialRepository, logger *logger.Logger) *AuthService {
	return &AuthService{
		credRepo: credRepo,
		logger:   logger.WithComponent("auth"),
	}
}

var _ ports.AuthService = (*AuthService)(nil)

// Verify reports whether password matches the stored hash for username.
// Unknown users still pay for one bcrypt comparison.
func (s *AuthService) Verify(ctx context.Context, username, password string) (bool, error) {
	cred, err := s.credRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, entities.ErrInvalidCredentials) {
			_ = bcrypt.CompareHashAndPassword(s.dummy(), []byte(password))
			return false, nil
		}
		return false, fmt.Errorf("failed to load credentials: %w", err)
	}

	err = bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		s.logger.Errorw("Stored password hash is unusable", "username", username, "error", err)
		return false, nil
	}
}

func (s *AuthService) dummy() []byte {
	s.dummyOnce.Do(func() {
		hash, err := bcrypt.GenerateFromPassword([]byte("flatcms-dummy-password"), bcrypt.DefaultCost)
		if err == nil {
			s.dummyHash = hash
		}
	})
	return s.dummyHash
}

// HashPassword returns a bcrypt hash for password at the given cost
func HashPassword(password string, cost int) (string, error) {
	if password == "" {
		return "", errors.New("password is required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}
