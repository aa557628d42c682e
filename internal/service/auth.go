package service

import (
	"context"
	"crypto/subtle"

	"vocabsrs/internal/repository"
)

// AuthService gates the Telegram bot behind a shared password
type AuthService struct {
	learnerRepo repository.LearnerRepository
	botPassword string
}

// NewAuthService creates a new auth service
func NewAuthService(learnerRepo repository.LearnerRepository, botPassword string) *AuthService {
	return &AuthService{
		learnerRepo: learnerRepo,
		botPassword: botPassword,
	}
}

// CheckPassword verifies if provided password matches
func (s *AuthService) CheckPassword(password string) bool {
	if s.botPassword == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(password), []byte(s.botPassword)) == 1
}

// IsAuthorized checks if learner is authorized
func (s *AuthService) IsAuthorized(ctx context.Context, learnerID int64) (bool, error) {
	return s.learnerRepo.IsAuthorized(ctx, learnerID)
}

// AuthorizeLearner authorizes a learner
func (s *AuthService) AuthorizeLearner(ctx context.Context, learnerID int64) error {
	return s.learnerRepo.AuthorizeLearner(ctx, learnerID)
}

// EnsureLearnerExists creates learner record if doesn't exist
func (s *AuthService) EnsureLearnerExists(ctx context.Context, learnerID int64) error {
	return s.learnerRepo.EnsureLearnerExists(ctx, learnerID)
}
