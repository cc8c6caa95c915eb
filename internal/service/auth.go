package service

import (
	"context"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/google/uuid"

	"peerrent-backend/internal/clock"
	"peerrent-backend/internal/domain"
	"peerrent-backend/internal/logger"
	"peerrent-backend/internal/repository"
	"peerrent-backend/internal/security"
)

type authService struct {
	userRepo repository.UserRepository
	tokens   security.TokenManager
	clock    clock.Clock
	logger   *slog.Logger
}

func NewAuthService(userRepo repository.UserRepository, tokens security.TokenManager, clk clock.Clock) AuthService {
	return &authService{
		userRepo: userRepo,
		tokens:   tokens,
		clock:    clk,
		logger:   logger.WithService("auth"),
	}
}

func (s *authService) Signup(ctx context.Context, name, email, password string) (*domain.User, string, string, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" {
		return nil, "", "", domain.E(domain.KindInvalidInput, "name is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, "", "", domain.E(domain.KindInvalidInput, "invalid email address")
	}
	if len(password) < 8 {
		return nil, "", "", domain.E(domain.KindInvalidInput, "password must be at least 8 characters")
	}

	if existing, err := s.userRepo.GetByEmail(ctx, email); err == nil && existing != nil {
		return nil, "", "", domain.E(domain.KindConflict, "an account with this email already exists")
	} else if err != nil && domain.KindOf(err) != domain.KindNotFound {
		return nil, "", "", err
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return nil, "", "", err
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         domain.UserRoleUser,
		CreatedAt:    s.clock.Now(),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, "", "", err
	}

	access, refresh, err := s.issueTokens(user)
	if err != nil {
		return nil, "", "", err
	}

	s.logger.Info("user signed up", "user_id", user.ID)
	return user, access, refresh, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (string, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if domain.KindOf(err) == domain.KindNotFound {
			// Same error for unknown email and wrong password.
			return "", "", domain.E(domain.KindUnauthorized, "invalid credentials")
		}
		return "", "", err
	}
	if !security.CheckPassword(user.PasswordHash, password) {
		return "", "", domain.E(domain.KindUnauthorized, "invalid credentials")
	}

	access, refresh, err := s.issueTokens(user)
	if err != nil {
		return "", "", err
	}

	s.logger.Info("user logged in", "user_id", user.ID)
	return access, refresh, nil
}

// Refresh exchanges a valid refresh token for a fresh token pair. The user
// is re-read so a rotated role or a deleted account takes effect here.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (string, string, error) {
	claims, err := s.tokens.ValidateToken(refreshToken)
	if err != nil {
		return "", "", domain.E(domain.KindUnauthorized, "invalid refresh token")
	}
	if claims.Type != security.TokenTypeRefresh {
		return "", "", domain.E(domain.KindUnauthorized, "token is not a refresh token")
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		if domain.KindOf(err) == domain.KindNotFound {
			return "", "", domain.E(domain.KindUnauthorized, "invalid refresh token")
		}
		return "", "", err
	}

	access, refresh, err := s.issueTokens(user)
	if err != nil {
		return "", "", err
	}

	s.logger.Info("tokens refreshed", "user_id", user.ID)
	return access, refresh, nil
}

func (s *authService) UpdatePaymentMethod(ctx context.Context, userID string, method *domain.PaymentMethod) error {
	if !method.Valid() {
		return domain.E(domain.KindInvalidInput, "payment method is incomplete")
	}
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return err
	}
	return s.userRepo.UpdatePaymentMethod(ctx, userID, method)
}

func (s *authService) issueTokens(user *domain.User) (string, string, error) {
	access, err := s.tokens.GenerateAccessToken(user.ID, user.Email, string(user.Role))
	if err != nil {
		return "", "", err
	}
	refresh, err := s.tokens.GenerateRefreshToken(user.ID, user.Email)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}
