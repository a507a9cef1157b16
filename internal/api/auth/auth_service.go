package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/gritfit/gritfit-api/config"
	"github.com/gritfit/gritfit-api/internal/types"
)

var _ AuthService = (*AuthServiceImpl)(nil)

// AuthService defines the business logic contract for staff authentication.
// Gym members authenticate through the identity provider; only admin and
// trainer accounts carry local passwords.
type AuthService interface {
	Login(ctx context.Context, email, password string) (*types.LoginResponse, error)
	RefreshSession(ctx context.Context, refreshToken string) (*types.TokenResponse, error)
	Logout(ctx context.Context, refreshToken string) error
}

type AuthServiceImpl struct {
	logger *slog.Logger
	repo   AuthRepo
	jwtCfg config.JWTConfig
}

func NewAuthService(repo AuthRepo, jwtCfg config.JWTConfig, logger *slog.Logger) *AuthServiceImpl {
	return &AuthServiceImpl{
		logger: logger,
		repo:   repo,
		jwtCfg: jwtCfg,
	}
}

func (s *AuthServiceImpl) Login(ctx context.Context, email, password string) (*types.LoginResponse, error) {
	l := s.logger.With(slog.String("method", "Login"))

	acct, err := s.repo.GetStaffByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return nil, types.ErrUnauthenticated
		}
		return nil, fmt.Errorf("looking up staff account: %w", err)
	}

	if acct.PasswordHash == "" {
		l.WarnContext(ctx, "Staff account has no local password", slog.String("email", email))
		return nil, types.ErrUnauthenticated
	}

	if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)); err != nil {
		return nil, types.ErrUnauthenticated
	}

	accessToken, err := s.generateAccessToken(acct)
	if err != nil {
		return nil, fmt.Errorf("generating access token: %w", err)
	}

	refreshToken := uuid.NewString()
	expiresAt := time.Now().Add(s.jwtCfg.RefreshTTL)
	if err := s.repo.StoreRefreshToken(ctx, acct.ID, refreshToken, expiresAt); err != nil {
		return nil, fmt.Errorf("storing refresh token: %w", err)
	}

	l.InfoContext(ctx, "Staff login successful", slog.String("user_id", acct.ID), slog.String("role", acct.Role))
	return &types.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Message:      "Login successful",
	}, nil
}

func (s *AuthServiceImpl) RefreshSession(ctx context.Context, refreshToken string) (*types.TokenResponse, error) {
	userID, err := s.repo.ValidateRefreshTokenAndGetUserID(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	acct, err := s.repo.GetStaffByID(ctx, userID)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return nil, types.ErrUnauthenticated
		}
		return nil, fmt.Errorf("looking up staff account: %w", err)
	}

	accessToken, err := s.generateAccessToken(acct)
	if err != nil {
		return nil, fmt.Errorf("generating access token: %w", err)
	}

	// Rotate: revoke the used token, issue a fresh one
	if err := s.repo.InvalidateRefreshToken(ctx, refreshToken); err != nil {
		return nil, fmt.Errorf("rotating refresh token: %w", err)
	}
	newRefresh := uuid.NewString()
	if err := s.repo.StoreRefreshToken(ctx, userID, newRefresh, time.Now().Add(s.jwtCfg.RefreshTTL)); err != nil {
		return nil, fmt.Errorf("storing rotated refresh token: %w", err)
	}

	return &types.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: newRefresh,
	}, nil
}

func (s *AuthServiceImpl) Logout(ctx context.Context, refreshToken string) error {
	return s.repo.InvalidateRefreshToken(ctx, refreshToken)
}

func (s *AuthServiceImpl) generateAccessToken(acct *staffAccount) (string, error) {
	now := time.Now()
	claims := types.Claims{
		UserID: acct.ID,
		Email:  acct.Email,
		Role:   acct.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   acct.ID,
			Issuer:    s.jwtCfg.Issuer,
			Audience:  jwt.ClaimStrings{s.jwtCfg.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.jwtCfg.AccessTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtCfg.SecretKey))
}
