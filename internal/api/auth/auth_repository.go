package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gritfit/gritfit-api/internal/types"
)

var _ AuthRepo = (*PostgresAuthRepo)(nil)

// staffAccount is the subset of a user row needed for password login.
type staffAccount struct {
	ID           string
	Email        string
	Role         string
	PasswordHash string
}

// AuthRepo defines the contract for staff credential persistence.
type AuthRepo interface {
	GetStaffByEmail(ctx context.Context, email string) (*staffAccount, error)
	StoreRefreshToken(ctx context.Context, userID, token string, expiresAt time.Time) error
	ValidateRefreshTokenAndGetUserID(ctx context.Context, refreshToken string) (string, error)
	InvalidateRefreshToken(ctx context.Context, refreshToken string) error
	InvalidateAllUserRefreshTokens(ctx context.Context, userID string) error
	GetStaffByID(ctx context.Context, userID string) (*staffAccount, error)
}

type PostgresAuthRepo struct {
	logger *slog.Logger
	pgpool *pgxpool.Pool
}

func NewPostgresAuthRepo(pgxpool *pgxpool.Pool, logger *slog.Logger) *PostgresAuthRepo {
	return &PostgresAuthRepo{
		logger: logger,
		pgpool: pgxpool,
	}
}

func (r *PostgresAuthRepo) GetStaffByEmail(ctx context.Context, email string) (*staffAccount, error) {
	var acct staffAccount
	err := r.pgpool.QueryRow(ctx, `
		SELECT id, email, role, COALESCE(password_hash, '')
		FROM users
		WHERE email = $1 AND role IN ('admin', 'trainer')`,
		email).Scan(&acct.ID, &acct.Email, &acct.Role, &acct.PasswordHash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("fetching staff account: %w", err)
	}
	return &acct, nil
}

func (r *PostgresAuthRepo) GetStaffByID(ctx context.Context, userID string) (*staffAccount, error) {
	var acct staffAccount
	err := r.pgpool.QueryRow(ctx, `
		SELECT id, email, role, COALESCE(password_hash, '')
		FROM users
		WHERE id = $1 AND role IN ('admin', 'trainer')`,
		userID).Scan(&acct.ID, &acct.Email, &acct.Role, &acct.PasswordHash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("fetching staff account: %w", err)
	}
	return &acct, nil
}

func (r *PostgresAuthRepo) StoreRefreshToken(ctx context.Context, userID, token string, expiresAt time.Time) error {
	_, err := r.pgpool.Exec(ctx,
		`INSERT INTO refresh_tokens (user_id, token, expires_at) VALUES ($1, $2, $3)`,
		userID, token, expiresAt)
	if err != nil {
		return fmt.Errorf("storing refresh token: %w", err)
	}
	return nil
}

func (r *PostgresAuthRepo) ValidateRefreshTokenAndGetUserID(ctx context.Context, refreshToken string) (string, error) {
	var userID string
	err := r.pgpool.QueryRow(ctx, `
		SELECT user_id FROM refresh_tokens
		WHERE token = $1 AND revoked_at IS NULL AND expires_at > now()`,
		refreshToken).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", types.ErrUnauthenticated
		}
		return "", fmt.Errorf("validating refresh token: %w", err)
	}
	return userID, nil
}

func (r *PostgresAuthRepo) InvalidateRefreshToken(ctx context.Context, refreshToken string) error {
	_, err := r.pgpool.Exec(ctx,
		`UPDATE refresh_tokens SET revoked_at = now() WHERE token = $1 AND revoked_at IS NULL`,
		refreshToken)
	if err != nil {
		return fmt.Errorf("invalidating refresh token: %w", err)
	}
	return nil
}

func (r *PostgresAuthRepo) InvalidateAllUserRefreshTokens(ctx context.Context, userID string) error {
	_, err := r.pgpool.Exec(ctx,
		`UPDATE refresh_tokens SET revoked_at = now() WHERE user_id = $1 AND revoked_at IS NULL`,
		userID)
	if err != nil {
		return fmt.Errorf("invalidating refresh tokens: %w", err)
	}
	return nil
}
