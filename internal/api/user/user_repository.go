package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/gritfit/gritfit-api/internal/types"
)

var _ UserRepo = (*PostgresUserRepo)(nil)

// UserRepo defines the contract for user data persistence.
type UserRepo interface {
	// UpsertByClerkID mirrors an identity-provider account, keyed on the
	// external subject ID so webhook redelivery updates in place.
	UpsertByClerkID(ctx context.Context, params types.SyncUserParams) (*types.User, error)

	// GetByID retrieves a user by local ID. Returns types.ErrNotFound when missing.
	GetByID(ctx context.Context, userID uuid.UUID) (*types.User, error)

	// GetByClerkID retrieves a user by external subject ID.
	GetByClerkID(ctx context.Context, clerkID string) (*types.User, error)

	// List returns all users, newest first.
	List(ctx context.Context) ([]types.User, error)

	// UpdateRole changes a user's role. Admin-gated at the route level.
	UpdateRole(ctx context.Context, userID uuid.UUID, role types.UserRole) error
}

type PostgresUserRepo struct {
	logger *slog.Logger
	pgpool *pgxpool.Pool
}

func NewPostgresUserRepo(pgxpool *pgxpool.Pool, logger *slog.Logger) *PostgresUserRepo {
	return &PostgresUserRepo{
		logger: logger,
		pgpool: pgxpool,
	}
}

const userColumns = `id, clerk_id, email, name, image_url, role, created_at, updated_at`

func scanUser(row pgx.Row) (*types.User, error) {
	var u types.User
	err := row.Scan(&u.ID, &u.ClerkID, &u.Email, &u.Name, &u.ImageURL, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("scanning user: %w", err)
	}
	return &u, nil
}

func (r *PostgresUserRepo) UpsertByClerkID(ctx context.Context, params types.SyncUserParams) (*types.User, error) {
	ctx, span := otel.Tracer("UserRepo").Start(ctx, "UpsertByClerkID", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.sql.table", "users"),
	))
	defer span.End()

	query := `
		INSERT INTO users (clerk_id, email, name, image_url)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (clerk_id) DO UPDATE
		SET email = EXCLUDED.email,
		    name = EXCLUDED.name,
		    image_url = EXCLUDED.image_url,
		    updated_at = now()
		RETURNING ` + userColumns

	row := r.pgpool.QueryRow(ctx, query, params.ClerkID, params.Email, params.Name, params.ImageURL)
	u, err := scanUser(row)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("upserting user by clerk id: %w", err)
	}
	return u, nil
}

func (r *PostgresUserRepo) GetByID(ctx context.Context, userID uuid.UUID) (*types.User, error) {
	row := r.pgpool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, userID)
	return scanUser(row)
}

func (r *PostgresUserRepo) GetByClerkID(ctx context.Context, clerkID string) (*types.User, error) {
	row := r.pgpool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE clerk_id = $1`, clerkID)
	return scanUser(row)
}

func (r *PostgresUserRepo) List(ctx context.Context) ([]types.User, error) {
	rows, err := r.pgpool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var users []types.User
	for rows.Next() {
		var u types.User
		if err := rows.Scan(&u.ID, &u.ClerkID, &u.Email, &u.Name, &u.ImageURL, &u.Role, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning user row: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *PostgresUserRepo) UpdateRole(ctx context.Context, userID uuid.UUID, role types.UserRole) error {
	tag, err := r.pgpool.Exec(ctx,
		`UPDATE users SET role = $1, updated_at = now() WHERE id = $2`,
		role, userID)
	if err != nil {
		return fmt.Errorf("updating user role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrNotFound
	}
	return nil
}
