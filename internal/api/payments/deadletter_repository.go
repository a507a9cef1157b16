package payments

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gritfit/gritfit-api/internal/types"
)

var _ DeadLetterRepo = (*PostgresDeadLetterRepo)(nil)

// DeadLetterRepo stores webhook events whose handler failed, so they can be
// inspected and replayed instead of silently lost.
type DeadLetterRepo interface {
	Record(ctx context.Context, eventID, eventType string, payload []byte, handlerErr string) error
	List(ctx context.Context, limit int) ([]types.WebhookDeadLetter, error)
}

type PostgresDeadLetterRepo struct {
	logger *slog.Logger
	pgpool *pgxpool.Pool
}

func NewPostgresDeadLetterRepo(pgxpool *pgxpool.Pool, logger *slog.Logger) *PostgresDeadLetterRepo {
	return &PostgresDeadLetterRepo{
		logger: logger,
		pgpool: pgxpool,
	}
}

func (r *PostgresDeadLetterRepo) Record(ctx context.Context, eventID, eventType string, payload []byte, handlerErr string) error {
	_, err := r.pgpool.Exec(ctx, `
		INSERT INTO webhook_dead_letters (event_id, event_type, payload, error)
		VALUES ($1, $2, $3, $4)`,
		eventID, eventType, payload, handlerErr)
	if err != nil {
		return fmt.Errorf("recording dead letter: %w", err)
	}
	return nil
}

func (r *PostgresDeadLetterRepo) List(ctx context.Context, limit int) ([]types.WebhookDeadLetter, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pgpool.Query(ctx, `
		SELECT id, event_id, event_type, payload, error, created_at
		FROM webhook_dead_letters ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing dead letters: %w", err)
	}
	defer rows.Close()

	var letters []types.WebhookDeadLetter
	for rows.Next() {
		var dl types.WebhookDeadLetter
		if err := rows.Scan(&dl.ID, &dl.EventID, &dl.EventType, &dl.Payload, &dl.Error, &dl.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning dead letter: %w", err)
		}
		letters = append(letters, dl)
	}
	return letters, rows.Err()
}
