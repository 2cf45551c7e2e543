// AngelaMos | 2026
// repository.go

package webhook

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx/types"

	"github.com/carterperez-dev/retail-backend/internal/core"
)

const providerPaystack = "paystack"

type Event struct {
	Key       string
	Type      string
	Reference string
	Payload   types.JSONText
}

type Repository interface {
	// Record stores the event. It reports false when the key was seen before.
	Record(ctx context.Context, e Event) (bool, error)
	// Finish stamps processed_at and the processing error, if any.
	Finish(ctx context.Context, key string, processingErr error) error
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Record(ctx context.Context, e Event) (bool, error) {
	query := `
		INSERT INTO webhook_events (provider, event_key, event_type, reference, payload)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5)
		ON CONFLICT (event_key) DO NOTHING
		RETURNING id`

	var id string
	err := r.db.GetContext(ctx, &id, query,
		providerPaystack, e.Key, e.Type, e.Reference, e.Payload)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("record webhook event: %w", err)
	}
	return true, nil
}

func (r *repository) Finish(ctx context.Context, key string, processingErr error) error {
	var message *string
	if processingErr != nil {
		m := processingErr.Error()
		message = &m
	}

	query := `
		UPDATE webhook_events
		SET processed_at = NOW(), processing_error = $2
		WHERE event_key = $1`

	if _, err := r.db.ExecContext(ctx, query, key, message); err != nil {
		return fmt.Errorf("finish webhook event: %w", err)
	}
	return nil
}
