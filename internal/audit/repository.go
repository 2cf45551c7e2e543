// AngelaMos | 2026
// repository.go

package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/carterperez-dev/retail-backend/internal/core"
)

type Repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository that writes through tx, so an audit row can
// commit atomically with the change it describes.
func (r *Repository) WithTx(tx core.DBTX) *Repository {
	return &Repository{db: tx}
}

func (r *Repository) Insert(ctx context.Context, entry Entry) error {
	details, err := json.Marshal(entry.Details)
	if err != nil {
		return fmt.Errorf("encode audit details: %w", err)
	}

	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	query := `
		INSERT INTO audit_logs (user_id, company_id, endpoint, action, level, details, created_at)
		VALUES (NULLIF($1, ''), NULLIF($2, ''), $3, $4, $5, $6, $7)`

	if _, err := r.db.ExecContext(ctx, query,
		entry.UserID,
		entry.CompanyID,
		entry.Endpoint,
		entry.Action,
		string(entry.Level),
		string(details),
		createdAt,
	); err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}

	return nil
}
