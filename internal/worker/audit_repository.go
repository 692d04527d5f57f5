package worker

import (
	"context"
	"database/sql"
	"time"
	"user_api/internal/observability"
	"user_api/internal/user"
	"user_api/internal/utils"
)

type AuditRepositoryInterface interface {
	Record(ctx context.Context, event *user.UserEvent) error
}

type AuditRepository struct {
	db      *sql.DB
	metrics *observability.Metrics
}

func NewAuditRepository(db *sql.DB, metrics *observability.Metrics) AuditRepositoryInterface {
	return &AuditRepository{db: db, metrics: metrics}
}

// Record inserts event into user_audit. A redelivered event is a no-op.
func (r *AuditRepository) Record(ctx context.Context, event *user.UserEvent) error {
	if r.metrics != nil {
		defer func(start time.Time) {
			r.metrics.DBQueryDuration.WithLabelValues("INSERT").Observe(time.Since(start).Seconds())
		}(time.Now())
	}

	query := `
		INSERT INTO user_audit (event_id, user_id, event_type, occurred_at, recorded_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (event_id) DO NOTHING
	`

	return utils.WithTransaction(ctx, r.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, query,
			event.ID,
			event.UserID,
			string(event.Type),
			event.OccurredAt,
		)
		return err
	})
}
