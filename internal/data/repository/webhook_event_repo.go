package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wedding-booking/internal/data/entity"
	"wedding-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type webhookEventRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewWebhookEventRepository(db database.PgxIface, log *zap.Logger) WebhookEventRepository {
	return &webhookEventRepository{
		db:  db,
		log: log.With(zap.String("repository", "webhook_event")),
	}
}

const webhookEventColumns = `
	id, tenant_id, external_event_id, event_type, payload_summary, status,
	last_error, attempts, processed_at, created_at, updated_at`

func scanWebhookEvent(row pgx.Row, extra ...any) (*entity.WebhookEvent, error) {
	var event entity.WebhookEvent
	dest := []any{
		&event.ID,
		&event.TenantID,
		&event.ExternalEventID,
		&event.EventType,
		&event.PayloadSummary,
		&event.Status,
		&event.LastError,
		&event.Attempts,
		&event.ProcessedAt,
		&event.CreatedAt,
		&event.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return &event, nil
}

// Record relies on the (tenant_id, external_event_id) unique index; two concurrent
// deliveries of one event serialize on it and exactly one sees inserted = true.
// A redelivery only bumps attempts: updated_at is the lease of the attempt in flight.
func (r *webhookEventRepository) Record(ctx context.Context, event *entity.WebhookEvent) (*entity.WebhookEvent, bool, error) {
	query := `
		INSERT INTO webhook_events (id, tenant_id, external_event_id, event_type, payload_summary,
		                            status, attempts, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, 1, $7, $7)
		ON CONFLICT (tenant_id, external_event_id)
		DO UPDATE SET attempts = webhook_events.attempts + 1
		RETURNING ` + webhookEventColumns + `, (xmax = 0) AS inserted
	`

	var inserted bool
	stored, err := scanWebhookEvent(r.db.QueryRow(ctx, query,
		event.ID,
		event.TenantID,
		event.ExternalEventID,
		event.EventType,
		event.PayloadSummary,
		entity.WebhookEventStatusPending,
		event.CreatedAt,
	), &inserted)
	if err != nil {
		r.log.Error("Failed to record webhook event",
			zap.Error(err),
			zap.String("tenant_id", event.TenantID.String()),
			zap.String("external_event_id", event.ExternalEventID),
		)
		return nil, false, fmt.Errorf("record webhook event %s: %w", event.ExternalEventID, err)
	}

	return stored, inserted, nil
}

func (r *webhookEventRepository) FindByExternalID(ctx context.Context, tenantID uuid.UUID, externalEventID string) (*entity.WebhookEvent, error) {
	query := `SELECT ` + webhookEventColumns + ` FROM webhook_events WHERE tenant_id = $1 AND external_event_id = $2`

	event, err := scanWebhookEvent(r.db.QueryRow(ctx, query, tenantID, externalEventID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find webhook event",
			zap.Error(err),
			zap.String("external_event_id", externalEventID),
		)
		return nil, fmt.Errorf("find webhook event %s: %w", externalEventID, err)
	}
	return event, nil
}

// ClaimRetry is one conditional UPDATE, so concurrent redeliveries cannot both
// claim: the loser re-evaluates against the refreshed updated_at and matches nothing.
func (r *webhookEventRepository) ClaimRetry(ctx context.Context, tenantID uuid.UUID, externalEventID string, staleAfter time.Duration) (bool, error) {
	query := `
		UPDATE webhook_events
		SET status = $3, last_error = NULL, updated_at = NOW()
		WHERE tenant_id = $1 AND external_event_id = $2
		  AND ((status = $4 AND last_error = ANY($5))
		    OR (status = $3 AND updated_at < NOW() - make_interval(secs => $6)))
	`

	retryable := make([]string, 0, 2)
	for _, c := range entity.RetryableCategories() {
		retryable = append(retryable, string(c))
	}

	result, err := r.db.Exec(ctx, query, tenantID, externalEventID,
		entity.WebhookEventStatusPending, entity.WebhookEventStatusFailed, retryable, staleAfter.Seconds())
	if err != nil {
		r.log.Error("Failed to claim webhook event retry",
			zap.Error(err),
			zap.String("external_event_id", externalEventID),
		)
		return false, fmt.Errorf("claim retry of webhook event %s: %w", externalEventID, err)
	}
	return result.RowsAffected() == 1, nil
}

func (r *webhookEventRepository) MarkProcessed(ctx context.Context, tenantID uuid.UUID, externalEventID string) error {
	if err := markEventProcessed(ctx, r.db, tenantID, externalEventID); err != nil {
		r.log.Error("Failed to mark webhook event processed",
			zap.Error(err),
			zap.String("external_event_id", externalEventID),
		)
		return err
	}
	return nil
}

func markEventProcessed(ctx context.Context, q database.Querier, tenantID uuid.UUID, externalEventID string) error {
	query := `
		UPDATE webhook_events
		SET status = $3, last_error = NULL, processed_at = NOW(), updated_at = NOW()
		WHERE tenant_id = $1 AND external_event_id = $2
	`

	result, err := q.Exec(ctx, query, tenantID, externalEventID, entity.WebhookEventStatusProcessed)
	if err != nil {
		return fmt.Errorf("mark webhook event %s processed: %w", externalEventID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("webhook event %s not found", externalEventID)
	}
	return nil
}

func (r *webhookEventRepository) MarkFailed(ctx context.Context, tenantID uuid.UUID, externalEventID string, category entity.ErrorCategory) error {
	if !category.Valid() {
		return fmt.Errorf("refusing to persist non-abstract error category")
	}

	query := `
		UPDATE webhook_events
		SET status = $3, last_error = $4, updated_at = NOW()
		WHERE tenant_id = $1 AND external_event_id = $2
	`

	result, err := r.db.Exec(ctx, query, tenantID, externalEventID, entity.WebhookEventStatusFailed, category)
	if err != nil {
		r.log.Error("Failed to mark webhook event failed",
			zap.Error(err),
			zap.String("external_event_id", externalEventID),
			zap.String("category", string(category)),
		)
		return fmt.Errorf("mark webhook event %s failed: %w", externalEventID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("webhook event %s not found", externalEventID)
	}
	return nil
}

func (r *webhookEventRepository) List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*entity.WebhookEvent, error) {
	query := `SELECT ` + webhookEventColumns + `
		FROM webhook_events
		WHERE tenant_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.Query(ctx, query, tenantID, limit, offset)
	if err != nil {
		r.log.Error("Failed to list webhook events", zap.Error(err), zap.String("tenant_id", tenantID.String()))
		return nil, fmt.Errorf("list webhook events of tenant %s: %w", tenantID, err)
	}
	defer rows.Close()

	var events []*entity.WebhookEvent
	for rows.Next() {
		event, err := scanWebhookEvent(rows)
		if err != nil {
			r.log.Error("Failed to scan webhook event row", zap.Error(err))
			return nil, fmt.Errorf("scan webhook event row: %w", err)
		}
		events = append(events, event)
	}

	return events, rows.Err()
}

func (r *webhookEventRepository) Count(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM webhook_events WHERE tenant_id = $1`, tenantID).Scan(&count)
	if err != nil {
		r.log.Error("Failed to count webhook events", zap.Error(err), zap.String("tenant_id", tenantID.String()))
		return 0, fmt.Errorf("count webhook events of tenant %s: %w", tenantID, err)
	}
	return count, nil
}
