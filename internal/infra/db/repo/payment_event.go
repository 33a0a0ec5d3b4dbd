package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/websimple-ai/websimple-backend/internal/infra/db"
)

type PaymentEventRepo struct {
	q Querier
}

func NewPaymentEventRepo(q Querier) *PaymentEventRepo {
	return &PaymentEventRepo{q: q}
}

// Record stores the event keyed by Stripe's event id. Duplicate deliveries
// hit the ON CONFLICT arm and the existing row comes back unchanged, which
// is what makes the webhook idempotent against at-least-once delivery.
func (p *PaymentEventRepo) Record(ctx context.Context, eventID, eventType string, payload json.RawMessage) (*db.PaymentEvent, error) {
	query := `INSERT INTO websimple.payment_events (stripe_event_id, event_type, payload)
		VALUES ($1, $2, $3)
		ON CONFLICT (stripe_event_id) DO NOTHING
		RETURNING ` + paymentEventColumns
	event, err := p.scanOne(p.q.QueryRow(ctx, query, eventID, eventType, payload))
	if err != nil {
		return nil, err
	}
	if event != nil {
		return event, nil
	}
	// conflict: the row already exists, return it as-is
	return p.Get(ctx, eventID)
}

func (p *PaymentEventRepo) Get(ctx context.Context, eventID string) (*db.PaymentEvent, error) {
	query := `SELECT ` + paymentEventColumns + ` FROM websimple.payment_events WHERE stripe_event_id = $1`
	return p.scanOne(p.q.QueryRow(ctx, query, eventID))
}

// MarkProcessed is safe to repeat; links are optional and only overwrite
// with non-nil values.
func (p *PaymentEventRepo) MarkProcessed(ctx context.Context, eventID string, customerID *uuid.UUID, siteID *uint64) (*db.PaymentEvent, error) {
	query := `UPDATE websimple.payment_events
		SET processed = TRUE,
			customer_id = COALESCE($2, customer_id),
			site_id = COALESCE($3, site_id)
		WHERE stripe_event_id = $1
		RETURNING ` + paymentEventColumns
	return p.scanOne(p.q.QueryRow(ctx, query, eventID, customerID, siteID))
}

func (p *PaymentEventRepo) IsProcessed(ctx context.Context, eventID string) (bool, error) {
	var processed bool
	query := `SELECT processed FROM websimple.payment_events WHERE stripe_event_id = $1`
	err := p.q.QueryRow(ctx, query, eventID).Scan(&processed)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("can't check event, %v", err)
	}
	return processed, nil
}

const paymentEventColumns = `stripe_event_id, event_type, payload, processed, customer_id, site_id, created_at`

func (p *PaymentEventRepo) scanOne(row pgx.Row) (*db.PaymentEvent, error) {
	var event db.PaymentEvent
	err := row.Scan(&event.StripeEventID, &event.EventType, &event.Payload,
		&event.Processed, &event.CustomerID, &event.SiteID, &event.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("can't read payment event, %v", err)
	}
	return &event, nil
}
