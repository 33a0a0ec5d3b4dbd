package db

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/websimple-ai/websimple-backend/internal/application/consts"
)

type SlugReservation struct {
	Slug             string          `db:"slug"`
	Email            *string         `db:"email"`
	SessionID        *string         `db:"session_id"`
	TemplateID       *string         `db:"template_id"`
	IntakeData       json.RawMessage `db:"intake_data"`
	GeneratedContent json.RawMessage `db:"generated_content"`
	Converted        bool            `db:"converted"`
	ExpiresAt        time.Time       `db:"expires_at"`
	CreatedAt        time.Time       `db:"created_at"`
}

type Customer struct {
	ID               uuid.UUID `db:"id"`
	Email            string    `db:"email"`
	StripeCustomerID string    `db:"stripe_customer_id"`
	CreatedAt        time.Time `db:"created_at"`
}

type Site struct {
	ID                   uint64            `db:"id"`
	CustomerID           uuid.UUID         `db:"customer_id"`
	Slug                 string            `db:"slug"`
	TemplateID           string            `db:"template_id"`
	GeneratedContent     json.RawMessage   `db:"generated_content"`
	StripeSubscriptionID *string           `db:"stripe_subscription_id"`
	CloudflareProject    *string           `db:"cloudflare_project"`
	Status               consts.SiteStatus `db:"status"`
	DeployedAt           *time.Time        `db:"deployed_at"`
	SuspendedAt          *time.Time        `db:"suspended_at"`
	CreatedAt            time.Time         `db:"created_at"`
}

type PaymentEvent struct {
	StripeEventID string          `db:"stripe_event_id"`
	EventType     string          `db:"event_type"`
	Payload       json.RawMessage `db:"payload"`
	Processed     bool            `db:"processed"`
	CustomerID    *uuid.UUID      `db:"customer_id"`
	SiteID        *uint64         `db:"site_id"`
	CreatedAt     time.Time       `db:"created_at"`
}

type DeployJob struct {
	ID           uint64           `db:"id"`
	SiteID       uint64           `db:"site_id"`
	Status       consts.JobStatus `db:"status"`
	Attempts     int              `db:"attempts"`
	StartedAt    *time.Time       `db:"started_at"`
	CompletedAt  *time.Time       `db:"completed_at"`
	ErrorMessage *string          `db:"error_message"`
	CreatedAt    time.Time        `db:"created_at"`
}
