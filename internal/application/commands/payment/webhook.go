package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
	"github.com/websimple-ai/websimple-backend/internal/application/consts"
	"github.com/websimple-ai/websimple-backend/internal/infra/db/repo"
	dbs "github.com/websimple-ai/websimple-backend/pkg/db"
)

type Webhook struct {
	uowFactory *dbs.UOWFactory
	cfg        *PaymentConfig
}

func NewWebhook(uowFactory *dbs.UOWFactory, cfg *PaymentConfig) *Webhook {
	stripe.Key = cfg.apiKey
	return &Webhook{
		uowFactory: uowFactory,
		cfg:        cfg,
	}
}

// Execute verifies the signature, records the event in the ledger and acts
// on it. Stripe delivers at least once; the ledger's insert-if-absent plus
// the processed check ahead of any side effect keeps external effects
// at-most-once per event.
func (c *Webhook) Execute(ctx context.Context, payload []byte, stripeHeader string) error {
	event, err := webhook.ConstructEvent(payload, stripeHeader, c.cfg.webhookKey)
	if err != nil {
		return fmt.Errorf("webhook signature verification failed, %v", err)
	}

	events := repo.NewPaymentEventRepo(c.uowFactory.Pool)
	if _, err := events.Record(ctx, event.ID, string(event.Type), json.RawMessage(event.Data.Raw)); err != nil {
		return fmt.Errorf("can't record event, %v", err)
	}
	processed, err := events.IsProcessed(ctx, event.ID)
	if err != nil {
		return err
	}
	if processed {
		slog.Info("Skipping already processed event", "id", event.ID, "type", event.Type)
		return nil
	}

	slog.Info("Handling Stripe event", "id", event.ID, "type", event.Type)

	switch consts.EventType(event.Type) {
	case consts.EventCheckoutCompleted:
		return c.handleCheckoutCompleted(ctx, event)
	case consts.EventPaymentSucceeded:
		return c.handleInvoiceEvent(ctx, event, true)
	case consts.EventPaymentFailed:
		return c.handleInvoiceEvent(ctx, event, false)
	case consts.EventSubscriptionDeleted:
		return c.handleSubscriptionDeleted(ctx, event)
	default:
		slog.Info("Unhandled event type", "type", event.Type)
		_, err := events.MarkProcessed(ctx, event.ID, nil, nil)
		return err
	}
}

// handleCheckoutCompleted converts the reservation into a paid site and
// queues its first deploy. Runs in one transaction so a crash mid-way
// leaves the event unprocessed and the whole step retries on redelivery.
func (c *Webhook) handleCheckoutCompleted(ctx context.Context, event stripe.Event) (err error) {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return fmt.Errorf("error parsing checkout session, %v", err)
	}

	slug := session.Metadata["slug"]
	if slug == "" {
		return fmt.Errorf("no slug in session metadata for event %s", event.ID)
	}
	email := session.CustomerEmail
	if email == "" && session.CustomerDetails != nil {
		email = session.CustomerDetails.Email
	}
	if email == "" {
		return fmt.Errorf("no customer email in session for event %s", event.ID)
	}

	uow := c.uowFactory.GetUoW()
	tx, err := uow.Begin()
	if err != nil {
		return err
	}
	defer uow.Finalize(&err)

	reservations := repo.NewReservationRepo(tx)
	customers := repo.NewCustomerRepo(tx)
	sites := repo.NewSiteRepo(tx)
	queue := repo.NewDeployQueueRepo(tx)
	events := repo.NewPaymentEventRepo(tx)

	reservation, err := reservations.Get(ctx, slug)
	if err != nil {
		return err
	}
	if reservation == nil {
		return fmt.Errorf("no reservation found for slug %s", slug)
	}
	if _, err = reservations.Convert(ctx, slug); err != nil {
		return err
	}

	var stripeCustomerID string
	if session.Customer != nil {
		stripeCustomerID = session.Customer.ID
	}
	customer, err := customers.Upsert(ctx, email, stripeCustomerID)
	if err != nil {
		return err
	}

	templateID := "starter"
	if reservation.TemplateID != nil {
		templateID = *reservation.TemplateID
	}
	var subscriptionID *string
	if session.Subscription != nil {
		subscriptionID = &session.Subscription.ID
	}
	site, err := sites.Insert(ctx, customer.ID, slug, templateID, reservation.GeneratedContent, subscriptionID)
	if err != nil {
		return err
	}

	job, err := queue.Enqueue(ctx, site.ID)
	if err != nil {
		return err
	}

	if _, err = events.MarkProcessed(ctx, event.ID, &customer.ID, &site.ID); err != nil {
		return err
	}

	slog.Info("Checkout completed", "slug", slug, "site", site.ID, "job", job.ID)
	return nil
}

func (c *Webhook) handleInvoiceEvent(ctx context.Context, event stripe.Event, succeeded bool) error {
	subscriptionID := invoiceSubscriptionID(event.Data.Raw)

	sites := repo.NewSiteRepo(c.uowFactory.Pool)
	events := repo.NewPaymentEventRepo(c.uowFactory.Pool)

	var siteID *uint64
	if subscriptionID != "" {
		site, err := sites.GetBySubscriptionID(ctx, subscriptionID)
		if err != nil {
			return err
		}
		if site != nil {
			siteID = &site.ID
			if succeeded && site.Status == consts.SiteStatusSuspended {
				if _, err := sites.Activate(ctx, site.ID); err != nil {
					return err
				}
				slog.Info("Site reactivated after payment", "site", site.ID)
			}
		}
	}

	_, err := events.MarkProcessed(ctx, event.ID, nil, siteID)
	return err
}

func (c *Webhook) handleSubscriptionDeleted(ctx context.Context, event stripe.Event) error {
	var subscription stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &subscription); err != nil {
		return fmt.Errorf("error parsing subscription, %v", err)
	}

	sites := repo.NewSiteRepo(c.uowFactory.Pool)
	events := repo.NewPaymentEventRepo(c.uowFactory.Pool)

	var siteID *uint64
	site, err := sites.GetBySubscriptionID(ctx, subscription.ID)
	if err != nil {
		return err
	}
	if site != nil {
		siteID = &site.ID
		if _, err := sites.Suspend(ctx, site.ID); err != nil {
			return err
		}
		slog.Info("Site suspended, subscription cancelled", "site", site.ID, "subscription", subscription.ID)
	}

	_, err = events.MarkProcessed(ctx, event.ID, nil, siteID)
	return err
}

// invoiceSubscriptionID digs the subscription reference out of an invoice
// payload; its location moved between Stripe API versions.
func invoiceSubscriptionID(raw json.RawMessage) string {
	var invoice struct {
		Subscription string `json:"subscription"`
		Parent       struct {
			SubscriptionDetails struct {
				Subscription string `json:"subscription"`
			} `json:"subscription_details"`
		} `json:"parent"`
	}
	if err := json.Unmarshal(raw, &invoice); err != nil {
		slog.Error("error parsing invoice", "err", err)
		return ""
	}
	if invoice.Subscription != "" {
		return invoice.Subscription
	}
	return invoice.Parent.SubscriptionDetails.Subscription
}
