package payment

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/websimple-ai/websimple-backend/internal/application/dto"
	"github.com/websimple-ai/websimple-backend/internal/application/errs"
	"github.com/websimple-ai/websimple-backend/internal/infra/db/repo"
)

type Checkout struct {
	cfg          *PaymentConfig
	reservations *repo.ReservationRepo
}

func NewCheckout(cfg *PaymentConfig, pool *pgxpool.Pool) *Checkout {
	stripe.Key = cfg.apiKey
	stripe.SetHTTPClient(&http.Client{Timeout: 10 * time.Second})
	return &Checkout{
		cfg:          cfg,
		reservations: repo.NewReservationRepo(pool),
	}
}

// Execute stashes the intake payload on the reservation and opens a Stripe
// subscription checkout. The slug rides along in session metadata so the
// webhook can find the reservation when payment lands.
func (c *Checkout) Execute(ctx context.Context, req *dto.CreateCheckoutRequest) (string, error) {
	if req.Slug == "" || req.Email == "" {
		return "", errs.ValidationError{Msg: "missing required fields: slug, email"}
	}

	var templateID *string
	if req.TemplateID != "" {
		templateID = &req.TemplateID
	}
	// the webhook converts by slug; without a reservation the payment
	// could never be fulfilled, so refuse before Stripe is involved
	updated, err := c.reservations.Update(ctx, req.Slug, templateID, req.Intake, req.Content)
	if err != nil {
		return "", fmt.Errorf("can't persist intake before checkout, %v", err)
	}
	if updated == nil {
		return "", errs.ValidationError{Msg: "no reservation found for slug"}
	}

	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Mode:               stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		CustomerEmail:      stripe.String(req.Email),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(c.cfg.priceID),
				Quantity: stripe.Int64(1),
			},
		},
		Metadata: map[string]string{
			"slug":       req.Slug,
			"templateId": req.TemplateID,
		},
		SuccessURL: stripe.String(c.cfg.clientURL + "/success.html?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:  stripe.String(c.cfg.clientURL + "/building.html?canceled=true"),
	}

	slog.Info("Creating a checkout session", "slug", req.Slug)
	s, err := session.New(params)
	if err != nil {
		return "", fmt.Errorf("error creating session: %v", err)
	}

	return s.URL, nil
}

type VerifySession struct{}

func NewVerifySession(cfg *PaymentConfig) *VerifySession {
	stripe.Key = cfg.apiKey
	return &VerifySession{}
}

func (c *VerifySession) Execute(ctx context.Context, sessionID string) (*dto.VerifySessionResponse, error) {
	params := &stripe.CheckoutSessionParams{}
	params.AddExpand("subscription")
	s, err := session.Get(sessionID, params)
	if err != nil {
		return nil, fmt.Errorf("error getting session info, %v", err)
	}

	if s.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
		return &dto.VerifySessionResponse{Success: false, Status: string(s.PaymentStatus)}, nil
	}

	resp := &dto.VerifySessionResponse{
		Success: true,
		Email:   s.CustomerEmail,
		Slug:    s.Metadata["slug"],
	}
	if s.Subscription != nil {
		resp.SubscriptionID = s.Subscription.ID
	}
	return resp, nil
}
