package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/websimple-ai/websimple-backend/internal/infra/db"
)

type CustomerRepo struct {
	q Querier
}

func NewCustomerRepo(q Querier) *CustomerRepo {
	return &CustomerRepo{q: q}
}

// Upsert creates the customer or refreshes the Stripe reference for a
// returning email.
func (c *CustomerRepo) Upsert(ctx context.Context, email, stripeCustomerID string) (*db.Customer, error) {
	query := `INSERT INTO websimple.customers (id, email, stripe_customer_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (email) DO UPDATE SET stripe_customer_id = EXCLUDED.stripe_customer_id
		RETURNING ` + customerColumns
	return c.scanOne(c.q.QueryRow(ctx, query, uuid.New(), strings.ToLower(email), stripeCustomerID))
}

func (c *CustomerRepo) GetByEmail(ctx context.Context, email string) (*db.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM websimple.customers WHERE email = $1`
	return c.scanOne(c.q.QueryRow(ctx, query, strings.ToLower(email)))
}

func (c *CustomerRepo) GetByStripeID(ctx context.Context, stripeCustomerID string) (*db.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM websimple.customers WHERE stripe_customer_id = $1`
	return c.scanOne(c.q.QueryRow(ctx, query, stripeCustomerID))
}

const customerColumns = `id, email, stripe_customer_id, created_at`

func (c *CustomerRepo) scanOne(row pgx.Row) (*db.Customer, error) {
	var customer db.Customer
	err := row.Scan(&customer.ID, &customer.Email, &customer.StripeCustomerID, &customer.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("can't read customer, %v", err)
	}
	return &customer, nil
}
