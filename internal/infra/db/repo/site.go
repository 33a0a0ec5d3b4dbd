package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/websimple-ai/websimple-backend/internal/application/consts"
	"github.com/websimple-ai/websimple-backend/internal/infra/db"
)

type SiteRepo struct {
	q Querier
}

func NewSiteRepo(q Querier) *SiteRepo {
	return &SiteRepo{q: q}
}

func (s *SiteRepo) Insert(ctx context.Context, customerID uuid.UUID, slug, templateID string, content json.RawMessage, subscriptionID *string) (*db.Site, error) {
	query := `INSERT INTO websimple.sites (customer_id, slug, template_id, generated_content, stripe_subscription_id, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + siteColumns
	return s.scanOne(s.q.QueryRow(ctx, query, customerID, slug, templateID, content, subscriptionID, consts.SiteStatusActive))
}

func (s *SiteRepo) GetByID(ctx context.Context, id uint64) (*db.Site, error) {
	query := `SELECT ` + siteColumns + ` FROM websimple.sites WHERE id = $1`
	return s.scanOne(s.q.QueryRow(ctx, query, id))
}

func (s *SiteRepo) GetBySlug(ctx context.Context, slug string) (*db.Site, error) {
	query := `SELECT ` + siteColumns + ` FROM websimple.sites WHERE slug = $1`
	return s.scanOne(s.q.QueryRow(ctx, query, slug))
}

func (s *SiteRepo) GetBySubscriptionID(ctx context.Context, subscriptionID string) (*db.Site, error) {
	query := `SELECT ` + siteColumns + ` FROM websimple.sites WHERE stripe_subscription_id = $1`
	return s.scanOne(s.q.QueryRow(ctx, query, subscriptionID))
}

func (s *SiteRepo) GetByCustomer(ctx context.Context, customerID uuid.UUID) ([]db.Site, error) {
	query := `SELECT ` + siteColumns + ` FROM websimple.sites WHERE customer_id = $1 ORDER BY created_at DESC`
	rows, err := s.q.Query(ctx, query, customerID)
	if err != nil {
		return nil, fmt.Errorf("can't list sites, %v", err)
	}
	defer rows.Close()
	return s.scanAll(rows)
}

// Suspend transitions active -> suspended and stamps suspended_at. A site
// already suspended is left untouched.
func (s *SiteRepo) Suspend(ctx context.Context, id uint64) (*db.Site, error) {
	query := `UPDATE websimple.sites
		SET status = $2, suspended_at = now()
		WHERE id = $1 AND status = $3
		RETURNING ` + siteColumns
	return s.scanOne(s.q.QueryRow(ctx, query, id, consts.SiteStatusSuspended, consts.SiteStatusActive))
}

// Activate clears suspended_at and stamps deployed_at if it was never set.
func (s *SiteRepo) Activate(ctx context.Context, id uint64) (*db.Site, error) {
	query := `UPDATE websimple.sites
		SET status = $2, suspended_at = NULL, deployed_at = COALESCE(deployed_at, now())
		WHERE id = $1
		RETURNING ` + siteColumns
	return s.scanOne(s.q.QueryRow(ctx, query, id, consts.SiteStatusActive))
}

// SetProject records the hosting-provider project after a deploy.
func (s *SiteRepo) SetProject(ctx context.Context, id uint64, project string) (*db.Site, error) {
	query := `UPDATE websimple.sites
		SET cloudflare_project = $2, deployed_at = now()
		WHERE id = $1
		RETURNING ` + siteColumns
	return s.scanOne(s.q.QueryRow(ctx, query, id, project))
}

func (s *SiteRepo) SetContent(ctx context.Context, id uint64, content json.RawMessage) (*db.Site, error) {
	query := `UPDATE websimple.sites
		SET generated_content = $2
		WHERE id = $1
		RETURNING ` + siteColumns
	return s.scanOne(s.q.QueryRow(ctx, query, id, content))
}

// SitesForSuspension returns active sites whose newest failed-payment event
// is older than the grace period with no later successful payment.
func (s *SiteRepo) SitesForSuspension(ctx context.Context, gracePeriodDays int) ([]db.Site, error) {
	query := `SELECT ` + prefixedSiteColumns + ` FROM websimple.sites s
		JOIN websimple.payment_events pe ON pe.site_id = s.id
		WHERE s.status = $1
		AND pe.event_type = $2
		AND pe.created_at < now() - make_interval(days => $3)
		AND NOT EXISTS (
			SELECT 1 FROM websimple.payment_events pe2
			WHERE pe2.site_id = s.id
			AND pe2.event_type = $4
			AND pe2.created_at > pe.created_at
		)`
	rows, err := s.q.Query(ctx, query, consts.SiteStatusActive, consts.EventPaymentFailed,
		gracePeriodDays, consts.EventPaymentSucceeded)
	if err != nil {
		return nil, fmt.Errorf("can't query sites for suspension, %v", err)
	}
	defer rows.Close()
	return s.scanAll(rows)
}

const siteColumns = `id, customer_id, slug, template_id, generated_content, stripe_subscription_id, cloudflare_project, status, deployed_at, suspended_at, created_at`
const prefixedSiteColumns = `s.id, s.customer_id, s.slug, s.template_id, s.generated_content, s.stripe_subscription_id, s.cloudflare_project, s.status, s.deployed_at, s.suspended_at, s.created_at`

func (s *SiteRepo) scanOne(row pgx.Row) (*db.Site, error) {
	var site db.Site
	if err := scanSite(row, &site); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("can't read site, %v", err)
	}
	return &site, nil
}

func (s *SiteRepo) scanAll(rows pgx.Rows) ([]db.Site, error) {
	var sites []db.Site
	for rows.Next() {
		var site db.Site
		if err := scanSite(rows, &site); err != nil {
			return nil, fmt.Errorf("can't read site row, %v", err)
		}
		sites = append(sites, site)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error reading result set, %v", err)
	}
	return sites, nil
}

func scanSite(row pgx.Row, site *db.Site) error {
	return row.Scan(&site.ID, &site.CustomerID, &site.Slug, &site.TemplateID,
		&site.GeneratedContent, &site.StripeSubscriptionID, &site.CloudflareProject,
		&site.Status, &site.DeployedAt, &site.SuspendedAt, &site.CreatedAt)
}
