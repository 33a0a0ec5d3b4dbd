package slug

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/websimple-ai/websimple-backend/internal/application/dto"
	"github.com/websimple-ai/websimple-backend/internal/application/errs"
	"github.com/websimple-ai/websimple-backend/internal/infra/db/repo"
	"github.com/websimple-ai/websimple-backend/pkg/env"
)

type SlugConfig struct {
	BaseDomain string
}

func NewSlugConfig() *SlugConfig {
	return &SlugConfig{
		BaseDomain: env.GetEnv("BASE_DOMAIN", "llc-us.com"),
	}
}

func (c *SlugConfig) SiteURL(slug string) string {
	return fmt.Sprintf("%s.%s", slug, c.BaseDomain)
}

type CheckSlug struct {
	cfg          *SlugConfig
	reservations *repo.ReservationRepo
}

func NewCheckSlug(cfg *SlugConfig, pool *pgxpool.Pool) *CheckSlug {
	return &CheckSlug{
		cfg:          cfg,
		reservations: repo.NewReservationRepo(pool),
	}
}

// Execute checks availability and, when asked, reserves in the same call.
// Under concurrent reservers of one slug exactly one gets reserved=true.
func (c *CheckSlug) Execute(ctx context.Context, req *dto.CheckSlugRequest) (*dto.CheckSlugResponse, error) {
	normalized := Sanitize(req.Slug)
	if normalized == "" {
		return nil, errs.ValidationError{Msg: "invalid slug: must be 3-50 characters, letters, numbers, and hyphens only"}
	}

	available, err := c.reservations.IsAvailable(ctx, normalized)
	if err != nil {
		return nil, err
	}

	resp := &dto.CheckSlugResponse{
		Available: available,
		Slug:      normalized,
		URL:       c.cfg.SiteURL(normalized),
	}

	if available && req.Reserve {
		reserved, err := c.reservations.Reserve(ctx, normalized, optional(req.Email), optional(req.SessionID))
		if err != nil {
			return nil, err
		}
		resp.Reserved = reserved
		// a concurrent reserver may have won between check and reserve
		resp.Available = reserved
		if reserved {
			resp.ExpiresIn = "30 minutes"
		}
	}

	return resp, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
