package query

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/websimple-ai/websimple-backend/internal/application/commands/slug"
	"github.com/websimple-ai/websimple-backend/internal/application/dto"
	"github.com/websimple-ai/websimple-backend/internal/application/errs"
	"github.com/websimple-ai/websimple-backend/internal/infra/db/repo"
)

type SuggestSlugs struct {
	cfg          *slug.SlugConfig
	reservations *repo.ReservationRepo
}

func NewSuggestSlugs(cfg *slug.SlugConfig, pool *pgxpool.Pool) *SuggestSlugs {
	return &SuggestSlugs{
		cfg:          cfg,
		reservations: repo.NewReservationRepo(pool),
	}
}

// Query offers up to three free variations when the preferred name is taken.
func (q *SuggestSlugs) Query(ctx context.Context, name string) (*dto.SuggestSlugsResponse, error) {
	base := slug.Sanitize(name)
	if base == "" {
		return nil, errs.ValidationError{Msg: "invalid name provided"}
	}

	variations := []string{
		base,
		base + "-co",
		base + "-llc",
		"the-" + base,
		base + "-services",
		base + "-pro",
	}

	resp := &dto.SuggestSlugsResponse{
		Original:    base,
		Suggestions: []dto.SlugSuggestion{},
	}

	for i, variation := range variations {
		available, err := q.reservations.IsAvailable(ctx, variation)
		if err != nil {
			return nil, fmt.Errorf("can't check variation, %v", err)
		}
		if i == 0 {
			resp.OriginalAvailable = available
		}
		if available {
			resp.Suggestions = append(resp.Suggestions, dto.SlugSuggestion{
				Slug: variation,
				URL:  q.cfg.SiteURL(variation),
			})
		}
		if len(resp.Suggestions) >= 3 {
			break
		}
	}

	return resp, nil
}
