package deploy

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/websimple-ai/websimple-backend/internal/application/errs"
	"github.com/websimple-ai/websimple-backend/internal/infra/db"
	"github.com/websimple-ai/websimple-backend/internal/infra/db/repo"
)

// EnqueueDeploy queues a publish for an existing site, the operator-facing
// redeploy path. The queue itself does not deduplicate, so this is the
// place to avoid piling up pending jobs for one site.
type EnqueueDeploy struct {
	sites *repo.SiteRepo
	queue *repo.DeployQueueRepo
}

func NewEnqueueDeploy(pool *pgxpool.Pool) *EnqueueDeploy {
	return &EnqueueDeploy{
		sites: repo.NewSiteRepo(pool),
		queue: repo.NewDeployQueueRepo(pool),
	}
}

func (c *EnqueueDeploy) Execute(ctx context.Context, slug string) (*db.DeployJob, error) {
	site, err := c.sites.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if site == nil {
		return nil, errs.ValidationError{Msg: "site not found"}
	}

	return c.queue.Enqueue(ctx, site.ID)
}
