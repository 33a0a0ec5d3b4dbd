package deploy

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/websimple-ai/websimple-backend/internal/infra/db"
	"github.com/websimple-ai/websimple-backend/internal/infra/db/repo"
)

// RetryDeploys is the operator-triggered twin of the periodic retry sweep.
type RetryDeploys struct {
	queue *repo.DeployQueueRepo
}

func NewRetryDeploys(pool *pgxpool.Pool) *RetryDeploys {
	return &RetryDeploys{queue: repo.NewDeployQueueRepo(pool)}
}

func (c *RetryDeploys) Execute(ctx context.Context, maxAttempts int) ([]db.DeployJob, error) {
	return c.queue.RetryEligible(ctx, maxAttempts)
}

// ReleaseStale frees jobs stranded in processing by a crashed worker.
type ReleaseStale struct {
	queue *repo.DeployQueueRepo
}

func NewReleaseStale(pool *pgxpool.Pool) *ReleaseStale {
	return &ReleaseStale{queue: repo.NewDeployQueueRepo(pool)}
}

func (c *ReleaseStale) Execute(ctx context.Context, olderThanMinutes int) ([]db.DeployJob, error) {
	return c.queue.ReleaseStale(ctx, olderThanMinutes)
}
