package processors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/websimple-ai/websimple-backend/internal/application/errs"
	"github.com/websimple-ai/websimple-backend/internal/infra/compile"
	"github.com/websimple-ai/websimple-backend/internal/infra/db"
	"github.com/websimple-ai/websimple-backend/internal/infra/db/repo"
	"github.com/websimple-ai/websimple-backend/internal/infra/publish"
	"github.com/websimple-ai/websimple-backend/internal/infra/storage"
)

// DeploySite handles one claimed job: compile, publish, record outcome.
// Whatever goes wrong, the job always leaves processing through Complete;
// only a worker crash can strand it, and the stale-claim sweep covers that.
type DeploySite struct {
	pool      *pgxpool.Pool
	compiler  *compile.Compiler
	publisher publish.Publisher
	artifacts *storage.Storage
}

func NewDeploySite(pool *pgxpool.Pool, compiler *compile.Compiler, publisher publish.Publisher, artifacts *storage.Storage) *DeploySite {
	return &DeploySite{
		pool:      pool,
		compiler:  compiler,
		publisher: publisher,
		artifacts: artifacts,
	}
}

func (c *DeploySite) Handle(ctx context.Context, job db.DeployJob) error {
	queue := repo.NewDeployQueueRepo(c.pool)
	sites := repo.NewSiteRepo(c.pool)

	site, err := sites.GetByID(ctx, job.SiteID)
	if err != nil {
		return c.fail(ctx, queue, job, err)
	}
	if site == nil {
		return c.fail(ctx, queue, job, fmt.Errorf("site %d not found", job.SiteID))
	}

	html, err := c.compiler.Compile(site.GeneratedContent, site.TemplateID)
	if err != nil {
		return c.fail(ctx, queue, job, err)
	}

	deployment, err := c.publisher.Publish(ctx, site.Slug, html)
	if err != nil {
		// publish failures are usually transient (CLI, network), the
		// retry sweep will pick the job up again
		return c.fail(ctx, queue, job, errs.RetryableError{Err: err})
	}

	if c.artifacts != nil {
		key := fmt.Sprintf("sites/%s/index.html", site.Slug)
		if _, err := c.artifacts.UploadFile(ctx, key, nil, strings.NewReader(html)); err != nil {
			// the site is live either way, the archive is a convenience
			slog.Warn("artifact archive failed", "site", site.ID, "err", err)
		}
	}

	if _, err := sites.SetProject(ctx, site.ID, deployment.ProjectName); err != nil {
		return c.fail(ctx, queue, job, err)
	}
	if _, err := sites.Activate(ctx, site.ID); err != nil {
		return c.fail(ctx, queue, job, err)
	}

	if _, err := queue.Complete(ctx, job.ID, true, nil); err != nil {
		return err
	}
	slog.Info("Site deployed", "site", site.ID, "slug", site.Slug, "url", deployment.URL, "attempt", job.Attempts)
	return nil
}

func (c *DeploySite) fail(ctx context.Context, queue *repo.DeployQueueRepo, job db.DeployJob, cause error) error {
	var retryable errs.RetryableError
	if errors.As(cause, &retryable) {
		slog.Warn("deploy failed, eligible for retry", "job", job.ID, "site", job.SiteID, "attempt", job.Attempts, "err", cause)
	} else {
		slog.Error("deploy failed", "job", job.ID, "site", job.SiteID, "attempt", job.Attempts, "err", cause)
	}
	msg := cause.Error()
	if _, err := queue.Complete(ctx, job.ID, false, &msg); err != nil {
		return fmt.Errorf("can't record failure for job %d: %v (original: %v)", job.ID, err, cause)
	}
	return cause
}
