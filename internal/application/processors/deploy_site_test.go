package processors_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/websimple-ai/websimple-backend/internal/application/consts"
	"github.com/websimple-ai/websimple-backend/internal/application/processors"
	"github.com/websimple-ai/websimple-backend/internal/infra/compile"
	"github.com/websimple-ai/websimple-backend/internal/infra/db"
	"github.com/websimple-ai/websimple-backend/internal/infra/db/repo"
	"github.com/websimple-ai/websimple-backend/internal/infra/publish"
	"github.com/websimple-ai/websimple-backend/internal/testinfra"
)

// fakePublisher records what it was asked to publish.
type fakePublisher struct {
	err      error
	slug     string
	html     string
	requests int
}

func (f *fakePublisher) Publish(_ context.Context, slug, html string) (*publish.Deployment, error) {
	f.requests++
	f.slug = slug
	f.html = html
	if f.err != nil {
		return nil, f.err
	}
	return &publish.Deployment{
		URL:         "https://" + slug + ".llc-us.com",
		PagesURL:    "https://llc-" + slug + ".pages.dev",
		ProjectName: "llc-" + slug,
	}, nil
}

const siteContent = `{
	"seo": {"title": "T", "description": "D"},
	"business": {"name": "Glow Electric", "phone": "555", "email": "a@b.c", "serviceArea": "Austin"},
	"hero": {"headline": "H", "subheadline": "S", "cta_text": "C"},
	"about": {"headline": "A", "text": "T"},
	"services": [],
	"trust": {"headline": "W", "points": []},
	"cta": {"headline": "C", "text": "T", "button_text": "B"}
}`

func setupSiteWithClaimedJob(t *testing.T, slug string) (*db.Site, *db.DeployJob) {
	t.Helper()
	ctx := context.Background()

	customers := repo.NewCustomerRepo(testinfra.Pool)
	customer, err := customers.Upsert(ctx, slug+"@example.com", "cus_"+slug)
	require.NoError(t, err)

	sites := repo.NewSiteRepo(testinfra.Pool)
	site, err := sites.Insert(ctx, customer.ID, slug, "electrician", json.RawMessage(siteContent), nil)
	require.NoError(t, err)

	queue := repo.NewDeployQueueRepo(testinfra.Pool)
	_, err = queue.Enqueue(ctx, site.ID)
	require.NoError(t, err)
	job, err := queue.ClaimNext(ctx)
	require.NoError(t, err)
	require.NotNil(t, job)
	require.Equal(t, site.ID, job.SiteID)
	return site, job
}

// exhaustAttempts parks a failed job beyond any retry bound so later
// tests see a clean queue.
func exhaustAttempts(t *testing.T, jobID uint64) {
	t.Helper()
	_, err := testinfra.Pool.Exec(context.Background(),
		`UPDATE websimple.deploy_queue SET attempts = 99 WHERE id = $1`, jobID)
	require.NoError(t, err)
}

func newProcessor(publisher publish.Publisher) *processors.DeploySite {
	compiler, err := compile.NewCompiler()
	if err != nil {
		panic(err)
	}
	// no artifact store in tests, the upload is best-effort anyway
	return processors.NewDeploySite(testinfra.Pool, compiler, publisher, nil)
}

func TestHandlePublishesAndCompletesJob(t *testing.T) {
	ctx := context.Background()
	site, job := setupSiteWithClaimedJob(t, "deploy-ok")

	publisher := &fakePublisher{}
	err := newProcessor(publisher).Handle(ctx, *job)
	require.NoError(t, err)

	require.Equal(t, "deploy-ok", publisher.slug)
	require.Contains(t, publisher.html, "Glow Electric")

	queue := repo.NewDeployQueueRepo(testinfra.Pool)
	done, err := queue.GetByID(ctx, job.ID)
	require.NoError(t, err)
	require.Equal(t, consts.JobStatusCompleted, done.Status)
	require.NotNil(t, done.CompletedAt)

	sites := repo.NewSiteRepo(testinfra.Pool)
	deployed, err := sites.GetByID(ctx, site.ID)
	require.NoError(t, err)
	require.Equal(t, "llc-deploy-ok", *deployed.CloudflareProject)
	require.Equal(t, consts.SiteStatusActive, deployed.Status)
	require.NotNil(t, deployed.DeployedAt)
}

func TestHandleMarksJobFailedWhenPublishFails(t *testing.T) {
	ctx := context.Background()
	site, job := setupSiteWithClaimedJob(t, "deploy-down")

	publisher := &fakePublisher{err: errors.New("cloudflare unreachable")}
	err := newProcessor(publisher).Handle(ctx, *job)
	require.ErrorContains(t, err, "cloudflare unreachable")

	queue := repo.NewDeployQueueRepo(testinfra.Pool)
	failed, err := queue.GetByID(ctx, job.ID)
	require.NoError(t, err)
	require.Equal(t, consts.JobStatusFailed, failed.Status)
	require.Contains(t, *failed.ErrorMessage, "cloudflare unreachable")

	sites := repo.NewSiteRepo(testinfra.Pool)
	untouched, err := sites.GetByID(ctx, site.ID)
	require.NoError(t, err)
	require.Nil(t, untouched.CloudflareProject, "failed deploy never records a project")

	exhaustAttempts(t, job.ID)
}

func TestHandleFailsJobForUnknownSite(t *testing.T) {
	ctx := context.Background()
	_, job := setupSiteWithClaimedJob(t, "deploy-ghost")

	ghost := *job
	ghost.SiteID = 999999
	publisher := &fakePublisher{}
	err := newProcessor(publisher).Handle(ctx, ghost)
	require.Error(t, err)
	require.Zero(t, publisher.requests, "nothing published for a missing site")

	queue := repo.NewDeployQueueRepo(testinfra.Pool)
	failed, err := queue.GetByID(ctx, job.ID)
	require.NoError(t, err)
	require.Equal(t, consts.JobStatusFailed, failed.Status)

	exhaustAttempts(t, job.ID)
}

func TestFailedJobIsRetriedAndSucceeds(t *testing.T) {
	ctx := context.Background()
	site, job := setupSiteWithClaimedJob(t, "deploy-retry")

	flaky := &fakePublisher{err: errors.New("transient")}
	require.Error(t, newProcessor(flaky).Handle(ctx, *job))

	queue := repo.NewDeployQueueRepo(testinfra.Pool)
	retried, err := queue.RetryEligible(ctx, 3)
	require.NoError(t, err)
	require.Len(t, retried, 1)

	second, err := queue.ClaimNext(ctx)
	require.NoError(t, err)
	require.Equal(t, job.ID, second.ID)
	require.Equal(t, 2, second.Attempts)

	flaky.err = nil
	require.NoError(t, newProcessor(flaky).Handle(ctx, *second))

	done, err := queue.GetByID(ctx, job.ID)
	require.NoError(t, err)
	require.Equal(t, consts.JobStatusCompleted, done.Status)

	sites := repo.NewSiteRepo(testinfra.Pool)
	deployed, err := sites.GetByID(ctx, site.ID)
	require.NoError(t, err)
	require.NotNil(t, deployed.DeployedAt)
}
