package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/websimple-ai/websimple-backend/internal/application/consts"
	"github.com/websimple-ai/websimple-backend/internal/infra/db"
)

type DeployQueueRepo struct {
	q Querier
}

func NewDeployQueueRepo(q Querier) *DeployQueueRepo {
	return &DeployQueueRepo{q: q}
}

func (d *DeployQueueRepo) Enqueue(ctx context.Context, siteID uint64) (*db.DeployJob, error) {
	query := `INSERT INTO websimple.deploy_queue (site_id) VALUES ($1) RETURNING ` + jobColumns
	return d.scanOne(d.q.QueryRow(ctx, query, siteID))
}

// ClaimNext takes the oldest pending job, moves it to processing, stamps
// started_at and counts the attempt. SKIP LOCKED keeps concurrent workers
// from claiming the same row or waiting behind each other's claims; the
// whole claim is one statement, so a worker crash cannot half-claim.
// Returns nil when the queue is empty.
func (d *DeployQueueRepo) ClaimNext(ctx context.Context) (*db.DeployJob, error) {
	query := `UPDATE websimple.deploy_queue
		SET status = $1, started_at = now(), attempts = attempts + 1
		WHERE id = (
			SELECT id FROM websimple.deploy_queue
			WHERE status = $2
			ORDER BY created_at
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING ` + jobColumns
	return d.scanOne(d.q.QueryRow(ctx, query, consts.JobStatusProcessing, consts.JobStatusPending))
}

// Complete finishes a processing job. Stale double-completions (job already
// completed or failed, or reclaimed by another worker) are no-ops.
func (d *DeployQueueRepo) Complete(ctx context.Context, jobID uint64, success bool, errorMessage *string) (*db.DeployJob, error) {
	status := consts.JobStatusCompleted
	if !success {
		status = consts.JobStatusFailed
	}
	query := `UPDATE websimple.deploy_queue
		SET status = $2, completed_at = now(), error_message = $3
		WHERE id = $1 AND status = $4
		RETURNING ` + jobColumns
	return d.scanOne(d.q.QueryRow(ctx, query, jobID, status, errorMessage, consts.JobStatusProcessing))
}

// RetryEligible makes failed jobs under the attempt bound claimable again,
// shedding the previous failure's stamps. Jobs at or above maxAttempts
// stay failed for good.
func (d *DeployQueueRepo) RetryEligible(ctx context.Context, maxAttempts int) ([]db.DeployJob, error) {
	query := `UPDATE websimple.deploy_queue
		SET status = $1, started_at = NULL, completed_at = NULL, error_message = NULL
		WHERE status = $2 AND attempts < $3
		RETURNING ` + jobColumns
	rows, err := d.q.Query(ctx, query, consts.JobStatusPending, consts.JobStatusFailed, maxAttempts)
	if err != nil {
		return nil, fmt.Errorf("can't retry failed jobs, %v", err)
	}
	defer rows.Close()
	return d.scanAll(rows)
}

// ReleaseStale recovers claims abandoned by crashed workers: processing
// jobs whose started_at is older than the threshold go back to pending.
func (d *DeployQueueRepo) ReleaseStale(ctx context.Context, olderThanMinutes int) ([]db.DeployJob, error) {
	query := `UPDATE websimple.deploy_queue
		SET status = $1, started_at = NULL, completed_at = NULL, error_message = NULL
		WHERE status = $2 AND started_at < now() - make_interval(mins => $3)
		RETURNING ` + jobColumns
	rows, err := d.q.Query(ctx, query, consts.JobStatusPending, consts.JobStatusProcessing, olderThanMinutes)
	if err != nil {
		return nil, fmt.Errorf("can't release stale jobs, %v", err)
	}
	defer rows.Close()
	return d.scanAll(rows)
}

func (d *DeployQueueRepo) GetByID(ctx context.Context, jobID uint64) (*db.DeployJob, error) {
	query := `SELECT ` + jobColumns + ` FROM websimple.deploy_queue WHERE id = $1`
	return d.scanOne(d.q.QueryRow(ctx, query, jobID))
}

const jobColumns = `id, site_id, status, attempts, started_at, completed_at, error_message, created_at`

func (d *DeployQueueRepo) scanOne(row pgx.Row) (*db.DeployJob, error) {
	var job db.DeployJob
	if err := scanJob(row, &job); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("can't read deploy job, %v", err)
	}
	return &job, nil
}

func (d *DeployQueueRepo) scanAll(rows pgx.Rows) ([]db.DeployJob, error) {
	var jobs []db.DeployJob
	for rows.Next() {
		var job db.DeployJob
		if err := scanJob(rows, &job); err != nil {
			return nil, fmt.Errorf("can't read deploy job row, %v", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error reading result set, %v", err)
	}
	return jobs, nil
}

func scanJob(row pgx.Row, job *db.DeployJob) error {
	return row.Scan(&job.ID, &job.SiteID, &job.Status, &job.Attempts,
		&job.StartedAt, &job.CompletedAt, &job.ErrorMessage, &job.CreatedAt)
}
