package scheduler

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/websimple-ai/websimple-backend/internal/application/processors"
	"github.com/websimple-ai/websimple-backend/internal/infra/db"
	"github.com/websimple-ai/websimple-backend/internal/infra/db/repo"
	"github.com/websimple-ai/websimple-backend/pkg/env"
)

type DeployWorkerConfig struct {
	interval uint16
	batch    uint8
}

func NewDeployWorkerConfig() *DeployWorkerConfig {
	interval, err := strconv.Atoi(env.GetEnv("DEPLOY_POLL_INTERVAL", "5"))
	if err != nil {
		interval = 5
	}
	batch, err := strconv.Atoi(env.GetEnv("DEPLOY_POLL_BATCH", "3"))
	if err != nil {
		batch = 3
	}
	return &DeployWorkerConfig{
		interval: uint16(interval),
		batch:    uint8(batch),
	}
}

// DeployWorker drains the deploy queue. Several instances can run against
// the same database: each claim is an atomic skip-locked statement, so jobs
// never land on two workers.
type DeployWorker struct {
	processor *processors.DeploySite
	queue     *repo.DeployQueueRepo
	cfg       *DeployWorkerConfig
	stop      chan struct{}
}

func NewDeployWorker(processor *processors.DeploySite, pool *pgxpool.Pool, cfg *DeployWorkerConfig) *DeployWorker {
	return &DeployWorker{
		processor: processor,
		queue:     repo.NewDeployQueueRepo(pool),
		cfg:       cfg,
		stop:      make(chan struct{}),
	}
}

func (w *DeployWorker) Start() {
	slog.Info("Starting deploy worker...")
	ticker := time.NewTicker(time.Duration(w.cfg.interval) * time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			w.drainQueue(ctx)
		case <-w.stop:
			slog.Info("Cancelling current deploy run")
			cancel()
			return
		}
	}
}

func (w *DeployWorker) drainQueue(ctx context.Context) {
	claimed := make([]db.DeployJob, 0, w.cfg.batch)
	for len(claimed) < int(w.cfg.batch) {
		job, err := w.queue.ClaimNext(ctx)
		if err != nil {
			slog.Error("error claiming deploy job", "err", err)
			break
		}
		if job == nil {
			break
		}
		claimed = append(claimed, *job)
	}
	if len(claimed) == 0 {
		return
	}

	var wg sync.WaitGroup
	for _, job := range claimed {
		wg.Add(1)
		go func(j db.DeployJob) {
			defer wg.Done()
			if err := w.processor.Handle(ctx, j); err != nil {
				slog.Error("deploy handler error", "job", j.ID, "err", err)
			}
		}(job)
	}
	wg.Wait()
}

func (w *DeployWorker) Stop() {
	slog.Info("Stopping deploy worker")
	w.stop <- struct{}{}
}
