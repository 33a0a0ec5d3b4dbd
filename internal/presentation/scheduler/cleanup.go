package scheduler

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/websimple-ai/websimple-backend/internal/infra/db/repo"
	"github.com/websimple-ai/websimple-backend/pkg/env"
)

type CleanupConfig struct {
	interval     uint16
	MaxAttempts  int
	StaleMinutes int
	GraceDays    int
}

func NewCleanupConfig() *CleanupConfig {
	return &CleanupConfig{
		interval:     uint16(envInt("CLEANUP_INTERVAL", 60)),
		MaxAttempts:  envInt("DEPLOY_MAX_ATTEMPTS", 3),
		StaleMinutes: envInt("DEPLOY_STALE_MINUTES", 10),
		GraceDays:    envInt("SUSPENSION_GRACE_DAYS", 7),
	}
}

func envInt(key string, def int) int {
	v, err := strconv.Atoi(env.GetEnv(key, strconv.Itoa(def)))
	if err != nil {
		return def
	}
	return v
}

// CleanupScheduler runs the periodic sweeps: lapsed reservation holds,
// failed-job retries, claims stranded by crashed workers, and sites past
// the payment grace period.
type CleanupScheduler struct {
	reservations *repo.ReservationRepo
	queue        *repo.DeployQueueRepo
	sites        *repo.SiteRepo
	cfg          *CleanupConfig
	stop         chan struct{}
}

func NewCleanupScheduler(pool *pgxpool.Pool, cfg *CleanupConfig) *CleanupScheduler {
	return &CleanupScheduler{
		reservations: repo.NewReservationRepo(pool),
		queue:        repo.NewDeployQueueRepo(pool),
		sites:        repo.NewSiteRepo(pool),
		cfg:          cfg,
		stop:         make(chan struct{}),
	}
}

func (s *CleanupScheduler) Start() {
	slog.Info("Starting cleanup scheduler...")
	ticker := time.NewTicker(time.Duration(s.cfg.interval) * time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.runSweeps(ctx)
		case <-s.stop:
			slog.Info("Cancelling current cleanup run")
			cancel()
			return
		}
	}
}

func (s *CleanupScheduler) runSweeps(ctx context.Context) {
	if count, err := s.reservations.CleanupExpired(ctx); err != nil {
		slog.Error("reservation sweep failed", "err", err)
	} else if count > 0 {
		slog.Info("Expired reservations removed", "count", count)
	}

	if jobs, err := s.queue.RetryEligible(ctx, s.cfg.MaxAttempts); err != nil {
		slog.Error("retry sweep failed", "err", err)
	} else if len(jobs) > 0 {
		slog.Info("Failed jobs requeued", "count", len(jobs))
	}

	if jobs, err := s.queue.ReleaseStale(ctx, s.cfg.StaleMinutes); err != nil {
		slog.Error("stale-claim sweep failed", "err", err)
	} else if len(jobs) > 0 {
		slog.Warn("Stale processing jobs released", "count", len(jobs))
	}

	s.suspendLapsedSites(ctx)
}

func (s *CleanupScheduler) suspendLapsedSites(ctx context.Context) {
	sites, err := s.sites.SitesForSuspension(ctx, s.cfg.GraceDays)
	if err != nil {
		slog.Error("suspension query failed", "err", err)
		return
	}
	for _, site := range sites {
		suspended, err := s.sites.Suspend(ctx, site.ID)
		if err != nil {
			slog.Error("can't suspend site", "site", site.ID, "err", err)
			continue
		}
		if suspended != nil {
			slog.Info("Site suspended after grace period", "site", site.ID, "slug", site.Slug)
		}
	}
}

func (s *CleanupScheduler) Stop() {
	slog.Info("Stopping cleanup scheduler")
	s.stop <- struct{}{}
}
