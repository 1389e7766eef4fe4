package worker

import (
	"context"
	"errors"
	"time"

	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/config"
	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/logger"
	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/queue"

	"github.com/hibiken/asynq"
)

const (
	// statsRefreshInterval is the nightly cadence for recomputing derived
	// affiliate stats.
	statsRefreshInterval = 24 * time.Hour

	// expiredOrderSweepInterval backstops the per-order timeout tasks.
	expiredOrderSweepInterval = 10 * time.Minute

	expiredOrderSweepBatch = 200
)

// Service runs the asynq server plus the periodic maintenance loops.
type Service struct {
	name     string
	server   *asynq.Server
	mux      *asynq.ServeMux
	consumer *Consumer
}

// NewService creates the worker service.
func NewService(cfg *config.QueueConfig, consumer *Consumer) (*Service, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, errors.New("queue disabled")
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	opt, serverCfg := queue.BuildServerConfig(cfg)
	server := asynq.NewServer(opt, serverCfg)
	mux := asynq.NewServeMux()
	consumer.Register(mux)
	return &Service{
		name:     "worker",
		server:   server,
		mux:      mux,
		consumer: consumer,
	}, nil
}

// Name identifies the service to the runner.
func (s *Service) Name() string {
	if s == nil || s.name == "" {
		return "worker"
	}
	return s.name
}

// Start runs the asynq server and the maintenance loops until ctx ends.
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.server == nil || s.mux == nil {
		return errors.New("worker not initialized")
	}
	if s.consumer != nil && s.consumer.AffiliateService != nil {
		go s.runStatsRefreshLoop(ctx)
	}
	if s.consumer != nil && s.consumer.OrderService != nil {
		go s.runExpiredOrderSweepLoop(ctx)
	}
	return s.server.Run(s.mux)
}

// Stop shuts the asynq server down.
func (s *Service) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	_ = ctx
	s.server.Shutdown()
	return nil
}

func (s *Service) runStatsRefreshLoop(ctx context.Context) {
	runOnce := func() {
		count, err := s.consumer.AffiliateService.RefreshAllStats()
		if err != nil {
			logger.Warnw("worker_stats_refresh_loop_failed", "refreshed", count, "error", err)
			return
		}
		logger.Infow("worker_stats_refresh_loop_done", "refreshed", count)
	}
	runOnce()

	ticker := time.NewTicker(statsRefreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runOnce()
		}
	}
}

func (s *Service) runExpiredOrderSweepLoop(ctx context.Context) {
	runOnce := func() {
		count, err := s.consumer.OrderService.SweepExpired(expiredOrderSweepBatch)
		if err != nil {
			logger.Warnw("worker_order_sweep_failed", "canceled", count, "error", err)
			return
		}
		if count > 0 {
			logger.Infow("worker_order_sweep_done", "canceled", count)
		}
	}

	ticker := time.NewTicker(expiredOrderSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runOnce()
		}
	}
}
