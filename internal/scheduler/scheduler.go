package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/wagateway/internal/config"
	"github.com/mamadbah2/wagateway/internal/metrics"
	client "github.com/mamadbah2/wagateway/pkg/clients/whatsapp"
)

const probeTimeout = 30 * time.Second

// ProfileFetcher is the call used to check that the Cloud API answers with
// the configured credentials.
type ProfileFetcher interface {
	BusinessProfile(ctx context.Context) (client.Response, error)
}

// Scheduler runs the periodic provider reachability probe.
type Scheduler struct {
	cron     *cron.Cron
	fetcher  ProfileFetcher
	schedule string
	logger   *zap.Logger
}

// NewScheduler creates a new scheduler instance. An empty schedule disables
// the probe.
func NewScheduler(cfg config.ProbeConfig, fetcher ProfileFetcher, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Scheduler{
		cron:     cron.New(),
		fetcher:  fetcher,
		schedule: cfg.CronSchedule,
		logger:   logger,
	}
}

// Start registers the probe and starts the cron runner.
func (s *Scheduler) Start() error {
	if s.schedule == "" {
		s.logger.Info("provider probe disabled")
		return nil
	}

	if _, err := s.cron.AddFunc(s.schedule, s.runProbe); err != nil {
		return fmt.Errorf("schedule provider probe %q: %w", s.schedule, err)
	}

	s.logger.Info("starting scheduler", zap.String("schedule", s.schedule))
	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for a running probe to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runProbe() {
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	s.Probe(ctx)
}

// Probe fetches the business profile once and records whether it succeeded.
func (s *Scheduler) Probe(ctx context.Context) bool {
	start := time.Now()
	_, err := s.fetcher.BusinessProfile(ctx)
	if err != nil {
		metrics.WhatsAppProviderUp.Set(0)
		s.logger.Error("provider probe failed", zap.Duration("duration", time.Since(start)), zap.Error(err))
		return false
	}

	metrics.WhatsAppProviderUp.Set(1)
	s.logger.Debug("provider probe succeeded", zap.Duration("duration", time.Since(start)))
	return true
}
