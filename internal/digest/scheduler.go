package digest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Scheduler runs the digest service on a cron schedule. The HTTP trigger
// endpoint shares the same Service, so both paths behave identically.
type Scheduler struct {
	service *Service
	cron    *cron.Cron
	logger  *slog.Logger
}

func NewScheduler(service *Service, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		service: service,
		cron:    cron.New(),
		logger:  logger,
	}
}

// Start registers the schedule and begins running. The expression uses the
// standard 5-field cron format, e.g. "0 20 * * *" for 20:00 daily.
func (s *Scheduler) Start(ctx context.Context, schedule string) error {
	_, err := s.cron.AddFunc(schedule, func() {
		if _, err := s.service.Run(ctx); err != nil {
			s.logger.Error("scheduled digest failed", "err", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid digest schedule %q: %w", schedule, err)
	}

	s.cron.Start()
	s.logger.Info("digest scheduler started", "schedule", schedule)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
	return nil
}

// Stop halts the schedule, waiting for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("digest scheduler stopped")
}
