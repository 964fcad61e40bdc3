package usecase

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Scheduler drives the recurring generation run. The same work is also
// reachable through the cron HTTP endpoint for external schedulers; this
// in-process driver covers deployments without one.
type Scheduler struct {
	cron     *cron.Cron
	pipeline *Pipeline
	logger   *slog.Logger
}

// NewScheduler builds the cron driver.
func NewScheduler(pipeline *Pipeline, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		pipeline: pipeline,
		logger:   logger,
	}
}

// Start registers the generation job under the given cron expression and
// begins the schedule.
func (s *Scheduler) Start(ctx context.Context, expression string) error {
	_, err := s.cron.AddFunc(expression, func() {
		s.logger.Info("scheduled generation starting")
		result, err := s.pipeline.GenerateNews(ctx, GenerateOptions{EnableWebSearch: true})
		if err != nil {
			s.logger.Error("scheduled generation failed", "error", err)
			return
		}
		s.logger.Info("scheduled generation done", "message", result.Message, "articles", len(result.Articles))
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "expression", expression)
	return nil
}

// Stop halts the schedule and waits for a running job to finish.
func (s *Scheduler) Stop() {
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
}
