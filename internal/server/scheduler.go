package server

import (
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/growl/internal/errors"
	"git.home.luguber.info/inful/growl/internal/logfields"
)

// scheduler wraps a gocron scheduler running a single periodic rebuild.
type scheduler struct {
	cron   gocron.Scheduler
	logger *slog.Logger
}

func newScheduler(every time.Duration, logger *slog.Logger, rebuild func()) (*scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryServe, "cannot create scheduler").Fatal().Build()
	}
	_, err = s.NewJob(
		gocron.DurationJob(every),
		gocron.NewTask(rebuild),
		gocron.WithName("periodic-rebuild"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, errors.WrapError(err, errors.CategoryServe, "cannot schedule periodic rebuild").
			Fatal().WithContext("interval", every.String()).Build()
	}
	return &scheduler{cron: s, logger: logger}, nil
}

func (s *scheduler) start() {
	s.logger.Info("Starting periodic rebuild scheduler")
	s.cron.Start()
}

func (s *scheduler) stop() {
	if err := s.cron.Shutdown(); err != nil {
		s.logger.Warn("Scheduler shutdown error", logfields.Error(err))
	}
}
