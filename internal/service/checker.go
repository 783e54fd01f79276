package service

import (
	"context"
	"time"

	"stable_dashboard/internal/logger"
	"stable_dashboard/internal/models"
)

type alertChecker interface {
	Check(ctx context.Context) ([]models.TriggeredAlert, error)
}

// AlertChecker runs evaluation passes on a fixed interval.
type AlertChecker struct {
	alerts alertChecker
	log    *logger.Logger
}

func NewAlertChecker(alerts alertChecker, log *logger.Logger) *AlertChecker {
	return &AlertChecker{alerts: alerts, log: logger.OrNop(log).Named("alerts.checker")}
}

// Run ticks at the given interval until ctx is canceled. A non-positive tick
// disables the checker.
func (s *AlertChecker) Run(ctx context.Context, tick time.Duration) {
	if tick <= 0 {
		return
	}
	s.log.Infow("checker_started", "interval", tick.String())

	t := time.NewTicker(tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			s.log.Infow("checker_stopped")
			return
		case <-t.C:
			triggered, err := s.alerts.Check(ctx)
			if err != nil {
				// already logged by the evaluator; the next tick retries
				continue
			}
			if len(triggered) > 0 {
				s.log.Infow("checker_triggered", "count", len(triggered))
			}
		}
	}
}
