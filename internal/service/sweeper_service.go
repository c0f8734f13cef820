package service

import (
	"context"
	"time"

	"cv-evaluator-be/internal/constant"
	"cv-evaluator-be/internal/pkg/logger"
	"cv-evaluator-be/internal/repository/contract"
	"cv-evaluator-be/pkg/events"
)

type ISweeperService interface {
	// Run blocks until ctx is done.
	Run(ctx context.Context)
	SweepOnce(ctx context.Context) int
}

type sweeperService struct {
	sessions  contract.CvSessionRepository
	publisher events.Publisher
	interval  time.Duration
	logger    logger.ILogger
}

func NewSweeperService(
	sessions contract.CvSessionRepository,
	publisher events.Publisher,
	interval time.Duration,
	logger logger.ILogger,
) ISweeperService {
	if interval <= 0 {
		interval = constant.SessionCleanupInterval
	}
	return &sweeperService{
		sessions:  sessions,
		publisher: publisher,
		interval:  interval,
		logger:    logger,
	}
}

func (s *sweeperService) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

func (s *sweeperService) SweepOnce(ctx context.Context) int {
	removed, err := s.sessions.CleanupExpired(ctx)
	if err != nil {
		s.logger.Error("SWEEPER", "Session cleanup failed", map[string]interface{}{
			"error": err.Error(),
		})
		return 0
	}
	if removed == 0 {
		return 0
	}

	s.logger.Info("SWEEPER", "Cleaned up expired sessions", map[string]interface{}{
		"count": removed,
	})
	if err := s.publisher.Publish(ctx, events.New(constant.EventSessionsExpired, map[string]interface{}{
		"count": removed,
	})); err != nil {
		s.logger.Warn("SWEEPER", "Failed to publish expiry event", map[string]interface{}{
			"error": err.Error(),
		})
	}
	return removed
}
