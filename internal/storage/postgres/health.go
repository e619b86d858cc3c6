package postgres

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// HealthChecker reports whether the backing database is reachable.
type HealthChecker interface {
	Health(ctx context.Context, timeout time.Duration) error
}

// HealthService periodically pings the database until stopped. Failures are
// logged and the loop keeps running; the pool reconnects on its own.
type HealthService struct {
	checker  HealthChecker
	logger   *zap.Logger
	interval time.Duration
	timeout  time.Duration

	mu      sync.Mutex
	stopped bool
	done    chan struct{}
}

// NewHealthService creates a HealthService over the given checker.
//
// Precondition: checker and logger must be non-nil; interval must be positive.
func NewHealthService(checker HealthChecker, logger *zap.Logger, interval, timeout time.Duration) *HealthService {
	return &HealthService{
		checker:  checker,
		logger:   logger,
		interval: interval,
		timeout:  timeout,
		done:     make(chan struct{}),
	}
}

// Start runs the health-check loop. It blocks until Stop is called.
//
// Postcondition: No further checks are issued once this method returns.
func (s *HealthService) Start() error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return nil
		case <-ticker.C:
			if err := s.checker.Health(context.Background(), s.timeout); err != nil {
				s.logger.Warn("database health check failed", zap.Error(err))
			}
		}
	}
}

// Stop ends the health-check loop. Safe to call more than once.
func (s *HealthService) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.stopped = true
	close(s.done)
}
