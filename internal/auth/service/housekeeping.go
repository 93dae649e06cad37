package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/shopauth/internal/auth/store"
)

// HousekeepingService periodically removes expired sessions and
// verification tokens so neither table grows without bound.
type HousekeepingService struct {
	Store    store.Store
	Logger   *slog.Logger
	Interval time.Duration
	Now      func() time.Time

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a new housekeeping service with the given interval.
// If interval is 0 or negative, defaults to 1 hour.
func NewHousekeepingService(store store.Store, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = 1 * time.Hour
	}

	return &HousekeepingService{
		Store:    store,
		Logger:   logger,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start runs the worker in the background. Call Stop to shut it down.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop blocks until an in-progress sweep has finished.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	s.Sweep(context.Background())

	for {
		select {
		case <-ticker.C:
			s.Sweep(context.Background())
		case <-s.stopCh:
			return
		}
	}
}

// Sweep deletes expired rows once. Each table is swept independently; a
// failure in one does not stop the other.
func (s *HousekeepingService) Sweep(ctx context.Context) (sessions, tokens int64) {
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}

	sessions, err := s.Store.Sessions().DeleteExpiredSessions(ctx, now)
	if err != nil {
		s.Logger.Error("failed to delete expired sessions", "error", err)
	}

	tokens, err = s.Store.VerificationTokens().DeleteExpiredVerificationTokens(ctx, now)
	if err != nil {
		s.Logger.Error("failed to delete expired verification tokens", "error", err)
	}

	s.Logger.Info("housekeeping sweep completed",
		slog.Int64("sessions", sessions),
		slog.Int64("verification_tokens", tokens))
	return sessions, tokens
}
