package service

import (
	"context"
	"log"
	"sync"
	"time"

	"bloxstake-trading-api/internal/repository"
)

// CleanupConfig holds configuration for the cleanup scheduler.
type CleanupConfig struct {
	// StaleThreshold is the age after which cached profile snapshots are
	// dropped. Default: 24 hours.
	StaleThreshold time.Duration

	// Interval is how often the cleanup runs. Default: 1 hour.
	Interval time.Duration
}

// CleanupScheduler periodically prunes stale profile snapshots so the cache
// table doesn't grow without bound. Withdrawal sessions expire via cache TTL
// and need no sweeping here.
type CleanupScheduler struct {
	profiles repository.ProfileRepository
	config   CleanupConfig
	ticker   *time.Ticker
	stopCh   chan struct{}
	stopOnce sync.Once
	mu       sync.Mutex
	running  bool
}

// NewCleanupScheduler creates a new cleanup scheduler.
func NewCleanupScheduler(profiles repository.ProfileRepository, config CleanupConfig) *CleanupScheduler {
	if config.StaleThreshold == 0 {
		config.StaleThreshold = 24 * time.Hour
	}
	if config.Interval == 0 {
		config.Interval = time.Hour
	}

	return &CleanupScheduler{
		profiles: profiles,
		config:   config,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the cleanup loop.
func (s *CleanupScheduler) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.ticker = time.NewTicker(s.config.Interval)
	s.mu.Unlock()

	log.Printf("[CleanupScheduler] Started - Interval: %v, Threshold: %v",
		s.config.Interval, s.config.StaleThreshold)

	go s.run()
}

func (s *CleanupScheduler) run() {
	for {
		select {
		case <-s.ticker.C:
			s.runCleanup()
		case <-s.stopCh:
			log.Printf("[CleanupScheduler] Stopped")
			return
		}
	}
}

func (s *CleanupScheduler) runCleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	deleted, err := s.profiles.DeleteStale(ctx, s.config.StaleThreshold)
	if err != nil {
		log.Printf("[CleanupScheduler] Error during cleanup: %v", err)
		return
	}
	if deleted > 0 {
		log.Printf("[CleanupScheduler] Pruned %d stale profile snapshots", deleted)
	}
}

// Stop stops the cleanup loop.
func (s *CleanupScheduler) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		if s.ticker != nil {
			s.ticker.Stop()
		}
		close(s.stopCh)
		s.running = false
	})
}
