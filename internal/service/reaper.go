package service

import (
	"context"
	"log"
	"sync"
	"time"

	"warehouse-sync-api/internal/repository"
)

// ReaperConfig holds configuration for the expiry sweep scheduler.
type ReaperConfig struct {
	// Interval is how often the sweep runs.
	// Default: 1 hour
	Interval time.Duration

	// StartupDelay is how long after Start the first sweep runs.
	// Default: 1 minute
	StartupDelay time.Duration
}

// DefaultReaperConfig returns default reaper configuration.
func DefaultReaperConfig() ReaperConfig {
	return ReaperConfig{
		Interval:     1 * time.Hour,
		StartupDelay: 1 * time.Minute,
	}
}

// ExpiryReaper periodically transitions overdue PENDING actions to EXPIRED.
// It owns no state of its own; every sweep is one conditional bulk update, so
// it composes with concurrent approve/reject calls as just another writer.
type ExpiryReaper struct {
	pending   repository.PendingActionRepository
	config    ReaperConfig
	ticker    *time.Ticker
	stopCh    chan struct{}
	stopOnce  sync.Once
	isRunning bool
	mu        sync.Mutex
}

// NewExpiryReaper creates a new expiry reaper.
func NewExpiryReaper(pending repository.PendingActionRepository, config ReaperConfig) *ExpiryReaper {
	if config.Interval == 0 {
		config.Interval = 1 * time.Hour
	}
	if config.StartupDelay == 0 {
		config.StartupDelay = 1 * time.Minute
	}

	return &ExpiryReaper{
		pending: pending,
		config:  config,
		stopCh:  make(chan struct{}),
	}
}

// Start begins the sweep scheduler.
func (r *ExpiryReaper) Start() {
	r.mu.Lock()
	if r.isRunning {
		r.mu.Unlock()
		return
	}
	r.isRunning = true
	r.ticker = time.NewTicker(r.config.Interval)
	r.mu.Unlock()

	log.Printf("[ExpiryReaper] Started - Interval: %v", r.config.Interval)

	// Run an initial sweep shortly after startup to catch actions that
	// expired while the process was down.
	go func() {
		select {
		case <-time.After(r.config.StartupDelay):
			r.runSweep()
		case <-r.stopCh:
		}
	}()

	go r.run()
}

// run is the main sweep loop.
func (r *ExpiryReaper) run() {
	for {
		select {
		case <-r.ticker.C:
			r.runSweep()
		case <-r.stopCh:
			log.Printf("[ExpiryReaper] Stopped")
			return
		}
	}
}

// runSweep performs one sweep. A failed sweep is logged and retried on the
// next tick; it never crashes the process.
func (r *ExpiryReaper) runSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	expired, err := r.pending.ExpireDue(ctx, time.Now().UTC())
	if err != nil {
		log.Printf("[ExpiryReaper] Error during sweep: %v", err)
		return
	}

	if expired > 0 {
		log.Printf("[ExpiryReaper] Expired %d pending actions", expired)
	}
}

// Stop stops the sweep scheduler.
func (r *ExpiryReaper) Stop() {
	r.stopOnce.Do(func() {
		r.mu.Lock()
		defer r.mu.Unlock()

		if r.ticker != nil {
			r.ticker.Stop()
		}
		close(r.stopCh)
		r.isRunning = false
	})
}

// RunNow triggers an immediate sweep.
func (r *ExpiryReaper) RunNow() (int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	return r.pending.ExpireDue(ctx, time.Now().UTC())
}
