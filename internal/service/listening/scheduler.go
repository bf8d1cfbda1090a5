// internal/service/listening/scheduler.go

package listening

import (
	"context"
	"fmt"
	"sync"
	"time"

	"tagpulse/internal/logging"
)

// Snapshot is the outcome of one scheduled full-batch pass.
type Snapshot struct {
	Trending TrendReport    `json:"trending"`
	Threads  []ThreadReport `json:"threads"`
	TakenAt  time.Time      `json:"takenAt"`
}

// SchedulerConfig contains configuration for the scheduler
type SchedulerConfig struct {
	ScanInterval time.Duration
	TopN         int
	MinDepth     int
}

// Scheduler recomputes trending labels and thread shapes on a fixed
// interval. Every tick is an independent full pass; nothing is carried over
// from previous ticks.
type Scheduler struct {
	analyzer *Analyzer
	config   SchedulerConfig
	handlers []func(Snapshot) error
	mu       sync.RWMutex
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewScheduler creates a new scheduler
func NewScheduler(analyzer *Analyzer, config SchedulerConfig) *Scheduler {
	return &Scheduler{
		analyzer: analyzer,
		config:   config,
	}
}

// RegisterHandler registers a callback invoked after every pass
func (s *Scheduler) RegisterHandler(handler func(Snapshot) error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.handlers = append(s.handlers, handler)
}

// Start begins periodic analysis. It returns immediately.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.config.ScanInterval <= 0 {
		return fmt.Errorf("scan interval must be positive, got %s", s.config.ScanInterval)
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.run(ctx)

	return nil
}

func (s *Scheduler) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.ScanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.RunOnce(ctx); err != nil && ctx.Err() == nil {
				logging.Error().Err(err).Msg("scheduled analysis failed")
			}
		}
	}
}

// RunOnce performs a single full pass and notifies handlers.
func (s *Scheduler) RunOnce(ctx context.Context) (Snapshot, error) {
	trending, err := s.analyzer.Trending(ctx, s.config.TopN)
	if err != nil {
		return Snapshot{}, err
	}

	threads, err := s.analyzer.AnalyzeAllThreads(ctx, s.config.MinDepth)
	if err != nil {
		return Snapshot{}, err
	}

	snap := Snapshot{
		Trending: trending,
		Threads:  threads,
		TakenAt:  time.Now().UTC(),
	}

	logging.Info().
		Int("items", trending.ItemCount).
		Int("threads", len(threads)).
		Msg("scheduled analysis complete")

	s.callHandlers(snap)
	return snap, nil
}

func (s *Scheduler) callHandlers(snap Snapshot) {
	s.mu.RLock()
	handlers := make([]func(Snapshot) error, len(s.handlers))
	copy(handlers, s.handlers)
	s.mu.RUnlock()

	for _, handler := range handlers {
		if err := handler(snap); err != nil {
			logging.Warn().Err(err).Msg("snapshot handler failed")
		}
	}
}

// Stop stops the scheduler and waits for an in-flight pass to finish or for
// ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}

	c := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(c)
	}()

	select {
	case <-c:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
