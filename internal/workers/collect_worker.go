package workers

import (
	"context"
	"log"
	"sync"
	"time"

	"osint-stories/internal/collector"
)

// CollectRunner runs one collection cycle
type CollectRunner interface {
	Run(ctx context.Context) (*collector.RunResult, error)
}

// CollectWorker runs the collector on a fixed interval
type CollectWorker struct {
	runner   CollectRunner
	interval time.Duration
	ticker   *time.Ticker
	stopChan chan struct{}
	stopOnce sync.Once
	done     sync.WaitGroup

	mu      sync.RWMutex
	runs    int
	lastRun time.Time
	last    *collector.RunResult
	lastErr error
}

// NewCollectWorker creates a new collect worker
func NewCollectWorker(runner CollectRunner, interval time.Duration) *CollectWorker {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &CollectWorker{
		runner:   runner,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// Start runs a first collection immediately, then one per interval until ctx
// is cancelled or Stop is called
func (w *CollectWorker) Start(ctx context.Context) {
	w.ticker = time.NewTicker(w.interval)

	log.Printf("🔄 Starting collect worker")
	log.Printf("   ⏱️  Interval: %v", w.interval)

	w.done.Add(1)
	go func() {
		defer w.done.Done()
		w.RunOnce(ctx)

		for {
			select {
			case <-ctx.Done():
				log.Printf("🛑 Collect worker stopping due to context cancellation")
				return
			case <-w.stopChan:
				log.Printf("🛑 Collect worker stopping")
				return
			case <-w.ticker.C:
				w.RunOnce(ctx)
			}
		}
	}()
}

// RunOnce performs one collection cycle and records its outcome
func (w *CollectWorker) RunOnce(ctx context.Context) (*collector.RunResult, error) {
	result, err := w.runner.Run(ctx)
	if err != nil && ctx.Err() == nil {
		log.Printf("❌ Error in collection cycle: %v", err)
	}

	w.mu.Lock()
	w.runs++
	w.lastRun = time.Now()
	w.lastErr = err
	if result != nil {
		w.last = result
	}
	w.mu.Unlock()

	return result, err
}

// Stop stops the worker and waits for a running cycle to finish
func (w *CollectWorker) Stop() {
	w.stopOnce.Do(func() {
		if w.ticker != nil {
			w.ticker.Stop()
		}
		close(w.stopChan)
	})
	w.done.Wait()
	log.Printf("✅ Collect worker stopped")
}

// GetStats returns statistics about recent collection cycles
func (w *CollectWorker) GetStats() *CollectStats {
	w.mu.RLock()
	defer w.mu.RUnlock()

	stats := &CollectStats{
		Runs:       w.runs,
		Interval:   w.interval,
		LastRun:    w.lastRun,
		LastResult: w.last,
	}
	if w.lastErr != nil {
		stats.LastError = w.lastErr.Error()
	}
	return stats
}

// CollectStats holds statistics about the collect worker
type CollectStats struct {
	Runs       int                  `json:"runs"`
	Interval   time.Duration        `json:"interval"`
	LastRun    time.Time            `json:"last_run"`
	LastResult *collector.RunResult `json:"last_result,omitempty"`
	LastError  string               `json:"last_error,omitempty"`
}
