package worker

import (
	"context"
	"log"
	"sync"
	"time"

	"osint-stories/internal/services"
	"osint-stories/internal/workers"
)

// Sweeper repairs story rollups and index rows
type Sweeper interface {
	RecomputeAll(ctx context.Context) (*services.SweepResult, error)
}

// WorkerService manages background workers for the application
type WorkerService struct {
	collectWorker *workers.CollectWorker
	sweeper       Sweeper
	sweepInterval time.Duration

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
	started time.Time
	mu      sync.RWMutex

	sweeps    int
	lastSweep *services.SweepResult
}

// NewWorkerService creates a new worker service. collectWorker may be nil
// when no collector is configured.
func NewWorkerService(collectWorker *workers.CollectWorker, sweeper Sweeper, sweepInterval time.Duration) *WorkerService {
	if sweepInterval <= 0 {
		sweepInterval = time.Hour
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &WorkerService{
		collectWorker: collectWorker,
		sweeper:       sweeper,
		sweepInterval: sweepInterval,
		ctx:           ctx,
		cancel:        cancel,
	}
}

// Start starts all background workers
func (ws *WorkerService) Start() error {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	if ws.running {
		return nil
	}

	log.Println("Starting background workers...")

	if ws.collectWorker != nil {
		ws.wg.Add(1)
		go func() {
			defer ws.wg.Done()
			ws.runCollectWorker()
		}()
	}

	ws.wg.Add(1)
	go func() {
		defer ws.wg.Done()
		ws.runPeriodicTasks()
	}()

	ws.running = true
	ws.started = time.Now()
	log.Println("Background workers started successfully")

	return nil
}

// Stop stops all background workers
func (ws *WorkerService) Stop() {
	ws.mu.Lock()
	if !ws.running {
		ws.mu.Unlock()
		return
	}
	ws.running = false
	ws.mu.Unlock()

	log.Println("Stopping background workers...")
	ws.cancel()
	ws.wg.Wait()
	log.Println("Background workers stopped")
}

// IsRunning returns whether the worker service is currently running
func (ws *WorkerService) IsRunning() bool {
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	return ws.running
}

func (ws *WorkerService) runCollectWorker() {
	ws.collectWorker.Start(ws.ctx)
	<-ws.ctx.Done()
	ws.collectWorker.Stop()
}

// runPeriodicTasks runs the consistency sweep on its interval
func (ws *WorkerService) runPeriodicTasks() {
	log.Printf("Starting periodic tasks worker (sweep every %v)...", ws.sweepInterval)

	sweepTicker := time.NewTicker(ws.sweepInterval)
	defer sweepTicker.Stop()

	for {
		select {
		case <-ws.ctx.Done():
			log.Println("Periodic tasks worker stopped")
			return
		case <-sweepTicker.C:
			ws.Sweep(ws.ctx)
		}
	}
}

// Sweep runs one consistency sweep and records its result
func (ws *WorkerService) Sweep(ctx context.Context) (*services.SweepResult, error) {
	result, err := ws.sweeper.RecomputeAll(ctx)
	if err != nil {
		log.Printf("❌ Consistency sweep failed: %v", err)
		return nil, err
	}

	ws.mu.Lock()
	ws.sweeps++
	ws.lastSweep = result
	ws.mu.Unlock()
	return result, nil
}

// GetStatus returns the current status of the worker service
func (ws *WorkerService) GetStatus() map[string]interface{} {
	ws.mu.RLock()
	defer ws.mu.RUnlock()

	status := map[string]interface{}{
		"running":        ws.running,
		"sweep_interval": ws.sweepInterval.String(),
		"sweeps":         ws.sweeps,
		"collector":      ws.collectWorker != nil,
	}
	if ws.running {
		status["uptime"] = time.Since(ws.started).Round(time.Second).String()
	}
	if ws.lastSweep != nil {
		status["last_sweep"] = ws.lastSweep
	}
	if ws.collectWorker != nil {
		status["collect_worker"] = ws.collectWorker.GetStats()
	}

	return status
}
