package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"osint-stories/internal/collector"
	"osint-stories/internal/services"
	"osint-stories/internal/workers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSweeper struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeSweeper) RecomputeAll(ctx context.Context) (*services.SweepResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &services.SweepResult{Checked: 3}, nil
}

func (f *fakeSweeper) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type staticRunner struct{}

func (staticRunner) Run(ctx context.Context) (*collector.RunResult, error) {
	return &collector.RunResult{Fetched: 2}, nil
}

func TestWorkerService_Lifecycle(t *testing.T) {
	sweeper := &fakeSweeper{}
	collect := workers.NewCollectWorker(staticRunner{}, time.Hour)
	ws := NewWorkerService(collect, sweeper, 10*time.Millisecond)

	require.NoError(t, ws.Start())
	require.NoError(t, ws.Start())
	assert.True(t, ws.IsRunning())

	assert.Eventually(t, func() bool { return sweeper.count() >= 2 }, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return collect.GetStats().Runs == 1 }, time.Second, 5*time.Millisecond)

	status := ws.GetStatus()
	assert.Equal(t, true, status["running"])
	assert.Equal(t, true, status["collector"])
	assert.NotNil(t, status["last_sweep"])

	ws.Stop()
	assert.False(t, ws.IsRunning())
	ws.Stop()
}

func TestWorkerService_SweepWithoutCollector(t *testing.T) {
	ws := NewWorkerService(nil, &fakeSweeper{}, 0)

	result, err := ws.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, result.Checked)

	status := ws.GetStatus()
	assert.Equal(t, "1h0m0s", status["sweep_interval"])
	assert.Equal(t, 1, status["sweeps"])
	assert.Equal(t, false, status["collector"])
	assert.NotContains(t, status, "collect_worker")
}

func TestWorkerService_SweepError(t *testing.T) {
	ws := NewWorkerService(nil, &fakeSweeper{err: errors.New("persistence: connection reset")}, time.Hour)

	_, err := ws.Sweep(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 0, ws.GetStatus()["sweeps"])
}
