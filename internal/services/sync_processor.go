package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Resyncer re-exports every household's recent months.
type Resyncer interface {
	ResyncAll(ctx context.Context) error
}

// SyncProcessorConfig holds configuration for the sync processor
type SyncProcessorConfig struct {
	// Interval between full resyncs (default: 15m). Resyncs catch up on
	// change messages lost while the broker or worker was down.
	Interval time.Duration
}

// DefaultSyncProcessorConfig returns sensible defaults
func DefaultSyncProcessorConfig() SyncProcessorConfig {
	return SyncProcessorConfig{Interval: 15 * time.Minute}
}

// SyncStats summarizes the runs of a processor.
type SyncStats struct {
	Runs      int
	Failures  int
	LastRun   time.Time
	LastError string
}

// SyncProcessor runs a full resync at start and then on every tick.
type SyncProcessor struct {
	resyncer Resyncer
	config   SyncProcessorConfig

	statsMu sync.Mutex
	stats   SyncStats

	// Lifecycle management
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewSyncProcessor(resyncer Resyncer, config SyncProcessorConfig) *SyncProcessor {
	if config.Interval <= 0 {
		config.Interval = DefaultSyncProcessorConfig().Interval
	}
	return &SyncProcessor{resyncer: resyncer, config: config}
}

// Start begins the processing loop. Returns an error if already running.
func (p *SyncProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("sync processor is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	go p.runLoop(ctx)

	slog.InfoContext(ctx, "Sync processor started", "interval", p.config.Interval)
	return nil
}

// Stop gracefully stops the processor and waits for completion.
func (p *SyncProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	stopCh, doneCh := p.stopCh, p.doneCh
	p.running = false
	p.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		slog.InfoContext(ctx, "Sync processor stopped gracefully")
		return nil
	case <-ctx.Done():
		slog.WarnContext(ctx, "Sync processor stop timed out")
		return ctx.Err()
	}
}

// IsRunning returns whether the processor is currently running
func (p *SyncProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Stats returns a copy of the run counters.
func (p *SyncProcessor) Stats() SyncStats {
	p.statsMu.Lock()
	defer p.statsMu.Unlock()
	return p.stats
}

func (p *SyncProcessor) runLoop(ctx context.Context) {
	defer close(p.doneCh)

	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()

	p.runOnce(ctx)
	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.runOnce(ctx)
		}
	}
}

func (p *SyncProcessor) runOnce(ctx context.Context) {
	start := time.Now()
	err := p.resyncer.ResyncAll(ctx)

	p.statsMu.Lock()
	p.stats.Runs++
	p.stats.LastRun = start
	p.stats.LastError = ""
	if err != nil {
		p.stats.Failures++
		p.stats.LastError = err.Error()
	}
	p.statsMu.Unlock()

	if err != nil {
		slog.ErrorContext(ctx, "Periodic resync failed", "error", err, "duration", time.Since(start))
		return
	}
	slog.DebugContext(ctx, "Periodic resync done", "duration", time.Since(start))
}
