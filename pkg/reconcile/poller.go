package reconcile

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Source lists recordings discovered on the external platform within a
// lookback window. A webhook path can call Reconciler.Reconcile directly;
// Poller exists for platforms (or outages) where no webhook fires.
type Source interface {
	ListRecent(ctx context.Context, since time.Time) ([]DiscoveredRecording, error)
}

// pollerState tracks poll metrics, mirroring the teacher's orphanState.
type pollerState struct {
	mu         sync.Mutex
	lastScan   time.Time
	orphaned   int
	dispatched int
}

// Poller periodically re-runs reconciliation over a lookback window so a
// missed or late webhook delivery is eventually caught. All instances
// run independently — Reconcile is idempotent, so concurrent pollers
// across replicas are safe.
type Poller struct {
	reconciler *Reconciler
	source     Source
	interval   time.Duration
	lookback   time.Duration
	state      pollerState
}

// NewPoller constructs a Poller. interval is how often to scan; lookback
// is how far back to ask the Source for recordings each scan.
func NewPoller(r *Reconciler, source Source, interval, lookback time.Duration) *Poller {
	return &Poller{reconciler: r, source: source, interval: interval, lookback: lookback}
}

// Run blocks, scanning on interval until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.scan(ctx); err != nil {
				slog.Error("recording reconciliation scan failed", "error", err)
			}
		}
	}
}

func (p *Poller) scan(ctx context.Context) error {
	since := time.Now().Add(-p.lookback)

	recordings, err := p.source.ListRecent(ctx, since)
	if err != nil {
		return err
	}

	if len(recordings) == 0 {
		p.state.mu.Lock()
		p.state.lastScan = time.Now()
		p.state.mu.Unlock()
		return nil
	}

	var orphaned, dispatched int
	for _, d := range recordings {
		result, err := p.reconciler.Reconcile(ctx, d)
		if err != nil {
			slog.Error("recording reconciliation failed",
				"recording_id", d.RecordingID, "error", err)
			continue
		}
		if result.Orphaned {
			orphaned++
		}
		if result.Dispatched {
			dispatched++
		}
	}

	p.state.mu.Lock()
	p.state.lastScan = time.Now()
	p.state.orphaned += orphaned
	p.state.dispatched += dispatched
	p.state.mu.Unlock()

	slog.Info("recording reconciliation scan complete",
		"scanned", len(recordings), "orphaned", orphaned, "dispatched", dispatched)

	return nil
}
