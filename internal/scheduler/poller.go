// Package scheduler runs the periodic provider health check and keeps
// the latest snapshot for the health endpoint.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ynrrishabh/anime/internal/notifications"
	"github.com/ynrrishabh/anime/internal/providers"
)

type Poller struct {
	registry *providers.Registry
	interval time.Duration
	logger   *slog.Logger
	notifier notifications.Notifier
	stopCh   chan struct{}

	mu       sync.RWMutex
	snapshot []providers.HealthStatus
}

type PollerConfig struct {
	Interval time.Duration
	Notifier notifications.Notifier
}

func NewPoller(registry *providers.Registry, cfg PollerConfig, logger *slog.Logger) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Minute
	}
	if cfg.Notifier == nil {
		cfg.Notifier = notifications.NoopNotifier{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Poller{
		registry: registry,
		interval: cfg.Interval,
		logger:   logger,
		notifier: cfg.Notifier,
		stopCh:   make(chan struct{}),
	}
}

func (p *Poller) Start(ctx context.Context) {
	p.logger.Info("health poller started", "interval", p.interval.String())
	ticker := time.NewTicker(p.interval)
	go func() {
		defer ticker.Stop()
		p.RunOnce(ctx)
		for {
			select {
			case <-ctx.Done():
				p.logger.Info("health poller stopped")
				close(p.stopCh)
				return
			case <-ticker.C:
				p.RunOnce(ctx)
			}
		}
	}()
}

func (p *Poller) StopWait(timeout time.Duration) {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	select {
	case <-p.stopCh:
	case <-time.After(timeout):
	}
}

func (p *Poller) RunOnce(ctx context.Context) {
	checkCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	statuses := p.registry.Health(checkCtx)
	cancel()

	previous := p.Snapshot()
	for _, status := range statuses {
		if status.Healthy {
			continue
		}
		p.logger.Warn("provider unhealthy", "provider", status.Key, "error", status.Error)
		if wasHealthy(previous, status.Key) {
			message := notifications.ProviderDown(status.Key, status.Name, status.Error)
			if err := p.notifier.Notify(ctx, message); err != nil {
				p.logger.Warn("outage notification failed", "provider", status.Key, "error", err)
			}
		}
	}

	p.mu.Lock()
	p.snapshot = statuses
	p.mu.Unlock()
}

// Snapshot returns the statuses gathered by the last poll, or nil before
// the first one completes.
func (p *Poller) Snapshot() []providers.HealthStatus {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.snapshot == nil {
		return nil
	}
	out := make([]providers.HealthStatus, len(p.snapshot))
	copy(out, p.snapshot)
	return out
}

// wasHealthy reports whether the provider was healthy (or unseen) in the
// previous poll, so only transitions raise an alert.
func wasHealthy(previous []providers.HealthStatus, key string) bool {
	for _, status := range previous {
		if status.Key == key {
			return status.Healthy
		}
	}
	return true
}
