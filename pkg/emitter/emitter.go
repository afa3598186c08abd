package emitter

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/cxlRay/druid/pkg/config"
	"github.com/cxlRay/druid/pkg/metrics"
)

// fallbackHost is the push grouping key used before any event has been seen.
const fallbackHost = "unknown"

// Emitter routes service metric events to their registered collectors and,
// under the pushgateway strategy, periodically pushes the whole collector
// registry to the gateway. Emit is safe for concurrent use; the flush runs on
// its own single worker so network I/O never blocks event routing.
type Emitter struct {
	cfg      *config.Config
	registry *metrics.Registry
	pusher   Pusher
	sched    *FlushScheduler
	watcher  *metrics.MapWatcher
	lastHost HostCell
	logger   *slog.Logger

	mu        sync.Mutex
	started   bool
	closeOnce sync.Once
}

// New builds the collector lookup table from the configured metric map,
// resolves the gateway address and prepares the flush scheduler. Nothing runs
// until Start.
func New(cfg *config.Config, logger *slog.Logger) (*Emitter, error) {
	if logger == nil {
		logger = slog.Default().With("component", "emitter")
	}

	registry, err := metrics.NewRegistry(cfg.Namespace, cfg.MetricMapPath, cfg.ExtraLabels, logger.With("component", "metrics.registry"))
	if err != nil {
		return nil, fmt.Errorf("failed to build collector lookup table: %w", err)
	}

	e := &Emitter{
		cfg:      cfg,
		registry: registry,
		logger:   logger,
	}

	if cfg.Strategy == config.StrategyPushgateway {
		address := cfg.PushGateway.Address()
		logger.Info("pushgateway address resolved", "address", address)

		e.pusher = NewGatewayPusher(address, registry,
			time.Duration(cfg.PushGateway.PushTimeoutSeconds)*time.Second)
		e.sched = NewFlushScheduler(
			time.Duration(cfg.PushGateway.FlushDelaySeconds)*time.Second,
			time.Duration(cfg.PushGateway.FlushPeriodSeconds)*time.Second,
			e.flush,
			logger.With("component", "emitter.scheduler"),
		)
	}

	if cfg.WatchMetricMap && cfg.MetricMapPath != "" {
		watcher, err := metrics.NewMapWatcher(cfg.MetricMapPath, logger.With("component", "metrics.watcher"))
		if err != nil {
			return nil, fmt.Errorf("failed to create metric map watcher: %w", err)
		}
		e.watcher = watcher
	}

	return e, nil
}

// Start launches the flush scheduler and, when configured, the metric map
// watcher. Call once.
func (e *Emitter) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.started {
		return
	}
	e.started = true

	if e.sched != nil {
		e.sched.Start()
	}

	if e.watcher != nil {
		go func() {
			if err := e.watcher.Watch(e.registry.Reload); err != nil {
				e.logger.Error("metric map watcher exited", "error", err)
			}
		}()
	}
}

// Emit routes one event to its collector. Unmapped metrics are dropped
// silently (debug log only). Counter values are taken as non-negative; a
// negative increment is the caller's defect, not validated here.
func (e *Emitter) Emit(ev Event) {
	e.lastHost.Store(ev.Host)

	dc := e.registry.GetByName(ev.Metric, ev.Service)
	if dc == nil {
		e.logger.Debug("unmapped metric", "metric", ev.Metric, "service", ev.Service)
		return
	}

	labelValues := make([]string, len(dc.Dimensions))
	for i, name := range dc.Dimensions {
		if name == "service" {
			labelValues[i] = ev.Service
			continue
		}
		// The dimension name is user-controlled; a missing dimension
		// becomes "unknown" so label cardinality stays fixed.
		if v, ok := ev.UserDims[name]; ok {
			labelValues[i] = metrics.Sanitize(fmt.Sprint(v))
		} else {
			labelValues[i] = "unknown"
		}
	}

	switch dc.Kind {
	case metrics.KindCounter:
		dc.Counter.WithLabelValues(labelValues...).Add(ev.Value)
	case metrics.KindGauge:
		dc.Gauge.WithLabelValues(labelValues...).Set(ev.Value)
	case metrics.KindHistogram:
		dc.Histogram.WithLabelValues(labelValues...).Observe(ev.Value / dc.ConversionFactor)
	default:
		e.logger.Error("unrecognized collector kind",
			"metric", ev.Metric,
			"kind", int(dc.Kind),
		)
	}
}

// Gatherer exposes the collector registry for exposition handlers.
func (e *Emitter) Gatherer() prometheus.Gatherer {
	return e.registry
}

// Registry returns the collector lookup table.
func (e *Emitter) Registry() *metrics.Registry {
	return e.registry
}

// flush pushes the full registry snapshot to the gateway, grouped under the
// most recently observed host. Failures are logged and swallowed; the next
// tick pushes again on the original cadence.
func (e *Emitter) flush() {
	host := e.lastHost.Load()
	if host == "" {
		host = fallbackHost
	}

	if err := e.pusher.Push(host); err != nil {
		e.logger.Error("failed to push metrics to gateway",
			"error", err,
			"host", host,
		)
	}
}

// Close cancels all future flushes immediately. It does not wait for an
// in-flight push and does not flush a final snapshot. When configured, the
// pushed group is deleted from the gateway. Safe to call more than once.
func (e *Emitter) Close() {
	e.closeOnce.Do(func() {
		if e.sched != nil {
			e.sched.Stop()
		}
		if e.watcher != nil {
			e.watcher.Stop()
		}

		if e.pusher != nil && e.cfg.PushGateway.DeleteOnShutdown {
			host := e.lastHost.Load()
			if host == "" {
				host = fallbackHost
			}
			if err := e.pusher.Delete(host); err != nil {
				e.logger.Error("failed to delete pushgateway group",
					"error", err,
					"host", host,
				)
			}
		}
	})
}
