// Package metrics exports task store activity as Prometheus metrics.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nibzard/gantt-go/internal/task"
)

const namespace = "gantt"

// Collector holds the store metrics. It is fed by Observe.
type Collector struct {
	tasks  prometheus.Gauge
	events *prometheus.CounterVec
	purged prometheus.Counter

	mu      sync.Mutex
	cancels []func()
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		tasks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tasks",
			Help:      "Number of tasks currently in the store.",
		}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "task_events_total",
			Help:      "Committed store writes by kind.",
		}, []string{"kind"}),
		purged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dependencies_purged_total",
			Help:      "Tasks whose dependency list was rewritten because a predecessor was deleted.",
		}),
	}

	for _, collector := range []prometheus.Collector{c.tasks, c.events, c.purged} {
		if err := reg.Register(collector); err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
	}
	for _, kind := range []task.EventKind{task.EventCreated, task.EventUpdated, task.EventDeleted} {
		c.events.WithLabelValues(string(kind))
	}
	return c, nil
}

// Observe starts counting writes to store and returns a function that
// stops it. The task gauge is synced to the store immediately.
func (c *Collector) Observe(store *task.Store) (cancel func()) {
	unsubscribe := store.Subscribe(func(ev task.Event) {
		c.events.WithLabelValues(string(ev.Kind)).Inc()
		if ev.Kind == task.EventDeleted && len(ev.Affected) > 0 {
			c.purged.Add(float64(len(ev.Affected)))
		}
		c.tasks.Set(float64(store.Len()))
	})
	c.tasks.Set(float64(store.Len()))

	c.mu.Lock()
	c.cancels = append(c.cancels, unsubscribe)
	c.mu.Unlock()

	var once sync.Once
	return func() { once.Do(unsubscribe) }
}

// Close stops observing every store passed to Observe.
func (c *Collector) Close() {
	c.mu.Lock()
	cancels := c.cancels
	c.cancels = nil
	c.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
}

// Handler serves the metrics gathered from g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// Serve exposes Handler(g) at /metrics on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, g prometheus.Gatherer, logger *log.Logger) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	return serve(ctx, ln, g, logger)
}

func serve(ctx context.Context, ln net.Listener, g prometheus.Gatherer, logger *log.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(g))

	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	logger.Info("serving metrics", "addr", ln.Addr().String())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown metrics server: %w", err)
		}
		logger.Debug("metrics server stopped")
		return nil
	}
}
