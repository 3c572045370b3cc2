package cmd

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/nibzard/gantt-go/internal/metrics"
	"github.com/nibzard/gantt-go/internal/task"
)

// startMetrics serves store metrics on the configured address. It is a
// no-op when metrics_addr is empty. The returned function stops the server
// and the store subscription.
func (a *app) startMetrics(ctx context.Context, store *task.Store) (stop func(), err error) {
	if a.cfg.MetricsAddr == "" {
		return func() {}, nil
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector, err := metrics.New(reg)
	if err != nil {
		return nil, err
	}
	unobserve := collector.Observe(store)

	srvCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := metrics.Serve(srvCtx, a.cfg.MetricsAddr, reg, a.logger); err != nil {
			a.logger.Error("metrics server failed", "err", err)
		}
	}()

	return func() {
		cancel()
		<-done
		unobserve()
	}, nil
}
