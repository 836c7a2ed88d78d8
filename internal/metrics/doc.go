/*
Package metrics exports dispatcher measurements of a Dokan mount to
Prometheus.

# Overview

Collector implements dokan.MetricsRecorder. Pass it in dokan.Config.Metrics
and every driver callback is counted by operation and returned status, timed,
and, for reads and writes, sized. Failures recovered by the dispatcher are
counted by error code, and the number of open file contexts is kept in a
gauge.

	┌─────────────┐      ┌──────────────┐
	│ dokan.Proxy │ ───► │  Collector   │
	└─────────────┘      └──────┬───────┘
	                            │
	            ┌───────────────┴──────────────┐
	            │                              │
	     ┌──────▼───────┐            ┌─────────▼─────────┐
	     │  Prometheus  │            │  HTTP Endpoints   │
	     │   Registry   │            │  /metrics         │
	     └──────────────┘            │  /health          │
	                                 │  /debug/operations│
	                                 └───────────────────┘

# Usage

	collector, err := metrics.NewCollector(&metrics.Config{
		Enabled:   true,
		Port:      9090,
		Path:      "/metrics",
		Namespace: "dokan",
	})
	if err != nil {
		return err
	}
	if err := collector.Start(ctx); err != nil {
		return err
	}
	defer collector.Stop(context.Background())

	fs, err := dokan.New(handler, dokan.Config{Options: opts, Metrics: collector})

# Exported Series

	dokan_operations_total{operation, status}
	dokan_operation_duration_seconds{operation}
	dokan_operation_size_bytes{operation}
	dokan_dispatch_failures_total{operation, code}
	dokan_open_handles

A disabled collector accepts every call and records nothing.
*/
package metrics
