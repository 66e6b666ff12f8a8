/*
Package monitoring provides performance monitoring and metrics collection.

# Overview

This package implements Prometheus-based metrics collection for the organizer,
tracking tool calls, move batches, provider failures, and system metrics.

# Features

- Tool call metrics (latency, status, error kinds)
- Move metrics (files moved, failures, protected projects)
- Batch metrics (active batches, batch duration)
- Provider failure metrics
- System metrics (uptime)

# Usage

	// Create metrics collector
	metrics := monitoring.NewMetrics()

	// Record tool activity
	metrics.RecordToolCall("organizer.bulk_move", "ok", elapsed)
	metrics.AddFilesMoved(12)

	// Track a batch
	metrics.BatchStarted()
	// ... execute moves ...
	metrics.BatchFinished(elapsed)

Tests construct an isolated collector to avoid duplicate registration:

	metrics := monitoring.NewMetricsWith(prometheus.NewRegistry())

# Metrics Endpoint

The host exposes metrics via the standard Prometheus handler:

	import "github.com/prometheus/client_golang/prometheus/promhttp"
	mux.Handle("/metrics", promhttp.Handler())
*/
package monitoring
