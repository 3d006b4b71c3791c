// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package metrics registers sysdbd's own operational counters and gauges
// (connection counts, query throughput, store size, backend writes) and
// serves them. No other package updates these series, so they are served
// at their initial values. It follows the flat
// package-level-vars-plus-init-registration shape used throughout the
// examples pack's own metrics packages.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/version"
)

var (
	ConnectionsOpen = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "sysdbd_connections_open",
			Help: "Number of currently open client connections.",
		},
	)

	ConnectionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sysdbd_connections_total",
			Help: "Total number of client connections accepted since startup.",
		},
	)

	QueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sysdbd_queries_total",
			Help: "Total number of queries handled, by statement kind and result.",
		},
		[]string{"kind", "result"},
	)

	QueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sysdbd_query_duration_seconds",
			Help:    "Query execution duration in seconds, by statement kind.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	StoreObjectsTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sysdbd_store_objects_total",
			Help: "Number of objects currently held in the store, by kind.",
		},
		[]string{"kind"},
	)

	BackendWritesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sysdbd_backend_writes_total",
			Help: "Total number of store writes applied by each ingestion backend.",
		},
		[]string{"backend", "result"},
	)
)

func init() {
	prometheus.MustRegister(ConnectionsOpen)
	prometheus.MustRegister(ConnectionsTotal)
	prometheus.MustRegister(QueriesTotal)
	prometheus.MustRegister(QueryDuration)
	prometheus.MustRegister(StoreObjectsTotal)
	prometheus.MustRegister(BackendWritesTotal)
	prometheus.MustRegister(version.NewCollector("sysdbd"))
}

// Handler returns the HTTP handler serving metrics in the Prometheus
// exposition format.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer times an in-flight operation and reports its duration to a
// histogram vec on Observe.
type Timer struct {
	start time.Time
}

// NewTimer starts a timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the elapsed time against histogram, labeled by
// labels.
func (t *Timer) ObserveDuration(histogram *prometheus.HistogramVec, labels ...string) {
	histogram.WithLabelValues(labels...).Observe(time.Since(t.start).Seconds())
}
