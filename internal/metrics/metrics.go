// Package metrics exposes Prometheus collectors for multipart sessions and
// file operations on a private registry.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/beanbocchi/blobfs/internal/client/objectstore"
	"github.com/beanbocchi/blobfs/internal/filesystem"
)

type Metrics struct {
	reg       *prometheus.Registry
	sessions  *prometheus.CounterVec
	parts     prometheus.Counter
	partBytes prometheus.Counter
	bytes     *prometheus.CounterVec
	ops       *prometheus.CounterVec
	latency   *prometheus.HistogramVec
}

var _ filesystem.SessionObserver = (*Metrics)(nil)

func New() *Metrics {
	reg := prometheus.NewRegistry()

	sessions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "blobfs",
		Subsystem: "upload",
		Name:      "sessions_total",
		Help:      "Multipart sessions by lifecycle event.",
	}, []string{"event"}) // event = "initiated" | "completed" | "failed"
	parts := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "blobfs",
		Subsystem: "upload",
		Name:      "parts_total",
		Help:      "Total number of parts uploaded.",
	})
	partBytes := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "blobfs",
		Subsystem: "upload",
		Name:      "part_bytes_total",
		Help:      "Total bytes uploaded in parts.",
	})
	bytes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "blobfs",
		Subsystem: "fs",
		Name:      "bytes_total",
		Help:      "Total bytes moved by file operations.",
	}, []string{"op"})
	ops := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "blobfs",
		Subsystem: "fs",
		Name:      "ops_total",
		Help:      "Total number of file operations by result.",
	}, []string{"op", "result"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "blobfs",
		Subsystem: "fs",
		Name:      "op_duration_seconds",
		Help:      "Histogram of file operation durations in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"op"})

	reg.MustRegister(sessions, parts, partBytes, bytes, ops, latency)

	return &Metrics{
		reg:       reg,
		sessions:  sessions,
		parts:     parts,
		partBytes: partBytes,
		bytes:     bytes,
		ops:       ops,
		latency:   latency,
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// Observe records one file operation. The result label is the error kind,
// or "ok".
func (m *Metrics) Observe(op string, bytes int64, err error, dur time.Duration) {
	result := "ok"
	if err != nil {
		result = filesystem.KindOf(err).String()
	}
	if bytes > 0 {
		m.bytes.WithLabelValues(op).Add(float64(bytes))
	}
	m.ops.WithLabelValues(op, result).Inc()
	m.latency.WithLabelValues(op).Observe(dur.Seconds())
}

func (m *Metrics) SessionInitiated(ctx context.Context, key, uploadID, contentType string) {
	m.sessions.WithLabelValues("initiated").Inc()
}

func (m *Metrics) PartUploaded(ctx context.Context, uploadID string, part objectstore.Part, size int) {
	m.parts.Inc()
	m.partBytes.Add(float64(size))
}

func (m *Metrics) SessionCompleted(ctx context.Context, uploadID string) {
	m.sessions.WithLabelValues("completed").Inc()
}

func (m *Metrics) SessionFailed(ctx context.Context, uploadID string, err error) {
	m.sessions.WithLabelValues("failed").Inc()
}
