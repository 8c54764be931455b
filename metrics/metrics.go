// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package metrics exposes Prometheus counters for assemblies, voting and the
// realtime gateway. A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "armonia"

type Metrics struct {
	registry *prometheus.Registry

	attendance       *prometheus.CounterVec
	ballots          *prometheus.CounterVec
	quorumReached    prometheus.Counter
	votesClosed      prometheus.Counter
	broadcasts       *prometheus.CounterVec
	droppedMessages  prometheus.Counter
	wsConnections    prometheus.Gauge
	requestDurations *prometheus.HistogramVec
}

// New registers every collector on a dedicated registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		attendance: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "attendance_registrations_total",
			Help:      "Attendance registrations by outcome (created or updated).",
		}, []string{"result"}),
		ballots: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ballots_cast_total",
			Help:      "Ballots cast by outcome (created or updated).",
		}, []string{"result"}),
		quorumReached: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quorum_reached_total",
			Help:      "Assemblies that reached quorum.",
		}),
		votesClosed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "votes_closed_total",
			Help:      "Votes closed with a results snapshot.",
		}),
		broadcasts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "broadcasts_total",
			Help:      "Realtime events published, by event name.",
		}, []string{"event"}),
		droppedMessages: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ws_dropped_messages_total",
			Help:      "Messages dropped because a client's send buffer was full.",
		}),
		wsConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ws_connections",
			Help:      "Open WebSocket connections.",
		}),
		requestDurations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "status"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.attendance,
		m.ballots,
		m.quorumReached,
		m.votesClosed,
		m.broadcasts,
		m.droppedMessages,
		m.wsConnections,
		m.requestDurations,
	)

	return m
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) AttendanceRegistered(updated bool) {
	if m == nil {
		return
	}
	m.attendance.WithLabelValues(outcome(updated)).Inc()
}

func (m *Metrics) BallotCast(updated bool) {
	if m == nil {
		return
	}
	m.ballots.WithLabelValues(outcome(updated)).Inc()
}

func (m *Metrics) QuorumReached() {
	if m == nil {
		return
	}
	m.quorumReached.Inc()
}

func (m *Metrics) VoteClosed() {
	if m == nil {
		return
	}
	m.votesClosed.Inc()
}

func (m *Metrics) Broadcast(event string) {
	if m == nil {
		return
	}
	m.broadcasts.WithLabelValues(event).Inc()
}

func (m *Metrics) MessageDropped() {
	if m == nil {
		return
	}
	m.droppedMessages.Inc()
}

func (m *Metrics) ConnectionOpened() {
	if m == nil {
		return
	}
	m.wsConnections.Inc()
}

func (m *Metrics) ConnectionClosed() {
	if m == nil {
		return
	}
	m.wsConnections.Dec()
}

func (m *Metrics) ObserveRequest(method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requestDurations.WithLabelValues(method, strconv.Itoa(status)).Observe(elapsed.Seconds())
}

func outcome(updated bool) string {
	if updated {
		return "updated"
	}
	return "created"
}
