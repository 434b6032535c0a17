// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type prometheusMetrics struct {
	queueJoins        prometheus.CounterVec
	matchesCreated    prometheus.CounterVec
	searchDuration    prometheus.HistogramVec
	activeSearches    prometheus.Gauge
	connectedSessions prometheus.Gauge
}

func setupPrometheusMetrics(registry *prometheus.Registry) prometheusMetrics {
	factory := promauto.With(registry)

	queueJoins := factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tm_queue_joins_total",
			Help: "A counter of participants entering a round queue",
		}, []string{"round", "treatment_group"})

	matchesCreated := factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tm_matches_created_total",
			Help: "A counter of produced matches by type",
		}, []string{"match_type"})

	//nolint:promlinter
	searchDuration := factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tm_search_duration_ms",
			Help:    "A histogram of search durations from start-search to resolution in milliseconds",
			Buckets: prometheus.ExponentialBuckets(100, 2, 12),
		}, []string{"round", "outcome"})

	activeSearches := factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "tm_active_searches",
			Help: "The number of in-flight participant searches",
		})

	connectedSessions := factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "tm_connected_sessions",
			Help: "The number of live push sessions",
		})

	return prometheusMetrics{
		queueJoins:        *queueJoins,
		matchesCreated:    *matchesCreated,
		searchDuration:    *searchDuration,
		activeSearches:    activeSearches,
		connectedSessions: connectedSessions,
	}
}

func (metrics prometheusMetrics) AddQueueJoin(roundNumber int, treatmentGroup string) {
	metrics.queueJoins.With(prometheus.Labels{"round": strconv.Itoa(roundNumber), "treatment_group": treatmentGroup}).Add(float64(1))
}

func (metrics prometheusMetrics) AddMatchCreated(matchType string) {
	metrics.matchesCreated.With(prometheus.Labels{"match_type": matchType}).Add(float64(1))
}

func (metrics prometheusMetrics) AddSearchDurationMs(roundNumber int, outcome string, elapsed time.Duration) {
	metrics.searchDuration.With(prometheus.Labels{"round": strconv.Itoa(roundNumber), "outcome": outcome}).Observe(float64(elapsed.Milliseconds()))
}

func (metrics prometheusMetrics) SetActiveSearches(count int) {
	metrics.activeSearches.Set(float64(count))
}

func (metrics prometheusMetrics) SetConnectedSessions(count int) {
	metrics.connectedSessions.Set(float64(count))
}
