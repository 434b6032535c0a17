// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type MatchmakingMetrics interface {
	AddQueueJoin(roundNumber int, treatmentGroup string)
	AddMatchCreated(matchType string)
	AddSearchDurationMs(roundNumber int, outcome string, elapsed time.Duration)
	SetActiveSearches(count int)
	SetConnectedSessions(count int)
}

func NewMetrics(registry *prometheus.Registry) MatchmakingMetrics {
	return setupPrometheusMetrics(registry)
}
