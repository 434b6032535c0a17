// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package testsetup

import (
	"time"

	"github.com/AccelByte/tournament-matchmaker/pkg/metrics"
)

type stubMetricsCollection struct{}

func (s stubMetricsCollection) AddQueueJoin(roundNumber int, treatmentGroup string) {}

func (s stubMetricsCollection) AddMatchCreated(matchType string) {}

func (s stubMetricsCollection) AddSearchDurationMs(roundNumber int, outcome string, elapsed time.Duration) {
}

func (s stubMetricsCollection) SetActiveSearches(count int) {}

func (s stubMetricsCollection) SetConnectedSessions(count int) {}

func NewMetrics() metrics.MatchmakingMetrics {
	return stubMetricsCollection{}
}
