// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package constants

import (
	"fmt"
	"time"
)

// Shared-store key layout. Every live-state key the service touches is
// produced by one of these helpers so the layout stays in one place.

const QueueKeyPattern = "queue:*"

func QueueKey(roundNumber int) string {
	return fmt.Sprintf("queue:round:%d", roundNumber)
}

func MatchKey(matchID string) string {
	return fmt.Sprintf("match:%s", matchID)
}

func ParticipantStatusKey(participantID string) string {
	return fmt.Sprintf("participant:%s:status", participantID)
}

func MatchLockKey(roundNumber int) string {
	return fmt.Sprintf("matchlock:round:%d", roundNumber)
}

func DailyStatsKey(t time.Time) string {
	return fmt.Sprintf("stats:%s", t.UTC().Format("2006-01-02"))
}
