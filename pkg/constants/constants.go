// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package constants

import "time"

const (
	// MatchLockTTL bounds the stall from a crashed pair attempt.
	MatchLockTTL = 5 * time.Second

	// QueueKeyTTL is the sliding TTL on each per-round queue key.
	QueueKeyTTL = 10 * time.Minute

	// QueueEntryMaxAge is the age past which a queue entry is garbage.
	QueueEntryMaxAge = 5 * time.Minute

	// ParticipantStatusTTL bounds stale participant status records.
	ParticipantStatusTTL = 1 * time.Hour

	// MatchRecordTTL is the auto-expiry of live match records.
	MatchRecordTTL = 2 * time.Hour

	// DailyStatsTTL keeps daily counters for a week.
	DailyStatsTTL = 7 * 24 * time.Hour

	// ActiveSearchMaxAge is the staleness limit for in-process search records.
	ActiveSearchMaxAge = 10 * time.Minute

	// CleanupInterval is the cadence of the engine housekeeping job.
	CleanupInterval = 5 * time.Minute
)

// Participant statuses.
const (
	StatusSearching    = "searching"
	StatusMatching     = "matching"
	StatusMatched      = "matched"
	StatusCancelled    = "cancelled"
	StatusDisconnected = "disconnected"
	StatusTimeout      = "timeout"
	StatusWaiting      = "waiting"
)

// Match types.
const (
	MatchTypeLiveHuman = "live-human"
	MatchTypeHumanVsAI = "human-vs-ai"
)

// Match statuses.
const (
	MatchStatusActive    = "active"
	MatchStatusPending   = "pending"
	MatchStatusCompleted = "completed"
	MatchStatusCancelled = "cancelled"
	MatchStatusPaused    = "paused"
)

// Search outcome reasons for metrics.
const (
	OutcomeHumanMatch = "human_match"
	OutcomeAIFallback = "ai_fallback"
	OutcomeCancelled  = "cancelled"
)

// AnyRound is the sentinel round number meaning "whichever round the
// participant is searching in". Sent by the dispatcher on disconnect.
const AnyRound = 0

// Round bounds of the experiment.
const (
	MinRoundNumber = 1
	MaxRoundNumber = 10
)

// Skill level bounds.
const (
	MinSkillLevel = 1.0
	MaxSkillLevel = 10.0
)

// Daily stats field names.
const (
	StatQueueJoins   = "queue_joins"
	StatHumanMatches = "human_matches"
	StatAIMatches    = "ai_matches"
)
