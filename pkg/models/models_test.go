// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchFields_IsAISurvivesStringCoercion(t *testing.T) {
	t.Parallel()

	match := Match{
		ID:             "m-1",
		Participant1ID: "p-1",
		RoundNumber:    4,
		MatchType:      "human-vs-ai",
		Status:         "active",
		CreatedAt:      time.Now().UnixMilli(),
		IsAI:           true,
		Opponent:       `{"id":"ai_opponent_1"}`,
		AISettings:     `{"opponentId":"ai_opponent_1"}`,
	}

	fields := match.ToFields()
	assert.Equal(t, "true", fields["isAI"], "shared store holds strings")
	assert.Equal(t, "4", fields["round_number"])

	loaded := MatchFromFields(fields)
	assert.True(t, loaded.IsAI)
	assert.Equal(t, match.RoundNumber, loaded.RoundNumber)
	assert.Equal(t, match.CreatedAt, loaded.CreatedAt)
	assert.Equal(t, match.AISettings, loaded.AISettings)
}

func TestMatchFields_OmitsEmptyOptionals(t *testing.T) {
	t.Parallel()

	match := Match{ID: "m-1", Participant1ID: "p-1", MatchType: "live-human"}
	fields := match.ToFields()

	_, hasName := fields["participant1_name"]
	assert.False(t, hasName)
	_, hasSettings := fields["aiSettings"]
	assert.False(t, hasSettings)
}

func TestQueueEntry_Age(t *testing.T) {
	t.Parallel()

	now := time.Now()
	entry := QueueEntry{JoinedAt: now.Add(-90 * time.Second).UnixMilli()}
	assert.InDelta(t, 90, entry.Age(now).Seconds(), 1)
}

func TestDecodeQueueEntry_RejectsGarbage(t *testing.T) {
	t.Parallel()

	_, err := DecodeQueueEntry("{broken")
	require.Error(t, err)
}
