// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package matchmaker

import (
	"testing"
	"time"

	"github.com/onsi/gomega"
	"github.com/stretchr/testify/assert"

	"github.com/AccelByte/tournament-matchmaker/pkg/models"
	"github.com/AccelByte/tournament-matchmaker/pkg/testsetup"
)

func candidate(id string, skill float64, joinedAt time.Time) models.QueueEntry {
	return models.QueueEntry{
		ParticipantID: id,
		RoundNumber:   1,
		SkillLevel:    skill,
		JoinedAt:      joinedAt.UnixMilli(),
	}
}

func TestSelectBySkillWindow_EarliestInWindowWins(t *testing.T) {
	t.Parallel()
	base := time.Now()

	candidates := []models.QueueEntry{
		candidate("far", 9.0, base),
		candidate("close-late", 7.2, base.Add(2*time.Second)),
		candidate("close-early", 6.8, base.Add(time.Second)),
	}
	// FIFO order as the queue service returns it
	candidates = []models.QueueEntry{candidates[0], candidates[2], candidates[1]}

	chosen, ok := SelectBySkillWindow(7.0, 1.5, candidates)
	assert.True(t, ok)
	assert.Equal(t, "close-early", chosen.ParticipantID)
}

func TestSelectBySkillWindow_ExactThresholdIsAMatch(t *testing.T) {
	t.Parallel()

	candidates := []models.QueueEntry{candidate("edge", 8.5, time.Now())}

	chosen, ok := SelectBySkillWindow(7.0, 1.5, candidates)
	assert.True(t, ok)
	assert.Equal(t, "edge", chosen.ParticipantID)
}

func TestSelectBySkillWindow_StrictlyOutsideIsNoMatch(t *testing.T) {
	t.Parallel()

	candidates := []models.QueueEntry{candidate("outside", 8.51, time.Now())}

	_, ok := SelectBySkillWindow(7.0, 1.5, candidates)
	assert.False(t, ok)
}

func TestSelectBySkillWindow_Deterministic(t *testing.T) {
	t.Parallel()
	base := time.Now()

	candidates := []models.QueueEntry{
		candidate("a", 6.0, base),
		candidate("b", 6.0, base.Add(time.Second)),
	}

	for i := 0; i < 10; i++ {
		chosen, ok := SelectBySkillWindow(7.0, 1.5, candidates)
		assert.True(t, ok)
		assert.Equal(t, "a", chosen.ParticipantID)
	}
}

func TestSelectBySkillWindow_PrefersWindowOverCloserLateArrival(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	base := time.Now()

	candidates := []models.QueueEntry{
		candidate("in-window-first", 8.4, base),
		candidate("closer-but-later", 7.1, base.Add(time.Second)),
	}

	chosen, ok := SelectBySkillWindow(7.0, 1.5, candidates)
	g.Expect(ok).To(gomega.BeTrue())
	g.Expect(chosen.ParticipantID).To(gomega.Equal("in-window-first"))
}

func TestSelectClosestBySkill_ArgminWithFIFOTieBreak(t *testing.T) {
	t.Parallel()
	base := time.Now()

	candidates := []models.QueueEntry{
		candidate("first-at-distance", 5.0, base),
		candidate("second-at-distance", 9.0, base.Add(time.Second)),
		candidate("farther", 3.0, base.Add(2*time.Second)),
	}

	chosen := SelectClosestBySkill(7.0, candidates)
	assert.Equal(t, "first-at-distance", chosen.ParticipantID)
}
