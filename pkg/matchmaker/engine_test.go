// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package matchmaker_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AccelByte/tournament-matchmaker/pkg/config"
	"github.com/AccelByte/tournament-matchmaker/pkg/constants"
	"github.com/AccelByte/tournament-matchmaker/pkg/envelope"
	"github.com/AccelByte/tournament-matchmaker/pkg/lockservice"
	"github.com/AccelByte/tournament-matchmaker/pkg/matchmaker"
	"github.com/AccelByte/tournament-matchmaker/pkg/models"
	"github.com/AccelByte/tournament-matchmaker/pkg/persistence"
	"github.com/AccelByte/tournament-matchmaker/pkg/queueservice"
	"github.com/AccelByte/tournament-matchmaker/pkg/registry"
	"github.com/AccelByte/tournament-matchmaker/pkg/simulator"
	"github.com/AccelByte/tournament-matchmaker/pkg/testsetup"
)

const (
	participantA = "00000000-0000-4000-8000-000000000001"
	participantB = "00000000-0000-4000-8000-000000000002"
	participantC = "00000000-0000-4000-8000-000000000003"
)

// captureObserver records every match-found notification.
type captureObserver struct {
	mu      sync.Mutex
	matches []models.Match
}

func (c *captureObserver) MatchFound(scope *envelope.Scope, match models.Match) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.matches = append(c.matches, match)
}

func (c *captureObserver) all() []models.Match {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.Match, len(c.matches))
	copy(out, c.matches)

	return out
}

type engineFixture struct {
	engine   *matchmaker.Engine
	observer *captureObserver
	queues   *queueservice.Service
	registry *registry.Service
}

func newEngineFixture(t *testing.T, mutate func(*config.Config)) engineFixture {
	t.Helper()

	cfg := config.Default()
	// keep background machinery fast in tests
	cfg.HumanSearchTimeoutMs = 250
	cfg.SearchIntervalMs = 50
	if mutate != nil {
		mutate(cfg)
	}

	store, _ := testsetup.NewMiniredisStore(t)
	queues := queueservice.New(store, cfg.MaxQueueSize)
	locks := lockservice.New(store)
	reg := registry.New(store)
	sim := simulator.New()

	engine := matchmaker.NewEngine(cfg, store, queues, locks, reg, sim, persistence.NewNopSink(), testsetup.NewMetrics())
	observer := &captureObserver{}
	engine.SetMatchObserver(observer)

	return engineFixture{engine: engine, observer: observer, queues: queues, registry: reg}
}

func startRequest(id string, round int, skill float64) models.StartRequest {
	return models.StartRequest{
		ParticipantID:  id,
		RoundNumber:    round,
		SkillLevel:     skill,
		TreatmentGroup: models.TreatmentAliasTournament,
	}
}

func TestStartMatchmaking_EmptyQueueFallsBackToAI(t *testing.T) {
	t.Parallel()
	scope := testsetup.NewTestScope()
	fx := newEngineFixture(t, nil)

	result := fx.engine.StartMatchmaking(scope, startRequest(participantA, 1, 7.0))
	require.Equal(t, models.StartStatusSearching, result.Status)
	assert.Equal(t, 1, result.QueuePosition)

	require.Eventually(t, func() bool {
		return len(fx.observer.all()) == 1
	}, 2*time.Second, 20*time.Millisecond)

	match := fx.observer.all()[0]
	assert.True(t, match.IsAI)
	assert.Equal(t, participantA, match.Participant1ID)
	assert.Empty(t, match.Participant2ID)
	assert.Equal(t, constants.MatchTypeHumanVsAI, match.MatchType)

	info, err := models.DecodeOpponentInfo(match.Opponent)
	require.NoError(t, err)
	assert.True(t, info.IsAI)
	assert.InDelta(t, 7.0, info.SkillLevel, 1.5+0.3)

	status, err := fx.registry.GetStatus(scope, participantA)
	require.NoError(t, err)
	assert.Equal(t, constants.StatusMatched, status)
	assert.Equal(t, 0, fx.engine.ActiveSearchCount())
}

func TestStartMatchmaking_ImmediateHumanPairing(t *testing.T) {
	t.Parallel()
	scope := testsetup.NewTestScope()
	fx := newEngineFixture(t, func(cfg *config.Config) {
		cfg.HumanSearchTimeoutMs = 5000 // fallback must not fire
	})

	resultA := fx.engine.StartMatchmaking(scope, startRequest(participantA, 1, 7.0))
	require.Equal(t, models.StartStatusSearching, resultA.Status)

	resultB := fx.engine.StartMatchmaking(scope, startRequest(participantB, 1, 7.5))
	require.Equal(t, models.StartStatusMatched, resultB.Status)
	require.NotNil(t, resultB.Match)

	match := *resultB.Match
	assert.False(t, match.IsAI)
	assert.Equal(t, constants.MatchTypeLiveHuman, match.MatchType)
	assert.Equal(t, participantB, match.Participant1ID)
	assert.Equal(t, participantA, match.Participant2ID)
	assert.NotEqual(t, match.Participant1ID, match.Participant2ID)

	for _, id := range []string{participantA, participantB} {
		status, err := fx.registry.GetStatus(scope, id)
		require.NoError(t, err)
		assert.Equal(t, constants.StatusMatched, status)
	}

	size, err := fx.queues.GetQueueSize(scope, constants.QueueKey(1))
	require.NoError(t, err)
	assert.EqualValues(t, 0, size)

	// both searches resolved, no fallback pending
	assert.Equal(t, 0, fx.engine.ActiveSearchCount())
	assert.Len(t, fx.observer.all(), 1)
}

func TestStartMatchmaking_SkillWindowExclusionForcesAI(t *testing.T) {
	t.Parallel()
	scope := testsetup.NewTestScope()
	fx := newEngineFixture(t, nil)

	resultA := fx.engine.StartMatchmaking(scope, startRequest(participantA, 1, 3.0))
	require.Equal(t, models.StartStatusSearching, resultA.Status)

	resultB := fx.engine.StartMatchmaking(scope, startRequest(participantB, 1, 9.0))
	require.Equal(t, models.StartStatusSearching, resultB.Status)

	require.Eventually(t, func() bool {
		return len(fx.observer.all()) == 2
	}, 2*time.Second, 20*time.Millisecond)

	matched := map[string]bool{}
	for _, match := range fx.observer.all() {
		assert.True(t, match.IsAI)
		assert.False(t, matched[match.Participant1ID], "participant matched twice")
		matched[match.Participant1ID] = true
	}
	assert.True(t, matched[participantA])
	assert.True(t, matched[participantB])
}

func TestStartMatchmaking_SecondCallIsIdempotent(t *testing.T) {
	t.Parallel()
	scope := testsetup.NewTestScope()
	fx := newEngineFixture(t, func(cfg *config.Config) {
		cfg.HumanSearchTimeoutMs = 5000
	})

	first := fx.engine.StartMatchmaking(scope, startRequest(participantA, 1, 7.0))
	require.Equal(t, models.StartStatusSearching, first.Status)

	second := fx.engine.StartMatchmaking(scope, startRequest(participantA, 1, 7.0))
	assert.Equal(t, models.StartStatusAlreadySearching, second.Status)

	size, err := fx.queues.GetQueueSize(scope, constants.QueueKey(1))
	require.NoError(t, err)
	assert.EqualValues(t, 1, size, "second start must not add a second queue entry")
}

func TestCancelMatchmaking_StopsSearchAndFallback(t *testing.T) {
	t.Parallel()
	scope := testsetup.NewTestScope()
	fx := newEngineFixture(t, nil)

	result := fx.engine.StartMatchmaking(scope, startRequest(participantA, 1, 7.0))
	require.Equal(t, models.StartStatusSearching, result.Status)

	require.NoError(t, fx.engine.CancelMatchmaking(scope, participantA, 1))

	status, err := fx.registry.GetStatus(scope, participantA)
	require.NoError(t, err)
	assert.Equal(t, constants.StatusCancelled, status)
	assert.Equal(t, 0, fx.engine.ActiveSearchCount())

	size, err := fx.queues.GetQueueSize(scope, constants.QueueKey(1))
	require.NoError(t, err)
	assert.EqualValues(t, 0, size)

	// the armed fallback must find no active search and stay silent
	time.Sleep(500 * time.Millisecond)
	assert.Empty(t, fx.observer.all(), "no match_found after cancellation")
}

func TestDisconnect_ClearsSearchWithRoundSentinel(t *testing.T) {
	t.Parallel()
	scope := testsetup.NewTestScope()
	fx := newEngineFixture(t, nil)

	result := fx.engine.StartMatchmaking(scope, startRequest(participantA, 4, 7.0))
	require.Equal(t, models.StartStatusSearching, result.Status)

	// disconnect carries no round; the engine resolves it from the
	// active-search record
	require.NoError(t, fx.engine.DisconnectParticipant(scope, participantA))

	status, err := fx.registry.GetStatus(scope, participantA)
	require.NoError(t, err)
	assert.Equal(t, constants.StatusDisconnected, status)
	assert.Equal(t, 0, fx.engine.ActiveSearchCount())

	size, err := fx.queues.GetQueueSize(scope, constants.QueueKey(4))
	require.NoError(t, err)
	assert.EqualValues(t, 0, size)

	time.Sleep(500 * time.Millisecond)
	assert.Empty(t, fx.observer.all())
}

func TestCancelMatchmaking_RoundZeroWithoutSearchIsNoOp(t *testing.T) {
	t.Parallel()
	scope := testsetup.NewTestScope()
	fx := newEngineFixture(t, nil)

	require.NoError(t, fx.engine.CancelMatchmaking(scope, participantA, constants.AnyRound))

	status, err := fx.registry.GetStatus(scope, participantA)
	require.NoError(t, err)
	assert.Equal(t, constants.StatusCancelled, status)
}

func TestConcurrentStarts_NoDoubleMatching(t *testing.T) {
	t.Parallel()
	scope := testsetup.NewTestScope()
	fx := newEngineFixture(t, nil)

	ids := []string{participantA, participantB, participantC}
	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			fx.engine.StartMatchmaking(scope, startRequest(id, 1, 7.0))
		}(id)
	}
	wg.Wait()

	// every participant resolves by human pair or AI fallback
	require.Eventually(t, func() bool {
		seen := map[string]bool{}
		for _, match := range fx.observer.all() {
			seen[match.Participant1ID] = true
			if match.Participant2ID != "" {
				seen[match.Participant2ID] = true
			}
		}
		return len(seen) == len(ids)
	}, 3*time.Second, 20*time.Millisecond)

	humanMatches := 0
	appearances := map[string]int{}
	for _, match := range fx.observer.all() {
		appearances[match.Participant1ID]++
		if match.Participant2ID != "" {
			humanMatches++
			appearances[match.Participant2ID]++
			assert.NotEqual(t, match.Participant1ID, match.Participant2ID)
		}
	}
	assert.LessOrEqual(t, humanMatches, 1, "at most one human pair from three starters")
	for id, count := range appearances {
		assert.Equal(t, 1, count, "participant %s appears in more than one match", id)
	}
}

func TestCreateAIMatch_GetMatchRoundTrip(t *testing.T) {
	t.Parallel()
	scope := testsetup.NewTestScope()
	fx := newEngineFixture(t, nil)

	entry := models.QueueEntry{
		ParticipantID: participantA,
		RoundNumber:   2,
		SkillLevel:    6.0,
		JoinedAt:      time.Now().UnixMilli(),
	}
	created := fx.engine.CreateAIMatch(scope, entry)

	loaded, err := fx.engine.GetMatch(scope, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, loaded.ID)
	assert.Equal(t, created.Participant1ID, loaded.Participant1ID)
	assert.Equal(t, created.Participant2ID, loaded.Participant2ID)
	assert.Equal(t, created.RoundNumber, loaded.RoundNumber)
	assert.Equal(t, created.IsAI, loaded.IsAI)
}

func TestGetMatch_UnknownIDFails(t *testing.T) {
	t.Parallel()
	scope := testsetup.NewTestScope()
	fx := newEngineFixture(t, nil)

	_, err := fx.engine.GetMatch(scope, "ffffffff-0000-4000-8000-000000000000")
	assert.ErrorIs(t, err, models.ErrMatchNotFound)
}

func TestUpdateMatchStatus(t *testing.T) {
	t.Parallel()
	scope := testsetup.NewTestScope()
	fx := newEngineFixture(t, nil)

	entry := models.QueueEntry{ParticipantID: participantA, RoundNumber: 1, SkillLevel: 6.0, JoinedAt: time.Now().UnixMilli()}
	created := fx.engine.CreateAIMatch(scope, entry)

	require.NoError(t, fx.engine.UpdateMatchStatus(scope, created.ID, constants.MatchStatusCompleted))

	loaded, err := fx.engine.GetMatch(scope, created.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.MatchStatusCompleted, loaded.Status)
}

func TestGetQueueStatus(t *testing.T) {
	t.Parallel()
	scope := testsetup.NewTestScope()
	fx := newEngineFixture(t, func(cfg *config.Config) {
		cfg.HumanSearchTimeoutMs = 60000
	})

	result := fx.engine.StartMatchmaking(scope, startRequest(participantA, 3, 7.0))
	require.Equal(t, models.StartStatusSearching, result.Status)

	status, err := fx.engine.GetQueueStatus(scope, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, status.RoundNumber)
	assert.Equal(t, 1, status.TotalWaiting)
	assert.GreaterOrEqual(t, status.EstimatedWaitTime, status.AverageWaitTime)
}

func TestRunCleanup_RemovesExpiredEntries(t *testing.T) {
	t.Parallel()
	scope := testsetup.NewTestScope()
	fx := newEngineFixture(t, nil)

	stale := models.QueueEntry{
		ParticipantID: participantB,
		RoundNumber:   1,
		SkillLevel:    5.0,
		JoinedAt:      time.Now().Add(-10 * time.Minute).UnixMilli(),
		Status:        constants.StatusWaiting,
	}
	require.NoError(t, fx.queues.AddToQueue(scope, constants.QueueKey(1), stale))

	fx.engine.RunCleanup(scope)

	size, err := fx.queues.GetQueueSize(scope, constants.QueueKey(1))
	require.NoError(t, err)
	assert.EqualValues(t, 0, size)
}
