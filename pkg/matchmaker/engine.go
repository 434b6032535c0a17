// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package matchmaker

import (
	"context"
	"sync"
	"time"

	"github.com/AccelByte/tournament-matchmaker/pkg/config"
	"github.com/AccelByte/tournament-matchmaker/pkg/constants"
	"github.com/AccelByte/tournament-matchmaker/pkg/envelope"
	"github.com/AccelByte/tournament-matchmaker/pkg/lockservice"
	"github.com/AccelByte/tournament-matchmaker/pkg/metrics"
	"github.com/AccelByte/tournament-matchmaker/pkg/models"
	"github.com/AccelByte/tournament-matchmaker/pkg/persistence"
	"github.com/AccelByte/tournament-matchmaker/pkg/queueservice"
	"github.com/AccelByte/tournament-matchmaker/pkg/registry"
	"github.com/AccelByte/tournament-matchmaker/pkg/simulator"
	"github.com/AccelByte/tournament-matchmaker/pkg/storage"
)

// activeSearch is the in-process record of one participant's search. At
// most one exists per participant id at any instant.
type activeSearch struct {
	entry     models.QueueEntry
	startedAt time.Time
	attempts  int

	// cancel is the per-search cancellation token. Starting a match,
	// cancelling, or disconnecting cancels it; the scanner and the
	// fallback timer both observe it on every wake.
	ctx      context.Context
	cancel   context.CancelFunc
	fallback *time.Timer
}

type Engine struct {
	cfg      *config.Config
	store    *storage.Client
	queues   *queueservice.Service
	locks    *lockservice.Service
	registry *registry.Service
	sim      *simulator.Simulator
	sink     persistence.Sink
	metrics  metrics.MatchmakingMetrics
	observer MatchObserver

	mu       sync.Mutex
	searches map[string]*activeSearch

	stopCleanup context.CancelFunc
}

func NewEngine(
	cfg *config.Config,
	store *storage.Client,
	queues *queueservice.Service,
	locks *lockservice.Service,
	reg *registry.Service,
	sim *simulator.Simulator,
	sink persistence.Sink,
	mmMetrics metrics.MatchmakingMetrics,
) *Engine {
	return &Engine{
		cfg:      cfg,
		store:    store,
		queues:   queues,
		locks:    locks,
		registry: reg,
		sim:      sim,
		sink:     sink,
		metrics:  mmMetrics,
		searches: map[string]*activeSearch{},
	}
}

// SetMatchObserver injects the transport-side observer. Must be called
// before the first StartMatchmaking.
func (e *Engine) SetMatchObserver(observer MatchObserver) {
	e.observer = observer
}

// StartMatchmaking registers a search, enqueues the participant, attempts
// one immediate pair, and otherwise arms the continuous scanner plus the
// AI-fallback timer. Any unrecoverable error on this path degrades to an
// immediate AI match so the participant is never left hanging.
func (e *Engine) StartMatchmaking(rootScope *envelope.Scope, req models.StartRequest) *models.StartResult {
	scope := rootScope.NewChildScope("Engine.StartMatchmaking")
	defer scope.Finish()
	scope.SetAttributes(envelope.ParticipantIDTag, req.ParticipantID)
	scope.SetAttributes(envelope.RoundNumberTag, req.RoundNumber)

	entry := models.QueueEntry{
		ParticipantID:   req.ParticipantID,
		ParticipantName: req.ParticipantName,
		RoundNumber:     req.RoundNumber,
		SkillLevel:      req.SkillLevel,
		TreatmentGroup:  req.TreatmentGroup,
		JoinedAt:        time.Now().UnixMilli(),
		Status:          constants.StatusWaiting,
	}

	search, created := e.registerSearch(entry)
	if !created {
		scope.Log.WithField("participantId", req.ParticipantID).Info("search already in progress")

		position, _ := e.queues.GetQueuePosition(scope, constants.QueueKey(req.RoundNumber), req.ParticipantID)

		return &models.StartResult{Status: models.StartStatusAlreadySearching, QueuePosition: position}
	}

	statusMeta := map[string]string{
		"round_number":    itoa(req.RoundNumber),
		"skill_level":     ftoa(req.SkillLevel),
		"treatment_group": req.TreatmentGroup,
	}
	if err := e.registry.Set(scope, req.ParticipantID, constants.StatusSearching, statusMeta); err != nil {
		scope.Log.Warnf("failed writing searching status: %s", err)
	}

	queueKey := constants.QueueKey(req.RoundNumber)
	if err := e.queues.RemoveFromQueue(scope, queueKey, req.ParticipantID); err != nil {
		scope.Log.Warnf("defensive dequeue failed: %s", err)
	}

	if err := e.queues.AddToQueue(scope, queueKey, entry); err != nil {
		if err == models.ErrAlreadyMatched {
			e.clearSearch(req.ParticipantID)
			status, _ := e.registry.GetStatus(scope, req.ParticipantID)

			return &models.StartResult{Status: status}
		}
		scope.Log.Errorf("enqueue failed, degrading to AI match: %s", err)

		return e.degradeToAIMatch(scope, search)
	}

	e.metrics.AddQueueJoin(req.RoundNumber, req.TreatmentGroup)
	e.incrementDailyStat(scope, constants.StatQueueJoins)

	match, err := e.findImmediateMatch(scope, entry)
	if err == models.ErrAlreadyMatched {
		// a concurrent pair attempt won while this one was enqueueing
		e.clearSearch(req.ParticipantID)

		return &models.StartResult{Status: models.StartStatusMatched}
	}
	if err != nil && err != models.ErrLockNotAcquired && err != models.ErrNoCandidate {
		scope.Log.Errorf("immediate pair attempt failed, degrading to AI match: %s", err)

		return e.degradeToAIMatch(scope, search)
	}
	if match != nil {
		e.claimSearch(req.ParticipantID, constants.OutcomeHumanMatch)
		e.notifyMatchFound(scope, *match)

		return &models.StartResult{Status: models.StartStatusMatched, Match: match}
	}

	go e.runContinuousSearch(scope, search)
	e.armFallbackTimer(scope, search)

	position, _ := e.queues.GetQueuePosition(scope, queueKey, req.ParticipantID)
	status, _ := e.GetQueueStatus(scope, req.RoundNumber)

	return &models.StartResult{
		Status:               models.StartStatusSearching,
		QueuePosition:        position,
		EstimatedWaitSeconds: status.EstimatedWaitTime,
	}
}

// CancelMatchmaking tears down the search and marks the participant
// cancelled. A roundNumber of constants.AnyRound (sent on disconnect)
// resolves to the round recorded in the active search, when one exists.
func (e *Engine) CancelMatchmaking(rootScope *envelope.Scope, participantID string, roundNumber int) error {
	scope := rootScope.NewChildScope("Engine.CancelMatchmaking")
	defer scope.Finish()

	e.teardownSearch(scope, participantID, roundNumber)

	return e.registry.Set(scope, participantID, constants.StatusCancelled, nil)
}

// DisconnectParticipant is the transport-drop variant of cancellation:
// same teardown, status disconnected.
func (e *Engine) DisconnectParticipant(rootScope *envelope.Scope, participantID string) error {
	scope := rootScope.NewChildScope("Engine.DisconnectParticipant")
	defer scope.Finish()

	e.teardownSearch(scope, participantID, constants.AnyRound)

	return e.registry.Set(scope, participantID, constants.StatusDisconnected, nil)
}

// TimeoutParticipant marks a heartbeat-expired session and tears down any
// search it had in flight.
func (e *Engine) TimeoutParticipant(rootScope *envelope.Scope, participantID string) error {
	scope := rootScope.NewChildScope("Engine.TimeoutParticipant")
	defer scope.Finish()

	e.teardownSearch(scope, participantID, constants.AnyRound)

	return e.registry.Set(scope, participantID, constants.StatusTimeout, nil)
}

func (e *Engine) teardownSearch(scope *envelope.Scope, participantID string, roundNumber int) {
	e.mu.Lock()
	search := e.searches[participantID]
	if search != nil {
		delete(e.searches, participantID)
		search.cancel()
		if search.fallback != nil {
			search.fallback.Stop()
		}
		if roundNumber == constants.AnyRound {
			roundNumber = search.entry.RoundNumber
		}
	}
	e.metrics.SetActiveSearches(len(e.searches))
	e.mu.Unlock()

	// Round 0 with no recorded search means there is no queue to sweep;
	// the queue removal is a no-op by design.
	if roundNumber != constants.AnyRound {
		if err := e.queues.RemoveFromQueue(scope, constants.QueueKey(roundNumber), participantID); err != nil {
			scope.Log.Warnf("dequeue on teardown failed: %s", err)
		}
	}
}

// registerSearch creates the active-search record unless one exists.
func (e *Engine) registerSearch(entry models.QueueEntry) (*activeSearch, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if existing, ok := e.searches[entry.ParticipantID]; ok {
		return existing, false
	}

	ctx, cancel := context.WithCancel(context.Background())
	search := &activeSearch{
		entry:     entry,
		startedAt: time.Now(),
		ctx:       ctx,
		cancel:    cancel,
	}
	e.searches[entry.ParticipantID] = search
	e.metrics.SetActiveSearches(len(e.searches))

	return search, true
}

// clearSearch removes the record and cancels its token without touching
// queue or status.
func (e *Engine) clearSearch(participantID string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if search, ok := e.searches[participantID]; ok {
		delete(e.searches, participantID)
		search.cancel()
		if search.fallback != nil {
			search.fallback.Stop()
		}
	}
	e.metrics.SetActiveSearches(len(e.searches))
}

// searchActive reports whether the participant still has a live search.
func (e *Engine) searchActive(participantID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.searches[participantID]

	return ok
}

// claimSearch atomically removes the active-search record and cancels its
// token, returning whether the record was still there. Cancel, disconnect
// and timeout remove the record through teardownSearch under the same
// mutex, so a claim made after them observes false.
func (e *Engine) claimSearch(participantID, outcome string) bool {
	e.mu.Lock()
	search, ok := e.searches[participantID]
	if ok {
		delete(e.searches, participantID)
		search.cancel()
		if search.fallback != nil {
			search.fallback.Stop()
		}
	}
	count := len(e.searches)
	e.mu.Unlock()

	e.metrics.SetActiveSearches(count)
	if !ok {
		return false
	}
	e.metrics.AddSearchDurationMs(search.entry.RoundNumber, outcome, time.Since(search.startedAt))

	return true
}

func (e *Engine) notifyMatchFound(scope *envelope.Scope, match models.Match) {
	if e.observer == nil {
		scope.Log.Warn("match produced with no observer registered")

		return
	}
	e.observer.MatchFound(scope, match)
}

func (e *Engine) incrementDailyStat(scope *envelope.Scope, field string) {
	key := constants.DailyStatsKey(time.Now())
	if err := e.store.HIncrBy(scope.Ctx, key, field, 1); err != nil {
		scope.Log.Warnf("failed incrementing daily stat %s: %s", field, err)

		return
	}
	if err := e.store.Expire(scope.Ctx, key, constants.DailyStatsTTL); err != nil {
		scope.Log.Warnf("failed refreshing daily stats ttl: %s", err)
	}
}

// ActiveSearchCount reports the number of live searches; used by tests.
func (e *Engine) ActiveSearchCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	return len(e.searches)
}
