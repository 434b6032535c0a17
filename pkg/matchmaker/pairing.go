// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package matchmaker

import (
	"strconv"
	"time"

	pie "github.com/elliotchance/pie/v2"

	"github.com/AccelByte/tournament-matchmaker/pkg/common"
	"github.com/AccelByte/tournament-matchmaker/pkg/constants"
	"github.com/AccelByte/tournament-matchmaker/pkg/envelope"
	"github.com/AccelByte/tournament-matchmaker/pkg/mathutil"
	"github.com/AccelByte/tournament-matchmaker/pkg/models"
	"github.com/AccelByte/tournament-matchmaker/pkg/persistence"
	"github.com/AccelByte/tournament-matchmaker/pkg/simulator"
)

func itoa(v int) string { return strconv.Itoa(v) }

func ftoa(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

func atoiOrZero(raw string) int {
	v, _ := strconv.Atoi(raw)

	return v
}

// findImmediateMatch runs one pair attempt under the round lock. A held
// lock or an empty queue is not an error condition worth surfacing; the
// scanner simply retries on its next tick.
func (e *Engine) findImmediateMatch(rootScope *envelope.Scope, entry models.QueueEntry) (*models.Match, error) {
	scope := rootScope.NewChildScope("Engine.findImmediateMatch")
	defer scope.Finish()

	lockKey := constants.MatchLockKey(entry.RoundNumber)
	ownerToken := e.locks.NewOwnerToken()

	acquired, err := e.locks.Acquire(scope, lockKey, ownerToken, constants.MatchLockTTL)
	if err != nil {
		return nil, err
	}
	if !acquired {
		return nil, models.ErrLockNotAcquired
	}
	defer func() {
		if _, err := e.locks.Release(scope, lockKey, ownerToken); err != nil {
			scope.Log.Warnf("failed releasing round lock: %s", err)
		}
	}()

	// Another attempt may have paired this participant between enqueue
	// and lock acquisition; re-check under the lock.
	status, err := e.registry.GetStatus(scope, entry.ParticipantID)
	if err != nil {
		return nil, err
	}
	if status == constants.StatusMatched || status == constants.StatusMatching {
		return nil, models.ErrAlreadyMatched
	}

	candidates, err := e.queues.GetQueueEntries(scope, constants.QueueKey(entry.RoundNumber), entry.ParticipantID)
	if err != nil {
		return nil, err
	}

	// Queue entries carry the status they were enqueued with; a candidate
	// may have cancelled or been matched since. Verify against the live
	// record and drop dead entries before pairing.
	for len(candidates) > 0 {
		candidate, ok := SelectBySkillWindow(entry.SkillLevel, e.cfg.SkillMatchingThreshold, candidates)
		if !ok {
			return nil, models.ErrNoCandidate
		}

		if e.candidatePairable(scope, candidate.ParticipantID) {
			return e.createHumanMatch(scope, entry, candidate)
		}

		if err := e.queues.RemoveFromQueue(scope, constants.QueueKey(entry.RoundNumber), candidate.ParticipantID); err != nil {
			scope.Log.Warnf("failed removing dead queue entry: %s", err)
		}
		candidates = pie.Filter(candidates, func(c models.QueueEntry) bool {
			return c.ParticipantID != candidate.ParticipantID
		})
	}

	return nil, models.ErrNoCandidate
}

// candidatePairable rejects candidates whose live status moved on since
// they were enqueued.
func (e *Engine) candidatePairable(scope *envelope.Scope, participantID string) bool {
	status, err := e.registry.GetStatus(scope, participantID)
	if err != nil {
		return false
	}
	switch status {
	case constants.StatusMatched, constants.StatusMatching,
		constants.StatusCancelled, constants.StatusDisconnected, constants.StatusTimeout:
		return false
	}

	return true
}

// SelectBySkillWindow applies the skill-window policy to candidates in
// FIFO order: the earliest candidate within threshold wins; outside the
// window nobody qualifies for a human pair. The closest-skill fallback is
// reserved for the AI roster, which must always yield an opponent.
// Deterministic given its inputs.
func SelectBySkillWindow(skill, threshold float64, candidates []models.QueueEntry) (models.QueueEntry, bool) {
	inWindow := pie.Filter(candidates, func(c models.QueueEntry) bool {
		return mathutil.AbsDiff(c.SkillLevel, skill) <= threshold
	})
	if len(inWindow) > 0 {
		return inWindow[0], true
	}

	return models.QueueEntry{}, false
}

// SelectClosestBySkill returns the candidate minimizing the skill
// distance, FIFO-earliest on ties.
func SelectClosestBySkill(skill float64, candidates []models.QueueEntry) models.QueueEntry {
	best := candidates[0]
	bestDistance := mathutil.AbsDiff(best.SkillLevel, skill)
	for _, c := range candidates[1:] {
		if distance := mathutil.AbsDiff(c.SkillLevel, skill); distance < bestDistance {
			best = c
			bestDistance = distance
		}
	}

	return best
}

// createHumanMatch writes the live-human match record and flips both
// sides. Callers hold the round lock.
func (e *Engine) createHumanMatch(rootScope *envelope.Scope, a, b models.QueueEntry) (*models.Match, error) {
	scope := rootScope.NewChildScope("Engine.createHumanMatch")
	defer scope.Finish()

	if a.ParticipantID == b.ParticipantID {
		scope.Log.WithField("participantId", a.ParticipantID).Error("refusing self-match")

		return nil, models.ErrSelfMatch
	}

	opponentName := b.ParticipantName
	if opponentName == "" {
		if participant, err := e.sink.GetParticipant(scope, b.ParticipantID); err == nil && participant != nil {
			opponentName = participant.DisplayName
		}
	}
	opponentName = common.DisplayNameOrPlaceholder(opponentName, b.ParticipantID)

	descriptor := models.OpponentInfo{
		ID:          b.ParticipantID,
		DisplayName: opponentName,
		SkillLevel:  b.SkillLevel,
		IsAI:        false,
	}

	match := models.Match{
		ID:               common.GenerateUUID(),
		Participant1ID:   a.ParticipantID,
		Participant2ID:   b.ParticipantID,
		Participant1Name: common.DisplayNameOrPlaceholder(a.ParticipantName, a.ParticipantID),
		Participant2Name: opponentName,
		RoundNumber:      a.RoundNumber,
		MatchType:        constants.MatchTypeLiveHuman,
		Status:           constants.MatchStatusActive,
		CreatedAt:        time.Now().UnixMilli(),
		IsAI:             false,
		Opponent:         descriptor.Encode(),
	}

	if err := e.writeMatchRecord(scope, match); err != nil {
		return nil, err
	}
	e.mirrorMatch(scope, match)

	meta := map[string]string{"match_id": match.ID}
	if err := e.registry.Set(scope, a.ParticipantID, constants.StatusMatched, meta); err != nil {
		scope.Log.Warnf("failed writing matched status: %s", err)
	}
	if err := e.registry.Set(scope, b.ParticipantID, constants.StatusMatched, meta); err != nil {
		scope.Log.Warnf("failed writing matched status: %s", err)
	}

	queueKey := constants.QueueKey(a.RoundNumber)
	if err := e.queues.RemoveFromQueue(scope, queueKey, a.ParticipantID); err != nil {
		scope.Log.Warnf("failed dequeueing participant1: %s", err)
	}
	if err := e.queues.RemoveFromQueue(scope, queueKey, b.ParticipantID); err != nil {
		scope.Log.Warnf("failed dequeueing participant2: %s", err)
	}

	// The opponent may have a scanner running in this process; stop it
	// before its next tick.
	e.claimSearch(b.ParticipantID, constants.OutcomeHumanMatch)

	e.incrementDailyStat(scope, constants.StatHumanMatches)
	e.metrics.AddMatchCreated(constants.MatchTypeLiveHuman)

	scope.SetAttributes(envelope.MatchIDTag, match.ID)
	scope.Log.WithField("matchId", match.ID).
		WithField("participant1", a.ParticipantID).
		WithField("participant2", b.ParticipantID).
		Info("created human match")

	return &match, nil
}

// CreateAIMatch dequeues the participant and pairs them with a simulated
// opponent. Any error on the way synthesizes a canned fallback match so
// the caller always gets an opponent.
func (e *Engine) CreateAIMatch(rootScope *envelope.Scope, entry models.QueueEntry) models.Match {
	scope := rootScope.NewChildScope("Engine.CreateAIMatch")
	defer scope.Finish()

	if err := e.queues.RemoveFromQueue(scope, constants.QueueKey(entry.RoundNumber), entry.ParticipantID); err != nil {
		scope.Log.Warnf("failed dequeueing before AI match: %s", err)
	}
	e.claimSearch(entry.ParticipantID, constants.OutcomeAIFallback)

	match := e.sim.CreateAIMatch(scope, entry.ParticipantID, entry.RoundNumber, entry.SkillLevel, e.cfg.SkillMatchingThreshold)
	match.Participant1Name = common.DisplayNameOrPlaceholder(entry.ParticipantName, entry.ParticipantID)

	if err := e.writeMatchRecord(scope, match); err != nil {
		scope.Log.Errorf("failed writing AI match record, returning fallback match: %s", err)

		return e.fallbackAIMatch(scope, entry)
	}
	e.mirrorMatch(scope, match)

	if err := e.registry.Set(scope, entry.ParticipantID, constants.StatusMatched, map[string]string{"match_id": match.ID}); err != nil {
		scope.Log.Warnf("failed writing matched status: %s", err)
	}

	e.incrementDailyStat(scope, constants.StatAIMatches)
	e.metrics.AddMatchCreated(constants.MatchTypeHumanVsAI)

	scope.Log.WithField("matchId", match.ID).
		WithField("participantId", entry.ParticipantID).
		Info("created AI match")

	return match
}

// fallbackAIMatch is the last-resort match used when even the normal AI
// path failed; it lives only in process memory and on the wire.
func (e *Engine) fallbackAIMatch(scope *envelope.Scope, entry models.QueueEntry) models.Match {
	descriptor := simulator.FallbackOpponent()

	return models.Match{
		ID:             common.GenerateUUID(),
		Participant1ID: entry.ParticipantID,
		RoundNumber:    entry.RoundNumber,
		MatchType:      constants.MatchTypeHumanVsAI,
		Status:         constants.MatchStatusActive,
		CreatedAt:      time.Now().UnixMilli(),
		IsAI:           true,
		Opponent:       descriptor.Encode(),
	}
}

func (e *Engine) degradeToAIMatch(scope *envelope.Scope, search *activeSearch) *models.StartResult {
	match := e.CreateAIMatch(scope, search.entry)
	e.notifyMatchFound(scope, match)

	return &models.StartResult{Status: models.StartStatusMatched, Match: &match}
}

func (e *Engine) writeMatchRecord(scope *envelope.Scope, match models.Match) error {
	key := constants.MatchKey(match.ID)
	if err := e.store.HSet(scope.Ctx, key, match.ToFields()); err != nil {
		return err
	}

	return e.store.Expire(scope.Ctx, key, constants.MatchRecordTTL)
}

// GetMatch reads a match record back from the shared store.
func (e *Engine) GetMatch(scope *envelope.Scope, matchID string) (models.Match, error) {
	fields, err := e.store.HGetAll(scope.Ctx, constants.MatchKey(matchID))
	if err != nil {
		return models.Match{}, err
	}
	if len(fields) == 0 {
		return models.Match{}, models.ErrMatchNotFound
	}

	return models.MatchFromFields(fields), nil
}

// UpdateMatchStatus mutates the live record and best-effort mirrors the
// change.
func (e *Engine) UpdateMatchStatus(rootScope *envelope.Scope, matchID, status string) error {
	scope := rootScope.NewChildScope("Engine.UpdateMatchStatus")
	defer scope.Finish()

	if _, err := e.GetMatch(scope, matchID); err != nil {
		return err
	}
	if err := e.store.HSet(scope.Ctx, constants.MatchKey(matchID), map[string]string{"status": status}); err != nil {
		return err
	}

	if err := e.sink.UpdateTournamentMatch(scope, matchID, status, nil); err != nil {
		scope.Log.Warnf("persistence mirror of status update failed: %s", err)
	}

	return nil
}

// mirrorMatch pushes the match to the persistence sink with the critical
// write retry policy. Mirror failure never fails the pair.
func (e *Engine) mirrorMatch(scope *envelope.Scope, match models.Match) {
	err := persistence.WithRetry(scope, "createTournamentMatch", func() error {
		return e.sink.CreateTournamentMatch(scope, match)
	})
	if err != nil {
		scope.Log.WithField("matchId", match.ID).
			Warnf("persistence mirror failed, live state remains authoritative: %s", err)
	}
}
