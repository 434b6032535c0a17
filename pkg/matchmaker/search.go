// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package matchmaker

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	"gonum.org/v1/gonum/stat"

	"github.com/AccelByte/tournament-matchmaker/pkg/constants"
	"github.com/AccelByte/tournament-matchmaker/pkg/envelope"
	"github.com/AccelByte/tournament-matchmaker/pkg/models"
)

// runContinuousSearch is the periodic re-scan for one search. Every tick
// it re-checks the cancellation token, the participant status, the
// persistence mirror, and finally the queue. After minSearchAttempts
// ticks on a quiet round it stops waiting for humans.
func (e *Engine) runContinuousSearch(rootScope *envelope.Scope, search *activeSearch) {
	scope := rootScope.NewChildScope("Engine.continuousSearch").WithContext(search.ctx)
	defer scope.Finish()

	participantID := search.entry.ParticipantID
	ticker := time.NewTicker(e.cfg.SearchInterval())
	defer ticker.Stop()

	for {
		select {
		case <-search.ctx.Done():
			return
		case <-ticker.C:
		}

		if !e.searchActive(participantID) {
			return
		}

		e.mu.Lock()
		search.attempts++
		attempts := search.attempts
		e.mu.Unlock()

		status, err := e.registry.GetStatus(scope, participantID)
		if err != nil {
			scope.Log.Warnf("status read failed, retrying next tick: %s", err)
			continue
		}
		if status == constants.StatusMatched || status == constants.StatusMatching {
			e.clearSearch(participantID)

			return
		}

		// The mirror may know about a match created by another instance
		// whose status write was lost; resync rather than double-match.
		if mirrored, err := e.sink.GetActiveMatchForParticipant(scope, participantID, search.entry.RoundNumber); err == nil && mirrored != nil {
			scope.Log.WithField("matchId", mirrored.ID).Info("syncing status from mirrored active match")
			if err := e.registry.Set(scope, participantID, constants.StatusMatched, map[string]string{"match_id": mirrored.ID}); err != nil {
				scope.Log.Warnf("failed syncing matched status: %s", err)
			}
			e.clearSearch(participantID)

			return
		}

		match, err := e.findImmediateMatch(scope, search.entry)
		if err == models.ErrAlreadyMatched {
			e.clearSearch(participantID)

			return
		}
		if err != nil && err != models.ErrLockNotAcquired && err != models.ErrNoCandidate {
			scope.Log.Warnf("scan attempt failed, retrying next tick: %s", err)
		}
		if match != nil {
			e.claimSearch(participantID, constants.OutcomeHumanMatch)
			e.notifyMatchFound(scope, *match)

			return
		}

		if attempts >= e.cfg.MinSearchAttempts && e.roundIsQuiet(scope, search.entry) {
			if !e.claimSearch(participantID, constants.OutcomeAIFallback) {
				return
			}
			scope.Log.WithField("participantId", participantID).
				WithField("attempts", attempts).
				Info("quiet round, falling back to AI early")
			match := e.CreateAIMatch(scope, search.entry)
			e.notifyMatchFound(scope, match)

			return
		}
	}
}

// roundIsQuiet reports whether no other entry joined the round queue
// recently. Entries older than the GC age don't count as company.
func (e *Engine) roundIsQuiet(scope *envelope.Scope, entry models.QueueEntry) bool {
	others, err := e.queues.GetQueueEntries(scope, constants.QueueKey(entry.RoundNumber), entry.ParticipantID)
	if err != nil {
		return false
	}

	now := time.Now()
	for _, other := range others {
		if other.Age(now) < constants.QueueEntryMaxAge {
			return false
		}
	}

	return true
}

// armFallbackTimer bounds the user-visible search duration: when the
// deadline passes and the search record still exists, the participant is
// paired with an AI opponent.
func (e *Engine) armFallbackTimer(rootScope *envelope.Scope, search *activeSearch) {
	participantID := search.entry.ParticipantID

	timer := time.AfterFunc(e.cfg.HumanSearchTimeout(), func() {
		scope := envelope.NewRootScope(context.Background(), "Engine.aiFallback", rootScope.TraceID)
		defer scope.Finish()

		// A search resolved between scheduling and firing loses the
		// claim and makes this a no-op.
		if !e.claimSearch(participantID, constants.OutcomeAIFallback) {
			return
		}

		scope.Log.WithField("participantId", participantID).
			Info("human search timed out, creating AI match")
		match := e.CreateAIMatch(scope, search.entry)
		e.notifyMatchFound(scope, match)
	})

	e.mu.Lock()
	search.fallback = timer
	e.mu.Unlock()
}

// StartCleanup schedules the housekeeping job: stale active searches are
// purged and expired queue entries dropped every five minutes.
func (e *Engine) StartCleanup() error {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return err
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(constants.CleanupInterval),
		gocron.NewTask(func() {
			scope := envelope.NewRootScope(context.Background(), "Engine.cleanup", "")
			defer scope.Finish()
			e.RunCleanup(scope)
		}),
	)
	if err != nil {
		return err
	}

	scheduler.Start()
	ctx, stop := context.WithCancel(context.Background())
	e.stopCleanup = stop
	go func() {
		<-ctx.Done()
		_ = scheduler.Shutdown()
	}()

	return nil
}

// StopCleanup halts the housekeeping scheduler.
func (e *Engine) StopCleanup() {
	if e.stopCleanup != nil {
		e.stopCleanup()
	}
}

// RunCleanup performs one housekeeping pass.
func (e *Engine) RunCleanup(scope *envelope.Scope) {
	now := time.Now()

	e.mu.Lock()
	var stale []string
	for id, search := range e.searches {
		if now.Sub(search.startedAt) > constants.ActiveSearchMaxAge {
			stale = append(stale, id)
		}
	}
	e.mu.Unlock()

	for _, id := range stale {
		scope.Log.WithField("participantId", id).Info("purging stale search")
		e.clearSearch(id)
	}

	removed, err := e.queues.CleanupExpiredQueues(scope)
	if err != nil {
		scope.Log.Warnf("queue cleanup failed: %s", err)

		return
	}
	if removed > 0 || len(stale) > 0 {
		scope.Log.WithField("entriesRemoved", removed).
			WithField("searchesPurged", len(stale)).
			Info("cleanup pass done")
	}
}

// GetQueueStatus aggregates one round queue for the queue_status_update
// payload.
func (e *Engine) GetQueueStatus(rootScope *envelope.Scope, roundNumber int) (models.QueueStatus, error) {
	scope := rootScope.NewChildScope("Engine.GetQueueStatus")
	defer scope.Finish()

	entries, err := e.queues.GetQueueEntries(scope, constants.QueueKey(roundNumber), "")
	if err != nil {
		return models.QueueStatus{}, err
	}

	now := time.Now()
	ages := make([]float64, 0, len(entries))
	for _, entry := range entries {
		ages = append(ages, entry.Age(now).Seconds())
	}

	averageWait := 0.0
	if len(ages) > 0 {
		averageWait = stat.Mean(ages, nil)
	}

	recent := 0
	if fields, err := e.store.HGetAll(scope.Ctx, constants.DailyStatsKey(now)); err == nil {
		recent = atoiOrZero(fields[constants.StatHumanMatches]) + atoiOrZero(fields[constants.StatAIMatches])
	}

	// Waiting participants tend to resolve within either the average
	// queue age or half the fallback deadline, whichever is larger.
	estimated := averageWait
	if fallbackHalf := e.cfg.HumanSearchTimeout().Seconds() / 2; estimated < fallbackHalf {
		estimated = fallbackHalf
	}

	return models.QueueStatus{
		RoundNumber:       roundNumber,
		TotalWaiting:      len(entries),
		AverageWaitTime:   averageWait,
		RecentMatches:     recent,
		EstimatedWaitTime: estimated,
	}, nil
}
