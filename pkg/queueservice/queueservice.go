// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

// Package queueservice maintains the per-round FIFO queues in the shared
// store. Ordering is by the stored join-timestamp score, never by parse
// order.
package queueservice

import (
	"time"

	pie "github.com/elliotchance/pie/v2"

	"github.com/AccelByte/tournament-matchmaker/pkg/constants"
	"github.com/AccelByte/tournament-matchmaker/pkg/envelope"
	"github.com/AccelByte/tournament-matchmaker/pkg/models"
	"github.com/AccelByte/tournament-matchmaker/pkg/storage"
)

type Service struct {
	store        *storage.Client
	maxQueueSize int
}

func New(store *storage.Client, maxQueueSize int) *Service {
	return &Service{store: store, maxQueueSize: maxQueueSize}
}

// AddToQueue appends the entry with score = join time and refreshes the
// key TTL. The enqueue is rejected with ErrAlreadyMatched when the
// participant's status is already matched (idempotence guard for the race
// where a concurrent pair attempt won), and with ErrQueueFull above the
// configured size.
func (s *Service) AddToQueue(scope *envelope.Scope, queueKey string, entry models.QueueEntry) error {
	status, err := s.participantStatus(scope, entry.ParticipantID)
	if err != nil {
		return err
	}
	if status == constants.StatusMatched {
		scope.Log.WithField("participantId", entry.ParticipantID).
			Warn("enqueue rejected: participant already matched")

		return models.ErrAlreadyMatched
	}

	size, err := s.store.ZCard(scope.Ctx, queueKey)
	if err != nil {
		return err
	}
	if s.maxQueueSize > 0 && size >= int64(s.maxQueueSize) {
		return models.ErrQueueFull
	}

	raw, err := entry.Encode()
	if err != nil {
		return err
	}
	if err := s.store.ZAdd(scope.Ctx, queueKey, float64(entry.JoinedAt), raw); err != nil {
		return err
	}

	return s.store.Expire(scope.Ctx, queueKey, constants.QueueKeyTTL)
}

// RemoveFromQueue scans the queue entries and removes the one belonging to
// the participant, if any.
func (s *Service) RemoveFromQueue(scope *envelope.Scope, queueKey, participantID string) error {
	members, err := s.store.ZRangeWithScores(scope.Ctx, queueKey)
	if err != nil {
		return err
	}

	for _, member := range members {
		entry, err := models.DecodeQueueEntry(member.Member)
		if err != nil {
			continue
		}
		if entry.ParticipantID == participantID {
			return s.store.ZRem(scope.Ctx, queueKey, member.Member)
		}
	}

	return nil
}

// GetQueueEntries returns parsed entries in FIFO order, optionally
// excluding one participant. Unparseable members are skipped.
func (s *Service) GetQueueEntries(scope *envelope.Scope, queueKey string, excludeParticipantID string) ([]models.QueueEntry, error) {
	members, err := s.store.ZRangeWithScores(scope.Ctx, queueKey)
	if err != nil {
		return nil, err
	}

	entries := make([]models.QueueEntry, 0, len(members))
	for _, member := range members {
		entry, err := models.DecodeQueueEntry(member.Member)
		if err != nil {
			scope.Log.WithField("queueKey", queueKey).Warn("skipping unparseable queue entry")
			continue
		}
		entries = append(entries, entry)
	}

	if excludeParticipantID != "" {
		entries = pie.Filter(entries, func(e models.QueueEntry) bool {
			return e.ParticipantID != excludeParticipantID
		})
	}

	return entries, nil
}

// GetQueuePosition returns the 1-based FIFO position, or -1 when the
// participant is not queued.
func (s *Service) GetQueuePosition(scope *envelope.Scope, queueKey, participantID string) (int, error) {
	entries, err := s.GetQueueEntries(scope, queueKey, "")
	if err != nil {
		return -1, err
	}

	for i, entry := range entries {
		if entry.ParticipantID == participantID {
			return i + 1, nil
		}
	}

	return -1, nil
}

func (s *Service) GetQueueSize(scope *envelope.Scope, queueKey string) (int64, error) {
	return s.store.ZCard(scope.Ctx, queueKey)
}

// CleanupExpiredQueues drops entries older than the entry max age from
// every round queue. Returns the number of removed entries.
func (s *Service) CleanupExpiredQueues(scope *envelope.Scope) (int, error) {
	keys, err := s.store.Keys(scope.Ctx, constants.QueueKeyPattern)
	if err != nil {
		return 0, err
	}

	now := time.Now()
	removed := 0
	for _, key := range keys {
		members, err := s.store.ZRangeWithScores(scope.Ctx, key)
		if err != nil {
			continue
		}
		for _, member := range members {
			entry, err := models.DecodeQueueEntry(member.Member)
			if err != nil || entry.Age(now) > constants.QueueEntryMaxAge {
				if err := s.store.ZRem(scope.Ctx, key, member.Member); err == nil {
					removed++
				}
			}
		}
	}

	return removed, nil
}

func (s *Service) participantStatus(scope *envelope.Scope, participantID string) (string, error) {
	fields, err := s.store.HGetAll(scope.Ctx, constants.ParticipantStatusKey(participantID))
	if err != nil {
		return "", err
	}

	return fields["status"], nil
}
