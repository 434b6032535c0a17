// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

// Package registry tracks per-participant status in the shared store.
// Written by the engine (search, match, cancel, disconnect, timeout) and by
// the dispatcher's update_status event; registering a session writes no
// status. The 1-hour TTL is renewed on every write.
package registry

import (
	"time"

	"github.com/AccelByte/tournament-matchmaker/pkg/constants"
	"github.com/AccelByte/tournament-matchmaker/pkg/envelope"
	"github.com/AccelByte/tournament-matchmaker/pkg/models"
	"github.com/AccelByte/tournament-matchmaker/pkg/storage"
)

type Service struct {
	store *storage.Client
}

func New(store *storage.Client) *Service {
	return &Service{store: store}
}

// Set writes the participant status with optional metadata and renews the
// record TTL.
func (s *Service) Set(scope *envelope.Scope, participantID, status string, meta map[string]string) error {
	fields := map[string]string{
		"status":       status,
		"last_updated": time.Now().UTC().Format(time.RFC3339),
	}
	for k, v := range meta {
		fields[k] = v
	}

	key := constants.ParticipantStatusKey(participantID)
	if err := s.store.HSet(scope.Ctx, key, fields); err != nil {
		return err
	}

	return s.store.Expire(scope.Ctx, key, constants.ParticipantStatusTTL)
}

// Get returns the full status record; a missing record yields an empty
// status.
func (s *Service) Get(scope *envelope.Scope, participantID string) (models.StatusRecord, error) {
	fields, err := s.store.HGetAll(scope.Ctx, constants.ParticipantStatusKey(participantID))
	if err != nil {
		return models.StatusRecord{}, err
	}

	record := models.StatusRecord{
		Status:  fields["status"],
		MatchID: fields["match_id"],
		Meta:    map[string]string{},
	}
	if raw, ok := fields["last_updated"]; ok {
		record.LastUpdated, _ = time.Parse(time.RFC3339, raw)
	}
	for k, v := range fields {
		switch k {
		case "status", "last_updated", "match_id":
		default:
			record.Meta[k] = v
		}
	}

	return record, nil
}

// GetStatus returns just the status string, empty when unknown.
func (s *Service) GetStatus(scope *envelope.Scope, participantID string) (string, error) {
	record, err := s.Get(scope, participantID)
	if err != nil {
		return "", err
	}

	return record.Status, nil
}
