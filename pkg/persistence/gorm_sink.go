// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package persistence

import (
	"errors"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/AccelByte/tournament-matchmaker/pkg/constants"
	"github.com/AccelByte/tournament-matchmaker/pkg/envelope"
	"github.com/AccelByte/tournament-matchmaker/pkg/models"
)

type GormSink struct {
	db *gorm.DB
}

// NewGormSink connects to postgres and migrates the mirror tables.
func NewGormSink(dsn string) (*GormSink, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(
		&TournamentMatch{},
		&Participant{},
		&ParticipantStats{},
		&ActivityRecord{},
		&MatchResult{},
	); err != nil {
		return nil, err
	}

	return &GormSink{db: db}, nil
}

// NewGormSinkFromDB wraps an already-open gorm handle, used by tests.
func NewGormSinkFromDB(db *gorm.DB) *GormSink {
	return &GormSink{db: db}
}

// CreateTournamentMatch is an idempotent upsert keyed on the match id.
func (s *GormSink) CreateTournamentMatch(scope *envelope.Scope, match models.Match) error {
	row := TournamentMatch{
		ID:             match.ID,
		Participant1ID: match.Participant1ID,
		Participant2ID: match.Participant2ID,
		RoundNumber:    match.RoundNumber,
		MatchType:      match.MatchType,
		Status:         match.Status,
		IsAI:           match.IsAI,
		Opponent:       match.Opponent,
		AISettings:     match.AISettings,
		CreatedAt:      time.UnixMilli(match.CreatedAt),
	}

	return s.db.WithContext(scope.Ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"status", "updated_at"}),
		}).
		Create(&row).Error
}

func (s *GormSink) UpdateTournamentMatch(scope *envelope.Scope, matchID, status string, extras map[string]string) error {
	updates := map[string]interface{}{"status": status}
	for k, v := range extras {
		updates[k] = v
	}

	return s.db.WithContext(scope.Ctx).
		Model(&TournamentMatch{}).
		Where("id = ?", matchID).
		Updates(updates).Error
}

// GetActiveMatchForParticipant returns the most recent active or pending
// match for the participant and round, or nil. More than one live match
// for the same pair is an anomaly worth a warning.
func (s *GormSink) GetActiveMatchForParticipant(scope *envelope.Scope, participantID string, roundNumber int) (*TournamentMatch, error) {
	var rows []TournamentMatch
	err := s.db.WithContext(scope.Ctx).
		Where("(participant1_id = ? OR participant2_id = ?) AND round_number = ? AND status IN ?",
			participantID, participantID, roundNumber,
			[]string{constants.MatchStatusActive, constants.MatchStatusPending}).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	if len(rows) > 1 {
		scope.Log.WithField("participantId", participantID).
			WithField("roundNumber", roundNumber).
			WithField("count", len(rows)).
			Warn("participant has multiple live matches in round")
	}

	return &rows[0], nil
}

func (s *GormSink) GetParticipant(scope *envelope.Scope, participantID string) (*Participant, error) {
	var row Participant
	err := s.db.WithContext(scope.Ctx).First(&row, "id = ?", participantID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &row, nil
}

func (s *GormSink) GetParticipantStats(scope *envelope.Scope, participantID string) (*ParticipantStats, error) {
	var row ParticipantStats
	err := s.db.WithContext(scope.Ctx).First(&row, "participant_id = ?", participantID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &row, nil
}

func (s *GormSink) RecordActivity(scope *envelope.Scope, participantID, activity, detail string) error {
	return s.db.WithContext(scope.Ctx).Create(&ActivityRecord{
		ParticipantID: participantID,
		Activity:      activity,
		Detail:        detail,
	}).Error
}

func (s *GormSink) RecordMatchResult(scope *envelope.Scope, result MatchResult) error {
	return s.db.WithContext(scope.Ctx).Create(&result).Error
}

func (s *GormSink) GetMatchHistory(scope *envelope.Scope, participantID string, limit int) ([]TournamentMatch, error) {
	var rows []TournamentMatch
	err := s.db.WithContext(scope.Ctx).
		Where("participant1_id = ? OR participant2_id = ?", participantID, participantID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error

	return rows, err
}
