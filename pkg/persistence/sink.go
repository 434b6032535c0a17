// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

// Package persistence mirrors live match state to durable storage. Every
// operation is best-effort from the engine's point of view: the shared
// store stays authoritative and mirror failures never abort a pair.
package persistence

import (
	"time"

	"github.com/AccelByte/tournament-matchmaker/pkg/envelope"
	"github.com/AccelByte/tournament-matchmaker/pkg/models"
)

// TournamentMatch is the durable mirror of a live match record.
type TournamentMatch struct {
	ID             string `gorm:"primaryKey"`
	Participant1ID string `gorm:"index:idx_match_participants"`
	Participant2ID string `gorm:"index:idx_match_participants"`
	RoundNumber    int    `gorm:"index"`
	MatchType      string
	Status         string
	IsAI           bool
	Opponent       string `gorm:"type:text"`
	AISettings     string `gorm:"type:text"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Participant is the demographics row used for opponent-name lookup.
type Participant struct {
	ID             string `gorm:"primaryKey"`
	DisplayName    string
	TreatmentGroup string
	CreatedAt      time.Time
}

// ParticipantStats summarizes recent performance for skill calculation.
type ParticipantStats struct {
	ParticipantID  string `gorm:"primaryKey"`
	SkillLevel     float64
	GamesPlayed    int
	RecentAccuracy float64
	UpdatedAt      time.Time
}

// ActivityRecord is an analytics event; never on the pairing hot path.
type ActivityRecord struct {
	ID            uint `gorm:"primaryKey;autoIncrement"`
	ParticipantID string `gorm:"index"`
	Activity      string
	Detail        string `gorm:"type:text"`
	CreatedAt     time.Time
}

// MatchResult records the outcome of a completed match.
type MatchResult struct {
	ID            uint   `gorm:"primaryKey;autoIncrement"`
	MatchID       string `gorm:"index"`
	ParticipantID string `gorm:"index"`
	Won           bool
	Score         float64
	Detail        string `gorm:"type:text"`
	CreatedAt     time.Time
}

// Sink is the narrow persistence port used by the engine and dispatcher.
type Sink interface {
	CreateTournamentMatch(scope *envelope.Scope, match models.Match) error
	UpdateTournamentMatch(scope *envelope.Scope, matchID, status string, extras map[string]string) error
	GetActiveMatchForParticipant(scope *envelope.Scope, participantID string, roundNumber int) (*TournamentMatch, error)
	GetParticipant(scope *envelope.Scope, participantID string) (*Participant, error)
	GetParticipantStats(scope *envelope.Scope, participantID string) (*ParticipantStats, error)
	RecordActivity(scope *envelope.Scope, participantID, activity, detail string) error
	RecordMatchResult(scope *envelope.Scope, result MatchResult) error
	GetMatchHistory(scope *envelope.Scope, participantID string, limit int) ([]TournamentMatch, error)
}
