// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

// Package models holds the data objects shared between the matchmaking
// engine, the shared-store services, and the push dispatcher. Everything
// that crosses the shared-store boundary serializes to strings.
package models

import (
	"encoding/json"
	"strconv"
	"time"
)

// QueueEntry is one participant waiting in a per-round queue. The entry is
// stored JSON-encoded as a sorted-set member whose score is JoinedAt.
type QueueEntry struct {
	ParticipantID   string  `json:"participantId"`
	ParticipantName string  `json:"participantName,omitempty"`
	RoundNumber     int     `json:"roundNumber"`
	SkillLevel      float64 `json:"skillLevel"`
	TreatmentGroup  string  `json:"treatmentGroup,omitempty"`
	JoinedAt        int64   `json:"joinedAt"` // unix milliseconds
	Status          string  `json:"status"`
}

func (e QueueEntry) Encode() (string, error) {
	raw, err := json.Marshal(e)
	if err != nil {
		return "", err
	}

	return string(raw), nil
}

func DecodeQueueEntry(raw string) (QueueEntry, error) {
	var entry QueueEntry
	err := json.Unmarshal([]byte(raw), &entry)

	return entry, err
}

// Age reports how long the entry has been waiting.
func (e QueueEntry) Age(now time.Time) time.Duration {
	return now.Sub(time.UnixMilli(e.JoinedAt))
}

// Match is a pairing of one participant with another human or an AI
// opponent for a single round.
type Match struct {
	ID               string `json:"id"`
	Participant1ID   string `json:"participant1_id"`
	Participant2ID   string `json:"participant2_id,omitempty"` // empty for AI matches
	Participant1Name string `json:"participant1_name,omitempty"`
	Participant2Name string `json:"participant2_name,omitempty"`
	RoundNumber      int    `json:"round_number"`
	MatchType        string `json:"match_type"`
	Status           string `json:"status"`
	CreatedAt        int64  `json:"created_at"` // unix milliseconds
	IsAI             bool   `json:"isAI"`
	Opponent         string `json:"opponent"`             // serialized OpponentInfo
	AISettings       string `json:"aiSettings,omitempty"` // serialized AISettings, AI matches only
}

// ToFields flattens the match for the shared-store hash. All values are
// strings; MatchFromFields coerces isAI back on the way out.
func (m Match) ToFields() map[string]string {
	fields := map[string]string{
		"id":              m.ID,
		"participant1_id": m.Participant1ID,
		"participant2_id": m.Participant2ID,
		"round_number":    strconv.Itoa(m.RoundNumber),
		"match_type":      m.MatchType,
		"status":          m.Status,
		"created_at":      strconv.FormatInt(m.CreatedAt, 10),
		"isAI":            strconv.FormatBool(m.IsAI),
		"opponent":        m.Opponent,
	}
	if m.Participant1Name != "" {
		fields["participant1_name"] = m.Participant1Name
	}
	if m.Participant2Name != "" {
		fields["participant2_name"] = m.Participant2Name
	}
	if m.AISettings != "" {
		fields["aiSettings"] = m.AISettings
	}

	return fields
}

// MatchFromFields rebuilds a match from a shared-store hash. Boolean and
// numeric fields survive the string round trip.
func MatchFromFields(fields map[string]string) Match {
	round, _ := strconv.Atoi(fields["round_number"])
	createdAt, _ := strconv.ParseInt(fields["created_at"], 10, 64)
	isAI, _ := strconv.ParseBool(fields["isAI"])

	return Match{
		ID:               fields["id"],
		Participant1ID:   fields["participant1_id"],
		Participant2ID:   fields["participant2_id"],
		Participant1Name: fields["participant1_name"],
		Participant2Name: fields["participant2_name"],
		RoundNumber:      round,
		MatchType:        fields["match_type"],
		Status:           fields["status"],
		CreatedAt:        createdAt,
		IsAI:             isAI,
		Opponent:         fields["opponent"],
		AISettings:       fields["aiSettings"],
	}
}

// OpponentInfo is the serialized opponent descriptor carried inside a match
// record and pushed to clients on match_found.
type OpponentInfo struct {
	ID            string  `json:"id"`
	DisplayName   string  `json:"displayName"`
	SkillLevel    float64 `json:"skillLevel"`
	IsAI          bool    `json:"isAI"`
	Personality   string  `json:"personality,omitempty"`
	ResponseClass string  `json:"responseClass,omitempty"`
}

func (o OpponentInfo) Encode() string {
	raw, _ := json.Marshal(o)

	return string(raw)
}

func DecodeOpponentInfo(raw string) (OpponentInfo, error) {
	var info OpponentInfo
	err := json.Unmarshal([]byte(raw), &info)

	return info, err
}

// AISettings parameterizes the per-question response simulation for one
// AI match.
type AISettings struct {
	OpponentID       string  `json:"opponentId"`
	Personality      string  `json:"personality"`
	ResponseClass    string  `json:"responseClass"`
	MinResponseMs    int     `json:"minResponseMs"`
	MaxResponseMs    int     `json:"maxResponseMs"`
	BaseAccuracy     float64 `json:"baseAccuracy"`
	AccuracyVariance float64 `json:"accuracyVariance"`
	SlowStart        bool    `json:"slowStart"`
	ImprovesOverTime bool    `json:"improvesOverTime"`
	AdaptsToOpponent bool    `json:"adaptsToOpponent"`
	SkillLevel       float64 `json:"skillLevel"`
}

func (s AISettings) Encode() string {
	raw, _ := json.Marshal(s)

	return string(raw)
}

func DecodeAISettings(raw string) (AISettings, error) {
	var settings AISettings
	err := json.Unmarshal([]byte(raw), &settings)

	return settings, err
}

// AIResponse is one simulated answer event.
type AIResponse struct {
	IsCorrect      bool    `json:"isCorrect"`
	ResponseTimeMs int     `json:"responseTimeMs"`
	Accuracy       float64 `json:"accuracy"`
	QuestionNumber int     `json:"questionNumber"`
	Difficulty     int     `json:"difficulty"`
}

// StartRequest is the validated form of a start_matchmaking payload. The
// raw inbound map is never mutated; handlers validate into this record.
type StartRequest struct {
	ParticipantID   string
	ParticipantName string
	RoundNumber     int
	SkillLevel      float64
	TreatmentGroup  string
}

// Start-search result statuses.
const (
	StartStatusSearching        = "searching"
	StartStatusAlreadySearching = "already_searching"
	StartStatusMatched          = "matched"
)

// StartResult is the first response of the engine to a start-search call.
type StartResult struct {
	Status               string  `json:"status"`
	Match                *Match  `json:"match,omitempty"`
	QueuePosition        int     `json:"queuePosition,omitempty"`
	EstimatedWaitSeconds float64 `json:"estimatedWaitSeconds,omitempty"`
}

// QueueStatus is the aggregate view of one round queue pushed to clients.
type QueueStatus struct {
	RoundNumber       int     `json:"roundNumber"`
	TotalWaiting      int     `json:"totalWaiting"`
	AverageWaitTime   float64 `json:"averageWaitTime"`   // seconds
	RecentMatches     int     `json:"recentMatches"`     // today, human + ai
	EstimatedWaitTime float64 `json:"estimatedWaitTime"` // seconds
}

// StatusRecord is one participant's status hash.
type StatusRecord struct {
	Status      string            `json:"status"`
	LastUpdated time.Time         `json:"lastUpdated"`
	MatchID     string            `json:"matchId,omitempty"`
	Meta        map[string]string `json:"meta,omitempty"`
}
