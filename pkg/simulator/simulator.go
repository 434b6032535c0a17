// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

// Package simulator produces AI opponents and their per-question response
// events. Selection is deterministic given the roster and inputs; the
// response output is stochastic within the contract bounds.
package simulator

import (
	"math/rand"
	"sync"
	"time"

	"github.com/AccelByte/tournament-matchmaker/pkg/common"
	"github.com/AccelByte/tournament-matchmaker/pkg/constants"
	"github.com/AccelByte/tournament-matchmaker/pkg/envelope"
	"github.com/AccelByte/tournament-matchmaker/pkg/mathutil"
	"github.com/AccelByte/tournament-matchmaker/pkg/models"
)

// effectiveSkillJitter is the spread applied to an opponent's base skill
// per match.
const effectiveSkillJitter = 0.3

type Simulator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func New() *Simulator {
	return NewWithSource(rand.NewSource(time.Now().UnixNano()))
}

// NewWithSource pins the randomness source, used by tests.
func NewWithSource(source rand.Source) *Simulator {
	return &Simulator{rng: rand.New(source)}
}

func (s *Simulator) float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.rng.Float64()
}

// SelectOpponent picks a roster opponent for the given skill using the
// same skill-window policy as human pairing: anyone within threshold wins
// (earliest roster entry first), otherwise the closest skill. The returned
// opponent carries a randomized effective skill of base +/- 0.3.
func (s *Simulator) SelectOpponent(skill, threshold float64) Opponent {
	chosen := roster[0]
	bestDistance := mathutil.AbsDiff(chosen.BaseSkill, skill)
	for _, candidate := range roster {
		distance := mathutil.AbsDiff(candidate.BaseSkill, skill)
		if distance <= threshold {
			chosen = candidate
			break
		}
		if distance < bestDistance {
			chosen = candidate
			bestDistance = distance
		}
	}

	effective := chosen.BaseSkill + (s.float64()*2-1)*effectiveSkillJitter
	chosen.BaseSkill = mathutil.Clamp(effective, constants.MinSkillLevel, constants.MaxSkillLevel)

	return chosen
}

// CreateAIMatch assembles a complete human-vs-ai match record for the
// participant, including the serialized opponent descriptor and the
// aiSettings that drive response simulation.
func (s *Simulator) CreateAIMatch(scope *envelope.Scope, participantID string, roundNumber int, skill, threshold float64) models.Match {
	opponent := s.SelectOpponent(skill, threshold)
	profile := personalityProfiles[opponent.Personality]
	responses := responseRanges[opponent.ResponseClass]

	settings := models.AISettings{
		OpponentID:       opponent.ID,
		Personality:      opponent.Personality,
		ResponseClass:    opponent.ResponseClass,
		MinResponseMs:    responses.minMs,
		MaxResponseMs:    responses.maxMs,
		BaseAccuracy:     profile.baseAccuracy,
		AccuracyVariance: profile.variance,
		SlowStart:        profile.slowStart,
		ImprovesOverTime: profile.improvesOverTime,
		AdaptsToOpponent: profile.adaptsToOpponent,
		SkillLevel:       opponent.BaseSkill,
	}

	descriptor := models.OpponentInfo{
		ID:            opponent.ID,
		DisplayName:   opponent.DisplayName,
		SkillLevel:    opponent.BaseSkill,
		IsAI:          true,
		Personality:   opponent.Personality,
		ResponseClass: opponent.ResponseClass,
	}

	match := models.Match{
		ID:             common.GenerateUUID(),
		Participant1ID: participantID,
		RoundNumber:    roundNumber,
		MatchType:      constants.MatchTypeHumanVsAI,
		Status:         constants.MatchStatusActive,
		CreatedAt:      time.Now().UnixMilli(),
		IsAI:           true,
		Opponent:       descriptor.Encode(),
		AISettings:     settings.Encode(),
	}

	scope.Log.WithField("opponentId", opponent.ID).
		WithField("participantId", participantID).
		Info("assembled AI match")

	return match
}

// SimulateAIResponse produces one answer event for a question. The
// accuracy adjustments are applied in a fixed order so the contract is
// testable with a pinned source.
func (s *Simulator) SimulateAIResponse(settings models.AISettings, questionNumber, difficulty int, opponentCorrect bool) models.AIResponse {
	accuracy := settings.BaseAccuracy - float64(difficulty-5)*0.02

	if settings.AdaptsToOpponent && opponentCorrect {
		accuracy += 0.05
	}
	if settings.SlowStart && questionNumber <= 3 {
		accuracy -= 0.10
	}
	if settings.ImprovesOverTime && questionNumber > 5 {
		accuracy += 0.05
	}
	accuracy += (s.float64() - 0.5) * settings.AccuracyVariance
	accuracy = mathutil.Clamp(accuracy, 0, 1)

	isCorrect := s.float64() < accuracy

	spread := settings.MaxResponseMs - settings.MinResponseMs
	responseMs := float64(settings.MinResponseMs) + s.float64()*float64(spread)
	if settings.Personality == PersonalityCompetitive {
		if questionNumber > 5 {
			responseMs *= 0.8
		}
		if difficulty < 5 {
			responseMs *= 0.7
		}
	}

	return models.AIResponse{
		IsCorrect:      isCorrect,
		ResponseTimeMs: int(responseMs + 0.5),
		Accuracy:       accuracy,
		QuestionNumber: questionNumber,
		Difficulty:     difficulty,
	}
}

// FallbackOpponent is the canned descriptor used when match assembly
// fails for any reason; the participant still gets an opponent.
func FallbackOpponent() models.OpponentInfo {
	return models.OpponentInfo{
		ID:          "ai_opponent_fallback",
		DisplayName: "Taylor Reed",
		SkillLevel:  6.0,
		IsAI:        true,
		Personality: PersonalityCollaborative,
	}
}
