// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package simulator

// Personalities shape the accuracy model of a simulated opponent.
const (
	PersonalityCompetitive   = "competitive"
	PersonalityCollaborative = "collaborative"
	PersonalityAnalytical    = "analytical"
)

// Response-speed classes bound the sampled answer latency.
const (
	ResponseClassFast   = "fast"
	ResponseClassMedium = "medium"
	ResponseClassSlow   = "slow"
)

// Opponent is one entry of the static roster.
type Opponent struct {
	ID            string
	DisplayName   string
	BaseSkill     float64
	Personality   string
	ResponseClass string
}

// roster is the fixed table of simulated opponents. Order matters: the
// skill-window tie-break treats earlier entries as earlier arrivals.
var roster = []Opponent{
	{ID: "ai_opponent_1", DisplayName: "Alex Chen", BaseSkill: 6.5, Personality: PersonalityCompetitive, ResponseClass: ResponseClassFast},
	{ID: "ai_opponent_2", DisplayName: "Jordan Smith", BaseSkill: 5.5, Personality: PersonalityCollaborative, ResponseClass: ResponseClassMedium},
	{ID: "ai_opponent_3", DisplayName: "Sam Taylor", BaseSkill: 7.0, Personality: PersonalityAnalytical, ResponseClass: ResponseClassSlow},
	{ID: "ai_opponent_4", DisplayName: "Casey Morgan", BaseSkill: 6.0, Personality: PersonalityCompetitive, ResponseClass: ResponseClassMedium},
	{ID: "ai_opponent_5", DisplayName: "Riley Park", BaseSkill: 7.5, Personality: PersonalityAnalytical, ResponseClass: ResponseClassFast},
	{ID: "ai_opponent_6", DisplayName: "Quinn Davis", BaseSkill: 5.8, Personality: PersonalityCollaborative, ResponseClass: ResponseClassSlow},
	{ID: "ai_opponent_7", DisplayName: "Morgan Lee", BaseSkill: 8.0, Personality: PersonalityCompetitive, ResponseClass: ResponseClassFast},
	{ID: "ai_opponent_8", DisplayName: "Avery Kim", BaseSkill: 6.8, Personality: PersonalityAnalytical, ResponseClass: ResponseClassMedium},
}

// Roster returns a copy of the static opponent table.
func Roster() []Opponent {
	out := make([]Opponent, len(roster))
	copy(out, roster)

	return out
}

type personalityProfile struct {
	baseAccuracy     float64
	variance         float64
	slowStart        bool
	improvesOverTime bool
	adaptsToOpponent bool
}

var personalityProfiles = map[string]personalityProfile{
	PersonalityCompetitive:   {baseAccuracy: 0.85, variance: 0.10, improvesOverTime: true, adaptsToOpponent: true},
	PersonalityCollaborative: {baseAccuracy: 0.80, variance: 0.08},
	PersonalityAnalytical:    {baseAccuracy: 0.88, variance: 0.05, slowStart: true, improvesOverTime: true, adaptsToOpponent: true},
}

type responseRange struct {
	minMs int
	maxMs int
}

var responseRanges = map[string]responseRange{
	ResponseClassFast:   {minMs: 800, maxMs: 2000},
	ResponseClassMedium: {minMs: 2000, maxMs: 4000},
	ResponseClassSlow:   {minMs: 4000, maxMs: 7000},
}
