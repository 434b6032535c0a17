// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

// Package validation enforces the boundary rules before any payload
// reaches the matchmaking engine. Invalid input never crosses this line.
package validation

import (
	"regexp"

	"github.com/AccelByte/tournament-matchmaker/pkg/constants"
	"github.com/AccelByte/tournament-matchmaker/pkg/models"
)

// uuidPattern accepts UUID versions 1-5 with RFC 4122 variant bits.
var uuidPattern = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[1-5][0-9a-fA-F]{3}-[89abAB][0-9a-fA-F]{3}-[0-9a-fA-F]{12}$`)

func ValidUUID(id string) bool {
	return uuidPattern.MatchString(id)
}

func ValidRoundNumber(round int) bool {
	return round >= constants.MinRoundNumber && round <= constants.MaxRoundNumber
}

func ValidSkillLevel(skill float64) bool {
	return skill >= constants.MinSkillLevel && skill <= constants.MaxSkillLevel
}

// StartRequestInput is the raw, untrusted shape of a start_matchmaking
// payload as decoded from the wire.
type StartRequestInput struct {
	ParticipantID   string   `json:"participantId"`
	ParticipantName string   `json:"participantName"`
	RoundNumber     *int     `json:"roundNumber"`
	SkillLevel      *float64 `json:"skillLevel"`
	TreatmentGroup  string   `json:"treatmentGroup"`
}

// ValidateStartRequest checks every boundary rule and returns a validated
// request record. The input is never mutated.
func ValidateStartRequest(in StartRequestInput) (models.StartRequest, error) {
	var req models.StartRequest

	if !ValidUUID(in.ParticipantID) {
		return req, models.ErrInvalidParticipantID
	}
	if in.RoundNumber == nil || !ValidRoundNumber(*in.RoundNumber) {
		return req, models.ErrInvalidRoundNumber
	}

	// Skill defaults to the scale midpoint for participants with no
	// recorded history.
	skill := 5.5
	if in.SkillLevel != nil {
		if !ValidSkillLevel(*in.SkillLevel) {
			return req, models.ErrInvalidSkillLevel
		}
		skill = *in.SkillLevel
	}

	if !models.ValidTreatmentGroup(in.TreatmentGroup) {
		return req, models.ErrInvalidTreatmentGroup
	}

	req = models.StartRequest{
		ParticipantID:   in.ParticipantID,
		ParticipantName: in.ParticipantName,
		RoundNumber:     *in.RoundNumber,
		SkillLevel:      skill,
		TreatmentGroup:  in.TreatmentGroup,
	}

	return req, nil
}
