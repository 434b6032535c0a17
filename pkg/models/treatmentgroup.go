// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package models

// Treatment groups recognized by the experiment platform. Long forms are
// what the survey frontend sends; short aliases come from older clients.
const (
	TreatmentControl          = "Group 1: Control"
	TreatmentGoalSetting      = "Group 2: Goal Setting Only"
	TreatmentGoalAI           = "Group 3: Goal Setting + AI Assistant"
	TreatmentTournament       = "Group 4: Goal Setting + AI Assistant + Competition"
	TreatmentBlindTournament  = "Group 5: Goal Setting + AI Assistant + Blind Competition"

	TreatmentAliasControl     = "control"
	TreatmentAliasGoalSetting = "goal_setting"
	TreatmentAliasGoalAI      = "goal_ai"
	TreatmentAliasTournament  = "tournament"
)

var treatmentGroups = map[string]bool{
	TreatmentControl:          true,
	TreatmentGoalSetting:      true,
	TreatmentGoalAI:           true,
	TreatmentTournament:       true,
	TreatmentBlindTournament:  true,
	TreatmentAliasControl:     true,
	TreatmentAliasGoalSetting: true,
	TreatmentAliasGoalAI:      true,
	TreatmentAliasTournament:  true,
}

// ValidTreatmentGroup reports whether the value is one of the recognized
// long forms or short aliases. An empty value is allowed and means the
// participant has not been assigned yet.
func ValidTreatmentGroup(group string) bool {
	if group == "" {
		return true
	}

	return treatmentGroups[group]
}
