// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package persistence

import (
	"github.com/AccelByte/tournament-matchmaker/pkg/envelope"
	"github.com/AccelByte/tournament-matchmaker/pkg/models"
)

// NopSink satisfies Sink with no durable storage behind it. Deployments
// without a database run with live state only.
type NopSink struct{}

func NewNopSink() NopSink { return NopSink{} }

func (NopSink) CreateTournamentMatch(*envelope.Scope, models.Match) error { return nil }

func (NopSink) UpdateTournamentMatch(*envelope.Scope, string, string, map[string]string) error {
	return nil
}

func (NopSink) GetActiveMatchForParticipant(*envelope.Scope, string, int) (*TournamentMatch, error) {
	return nil, nil
}

func (NopSink) GetParticipant(*envelope.Scope, string) (*Participant, error) { return nil, nil }

func (NopSink) GetParticipantStats(*envelope.Scope, string) (*ParticipantStats, error) {
	return nil, nil
}

func (NopSink) RecordActivity(*envelope.Scope, string, string, string) error { return nil }

func (NopSink) RecordMatchResult(*envelope.Scope, MatchResult) error { return nil }

func (NopSink) GetMatchHistory(*envelope.Scope, string, int) ([]TournamentMatch, error) {
	return nil, nil
}
