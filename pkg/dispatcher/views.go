// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package dispatcher

import (
	"strconv"
	"time"

	"github.com/mitchellh/copystructure"

	"github.com/AccelByte/tournament-matchmaker/pkg/common"
	"github.com/AccelByte/tournament-matchmaker/pkg/envelope"
	"github.com/AccelByte/tournament-matchmaker/pkg/models"
)

// MatchFoundView is the per-peer payload of a match_found event. Each
// peer sees the other side as the opponent descriptor.
type MatchFoundView struct {
	ID             string `json:"id"`
	Participant1ID string `json:"participant1_id"`
	Participant2ID string `json:"participant2_id,omitempty"`
	RoundNumber    int    `json:"round_number"`
	MatchType      string `json:"match_type"`
	Status         string `json:"status"`
	CreatedAt      int64  `json:"created_at"`
	IsAI           bool   `json:"isAI"`
	Opponent       string `json:"opponent"`
	MyRole         string `json:"myRole"`
	Timestamp      int64  `json:"timestamp"`
	AISettings     string `json:"aiSettings,omitempty"`
}

// MatchFound implements matchmaker.MatchObserver: it materializes the
// per-peer views of the produced match and pushes them to the connected
// sessions.
func (d *Dispatcher) MatchFound(rootScope *envelope.Scope, match models.Match) {
	scope := rootScope.NewChildScope("Dispatcher.MatchFound")
	defer scope.Finish()

	views := d.BuildMatchViews(scope, match)
	for participantID, view := range views {
		d.pushToParticipant(scope, participantID, "match_found", view)
	}
}

// BuildMatchViews produces the participant-id -> view map for a match.
// AI matches have a single view; human matches two, each carrying the
// other peer as opponent.
func (d *Dispatcher) BuildMatchViews(scope *envelope.Scope, match models.Match) map[string]MatchFoundView {
	isAI := match.IsAI
	now := time.Now().UnixMilli()

	base := MatchFoundView{
		ID:             match.ID,
		Participant1ID: match.Participant1ID,
		Participant2ID: match.Participant2ID,
		RoundNumber:    match.RoundNumber,
		MatchType:      match.MatchType,
		Status:         match.Status,
		CreatedAt:      match.CreatedAt,
		IsAI:           isAI,
		Opponent:       match.Opponent,
		Timestamp:      now,
		AISettings:     match.AISettings,
	}

	if isAI {
		view := base
		view.MyRole = "participant1"

		return map[string]MatchFoundView{match.Participant1ID: view}
	}

	views := map[string]MatchFoundView{}

	// participant1 sees participant2 as the opponent; the stored
	// descriptor already points at participant2.
	view1 := base
	view1.MyRole = "participant1"
	view1.Opponent = d.opponentDescriptor(scope, match, match.Participant2ID, match.Participant2Name)
	views[match.Participant1ID] = view1

	view2 := base
	view2.MyRole = "participant2"
	view2.Opponent = d.opponentDescriptor(scope, match, match.Participant1ID, match.Participant1Name)
	views[match.Participant2ID] = view2

	return views
}

// opponentDescriptor rebuilds the descriptor for one side of a human
// match. Display names resolve match record first, then the registered
// session, then the derived placeholder.
func (d *Dispatcher) opponentDescriptor(scope *envelope.Scope, match models.Match, opponentID, recordedName string) string {
	name := recordedName
	if name == "" {
		if sess := d.lookup(opponentID); sess != nil {
			name = sess.displayName
		}
	}
	name = common.DisplayNameOrPlaceholder(name, opponentID)

	// Start from the stored descriptor when it already describes this
	// opponent, preserving fields like skill level.
	if info, err := models.DecodeOpponentInfo(match.Opponent); err == nil && info.ID == opponentID {
		copied, err := copystructure.Copy(info)
		if err == nil {
			view := copied.(models.OpponentInfo)
			view.DisplayName = name

			return view.Encode()
		}
	}

	return models.OpponentInfo{
		ID:          opponentID,
		DisplayName: name,
		IsAI:        false,
	}.Encode()
}

// CoerceIsAI normalizes the string form of isAI coming off the shared
// store into a boolean.
func CoerceIsAI(raw string) bool {
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false
	}

	return value
}
