// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package dispatcher

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gofiber/contrib/websocket"

	"github.com/AccelByte/tournament-matchmaker/pkg/envelope"
	"github.com/AccelByte/tournament-matchmaker/pkg/validation"
)

// inboundEvent is the wire envelope of every client -> server message.
type inboundEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type registerPayload struct {
	ParticipantID   string `json:"participantId"`
	RoundNumber     int    `json:"roundNumber"`
	ParticipantName string `json:"participantName"`
	TreatmentGroup  string `json:"treatmentGroup"`
}

type cancelPayload struct {
	ParticipantID string `json:"participantId"`
	RoundNumber   int    `json:"roundNumber"`
}

type queueStatusPayload struct {
	RoundNumber int `json:"roundNumber"`
}

type matchUpdatePayload struct {
	MatchID    string                 `json:"matchId"`
	UpdateType string                 `json:"updateType"`
	UpdateData map[string]interface{} `json:"updateData"`
}

type updateStatusPayload struct {
	ParticipantID string            `json:"participantId"`
	Status        string            `json:"status"`
	Meta          map[string]string `json:"meta"`
}

// NewWebSocketHandler returns the fiber websocket handler driving one
// connection's read loop until the transport drops.
func (d *Dispatcher) NewWebSocketHandler() func(conn *websocket.Conn) {
	return func(conn *websocket.Conn) {
		d.HandleConnection(conn)
	}
}

// HandleConnection runs the read loop for one connection. The connection
// has no participant identity until its first register event.
func (d *Dispatcher) HandleConnection(conn Conn) {
	scope := envelope.NewRootScope(context.Background(), "Dispatcher.connection", "")
	defer scope.Finish()

	var participantID string
	defer func() {
		d.disconnect(scope, participantID, conn)
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var event inboundEvent
		if err := json.Unmarshal(raw, &event); err != nil {
			d.sendError(scope, conn, "malformed event payload")
			continue
		}

		if id := d.handleEvent(scope, conn, participantID, event); id != "" {
			participantID = id
		}
		if participantID != "" {
			d.touch(participantID)
		}
	}
}

// handleEvent routes one inbound event. It returns the participant id
// when the event binds the connection to an identity.
func (d *Dispatcher) handleEvent(scope *envelope.Scope, conn Conn, participantID string, event inboundEvent) string {
	switch event.Event {
	case "register":
		return d.handleRegister(scope, conn, event.Data)
	case "start_matchmaking":
		return d.handleStartMatchmaking(scope, conn, event.Data)
	case "cancel_matchmaking":
		d.handleCancelMatchmaking(scope, conn, participantID, event.Data)
	case "get_queue_status":
		d.handleGetQueueStatus(scope, conn, event.Data)
	case "match_update":
		d.handleMatchUpdate(scope, conn, event.Data)
	case "update_status":
		d.handleUpdateStatus(scope, conn, participantID, event.Data)
	case "ping":
		d.sendTo(scope, conn, participantID, "pong", map[string]interface{}{"timestamp": time.Now().UnixMilli()})
	default:
		d.sendError(scope, conn, "unknown event: "+event.Event)
	}

	return ""
}

func (d *Dispatcher) handleRegister(scope *envelope.Scope, conn Conn, raw json.RawMessage) string {
	var payload registerPayload
	if err := json.Unmarshal(raw, &payload); err != nil || !validation.ValidUUID(payload.ParticipantID) {
		d.sendError(scope, conn, "register requires a valid participantId")

		return ""
	}
	if payload.RoundNumber != 0 && !validation.ValidRoundNumber(payload.RoundNumber) {
		d.sendError(scope, conn, "invalid round number")

		return ""
	}

	sess := d.register(scope, conn, payload.ParticipantID, payload.RoundNumber, payload.ParticipantName, payload.TreatmentGroup)
	sess.send(scope, "registration_success", map[string]interface{}{
		"participantId": payload.ParticipantID,
		"socketId":      sess.socketID,
		"timestamp":     time.Now().UnixMilli(),
	})

	if payload.RoundNumber != 0 {
		if status, err := d.engine.GetQueueStatus(scope, payload.RoundNumber); err == nil {
			sess.send(scope, "queue_status_update", status)
		}
	}

	return payload.ParticipantID
}

func (d *Dispatcher) handleStartMatchmaking(scope *envelope.Scope, conn Conn, raw json.RawMessage) string {
	var input validation.StartRequestInput
	if err := json.Unmarshal(raw, &input); err != nil {
		d.sendError(scope, conn, "malformed start_matchmaking payload")

		return ""
	}

	req, err := validation.ValidateStartRequest(input)
	if err != nil {
		d.sendTo(scope, conn, input.ParticipantID, "matchmaking_error", map[string]interface{}{"message": err.Error()})

		return ""
	}

	// start_matchmaking implies registration for sessions that skipped
	// the explicit register event.
	sess := d.lookup(req.ParticipantID)
	if sess == nil || sess.conn != conn {
		sess = d.register(scope, conn, req.ParticipantID, req.RoundNumber, req.ParticipantName, req.TreatmentGroup)
	}

	sess.send(scope, "matchmaking_started", map[string]interface{}{
		"roundNumber": req.RoundNumber,
		"timestamp":   time.Now().UnixMilli(),
	})

	result := d.engine.StartMatchmaking(scope, req)
	sess.send(scope, "matchmaking_status", result)

	return req.ParticipantID
}

func (d *Dispatcher) handleCancelMatchmaking(scope *envelope.Scope, conn Conn, participantID string, raw json.RawMessage) {
	var payload cancelPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		d.sendError(scope, conn, "malformed cancel_matchmaking payload")

		return
	}
	if payload.ParticipantID == "" {
		payload.ParticipantID = participantID
	}
	if !validation.ValidUUID(payload.ParticipantID) {
		d.sendError(scope, conn, "cancel_matchmaking requires a valid participantId")

		return
	}

	if err := d.engine.CancelMatchmaking(scope, payload.ParticipantID, payload.RoundNumber); err != nil {
		d.sendTo(scope, conn, payload.ParticipantID, "matchmaking_error", map[string]interface{}{"message": "cancel failed"})

		return
	}

	d.sendTo(scope, conn, payload.ParticipantID, "matchmaking_cancelled", map[string]interface{}{
		"participantId": payload.ParticipantID,
		"roundNumber":   payload.RoundNumber,
		"timestamp":     time.Now().UnixMilli(),
	})
}

func (d *Dispatcher) handleGetQueueStatus(scope *envelope.Scope, conn Conn, raw json.RawMessage) {
	var payload queueStatusPayload
	if err := json.Unmarshal(raw, &payload); err != nil || !validation.ValidRoundNumber(payload.RoundNumber) {
		d.sendError(scope, conn, "get_queue_status requires a valid roundNumber")

		return
	}

	status, err := d.engine.GetQueueStatus(scope, payload.RoundNumber)
	if err != nil {
		d.sendError(scope, conn, "queue status unavailable")

		return
	}
	d.sendRaw(scope, conn, "queue_status_update", status)
}

// handleMatchUpdate validates the match and relays the update to both
// peers of a human match, or the sole peer of an AI match.
func (d *Dispatcher) handleMatchUpdate(scope *envelope.Scope, conn Conn, raw json.RawMessage) {
	var payload matchUpdatePayload
	if err := json.Unmarshal(raw, &payload); err != nil || !validation.ValidUUID(payload.MatchID) {
		d.sendError(scope, conn, "match_update requires a valid matchId")

		return
	}

	match, err := d.engine.GetMatch(scope, payload.MatchID)
	if err != nil {
		d.sendError(scope, conn, "match not found")

		return
	}

	if payload.UpdateType == "status" {
		if status, ok := payload.UpdateData["status"].(string); ok {
			if err := d.engine.UpdateMatchStatus(scope, match.ID, status); err != nil {
				scope.Log.Warnf("failed updating match status: %s", err)
			}
		}
	}

	update := map[string]interface{}{
		"matchId":    match.ID,
		"updateType": payload.UpdateType,
		"updateData": payload.UpdateData,
		"timestamp":  time.Now().UnixMilli(),
	}

	d.pushToParticipant(scope, match.Participant1ID, "match_update", update)
	if !match.IsAI && match.Participant2ID != "" {
		d.pushToParticipant(scope, match.Participant2ID, "match_update", update)
	}
}

func (d *Dispatcher) handleUpdateStatus(scope *envelope.Scope, conn Conn, participantID string, raw json.RawMessage) {
	var payload updateStatusPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		d.sendError(scope, conn, "malformed update_status payload")

		return
	}
	if payload.ParticipantID == "" {
		payload.ParticipantID = participantID
	}
	if !validation.ValidUUID(payload.ParticipantID) || payload.Status == "" {
		d.sendError(scope, conn, "update_status requires participantId and status")

		return
	}

	if err := d.registry.Set(scope, payload.ParticipantID, payload.Status, payload.Meta); err != nil {
		d.sendError(scope, conn, "status write failed")

		return
	}

	d.sendTo(scope, conn, payload.ParticipantID, "status_updated", map[string]interface{}{
		"participantId": payload.ParticipantID,
		"status":        payload.Status,
		"timestamp":     time.Now().UnixMilli(),
	})
}

// pushToParticipant delivers a targeted event when the peer has a live
// session; absent peers just miss the push, live state stays correct.
func (d *Dispatcher) pushToParticipant(scope *envelope.Scope, participantID, event string, data interface{}) {
	sess := d.lookup(participantID)
	if sess == nil {
		scope.Log.WithField("participantId", participantID).
			Debugf("no session for %s push", event)

		return
	}
	sess.send(scope, event, data)
}

// sendTo prefers the registered session (serialized writes) and falls
// back to the bare connection before registration.
func (d *Dispatcher) sendTo(scope *envelope.Scope, conn Conn, participantID, event string, data interface{}) {
	if sess := d.lookup(participantID); sess != nil && sess.conn == conn {
		sess.send(scope, event, data)

		return
	}
	d.sendRaw(scope, conn, event, data)
}

func (d *Dispatcher) sendError(scope *envelope.Scope, conn Conn, message string) {
	d.sendRaw(scope, conn, "error", map[string]interface{}{"message": message})
}

func (d *Dispatcher) sendRaw(scope *envelope.Scope, conn Conn, event string, data interface{}) {
	payload, err := json.Marshal(map[string]interface{}{"event": event, "data": data})
	if err != nil {
		scope.Log.Errorf("failed marshalling %s event: %s", event, err)

		return
	}
	if err := conn.SetWriteDeadline(time.Now().Add(writeDeadline)); err != nil {
		return
	}
	if err := conn.WriteMessage(textMessage, payload); err != nil {
		scope.Log.Warnf("raw push write failed: %s", err)
	}
}
