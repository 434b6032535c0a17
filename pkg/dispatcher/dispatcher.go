// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

// Package dispatcher owns the push sessions: one live bidirectional
// connection per participant, targeted event delivery, heartbeats, and
// the per-peer materialization of match-found events.
package dispatcher

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/AccelByte/tournament-matchmaker/pkg/common"
	"github.com/AccelByte/tournament-matchmaker/pkg/config"
	"github.com/AccelByte/tournament-matchmaker/pkg/envelope"
	"github.com/AccelByte/tournament-matchmaker/pkg/matchmaker"
	"github.com/AccelByte/tournament-matchmaker/pkg/metrics"
	"github.com/AccelByte/tournament-matchmaker/pkg/registry"
)

const writeDeadline = 5 * time.Second

// Conn is the slice of a websocket connection the dispatcher uses.
// *websocket.Conn satisfies it; tests substitute an in-memory pipe.
type Conn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

const textMessage = 1

// session is one live push connection.
type session struct {
	participantID  string
	socketID       string
	conn           Conn
	roundNumber    int
	displayName    string
	treatmentGroup string
	connectedAt    time.Time
	lastSeen       time.Time
	status         string

	writeMu sync.Mutex
}

func (s *session) send(scope *envelope.Scope, event string, data interface{}) {
	payload, err := json.Marshal(map[string]interface{}{"event": event, "data": data})
	if err != nil {
		scope.Log.Errorf("failed marshalling %s event: %s", event, err)

		return
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.conn.SetWriteDeadline(time.Now().Add(writeDeadline)); err != nil {
		scope.Log.Warnf("failed setting write deadline: %s", err)

		return
	}
	if err := s.conn.WriteMessage(textMessage, payload); err != nil {
		scope.Log.WithField("participantId", s.participantID).
			Warnf("push write failed: %s", err)
	}
}

type Dispatcher struct {
	cfg      *config.Config
	engine   *matchmaker.Engine
	registry *registry.Service
	metrics  metrics.MatchmakingMetrics

	mu       sync.RWMutex
	sessions map[string]*session

	stopHeartbeat context.CancelFunc
}

func New(cfg *config.Config, engine *matchmaker.Engine, reg *registry.Service, mmMetrics metrics.MatchmakingMetrics) *Dispatcher {
	return &Dispatcher{
		cfg:      cfg,
		engine:   engine,
		registry: reg,
		metrics:  mmMetrics,
		sessions: map[string]*session{},
	}
}

// register upserts the session for a participant. Reconnects replace the
// previous connection.
func (d *Dispatcher) register(scope *envelope.Scope, conn Conn, participantID string, roundNumber int, name, treatmentGroup string) *session {
	now := time.Now()
	sess := &session{
		participantID:  participantID,
		socketID:       common.GenerateUUID(),
		conn:           conn,
		roundNumber:    roundNumber,
		displayName:    name,
		treatmentGroup: treatmentGroup,
		connectedAt:    now,
		lastSeen:       now,
		status:         "connected",
	}

	d.mu.Lock()
	previous := d.sessions[participantID]
	d.sessions[participantID] = sess
	count := len(d.sessions)
	d.mu.Unlock()

	if previous != nil && previous.conn != conn {
		_ = previous.conn.Close()
	}
	d.metrics.SetConnectedSessions(count)

	return sess
}

func (d *Dispatcher) lookup(participantID string) *session {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return d.sessions[participantID]
}

func (d *Dispatcher) touch(participantID string) {
	d.mu.Lock()
	if sess, ok := d.sessions[participantID]; ok {
		sess.lastSeen = time.Now()
	}
	d.mu.Unlock()
}

// remove drops the session; returns whether it existed.
func (d *Dispatcher) remove(participantID string, conn Conn) bool {
	d.mu.Lock()
	sess, ok := d.sessions[participantID]
	// A reconnect may already have replaced the session; only the owner
	// connection may remove it.
	if ok && (conn == nil || sess.conn == conn) {
		delete(d.sessions, participantID)
	} else {
		ok = false
	}
	count := len(d.sessions)
	d.mu.Unlock()

	d.metrics.SetConnectedSessions(count)

	return ok
}

// SessionCount reports the number of live sessions.
func (d *Dispatcher) SessionCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return len(d.sessions)
}

// StartHeartbeat begins the periodic session sweep: stale sessions are
// dropped and marked timeout, then every surviving session receives a
// heartbeat event with the connected count.
func (d *Dispatcher) StartHeartbeat() {
	ctx, stop := context.WithCancel(context.Background())
	d.stopHeartbeat = stop

	go func() {
		ticker := time.NewTicker(d.cfg.HeartbeatInterval())
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				scope := envelope.NewRootScope(context.Background(), "Dispatcher.heartbeat", "")
				d.runHeartbeat(scope)
				scope.Finish()
			}
		}
	}()
}

func (d *Dispatcher) StopHeartbeat() {
	if d.stopHeartbeat != nil {
		d.stopHeartbeat()
	}
}

// runHeartbeat performs one sweep; exported through tests via
// RunHeartbeatOnce.
func (d *Dispatcher) runHeartbeat(scope *envelope.Scope) {
	cutoff := time.Now().Add(-d.cfg.ConnectionTimeout())

	d.mu.Lock()
	var stale []*session
	for id, sess := range d.sessions {
		if sess.lastSeen.Before(cutoff) {
			stale = append(stale, sess)
			delete(d.sessions, id)
		}
	}
	live := make([]*session, 0, len(d.sessions))
	for _, sess := range d.sessions {
		live = append(live, sess)
	}
	count := len(d.sessions)
	d.mu.Unlock()

	d.metrics.SetConnectedSessions(count)

	for _, sess := range stale {
		scope.Log.WithField("participantId", sess.participantID).
			Info("dropping stale session")
		_ = sess.conn.Close()
		if err := d.engine.TimeoutParticipant(scope, sess.participantID); err != nil {
			scope.Log.Warnf("failed timing out participant: %s", err)
		}
	}

	payload := map[string]interface{}{
		"connectedCount": count,
		"timestamp":      time.Now().UnixMilli(),
	}
	for _, sess := range live {
		sess.send(scope, "heartbeat", payload)
	}
}

// RunHeartbeatOnce is the test hook for a single sweep.
func (d *Dispatcher) RunHeartbeatOnce(scope *envelope.Scope) {
	d.runHeartbeat(scope)
}

// disconnect tears down one connection: session removal, status write,
// and cancellation of any in-flight search.
func (d *Dispatcher) disconnect(scope *envelope.Scope, participantID string, conn Conn) {
	if participantID == "" {
		return
	}
	if !d.remove(participantID, conn) {
		return
	}

	scope.Log.WithField("participantId", participantID).Info("session disconnected")
	if err := d.engine.DisconnectParticipant(scope, participantID); err != nil {
		scope.Log.Warnf("failed handling disconnect: %s", err)
	}
}
