// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package dispatcher

import (
	"encoding/json"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AccelByte/tournament-matchmaker/pkg/config"
	"github.com/AccelByte/tournament-matchmaker/pkg/testsetup"
)

// fakeConn is an in-memory stand-in for a websocket connection.
type fakeConn struct {
	inbound chan []byte

	mu      sync.Mutex
	written [][]byte
	closed  bool
}

func newFakeConn() *fakeConn {
	return &fakeConn{inbound: make(chan []byte, 16)}
}

func (c *fakeConn) ReadMessage() (int, []byte, error) {
	msg, ok := <-c.inbound
	if !ok {
		return 0, nil, io.EOF
	}

	return 1, msg, nil
}

func (c *fakeConn) WriteMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	buf := make([]byte, len(data))
	copy(buf, data)
	c.written = append(c.written, buf)

	return nil
}

func (c *fakeConn) SetWriteDeadline(time.Time) error { return nil }

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.inbound)
	}

	return nil
}

func (c *fakeConn) sendEvent(t *testing.T, event string, data interface{}) {
	t.Helper()
	raw, err := json.Marshal(map[string]interface{}{"event": event, "data": data})
	require.NoError(t, err)
	c.inbound <- raw
}

// receivedEvents decodes everything written so far into event -> payloads.
func (c *fakeConn) receivedEvents(t *testing.T) map[string][]map[string]interface{} {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()

	out := map[string][]map[string]interface{}{}
	for _, raw := range c.written {
		var envelope struct {
			Event string                 `json:"event"`
			Data  map[string]interface{} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(raw, &envelope))
		out[envelope.Event] = append(out[envelope.Event], envelope.Data)
	}

	return out
}

func (c *fakeConn) waitForEvent(t *testing.T, event string) map[string]interface{} {
	t.Helper()
	var payload map[string]interface{}
	require.Eventually(t, func() bool {
		events := c.receivedEvents(t)
		if got, ok := events[event]; ok {
			payload = got[len(got)-1]

			return true
		}

		return false
	}, 2*time.Second, 10*time.Millisecond, "expected %s event", event)

	return payload
}

func runConnection(t *testing.T, disp *Dispatcher, conn *fakeConn) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		disp.HandleConnection(conn)
		close(done)
	}()
	t.Cleanup(func() {
		_ = conn.Close()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Log("connection goroutine did not exit")
		}
	})
}

func TestRegister_AcknowledgesAndReportsQueue(t *testing.T) {
	t.Parallel()
	disp := newDispatcherFixture(t, nil)
	conn := newFakeConn()
	runConnection(t, disp, conn)

	conn.sendEvent(t, "register", map[string]interface{}{
		"participantId":   peer1,
		"roundNumber":     2,
		"participantName": "Jordan",
	})

	ack := conn.waitForEvent(t, "registration_success")
	assert.Equal(t, peer1, ack["participantId"])
	assert.NotEmpty(t, ack["socketId"])

	status := conn.waitForEvent(t, "queue_status_update")
	assert.EqualValues(t, 2, status["roundNumber"])
	assert.Equal(t, 1, disp.SessionCount())
}

func TestRegister_RejectsInvalidParticipantID(t *testing.T) {
	t.Parallel()
	disp := newDispatcherFixture(t, nil)
	conn := newFakeConn()
	runConnection(t, disp, conn)

	conn.sendEvent(t, "register", map[string]interface{}{"participantId": "not-a-uuid"})

	errPayload := conn.waitForEvent(t, "error")
	assert.Contains(t, errPayload["message"], "participantId")
	assert.Equal(t, 0, disp.SessionCount())
}

func TestStartMatchmaking_EmitsStartedAndStatus(t *testing.T) {
	t.Parallel()
	disp := newDispatcherFixture(t, nil)
	conn := newFakeConn()
	runConnection(t, disp, conn)

	conn.sendEvent(t, "start_matchmaking", map[string]interface{}{
		"participantId": peer1,
		"roundNumber":   1,
		"skillLevel":    7.0,
	})

	started := conn.waitForEvent(t, "matchmaking_started")
	assert.EqualValues(t, 1, started["roundNumber"])

	status := conn.waitForEvent(t, "matchmaking_status")
	assert.Equal(t, "searching", status["status"])

	// the empty queue resolves through the AI fallback
	found := conn.waitForEvent(t, "match_found")
	assert.Equal(t, true, found["isAI"])
	assert.Equal(t, "participant1", found["myRole"])
}

func TestStartMatchmaking_InvalidRoundEmitsMatchmakingError(t *testing.T) {
	t.Parallel()
	disp := newDispatcherFixture(t, nil)
	conn := newFakeConn()
	runConnection(t, disp, conn)

	conn.sendEvent(t, "start_matchmaking", map[string]interface{}{
		"participantId": peer1,
		"roundNumber":   11,
	})

	errPayload := conn.waitForEvent(t, "matchmaking_error")
	assert.Contains(t, errPayload["message"], "round")
}

func TestHumanPairing_BothPeersReceiveMirroredViews(t *testing.T) {
	t.Parallel()
	disp := newDispatcherFixture(t, func(cfg *config.Config) { cfg.HumanSearchTimeoutMs = 5000 })
	connA := newFakeConn()
	connB := newFakeConn()
	runConnection(t, disp, connA)
	runConnection(t, disp, connB)

	connA.sendEvent(t, "start_matchmaking", map[string]interface{}{
		"participantId":   peer1,
		"roundNumber":     1,
		"skillLevel":      7.0,
		"participantName": "Jordan",
	})
	connA.waitForEvent(t, "matchmaking_status")

	connB.sendEvent(t, "start_matchmaking", map[string]interface{}{
		"participantId":   peer2,
		"roundNumber":     1,
		"skillLevel":      7.5,
		"participantName": "Casey",
	})

	foundA := connA.waitForEvent(t, "match_found")
	foundB := connB.waitForEvent(t, "match_found")

	assert.Equal(t, false, foundA["isAI"])
	assert.Equal(t, false, foundB["isAI"])
	assert.Equal(t, foundA["id"], foundB["id"])

	// roles depend on who completed the pair; they must differ
	assert.NotEqual(t, foundA["myRole"], foundB["myRole"])

	var oppA, oppB map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(foundA["opponent"].(string)), &oppA))
	require.NoError(t, json.Unmarshal([]byte(foundB["opponent"].(string)), &oppB))
	assert.Equal(t, peer2, oppA["id"])
	assert.Equal(t, peer1, oppB["id"])
	assert.Equal(t, "Casey", oppA["displayName"])
	assert.Equal(t, "Jordan", oppB["displayName"])
}

func TestPing_Pong(t *testing.T) {
	t.Parallel()
	disp := newDispatcherFixture(t, nil)
	conn := newFakeConn()
	runConnection(t, disp, conn)

	conn.sendEvent(t, "ping", map[string]interface{}{})
	pong := conn.waitForEvent(t, "pong")
	assert.NotNil(t, pong["timestamp"])
}

func TestUpdateStatus_WritesThrough(t *testing.T) {
	t.Parallel()
	disp := newDispatcherFixture(t, nil)
	conn := newFakeConn()
	runConnection(t, disp, conn)

	conn.sendEvent(t, "update_status", map[string]interface{}{
		"participantId": peer1,
		"status":        "searching",
	})

	ack := conn.waitForEvent(t, "status_updated")
	assert.Equal(t, "searching", ack["status"])

	scope := testsetup.NewTestScope()
	status, err := disp.registry.GetStatus(scope, peer1)
	require.NoError(t, err)
	assert.Equal(t, "searching", status)
}

func TestMatchUpdate_UnknownMatchIsRejected(t *testing.T) {
	t.Parallel()
	disp := newDispatcherFixture(t, nil)
	conn := newFakeConn()
	runConnection(t, disp, conn)

	conn.sendEvent(t, "match_update", map[string]interface{}{
		"matchId":    "00000000-0000-4000-8000-00000000dead",
		"updateType": "status",
		"updateData": map[string]interface{}{"status": "completed"},
	})

	errPayload := conn.waitForEvent(t, "error")
	assert.Contains(t, errPayload["message"], "match not found")
}

func TestMalformedPayload_EmitsError(t *testing.T) {
	t.Parallel()
	disp := newDispatcherFixture(t, nil)
	conn := newFakeConn()
	runConnection(t, disp, conn)

	conn.inbound <- []byte("{not json")
	errPayload := conn.waitForEvent(t, "error")
	assert.Contains(t, errPayload["message"], "malformed")
}

func TestHeartbeat_DropsStaleSessions(t *testing.T) {
	t.Parallel()
	scope := testsetup.NewTestScope()
	disp := newDispatcherFixture(t, nil)
	conn := newFakeConn()
	runConnection(t, disp, conn)

	conn.sendEvent(t, "register", map[string]interface{}{"participantId": peer1})
	conn.waitForEvent(t, "registration_success")

	// age the session past the connection timeout
	disp.mu.Lock()
	disp.sessions[peer1].lastSeen = time.Now().Add(-2 * time.Minute)
	disp.mu.Unlock()

	disp.RunHeartbeatOnce(scope)

	assert.Equal(t, 0, disp.SessionCount())
	status, err := disp.registry.GetStatus(scope, peer1)
	require.NoError(t, err)
	assert.Equal(t, "timeout", status)
}

func TestHeartbeat_BroadcastsConnectedCount(t *testing.T) {
	t.Parallel()
	scope := testsetup.NewTestScope()
	disp := newDispatcherFixture(t, nil)
	conn := newFakeConn()
	runConnection(t, disp, conn)

	conn.sendEvent(t, "register", map[string]interface{}{"participantId": peer1})
	conn.waitForEvent(t, "registration_success")

	disp.RunHeartbeatOnce(scope)

	beat := conn.waitForEvent(t, "heartbeat")
	assert.EqualValues(t, 1, beat["connectedCount"])
}

func TestDisconnect_CancelsActiveSearch(t *testing.T) {
	t.Parallel()
	scope := testsetup.NewTestScope()
	disp := newDispatcherFixture(t, func(cfg *config.Config) { cfg.HumanSearchTimeoutMs = 5000 })
	conn := newFakeConn()
	runConnection(t, disp, conn)

	conn.sendEvent(t, "start_matchmaking", map[string]interface{}{
		"participantId": peer1,
		"roundNumber":   1,
		"skillLevel":    7.0,
	})
	conn.waitForEvent(t, "matchmaking_status")

	// transport drop
	_ = conn.Close()

	require.Eventually(t, func() bool {
		return disp.SessionCount() == 0
	}, 2*time.Second, 10*time.Millisecond)

	require.Eventually(t, func() bool {
		status, err := disp.registry.GetStatus(scope, peer1)

		return err == nil && status == "disconnected"
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, 0, disp.engine.ActiveSearchCount())
}
