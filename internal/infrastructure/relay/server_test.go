package relay

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"meetgate/internal/core/domain"
	apperrors "meetgate/pkg/errors"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// stubVerifier accepts credentials of the form "token-<uid>".
type stubVerifier struct{}

func (stubVerifier) Verify(ctx context.Context, credential string) (*domain.Identity, error) {
	if credential == "stale-credential" {
		return nil, apperrors.NewExpiredError("session has expired")
	}
	if !strings.HasPrefix(credential, "token-") {
		return nil, apperrors.NewUnauthenticatedError("invalid session credential")
	}
	uid := strings.TrimPrefix(credential, "token-")
	return &domain.Identity{UID: domain.UserID(uid)}, nil
}

func newRelayServer(t *testing.T) *httptest.Server {
	logger := zaptest.NewLogger(t).Sugar()
	registry := NewRegistry(nil, logger)
	server := NewServer(stubVerifier{}, registry, Config{
		CookieName:        "session",
		PingInterval:      30 * time.Second,
		PongTimeout:       60 * time.Second,
		WriteTimeout:      5 * time.Second,
		MaxMessageSize:    4096,
		SendBuffer:        32,
		MessagesPerSecond: 100,
		Burst:             100,
	}, nil, logger)

	ts := httptest.NewServer(http.HandlerFunc(server.HandleWebSocket))
	t.Cleanup(ts.Close)
	return ts
}

func dial(t *testing.T, ts *httptest.Server, uid string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	header := http.Header{"Cookie": {"session=token-" + uid}}
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func sendEvent(t *testing.T, conn *websocket.Conn, event string, payload interface{}) {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(Envelope{Event: event, Data: data}))
}

func readEvent(t *testing.T, conn *websocket.Conn) Envelope {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var envelope Envelope
	require.NoError(t, conn.ReadJSON(&envelope))
	return envelope
}

func assertSilent(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(150 * time.Millisecond))
	var envelope Envelope
	err := conn.ReadJSON(&envelope)
	require.Error(t, err, "expected no delivery, got %q", envelope.Event)
}

func TestHandshake_RejectedWithoutCredential(t *testing.T) {
	ts := newRelayServer(t)
	url := "ws" + strings.TrimPrefix(ts.URL, "http")

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHandshake_ExpiredCredentialMessageSurvives(t *testing.T) {
	ts := newRelayServer(t)
	url := "ws" + strings.TrimPrefix(ts.URL, "http")

	header := http.Header{"Cookie": {"session=stale-credential"}}
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	body, readErr := io.ReadAll(resp.Body)
	require.NoError(t, readErr)
	resp.Body.Close()
	assert.Contains(t, string(body), "session has expired")
}

func TestHandshake_AcceptsBearerHeader(t *testing.T) {
	ts := newRelayServer(t)
	url := "ws" + strings.TrimPrefix(ts.URL, "http")

	header := http.Header{"Authorization": {"Bearer token-u1"}}
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	conn.Close()
}

func TestJoin_PeerSeesUserJoined(t *testing.T) {
	ts := newRelayServer(t)
	u1 := dial(t, ts, "u1")
	u2 := dial(t, ts, "u2")

	sendEvent(t, u1, EventJoinMeeting, JoinPayload{MeetingID: "m1"})
	sendEvent(t, u2, EventJoinMeeting, JoinPayload{MeetingID: "m1"})

	envelope := readEvent(t, u1)
	assert.Equal(t, EventUserJoined, envelope.Event)

	var payload PresencePayload
	require.NoError(t, json.Unmarshal(envelope.Data, &payload))
	assert.Equal(t, domain.UserID("u2"), payload.UserID)
	assert.NotEmpty(t, payload.ConnectionID)
}

func TestChat_EchoesToAllMembersExactlyOnce(t *testing.T) {
	ts := newRelayServer(t)
	u1 := dial(t, ts, "u1")
	u2 := dial(t, ts, "u2")

	sendEvent(t, u1, EventJoinMeeting, JoinPayload{MeetingID: "m1"})
	sendEvent(t, u2, EventJoinMeeting, JoinPayload{MeetingID: "m1"})
	readEvent(t, u1) // user-joined for u2

	sendEvent(t, u2, EventChatMessage, ChatPayload{MeetingID: "m1", Message: "hi", UserID: "spoofed"})

	for _, conn := range []*websocket.Conn{u1, u2} {
		envelope := readEvent(t, conn)
		require.Equal(t, EventChatMessage, envelope.Event)

		var delivery ChatDelivery
		require.NoError(t, json.Unmarshal(envelope.Data, &delivery))
		assert.Equal(t, "hi", delivery.Message)
		// The verified handshake identity wins over the payload field.
		assert.Equal(t, domain.UserID("u2"), delivery.UserID)

		_, err := time.Parse(time.RFC3339, delivery.Timestamp)
		assert.NoError(t, err, "timestamp must be ISO 8601")
	}

	assertSilent(t, u1)
}

func TestChat_PreservesSenderOrder(t *testing.T) {
	ts := newRelayServer(t)
	u1 := dial(t, ts, "u1")
	u2 := dial(t, ts, "u2")

	sendEvent(t, u1, EventJoinMeeting, JoinPayload{MeetingID: "m1"})
	sendEvent(t, u2, EventJoinMeeting, JoinPayload{MeetingID: "m1"})
	readEvent(t, u1)

	for _, msg := range []string{"one", "two", "three"} {
		sendEvent(t, u1, EventChatMessage, ChatPayload{MeetingID: "m1", Message: msg})
	}

	for _, want := range []string{"one", "two", "three"} {
		envelope := readEvent(t, u2)
		var delivery ChatDelivery
		require.NoError(t, json.Unmarshal(envelope.Data, &delivery))
		assert.Equal(t, want, delivery.Message)
	}
}

func TestSignal_DeliveredOnlyToTarget(t *testing.T) {
	ts := newRelayServer(t)
	u1 := dial(t, ts, "u1")
	u2 := dial(t, ts, "u2")
	u3 := dial(t, ts, "u3")

	sendEvent(t, u1, EventJoinMeeting, JoinPayload{MeetingID: "m1"})
	sendEvent(t, u2, EventJoinMeeting, JoinPayload{MeetingID: "m1"})
	sendEvent(t, u3, EventJoinMeeting, JoinPayload{MeetingID: "m1"})
	readEvent(t, u1) // u2 joined
	readEvent(t, u1) // u3 joined
	readEvent(t, u2) // u3 joined

	sdp := json.RawMessage(`{"type":"offer","sdp":"v=0..."}`)
	sendEvent(t, u1, EventWebRTCOffer, SignalPayload{MeetingID: "m1", Payload: sdp, TargetUserID: "u2"})

	envelope := readEvent(t, u2)
	require.Equal(t, EventWebRTCOffer, envelope.Event)

	var delivery SignalDelivery
	require.NoError(t, json.Unmarshal(envelope.Data, &delivery))
	assert.Equal(t, domain.UserID("u1"), delivery.FromUserID)
	assert.JSONEq(t, string(sdp), string(delivery.Payload))

	assertSilent(t, u3)
	assertSilent(t, u1)
}

func TestSignal_MissingTargetSilentlyDropped(t *testing.T) {
	ts := newRelayServer(t)
	u1 := dial(t, ts, "u1")

	sendEvent(t, u1, EventJoinMeeting, JoinPayload{MeetingID: "m1"})
	sendEvent(t, u1, EventWebRTCOffer, SignalPayload{
		MeetingID: "m1", Payload: json.RawMessage(`{}`), TargetUserID: "gone",
	})

	assertSilent(t, u1)
}

func TestToggle_ExcludesSender(t *testing.T) {
	ts := newRelayServer(t)
	u1 := dial(t, ts, "u1")
	u2 := dial(t, ts, "u2")

	sendEvent(t, u1, EventJoinMeeting, JoinPayload{MeetingID: "m1"})
	sendEvent(t, u2, EventJoinMeeting, JoinPayload{MeetingID: "m1"})
	readEvent(t, u1)

	sendEvent(t, u1, EventToggleMicrophone, TogglePayload{MeetingID: "m1", Flag: false})

	envelope := readEvent(t, u2)
	require.Equal(t, EventMicrophoneToggled, envelope.Event)

	var delivery ToggleDelivery
	require.NoError(t, json.Unmarshal(envelope.Data, &delivery))
	assert.Equal(t, domain.UserID("u1"), delivery.UserID)
	assert.False(t, delivery.Flag)

	assertSilent(t, u1)
}

func TestLeave_StopsDeliveries(t *testing.T) {
	ts := newRelayServer(t)
	u1 := dial(t, ts, "u1")
	u2 := dial(t, ts, "u2")

	sendEvent(t, u1, EventJoinMeeting, JoinPayload{MeetingID: "m1"})
	sendEvent(t, u2, EventJoinMeeting, JoinPayload{MeetingID: "m1"})
	readEvent(t, u1)

	sendEvent(t, u2, EventLeaveMeeting, JoinPayload{MeetingID: "m1"})

	envelope := readEvent(t, u1)
	assert.Equal(t, EventUserLeft, envelope.Event)

	sendEvent(t, u1, EventChatMessage, ChatPayload{MeetingID: "m1", Message: "after leave"})
	readEvent(t, u1) // echo to the remaining member
	assertSilent(t, u2)
}

func TestDisconnect_IsImplicitLeave(t *testing.T) {
	ts := newRelayServer(t)
	u1 := dial(t, ts, "u1")
	u2 := dial(t, ts, "u2")

	sendEvent(t, u1, EventJoinMeeting, JoinPayload{MeetingID: "m1"})
	sendEvent(t, u2, EventJoinMeeting, JoinPayload{MeetingID: "m1"})
	readEvent(t, u1)

	u2.Close()

	envelope := readEvent(t, u1)
	assert.Equal(t, EventUserLeft, envelope.Event)

	var payload PresencePayload
	require.NoError(t, json.Unmarshal(envelope.Data, &payload))
	assert.Equal(t, domain.UserID("u2"), payload.UserID)
}

func TestMalformedPayload_ErrorToSenderOnly(t *testing.T) {
	ts := newRelayServer(t)
	u1 := dial(t, ts, "u1")
	u2 := dial(t, ts, "u2")

	sendEvent(t, u1, EventJoinMeeting, JoinPayload{MeetingID: "m1"})
	sendEvent(t, u2, EventJoinMeeting, JoinPayload{MeetingID: "m1"})
	readEvent(t, u1)

	// join with no meetingId
	sendEvent(t, u2, EventChatMessage, map[string]string{"message": "no room"})

	envelope := readEvent(t, u2)
	require.Equal(t, EventError, envelope.Event)

	var payload ErrorPayload
	require.NoError(t, json.Unmarshal(envelope.Data, &payload))
	assert.Contains(t, payload.Message, "meetingId")

	assertSilent(t, u1)
}

func TestUnknownEvent_DoesNotKillConnection(t *testing.T) {
	ts := newRelayServer(t)
	u1 := dial(t, ts, "u1")

	sendEvent(t, u1, "time-travel", map[string]string{"meetingId": "m1"})
	envelope := readEvent(t, u1)
	assert.Equal(t, EventError, envelope.Event)

	// The connection still works afterwards.
	sendEvent(t, u1, EventJoinMeeting, JoinPayload{MeetingID: "m1"})
	sendEvent(t, u1, EventChatMessage, ChatPayload{MeetingID: "m1", Message: "still here"})
	got := readEvent(t, u1)
	assert.Equal(t, EventChatMessage, got.Event)
}
