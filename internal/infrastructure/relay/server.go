package relay

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"meetgate/internal/core/ports"
	apperrors "meetgate/pkg/errors"
	"meetgate/pkg/tracing"
	"meetgate/pkg/utils"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Should be configured properly for production
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// ConnectionMetrics is the slice of the Prometheus collector the server
// needs.
type ConnectionMetrics interface {
	RecordConnectionOpened()
	RecordConnectionClosed()
	RecordRelayEvent(event string)
	RecordDroppedMessage(reason string)
}

type noopConnMetrics struct{}

func (noopConnMetrics) RecordConnectionOpened() {}
func (noopConnMetrics) RecordConnectionClosed() {}
func (noopConnMetrics) RecordRelayEvent(string) {}
func (noopConnMetrics) RecordDroppedMessage(string) {}

type serverConfig struct {
	cookieName        string
	pingInterval      time.Duration
	pongTimeout       time.Duration
	writeTimeout      time.Duration
	maxMessageSize    int64
	sendBuffer        int
	messagesPerSecond float64
	burst             int
}

// Config holds the relay server settings.
type Config struct {
	CookieName        string
	PingInterval      time.Duration
	PongTimeout       time.Duration
	WriteTimeout      time.Duration
	MaxMessageSize    int64
	SendBuffer        int
	MessagesPerSecond float64
	Burst             int
}

// Server terminates websocket connections for the real-time layer. The
// handshake is authenticated: the session credential on the upgrade request
// must verify, and the verified identity is bound to the connection. Event
// payloads never override it.
type Server struct {
	verifier ports.SessionVerifier
	registry *Registry
	cfg      serverConfig
	metrics  ConnectionMetrics
	logger   *zap.SugaredLogger
}

func NewServer(verifier ports.SessionVerifier, registry *Registry, cfg Config, metrics ConnectionMetrics, logger *zap.SugaredLogger) *Server {
	if metrics == nil {
		metrics = noopConnMetrics{}
	}
	return &Server{
		verifier: verifier,
		registry: registry,
		cfg: serverConfig{
			cookieName:        cfg.CookieName,
			pingInterval:      cfg.PingInterval,
			pongTimeout:       cfg.PongTimeout,
			writeTimeout:      cfg.WriteTimeout,
			maxMessageSize:    cfg.MaxMessageSize,
			sendBuffer:        cfg.SendBuffer,
			messagesPerSecond: cfg.MessagesPerSecond,
			burst:             cfg.Burst,
		},
		metrics: metrics,
		logger:  logger,
	}
}

// HandleWebSocket authenticates the handshake and runs the connection until
// it closes. Rejection happens before the upgrade so unauthenticated
// clients get a plain 401.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	identity, err := s.verifier.Verify(r.Context(), s.credentialFromRequest(r))
	if err != nil {
		s.logger.Warnw("relay handshake rejected", "error", err)
		message := "invalid session credential"
		if appErr := apperrors.GetAppError(err); appErr != nil {
			message = appErr.Message
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"error":   map[string]string{"message": message},
		})
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Errorw("websocket upgrade failed", "error", err)
		return
	}

	c := newConnection(conn, identity.UID, s.cfg, s.logger)
	s.metrics.RecordConnectionOpened()
	s.logger.Infow("relay connection opened",
		"connection_id", c.ID, "user_id", c.UID)

	go c.writePump()
	s.readLoop(c)

	// Disconnect is an implicit leave: peers must hear about it even when
	// the client never sent leave-meeting.
	if meetingID, ok := c.Room(); ok {
		s.registry.Leave(meetingID, c)
	}
	c.close()
	s.metrics.RecordConnectionClosed()
	s.logger.Infow("relay connection closed",
		"connection_id", c.ID, "user_id", c.UID)
}

func (s *Server) credentialFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(s.cfg.cookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

func (s *Server) readLoop(c *Connection) {
	c.conn.SetReadLimit(s.cfg.maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(s.cfg.pongTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(s.cfg.pongTimeout))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				s.logger.Infow("relay read error", "connection_id", c.ID, "error", err)
			}
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(s.cfg.pongTimeout))

		if !c.limiter.Allow() {
			s.metrics.RecordDroppedMessage("rate_limited")
			c.Send(EventError, ErrorPayload{Message: "message rate limit exceeded"})
			continue
		}

		var envelope Envelope
		if err := json.Unmarshal(data, &envelope); err != nil {
			s.metrics.RecordDroppedMessage("malformed")
			s.logger.Warnw("malformed relay frame", "connection_id", c.ID, "error", err)
			continue
		}

		// Handler errors never cross the connection boundary: log, tell
		// the offender, keep reading.
		if err := s.dispatch(c, envelope); err != nil {
			s.logger.Infow("relay event rejected",
				"connection_id", c.ID, "event", envelope.Event, "error", err)
			c.Send(EventError, ErrorPayload{Message: errorMessage(err)})
		}
	}
}

func (s *Server) dispatch(c *Connection, envelope Envelope) error {
	if envelope.Event == "" {
		return apperrors.NewInvalidInputError("event is required")
	}

	_, span := tracing.TraceRelayEvent(context.Background(), envelope.Event, c.ID)
	defer span.End()
	s.metrics.RecordRelayEvent(envelope.Event)

	switch envelope.Event {
	case EventJoinMeeting:
		return s.handleJoin(c, envelope.Data)
	case EventLeaveMeeting:
		return s.handleLeave(c, envelope.Data)
	case EventChatMessage:
		return s.handleChat(c, envelope.Data)
	case EventWebRTCOffer, EventWebRTCAnswer, EventWebRTCICECandidate:
		return s.handleSignal(c, envelope.Event, envelope.Data)
	case EventToggleMicrophone:
		return s.handleToggle(c, EventMicrophoneToggled, envelope.Data)
	case EventToggleCamera:
		return s.handleToggle(c, EventCameraToggled, envelope.Data)
	default:
		return apperrors.NewInvalidInputError("unknown event: " + envelope.Event)
	}
}

func (s *Server) handleJoin(c *Connection, data json.RawMessage) error {
	var payload JoinPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return apperrors.NewInvalidInputError("invalid join-meeting payload")
	}
	if payload.MeetingID == "" {
		return apperrors.NewInvalidInputError("meetingId is required")
	}

	// One room per connection: joining a new room leaves the old one.
	if current, ok := c.Room(); ok && current != payload.MeetingID {
		s.registry.Leave(current, c)
	}

	s.registry.Join(payload.MeetingID, c)
	c.setRoom(payload.MeetingID)
	return nil
}

func (s *Server) handleLeave(c *Connection, data json.RawMessage) error {
	var payload JoinPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return apperrors.NewInvalidInputError("invalid leave-meeting payload")
	}
	if payload.MeetingID == "" {
		return apperrors.NewInvalidInputError("meetingId is required")
	}

	s.registry.Leave(payload.MeetingID, c)
	c.setRoom("")
	return nil
}

// handleChat echoes to the whole room, sender included, with a
// server-assigned timestamp. Identity comes from the handshake, not the
// payload.
func (s *Server) handleChat(c *Connection, data json.RawMessage) error {
	var payload ChatPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return apperrors.NewInvalidInputError("invalid chat-message payload")
	}
	if payload.MeetingID == "" {
		return apperrors.NewInvalidInputError("meetingId is required")
	}

	s.registry.Broadcast(payload.MeetingID, EventChatMessage, ChatDelivery{
		Message:   payload.Message,
		UserID:    c.UID,
		UserName:  payload.UserName,
		Timestamp: utils.FormatTimestamp(utils.Now()),
	}, nil)
	return nil
}

// handleSignal forwards an opaque signaling payload to the target identity
// only. A missing target is a silent drop.
func (s *Server) handleSignal(c *Connection, event string, data json.RawMessage) error {
	var payload SignalPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return apperrors.NewInvalidInputError("invalid " + event + " payload")
	}
	if payload.MeetingID == "" {
		return apperrors.NewInvalidInputError("meetingId is required")
	}
	if payload.TargetUserID == "" {
		return apperrors.NewInvalidInputError("targetUserId is required")
	}

	s.registry.ForwardToParticipant(payload.MeetingID, payload.TargetUserID, event, SignalDelivery{
		Payload:      payload.Payload,
		FromUserID:   c.UID,
		TargetUserID: payload.TargetUserID,
	})
	return nil
}

func (s *Server) handleToggle(c *Connection, outEvent string, data json.RawMessage) error {
	var payload TogglePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return apperrors.NewInvalidInputError("invalid toggle payload")
	}
	if payload.MeetingID == "" {
		return apperrors.NewInvalidInputError("meetingId is required")
	}

	s.registry.Broadcast(payload.MeetingID, outEvent, ToggleDelivery{
		UserID: c.UID,
		Flag:   payload.Flag,
	}, c)
	return nil
}

func errorMessage(err error) string {
	if appErr := apperrors.GetAppError(err); appErr != nil {
		return appErr.Message
	}
	return "internal error"
}
