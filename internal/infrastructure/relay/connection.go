package relay

import (
	"encoding/json"
	"sync"
	"time"

	"meetgate/internal/core/domain"
	"meetgate/pkg/utils"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Connection binds one websocket to one verified identity. Outbound frames
// go through the send channel and a single write pump, which gives each
// recipient FIFO delivery without sharing the socket between goroutines.
type Connection struct {
	ID  string
	UID domain.UserID

	conn    *websocket.Conn
	send    chan []byte
	limiter *rate.Limiter

	mu        sync.Mutex
	meetingID domain.MeetingID
	closed    bool

	writeTimeout time.Duration
	pingInterval time.Duration

	logger *zap.SugaredLogger
}

func newConnection(conn *websocket.Conn, uid domain.UserID, cfg serverConfig, logger *zap.SugaredLogger) *Connection {
	return &Connection{
		ID:           utils.GenerateConnectionID(),
		UID:          uid,
		conn:         conn,
		send:         make(chan []byte, cfg.sendBuffer),
		limiter:      rate.NewLimiter(rate.Limit(cfg.messagesPerSecond), cfg.burst),
		writeTimeout: cfg.writeTimeout,
		pingInterval: cfg.pingInterval,
		logger:       logger,
	}
}

// Room returns the meeting this connection has joined, if any.
func (c *Connection) Room() (domain.MeetingID, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.meetingID, c.meetingID != ""
}

func (c *Connection) setRoom(id domain.MeetingID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.meetingID = id
}

// Send enqueues an event for delivery. A full buffer means the client is
// not draining; the frame is dropped rather than blocking the sender.
func (c *Connection) Send(event string, payload interface{}) bool {
	data, err := json.Marshal(payload)
	if err != nil {
		c.logger.Errorw("failed to encode relay payload", "event", event, "error", err)
		return false
	}
	frame, err := json.Marshal(Envelope{Event: event, Data: data})
	if err != nil {
		c.logger.Errorw("failed to encode relay envelope", "event", event, "error", err)
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}

	select {
	case c.send <- frame:
		return true
	default:
		c.logger.Warnw("send buffer full, dropping frame",
			"connection_id", c.ID, "event", event)
		return false
	}
}

// close stops the write pump. Safe to call more than once.
func (c *Connection) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// writePump drains the send channel onto the socket and keeps the
// connection alive with pings. It owns all writes to the socket.
func (c *Connection) writePump() {
	ticker := time.NewTicker(c.pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
