package relay

import (
	"sync"

	"meetgate/internal/core/domain"

	"go.uber.org/zap"
)

// RoomMetrics is the slice of the Prometheus collector the registry needs.
type RoomMetrics interface {
	SetRoomCount(n int)
}

type noopRoomMetrics struct{}

func (noopRoomMetrics) SetRoomCount(int) {}

// Registry maps meeting ids to the live connections currently in them.
// Rooms are created on first join and the map entry is removed as soon as
// the last member leaves, so an idle gateway holds no room state.
type Registry struct {
	rooms   map[domain.MeetingID]map[*Connection]struct{}
	mu      sync.RWMutex
	metrics RoomMetrics
	logger  *zap.SugaredLogger
}

func NewRegistry(metrics RoomMetrics, logger *zap.SugaredLogger) *Registry {
	if metrics == nil {
		metrics = noopRoomMetrics{}
	}
	return &Registry{
		rooms:   make(map[domain.MeetingID]map[*Connection]struct{}),
		metrics: metrics,
		logger:  logger,
	}
}

// Join adds the connection to the room and notifies the other members.
// Joining a room the connection is already in is a no-op.
func (r *Registry) Join(meetingID domain.MeetingID, c *Connection) {
	r.mu.Lock()
	room, exists := r.rooms[meetingID]
	if !exists {
		room = make(map[*Connection]struct{})
		r.rooms[meetingID] = room
	}
	if _, member := room[c]; member {
		r.mu.Unlock()
		return
	}
	room[c] = struct{}{}
	peers := r.membersLocked(meetingID, c)
	roomCount := len(r.rooms)
	r.mu.Unlock()

	r.metrics.SetRoomCount(roomCount)
	r.logger.Infow("connection joined room",
		"meeting_id", meetingID, "connection_id", c.ID, "user_id", c.UID)

	payload := PresencePayload{UserID: c.UID, ConnectionID: c.ID}
	for _, peer := range peers {
		peer.Send(EventUserJoined, payload)
	}
}

// Leave removes the connection from the room and notifies the remaining
// members. Leaving a room the connection is not in is a no-op.
func (r *Registry) Leave(meetingID domain.MeetingID, c *Connection) {
	r.mu.Lock()
	room, exists := r.rooms[meetingID]
	if !exists {
		r.mu.Unlock()
		return
	}
	if _, member := room[c]; !member {
		r.mu.Unlock()
		return
	}
	delete(room, c)
	if len(room) == 0 {
		delete(r.rooms, meetingID)
	}
	peers := r.membersLocked(meetingID, nil)
	roomCount := len(r.rooms)
	r.mu.Unlock()

	r.metrics.SetRoomCount(roomCount)
	r.logger.Infow("connection left room",
		"meeting_id", meetingID, "connection_id", c.ID, "user_id", c.UID)

	payload := PresencePayload{UserID: c.UID, ConnectionID: c.ID}
	for _, peer := range peers {
		peer.Send(EventUserLeft, payload)
	}
}

// Broadcast delivers the event to every room member, optionally excluding
// one connection. Fan-out order across members is unspecified.
func (r *Registry) Broadcast(meetingID domain.MeetingID, event string, payload interface{}, exclude *Connection) {
	r.mu.RLock()
	peers := r.membersLocked(meetingID, exclude)
	r.mu.RUnlock()

	for _, peer := range peers {
		peer.Send(event, payload)
	}
}

// ForwardToParticipant delivers the event only to the connections of the
// target identity inside the room. No member with that identity means a
// silent drop: mid-negotiation disconnects are normal.
func (r *Registry) ForwardToParticipant(meetingID domain.MeetingID, target domain.UserID, event string, payload interface{}) {
	r.mu.RLock()
	var targets []*Connection
	for peer := range r.rooms[meetingID] {
		if peer.UID == target {
			targets = append(targets, peer)
		}
	}
	r.mu.RUnlock()

	for _, peer := range targets {
		peer.Send(event, payload)
	}
}

// CloseAll empties the registry and closes every live connection. Used on
// gateway shutdown; the write pumps send close frames as their channels
// drain.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	var all []*Connection
	for _, room := range r.rooms {
		for peer := range room {
			all = append(all, peer)
		}
	}
	r.rooms = make(map[domain.MeetingID]map[*Connection]struct{})
	r.mu.Unlock()

	r.metrics.SetRoomCount(0)
	for _, peer := range all {
		peer.close()
	}
}

// RoomCount reports the number of rooms with at least one member.
func (r *Registry) RoomCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

// MemberCount reports the number of connections in a room.
func (r *Registry) MemberCount(meetingID domain.MeetingID) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[meetingID])
}

func (r *Registry) membersLocked(meetingID domain.MeetingID, exclude *Connection) []*Connection {
	room := r.rooms[meetingID]
	if len(room) == 0 {
		return nil
	}
	members := make([]*Connection, 0, len(room))
	for peer := range room {
		if peer == exclude {
			continue
		}
		members = append(members, peer)
	}
	return members
}
