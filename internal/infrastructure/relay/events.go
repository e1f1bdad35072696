package relay

import (
	"encoding/json"

	"meetgate/internal/core/domain"
)

// Client -> server events
const (
	EventJoinMeeting        = "join-meeting"
	EventLeaveMeeting       = "leave-meeting"
	EventChatMessage        = "chat-message"
	EventWebRTCOffer        = "webrtc-offer"
	EventWebRTCAnswer       = "webrtc-answer"
	EventWebRTCICECandidate = "webrtc-ice-candidate"
	EventToggleMicrophone   = "toggle-microphone"
	EventToggleCamera       = "toggle-camera"
)

// Server -> client events
const (
	EventUserJoined        = "user-joined"
	EventUserLeft          = "user-left"
	EventMicrophoneToggled = "microphone-toggled"
	EventCameraToggled     = "camera-toggled"
	EventError             = "error"
)

// Envelope is the wire frame for every relay message in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type JoinPayload struct {
	MeetingID domain.MeetingID `json:"meetingId"`
	UserID    string           `json:"userId,omitempty"`
}

type ChatPayload struct {
	MeetingID domain.MeetingID `json:"meetingId"`
	Message   string           `json:"message"`
	UserID    string           `json:"userId,omitempty"`
	UserName  string           `json:"userName,omitempty"`
}

// SignalPayload carries WebRTC session descriptions and ICE candidates.
// Payload is opaque: the relay routes it without inspecting it.
type SignalPayload struct {
	MeetingID    domain.MeetingID `json:"meetingId"`
	Payload      json.RawMessage  `json:"payload"`
	TargetUserID domain.UserID    `json:"targetUserId"`
}

type TogglePayload struct {
	MeetingID domain.MeetingID `json:"meetingId"`
	UserID    string           `json:"userId,omitempty"`
	Flag      bool             `json:"flag"`
}

type PresencePayload struct {
	UserID       domain.UserID `json:"userId"`
	ConnectionID string        `json:"connectionId"`
}

type ChatDelivery struct {
	Message   string        `json:"message"`
	UserID    domain.UserID `json:"userId"`
	UserName  string        `json:"userName,omitempty"`
	Timestamp string        `json:"timestamp"`
}

type SignalDelivery struct {
	Payload      json.RawMessage `json:"payload"`
	FromUserID   domain.UserID   `json:"fromUserId"`
	TargetUserID domain.UserID   `json:"targetUserId"`
}

type ToggleDelivery struct {
	UserID domain.UserID `json:"userId"`
	Flag   bool          `json:"flag"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
