package domain

import "time"

type MeetingID string

type MeetingStatus string

const (
	MeetingStatusActive MeetingStatus = "active"
	MeetingStatusEnded  MeetingStatus = "ended"
)

// MaxMeetingParticipants caps the historical participant list of a meeting.
// Enforced at the REST join operation, not at the relay.
const MaxMeetingParticipants = 10

// Meeting is owned by the external meeting store; the gateway only proxies it.
// Participants is the historical list of identities ever joined, distinct
// from the live room membership held by the relay.
type Meeting struct {
	ID           MeetingID     `json:"id"`
	HostID       UserID        `json:"host_id"`
	Title        string        `json:"title"`
	Description  string        `json:"description,omitempty"`
	Participants []UserID      `json:"participants"`
	Status       MeetingStatus `json:"status"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// HasParticipant reports whether uid is in the historical participant list.
func (m *Meeting) HasParticipant(uid UserID) bool {
	for _, p := range m.Participants {
		if p == uid {
			return true
		}
	}
	return false
}

// AtCapacity reports whether the historical participant list is full.
func (m *Meeting) AtCapacity() bool {
	return len(m.Participants) >= MaxMeetingParticipants
}

// MeetingUpdate carries the optional fields of a meeting update.
type MeetingUpdate struct {
	Title       *string
	Description *string
	Status      *MeetingStatus
}
