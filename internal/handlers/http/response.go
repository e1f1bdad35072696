package http

import (
	"meetgate/internal/core/domain"

	"github.com/gin-gonic/gin"
)

// CookieSettings controls the session cookie the auth handlers set.
type CookieSettings struct {
	Name     string
	TTL      int // seconds
	Domain   string
	Secure   bool
	HTTPOnly bool
}

func respond(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}

type userResponse struct {
	UID      domain.UserID `json:"uid"`
	Email    string        `json:"email"`
	Name     string        `json:"name"`
	LastName string        `json:"last_name,omitempty"`
	Age      int           `json:"age,omitempty"`
}

func userToResponse(u *domain.User) userResponse {
	return userResponse{
		UID:      u.UID,
		Email:    u.Email,
		Name:     u.Name,
		LastName: u.LastName,
		Age:      u.Age,
	}
}

type meetingResponse struct {
	ID           domain.MeetingID     `json:"id"`
	HostID       domain.UserID        `json:"host_id"`
	Title        string               `json:"title"`
	Description  string               `json:"description,omitempty"`
	Participants []domain.UserID      `json:"participants"`
	Status       domain.MeetingStatus `json:"status"`
}

func meetingToResponse(m *domain.Meeting) meetingResponse {
	participants := m.Participants
	if participants == nil {
		participants = []domain.UserID{}
	}
	return meetingResponse{
		ID:           m.ID,
		HostID:       m.HostID,
		Title:        m.Title,
		Description:  m.Description,
		Participants: participants,
		Status:       m.Status,
	}
}

func setSessionCookie(c *gin.Context, settings CookieSettings, credential string) {
	c.SetCookie(settings.Name, credential, settings.TTL, "/", settings.Domain, settings.Secure, settings.HTTPOnly)
}

func clearSessionCookie(c *gin.Context, settings CookieSettings) {
	c.SetCookie(settings.Name, "", -1, "/", settings.Domain, settings.Secure, settings.HTTPOnly)
}
