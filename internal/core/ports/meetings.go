package ports

import (
	"context"

	"meetgate/internal/core/domain"
)

// MeetingCreate is the payload forwarded to the meeting store on create.
type MeetingCreate struct {
	Title       string
	Description string
}

// MeetingStore is the client interface to the external meeting service.
// Every call carries the already-verified caller identity; the store owns
// the durable meeting state.
type MeetingStore interface {
	Create(ctx context.Context, caller domain.UserID, req MeetingCreate) (*domain.Meeting, error)
	ListForUser(ctx context.Context, caller domain.UserID) ([]*domain.Meeting, error)
	GetByID(ctx context.Context, caller domain.UserID, id domain.MeetingID) (*domain.Meeting, error)
	Update(ctx context.Context, caller domain.UserID, id domain.MeetingID, update domain.MeetingUpdate) (*domain.Meeting, error)
	Delete(ctx context.Context, caller domain.UserID, id domain.MeetingID) error
	Join(ctx context.Context, caller domain.UserID, id domain.MeetingID) (*domain.Meeting, error)
	Leave(ctx context.Context, caller domain.UserID, id domain.MeetingID) (*domain.Meeting, error)
}
