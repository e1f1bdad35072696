package services

import (
	"context"
	"strings"

	"meetgate/internal/core/domain"
	"meetgate/internal/core/ports"
	apperrors "meetgate/pkg/errors"
	"meetgate/pkg/validation"

	"go.uber.org/zap"
)

type meetingService struct {
	store  ports.MeetingStore
	logger *zap.SugaredLogger
}

// NewMeetingService builds the meeting proxy. The external store owns the
// data; this layer validates input and enforces the capacity and ownership
// rules before forwarding.
func NewMeetingService(store ports.MeetingStore, logger *zap.SugaredLogger) ports.MeetingService {
	return &meetingService{
		store:  store,
		logger: logger,
	}
}

func (s *meetingService) Create(ctx context.Context, caller domain.UserID, req ports.MeetingCreate) (*domain.Meeting, error) {
	req.Title = strings.TrimSpace(req.Title)
	if err := validation.ValidateMeetingTitle(req.Title); err != nil {
		return nil, apperrors.NewInvalidInputError(err.Error())
	}

	meeting, err := s.store.Create(ctx, caller, req)
	if err != nil {
		return nil, err
	}

	s.logger.Infow("meeting created", "meeting_id", meeting.ID, "host", caller)
	return meeting, nil
}

func (s *meetingService) ListForUser(ctx context.Context, caller domain.UserID) ([]*domain.Meeting, error) {
	return s.store.ListForUser(ctx, caller)
}

func (s *meetingService) GetByID(ctx context.Context, caller domain.UserID, id domain.MeetingID) (*domain.Meeting, error) {
	if err := validation.ValidateMeetingID(string(id)); err != nil {
		return nil, apperrors.NewInvalidInputError(err.Error())
	}
	return s.store.GetByID(ctx, caller, id)
}

func (s *meetingService) Update(ctx context.Context, caller domain.UserID, id domain.MeetingID, update domain.MeetingUpdate) (*domain.Meeting, error) {
	if err := validation.ValidateMeetingID(string(id)); err != nil {
		return nil, apperrors.NewInvalidInputError(err.Error())
	}
	if update.Title != nil {
		if err := validation.ValidateMeetingTitle(*update.Title); err != nil {
			return nil, apperrors.NewInvalidInputError(err.Error())
		}
	}
	return s.store.Update(ctx, caller, id, update)
}

// Delete fetches the meeting first so host ownership is checked at this
// layer rather than trusted to the store.
func (s *meetingService) Delete(ctx context.Context, caller domain.UserID, id domain.MeetingID) error {
	meeting, err := s.GetByID(ctx, caller, id)
	if err != nil {
		return err
	}

	if meeting.HostID != caller {
		return apperrors.NewForbiddenError("only the meeting host may delete it")
	}

	if err := s.store.Delete(ctx, caller, id); err != nil {
		return err
	}

	s.logger.Infow("meeting deleted", "meeting_id", id, "host", caller)
	return nil
}

// Join enforces the historical-participant capacity. Re-joining as an
// existing participant is idempotent and always allowed.
func (s *meetingService) Join(ctx context.Context, caller domain.UserID, id domain.MeetingID) (*domain.Meeting, error) {
	meeting, err := s.GetByID(ctx, caller, id)
	if err != nil {
		return nil, err
	}

	if meeting.HasParticipant(caller) {
		return meeting, nil
	}

	if meeting.AtCapacity() {
		return nil, apperrors.NewForbiddenError("meeting has reached its participant limit")
	}

	return s.store.Join(ctx, caller, id)
}

func (s *meetingService) Leave(ctx context.Context, caller domain.UserID, id domain.MeetingID) (*domain.Meeting, error) {
	if err := validation.ValidateMeetingID(string(id)); err != nil {
		return nil, apperrors.NewInvalidInputError(err.Error())
	}
	return s.store.Leave(ctx, caller, id)
}
