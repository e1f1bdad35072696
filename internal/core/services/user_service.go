package services

import (
	"context"
	"time"

	"meetgate/internal/core/domain"
	"meetgate/internal/core/ports"
	apperrors "meetgate/pkg/errors"
	"meetgate/pkg/validation"

	"go.uber.org/zap"
)

type userService struct {
	identity  ports.IdentityProvider
	documents ports.DocumentStore
	logger    *zap.SugaredLogger
}

// NewUserService builds thin profile CRUD over the document store and the
// identity provider.
func NewUserService(
	identity ports.IdentityProvider,
	documents ports.DocumentStore,
	logger *zap.SugaredLogger,
) ports.UserService {
	return &userService{
		identity:  identity,
		documents: documents,
		logger:    logger,
	}
}

func (s *userService) GetProfile(ctx context.Context, uid domain.UserID) (*domain.User, error) {
	var user domain.User
	if err := s.documents.Get(ctx, usersCollection, string(uid), &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *userService) GetByID(ctx context.Context, uid domain.UserID) (*domain.User, error) {
	return s.GetProfile(ctx, uid)
}

func (s *userService) UpdateProfile(ctx context.Context, uid domain.UserID, update domain.UserUpdate) (*domain.User, error) {
	user, err := s.GetProfile(ctx, uid)
	if err != nil {
		return nil, err
	}

	fields := make(map[string]interface{})
	nameChanged := false

	if update.Name != nil {
		if err := validation.ValidateName(*update.Name, "name"); err != nil {
			return nil, apperrors.NewInvalidInputError(err.Error())
		}
		user.Name = *update.Name
		fields["name"] = user.Name
		nameChanged = true
	}
	if update.LastName != nil {
		user.LastName = *update.LastName
		fields["last_name"] = user.LastName
		nameChanged = true
	}
	if update.Age != nil {
		if err := validation.ValidateAge(*update.Age); err != nil {
			return nil, apperrors.NewInvalidInputError(err.Error())
		}
		user.Age = *update.Age
		fields["age"] = user.Age
	}
	if update.Email != nil {
		if err := validation.ValidateEmail(*update.Email); err != nil {
			return nil, apperrors.NewInvalidInputError(err.Error())
		}
		user.Email = *update.Email
		fields["email"] = user.Email
	}

	if len(fields) == 0 {
		return user, nil
	}

	user.UpdatedAt = time.Now()
	fields["updated_at"] = user.UpdatedAt

	if err := s.documents.Update(ctx, usersCollection, string(uid), fields); err != nil {
		return nil, err
	}

	// Keep the identity provider's display name and email in sync with the
	// document.
	if nameChanged || update.Email != nil {
		idUpdate := ports.IdentityUpdate{}
		if nameChanged {
			displayName := user.DisplayName()
			idUpdate.DisplayName = &displayName
		}
		if update.Email != nil {
			idUpdate.Email = update.Email
		}
		if err := s.identity.UpdateUser(ctx, uid, idUpdate); err != nil {
			s.logger.Errorw("identity record update failed after document update",
				"uid", uid, "error", err)
			return nil, apperrors.WrapError(err, apperrors.ErrCodePartiallyFailed,
				"profile document updated but identity record update failed", 500)
		}
	}

	return user, nil
}

// DeleteAccount removes the profile document first, then the identity
// record. The two writes are not transactional; a failure between them is
// surfaced as PartiallyFailed so callers know the account is half-deleted.
func (s *userService) DeleteAccount(ctx context.Context, uid domain.UserID) error {
	if err := s.documents.Delete(ctx, usersCollection, string(uid)); err != nil {
		return err
	}

	if err := s.identity.DeleteUser(ctx, uid); err != nil {
		s.logger.Errorw("identity record deletion failed after document deletion",
			"uid", uid, "error", err)
		return apperrors.WrapError(err, apperrors.ErrCodePartiallyFailed,
			"profile document deleted but identity record deletion failed", 500)
	}

	s.logger.Infow("account deleted", "uid", uid)
	return nil
}
