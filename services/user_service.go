// services/user_service.go
package services

import (
	"context"
	"fmt"
	"time"

	"inci.cards/configs/configslog"
	"inci.cards/models"
	"inci.cards/repositories"

	"go.uber.org/zap"
)

// UserServiceError is a typed service error.
type UserServiceError string

func (e UserServiceError) Error() string { return string(e) }

const (
	ErrUserNotFound       UserServiceError = "пользователь не найден"
	ErrUserCreationFailed UserServiceError = "не удалось создать пользователя"
)

// IUserService manages identities in the user journal.
type IUserService interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	GetOrCreateUser(ctx context.Context, data models.NewUserData) (*models.User, error)
}

// UserService implements IUserService on the journal repository.
type UserService struct {
	journal repositories.IJournalRepository
	drive   repositories.IDriveRepository
	now     func() time.Time
}

// NewUserService builds a UserService on the shared repositories.
func NewUserService() IUserService {
	return &UserService{
		journal: repositories.NewJournalRepository(),
		drive:   repositories.NewDriveRepository(),
		now:     time.Now,
	}
}

// FindByEmail looks an identity up in the journal.
func (s *UserService) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := s.journal.FindUserByEmail(ctx, email)
	if err != nil {
		if err == repositories.ErrNotFound {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// GetOrCreateUser returns the existing identity for the email (or Telegram
// chat id) or appends a new journal row. Idempotency rests on the lookup, not
// on a transaction: two racing first-time registrations can both append, and
// the journal keeps whichever row the next lookup finds first.
func (s *UserService) GetOrCreateUser(ctx context.Context, data models.NewUserData) (*models.User, error) {
	var existing *models.User
	var err error
	switch {
	case data.Email != "":
		existing, err = s.journal.FindUserByEmail(ctx, data.Email)
	case data.TelegramChatID != "":
		existing, err = s.journal.FindUserByChatID(ctx, data.TelegramChatID)
	default:
		return nil, ErrUserCreationFailed
	}
	if err == nil {
		return existing, nil
	}
	if err != repositories.ErrNotFound {
		return nil, err
	}

	userID, err := s.generateUserID(ctx, data.ChannelCode)
	if err != nil {
		return nil, err
	}
	if err := s.journal.AppendUser(ctx, userID, data); err != nil {
		configslog.Log.Error("user journal append failed", zap.String("email", data.Email), zap.Error(err))
		return nil, ErrUserCreationFailed
	}

	// The user folder is prepared eagerly so card creation never waits for
	// it; registration still succeeds when Drive misbehaves.
	if _, err := s.drive.EnsureUserFolder(ctx, userID); err != nil {
		configslog.Log.Warn("user folder creation failed", zap.String("userID", userID), zap.Error(err))
	}

	if err := s.journal.LogActivity(ctx, userID, "registration", data.ChannelCode, data.Email); err != nil {
		configslog.Log.Warn("activity log failed", zap.String("userID", userID), zap.Error(err))
	}

	return &models.User{
		UserID:      userID,
		Email:       data.Email,
		DisplayName: data.DisplayName,
		Channel:     data.ChannelName,
		ChannelCode: data.ChannelCode,
		Role:        data.Role,
		Status:      data.Status,
		Consent:     data.Consent,
	}, nil
}

// generateUserID composes the human-readable id: registration date, channel
// code and a journal-wide sequence number, e.g. U2025_11_26_WF-0001. The
// sequence comes from counting journal rows; concurrent registrations can
// still collide there (accepted, the journal is manually curated).
func (s *UserService) generateUserID(ctx context.Context, channelCode string) (string, error) {
	count, err := s.journal.CountUsers(ctx)
	if err != nil {
		return "", fmt.Errorf("counting journal users: %w", err)
	}
	if channelCode == "" {
		channelCode = models.ChannelWebForm
	}
	datePart := s.now().Format("2006_01_02")
	return fmt.Sprintf("U%s_%s-%04d", datePart, channelCode, count+1), nil
}

var _ IUserService = (*UserService)(nil)
