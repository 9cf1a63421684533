// repositories/journal_repository.go
package repositories

import (
	"context"
	"fmt"
	"time"

	"inci.cards/configs"
	"inci.cards/configs/configsgoogle"
	"inci.cards/configs/configslog"
	"inci.cards/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/api/sheets/v4"
)

// Journal sheet names. The journal shares a spreadsheet with the card table.
const (
	SheetUsers        = "Users"
	SheetAuth         = "Auth"
	SheetDictionaries = "Dictionaries"
	SheetActivity     = "Activity"
)

// Users sheet columns (A..S).
const (
	userColUserID      = 0
	userColRegDate     = 1
	userColChannelName = 2
	userColChannelCode = 3
	userColDisplayName = 4
	userColEmail       = 5
	userColTgUsername  = 6
	userColTgChatID    = 7
)

// IJournalRepository is the user journal on Google Sheets.
type IJournalRepository interface {
	CountUsers(ctx context.Context) (int, error)
	AppendUser(ctx context.Context, userID string, data models.NewUserData) error
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUserByChatID(ctx context.Context, chatID string) (*models.User, error)
	LogActivity(ctx context.Context, userID, eventType, channel, details string) error
	EnsureStructure(ctx context.Context) error
}

// JournalRepository implements IJournalRepository.
type JournalRepository struct {
	svc           *sheets.Service
	spreadsheetID string
}

// NewJournalRepository builds a JournalRepository on the shared Sheets client.
func NewJournalRepository() IJournalRepository {
	return &JournalRepository{
		svc:           configsgoogle.GetSheets(),
		spreadsheetID: configs.Get().GoogleSheetID,
	}
}

// CountUsers returns the number of user rows (header excluded).
func (r *JournalRepository) CountUsers(ctx context.Context) (int, error) {
	rows, err := r.userRows(ctx)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return len(rows) - 1, nil
}

// AppendUser appends a Users row with the pre-generated user id.
func (r *JournalRepository) AppendUser(ctx context.Context, userID string, data models.NewUserData) error {
	regDate := data.RegDate
	if regDate.IsZero() {
		regDate = time.Now()
	}
	language := data.Language
	if language == "" {
		language = "ru"
	}
	role := data.Role
	if role == "" {
		role = "user"
	}
	status := data.Status
	if status == "" {
		status = models.UserStatusActive
	}
	consent := "no"
	if data.Consent {
		consent = fmt.Sprintf("yes (%s)", time.Now().Format(time.RFC3339))
	}

	row := []interface{}{
		userID,
		regDate.Format(time.RFC3339),
		data.ChannelName,
		data.ChannelCode,
		data.DisplayName,
		data.Email,
		"", // Telegram @username
		data.TelegramChatID,
		"", // Google account id
		"", // Country / city
		language,
		role,
		status,
		data.Source,
		"", // Last login
		0,  // Login count
		consent,
		"no", // Deletion requested
		data.Comment,
	}

	vr := &sheets.ValueRange{Values: [][]interface{}{row}}
	_, err := r.svc.Spreadsheets.Values.
		Append(r.spreadsheetID, SheetUsers+"!A:S", vr).
		ValueInputOption("USER_ENTERED").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("appending user row: %w", err)
	}

	configslog.Log.Info("user row appended", zap.String("userID", userID), zap.String("email", data.Email))
	return nil
}

// FindUserByEmail scans column F. Unknown emails yield ErrNotFound.
func (r *JournalRepository) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findUser(ctx, userColEmail, email)
}

// FindUserByChatID scans column H (Telegram chat id).
func (r *JournalRepository) FindUserByChatID(ctx context.Context, chatID string) (*models.User, error) {
	return r.findUser(ctx, userColTgChatID, chatID)
}

func (r *JournalRepository) findUser(ctx context.Context, column int, value string) (*models.User, error) {
	rows, err := r.userRows(ctx)
	if err != nil {
		return nil, err
	}
	for i, row := range rows {
		if i == 0 {
			continue // header
		}
		if cell(row, column) == value {
			return &models.User{
				UserID:           cell(row, userColUserID),
				RegDate:          cell(row, userColRegDate),
				Channel:          cell(row, userColChannelName),
				ChannelCode:      cell(row, userColChannelCode),
				DisplayName:      cell(row, userColDisplayName),
				Email:            cell(row, userColEmail),
				TelegramUsername: cell(row, userColTgUsername),
				TelegramChatID:   cell(row, userColTgChatID),
			}, nil
		}
	}
	return nil, ErrNotFound
}

// LogActivity appends an Activity event. Failures are the caller's problem to
// ignore; the journal is advisory.
func (r *JournalRepository) LogActivity(ctx context.Context, userID, eventType, channel, details string) error {
	row := []interface{}{
		uuid.NewString(),
		userID,
		time.Now().Format(time.RFC3339),
		eventType,
		channel,
		details,
	}
	vr := &sheets.ValueRange{Values: [][]interface{}{row}}
	_, err := r.svc.Spreadsheets.Values.
		Append(r.spreadsheetID, SheetActivity+"!A:F", vr).
		ValueInputOption("USER_ENTERED").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("appending activity event: %w", err)
	}
	return nil
}

func (r *JournalRepository) userRows(ctx context.Context) ([][]interface{}, error) {
	resp, err := r.svc.Spreadsheets.Values.
		Get(r.spreadsheetID, SheetUsers+"!A:S").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("reading users sheet: %w", err)
	}
	return resp.Values, nil
}

var _ IJournalRepository = (*JournalRepository)(nil)
