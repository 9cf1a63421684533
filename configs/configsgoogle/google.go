package configsgoogle

import (
	"context"
	"fmt"
	"os"
	"sync"

	"inci.cards/configs"
	"inci.cards/configs/configslog"

	"go.uber.org/zap"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Scopes requested for the service account. Full Drive access is needed for
// folder renames and trash; Spreadsheets covers both the card table and the
// user journal.
var scopes = []string{
	drive.DriveScope,
	sheets.SpreadsheetsScope,
}

var (
	driveSvc  *drive.Service
	sheetsSvc *sheets.Service
	initOnce  sync.Once
	initErr   error
)

// Connect authenticates the service account and builds the Drive and Sheets
// clients exactly once. Credentials come either from the raw JSON in the
// environment or from a key file on disk.
func Connect(ctx context.Context) error {
	initOnce.Do(func() {
		cfg := configs.Get()

		credJSON := []byte(cfg.GoogleServiceAccountJSON)
		if len(credJSON) == 0 {
			credJSON, initErr = os.ReadFile(cfg.GoogleServiceAccountKeyPath)
			if initErr != nil {
				initErr = fmt.Errorf("reading service account key file: %w", initErr)
				return
			}
		}

		opts := []option.ClientOption{
			option.WithCredentialsJSON(credJSON),
			option.WithScopes(scopes...),
		}

		driveSvc, initErr = drive.NewService(ctx, opts...)
		if initErr != nil {
			initErr = fmt.Errorf("creating drive client: %w", initErr)
			return
		}

		sheetsSvc, initErr = sheets.NewService(ctx, opts...)
		if initErr != nil {
			initErr = fmt.Errorf("creating sheets client: %w", initErr)
			return
		}

		configslog.Log.Info("Google API clients ready",
			zap.String("sheetID", cfg.GoogleSheetID),
			zap.Bool("sharedDrive", cfg.GoogleDriveSharedDriveID != ""))
	})
	return initErr
}

// GetDrive returns the shared Drive client. Connect must have succeeded.
func GetDrive() *drive.Service {
	if driveSvc == nil {
		panic("configsgoogle: Connect must be called before GetDrive")
	}
	return driveSvc
}

// GetSheets returns the shared Sheets client. Connect must have succeeded.
func GetSheets() *sheets.Service {
	if sheetsSvc == nil {
		panic("configsgoogle: Connect must be called before GetSheets")
	}
	return sheetsSvc
}
