// Package journal prepares the user-journal spreadsheet: sheet tabs, headers,
// dictionaries and dropdown validation. Running it repeatedly is safe; only
// missing pieces are created.
package journal

import (
	"context"

	"inci.cards/configs/configslog"
	"inci.cards/repositories"

	"go.uber.org/zap"
)

// Initialize builds the journal structure.
func Initialize(ctx context.Context) error {
	configslog.SLog.Info("preparing journal spreadsheet structure...")

	repo := repositories.NewJournalRepository()
	if err := repo.EnsureStructure(ctx); err != nil {
		configslog.Log.Error("journal structure setup failed", zap.Error(err))
		return err
	}

	configslog.SLog.Info("journal spreadsheet structure is ready")
	return nil
}
