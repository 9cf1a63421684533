// services/batch_service.go
package services

import (
	"context"
	"strings"

	"inci.cards/configs/configslog"
	"inci.cards/models"
	"inci.cards/pkg/pdftext"
	"inci.cards/repositories"

	"go.uber.org/zap"
)

// BatchReport summarises one sweep over the card table.
type BatchReport struct {
	Scanned   int      `json:"scanned"`
	Pending   int      `json:"pending"`
	Processed int      `json:"processed"`
	Failed    int      `json:"failed"`
	CardIDs   []string `json:"cardIds"`
}

// IBatchService reprocesses cards whose AI columns are still empty, typically
// rows recorded while the model was unavailable.
type IBatchService interface {
	ProcessPending(ctx context.Context) (*BatchReport, error)
}

// BatchService implements IBatchService.
type BatchService struct {
	cards repositories.ICardRepository
	drive repositories.IDriveRepository
	ai    IAIService
}

// NewBatchService builds a BatchService on the shared collaborators.
func NewBatchService(ai IAIService) IBatchService {
	return &BatchService{
		cards: repositories.NewCardRepository(),
		drive: repositories.NewDriveRepository(),
		ai:    ai,
	}
}

// ProcessPending scans every card row and runs the product analysis for rows
// whose AI columns are empty. One failing card does not stop the sweep; the
// report counts both outcomes.
func (s *BatchService) ProcessPending(ctx context.Context) (*BatchReport, error) {
	if !s.ai.Enabled() {
		return nil, ErrAIUnavailable
	}

	cards, err := s.cards.GetAllCards(ctx)
	if err != nil {
		return nil, err
	}

	report := &BatchReport{Scanned: len(cards)}
	for _, card := range cards {
		if !needsAnalysis(card) {
			continue
		}
		report.Pending++

		if err := s.processOne(ctx, card); err != nil {
			report.Failed++
			configslog.Log.Warn("batch card failed", zap.String("cardID", card.CardID), zap.Error(err))
			continue
		}
		report.Processed++
		report.CardIDs = append(report.CardIDs, card.CardID)
	}

	configslog.Log.Info("batch sweep finished",
		zap.Int("scanned", report.Scanned),
		zap.Int("processed", report.Processed),
		zap.Int("failed", report.Failed))
	return report, nil
}

func (s *BatchService) processOne(ctx context.Context, card *models.Card) error {
	inciText := card.InciText
	attachment := s.findInciAttachment(ctx, card)
	if inciText == "" && attachment != nil && pdftext.IsPDF(attachment.MimeType) {
		if t, err := pdftext.Extract(attachment.Data); err == nil {
			inciText = t
		}
	}

	analysis, err := s.ai.AnalyzeProduct(ctx, card.ProductName, card.Purpose, inciText, attachment)
	if err != nil {
		return err
	}
	return s.cards.UpdateAIData(ctx, card.RowNumber, analysis)
}

// findInciAttachment locates the card's INCI document via the legacy
// root-level "[cardId] name" folder. Missing folders or files are normal for
// staged-API cards, which nest under the user folder instead.
func (s *BatchService) findInciAttachment(ctx context.Context, card *models.Card) *models.ImageAttachment {
	folderID, err := s.drive.FindFolderByName(ctx, "["+card.CardID+"] "+card.ProductName)
	if err != nil || folderID == "" {
		return nil
	}

	files, err := s.drive.ListFiles(ctx, folderID)
	if err != nil {
		return nil
	}
	for _, f := range files {
		if !strings.HasPrefix(f.Name, "INCI") {
			continue
		}
		data, mimeType, err := s.drive.GetFile(ctx, f.ID)
		if err != nil {
			configslog.Log.Warn("batch attachment fetch failed", zap.String("file", f.Name), zap.Error(err))
			return nil
		}
		return &models.ImageAttachment{Data: data, MimeType: mimeType}
	}
	return nil
}

// needsAnalysis reports whether the AI columns are still blank.
func needsAnalysis(card *models.Card) bool {
	return card.ActiveIngredientsRU == "" && card.FullCompositionRU == ""
}

var _ IBatchService = (*BatchService)(nil)
