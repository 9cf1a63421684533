// services/webhook_service.go
//
// Single-shot intake: one request carries the whole card (fields plus file
// URLs) and the pipeline runs every stage at once. This path predates the
// staged API and keeps its own conventions: timestamp-based card ids and a
// flat "[cardId] name" folder under the Drive root.
package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"inci.cards/configs/configslog"
	"inci.cards/models"
	"inci.cards/pkg/filedownload"
	"inci.cards/pkg/pdftext"
	"inci.cards/repositories"

	"go.uber.org/zap"
)

const (
	ErrProductDataRequired CardServiceError = "данные о продукте не заполнены"
)

// IntakeCard is the single-shot payload.
type IntakeCard struct {
	ProductName string   `json:"productName"`
	Purpose     string   `json:"purpose"`
	Application string   `json:"application"`
	UserID      string   `json:"userId"`
	LabelURLs   []string `json:"labelUrls"`
	InciURLs    []string `json:"inciUrls"`
	PhotoURLs   []string `json:"photoUrls"`
}

// IntakeResult reports what the single-shot pipeline produced.
type IntakeResult struct {
	CardID      string `json:"cardId"`
	FolderURL   string `json:"folderUrl"`
	SheetRow    int    `json:"sheetRow"`
	FilesStored int    `json:"filesStored"`
	AIAvailable bool   `json:"aiAvailable"`
}

// IIntakeService processes complete cards arriving in one request.
type IIntakeService interface {
	// ProcessCard handles the automation path: files referenced by URL.
	ProcessCard(ctx context.Context, card IntakeCard) (*IntakeResult, error)
	// ProcessUpload handles the site form path: files carried in the request.
	ProcessUpload(ctx context.Context, card IntakeCard, inciDoc *FilePayload, photos []FilePayload) (*IntakeResult, error)
}

// IntakeService implements IIntakeService.
type IntakeService struct {
	cards      repositories.ICardRepository
	drive      repositories.IDriveRepository
	journal    repositories.IJournalRepository
	ai         IAIService
	downloader *filedownload.Downloader
	now        func() time.Time
}

// NewIntakeService builds an IntakeService on the shared collaborators.
func NewIntakeService(ai IAIService) IIntakeService {
	return &IntakeService{
		cards:      repositories.NewCardRepository(),
		drive:      repositories.NewDriveRepository(),
		journal:    repositories.NewJournalRepository(),
		ai:         ai,
		downloader: filedownload.New(),
		now:        time.Now,
	}
}

// ProcessCard runs the whole pipeline: generate a legacy card id, build the
// root-level folder, fetch and store every referenced file, run the full AI
// analysis and append one complete sheet row. Individual file failures are
// logged and skipped; the card is still recorded.
func (s *IntakeService) ProcessCard(ctx context.Context, card IntakeCard) (*IntakeResult, error) {
	card.ProductName = strings.TrimSpace(card.ProductName)
	if card.ProductName == "" {
		return nil, ErrProductDataRequired
	}

	cardID := s.generateCardID()
	configslog.Log.Info("single-shot card intake", zap.String("cardID", cardID), zap.String("product", card.ProductName))

	folderName := fmt.Sprintf("[%s] %s", cardID, card.ProductName)
	folderID, err := s.drive.CreateFolder(ctx, folderName, "")
	if err != nil {
		configslog.Log.Error("intake folder creation failed", zap.String("cardID", cardID), zap.Error(err))
		return nil, ErrCardCreateFailed
	}

	labelLink, labelText, stored := s.fetchAndStore(ctx, folderID, "Этикетка "+card.ProductName, card.LabelURLs)
	inciLink, inciText, storedInci := s.fetchAndStore(ctx, folderID, "INCI "+card.ProductName, card.InciURLs)
	_, _, storedPhotos := s.fetchAndStore(ctx, folderID, card.ProductName, card.PhotoURLs)
	stored += storedInci + storedPhotos

	row := &models.Card{
		CardID:      cardID,
		UserID:      card.UserID,
		ProductName: card.ProductName,
		Purpose:     card.Purpose,
		Application: card.Application,
		LabelLink:   labelLink,
		LabelInfo:   labelText,
		InciText:    inciText,
		InciDocLink: inciLink,
	}

	aiAvailable := false
	analysis, err := s.ai.AnalyzeProduct(ctx, card.ProductName, card.Purpose, inciText, nil)
	if err != nil {
		configslog.Log.Warn("intake analysis unavailable", zap.String("cardID", cardID), zap.Error(err))
	} else {
		aiAvailable = true
		row.ActiveIngredientsRU = strings.Join(analysis.ActiveIngredients, ", ")
		row.ActiveIngredientsEN = strings.Join(analysis.ActiveIngredientsEn, ", ")
		row.BookletRU = analysis.BookletComposition
		row.BookletEN = analysis.BookletCompositionEn
		row.FullCompositionRU = analysis.FullComposition
		row.FullCompositionEN = analysis.FullCompositionEn
	}

	rowNumber, err := s.cards.AppendCard(ctx, row)
	if err != nil {
		configslog.Log.Error("intake row append failed", zap.String("cardID", cardID), zap.Error(err))
		return nil, ErrCardCreateFailed
	}

	if card.UserID != "" {
		if err := s.journal.LogActivity(ctx, card.UserID, "card_intake", models.ChannelWebForm, cardID); err != nil {
			configslog.Log.Warn("activity log failed", zap.String("cardID", cardID), zap.Error(err))
		}
	}

	return &IntakeResult{
		CardID:      cardID,
		FolderURL:   s.drive.FolderURL(folderID),
		SheetRow:    rowNumber,
		FilesStored: stored,
		AIAvailable: aiAvailable,
	}, nil
}

// ProcessUpload runs the same single-shot pipeline on files uploaded with the
// request instead of referenced by URL.
func (s *IntakeService) ProcessUpload(ctx context.Context, card IntakeCard, inciDoc *FilePayload, photos []FilePayload) (*IntakeResult, error) {
	card.ProductName = strings.TrimSpace(card.ProductName)
	if card.ProductName == "" {
		return nil, ErrProductDataRequired
	}

	cardID := s.generateCardID()
	configslog.Log.Info("form card intake", zap.String("cardID", cardID), zap.String("product", card.ProductName))

	folderName := fmt.Sprintf("[%s] %s", cardID, card.ProductName)
	folderID, err := s.drive.CreateFolder(ctx, folderName, "")
	if err != nil {
		configslog.Log.Error("intake folder creation failed", zap.String("cardID", cardID), zap.Error(err))
		return nil, ErrCardCreateFailed
	}

	stored := 0
	inciLink := ""
	inciText := ""
	var attachment *models.ImageAttachment
	if inciDoc != nil {
		name := fmt.Sprintf("INCI %s%s", card.ProductName, extensionOf(inciDoc.Filename))
		fileID, err := s.drive.UploadFile(ctx, name, inciDoc.Data, inciDoc.MimeType, folderID)
		if err != nil {
			configslog.Log.Warn("intake INCI upload failed", zap.String("cardID", cardID), zap.Error(err))
		} else {
			stored++
			inciLink = s.drive.FileURL(fileID)
		}
		if pdftext.IsPDF(inciDoc.MimeType) {
			if t, terr := pdftext.Extract(inciDoc.Data); terr == nil {
				inciText = t
			}
		}
		attachment = &models.ImageAttachment{Data: inciDoc.Data, MimeType: inciDoc.MimeType}
	}
	for _, photo := range photos {
		if _, err := s.drive.UploadFile(ctx, photo.Filename, photo.Data, photo.MimeType, folderID); err != nil {
			configslog.Log.Warn("intake photo upload failed", zap.String("file", photo.Filename), zap.Error(err))
			continue
		}
		stored++
	}

	row := &models.Card{
		CardID:      cardID,
		UserID:      card.UserID,
		ProductName: card.ProductName,
		Purpose:     card.Purpose,
		Application: card.Application,
		InciText:    inciText,
		InciDocLink: inciLink,
	}

	aiAvailable := false
	analysis, err := s.ai.AnalyzeProduct(ctx, card.ProductName, card.Purpose, inciText, attachment)
	if err != nil {
		configslog.Log.Warn("intake analysis unavailable", zap.String("cardID", cardID), zap.Error(err))
	} else {
		aiAvailable = true
		row.ActiveIngredientsRU = strings.Join(analysis.ActiveIngredients, ", ")
		row.ActiveIngredientsEN = strings.Join(analysis.ActiveIngredientsEn, ", ")
		row.BookletRU = analysis.BookletComposition
		row.BookletEN = analysis.BookletCompositionEn
		row.FullCompositionRU = analysis.FullComposition
		row.FullCompositionEN = analysis.FullCompositionEn
	}

	rowNumber, err := s.cards.AppendCard(ctx, row)
	if err != nil {
		configslog.Log.Error("intake row append failed", zap.String("cardID", cardID), zap.Error(err))
		return nil, ErrCardCreateFailed
	}

	if card.UserID != "" {
		if err := s.journal.LogActivity(ctx, card.UserID, "card_intake", models.ChannelWebForm, cardID); err != nil {
			configslog.Log.Warn("activity log failed", zap.String("cardID", cardID), zap.Error(err))
		}
	}

	return &IntakeResult{
		CardID:      cardID,
		FolderURL:   s.drive.FolderURL(folderID),
		SheetRow:    rowNumber,
		FilesStored: stored,
		AIAvailable: aiAvailable,
	}, nil
}

// fetchAndStore downloads each URL and stores it in the folder under
// baseName with a numeric suffix when there is more than one file. It returns
// the first stored file's link, the aggregated PDF text, and the stored count.
func (s *IntakeService) fetchAndStore(ctx context.Context, folderID, baseName string, urls []string) (firstLink, text string, stored int) {
	var texts []string
	for i, rawURL := range urls {
		if strings.TrimSpace(rawURL) == "" {
			continue
		}
		data, err := s.downloader.Download(rawURL)
		if err != nil {
			configslog.Log.Warn("intake download failed", zap.String("url", rawURL), zap.Error(err))
			continue
		}

		extension := filedownload.FileExtension(rawURL)
		mimeType := filedownload.MimeType(extension)
		suffix := ""
		if extension != "" {
			suffix = "." + extension
		}
		name := baseName + suffix
		if len(urls) > 1 {
			name = fmt.Sprintf("%s (%d)%s", baseName, i+1, suffix)
		}

		fileID, err := s.drive.UploadFile(ctx, name, data, mimeType, folderID)
		if err != nil {
			configslog.Log.Warn("intake upload failed", zap.String("file", name), zap.Error(err))
			continue
		}
		stored++
		if firstLink == "" {
			firstLink = s.drive.FileURL(fileID)
		}

		if pdftext.IsPDF(mimeType) {
			if t, err := pdftext.Extract(data); err == nil && t != "" {
				texts = append(texts, t)
			}
		}
	}
	return firstLink, strings.Join(texts, "\n\n"), stored
}

// generateCardID builds the legacy id: millisecond timestamp plus a short
// random suffix, e.g. CARD-1732612345678-4821.
func (s *IntakeService) generateCardID() string {
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	suffix := int64(0)
	if err == nil {
		suffix = n.Int64()
	}
	return fmt.Sprintf("CARD-%d-%04d", s.now().UnixMilli(), suffix)
}

var _ IIntakeService = (*IntakeService)(nil)
