// services/card_service.go
//
// The card orchestrator sequences the five-stage card lifecycle across the
// Drive, Sheets and AI collaborators. Three independent systems means partial
// failure is normal; the rules here are: validate before any external call,
// compensate the one multi-step write (folder before row), and never let an
// AI failure poison the permanent record.
package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"inci.cards/configs/configslog"
	"inci.cards/models"
	"inci.cards/pkg/cardstate"
	"inci.cards/pkg/pdftext"
	"inci.cards/repositories"

	"go.uber.org/zap"
)

// CardServiceError is a typed service error.
type CardServiceError string

func (e CardServiceError) Error() string { return string(e) }

const (
	ErrCardNotFound       CardServiceError = "карточка не найдена"
	ErrCardFieldsRequired CardServiceError = "заполните все обязательные поля: Наименование, Назначение, Применение"
	ErrInfoFieldsRequired CardServiceError = "заполните поля \"Назначение\" и \"Применение\""
	ErrNameRequiredField  CardServiceError = "новое название не указано"
	ErrNoFilesUploaded    CardServiceError = "файлы не загружены"
	ErrTooManyFiles       CardServiceError = "можно загрузить не более 10 файлов"
	ErrSingleFileRequired CardServiceError = "можно загрузить только один файл INCI"
	ErrFileTooLarge       CardServiceError = "файл превышает 10 МБ"
	ErrUnsupportedFile    CardServiceError = "поддерживаются только PDF и изображения"
	ErrCardCreateFailed   CardServiceError = "не удалось создать карточку"
)

// MaxFilesPerUpload caps label and photo uploads.
const MaxFilesPerUpload = 10

// MaxFileSize caps a single uploaded file.
const MaxFileSize = 10 * 1024 * 1024

// FilePayload is one uploaded file held in memory.
type FilePayload struct {
	Filename string
	MimeType string
	Data     []byte
}

// CreateCardResult carries all ids generated by the create stage.
type CreateCardResult struct {
	CardID         string `json:"cardId"`
	CardFolderID   string `json:"cardFolderId"`
	UserFolderID   string `json:"userFolderId"`
	PhotosFolderID string `json:"photosFolderId"`
	SheetRow       int    `json:"sheetRow"`
	FolderURL      string `json:"folderUrl"`
}

// AISuggestions are the label-derived values for the user-editable fields.
type AISuggestions struct {
	Purpose     string `json:"purpose"`
	Application string `json:"application"`
}

// LabelResult is the outcome of the label stage.
type LabelResult struct {
	LabelLink     string                `json:"labelLink"`
	LabelFileName string                `json:"labelFileName"`
	LabelFiles    []models.UploadedFile `json:"labelFiles"`
	AISuggestions AISuggestions         `json:"aiSuggestions"`
	LabelInfo     string                `json:"labelInfo"`
	AIAvailable   bool                  `json:"aiAvailable"`
}

// Bilingual is a RU/EN value pair.
type Bilingual struct {
	RU string `json:"ru"`
	EN string `json:"en"`
}

// InciResult is the outcome of the INCI stage.
type InciResult struct {
	InciLink     string `json:"inciLink"`
	InciFileName string `json:"inciFileName"`
	AIResults    struct {
		FullComposition    Bilingual `json:"fullComposition"`
		ActiveIngredients  Bilingual `json:"activeIngredients"`
		BookletComposition Bilingual `json:"bookletComposition"`
	} `json:"aiResults"`
	AIAvailable bool `json:"aiAvailable"`
}

// ICardService is the five-stage card orchestrator.
type ICardService interface {
	CreateCard(ctx context.Context, userID, productName, purpose, application string) (*CreateCardResult, error)
	UpdateInfo(ctx context.Context, cardID, purpose, application string) error
	ProcessLabel(ctx context.Context, cardID, cardFolderID, productName string, files []FilePayload) (*LabelResult, error)
	ProcessInci(ctx context.Context, cardID, cardFolderID, productName, purpose string, file FilePayload) (*InciResult, error)
	UploadPhotos(ctx context.Context, cardID, photosFolderID string, files []FilePayload) ([]models.UploadedFile, error)
	UpdateName(ctx context.Context, cardID, newName, cardFolderID string) (string, error)
}

// CardService implements ICardService.
type CardService struct {
	cards    repositories.ICardRepository
	drive    repositories.IDriveRepository
	journal  repositories.IJournalRepository
	ai       IAIService
	registry *cardstate.Registry
}

// NewCardService builds a CardService on the shared collaborators and the
// process-wide card registry.
func NewCardService(ai IAIService, registry *cardstate.Registry) ICardService {
	return &CardService{
		cards:    repositories.NewCardRepository(),
		drive:    repositories.NewDriveRepository(),
		journal:  repositories.NewJournalRepository(),
		ai:       ai,
		registry: registry,
	}
}

// CreateCard runs stage 1: reserve a card id, build the Drive folder tree and
// append the sheet row. If the row append fails the folders are trashed so no
// orphaned folder survives without a record.
func (s *CardService) CreateCard(ctx context.Context, userID, productName, purpose, application string) (*CreateCardResult, error) {
	productName = strings.TrimSpace(productName)
	purpose = strings.TrimSpace(purpose)
	application = strings.TrimSpace(application)
	if productName == "" || purpose == "" || application == "" {
		return nil, ErrCardFieldsRequired
	}

	seq, err := s.registry.NextSequence(userID, func() (int, error) {
		return s.cards.CountCardsByUserID(ctx, userID)
	})
	if err != nil {
		configslog.Log.Error("card sequence reservation failed", zap.String("userID", userID), zap.Error(err))
		return nil, ErrCardCreateFailed
	}
	cardID := fmt.Sprintf("CARD-%s-C%04d", userID, seq)
	configslog.Log.Info("creating card", zap.String("cardID", cardID), zap.String("userID", userID))

	userFolderID, err := s.drive.EnsureUserFolder(ctx, userID)
	if err != nil {
		configslog.Log.Error("user folder lookup failed", zap.String("userID", userID), zap.Error(err))
		return nil, ErrCardCreateFailed
	}

	cardFolderName := cardID + " " + productName
	cardFolderID, err := s.drive.CreateCardFolder(ctx, cardFolderName, userFolderID)
	if err != nil {
		configslog.Log.Error("card folder creation failed", zap.String("cardID", cardID), zap.Error(err))
		return nil, ErrCardCreateFailed
	}

	photosFolderID, err := s.drive.CreatePhotosFolder(ctx, cardFolderID)
	if err != nil {
		s.rollbackFolder(ctx, cardID, cardFolderID)
		return nil, ErrCardCreateFailed
	}

	rowNumber, err := s.cards.AppendCard(ctx, &models.Card{
		CardID:      cardID,
		UserID:      userID,
		ProductName: productName,
		Purpose:     purpose,
		Application: application,
	})
	if err != nil {
		// Compensating action: the folder tree must not outlive a failed row.
		s.rollbackFolder(ctx, cardID, cardFolderID)
		return nil, ErrCardCreateFailed
	}

	s.registry.Register(cardstate.Card{
		CardID:         cardID,
		UserID:         userID,
		ProductName:    productName,
		RowNumber:      rowNumber,
		CardFolderID:   cardFolderID,
		PhotosFolderID: photosFolderID,
	})

	if err := s.journal.LogActivity(ctx, userID, "card_created", models.ChannelWebForm, cardID); err != nil {
		configslog.Log.Warn("activity log failed", zap.String("cardID", cardID), zap.Error(err))
	}

	return &CreateCardResult{
		CardID:         cardID,
		CardFolderID:   cardFolderID,
		UserFolderID:   userFolderID,
		PhotosFolderID: photosFolderID,
		SheetRow:       rowNumber,
		FolderURL:      s.drive.FolderURL(cardFolderID),
	}, nil
}

// UpdateInfo persists the two user-editable fields (columns G:H).
func (s *CardService) UpdateInfo(ctx context.Context, cardID, purpose, application string) error {
	purpose = strings.TrimSpace(purpose)
	application = strings.TrimSpace(application)
	if purpose == "" || application == "" {
		return ErrInfoFieldsRequired
	}

	state, err := s.requireStage(ctx, cardID, models.StageCreated)
	if err != nil {
		return err
	}
	if err := s.cards.UpdatePurposeAndApplication(ctx, state.RowNumber, purpose, application); err != nil {
		return err
	}
	return s.registry.Advance(cardID, models.StageCreated, models.StageInfoFilled)
}

// ProcessLabel runs the label stage: upload 1..10 files, extract text from
// PDFs, collect images, run the label analysis and persist link + summary.
// Non-empty AI suggestions overwrite the stored purpose/application, even
// values a human already edited.
func (s *CardService) ProcessLabel(ctx context.Context, cardID, cardFolderID, productName string, files []FilePayload) (*LabelResult, error) {
	if len(files) == 0 {
		return nil, ErrNoFilesUploaded
	}
	if len(files) > MaxFilesPerUpload {
		return nil, ErrTooManyFiles
	}

	if _, err := s.requireStage(ctx, cardID, models.StageCreated); err != nil {
		return nil, err
	}

	var (
		uploaded   []models.UploadedFile
		names      []string
		images     []models.ImageAttachment
		labelTexts []string
	)
	for i, file := range files {
		suffix := ""
		if len(files) > 1 {
			suffix = fmt.Sprintf(" (%d)", i+1)
		}
		name := fmt.Sprintf("Этикетка %s%s%s", productName, suffix, extensionOf(file.Filename))

		fileID, err := s.drive.UploadFile(ctx, name, file.Data, file.MimeType, cardFolderID)
		if err != nil {
			configslog.Log.Error("label upload failed", zap.String("cardID", cardID), zap.Error(err))
			return nil, err
		}
		uploaded = append(uploaded, models.UploadedFile{Name: name, ID: fileID, URL: s.drive.FileURL(fileID)})
		names = append(names, name)

		switch {
		case pdftext.IsPDF(file.MimeType):
			text, err := pdftext.Extract(file.Data)
			if err != nil {
				configslog.Log.Warn("label PDF extraction failed", zap.String("file", name), zap.Error(err))
				continue
			}
			if text != "" {
				labelTexts = append(labelTexts, text)
			}
		case strings.HasPrefix(file.MimeType, "image/"):
			images = append(images, models.ImageAttachment{Data: file.Data, MimeType: file.MimeType})
		}
	}

	result := &LabelResult{
		LabelLink:     uploaded[0].URL,
		LabelFileName: strings.Join(names, ", "),
		LabelFiles:    uploaded,
	}

	analysis, err := s.ai.AnalyzeLabel(ctx, productName, strings.Join(labelTexts, "\n\n"), images)
	switch {
	case err == nil:
		result.AIAvailable = true
		result.LabelInfo = analysis.LabelInfo
		result.AISuggestions.Purpose = strings.TrimSpace(analysis.SuggestedPurpose)
		result.AISuggestions.Application = strings.TrimSpace(analysis.SuggestedApplication)
	case errors.Is(err, ErrAIUnavailable):
		// The upload still counts; the card just carries no label summary.
		configslog.Log.Warn("label analysis unavailable", zap.String("cardID", cardID))
	default:
		return nil, err
	}

	row, err := s.cards.GetRowByCardID(ctx, cardID)
	if err == nil {
		if uerr := s.cards.UpdateLabelInfo(ctx, row.RowNumber, result.LabelLink, result.LabelInfo); uerr != nil {
			return nil, uerr
		}
		if result.AISuggestions.Purpose != "" || result.AISuggestions.Application != "" {
			purpose := result.AISuggestions.Purpose
			if purpose == "" {
				purpose = row.Purpose
			}
			application := result.AISuggestions.Application
			if application == "" {
				application = row.Application
			}
			if uerr := s.cards.UpdatePurposeAndApplication(ctx, row.RowNumber, purpose, application); uerr != nil {
				return nil, uerr
			}
		}
	} else if err != repositories.ErrNotFound {
		return nil, err
	}

	if err := s.registry.Advance(cardID, models.StageCreated, models.StageLabelProcessed); err != nil {
		return nil, err
	}
	configslog.Log.Info("label processed", zap.String("cardID", cardID), zap.Int("files", len(files)))
	return result, nil
}

// ProcessInci runs the INCI stage on exactly one document.
func (s *CardService) ProcessInci(ctx context.Context, cardID, cardFolderID, productName, purpose string, file FilePayload) (*InciResult, error) {
	if len(file.Data) == 0 {
		return nil, ErrNoFilesUploaded
	}

	if _, err := s.requireStage(ctx, cardID, models.StageLabelProcessed); err != nil {
		return nil, err
	}

	name := fmt.Sprintf("INCI %s%s", productName, extensionOf(file.Filename))
	fileID, err := s.drive.UploadFile(ctx, name, file.Data, file.MimeType, cardFolderID)
	if err != nil {
		configslog.Log.Error("INCI upload failed", zap.String("cardID", cardID), zap.Error(err))
		return nil, err
	}
	inciLink := s.drive.FileURL(fileID)

	inciText := ""
	if pdftext.IsPDF(file.MimeType) {
		inciText, err = pdftext.Extract(file.Data)
		if err != nil {
			configslog.Log.Warn("INCI PDF extraction failed", zap.String("cardID", cardID), zap.Error(err))
			inciText = ""
		}
	}

	result := &InciResult{InciLink: inciLink, InciFileName: name}

	attachment := &models.ImageAttachment{Data: file.Data, MimeType: file.MimeType}
	analysis, err := s.ai.AnalyzeProduct(ctx, productName, purpose, inciText, attachment)
	switch {
	case err == nil:
		result.AIAvailable = true
		result.AIResults.FullComposition = Bilingual{RU: analysis.FullComposition, EN: analysis.FullCompositionEn}
		result.AIResults.ActiveIngredients = Bilingual{
			RU: strings.Join(analysis.ActiveIngredients, ", "),
			EN: strings.Join(analysis.ActiveIngredientsEn, ", "),
		}
		result.AIResults.BookletComposition = Bilingual{RU: analysis.BookletComposition, EN: analysis.BookletCompositionEn}
	case errors.Is(err, ErrAIUnavailable):
		configslog.Log.Warn("INCI analysis unavailable", zap.String("cardID", cardID))
		analysis = nil
	default:
		return nil, err
	}

	if row, rerr := s.cards.GetRowByCardID(ctx, cardID); rerr == nil {
		if uerr := s.cards.UpdateInci(ctx, row.RowNumber, inciText, inciLink); uerr != nil {
			return nil, uerr
		}
		// AI columns stay untouched when the analysis failed.
		if analysis != nil {
			if uerr := s.cards.UpdateAIData(ctx, row.RowNumber, analysis); uerr != nil {
				return nil, uerr
			}
		}
	} else if rerr != repositories.ErrNotFound {
		return nil, rerr
	}

	if err := s.registry.Advance(cardID, models.StageLabelProcessed, models.StageInciProcessed); err != nil {
		return nil, err
	}
	configslog.Log.Info("INCI processed", zap.String("cardID", cardID))
	return result, nil
}

// UploadPhotos runs the final stage: store up to 10 images in the photos
// subfolder. The sheet is not touched.
func (s *CardService) UploadPhotos(ctx context.Context, cardID, photosFolderID string, files []FilePayload) ([]models.UploadedFile, error) {
	if len(files) == 0 {
		return nil, ErrNoFilesUploaded
	}
	if len(files) > MaxFilesPerUpload {
		return nil, ErrTooManyFiles
	}

	if _, err := s.requireStage(ctx, cardID, models.StageInciProcessed); err != nil {
		return nil, err
	}

	uploaded := make([]models.UploadedFile, 0, len(files))
	for _, photo := range files {
		fileID, err := s.drive.UploadFile(ctx, photo.Filename, photo.Data, photo.MimeType, photosFolderID)
		if err != nil {
			configslog.Log.Error("photo upload failed", zap.String("cardID", cardID), zap.String("file", photo.Filename), zap.Error(err))
			return nil, err
		}
		uploaded = append(uploaded, models.UploadedFile{Name: photo.Filename, ID: fileID, URL: s.drive.FileURL(fileID)})
	}

	if err := s.registry.Advance(cardID, models.StageInciProcessed, models.StagePhotosUploaded); err != nil {
		return nil, err
	}
	configslog.Log.Info("photos uploaded", zap.String("cardID", cardID), zap.Int("count", len(uploaded)))
	return uploaded, nil
}

// UpdateName renames the sheet cell and then the Drive folder. The two writes
// hit independent systems with no atomicity; a failure in between leaves the
// folder carrying the old name until the next rename.
func (s *CardService) UpdateName(ctx context.Context, cardID, newName, cardFolderID string) (string, error) {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return "", ErrNameRequiredField
	}

	state, err := s.requireStage(ctx, cardID, models.StageCreated)
	if err != nil {
		return "", err
	}

	if err := s.cards.UpdateProductName(ctx, state.RowNumber, newName); err != nil {
		return "", err
	}

	newFolderName := cardID + " " + newName
	if err := s.drive.RenameFolder(ctx, cardFolderID, newFolderName); err != nil {
		configslog.Log.Error("folder rename failed after sheet rename, names now diverge",
			zap.String("cardID", cardID), zap.Error(err))
		return "", err
	}

	s.registry.Rename(cardID, newName)
	return newFolderName, nil
}

// requireStage returns the card's registry entry, restoring it from the sheet
// after a restart, and checks the stage prerequisite. The stage itself is
// advanced by the caller once its writes succeed.
func (s *CardService) requireStage(ctx context.Context, cardID string, prereq models.CardStage) (cardstate.Card, error) {
	state, ok := s.registry.Get(cardID)
	if !ok {
		row, err := s.cards.GetRowByCardID(ctx, cardID)
		if err != nil {
			if err == repositories.ErrNotFound {
				return cardstate.Card{}, ErrCardNotFound
			}
			return cardstate.Card{}, err
		}
		state = cardstate.Card{
			CardID:      cardID,
			UserID:      row.UserID,
			ProductName: row.ProductName,
			RowNumber:   row.RowNumber,
			Stage:       inferStage(row),
		}
		s.registry.Restore(state)
	}

	if err := s.registry.Advance(cardID, prereq, 0); err != nil {
		return cardstate.Card{}, err
	}
	return state, nil
}

// inferStage reconstructs workflow progress from row contents after the
// in-process registry was lost. Photos leave no trace in the row, so
// PhotosUploaded cannot be recovered; the stage before it is close enough for
// prerequisite checks.
func inferStage(card *models.Card) models.CardStage {
	switch {
	case card.InciDocLink != "" || card.FullCompositionRU != "":
		return models.StageInciProcessed
	case card.LabelLink != "":
		return models.StageLabelProcessed
	default:
		return models.StageInfoFilled
	}
}

func (s *CardService) rollbackFolder(ctx context.Context, cardID, folderID string) {
	if err := s.drive.TrashFile(ctx, folderID); err != nil {
		configslog.Log.Error("rollback failed, orphaned folder remains",
			zap.String("cardID", cardID), zap.String("folderID", folderID), zap.Error(err))
		return
	}
	configslog.Log.Info("card folder rolled back", zap.String("cardID", cardID))
}

// extensionOf returns the filename's extension including the dot, or "".
func extensionOf(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}

var _ ICardService = (*CardService)(nil)
