package services

import (
	"context"
	"fmt"
	"sync"

	"inci.cards/models"
	"inci.cards/repositories"
)

// fakeCardRepo is an in-memory stand-in for the card table.
type fakeCardRepo struct {
	mu    sync.Mutex
	cards []*models.Card

	appendErr error
	updateErr error

	purposeWrites     []string
	applicationWrites []string
	aiDataWrites      []*models.ProductAnalysis
	labelInfoWrites   []string
	inciWrites        []string
	nameWrites        []string
}

func (f *fakeCardRepo) AppendCard(ctx context.Context, card *models.Card) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appendErr != nil {
		return 0, f.appendErr
	}
	clone := *card
	clone.RowNumber = len(f.cards) + 2 // header is row 1
	f.cards = append(f.cards, &clone)
	return clone.RowNumber, nil
}

func (f *fakeCardRepo) GetRowByCardID(ctx context.Context, cardID string) (*models.Card, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.cards {
		if c.CardID == cardID {
			clone := *c
			return &clone, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeCardRepo) GetAllCards(ctx context.Context) ([]*models.Card, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.Card, len(f.cards))
	copy(out, f.cards)
	return out, nil
}

func (f *fakeCardRepo) CountCardsByUserID(ctx context.Context, userID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, c := range f.cards {
		if c.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (f *fakeCardRepo) UpdateLabelInfo(ctx context.Context, rowNumber int, labelLink, labelInfo string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	f.labelInfoWrites = append(f.labelInfoWrites, labelInfo)
	if c := f.byRow(rowNumber); c != nil {
		c.LabelLink = labelLink
		c.LabelInfo = labelInfo
	}
	return nil
}

func (f *fakeCardRepo) UpdatePurposeAndApplication(ctx context.Context, rowNumber int, purpose, application string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	f.purposeWrites = append(f.purposeWrites, purpose)
	f.applicationWrites = append(f.applicationWrites, application)
	if c := f.byRow(rowNumber); c != nil {
		c.Purpose = purpose
		c.Application = application
	}
	return nil
}

func (f *fakeCardRepo) UpdateInci(ctx context.Context, rowNumber int, inciText, inciDocLink string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	f.inciWrites = append(f.inciWrites, inciText)
	if c := f.byRow(rowNumber); c != nil {
		c.InciText = inciText
		c.InciDocLink = inciDocLink
	}
	return nil
}

func (f *fakeCardRepo) UpdateAIData(ctx context.Context, rowNumber int, analysis *models.ProductAnalysis) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	f.aiDataWrites = append(f.aiDataWrites, analysis)
	if c := f.byRow(rowNumber); c != nil {
		c.FullCompositionRU = analysis.FullComposition
		c.FullCompositionEN = analysis.FullCompositionEn
	}
	return nil
}

func (f *fakeCardRepo) UpdateProductName(ctx context.Context, rowNumber int, newName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	f.nameWrites = append(f.nameWrites, newName)
	if c := f.byRow(rowNumber); c != nil {
		c.ProductName = newName
	}
	return nil
}

func (f *fakeCardRepo) byRow(rowNumber int) *models.Card {
	for _, c := range f.cards {
		if c.RowNumber == rowNumber {
			return c
		}
	}
	return nil
}

// fakeDriveRepo is an in-memory stand-in for Drive.
type fakeDriveRepo struct {
	mu      sync.Mutex
	nextID  int
	folders map[string]string // id -> name
	files   map[string][]byte
	trashed []string

	photosFolderErr error
	uploadErr       error
	renameErr       error
	findFolderID    string
}

func newFakeDriveRepo() *fakeDriveRepo {
	return &fakeDriveRepo{
		folders: make(map[string]string),
		files:   make(map[string][]byte),
	}
}

func (f *fakeDriveRepo) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s-%d", prefix, f.nextID)
}

func (f *fakeDriveRepo) CreateFolder(ctx context.Context, name, parentID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.id("folder")
	f.folders[id] = name
	return id, nil
}

func (f *fakeDriveRepo) EnsureUserFolder(ctx context.Context, userID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.id("user-folder")
	f.folders[id] = userID
	return id, nil
}

func (f *fakeDriveRepo) CreateCardFolder(ctx context.Context, cardFolderName, userFolderID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.id("card-folder")
	f.folders[id] = cardFolderName
	return id, nil
}

func (f *fakeDriveRepo) CreatePhotosFolder(ctx context.Context, cardFolderID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.photosFolderErr != nil {
		return "", f.photosFolderErr
	}
	id := f.id("photos-folder")
	f.folders[id] = repositories.PhotosFolderName
	return id, nil
}

func (f *fakeDriveRepo) UploadFile(ctx context.Context, name string, data []byte, mimeType, folderID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	id := f.id("file")
	f.files[id] = data
	f.folders[id] = name
	return id, nil
}

func (f *fakeDriveRepo) RenameFolder(ctx context.Context, folderID, newName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.renameErr != nil {
		return f.renameErr
	}
	f.folders[folderID] = newName
	return nil
}

func (f *fakeDriveRepo) TrashFile(ctx context.Context, fileID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trashed = append(f.trashed, fileID)
	return nil
}

func (f *fakeDriveRepo) ListFiles(ctx context.Context, folderID string) ([]repositories.DriveFile, error) {
	return nil, nil
}

func (f *fakeDriveRepo) GetFile(ctx context.Context, fileID string) ([]byte, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.files[fileID]
	if !ok {
		return nil, "", repositories.ErrNotFound
	}
	return data, "application/pdf", nil
}

func (f *fakeDriveRepo) FindFolderByName(ctx context.Context, name string) (string, error) {
	if f.findFolderID == "" {
		return "", repositories.ErrNotFound
	}
	return f.findFolderID, nil
}

func (f *fakeDriveRepo) FolderURL(folderID string) string {
	return "https://drive.google.com/drive/folders/" + folderID
}

func (f *fakeDriveRepo) FileURL(fileID string) string {
	return "https://drive.google.com/file/d/" + fileID + "/view"
}

// fakeJournalRepo is an in-memory stand-in for the user journal.
type fakeJournalRepo struct {
	mu         sync.Mutex
	users      []*models.User
	activities []string

	countErr  error
	appendErr error
}

func (f *fakeJournalRepo) CountUsers(ctx context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.countErr != nil {
		return 0, f.countErr
	}
	return len(f.users), nil
}

func (f *fakeJournalRepo) AppendUser(ctx context.Context, userID string, data models.NewUserData) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appendErr != nil {
		return f.appendErr
	}
	f.users = append(f.users, &models.User{
		UserID:      userID,
		Email:       data.Email,
		DisplayName: data.DisplayName,
		ChannelCode: data.ChannelCode,
	})
	return nil
}

func (f *fakeJournalRepo) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeJournalRepo) FindUserByChatID(ctx context.Context, chatID string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.TelegramChatID == chatID {
			return u, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeJournalRepo) LogActivity(ctx context.Context, userID, eventType, channel, details string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.activities = append(f.activities, eventType)
	return nil
}

func (f *fakeJournalRepo) EnsureStructure(ctx context.Context) error { return nil }

// fakeAI returns canned analyses or a configured error.
type fakeAI struct {
	enabled bool

	labelAnalysis   *models.LabelAnalysis
	productAnalysis *models.ProductAnalysis
	labelErr        error
	productErr      error

	productCalls int
}

func (f *fakeAI) Enabled() bool { return f.enabled }

func (f *fakeAI) AnalyzeProduct(ctx context.Context, productName, purpose, inci string, image *models.ImageAttachment) (*models.ProductAnalysis, error) {
	f.productCalls++
	if f.productErr != nil {
		return nil, f.productErr
	}
	return f.productAnalysis, nil
}

func (f *fakeAI) AnalyzeLabel(ctx context.Context, productName, labelText string, images []models.ImageAttachment) (*models.LabelAnalysis, error) {
	if f.labelErr != nil {
		return nil, f.labelErr
	}
	return f.labelAnalysis, nil
}

var (
	_ repositories.ICardRepository    = (*fakeCardRepo)(nil)
	_ repositories.IDriveRepository   = (*fakeDriveRepo)(nil)
	_ repositories.IJournalRepository = (*fakeJournalRepo)(nil)
	_ IAIService                      = (*fakeAI)(nil)
)
