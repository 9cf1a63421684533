package services

import (
	"context"
	"errors"
	"testing"

	"inci.cards/models"
	"inci.cards/pkg/cardstate"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCardService(cards *fakeCardRepo, drive *fakeDriveRepo, journal *fakeJournalRepo, ai IAIService) *CardService {
	return &CardService{
		cards:    cards,
		drive:    drive,
		journal:  journal,
		ai:       ai,
		registry: cardstate.NewRegistry(),
	}
}

func TestCreateCard(t *testing.T) {
	cards := &fakeCardRepo{}
	drive := newFakeDriveRepo()
	journal := &fakeJournalRepo{}
	svc := newTestCardService(cards, drive, journal, &fakeAI{})

	result, err := svc.CreateCard(context.Background(), "U2025_11_26_WF-0001", "Крем дневной", "увлажнение", "наносить утром")
	require.NoError(t, err)

	assert.Equal(t, "CARD-U2025_11_26_WF-0001-C0001", result.CardID)
	assert.Equal(t, 2, result.SheetRow)
	assert.NotEmpty(t, result.CardFolderID)
	assert.NotEmpty(t, result.PhotosFolderID)
	assert.Contains(t, result.FolderURL, result.CardFolderID)

	assert.Equal(t, "CARD-U2025_11_26_WF-0001-C0001 Крем дневной", drive.folders[result.CardFolderID])

	state, ok := svc.registry.Get(result.CardID)
	require.True(t, ok)
	assert.Equal(t, models.StageCreated, state.Stage)
	assert.Contains(t, journal.activities, "card_created")
}

func TestCreateCardRequiresAllFields(t *testing.T) {
	svc := newTestCardService(&fakeCardRepo{}, newFakeDriveRepo(), &fakeJournalRepo{}, &fakeAI{})

	_, err := svc.CreateCard(context.Background(), "U1", "Крем", "  ", "наносить")
	assert.ErrorIs(t, err, ErrCardFieldsRequired)
}

func TestCreateCardSequenceContinuesFromSheet(t *testing.T) {
	cards := &fakeCardRepo{cards: []*models.Card{
		{RowNumber: 2, CardID: "CARD-U1-C0001", UserID: "U1"},
		{RowNumber: 3, CardID: "CARD-U1-C0002", UserID: "U1"},
		{RowNumber: 4, CardID: "CARD-U2-C0001", UserID: "U2"},
	}}
	svc := newTestCardService(cards, newFakeDriveRepo(), &fakeJournalRepo{}, &fakeAI{})

	first, err := svc.CreateCard(context.Background(), "U1", "Крем", "увлажнение", "нанести")
	require.NoError(t, err)
	assert.Equal(t, "CARD-U1-C0003", first.CardID)

	second, err := svc.CreateCard(context.Background(), "U1", "Маска", "питание", "нанести")
	require.NoError(t, err)
	assert.Equal(t, "CARD-U1-C0004", second.CardID)
}

func TestCreateCardRollsBackFolderOnAppendFailure(t *testing.T) {
	cards := &fakeCardRepo{appendErr: errors.New("sheets down")}
	drive := newFakeDriveRepo()
	svc := newTestCardService(cards, drive, &fakeJournalRepo{}, &fakeAI{})

	_, err := svc.CreateCard(context.Background(), "U1", "Крем", "увлажнение", "нанести")
	assert.ErrorIs(t, err, ErrCardCreateFailed)
	require.Len(t, drive.trashed, 1)
	assert.Equal(t, "CARD-U1-C0001 Крем", drive.folders[drive.trashed[0]])
}

func TestCreateCardRollsBackFolderOnPhotosFailure(t *testing.T) {
	drive := newFakeDriveRepo()
	drive.photosFolderErr = errors.New("quota")
	svc := newTestCardService(&fakeCardRepo{}, drive, &fakeJournalRepo{}, &fakeAI{})

	_, err := svc.CreateCard(context.Background(), "U1", "Крем", "увлажнение", "нанести")
	assert.ErrorIs(t, err, ErrCardCreateFailed)
	assert.Len(t, drive.trashed, 1)
}

func TestUpdateInfoValidation(t *testing.T) {
	svc := newTestCardService(&fakeCardRepo{}, newFakeDriveRepo(), &fakeJournalRepo{}, &fakeAI{})
	err := svc.UpdateInfo(context.Background(), "CARD-U1-C0001", "", "нанести")
	assert.ErrorIs(t, err, ErrInfoFieldsRequired)
}

func TestUpdateInfoUnknownCard(t *testing.T) {
	svc := newTestCardService(&fakeCardRepo{}, newFakeDriveRepo(), &fakeJournalRepo{}, &fakeAI{})
	err := svc.UpdateInfo(context.Background(), "CARD-U1-C0404", "увлажнение", "нанести")
	assert.ErrorIs(t, err, ErrCardNotFound)
}

func TestProcessLabelSuggestionsOverwriteUserValues(t *testing.T) {
	cards := &fakeCardRepo{}
	drive := newFakeDriveRepo()
	ai := &fakeAI{enabled: true, labelAnalysis: &models.LabelAnalysis{
		LabelInfo:            "SPF 30, 50 мл",
		SuggestedPurpose:     "защита от солнца",
		SuggestedApplication: "наносить за 15 минут до выхода",
	}}
	svc := newTestCardService(cards, drive, &fakeJournalRepo{}, ai)

	created, err := svc.CreateCard(context.Background(), "U1", "Крем", "увлажнение", "наносить утром")
	require.NoError(t, err)

	result, err := svc.ProcessLabel(context.Background(), created.CardID, created.CardFolderID, "Крем",
		[]FilePayload{{Filename: "label.jpg", MimeType: "image/jpeg", Data: []byte{1}}})
	require.NoError(t, err)

	assert.True(t, result.AIAvailable)
	assert.Equal(t, "защита от солнца", result.AISuggestions.Purpose)

	// The stored values the user typed at creation are gone.
	row, err := cards.GetRowByCardID(context.Background(), created.CardID)
	require.NoError(t, err)
	assert.Equal(t, "защита от солнца", row.Purpose)
	assert.Equal(t, "наносить за 15 минут до выхода", row.Application)
	assert.Equal(t, "SPF 30, 50 мл", row.LabelInfo)
}

func TestProcessLabelPartialSuggestionKeepsOtherField(t *testing.T) {
	cards := &fakeCardRepo{}
	ai := &fakeAI{enabled: true, labelAnalysis: &models.LabelAnalysis{
		LabelInfo:        "этикетка",
		SuggestedPurpose: "защита от солнца",
	}}
	svc := newTestCardService(cards, newFakeDriveRepo(), &fakeJournalRepo{}, ai)

	created, err := svc.CreateCard(context.Background(), "U1", "Крем", "увлажнение", "наносить утром")
	require.NoError(t, err)

	_, err = svc.ProcessLabel(context.Background(), created.CardID, created.CardFolderID, "Крем",
		[]FilePayload{{Filename: "label.jpg", MimeType: "image/jpeg", Data: []byte{1}}})
	require.NoError(t, err)

	row, _ := cards.GetRowByCardID(context.Background(), created.CardID)
	assert.Equal(t, "защита от солнца", row.Purpose)
	assert.Equal(t, "наносить утром", row.Application)
}

func TestProcessLabelAIUnavailable(t *testing.T) {
	cards := &fakeCardRepo{}
	ai := &fakeAI{labelErr: ErrAIUnavailable}
	svc := newTestCardService(cards, newFakeDriveRepo(), &fakeJournalRepo{}, ai)

	created, err := svc.CreateCard(context.Background(), "U1", "Крем", "увлажнение", "нанести")
	require.NoError(t, err)

	result, err := svc.ProcessLabel(context.Background(), created.CardID, created.CardFolderID, "Крем",
		[]FilePayload{{Filename: "label.jpg", MimeType: "image/jpeg", Data: []byte{1}}})
	require.NoError(t, err)

	assert.False(t, result.AIAvailable)
	assert.NotEmpty(t, result.LabelLink, "upload persists even without AI")
	assert.Empty(t, result.LabelInfo)

	// The user-typed values survive: no suggestions, no overwrite.
	row, _ := cards.GetRowByCardID(context.Background(), created.CardID)
	assert.Equal(t, "увлажнение", row.Purpose)
	assert.Empty(t, cards.purposeWrites)
}

func TestProcessLabelFileNames(t *testing.T) {
	drive := newFakeDriveRepo()
	svc := newTestCardService(&fakeCardRepo{}, drive, &fakeJournalRepo{}, &fakeAI{labelErr: ErrAIUnavailable})

	created, err := svc.CreateCard(context.Background(), "U1", "Крем", "увлажнение", "нанести")
	require.NoError(t, err)

	result, err := svc.ProcessLabel(context.Background(), created.CardID, created.CardFolderID, "Крем",
		[]FilePayload{
			{Filename: "a.JPG", MimeType: "image/jpeg", Data: []byte{1}},
			{Filename: "b.png", MimeType: "image/png", Data: []byte{2}},
		})
	require.NoError(t, err)

	require.Len(t, result.LabelFiles, 2)
	assert.Equal(t, "Этикетка Крем (1).jpg", result.LabelFiles[0].Name)
	assert.Equal(t, "Этикетка Крем (2).png", result.LabelFiles[1].Name)
	assert.Equal(t, result.LabelFiles[0].URL, result.LabelLink)
}

func TestProcessLabelFileLimits(t *testing.T) {
	svc := newTestCardService(&fakeCardRepo{}, newFakeDriveRepo(), &fakeJournalRepo{}, &fakeAI{})

	_, err := svc.ProcessLabel(context.Background(), "CARD-U1-C0001", "f", "Крем", nil)
	assert.ErrorIs(t, err, ErrNoFilesUploaded)

	files := make([]FilePayload, MaxFilesPerUpload+1)
	for i := range files {
		files[i] = FilePayload{Filename: "a.jpg", MimeType: "image/jpeg", Data: []byte{1}}
	}
	_, err = svc.ProcessLabel(context.Background(), "CARD-U1-C0001", "f", "Крем", files)
	assert.ErrorIs(t, err, ErrTooManyFiles)
}

func TestProcessInciRequiresLabelStage(t *testing.T) {
	svc := newTestCardService(&fakeCardRepo{}, newFakeDriveRepo(), &fakeJournalRepo{}, &fakeAI{})

	created, err := svc.CreateCard(context.Background(), "U1", "Крем", "увлажнение", "нанести")
	require.NoError(t, err)

	_, err = svc.ProcessInci(context.Background(), created.CardID, created.CardFolderID, "Крем", "увлажнение",
		FilePayload{Filename: "inci.pdf", MimeType: "application/pdf", Data: []byte{1}})
	assert.ErrorIs(t, err, cardstate.ErrStaleStage)
}

func TestProcessInciWritesAIData(t *testing.T) {
	cards := &fakeCardRepo{}
	ai := &fakeAI{enabled: true,
		labelAnalysis: &models.LabelAnalysis{LabelInfo: "этикетка"},
		productAnalysis: &models.ProductAnalysis{
			ActiveIngredients:    []string{"глицерин"},
			ActiveIngredientsEn:  []string{"glycerin"},
			FullComposition:      "вода, глицерин",
			FullCompositionEn:    "Aqua, Glycerin",
			BookletComposition:   "буклет",
			BookletCompositionEn: "booklet",
		}}
	svc := newTestCardService(cards, newFakeDriveRepo(), &fakeJournalRepo{}, ai)

	created, err := svc.CreateCard(context.Background(), "U1", "Крем", "увлажнение", "нанести")
	require.NoError(t, err)
	_, err = svc.ProcessLabel(context.Background(), created.CardID, created.CardFolderID, "Крем",
		[]FilePayload{{Filename: "label.jpg", MimeType: "image/jpeg", Data: []byte{1}}})
	require.NoError(t, err)

	result, err := svc.ProcessInci(context.Background(), created.CardID, created.CardFolderID, "Крем", "увлажнение",
		FilePayload{Filename: "doc.png", MimeType: "image/png", Data: []byte{2}})
	require.NoError(t, err)

	assert.True(t, result.AIAvailable)
	assert.Equal(t, "INCI Крем.png", result.InciFileName)
	assert.Equal(t, "глицерин", result.AIResults.ActiveIngredients.RU)
	require.Len(t, cards.aiDataWrites, 1)
}

func TestProcessInciAIUnavailableLeavesAIColumnsAlone(t *testing.T) {
	cards := &fakeCardRepo{}
	ai := &fakeAI{labelErr: ErrAIUnavailable, productErr: ErrAIUnavailable}
	svc := newTestCardService(cards, newFakeDriveRepo(), &fakeJournalRepo{}, ai)

	created, err := svc.CreateCard(context.Background(), "U1", "Крем", "увлажнение", "нанести")
	require.NoError(t, err)
	_, err = svc.ProcessLabel(context.Background(), created.CardID, created.CardFolderID, "Крем",
		[]FilePayload{{Filename: "label.jpg", MimeType: "image/jpeg", Data: []byte{1}}})
	require.NoError(t, err)

	result, err := svc.ProcessInci(context.Background(), created.CardID, created.CardFolderID, "Крем", "увлажнение",
		FilePayload{Filename: "doc.png", MimeType: "image/png", Data: []byte{2}})
	require.NoError(t, err)

	assert.False(t, result.AIAvailable)
	assert.NotEmpty(t, result.InciLink)
	assert.Empty(t, cards.aiDataWrites)
	require.Len(t, cards.inciWrites, 1, "link column is still written")
}

func TestUploadPhotosRequiresInciStage(t *testing.T) {
	svc := newTestCardService(&fakeCardRepo{}, newFakeDriveRepo(), &fakeJournalRepo{}, &fakeAI{})

	created, err := svc.CreateCard(context.Background(), "U1", "Крем", "увлажнение", "нанести")
	require.NoError(t, err)

	_, err = svc.UploadPhotos(context.Background(), created.CardID, created.PhotosFolderID,
		[]FilePayload{{Filename: "p.jpg", MimeType: "image/jpeg", Data: []byte{1}}})
	assert.ErrorIs(t, err, cardstate.ErrStaleStage)
}

func TestFullWorkflow(t *testing.T) {
	ai := &fakeAI{enabled: true,
		labelAnalysis:   &models.LabelAnalysis{LabelInfo: "этикетка"},
		productAnalysis: &models.ProductAnalysis{FullComposition: "вода"}}
	svc := newTestCardService(&fakeCardRepo{}, newFakeDriveRepo(), &fakeJournalRepo{}, ai)
	ctx := context.Background()

	created, err := svc.CreateCard(ctx, "U1", "Крем", "увлажнение", "нанести")
	require.NoError(t, err)

	_, err = svc.ProcessLabel(ctx, created.CardID, created.CardFolderID, "Крем",
		[]FilePayload{{Filename: "l.jpg", MimeType: "image/jpeg", Data: []byte{1}}})
	require.NoError(t, err)

	require.NoError(t, svc.UpdateInfo(ctx, created.CardID, "защита", "утром"))

	_, err = svc.ProcessInci(ctx, created.CardID, created.CardFolderID, "Крем", "защита",
		FilePayload{Filename: "i.png", MimeType: "image/png", Data: []byte{2}})
	require.NoError(t, err)

	photos, err := svc.UploadPhotos(ctx, created.CardID, created.PhotosFolderID,
		[]FilePayload{{Filename: "p1.jpg", MimeType: "image/jpeg", Data: []byte{3}}})
	require.NoError(t, err)
	assert.Len(t, photos, 1)

	state, _ := svc.registry.Get(created.CardID)
	assert.Equal(t, models.StagePhotosUploaded, state.Stage)
}

func TestUpdateName(t *testing.T) {
	cards := &fakeCardRepo{}
	drive := newFakeDriveRepo()
	svc := newTestCardService(cards, drive, &fakeJournalRepo{}, &fakeAI{})

	created, err := svc.CreateCard(context.Background(), "U1", "Крем", "увлажнение", "нанести")
	require.NoError(t, err)

	folderName, err := svc.UpdateName(context.Background(), created.CardID, "Крем ночной", created.CardFolderID)
	require.NoError(t, err)

	assert.Equal(t, created.CardID+" Крем ночной", folderName)
	assert.Equal(t, folderName, drive.folders[created.CardFolderID])
	assert.Equal(t, []string{"Крем ночной"}, cards.nameWrites)

	state, _ := svc.registry.Get(created.CardID)
	assert.Equal(t, "Крем ночной", state.ProductName)
}

func TestUpdateNameSheetFirst(t *testing.T) {
	cards := &fakeCardRepo{}
	drive := newFakeDriveRepo()
	drive.renameErr = errors.New("drive down")
	svc := newTestCardService(cards, drive, &fakeJournalRepo{}, &fakeAI{})

	created, err := svc.CreateCard(context.Background(), "U1", "Крем", "увлажнение", "нанести")
	require.NoError(t, err)

	_, err = svc.UpdateName(context.Background(), created.CardID, "Крем ночной", created.CardFolderID)
	require.Error(t, err)
	// The sheet write landed before Drive failed; the two systems diverge
	// until the next successful rename.
	assert.Equal(t, []string{"Крем ночной"}, cards.nameWrites)
}

func TestStageRestoredFromSheetAfterRestart(t *testing.T) {
	cards := &fakeCardRepo{cards: []*models.Card{{
		RowNumber:   2,
		CardID:      "CARD-U1-C0001",
		UserID:      "U1",
		ProductName: "Крем",
		Purpose:     "увлажнение",
		Application: "нанести",
		LabelLink:   "https://drive.google.com/file/d/x/view",
	}}}
	ai := &fakeAI{enabled: true, productAnalysis: &models.ProductAnalysis{FullComposition: "вода"}}
	// Fresh registry: the process restarted and lost all in-memory state.
	svc := newTestCardService(cards, newFakeDriveRepo(), &fakeJournalRepo{}, ai)

	_, err := svc.ProcessInci(context.Background(), "CARD-U1-C0001", "folder", "Крем", "увлажнение",
		FilePayload{Filename: "i.png", MimeType: "image/png", Data: []byte{1}})
	require.NoError(t, err, "label link in the row proves the label stage completed")

	state, ok := svc.registry.Get("CARD-U1-C0001")
	require.True(t, ok)
	assert.Equal(t, models.StageInciProcessed, state.Stage)
}

func TestInferStage(t *testing.T) {
	assert.Equal(t, models.StageInfoFilled, inferStage(&models.Card{}))
	assert.Equal(t, models.StageLabelProcessed, inferStage(&models.Card{LabelLink: "x"}))
	assert.Equal(t, models.StageInciProcessed, inferStage(&models.Card{InciDocLink: "x"}))
	assert.Equal(t, models.StageInciProcessed, inferStage(&models.Card{FullCompositionRU: "вода"}))
}
