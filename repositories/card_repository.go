// repositories/card_repository.go
package repositories

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"inci.cards/configs"
	"inci.cards/configs/configsgoogle"
	"inci.cards/configs/configslog"
	"inci.cards/models"

	"go.uber.org/zap"
	"google.golang.org/api/sheets/v4"
)

// CardSheetName is the tab holding the card table.
const CardSheetName = "Карточки"

// The card table layout (21 columns, A..U). This is the authoritative layout;
// earlier 18- and 19-column revisions are no longer written anywhere.
//
//	A: ID (empty, reserved)   | B: ID-Карточки | C: ID-Чат (UserID) | D: Наименование |
//	E: Этикетка ссылка | F: Этикетки инфа | G: Назначение | H: Применение |
//	I: ИНСИ | J: ИНСИ док | K: Активные ингредиенты без % | L: ... Англ |
//	M: состав БУКЛЕТ | N: состав БУКЛЕТ англ | O: Полный состав | P: Полный состав англ |
//	Q: Код ТН ВЭД | R: Аргумент кода | S: Код категории | T: Категория | U: Аргумент категории
//
// Every range write below addresses these positions; the column map is shared
// with the reading side so range updates and full-row fetches stay consistent.
const (
	ColCardID           = 1 // B
	ColUserID           = 2 // C
	ColProductName      = 3 // D
	ColLabelLink        = 4 // E
	ColLabelInfo        = 5 // F
	ColPurpose          = 6 // G
	ColApplication      = 7 // H
	ColInciText         = 8 // I
	ColInciDocLink      = 9 // J
	ColActiveRU         = 10
	ColActiveEN         = 11
	ColBookletRU        = 12
	ColBookletEN        = 13
	ColFullRU           = 14
	ColFullEN           = 15
	ColTnvedCode        = 16
	ColTnvedArgument    = 17
	ColCategoryCode     = 18
	ColCategory         = 19
	ColCategoryArgument = 20
)

// ICardRepository is the card table on Google Sheets.
type ICardRepository interface {
	AppendCard(ctx context.Context, card *models.Card) (int, error)
	GetRowByCardID(ctx context.Context, cardID string) (*models.Card, error)
	GetAllCards(ctx context.Context) ([]*models.Card, error)
	CountCardsByUserID(ctx context.Context, userID string) (int, error)

	UpdateLabelInfo(ctx context.Context, rowNumber int, labelLink, labelInfo string) error
	UpdatePurposeAndApplication(ctx context.Context, rowNumber int, purpose, application string) error
	UpdateInci(ctx context.Context, rowNumber int, inciText, inciDocLink string) error
	UpdateAIData(ctx context.Context, rowNumber int, analysis *models.ProductAnalysis) error
	UpdateProductName(ctx context.Context, rowNumber int, newName string) error
}

// CardRepository implements ICardRepository over the Sheets values API.
type CardRepository struct {
	svc           *sheets.Service
	spreadsheetID string
}

// NewCardRepository builds a CardRepository on the shared Sheets client.
func NewCardRepository() ICardRepository {
	return &CardRepository{
		svc:           configsgoogle.GetSheets(),
		spreadsheetID: configs.Get().GoogleSheetID,
	}
}

var trailingDigits = regexp.MustCompile(`\d+$`)

// AppendCard appends the card as a new row and returns its 1-based row number,
// parsed from the updated range the API reports.
func (r *CardRepository) AppendCard(ctx context.Context, card *models.Card) (int, error) {
	vr := &sheets.ValueRange{Values: [][]interface{}{CardToRow(card)}}

	resp, err := r.svc.Spreadsheets.Values.
		Append(r.spreadsheetID, CardSheetName+"!A:U", vr).
		ValueInputOption("USER_ENTERED").
		Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("appending card row: %w", err)
	}

	match := trailingDigits.FindString(resp.Updates.UpdatedRange)
	rowNumber, err := strconv.Atoi(match)
	if err != nil {
		return 0, fmt.Errorf("parsing appended row number from %q: %w", resp.Updates.UpdatedRange, err)
	}

	configslog.Log.Info("card row appended",
		zap.String("cardID", card.CardID), zap.Int("row", rowNumber))
	return rowNumber, nil
}

// GetRowByCardID scans column B for the card id and returns the parsed row.
// An unknown id yields ErrNotFound, never a transport error.
func (r *CardRepository) GetRowByCardID(ctx context.Context, cardID string) (*models.Card, error) {
	rows, err := r.values(ctx)
	if err != nil {
		return nil, err
	}
	for i, row := range rows {
		if cell(row, ColCardID) == cardID {
			return RowToCard(i+1, row), nil
		}
	}
	return nil, ErrNotFound
}

// GetAllCards returns every data row of the table, header excluded.
func (r *CardRepository) GetAllCards(ctx context.Context) ([]*models.Card, error) {
	rows, err := r.values(ctx)
	if err != nil {
		return nil, err
	}
	cards := make([]*models.Card, 0, len(rows))
	for i, row := range rows {
		if i == 0 {
			continue // header
		}
		cards = append(cards, RowToCard(i+1, row))
	}
	return cards, nil
}

// CountCardsByUserID counts rows whose user column matches. Used once per
// user to seed the card sequence counter.
func (r *CardRepository) CountCardsByUserID(ctx context.Context, userID string) (int, error) {
	rows, err := r.values(ctx)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, row := range rows {
		if cell(row, ColUserID) == userID {
			count++
		}
	}
	return count, nil
}

// UpdateLabelInfo writes columns E:F (label link, AI label summary).
func (r *CardRepository) UpdateLabelInfo(ctx context.Context, rowNumber int, labelLink, labelInfo string) error {
	return r.updateRange(ctx,
		fmt.Sprintf("%s!E%d:F%d", CardSheetName, rowNumber, rowNumber),
		[]interface{}{labelLink, labelInfo})
}

// UpdatePurposeAndApplication writes columns G:H.
func (r *CardRepository) UpdatePurposeAndApplication(ctx context.Context, rowNumber int, purpose, application string) error {
	return r.updateRange(ctx,
		fmt.Sprintf("%s!G%d:H%d", CardSheetName, rowNumber, rowNumber),
		[]interface{}{purpose, application})
}

// UpdateInci writes columns I:J (extracted INCI text, document link).
func (r *CardRepository) UpdateInci(ctx context.Context, rowNumber int, inciText, inciDocLink string) error {
	return r.updateRange(ctx,
		fmt.Sprintf("%s!I%d:J%d", CardSheetName, rowNumber, rowNumber),
		[]interface{}{inciText, inciDocLink})
}

// UpdateAIData writes the six derived composition fields, columns K:P.
func (r *CardRepository) UpdateAIData(ctx context.Context, rowNumber int, analysis *models.ProductAnalysis) error {
	return r.updateRange(ctx,
		fmt.Sprintf("%s!K%d:P%d", CardSheetName, rowNumber, rowNumber),
		[]interface{}{
			strings.Join(analysis.ActiveIngredients, ", "),
			strings.Join(analysis.ActiveIngredientsEn, ", "),
			analysis.BookletComposition,
			analysis.BookletCompositionEn,
			analysis.FullComposition,
			analysis.FullCompositionEn,
		})
}

// UpdateProductName writes column D.
func (r *CardRepository) UpdateProductName(ctx context.Context, rowNumber int, newName string) error {
	return r.updateRange(ctx,
		fmt.Sprintf("%s!D%d", CardSheetName, rowNumber),
		[]interface{}{newName})
}

func (r *CardRepository) values(ctx context.Context) ([][]interface{}, error) {
	resp, err := r.svc.Spreadsheets.Values.
		Get(r.spreadsheetID, CardSheetName+"!A:U").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("reading card table: %w", err)
	}
	return resp.Values, nil
}

func (r *CardRepository) updateRange(ctx context.Context, rng string, rowValues []interface{}) error {
	vr := &sheets.ValueRange{Values: [][]interface{}{rowValues}}
	_, err := r.svc.Spreadsheets.Values.
		Update(r.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("updating %s: %w", rng, err)
	}
	return nil
}

// CardToRow lays a card out in the A..U order. The first cell stays empty
// (reserved ID column).
func CardToRow(card *models.Card) []interface{} {
	return []interface{}{
		"",
		card.CardID,
		card.UserID,
		card.ProductName,
		card.LabelLink,
		card.LabelInfo,
		card.Purpose,
		card.Application,
		card.InciText,
		card.InciDocLink,
		card.ActiveIngredientsRU,
		card.ActiveIngredientsEN,
		card.BookletRU,
		card.BookletEN,
		card.FullCompositionRU,
		card.FullCompositionEN,
		card.TnvedCode,
		card.TnvedArgument,
		card.CategoryCode,
		card.Category,
		card.CategoryArgument,
	}
}

// RowToCard parses a sheet row back into a Card at the same column offsets
// CardToRow writes.
func RowToCard(rowNumber int, row []interface{}) *models.Card {
	return &models.Card{
		RowNumber:           rowNumber,
		CardID:              cell(row, ColCardID),
		UserID:              cell(row, ColUserID),
		ProductName:         cell(row, ColProductName),
		LabelLink:           cell(row, ColLabelLink),
		LabelInfo:           cell(row, ColLabelInfo),
		Purpose:             cell(row, ColPurpose),
		Application:         cell(row, ColApplication),
		InciText:            cell(row, ColInciText),
		InciDocLink:         cell(row, ColInciDocLink),
		ActiveIngredientsRU: cell(row, ColActiveRU),
		ActiveIngredientsEN: cell(row, ColActiveEN),
		BookletRU:           cell(row, ColBookletRU),
		BookletEN:           cell(row, ColBookletEN),
		FullCompositionRU:   cell(row, ColFullRU),
		FullCompositionEN:   cell(row, ColFullEN),
		TnvedCode:           cell(row, ColTnvedCode),
		TnvedArgument:       cell(row, ColTnvedArgument),
		CategoryCode:        cell(row, ColCategoryCode),
		Category:            cell(row, ColCategory),
		CategoryArgument:    cell(row, ColCategoryArgument),
	}
}

// cell reads a column as string; short rows read as empty cells, matching how
// the Sheets API trims trailing blanks.
func cell(row []interface{}, index int) string {
	if index >= len(row) {
		return ""
	}
	s, _ := row[index].(string)
	return s
}

var _ ICardRepository = (*CardRepository)(nil)
