// repositories/journal_structure.go
//
// One-shot setup of the user journal: creates the missing sheets and writes
// headers, dictionaries and data-validation rules. Safe to re-run; existing
// content is left alone.
package repositories

import (
	"context"
	"fmt"

	"inci.cards/configs/configslog"

	"go.uber.org/zap"
	"google.golang.org/api/sheets/v4"
)

var usersHeaders = []interface{}{
	"UserID", "Дата регистрации", "Канал регистрации", "Канал (код)",
	"Имя (отображаемое)", "Email", "Telegram @username", "Telegram chat_id",
	"Google account (sub/id)", "Страна / город", "Язык интерфейса",
	"Тип пользователя", "Статус", "Источник (UTM)", "Последний логин",
	"Кол-во логинов", "Согласие на обработку данных", "Удаление запрошено", "Комментарий",
}

var authHeaders = []interface{}{
	"AuthID", "UserID", "Тип авторизации", "Идентификатор", "Дата создания", "Статус",
}

var activityHeaders = []interface{}{
	"EventID", "UserID", "Дата/время", "Тип события", "Канал", "Доп. данные",
}

var dictionaryRows = [][]interface{}{
	{"status_code", "status_name", "", "channel_code", "channel_name", "", "role_code", "role_name"},
	{"active", "Активен", "", "TG", "Telegram", "", "user", "Обычный пользователь"},
	{"blocked", "Заблокирован", "", "GL", "Google", "", "admin", "Администратор"},
	{"deleted", "Удален", "", "EM", "Email", "", "manager", "Менеджер"},
	{"test", "Тестовый", "", "", "", "", "", ""},
}

// EnsureStructure creates missing journal sheets and applies headers,
// dictionaries, the frozen header row and dropdown validation.
func (r *JournalRepository) EnsureStructure(ctx context.Context) error {
	spreadsheet, err := r.svc.Spreadsheets.Get(r.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("reading spreadsheet metadata: %w", err)
	}

	existing := make(map[string]int64)
	for _, s := range spreadsheet.Sheets {
		existing[s.Properties.Title] = s.Properties.SheetId
	}

	var addRequests []*sheets.Request
	for _, title := range []string{SheetUsers, SheetAuth, SheetDictionaries, SheetActivity} {
		if _, ok := existing[title]; !ok {
			addRequests = append(addRequests, &sheets.Request{
				AddSheet: &sheets.AddSheetRequest{
					Properties: &sheets.SheetProperties{Title: title},
				},
			})
		}
	}
	if len(addRequests) > 0 {
		resp, err := r.svc.Spreadsheets.BatchUpdate(r.spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
			Requests: addRequests,
		}).Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("creating journal sheets: %w", err)
		}
		for _, reply := range resp.Replies {
			if reply.AddSheet != nil {
				existing[reply.AddSheet.Properties.Title] = reply.AddSheet.Properties.SheetId
			}
		}
		configslog.Log.Info("journal sheets created", zap.Int("count", len(addRequests)))
	}

	if err := r.setupDictionaries(ctx); err != nil {
		return err
	}
	if err := r.writeHeaders(ctx, SheetUsers+"!A1:S1", usersHeaders); err != nil {
		return err
	}
	if err := r.setupUsersValidation(ctx, existing[SheetUsers]); err != nil {
		return err
	}
	if err := r.writeHeaders(ctx, SheetAuth+"!A1:F1", authHeaders); err != nil {
		return err
	}
	return r.writeHeaders(ctx, SheetActivity+"!A1:F1", activityHeaders)
}

// setupDictionaries fills the Dictionaries sheet once; a populated A1 means
// the sheet was already set up.
func (r *JournalRepository) setupDictionaries(ctx context.Context) error {
	check, err := r.svc.Spreadsheets.Values.
		Get(r.spreadsheetID, SheetDictionaries+"!A1").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("checking dictionaries sheet: %w", err)
	}
	if len(check.Values) > 0 {
		return nil
	}

	vr := &sheets.ValueRange{Values: dictionaryRows}
	_, err = r.svc.Spreadsheets.Values.
		Update(r.spreadsheetID, SheetDictionaries+"!A1", vr).
		ValueInputOption("USER_ENTERED").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("writing dictionaries: %w", err)
	}
	return nil
}

func (r *JournalRepository) writeHeaders(ctx context.Context, rng string, headers []interface{}) error {
	vr := &sheets.ValueRange{Values: [][]interface{}{headers}}
	_, err := r.svc.Spreadsheets.Values.
		Update(r.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("writing headers %s: %w", rng, err)
	}
	return nil
}

// setupUsersValidation freezes the header row and wires the dropdown columns
// (channel code, role, status) to their dictionary ranges.
func (r *JournalRepository) setupUsersValidation(ctx context.Context, sheetID int64) error {
	dropdown := func(startCol, endCol int64, sourceRange string) *sheets.Request {
		return &sheets.Request{
			SetDataValidation: &sheets.SetDataValidationRequest{
				Range: &sheets.GridRange{
					SheetId:          sheetID,
					StartRowIndex:    1,
					StartColumnIndex: startCol,
					EndColumnIndex:   endCol,
				},
				Rule: &sheets.DataValidationRule{
					Condition: &sheets.BooleanCondition{
						Type:   "ONE_OF_RANGE",
						Values: []*sheets.ConditionValue{{UserEnteredValue: sourceRange}},
					},
					ShowCustomUi: true,
					Strict:       true,
				},
			},
		}
	}

	requests := []*sheets.Request{
		{
			UpdateSheetProperties: &sheets.UpdateSheetPropertiesRequest{
				Properties: &sheets.SheetProperties{
					SheetId:        sheetID,
					GridProperties: &sheets.GridProperties{FrozenRowCount: 1},
				},
				Fields: "gridProperties.frozenRowCount",
			},
		},
		dropdown(3, 4, "="+SheetDictionaries+"!D2:D"),   // D: channel code
		dropdown(11, 12, "="+SheetDictionaries+"!G2:G"), // L: role
		dropdown(12, 13, "="+SheetDictionaries+"!A2:A"), // M: status
	}

	_, err := r.svc.Spreadsheets.BatchUpdate(r.spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: requests,
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("applying users sheet validation: %w", err)
	}
	return nil
}
