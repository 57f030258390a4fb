package gsheets

import (
	"context"
	"fmt"
	"os"
	"time"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"grimaldi/internal/composition"
	"grimaldi/internal/log"
)

const (
	sheetAnalyses = "Análises"
	sheetProfile  = "Perfil"

	// sheetId 0 опускается при сериализации, поэтому ID ненулевые
	sheetAnalysesID int64 = 101
	sheetProfileID  int64 = 102
)

// analysisHeaders — колонки листа анализов, по порядку AnalysisRow
var analysisHeaders = []interface{}{
	"Data", "Pontuação", "IMC", "Gordura (%)", "Gordura (kg)", "Massa magra (kg)",
	"TMB (kcal)", "Água (L)",
	"Braços", "Antebraços", "Cintura", "Quadril", "Coxas", "Panturrilhas",
	"Cintura/quadril", "Cintura/estatura", "Conicidade", "Visão",
}

// Client клиент для работы с Google Sheets
type Client struct {
	sheets   *sheets.Service
	drive    *drive.Service
	folderID string
}

// NewClient создаёт клиент по ключу сервисного аккаунта
func NewClient(ctx context.Context, credentialsPath, folderID string) (*Client, error) {
	data, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("не удалось прочитать credentials: %w", err)
	}

	config, err := google.JWTConfigFromJSON(data,
		sheets.SpreadsheetsScope,
		drive.DriveScope,
	)
	if err != nil {
		return nil, fmt.Errorf("ошибка конфигурации: %w", err)
	}

	return NewClientWithOptions(ctx, folderID, option.WithHTTPClient(config.Client(ctx)))
}

// NewClientWithOptions создаёт клиент с произвольными опциями (эндпоинт, HTTP-клиент)
func NewClientWithOptions(ctx context.Context, folderID string, opts ...option.ClientOption) (*Client, error) {
	sheetsSrv, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания Sheets сервиса: %w", err)
	}

	driveSrv, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания Drive сервиса: %w", err)
	}

	return &Client{
		sheets:   sheetsSrv,
		drive:    driveSrv,
		folderID: folderID,
	}, nil
}

// CreateClientSpreadsheet создаёт таблицу клиента с листами анализов и профиля
func (c *Client) CreateClientSpreadsheet(ctx context.Context, userID int64, name string, p composition.Profile) (string, error) {
	title := fmt.Sprintf("Grimaldi — %s", name)
	if name == "" {
		title = fmt.Sprintf("Grimaldi — #%d", userID)
	}

	spreadsheet := &sheets.Spreadsheet{
		Properties: &sheets.SpreadsheetProperties{
			Title:  title,
			Locale: "pt_BR",
		},
		Sheets: []*sheets.Sheet{
			{
				Properties: &sheets.SheetProperties{
					SheetId: sheetAnalysesID,
					Title:   sheetAnalyses,
					Index:   0,
				},
			},
			{
				Properties: &sheets.SheetProperties{
					SheetId: sheetProfileID,
					Title:   sheetProfile,
					Index:   1,
				},
			},
		},
	}

	created, err := c.sheets.Spreadsheets.Create(spreadsheet).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("ошибка создания таблицы: %w", err)
	}
	spreadsheetID := created.SpreadsheetId

	if c.folderID != "" {
		_, err = c.drive.Files.Update(spreadsheetID, nil).
			AddParents(c.folderID).
			Context(ctx).
			Do()
		if err != nil {
			log.Warn("не удалось переместить таблицу в папку", "spreadsheet", spreadsheetID, "error", err)
		}
	}

	if err := c.writeRows(ctx, spreadsheetID, sheetAnalyses, 1, [][]interface{}{analysisHeaders}); err != nil {
		return spreadsheetID, fmt.Errorf("ошибка записи заголовков: %w", err)
	}

	profileRows := [][]interface{}{
		{"Campo", "Valor"},
		{"Nome", name},
		{"ID", userID},
		{"Cadastro", time.Now().Format("02/01/2006")},
		{"Altura (m)", p.HeightM},
		{"Peso (kg)", p.WeightKg},
		{"Idade", p.Age},
		{"Sexo", string(p.Sex)},
	}
	if err := c.writeRows(ctx, spreadsheetID, sheetProfile, 1, profileRows); err != nil {
		log.Warn("ошибка записи профиля", "spreadsheet", spreadsheetID, "error", err)
	}

	c.formatHeaders(ctx, spreadsheetID, sheetAnalysesID, int64(len(analysisHeaders)))
	c.formatHeaders(ctx, spreadsheetID, sheetProfileID, 2)

	log.Info("создана Google таблица", "user_id", userID, "spreadsheet", spreadsheetID)
	return spreadsheetID, nil
}

// AnalysisRow раскладывает результат в строку листа анализов
func AnalysisRow(r *composition.Result, at time.Time, visionUsed bool) []interface{} {
	vision := "não"
	if visionUsed {
		vision = "sim"
	}
	return []interface{}{
		at.Format("02/01/2006 15:04"),
		r.Score,
		r.Composition.BMI,
		r.Composition.FatPercent,
		r.Composition.FatMassKg,
		r.Composition.LeanMassKg,
		r.Composition.BMR,
		r.Composition.BodyWaterL,
		r.Measurements.Arms,
		r.Measurements.Forearms,
		r.Measurements.Waist,
		r.Measurements.Hip,
		r.Measurements.Thighs,
		r.Measurements.Calves,
		r.Indices.WaistHip.Value,
		r.Indices.WaistHeight.Value,
		r.Indices.Conicity.Value,
		vision,
	}
}

// AppendAnalysis добавляет анализ в конец листа
func (c *Client) AppendAnalysis(ctx context.Context, spreadsheetID string, r *composition.Result, at time.Time, visionUsed bool) error {
	valueRange := &sheets.ValueRange{
		Values: [][]interface{}{AnalysisRow(r, at, visionUsed)},
	}

	_, err := c.sheets.Spreadsheets.Values.Append(spreadsheetID, sheetAnalyses+"!A1", valueRange).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("ошибка записи анализа: %w", err)
	}
	return nil
}

// writeRows записывает несколько строк
func (c *Client) writeRows(ctx context.Context, spreadsheetID, sheetName string, startRow int, values [][]interface{}) error {
	writeRange := fmt.Sprintf("%s!A%d", sheetName, startRow)
	valueRange := &sheets.ValueRange{
		Values: values,
	}
	_, err := c.sheets.Spreadsheets.Values.Update(spreadsheetID, writeRange, valueRange).
		ValueInputOption("USER_ENTERED").
		Context(ctx).
		Do()
	return err
}

// formatHeaders форматирует заголовки (жирный шрифт, цвет фона)
func (c *Client) formatHeaders(ctx context.Context, spreadsheetID string, sheetID, columns int64) {
	requests := []*sheets.Request{
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          sheetID,
					StartRowIndex:    0,
					EndRowIndex:      1,
					StartColumnIndex: 0,
					EndColumnIndex:   columns,
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						BackgroundColor: &sheets.Color{
							Red:   0.2,
							Green: 0.4,
							Blue:  0.8,
						},
						TextFormat: &sheets.TextFormat{
							Bold: true,
							ForegroundColor: &sheets.Color{
								Red:   1,
								Green: 1,
								Blue:  1,
							},
						},
					},
				},
				Fields: "userEnteredFormat(backgroundColor,textFormat)",
			},
		},
		{
			UpdateSheetProperties: &sheets.UpdateSheetPropertiesRequest{
				Properties: &sheets.SheetProperties{
					SheetId: sheetID,
					GridProperties: &sheets.GridProperties{
						FrozenRowCount: 1,
					},
				},
				Fields: "gridProperties.frozenRowCount",
			},
		},
	}

	batchUpdateRequest := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: requests,
	}

	_, err := c.sheets.Spreadsheets.BatchUpdate(spreadsheetID, batchUpdateRequest).Context(ctx).Do()
	if err != nil {
		log.Warn("ошибка форматирования", "spreadsheet", spreadsheetID, "error", err)
	}
}

// GetSpreadsheetURL возвращает URL таблицы
func GetSpreadsheetURL(spreadsheetID string) string {
	return fmt.Sprintf("https://docs.google.com/spreadsheets/d/%s", spreadsheetID)
}
