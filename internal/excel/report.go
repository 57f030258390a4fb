package excel

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"grimaldi/internal/composition"
	"grimaldi/internal/repository"
)

// Названия листов отчёта
const (
	SheetSummary      = "Resumo"
	SheetMeasurements = "Medidas"
	SheetIndices      = "Índices"
	SheetHistory      = "Histórico"
)

// Entry — строка истории анализов
type Entry struct {
	At         time.Time
	Score      int
	FatPercent float64
	LeanMassKg float64
	Waist      float64
}

// HistoryFromRecords строит историю из строк базы (новые первыми),
// в отчёте старые идут сверху
func HistoryFromRecords(records []repository.Record) []Entry {
	entries := make([]Entry, 0, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		r := records[i]
		entries = append(entries, Entry{
			At:         r.CreatedAt,
			Score:      r.Score,
			FatPercent: r.FatPercent,
			LeanMassKg: r.LeanMassKg,
			Waist:      r.Waist,
		})
	}
	return entries
}

// Report — данные для отчёта клиента
type Report struct {
	Name       string
	CreatedAt  time.Time
	Result     *composition.Result
	VisionUsed bool
	History    []Entry
}

// WriteReport строит xlsx-отчёт и пишет его в w
func WriteReport(w io.Writer, rep Report) error {
	if rep.Result == nil {
		return errors.New("пустой результат анализа")
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return fmt.Errorf("ошибка переименования листа: %w", err)
	}
	for _, name := range []string{SheetMeasurements, SheetIndices} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("ошибка создания листа %s: %w", name, err)
		}
	}

	styles, err := createReportStyles(f)
	if err != nil {
		return err
	}

	if err := fillSummary(f, styles, rep); err != nil {
		return err
	}
	if err := fillMeasurements(f, styles, rep.Result.Measurements); err != nil {
		return err
	}
	if err := fillIndices(f, styles, rep.Result); err != nil {
		return err
	}
	if len(rep.History) > 0 {
		if err := fillHistory(f, styles, rep.History); err != nil {
			return err
		}
	}

	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("ошибка записи отчёта: %w", err)
	}
	return nil
}

// ReportFileName — имя файла отчёта без пробелов
func ReportFileName(name string, at time.Time) string {
	clean := strings.Map(func(r rune) rune {
		switch {
		case r == ' ':
			return '_'
		case strings.ContainsRune(`/\:*?"<>|`, r):
			return -1
		default:
			return r
		}
	}, strings.TrimSpace(name))
	if clean == "" {
		clean = "grimaldi"
	}
	return fmt.Sprintf("%s_%s.xlsx", clean, at.Format("2006-01-02"))
}

func fillSummary(f *excelize.File, styles *reportStyles, rep Report) error {
	sheet := SheetSummary
	r := rep.Result
	interp := composition.InterpretResults(r)

	if err := setColumns(f, sheet, map[string]float64{"A": 28, "B": 14, "C": 36}); err != nil {
		return err
	}

	vision := "medidas estimadas"
	if rep.VisionUsed {
		vision = "medidas por visão computacional"
	}

	head := []struct {
		cell  string
		value interface{}
		style int
	}{
		{"A1", "Relatório de composição corporal", styles.title},
		{"A2", rep.Name, styles.subText},
		{"A3", fmt.Sprintf("%s · %s", rep.CreatedAt.Format("02/01/2006 15:04"), vision), styles.subText},
		{"A5", r.Score, styles.bigNumber},
		{"A7", fmt.Sprintf("Pontuação · %s", interp.CompositeScore), styles.numberLabel},
	}
	for _, h := range head {
		if err := f.SetCellValue(sheet, h.cell, h.value); err != nil {
			return fmt.Errorf("ошибка записи %s: %w", h.cell, err)
		}
		if err := f.SetCellStyle(sheet, h.cell, h.cell, h.style); err != nil {
			return err
		}
	}
	if err := f.MergeCell(sheet, "A5", "B6"); err != nil {
		return err
	}
	if err := f.MergeCell(sheet, "A7", "B7"); err != nil {
		return err
	}

	c := r.Composition
	p := r.Profile
	rows := [][]interface{}{
		{"Parâmetro", "Valor", "Interpretação"},
		{"IMC", c.BMI, interp.BMI},
		{"Gordura corporal (%)", c.FatPercent, interp.FatPercent},
		{"Massa gorda (kg)", c.FatMassKg, ""},
		{"Massa magra (kg)", c.LeanMassKg, interp.LeanMass},
		{"Taxa metabólica basal (kcal)", c.BMR, ""},
		{"Água corporal (L)", c.BodyWaterL, ""},
		{"Água corporal (%)", c.BodyWaterPercent, ""},
		{"Altura (m)", p.HeightM, ""},
		{"Peso (kg)", p.WeightKg, ""},
		{"Idade", p.Age, ""},
		{"Sexo", string(p.Sex), ""},
	}
	return writeTable(f, styles, sheet, 9, rows)
}

func fillMeasurements(f *excelize.File, styles *reportStyles, m composition.Measurements) error {
	sheet := SheetMeasurements
	if err := setColumns(f, sheet, map[string]float64{"A": 20, "B": 12}); err != nil {
		return err
	}

	rows := [][]interface{}{{"Medida", "cm"}}
	for _, k := range composition.Kinds {
		label := k.Label()
		rows = append(rows, []interface{}{strings.ToUpper(label[:1]) + label[1:], m.Get(k)})
	}
	return writeTable(f, styles, sheet, 1, rows)
}

func fillIndices(f *excelize.File, styles *reportStyles, r *composition.Result) error {
	sheet := SheetIndices
	if err := setColumns(f, sheet, map[string]float64{"A": 28, "B": 12, "C": 16, "D": 40}); err != nil {
		return err
	}

	rows := [][]interface{}{{"Índice", "Valor", "Categoria", "Descrição"}}
	for _, name := range composition.IndexNames {
		ix := r.Indices.Get(name)
		rows = append(rows, []interface{}{name.Label(), ix.Value, string(ix.Band), ix.Description})
	}
	if err := writeTable(f, styles, sheet, 1, rows); err != nil {
		return err
	}

	for i, name := range composition.IndexNames {
		addr := cell("C", i+2)
		if err := f.SetCellStyle(sheet, addr, addr, styles.bandStyle(r.Indices.Get(name).Band)); err != nil {
			return err
		}
	}

	bd := r.Breakdown
	start := len(rows) + 3
	breakdown := [][]interface{}{
		{"Pontuação", "Valor"},
		{"Pontos", bd.Points},
		{"Índices bons", bd.GoodCount},
		{"Índices ruins", bd.BadCount},
		{"Penalidade", bd.Penalty},
		{"Bônus", bd.Bonus},
		{"Bruto", bd.Raw},
		{"Final", bd.Score},
	}
	return writeTable(f, styles, sheet, start, breakdown)
}

func fillHistory(f *excelize.File, styles *reportStyles, history []Entry) error {
	sheet := SheetHistory
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("ошибка создания листа %s: %w", sheet, err)
	}
	if err := setColumns(f, sheet, map[string]float64{"A": 18, "B": 12, "C": 14, "D": 18, "E": 12}); err != nil {
		return err
	}

	rows := [][]interface{}{{"Data", "Pontuação", "Gordura (%)", "Massa magra (kg)", "Cintura (cm)"}}
	for _, e := range history {
		rows = append(rows, []interface{}{e.At.Format("02/01/2006"), e.Score, e.FatPercent, e.LeanMassKg, e.Waist})
	}
	return writeTable(f, styles, sheet, 1, rows)
}

// writeTable пишет таблицу с первой строкой-заголовком начиная с колонки A
func writeTable(f *excelize.File, styles *reportStyles, sheet string, startRow int, rows [][]interface{}) error {
	for i, row := range rows {
		addr := cell("A", startRow+i)
		if err := f.SetSheetRow(sheet, addr, &row); err != nil {
			return fmt.Errorf("ошибка записи строки %s: %w", addr, err)
		}

		last, err := excelize.ColumnNumberToName(len(row))
		if err != nil {
			return err
		}
		end := cell(last, startRow+i)

		style := styles.tableCell
		if i == 0 {
			style = styles.tableHeader
		}
		if err := f.SetCellStyle(sheet, addr, end, style); err != nil {
			return err
		}
		if i == 0 || len(row) < 2 {
			continue
		}
		if _, ok := row[1].(float64); ok {
			b := cell("B", startRow+i)
			if err := f.SetCellStyle(sheet, b, b, styles.number); err != nil {
				return err
			}
		}
	}
	return nil
}
