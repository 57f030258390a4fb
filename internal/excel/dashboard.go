package excel

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"
)

// SheetDashboard — лист сводки для сотрудников
const SheetDashboard = "Clientes"

// DashboardRow — последний анализ одного клиента
type DashboardRow struct {
	UserID     int64
	Name       string
	At         time.Time
	Score      int
	FatPercent float64
	BMI        float64
	Waist      float64
	VisionUsed bool
}

// WriteDashboard строит сводку по клиентам
func WriteDashboard(w io.Writer, rows []DashboardRow) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetDashboard); err != nil {
		return fmt.Errorf("ошибка переименования листа: %w", err)
	}

	styles, err := createReportStyles(f)
	if err != nil {
		return err
	}

	if err := setColumns(f, SheetDashboard, map[string]float64{
		"A": 8, "B": 28, "C": 18, "D": 12, "E": 12, "F": 10, "G": 12, "H": 8,
	}); err != nil {
		return err
	}

	table := [][]interface{}{{"ID", "Nome", "Última análise", "Pontuação", "Gordura (%)", "IMC", "Cintura", "Visão"}}
	for _, r := range rows {
		vision := "não"
		if r.VisionUsed {
			vision = "sim"
		}
		table = append(table, []interface{}{
			r.UserID, r.Name, r.At.Format("02/01/2006"), r.Score, r.FatPercent, r.BMI, r.Waist, vision,
		})
	}
	if err := writeTable(f, styles, SheetDashboard, 1, table); err != nil {
		return err
	}

	if err := f.SetPanes(SheetDashboard, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("ошибка закрепления заголовка: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("ошибка записи сводки: %w", err)
	}
	return nil
}
