package excel

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"grimaldi/internal/composition"
)

type reportStyles struct {
	title       int
	subText     int
	bigNumber   int
	numberLabel int
	tableHeader int
	tableCell   int
	number      int
	bands       map[composition.Band]int
}

// bandColors — цвет шрифта и заливки для каждой категории риска
var bandColors = map[composition.Band][2]string{
	composition.BandLowRisk:    {"#006100", "#C6EFCE"},
	composition.BandAdequate:   {"#006100", "#C6EFCE"},
	composition.BandAttention:  {"#9C5700", "#FFEB9C"},
	composition.BandModerate:   {"#843C0C", "#F8CBAD"},
	composition.BandHighRisk:   {"#9C0006", "#FFC7CE"},
	composition.BandInadequate: {"#9C0006", "#FFC7CE"},
}

var cellBorder = []excelize.Border{
	{Type: "left", Color: "#9BC2E6", Style: 1},
	{Type: "right", Color: "#9BC2E6", Style: 1},
	{Type: "top", Color: "#9BC2E6", Style: 1},
	{Type: "bottom", Color: "#9BC2E6", Style: 1},
}

func createReportStyles(f *excelize.File) (*reportStyles, error) {
	styles := &reportStyles{bands: make(map[composition.Band]int, len(bandColors))}
	var err error

	styles.title, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 16, Color: "#1F4E79"},
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка создания стиля title: %w", err)
	}

	styles.subText, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Size: 10, Color: "#595959"},
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка создания стиля subText: %w", err)
	}

	styles.bigNumber, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 32, Color: "#2E75B6"},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка создания стиля bigNumber: %w", err)
	}

	styles.numberLabel, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Size: 9, Color: "#595959"},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "top"},
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка создания стиля numberLabel: %w", err)
	}

	styles.tableHeader, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#2E75B6"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border: []excelize.Border{
			{Type: "left", Color: "#1F4E79", Style: 2},
			{Type: "right", Color: "#1F4E79", Style: 2},
			{Type: "top", Color: "#1F4E79", Style: 2},
			{Type: "bottom", Color: "#1F4E79", Style: 2},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка создания стиля tableHeader: %w", err)
	}

	styles.tableCell, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Size: 10},
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center"},
		Border:    cellBorder,
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка создания стиля tableCell: %w", err)
	}

	decimals := "0.00"
	styles.number, err = f.NewStyle(&excelize.Style{
		Font:         &excelize.Font{Size: 10},
		Alignment:    &excelize.Alignment{Horizontal: "right", Vertical: "center"},
		Border:       cellBorder,
		CustomNumFmt: &decimals,
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка создания стиля number: %w", err)
	}

	for band, c := range bandColors {
		styles.bands[band], err = f.NewStyle(&excelize.Style{
			Font:      &excelize.Font{Bold: true, Size: 10, Color: c[0]},
			Fill:      excelize.Fill{Type: "pattern", Color: []string{c[1]}, Pattern: 1},
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
			Border:    cellBorder,
		})
		if err != nil {
			return nil, fmt.Errorf("ошибка создания стиля %s: %w", band, err)
		}
	}

	return styles, nil
}

// bandStyle возвращает стиль категории, для неизвестной — обычную ячейку
func (s *reportStyles) bandStyle(b composition.Band) int {
	if id, ok := s.bands[b]; ok {
		return id
	}
	return s.tableCell
}

func setColumns(f *excelize.File, sheet string, widths map[string]float64) error {
	for col, width := range widths {
		if err := f.SetColWidth(sheet, col, col, width); err != nil {
			return fmt.Errorf("ошибка установки ширины колонки %s: %w", col, err)
		}
	}
	return nil
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
