package export

import (
	"bytes"
	"fmt"
	"regexp"

	"procurement/internal/evaluation"

	"github.com/xuri/excelize/v2"
)

const (
	SheetName   = "Ranking"
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	headerRow   = 4
)

var headers = []string{
	"Rank", "Submission", "Vendor", "B-BBEE Level", "Bid Amount (ZAR)",
	"Price Score", "B-BBEE Points", "Technical", "Total", "Status",
}

var columnWidths = []struct {
	from, to string
	width    float64
}{
	{"A", "B", 12},
	{"C", "C", 32},
	{"D", "D", 14},
	{"E", "I", 18},
	{"J", "J", 16},
}

var unsafeFilename = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// Filename возвращает имя файла выгрузки вида ranking_T-2026-007_20260302_101500.xlsx.
func Filename(r *evaluation.Ranking) string {
	number := unsafeFilename.ReplaceAllString(r.TenderNumber, "_")
	if number == "" {
		number = fmt.Sprintf("tender_%d", r.TenderID)
	}
	return fmt.Sprintf("ranking_%s_%s.xlsx", number, r.GeneratedAt.Format("20060102_150405"))
}

// RankingWorkbook строит xlsx с рейтингом предложений тендера.
func RankingWorkbook(r *evaluation.Ranking) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(SheetName)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}

	titleStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 16},
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center"},
	})
	if err != nil {
		return nil, err
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return nil, err
	}

	title := fmt.Sprintf("%s: %s", r.TenderNumber, r.Title)
	if err := f.SetCellValue(SheetName, "A1", title); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(SheetName, "A1", "A1", titleStyle); err != nil {
		return nil, err
	}
	if err := f.SetRowHeight(SheetName, 1, 30); err != nil {
		return nil, err
	}
	if err := f.SetCellValue(SheetName, "A2", fmt.Sprintf("Generated: %s", r.GeneratedAt.Format("2006-01-02 15:04:05"))); err != nil {
		return nil, err
	}
	if err := f.SetCellValue(SheetName, "A3", fmt.Sprintf("Scale: %s, lowest acceptable price: %s", r.Scale.String(), r.LowestPrice.StringFixed(2))); err != nil {
		return nil, err
	}

	for col, label := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, headerRow)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(SheetName, cell, label); err != nil {
			return nil, err
		}
		if err := f.SetCellStyle(SheetName, cell, cell, headerStyle); err != nil {
			return nil, err
		}
	}
	for _, w := range columnWidths {
		if err := f.SetColWidth(SheetName, w.from, w.to, w.width); err != nil {
			return nil, err
		}
	}

	for i, row := range r.Rows {
		rank := any(row.Rank)
		if row.Excluded {
			rank = "excluded"
		}
		values := []any{
			rank,
			row.SubmissionID,
			row.VendorName,
			row.BBBEELevel,
			row.BidAmount.InexactFloat64(),
			row.PriceScore.InexactFloat64(),
			row.BBBEEPoints.InexactFloat64(),
			row.TechnicalScore.InexactFloat64(),
			row.TotalScore.InexactFloat64(),
			row.Status,
		}
		start, err := excelize.CoordinatesToCellName(1, headerRow+1+i)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(SheetName, start, &values); err != nil {
			return nil, err
		}
	}

	return f.WriteToBuffer()
}
