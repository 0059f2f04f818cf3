package export

import (
	"testing"
	"time"

	"procurement/internal/evaluation"
	"procurement/internal/scoring"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleRanking() *evaluation.Ranking {
	return &evaluation.Ranking{
		TenderID:     7,
		TenderNumber: "T/2026/007",
		Title:        "Road resurfacing",
		Scale:        scoring.Scale8020,
		LowestPrice:  decimal.NewFromInt(22_500_000),
		GeneratedAt:  time.Date(2026, 3, 2, 10, 15, 0, 0, time.UTC),
		Rows: []evaluation.RankingRow{
			{Rank: 1, SubmissionID: 11, VendorName: "Ubuntu Civils", BBBEELevel: "Level 1",
				BidAmount: decimal.NewFromInt(22_500_000), PriceScore: decimal.NewFromInt(80),
				BBBEEPoints: decimal.NewFromInt(20), TotalScore: decimal.NewFromInt(100), Status: "scored"},
			{Rank: 2, SubmissionID: 12, VendorName: "Karoo Paving", BBBEELevel: "Level 4",
				BidAmount: decimal.NewFromInt(24_800_000), PriceScore: decimal.RequireFromString("71.82"),
				BBBEEPoints: decimal.NewFromInt(12), TotalScore: decimal.RequireFromString("83.82"), Status: "scored"},
			{SubmissionID: 13, VendorName: "Debarred Works", Excluded: true, Status: "disqualified",
				BidAmount: decimal.NewFromInt(20_000_000)},
		},
	}
}

func TestRankingWorkbook(t *testing.T) {
	buf, err := RankingWorkbook(sampleRanking())
	require.NoError(t, err)

	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer f.Close()

	require.Equal(t, []string{SheetName}, f.GetSheetList())

	title, err := f.GetCellValue(SheetName, "A1")
	require.NoError(t, err)
	require.Equal(t, "T/2026/007: Road resurfacing", title)

	scale, err := f.GetCellValue(SheetName, "A3")
	require.NoError(t, err)
	require.Contains(t, scale, "80/20")

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, headerRow+3)
	require.Equal(t, headers, rows[headerRow-1])
	require.Equal(t, "1", rows[headerRow][0])
	require.Equal(t, "Ubuntu Civils", rows[headerRow][2])
	require.Equal(t, "71.82", rows[headerRow+1][5])
	require.Equal(t, "excluded", rows[headerRow+2][0])
	require.Equal(t, "disqualified", rows[headerRow+2][9])
}

func TestFilename(t *testing.T) {
	require.Equal(t, "ranking_T_2026_007_20260302_101500.xlsx", Filename(sampleRanking()))

	r := sampleRanking()
	r.TenderNumber = ""
	require.Equal(t, "ranking_tender_7_20260302_101500.xlsx", Filename(r))
}
