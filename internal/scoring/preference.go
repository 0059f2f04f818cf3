package scoring

import (
	"strings"

	"github.com/shopspring/decimal"
)

// BBBEELevel: уровень B-BBEE поставщика.
type BBBEELevel string

const (
	Level1       BBBEELevel = "Level 1"
	Level2       BBBEELevel = "Level 2"
	Level3       BBBEELevel = "Level 3"
	Level4       BBBEELevel = "Level 4"
	Level5       BBBEELevel = "Level 5"
	Level6       BBBEELevel = "Level 6"
	Level7       BBBEELevel = "Level 7"
	Level8       BBBEELevel = "Level 8"
	NonCompliant BBBEELevel = "Non-Compliant"
)

// points[level] = {80/20, 90/10}
var preferenceTable = map[BBBEELevel][2]int64{
	Level1:       {20, 10},
	Level2:       {18, 9},
	Level3:       {14, 6},
	Level4:       {12, 5},
	Level5:       {8, 4},
	Level6:       {6, 3},
	Level7:       {4, 2},
	Level8:       {2, 1},
	NonCompliant: {0, 0},
}

// PreferencePoints возвращает фиксированные баллы по таблице уровней.
func PreferencePoints(level BBBEELevel, scale Scale) (decimal.Decimal, error) {
	row, ok := preferenceTable[level]
	if !ok {
		return decimal.Zero, invalid("bbbeeLevel", "unknown level %q", string(level))
	}
	switch scale {
	case Scale8020:
		return decimal.NewFromInt(row[0]), nil
	case Scale9010:
		return decimal.NewFromInt(row[1]), nil
	}
	return decimal.Zero, invalid("scale", "unsupported scale %d", int(scale))
}

// ParseLevel нормализует "level 3", "3", "non_compliant" и т.п.
func ParseLevel(value string) (BBBEELevel, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	v = strings.NewReplacer("_", " ", "-", " ").Replace(v)
	v = strings.TrimPrefix(v, "level")
	v = strings.TrimSpace(v)

	if v == "non compliant" || v == "noncompliant" {
		return NonCompliant, nil
	}
	if len(v) == 1 && v[0] >= '1' && v[0] <= '8' {
		return BBBEELevel("Level " + v), nil
	}
	return "", invalid("bbbeeLevel", "unknown level %q", value)
}
