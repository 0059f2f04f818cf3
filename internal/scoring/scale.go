package scoring

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Scale: система баллов 80/20 или 90/10 (баллы за цену / преференции).
type Scale int

const (
	Scale8020 Scale = 80
	Scale9010 Scale = 90
)

// DefaultThreshold: порог стоимости тендера для перехода на 90/10 (R50 000 000).
var DefaultThreshold = decimal.NewFromInt(50_000_000)

var hundred = decimal.NewFromInt(100)

func (s Scale) Valid() bool {
	return s == Scale8020 || s == Scale9010
}

// PricePoints возвращает максимум баллов за цену.
func (s Scale) PricePoints() decimal.Decimal {
	return decimal.NewFromInt(int64(s))
}

// PreferencePoints возвращает максимум преференциальных баллов.
func (s Scale) PreferencePoints() decimal.Decimal {
	return hundred.Sub(s.PricePoints())
}

func (s Scale) String() string {
	if !s.Valid() {
		return fmt.Sprintf("Scale(%d)", int(s))
	}
	return fmt.Sprintf("%d/%d", int(s), 100-int(s))
}

func (s Scale) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, invalid("scale", "unsupported scale %d", int(s))
	}
	return []byte(s.String()), nil
}

func (s *Scale) UnmarshalText(text []byte) error {
	parsed, err := ParseScale(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseScale принимает "80/20", "90/10", "80" или "90".
func ParseScale(value string) (Scale, error) {
	switch strings.TrimSpace(value) {
	case "80/20", "80":
		return Scale8020, nil
	case "90/10", "90":
		return Scale9010, nil
	}
	return 0, invalid("scale", "unsupported scale %q", value)
}

// ScaleForValue выбирает 80/20 для тендеров не дороже порога и 90/10 для остальных.
// Неположительный порог заменяется на DefaultThreshold.
func ScaleForValue(estimatedValue, threshold decimal.Decimal) Scale {
	if !threshold.IsPositive() {
		threshold = DefaultThreshold
	}
	if estimatedValue.GreaterThan(threshold) {
		return Scale9010
	}
	return Scale8020
}
