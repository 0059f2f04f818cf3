package scoring

import "github.com/shopspring/decimal"

const scoreDecimals = 2

var one = decimal.NewFromInt(1)

// PriceScore считает баллы за цену: Ps = S × (1 − (Pt − Pmin) / Pmin),
// с ограничением [0, S]. Самая низкая цена всегда получает ровно S.
func PriceScore(bid, lowest decimal.Decimal, scale Scale) (decimal.Decimal, error) {
	if !scale.Valid() {
		return decimal.Zero, invalid("scale", "unsupported scale %d", int(scale))
	}
	if !lowest.IsPositive() {
		return decimal.Zero, invalid("lowestPrice", "must be positive, got %s", lowest.String())
	}
	if bid.IsNegative() {
		return decimal.Zero, invalid("bidAmount", "must not be negative, got %s", bid.String())
	}

	full := scale.PricePoints()
	if bid.LessThanOrEqual(lowest) {
		return full, nil
	}

	ratio := bid.Sub(lowest).Div(lowest)
	score := full.Mul(one.Sub(ratio))
	return clamp(score, decimal.Zero, full).Round(scoreDecimals), nil
}

// LowestPrice возвращает минимальную цену среди переданных.
func LowestPrice(amounts []decimal.Decimal) (decimal.Decimal, bool) {
	if len(amounts) == 0 {
		return decimal.Zero, false
	}
	return decimal.Min(amounts[0], amounts[1:]...), true
}

func clamp(v, lo, hi decimal.Decimal) decimal.Decimal {
	if v.LessThan(lo) {
		return lo
	}
	if v.GreaterThan(hi) {
		return hi
	}
	return v
}
