package scoring

import (
	"context"
	"strings"

	"customsflow/internal/customs"
)

// Anomaly labels produced by Rules.
const (
	AnomalyPriceMismatch  = "Price Mismatch"
	AnomalyInvalidHSCode  = "Invalid HS Code"
	AnomalySensitiveGoods = "Sensitive Goods"
	AnomalyDocMissing     = "Doc Missing"
	AnomalyHighValue      = "High Declared Value"
)

// sensitiveChapters are HS chapters that draw extra scrutiny: arms (93),
// nuclear and precision equipment (84, 90) and pharmaceuticals (30).
var sensitiveChapters = map[string]struct{}{
	"30": {}, "84": {}, "90": {}, "93": {},
}

// Rules is a deterministic demo scorer. It weighs a handful of signals taken
// from the declaration itself; it is not a risk model.
type Rules struct {
	// HighValue is the declared amount above which a declaration is flagged.
	HighValue float64
	// UnitPriceFloor flags declarations whose amount is implausibly low.
	UnitPriceFloor float64
}

// DefaultRules returns the thresholds used by the CLI simulation.
func DefaultRules() Rules {
	return Rules{HighValue: 500000, UnitPriceFloor: 100}
}

func (r Rules) Score(ctx context.Context, decl customs.Declaration) (customs.Assessment, error) {
	if err := ctx.Err(); err != nil {
		return customs.Assessment{}, err
	}
	score := 5
	var anomalies []string

	hs := strings.ReplaceAll(decl.HSCode, ".", "")
	switch {
	case len(hs) < 6 || !allDigits(hs):
		score += 35
		anomalies = append(anomalies, AnomalyInvalidHSCode)
	default:
		if _, ok := sensitiveChapters[hs[:2]]; ok {
			score += 30
			anomalies = append(anomalies, AnomalySensitiveGoods)
		}
	}
	if r.HighValue > 0 && decl.Amount > r.HighValue {
		score += 25
		anomalies = append(anomalies, AnomalyHighValue)
	}
	if r.UnitPriceFloor > 0 && decl.Amount < r.UnitPriceFloor {
		score += 30
		anomalies = append(anomalies, AnomalyPriceMismatch)
	}
	if len(decl.Documents) < 2 {
		score += 15
		anomalies = append(anomalies, AnomalyDocMissing)
	}
	return customs.Assessment{RiskScore: score, Anomalies: anomalies}.Clamp(), nil
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
