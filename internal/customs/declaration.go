package customs

import (
	"fmt"
	"strings"
	"time"
)

// Declaration is a customs filing tracked through the lifecycle.
type Declaration struct {
	ID          string
	CompanyName string
	GoodsType   string
	HSCode      string
	Amount      float64
	Currency    string
	Status      Status
	RiskScore   int
	Anomalies   []string
	Documents   []string
	SubmitDate  time.Time
	UpdatedAt   time.Time
}

// Input carries the descriptive fields supplied by the ingestion collaborator.
type Input struct {
	CompanyName string
	GoodsType   string
	HSCode      string
	Amount      float64
	Currency    string
	Documents   []string
}

// Assessment is the scoring collaborator's verdict for one declaration.
type Assessment struct {
	RiskScore int
	Anomalies []string
}

// MaxRiskScore is the upper bound of the risk score scale.
const MaxRiskScore = 100

// Validate checks that every required descriptive field is present.
func (in Input) Validate() error {
	var missing []string
	if strings.TrimSpace(in.CompanyName) == "" {
		missing = append(missing, "company_name")
	}
	if strings.TrimSpace(in.GoodsType) == "" {
		missing = append(missing, "goods_type")
	}
	if strings.TrimSpace(in.HSCode) == "" {
		missing = append(missing, "hs_code")
	}
	if strings.TrimSpace(in.Currency) == "" {
		missing = append(missing, "currency")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidInput, strings.Join(missing, ", "))
	}
	if in.Amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}
	for _, doc := range in.Documents {
		if strings.TrimSpace(doc) == "" {
			return fmt.Errorf("%w: empty document reference", ErrInvalidInput)
		}
	}
	return nil
}

// Normalized returns a copy with surrounding whitespace trimmed and the
// currency upper-cased.
func (in Input) Normalized() Input {
	out := Input{
		CompanyName: strings.TrimSpace(in.CompanyName),
		GoodsType:   strings.TrimSpace(in.GoodsType),
		HSCode:      strings.TrimSpace(in.HSCode),
		Amount:      in.Amount,
		Currency:    strings.ToUpper(strings.TrimSpace(in.Currency)),
	}
	for _, doc := range in.Documents {
		out.Documents = append(out.Documents, strings.TrimSpace(doc))
	}
	return out
}

// Clamp bounds the score to the 0–100 scale and copies the anomaly labels,
// dropping blanks.
func (a Assessment) Clamp() Assessment {
	score := a.RiskScore
	if score < 0 {
		score = 0
	}
	if score > MaxRiskScore {
		score = MaxRiskScore
	}
	labels := make([]string, 0, len(a.Anomalies))
	for _, label := range a.Anomalies {
		if label = strings.TrimSpace(label); label != "" {
			labels = append(labels, label)
		}
	}
	return Assessment{RiskScore: score, Anomalies: labels}
}

// Clone returns a deep copy so callers can't mutate engine-owned slices.
func (d Declaration) Clone() Declaration {
	cp := d
	if d.Anomalies != nil {
		cp.Anomalies = append([]string(nil), d.Anomalies...)
	}
	if d.Documents != nil {
		cp.Documents = append([]string(nil), d.Documents...)
	}
	return cp
}

// PrimaryAnomaly returns the first anomaly label, or a generic placeholder
// when the scorer attached none.
func (d Declaration) PrimaryAnomaly() string {
	if len(d.Anomalies) > 0 {
		return d.Anomalies[0]
	}
	return "Potential Pattern Match"
}

// IsHighRisk reports whether the score exceeds the given display cutoff.
func (d Declaration) IsHighRisk(cutoff int) bool {
	return d.RiskScore > cutoff
}
