package scoring_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"customsflow/internal/customs"
	"customsflow/internal/scoring"
)

func decl(hs string, amount float64, docs ...string) customs.Declaration {
	return customs.Declaration{
		ID:          "d1",
		CompanyName: "Acme Trading",
		GoodsType:   "Electronics",
		HSCode:      hs,
		Amount:      amount,
		Currency:    "USD",
		Documents:   docs,
	}
}

func TestRules_CleanDeclarationScoresLow(t *testing.T) {
	got, err := scoring.DefaultRules().Score(context.Background(), decl("8517.12", 12000, "invoice.pdf", "packing.pdf"))
	require.NoError(t, err)
	assert.Equal(t, 5, got.RiskScore)
	assert.Empty(t, got.Anomalies)
}

func TestRules_StacksSignals(t *testing.T) {
	got, err := scoring.DefaultRules().Score(context.Background(), decl("9301.10", 900000, "invoice.pdf"))
	require.NoError(t, err)
	assert.Equal(t, 75, got.RiskScore)
	assert.Equal(t, []string{scoring.AnomalySensitiveGoods, scoring.AnomalyHighValue, scoring.AnomalyDocMissing}, got.Anomalies)
}

func TestRules_InvalidHSCodeAndPriceMismatch(t *testing.T) {
	got, err := scoring.DefaultRules().Score(context.Background(), decl("ABC", 50))
	require.NoError(t, err)
	assert.Equal(t, 85, got.RiskScore)
	assert.Equal(t, scoring.AnomalyInvalidHSCode, got.Anomalies[0])
	assert.Contains(t, got.Anomalies, scoring.AnomalyPriceMismatch)
}

func TestRules_ClampsToMax(t *testing.T) {
	r := scoring.Rules{HighValue: 1, UnitPriceFloor: 1e9}
	got, err := r.Score(context.Background(), decl("X", 10))
	require.NoError(t, err)
	assert.LessOrEqual(t, got.RiskScore, customs.MaxRiskScore)
}

func TestRules_HonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := scoring.DefaultRules().Score(ctx, decl("8517.12", 10))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestByCompanyRoutes(t *testing.T) {
	s := scoring.ByCompany{
		Scorers: map[string]scoring.Scorer{
			"Risky Co": scoring.Static{Assessment: customs.Assessment{RiskScore: 90}},
		},
		Default: scoring.Func(func(context.Context, customs.Declaration) (customs.Assessment, error) {
			return customs.Assessment{RiskScore: 10}, nil
		}),
	}
	risky := decl("8517.12", 1)
	risky.CompanyName = "Risky Co"

	got, err := s.Score(context.Background(), risky)
	require.NoError(t, err)
	assert.Equal(t, 90, got.RiskScore)

	got, err = s.Score(context.Background(), decl("8517.12", 1))
	require.NoError(t, err)
	assert.Equal(t, 10, got.RiskScore)
}

func TestStaticReturnsError(t *testing.T) {
	boom := errors.New("model offline")
	_, err := scoring.Static{Err: boom}.Score(context.Background(), decl("8517.12", 1))
	assert.ErrorIs(t, err, boom)
}
