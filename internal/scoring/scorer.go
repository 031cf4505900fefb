// Package scoring defines the risk scoring collaborator contract and a few
// adapters: a function adapter, a fixed-verdict scorer for tests, and a
// deterministic rule-based scorer used by the CLI simulation.
package scoring

import (
	"context"

	"customsflow/internal/customs"
)

// Scorer assesses a declaration once, at RiskCheck entry.
type Scorer interface {
	Score(ctx context.Context, decl customs.Declaration) (customs.Assessment, error)
}

// Func adapts a plain function to Scorer.
type Func func(ctx context.Context, decl customs.Declaration) (customs.Assessment, error)

func (f Func) Score(ctx context.Context, decl customs.Declaration) (customs.Assessment, error) {
	return f(ctx, decl)
}

// Static returns the same verdict for every declaration.
type Static struct {
	Assessment customs.Assessment
	Err        error
}

func (s Static) Score(context.Context, customs.Declaration) (customs.Assessment, error) {
	if s.Err != nil {
		return customs.Assessment{}, s.Err
	}
	return s.Assessment, nil
}

// ByCompany routes each declaration to a scorer keyed by company name, falling
// back to Default.
type ByCompany struct {
	Scorers map[string]Scorer
	Default Scorer
}

func (b ByCompany) Score(ctx context.Context, decl customs.Declaration) (customs.Assessment, error) {
	if s, ok := b.Scorers[decl.CompanyName]; ok && s != nil {
		return s.Score(ctx, decl)
	}
	if b.Default == nil {
		return customs.Assessment{}, nil
	}
	return b.Default.Score(ctx, decl)
}
