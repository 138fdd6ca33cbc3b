package domain

import "github.com/shopspring/decimal"

// SplitStrategyKind selects how an expense total is divided.
type SplitStrategyKind string

const (
	SplitEqual    SplitStrategyKind = "EQUAL"
	SplitWeighted SplitStrategyKind = "WEIGHTED"
	SplitExplicit SplitStrategyKind = "EXPLICIT"
)

// SplitStrategy is resolved to a concrete share breakdown before an expense is appended.
// Weights is read for SplitWeighted, Shares for SplitExplicit.
type SplitStrategy struct {
	Kind    SplitStrategyKind          `json:"kind"`
	Weights map[string]decimal.Decimal `json:"weights,omitempty"`
	Shares  map[string]decimal.Decimal `json:"shares,omitempty"`
}

// EqualSplit divides the total evenly.
func EqualSplit() SplitStrategy {
	return SplitStrategy{Kind: SplitEqual}
}

// WeightedSplit divides the total proportionally to weights.
func WeightedSplit(weights map[string]decimal.Decimal) SplitStrategy {
	return SplitStrategy{Kind: SplitWeighted, Weights: weights}
}

// ExplicitSplit uses caller-supplied shares.
func ExplicitSplit(shares map[string]decimal.Decimal) SplitStrategy {
	return SplitStrategy{Kind: SplitExplicit, Shares: shares}
}
