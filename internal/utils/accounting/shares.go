package accounting

import (
	"sort"

	"github.com/SscSPs/splitledger/internal/apperrors"
	"github.com/SscSPs/splitledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// divisionPrecision is the number of decimal places kept for intermediate share values.
const divisionPrecision = 16

// ResolveShares turns a split strategy into a concrete breakdown whose values sum to total exactly.
// Shares are granular to places decimal places; any part of total finer than that granularity lands
// on a single participant so the sum stays exact.
func ResolveShares(total decimal.Decimal, participants []string, strategy domain.SplitStrategy, places int32, tolerance decimal.Decimal) (map[string]decimal.Decimal, error) {
	if len(participants) == 0 {
		return nil, apperrors.NewValidationError("expense must have at least one participant")
	}
	if !total.IsPositive() {
		return nil, apperrors.NewValidationError("expense total must be positive, got %s", total)
	}

	switch strategy.Kind {
	case domain.SplitEqual, "":
		weights := make(map[string]decimal.Decimal, len(participants))
		for _, id := range participants {
			weights[id] = decimal.NewFromInt(1)
		}
		return AllocateLargestRemainder(total, participants, weights, places), nil

	case domain.SplitWeighted:
		if err := checkKeys(participants, strategy.Weights, "weight"); err != nil {
			return nil, err
		}
		sum := decimal.Zero
		for _, w := range strategy.Weights {
			sum = sum.Add(w)
		}
		if !sum.IsPositive() {
			return nil, apperrors.NewValidationError("weights must sum to a positive value")
		}
		return AllocateLargestRemainder(total, participants, strategy.Weights, places), nil

	case domain.SplitExplicit:
		if err := checkKeys(participants, strategy.Shares, "share"); err != nil {
			return nil, err
		}
		sum := decimal.Zero
		for _, s := range strategy.Shares {
			sum = sum.Add(s)
		}
		if sum.Sub(total).Abs().GreaterThan(tolerance) {
			return nil, apperrors.NewValidationError("shares sum to %s but total is %s", sum, total)
		}
		if sum.Equal(total) {
			shares := make(map[string]decimal.Decimal, len(participants))
			for _, id := range participants {
				shares[id] = strategy.Shares[id]
			}
			return shares, nil
		}
		if !sum.IsPositive() {
			return nil, apperrors.NewValidationError("shares must sum to a positive value")
		}
		// Within tolerance but not exact: rescale so the residue is placed deterministically.
		return AllocateLargestRemainder(total, participants, strategy.Shares, places), nil

	default:
		return nil, apperrors.NewValidationError("unknown split strategy %q", strategy.Kind)
	}
}

func checkKeys(participants []string, values map[string]decimal.Decimal, what string) error {
	if len(values) != len(participants) {
		return apperrors.NewValidationError("a %s is required for every participant and only for participants", what)
	}
	for _, id := range participants {
		v, ok := values[id]
		if !ok {
			return apperrors.NewValidationError("missing %s for participant %s", what, id)
		}
		if v.IsNegative() {
			return apperrors.NewValidationError("%s for %s must not be negative", what, id)
		}
	}
	return nil
}

// AllocateLargestRemainder divides total proportionally to weights using largest-remainder rounding.
// Each share is floored to the granularity, then single granules go to the largest truncated
// remainders (ties by participant id) until the residual is exhausted. A residual finer than one
// granule is added to the next participant in that ranking. Weights must sum to a positive value.
func AllocateLargestRemainder(total decimal.Decimal, participants []string, weights map[string]decimal.Decimal, places int32) map[string]decimal.Decimal {
	granule := decimal.New(1, -places)
	sumWeights := decimal.Zero
	for _, id := range participants {
		sumWeights = sumWeights.Add(weights[id])
	}

	type part struct {
		id        string
		share     decimal.Decimal
		remainder decimal.Decimal
	}
	parts := make([]part, 0, len(participants))
	allocated := decimal.Zero
	for _, id := range participants {
		raw := total.Mul(weights[id]).DivRound(sumWeights, divisionPrecision)
		floor := raw.RoundFloor(places)
		parts = append(parts, part{id: id, share: floor, remainder: raw.Sub(floor)})
		allocated = allocated.Add(floor)
	}

	sort.SliceStable(parts, func(i, j int) bool {
		if !parts[i].remainder.Equal(parts[j].remainder) {
			return parts[i].remainder.GreaterThan(parts[j].remainder)
		}
		return parts[i].id < parts[j].id
	})

	residual := total.Sub(allocated)
	i := 0
	for residual.GreaterThanOrEqual(granule) {
		parts[i%len(parts)].share = parts[i%len(parts)].share.Add(granule)
		residual = residual.Sub(granule)
		i++
	}
	if !residual.IsZero() {
		parts[i%len(parts)].share = parts[i%len(parts)].share.Add(residual)
	}

	shares := make(map[string]decimal.Decimal, len(parts))
	for _, p := range parts {
		shares[p.id] = p.share
	}
	return shares
}
