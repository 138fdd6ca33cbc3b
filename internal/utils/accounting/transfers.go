package accounting

import (
	"sort"

	"github.com/SscSPs/splitledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// DefaultSettlementEpsilon is the magnitude below which a balance counts as settled.
var DefaultSettlementEpsilon = decimal.RequireFromString("0.5")

type party struct {
	id     string
	amount decimal.Decimal
}

// SuggestTransfers greedily matches the largest debtor with the largest creditor until one side
// runs out. The result is deterministic for a given input and has at most len(balances)-1 entries.
// Remainders at or below epsilon are dropped, not carried.
func SuggestTransfers(balances []domain.MemberBalance, epsilon decimal.Decimal) []domain.Transfer {
	var debtors, creditors []party
	for _, b := range balances {
		switch {
		case b.Balance.LessThan(epsilon.Neg()):
			debtors = append(debtors, party{id: b.MemberID, amount: b.Balance.Neg()})
		case b.Balance.GreaterThan(epsilon):
			creditors = append(creditors, party{id: b.MemberID, amount: b.Balance})
		}
	}
	sortParties(debtors)
	sortParties(creditors)

	transfers := []domain.Transfer{}
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		debtor, creditor := &debtors[i], &creditors[j]
		amount := decimal.Min(debtor.amount, creditor.amount)
		transfers = append(transfers, domain.Transfer{From: debtor.id, To: creditor.id, Amount: amount})

		debtor.amount = debtor.amount.Sub(amount)
		creditor.amount = creditor.amount.Sub(amount)
		if debtor.amount.LessThanOrEqual(epsilon) {
			i++
		}
		if creditor.amount.LessThanOrEqual(epsilon) {
			j++
		}
	}
	return transfers
}

// sortParties orders by amount descending, ties by id.
func sortParties(ps []party) {
	sort.SliceStable(ps, func(a, b int) bool {
		if !ps[a].amount.Equal(ps[b].amount) {
			return ps[a].amount.GreaterThan(ps[b].amount)
		}
		return ps[a].id < ps[b].id
	})
}
