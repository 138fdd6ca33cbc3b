package accounting

import (
	"sort"

	"github.com/SscSPs/splitledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// FoldBalances replays events in (At, Seq) order and returns every member's net balance.
// Events are assumed valid; a settlement marker resets all balances to zero.
// Roster members always appear in the result, as does anyone referenced by an event.
func FoldBalances(events []domain.Event, roster []string) map[string]decimal.Decimal {
	ordered := make([]domain.Event, len(events))
	copy(ordered, events)
	domain.SortEvents(ordered)

	balances := make(map[string]decimal.Decimal, len(roster))
	for _, id := range roster {
		balances[id] = decimal.Zero
	}

	for _, e := range ordered {
		switch e.Kind {
		case domain.EventSettlementMarker:
			for id := range balances {
				balances[id] = decimal.Zero
			}
		case domain.EventExpense:
			p := e.Expense
			// Shares of other participants are what the payer fronted for them.
			payerShare := p.Shares[p.Payer]
			balances[p.Payer] = balances[p.Payer].Add(p.Total.Sub(payerShare))
			for _, id := range p.Participants {
				if id == p.Payer {
					continue
				}
				balances[id] = balances[id].Sub(p.Shares[id])
			}
		case domain.EventRepayment:
			p := e.Repayment
			balances[p.From] = balances[p.From].Add(p.Amount)
			balances[p.To] = balances[p.To].Sub(p.Amount)
		}
	}
	return balances
}

// ComputeBalances is FoldBalances with a stable ordering: roster order first, then any other
// members found in events sorted by id.
func ComputeBalances(events []domain.Event, roster []string) []domain.MemberBalance {
	balances := FoldBalances(events, roster)

	result := make([]domain.MemberBalance, 0, len(balances))
	seen := make(map[string]bool, len(roster))
	for _, id := range roster {
		if seen[id] {
			continue
		}
		seen[id] = true
		result = append(result, domain.MemberBalance{MemberID: id, Balance: balances[id]})
	}

	extra := make([]string, 0)
	for id := range balances {
		if !seen[id] {
			extra = append(extra, id)
		}
	}
	sort.Strings(extra)
	for _, id := range extra {
		result = append(result, domain.MemberBalance{MemberID: id, Balance: balances[id]})
	}
	return result
}
