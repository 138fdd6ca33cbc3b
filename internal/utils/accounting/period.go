package accounting

import (
	"sort"
	"time"

	"github.com/SscSPs/splitledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// SummarizePeriod totals the expense events whose At falls in the given UTC calendar month.
// Settlement markers are ignored: the summary reports spending, not outstanding debt.
func SummarizePeriod(groupID string, events []domain.Event, year int, month time.Month) domain.PeriodSummary {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	summary := domain.PeriodSummary{
		GroupID: groupID,
		Year:    year,
		Month:   int(month),
		Total:   decimal.Zero,
		Members: []domain.MemberPeriodTotals{},
	}
	totals := make(map[string]*domain.MemberPeriodTotals)
	get := func(id string) *domain.MemberPeriodTotals {
		t, ok := totals[id]
		if !ok {
			t = &domain.MemberPeriodTotals{MemberID: id, Paid: decimal.Zero, Owed: decimal.Zero}
			totals[id] = t
		}
		return t
	}

	for _, e := range events {
		if e.Kind != domain.EventExpense {
			continue
		}
		at := e.At.UTC()
		if at.Before(start) || !at.Before(end) {
			continue
		}
		summary.ExpenseCount++
		summary.Total = summary.Total.Add(e.Expense.Total)
		payer := get(e.Expense.Payer)
		payer.Paid = payer.Paid.Add(e.Expense.Total)
		for _, id := range e.Expense.Participants {
			t := get(id)
			t.Owed = t.Owed.Add(e.Expense.Shares[id])
		}
	}

	ids := make([]string, 0, len(totals))
	for id := range totals {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		t := totals[id]
		t.Net = t.Paid.Sub(t.Owed)
		summary.Members = append(summary.Members, *t)
	}
	return summary
}
