package accounting

import (
	"testing"
	"time"

	"github.com/SscSPs/splitledger/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarizePeriod(t *testing.T) {
	march := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	events := []domain.Event{
		expense(1, march, "A", map[string]string{"A": "10", "B": "10"}),
		marker(2, march.Add(time.Hour)),
		expense(3, march.Add(2*time.Hour), "B", map[string]string{"A": "5", "B": "5"}),
		expense(4, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), "A", map[string]string{"A": "99"}),
		repayment(5, march, "B", "A", "10"),
	}

	summary := SummarizePeriod("g", events, 2026, time.March)

	assert.Equal(t, 2, summary.ExpenseCount)
	assert.True(t, d("30").Equal(summary.Total))
	require.Len(t, summary.Members, 2)
	a := summary.Members[0]
	assert.Equal(t, "A", a.MemberID)
	assert.True(t, d("20").Equal(a.Paid))
	assert.True(t, d("15").Equal(a.Owed))
	assert.True(t, d("5").Equal(a.Net))
}
