package services_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/SscSPs/splitledger/internal/apperrors"
	"github.com/SscSPs/splitledger/internal/core/domain"
	portssvc "github.com/SscSPs/splitledger/internal/core/ports/services"
	"github.com/SscSPs/splitledger/internal/core/services"
	"github.com/SscSPs/splitledger/internal/dto"
	"github.com/SscSPs/splitledger/internal/repositories/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// MockNotifier records notifications handed to the sink.
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, recipientIDs []string, message string, category domain.NotificationCategory) error {
	args := m.Called(ctx, recipientIDs, message, category)
	return args.Error(0)
}

// sent returns the recipient lists of every notification of the given category.
func (m *MockNotifier) sent(category domain.NotificationCategory) [][]string {
	var out [][]string
	for _, c := range m.Calls {
		if c.Method == "Notify" && c.Arguments.Get(3).(domain.NotificationCategory) == category {
			out = append(out, c.Arguments.Get(1).([]string))
		}
	}
	return out
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

var testNow = time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)

type SettlementServiceTestSuite struct {
	suite.Suite
	ctx      context.Context
	store    *memory.Store
	notifier *MockNotifier
	service  portssvc.SettlementSvcFacade
	accounts portssvc.AccountSvcFacade
}

func (suite *SettlementServiceTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.store = memory.NewStore()
	suite.store.AddGroup(domain.Group{GroupID: "g1", Name: "Trip", CurrencyCode: "EUR"},
		domain.Member{MemberID: "A", DisplayName: "Alice", JoinedAt: testNow.Add(-3 * time.Hour)},
		domain.Member{MemberID: "B", DisplayName: "Bob", JoinedAt: testNow.Add(-2 * time.Hour)},
		domain.Member{MemberID: "C", DisplayName: "Carol", JoinedAt: testNow.Add(-time.Hour)},
	)
	suite.store.AddGroup(domain.Group{GroupID: "g2", CurrencyCode: "EUR"},
		domain.Member{MemberID: "Z", JoinedAt: testNow},
	)

	suite.notifier = new(MockNotifier)
	suite.notifier.On("Notify", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()

	repos := memory.NewRepositoryProvider(suite.store)
	clock := func() time.Time { return testNow }
	suite.service = services.NewSettlementService(repos,
		services.WithNotifier(suite.notifier),
		services.WithClock(clock),
	)
	suite.accounts = services.NewAccountService(repos, services.WithAccountClock(clock))
}

func TestSettlementServiceTestSuite(t *testing.T) {
	suite.Run(t, new(SettlementServiceTestSuite))
}

func (suite *SettlementServiceTestSuite) expense(payer string, total string, participants ...string) *domain.ExpenseRecord {
	rec, err := suite.service.CreateExpense(suite.ctx, "g1", payer, dto.CreateExpenseRequest{
		Payer:        payer,
		Participants: participants,
		Total:        dec(total),
		Note:         "dinner",
	})
	suite.Require().NoError(err)
	return rec
}

func (suite *SettlementServiceTestSuite) balances() map[string]decimal.Decimal {
	b, err := suite.service.GetBalances(suite.ctx, "g1", "A")
	suite.Require().NoError(err)
	out := map[string]decimal.Decimal{}
	for _, mb := range b.Balances {
		out[mb.MemberID] = mb.Balance
	}
	return out
}

func (suite *SettlementServiceTestSuite) assertBalances(want map[string]string) {
	got := suite.balances()
	suite.Len(got, len(want))
	for id, amount := range want {
		suite.Truef(dec(amount).Equal(got[id]), "balance of %s: want %s, got %s", id, amount, got[id])
	}
}

func (suite *SettlementServiceTestSuite) TestCreateExpense_EqualSplitBalances() {
	rec := suite.expense("A", "300", "A", "B", "C")

	suite.Equal(int64(1), rec.Event.Seq)
	suite.Equal(rec.Event.EventID, rec.Split.SplitID)
	suite.Equal(domain.SplitOpen, rec.Split.Status())
	suite.Equal([]string{"B", "C"}, rec.Split.UnpaidParticipants())
	suite.assertBalances(map[string]string{"A": "200", "B": "-100", "C": "-100"})

	suite.Equal([][]string{{"B", "C"}}, suite.notifier.sent(domain.NotifyExpenseAdded))

	plan, err := suite.service.GetSuggestedTransfers(suite.ctx, "g1", "B")
	suite.Require().NoError(err)
	suite.Equal(int64(1), plan.Version)
	suite.Require().Len(plan.Transfers, 2)
	suite.Equal("B", plan.Transfers[0].From)
	suite.Equal("A", plan.Transfers[0].To)
	suite.True(dec("100").Equal(plan.Transfers[0].Amount))
}

func (suite *SettlementServiceTestSuite) TestCreateExpense_LargestRemainderSharesAreExact() {
	rec := suite.expense("A", "100.05", "A", "B", "C")

	sum := decimal.Zero
	for _, p := range rec.Split.Participants {
		sum = sum.Add(p.Amount)
	}
	suite.True(dec("100.05").Equal(sum))
	suite.True(dec("33.4").Equal(rec.Event.Expense.Shares["A"]))
}

func (suite *SettlementServiceTestSuite) TestCreateExpense_Validation() {
	tests := []struct {
		name    string
		actor   string
		req     dto.CreateExpenseRequest
		wantErr error
	}{
		{"non-member actor", "Z", dto.CreateExpenseRequest{Payer: "A", Participants: []string{"A"}, Total: dec("1")}, apperrors.ErrNotFound},
		{"payer not a member", "A", dto.CreateExpenseRequest{Payer: "Z", Participants: []string{"A"}, Total: dec("1")}, apperrors.ErrValidation},
		{"participant not a member", "A", dto.CreateExpenseRequest{Payer: "A", Participants: []string{"A", "Z"}, Total: dec("1")}, apperrors.ErrValidation},
		{"duplicate participant", "A", dto.CreateExpenseRequest{Payer: "A", Participants: []string{"B", "B"}, Total: dec("1")}, apperrors.ErrValidation},
		{"explicit shares off", "A", dto.CreateExpenseRequest{
			Payer: "A", Participants: []string{"A", "B"}, Total: dec("10"),
			Strategy: domain.SplitExplicit, Shares: map[string]decimal.Decimal{"A": dec("5"), "B": dec("4")},
		}, apperrors.ErrValidation},
		{"far future", "A", dto.CreateExpenseRequest{
			Payer: "A", Participants: []string{"B"}, Total: dec("1"), At: ptrTime(testNow.Add(time.Hour)),
		}, apperrors.ErrValidation},
	}
	for _, tt := range tests {
		suite.Run(tt.name, func() {
			_, err := suite.service.CreateExpense(suite.ctx, "g1", tt.actor, tt.req)
			suite.ErrorIs(err, tt.wantErr)
		})
	}

	seq, err := suite.store.LatestSeq(suite.ctx, "g1")
	suite.Require().NoError(err)
	suite.Zero(seq)
}

func ptrTime(t time.Time) *time.Time {
	return &t
}

func (suite *SettlementServiceTestSuite) TestCreateExpense_IdempotentReplay() {
	req := dto.CreateExpenseRequest{
		Payer: "A", Participants: []string{"A", "B"}, Total: dec("20"), IdempotencyKey: "k-1",
	}
	first, err := suite.service.CreateExpense(suite.ctx, "g1", "A", req)
	suite.Require().NoError(err)
	second, err := suite.service.CreateExpense(suite.ctx, "g1", "A", req)
	suite.Require().NoError(err)

	suite.Equal(first.Event.EventID, second.Event.EventID)
	suite.Equal(first.Split.SplitID, second.Split.SplitID)
	suite.Len(suite.notifier.sent(domain.NotifyExpenseAdded), 1)
	suite.assertBalances(map[string]string{"A": "10", "B": "-10", "C": "0"})

	// Reusing the key for another kind of command is a conflict.
	_, err = suite.service.Repay(suite.ctx, "g1", "B", dto.RepayRequest{From: "B", To: "A", Amount: dec("10"), IdempotencyKey: "k-1"})
	suite.ErrorIs(err, apperrors.ErrConflict)
}

func (suite *SettlementServiceTestSuite) TestCreateExpense_PayerOnlySplitIsSettled() {
	rec := suite.expense("A", "12", "A")
	suite.True(rec.Split.IsSettled)
	suite.Equal(domain.SplitSettled, rec.Split.Status())
	suite.assertBalances(map[string]string{"A": "0", "B": "0", "C": "0"})
}

func (suite *SettlementServiceTestSuite) TestCreateExpense_ChargesPayerAccount() {
	suite.store.PutAccount(domain.Account{AccountID: "cash-a", OwnerID: "A", Kind: domain.Cash, CurrencyCode: "EUR", Balance: dec("50"), IsActive: true})

	_, err := suite.service.CreateExpense(suite.ctx, "g1", "A", dto.CreateExpenseRequest{
		Payer: "A", Participants: []string{"A", "B"}, Total: dec("80"), PaymentAccountID: "cash-a",
	})
	suite.Require().NoError(err)

	acc, err := suite.accounts.GetAccount(suite.ctx, "cash-a", "A")
	suite.Require().NoError(err)
	suite.True(dec("-30").Equal(acc.Balance))

	entries, err := suite.accounts.ListAccountEntries(suite.ctx, "cash-a", "A", dto.ListAccountEntriesParams{Limit: 10})
	suite.Require().NoError(err)
	suite.Require().Len(entries.Entries, 1)
	suite.Equal(domain.CategoryGroupExpense, entries.Entries[0].Category)

	// Someone else cannot charge A's account.
	_, err = suite.service.CreateExpense(suite.ctx, "g1", "B", dto.CreateExpenseRequest{
		Payer: "A", Participants: []string{"A", "B"}, Total: dec("10"), PaymentAccountID: "cash-a",
	})
	suite.ErrorIs(err, apperrors.ErrPermission)
}

func (suite *SettlementServiceTestSuite) TestCreateExpense_CreditLimitAdmission() {
	suite.store.PutAccount(domain.Account{
		AccountID: "card-a", OwnerID: "A", Kind: domain.CreditCard, CurrencyCode: "EUR",
		CreditLimit: dec("5000"), CurrentCreditUsed: dec("4800"), IsActive: true,
	})

	_, err := suite.service.CreateExpense(suite.ctx, "g1", "A", dto.CreateExpenseRequest{
		Payer: "A", Participants: []string{"A", "B"}, Total: dec("300"), PaymentAccountID: "card-a",
	})

	var creditErr *apperrors.InsufficientCreditError
	suite.Require().ErrorAs(err, &creditErr)
	suite.True(dec("100").Equal(creditErr.Shortfall))

	card, err := suite.accounts.GetAccount(suite.ctx, "card-a", "A")
	suite.Require().NoError(err)
	suite.True(dec("4800").Equal(card.CurrentCreditUsed))

	seq, err := suite.store.LatestSeq(suite.ctx, "g1")
	suite.Require().NoError(err)
	suite.Zero(seq, "a rejected charge must not leave an event behind")
	suite.Empty(suite.notifier.sent(domain.NotifyExpenseAdded))
}

func (suite *SettlementServiceTestSuite) TestCreateExpense_ConcurrentCardChargesRespectLimit() {
	suite.store.PutAccount(domain.Account{
		AccountID: "card-a", OwnerID: "A", Kind: domain.CreditCard, CurrencyCode: "EUR",
		CreditLimit: dec("1000"), IsActive: true,
	})

	const writers = 10
	var wg sync.WaitGroup
	errs := make([]error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = suite.service.CreateExpense(suite.ctx, "g1", "A", dto.CreateExpenseRequest{
				Payer: "A", Participants: []string{"A", "B"}, Total: dec("150"), PaymentAccountID: "card-a",
			})
		}(i)
	}
	wg.Wait()

	var ok, rejected int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, apperrors.ErrInsufficientCredit):
			rejected++
		default:
			suite.Failf("unexpected error", "%v", err)
		}
	}
	suite.Equal(6, ok)
	suite.Equal(4, rejected)

	card, err := suite.accounts.GetAccount(suite.ctx, "card-a", "A")
	suite.Require().NoError(err)
	suite.True(dec("900").Equal(card.CurrentCreditUsed), "credit used: %s", card.CurrentCreditUsed)
}

func (suite *SettlementServiceTestSuite) TestRepay_MovesBalancesButNotSplits() {
	rec := suite.expense("A", "300", "A", "B", "C")

	ev, err := suite.service.Repay(suite.ctx, "g1", "B", dto.RepayRequest{From: "B", To: "A", Amount: dec("100")})
	suite.Require().NoError(err)
	suite.Equal(int64(2), ev.Seq)
	suite.assertBalances(map[string]string{"A": "100", "B": "0", "C": "-100"})
	suite.Equal([][]string{{"A"}}, suite.notifier.sent(domain.NotifyRepaymentRecorded))

	split, err := suite.service.GetSplit(suite.ctx, rec.Split.SplitID, "B")
	suite.Require().NoError(err)
	suite.Equal([]string{"B", "C"}, split.UnpaidParticipants())
}

func (suite *SettlementServiceTestSuite) TestRepay_Accounts() {
	suite.store.PutAccount(domain.Account{AccountID: "bank-b", OwnerID: "B", Kind: domain.Bank, CurrencyCode: "EUR", Balance: dec("100"), IsActive: true})
	suite.store.PutAccount(domain.Account{AccountID: "card-a", OwnerID: "A", Kind: domain.CreditCard, CurrencyCode: "EUR", CreditLimit: dec("10"), IsActive: true})

	_, err := suite.service.Repay(suite.ctx, "g1", "B", dto.RepayRequest{From: "B", To: "A", Amount: dec("40"), SourceAccountID: "bank-b"})
	suite.Require().NoError(err)
	acc, err := suite.accounts.GetAccount(suite.ctx, "bank-b", "B")
	suite.Require().NoError(err)
	suite.True(dec("60").Equal(acc.Balance))

	_, err = suite.service.Repay(suite.ctx, "g1", "A", dto.RepayRequest{From: "B", To: "A", Amount: dec("5"), DestinationAccountID: "card-a"})
	suite.ErrorIs(err, apperrors.ErrValidation)

	_, err = suite.service.Repay(suite.ctx, "g1", "A", dto.RepayRequest{From: "B", To: "A", Amount: dec("5"), SourceAccountID: "bank-b"})
	suite.ErrorIs(err, apperrors.ErrPermission)
}

func (suite *SettlementServiceTestSuite) TestMarkParticipantPaid_LastPaymentSettlesOnce() {
	rec := suite.expense("A", "300", "A", "B", "C")
	splitID := rec.Split.SplitID

	split, err := suite.service.MarkParticipantPaid(suite.ctx, splitID, "B", "B")
	suite.Require().NoError(err)
	suite.False(split.IsSettled)
	suite.Equal(domain.SplitPartiallyPaid, split.Status())

	split, err = suite.service.MarkParticipantPaid(suite.ctx, splitID, "C", "A")
	suite.Require().NoError(err)
	suite.True(split.IsSettled)
	suite.Equal("A", split.SettledBy)

	// Marking again is a no-op and does not notify a second time.
	split, err = suite.service.MarkParticipantPaid(suite.ctx, splitID, "C", "C")
	suite.Require().NoError(err)
	suite.True(split.IsSettled)

	suite.Equal([][]string{{"A", "B", "C"}}, suite.notifier.sent(domain.NotifySplitSettled))
	// Marking shares paid does not touch balances.
	suite.assertBalances(map[string]string{"A": "200", "B": "-100", "C": "-100"})
}

func (suite *SettlementServiceTestSuite) TestMarkParticipantPaid_Errors() {
	rec := suite.expense("A", "300", "A", "B", "C")
	splitID := rec.Split.SplitID

	_, err := suite.service.MarkParticipantPaid(suite.ctx, splitID, "B", "C")
	suite.ErrorIs(err, apperrors.ErrPermission)

	_, err = suite.service.MarkParticipantPaid(suite.ctx, splitID, "Z", "A")
	suite.ErrorIs(err, apperrors.ErrNotFound)

	_, err = suite.service.MarkParticipantPaid(suite.ctx, splitID, "B", "Z")
	suite.ErrorIs(err, apperrors.ErrNotFound)

	_, err = suite.service.MarkParticipantPaid(suite.ctx, "missing", "B", "B")
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *SettlementServiceTestSuite) TestMarkParticipantPaid_ConcurrentLastPayments() {
	const rounds = 20
	for i := 0; i < rounds; i++ {
		rec := suite.expense("A", "30", "A", "B", "C")

		var wg sync.WaitGroup
		errs := make([]error, 2)
		for j, id := range []string{"B", "C"} {
			wg.Add(1)
			go func(j int, id string) {
				defer wg.Done()
				_, errs[j] = suite.service.MarkParticipantPaid(suite.ctx, rec.Split.SplitID, id, id)
			}(j, id)
		}
		wg.Wait()
		suite.Require().NoError(errs[0])
		suite.Require().NoError(errs[1])

		split, err := suite.service.GetSplit(suite.ctx, rec.Split.SplitID, "A")
		suite.Require().NoError(err)
		suite.True(split.IsSettled)
	}
	suite.Len(suite.notifier.sent(domain.NotifySplitSettled), rounds)
}

func (suite *SettlementServiceTestSuite) TestSettle_ErrorOrdering() {
	rec := suite.expense("A", "300", "A", "B", "C")
	splitID := rec.Split.SplitID

	_, err := suite.service.Settle(suite.ctx, splitID, "B")
	suite.ErrorIs(err, apperrors.ErrPermission)

	_, err = suite.service.Settle(suite.ctx, splitID, "A")
	var pre *apperrors.PreconditionError
	suite.Require().ErrorAs(err, &pre)
	suite.Equal([]string{"B", "C"}, pre.UnpaidParticipants)

	_, err = suite.service.MarkParticipantPaid(suite.ctx, splitID, "B", "B")
	suite.Require().NoError(err)
	_, err = suite.service.MarkParticipantPaid(suite.ctx, splitID, "C", "C")
	suite.Require().NoError(err)

	_, err = suite.service.Settle(suite.ctx, splitID, "A")
	suite.ErrorIs(err, apperrors.ErrConflict)
}

func (suite *SettlementServiceTestSuite) TestSettleAll_ResetsBalancesKeepsSplits() {
	rec := suite.expense("A", "300", "A", "B", "C")
	_, err := suite.service.MarkParticipantPaid(suite.ctx, rec.Split.SplitID, "B", "B")
	suite.Require().NoError(err)

	marker, err := suite.service.SettleAll(suite.ctx, "g1", "C")
	suite.Require().NoError(err)
	suite.Equal(domain.EventSettlementMarker, marker.Kind)
	suite.assertBalances(map[string]string{"A": "0", "B": "0", "C": "0"})

	split, err := suite.service.GetSplit(suite.ctx, rec.Split.SplitID, "C")
	suite.Require().NoError(err)
	suite.False(split.IsSettled)
	suite.Equal([]string{"C"}, split.UnpaidParticipants())

	// Nothing happened since: no second marker, no second notification.
	again, err := suite.service.SettleAll(suite.ctx, "g1", "A")
	suite.Require().NoError(err)
	suite.Equal(marker.EventID, again.EventID)
	suite.Equal([][]string{{"A", "B", "C"}}, suite.notifier.sent(domain.NotifyBalancesReset))

	plan, err := suite.service.GetSuggestedTransfers(suite.ctx, "g1", "A")
	suite.Require().NoError(err)
	suite.Empty(plan.Transfers)

	// New activity after the marker counts again.
	suite.expense("B", "20", "B", "C")
	suite.assertBalances(map[string]string{"A": "0", "B": "10", "C": "-10"})
}

func (suite *SettlementServiceTestSuite) TestSettleAll_RejectsBackdatedEvents() {
	_, err := suite.service.SettleAll(suite.ctx, "g1", "A")
	suite.Require().NoError(err)

	_, err = suite.service.CreateExpense(suite.ctx, "g1", "A", dto.CreateExpenseRequest{
		Payer: "A", Participants: []string{"A", "B"}, Total: dec("10"), At: ptrTime(testNow.Add(-24 * time.Hour)),
	})
	suite.ErrorIs(err, apperrors.ErrValidation)

	_, err = suite.service.Repay(suite.ctx, "g1", "B", dto.RepayRequest{
		From: "B", To: "A", Amount: dec("10"), At: ptrTime(testNow.Add(-time.Minute)),
	})
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *SettlementServiceTestSuite) TestSettleAll_AfterFutureDatedEventKeepsDefaultTimesValid() {
	ahead := testNow.Add(3 * time.Minute)
	_, err := suite.service.CreateExpense(suite.ctx, "g1", "A", dto.CreateExpenseRequest{
		Payer: "A", Participants: []string{"A", "B"}, Total: dec("10"), At: ptrTime(ahead),
	})
	suite.Require().NoError(err)
	marker, err := suite.service.SettleAll(suite.ctx, "g1", "A")
	suite.Require().NoError(err)
	suite.True(marker.At.Equal(ahead))

	rec, err := suite.service.CreateExpense(suite.ctx, "g1", "B", dto.CreateExpenseRequest{
		Payer: "B", Participants: []string{"A", "B"}, Total: dec("20"),
	})
	suite.Require().NoError(err)
	suite.True(rec.Event.At.Equal(ahead))

	event, err := suite.service.Repay(suite.ctx, "g1", "A", dto.RepayRequest{From: "A", To: "B", Amount: dec("4")})
	suite.Require().NoError(err)
	suite.False(event.At.Before(ahead))
	suite.assertBalances(map[string]string{"A": "-6", "B": "6", "C": "0"})

	// An explicit time before the marker is still a backdating attempt.
	_, err = suite.service.CreateExpense(suite.ctx, "g1", "A", dto.CreateExpenseRequest{
		Payer: "A", Participants: []string{"A", "B"}, Total: dec("10"), At: ptrTime(testNow),
	})
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *SettlementServiceTestSuite) TestReads_HideForeignGroups() {
	rec := suite.expense("A", "30", "A", "B")

	_, err := suite.service.GetBalances(suite.ctx, "g1", "Z")
	suite.ErrorIs(err, apperrors.ErrNotFound)
	_, err = suite.service.GetSplit(suite.ctx, rec.Split.SplitID, "Z")
	suite.ErrorIs(err, apperrors.ErrNotFound)
	_, err = suite.service.ListSplits(suite.ctx, "g1", "Z", dto.ListSplitsParams{Limit: 10})
	suite.ErrorIs(err, apperrors.ErrNotFound)
	_, err = suite.service.GetBalances(suite.ctx, "nope", "A")
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *SettlementServiceTestSuite) TestGetSplit_FormerMemberStillSeesOwnSplit() {
	rec := suite.expense("A", "30", "A", "C")
	suite.store.RemoveMember("g1", "C")

	split, err := suite.service.GetSplit(suite.ctx, rec.Split.SplitID, "C")
	suite.Require().NoError(err)
	suite.Equal(rec.Split.SplitID, split.SplitID)

	// The removed member still carries their balance.
	suite.assertBalances(map[string]string{"A": "15", "B": "0", "C": "-15"})
}

func (suite *SettlementServiceTestSuite) TestListEvents_Paginates() {
	for i := 0; i < 5; i++ {
		suite.expense("A", fmt.Sprintf("%d", 10+i), "A", "B")
	}

	page, err := suite.service.ListEvents(suite.ctx, "g1", "B", dto.ListEventsParams{Limit: 3})
	suite.Require().NoError(err)
	suite.Require().Len(page.Events, 3)
	suite.Require().NotNil(page.NextToken)
	suite.Equal(int64(1), page.Events[0].Seq)

	page, err = suite.service.ListEvents(suite.ctx, "g1", "B", dto.ListEventsParams{Limit: 3, NextToken: page.NextToken})
	suite.Require().NoError(err)
	suite.Require().Len(page.Events, 2)
	suite.Nil(page.NextToken)
	suite.Equal(int64(5), page.Events[1].Seq)

	bad := "not-a-token"
	_, err = suite.service.ListEvents(suite.ctx, "g1", "B", dto.ListEventsParams{Limit: 3, NextToken: &bad})
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *SettlementServiceTestSuite) TestListSplits_NewestFirst() {
	for i := 0; i < 3; i++ {
		suite.expense("A", "10", "A", "B")
	}
	splits, err := suite.service.ListSplits(suite.ctx, "g1", "A", dto.ListSplitsParams{Limit: 2})
	suite.Require().NoError(err)
	suite.Len(splits, 2)
}

func (suite *SettlementServiceTestSuite) TestGetPeriodSummary() {
	suite.expense("A", "30", "A", "B", "C")
	_, err := suite.service.CreateExpense(suite.ctx, "g1", "B", dto.CreateExpenseRequest{
		Payer: "B", Participants: []string{"A", "B"}, Total: dec("10"), At: ptrTime(testNow.AddDate(0, -1, 0)),
	})
	suite.Require().NoError(err)

	summary, err := suite.service.GetPeriodSummary(suite.ctx, "g1", "C", dto.PeriodSummaryParams{Year: 2024, Month: 5})
	suite.Require().NoError(err)
	suite.Equal(1, summary.ExpenseCount)
	suite.True(dec("30").Equal(summary.Total))
}

func (suite *SettlementServiceTestSuite) TestNotifierFailureDoesNotFailCommand() {
	failing := new(MockNotifier)
	failing.On("Notify", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(assertErr)
	svc := services.NewSettlementService(memory.NewRepositoryProvider(suite.store), services.WithNotifier(failing))

	rec, err := svc.CreateExpense(suite.ctx, "g1", "A", dto.CreateExpenseRequest{Payer: "A", Participants: []string{"A", "B"}, Total: dec("10")})
	suite.Require().NoError(err)
	suite.NotEmpty(rec.Event.EventID)
	failing.AssertNumberOfCalls(suite.T(), "Notify", 1)
}

var assertErr = fmt.Errorf("sink unavailable")
