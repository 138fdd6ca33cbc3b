package domain

// NotificationCategory classifies ledger notifications for the delivery side.
type NotificationCategory string

const (
	NotifyExpenseAdded      NotificationCategory = "EXPENSE_ADDED"
	NotifyRepaymentRecorded NotificationCategory = "REPAYMENT_RECORDED"
	NotifySplitSettled      NotificationCategory = "SPLIT_SETTLED"
	NotifyBalancesReset     NotificationCategory = "BALANCES_RESET"
)
