package ledger

import "errors"

var (
	// ErrInvalidAmount is returned when an operation is given a zero amount,
	// or when a deposit would overflow the lifetime deposit counter.
	ErrInvalidAmount = errors.New("ledger: invalid amount")

	// ErrAccountNotFound is returned when the account has never held funds.
	ErrAccountNotFound = errors.New("ledger: account not found")

	// ErrInsufficientFunds is returned when a debit exceeds the account balance.
	ErrInsufficientFunds = errors.New("ledger: insufficient funds")

	// ErrTransferFailed is returned when the external payout did not succeed.
	// The preceding debit is rolled back before this error is surfaced.
	ErrTransferFailed = errors.New("ledger: external transfer failed")

	// ErrTransferInFlight is returned when a mutating operation touches an
	// account that has an external transfer pending. Callers must retry after
	// the pending withdrawal completes; the ledger never queues.
	ErrTransferInFlight = errors.New("ledger: external transfer in flight for account")

	// ErrSelfTransfer is returned when a transfer names the same account on
	// both sides.
	ErrSelfTransfer = errors.New("ledger: cannot transfer to the same account")
)
