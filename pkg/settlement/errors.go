package settlement

import "errors"

var (
	// ErrInvalidFeePercent is returned when a fee percent is outside [0,100].
	ErrInvalidFeePercent = errors.New("settlement: fee percent must be between 0 and 100")

	// ErrNotAdmin is returned when a caller without the admin role tries to
	// change the platform fee.
	ErrNotAdmin = errors.New("settlement: caller is not an administrator")

	// ErrSettlementFailed is returned when the fund movement failed after
	// validation. The ledger guarantees no partial movement happened.
	ErrSettlementFailed = errors.New("settlement: fund movement failed")

	// ErrTransactionNotFound is returned when a transaction ID is unknown.
	ErrTransactionNotFound = errors.New("settlement: transaction not found")

	// ErrInvalidAmount is returned when a settlement request carries a zero
	// amount.
	ErrInvalidAmount = errors.New("settlement: amount must be greater than zero")

	// ErrNotReversible is returned when Reverse is given anything other than
	// a successful transaction.
	ErrNotReversible = errors.New("settlement: only successful transactions can be reversed")
)
