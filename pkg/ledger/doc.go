// Package ledger implements an escrowed balance ledger with atomic deposits,
// withdrawals and internal transfers.
//
// Balances are opaque unsigned integer amounts in a single base currency.
// Every operation appears to execute as an indivisible unit against the
// shared balance map; the only suspension point is the external payout
// performed by Withdraw through the Transferer interface.
//
// # Withdrawal ordering contract
//
// Withdraw debits the balance before attempting the external transfer and
// keeps a per-account re-entrancy flag raised for the full duration of the
// operation. A Transferer implementation that re-enters any mutating ledger
// operation for the same account fails immediately with ErrTransferInFlight
// instead of observing a stale balance. If the transfer fails, the debit is
// rolled back exactly and ErrTransferFailed is returned, so the operation is
// all-or-nothing.
//
// # Conservation law
//
// For any sequence of operations the ledger maintains
//
//	sum(balances) + total withdrawn == total deposited
//
// Totals exposes both lifetime counters so callers can verify the invariant
// or reconcile against an external audit log.
//
// # Usage
//
//	payout := ledger.TransferFunc(func(ctx context.Context, account uuid.UUID, amount uint64) error {
//		return bank.Payout(ctx, account, amount)
//	})
//
//	l := ledger.New(payout)
//	if err := l.Deposit(ctx, accountID, 1000); err != nil {
//		// Handle error
//	}
package ledger
