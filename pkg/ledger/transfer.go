package ledger

import (
	"context"

	"github.com/google/uuid"
)

// Transferer moves funds out of the ledger to the account holder, e.g. via a
// bank payout or an on-chain transfer. It is the only suspending call in the
// whole ledger: Withdraw debits the balance first, then invokes TransferOut,
// and rolls the debit back if it fails.
//
// Implementations must treat a returned error as "no value moved". The ledger
// keeps a per-account re-entrancy guard for the duration of the call, so a
// TransferOut implementation that calls back into the ledger for the same
// account receives ErrTransferInFlight.
type Transferer interface {
	TransferOut(ctx context.Context, account uuid.UUID, amount uint64) error
}

// TransferFunc adapts an ordinary function to the Transferer interface.
type TransferFunc func(ctx context.Context, account uuid.UUID, amount uint64) error

func (f TransferFunc) TransferOut(ctx context.Context, account uuid.UUID, amount uint64) error {
	return f(ctx, account, amount)
}
