package settlement

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/billingkit/pkg/authgate"
	"github.com/dmitrymomot/billingkit/pkg/ledger"
)

// FundMover is the slice of the ledger the engine needs: an atomic multi-leg
// disbursement. Satisfied by ledger.Ledger.
type FundMover interface {
	Split(ctx context.Context, from uuid.UUID, legs ...ledger.Leg) error
}

// Request describes one settlement: who pays, who gets paid, and for what.
type Request struct {
	SubscriberID   uuid.UUID
	MerchantID     uuid.UUID
	PlanID         int64
	SubscriptionID int64
	Amount         uint64
	Currency       string
}

// Engine computes the platform fee split and moves funds merchant-ward as a
// single atomic step, appending every outcome to the transaction log.
type Engine interface {
	// Settle debits the subscriber by the request amount, credits the
	// merchant share and the platform share together, and appends a
	// successful Transaction. Both legs commit or neither does; if the
	// record cannot be appended after the funds moved, the shares are
	// returned to the subscriber before the error surfaces.
	Settle(ctx context.Context, req Request) (*Transaction, error)

	// Reverse moves a settled transaction's shares back to the subscriber
	// and appends a reversed Transaction. Callers use it when state that
	// depends on the settlement cannot be persisted.
	Reverse(ctx context.Context, tx *Transaction) error

	// FeePercent returns the fee percent applied to future settlements.
	FeePercent() uint8

	// SetFeePercent changes the process-wide platform fee. Admin role only;
	// the change is not retroactive.
	SetFeePercent(ctx context.Context, caller uuid.UUID, percent uint8) error
}

// Option configures the engine.
type Option func(*engine)

// WithFeePercent sets the initial platform fee percent.
// Panics on values above 100 to enforce fail-fast initialization.
func WithFeePercent(percent uint8) Option {
	return func(e *engine) {
		if percent > 100 {
			panic("settlement: fee percent must be between 0 and 100")
		}
		e.feePercent = percent
	}
}

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(e *engine) {
		if log != nil {
			e.log = log
		}
	}
}

// WithClock overrides the time source, useful in tests.
func WithClock(now func() time.Time) Option {
	return func(e *engine) {
		if now != nil {
			e.now = now
		}
	}
}

type engine struct {
	mu         sync.RWMutex
	feePercent uint8

	platformAccount uuid.UUID
	mover           FundMover
	store           TransactionStore
	gate            authgate.Gate
	log             *slog.Logger
	now             func() time.Time
}

// NewEngine creates a settlement Engine crediting platform fees to
// platformAccount. Panics if mover, store or gate is nil to fail fast
// during initialization.
func NewEngine(mover FundMover, store TransactionStore, gate authgate.Gate, platformAccount uuid.UUID, opts ...Option) Engine {
	if mover == nil {
		panic("settlement: FundMover is required")
	}
	if store == nil {
		panic("settlement: TransactionStore is required")
	}
	if gate == nil {
		panic("settlement: authgate.Gate is required")
	}

	e := &engine{
		platformAccount: platformAccount,
		mover:           mover,
		store:           store,
		gate:            gate,
		log:             slog.Default(),
		now:             func() time.Time { return time.Now().UTC() },
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

func (e *engine) Settle(ctx context.Context, req Request) (*Transaction, error) {
	if req.Amount == 0 {
		return nil, ErrInvalidAmount
	}

	merchantShare, platformShare := FeeSplit(req.Amount, e.FeePercent())

	err := e.mover.Split(ctx, req.SubscriberID,
		ledger.Leg{Account: req.MerchantID, Amount: merchantShare},
		ledger.Leg{Account: e.platformAccount, Amount: platformShare},
	)

	switch {
	case errors.Is(err, ledger.ErrInsufficientFunds),
		errors.Is(err, ledger.ErrAccountNotFound):
		// Rejected before any mutation; nothing to audit.
		return nil, err

	case err != nil:
		// Funds validated but the movement failed mid-flight. The ledger
		// guarantees no partial movement; record the failed attempt.
		failed := e.newTransaction(req, StatusFailed, merchantShare, platformShare)
		if id, appendErr := e.store.Append(ctx, failed); appendErr != nil {
			e.log.ErrorContext(ctx, "failed to record failed settlement",
				slog.Any("error", appendErr))
		} else {
			failed.ID = id
		}
		return nil, errors.Join(ErrSettlementFailed, err)
	}

	tx := e.newTransaction(req, StatusSuccessful, merchantShare, platformShare)
	id, err := e.store.Append(ctx, tx)
	if err != nil {
		// The funds moved but the audit trail did not record it. Return the
		// shares so the subscriber is not charged for an unrecorded period.
		if refundErr := e.refund(ctx, req.SubscriberID, req.MerchantID, merchantShare, platformShare); refundErr != nil {
			e.log.ErrorContext(ctx, "failed to return shares after record failure",
				slog.String("subscriber_id", req.SubscriberID.String()),
				slog.Any("error", refundErr))
		}
		return nil, errors.Join(ErrSettlementFailed, err)
	}
	tx.ID = id

	e.log.InfoContext(ctx, "settlement completed",
		slog.Int64("transaction_id", id),
		slog.String("merchant_id", req.MerchantID.String()),
		slog.Uint64("merchant_share", merchantShare),
		slog.Uint64("platform_share", platformShare))

	return tx, nil
}

func (e *engine) Reverse(ctx context.Context, tx *Transaction) error {
	if tx == nil || tx.Status != StatusSuccessful {
		return ErrNotReversible
	}

	if err := e.refund(ctx, tx.SubscriberID, tx.MerchantID, tx.MerchantShare, tx.PlatformShare); err != nil {
		return errors.Join(ErrSettlementFailed, err)
	}

	rev := *tx
	rev.ID = 0
	rev.Status = StatusReversed
	rev.CreatedAt = e.now()
	if id, err := e.store.Append(ctx, &rev); err != nil {
		e.log.ErrorContext(ctx, "failed to record settlement reversal",
			slog.Int64("transaction_id", tx.ID),
			slog.Any("error", err))
	} else {
		rev.ID = id
	}

	e.log.InfoContext(ctx, "settlement reversed",
		slog.Int64("transaction_id", tx.ID),
		slog.String("subscriber_id", tx.SubscriberID.String()))

	return nil
}

// refund moves already-credited shares back to the subscriber. It can only
// fail if the recipient spent or locked the funds in the meantime.
func (e *engine) refund(ctx context.Context, subscriber, merchant uuid.UUID, merchantShare, platformShare uint64) error {
	if merchantShare > 0 {
		if err := e.mover.Split(ctx, merchant, ledger.Leg{Account: subscriber, Amount: merchantShare}); err != nil {
			return err
		}
	}
	if platformShare > 0 {
		if err := e.mover.Split(ctx, e.platformAccount, ledger.Leg{Account: subscriber, Amount: platformShare}); err != nil {
			return err
		}
	}
	return nil
}

func (e *engine) FeePercent() uint8 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.feePercent
}

func (e *engine) SetFeePercent(ctx context.Context, caller uuid.UUID, percent uint8) error {
	if percent > 100 {
		return ErrInvalidFeePercent
	}

	isAdmin, err := e.gate.HasRole(ctx, caller, authgate.RoleAdmin)
	if err != nil {
		return err
	}
	if !isAdmin {
		return ErrNotAdmin
	}

	e.mu.Lock()
	e.feePercent = percent
	e.mu.Unlock()

	e.log.InfoContext(ctx, "platform fee updated",
		slog.String("caller", caller.String()),
		slog.Int("fee_percent", int(percent)))

	return nil
}

func (e *engine) newTransaction(req Request, status Status, merchantShare, platformShare uint64) *Transaction {
	return &Transaction{
		SubscriberID:   req.SubscriberID,
		MerchantID:     req.MerchantID,
		PlanID:         req.PlanID,
		SubscriptionID: req.SubscriptionID,
		Amount:         req.Amount,
		MerchantShare:  merchantShare,
		PlatformShare:  platformShare,
		Currency:       req.Currency,
		Status:         status,
		CreatedAt:      e.now(),
	}
}
