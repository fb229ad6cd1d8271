package settlement

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PGStore is a PostgreSQL-backed TransactionStore for deployments that need
// a durable audit log. The transactions table is insert-only; the ID
// sequence comes from BIGSERIAL so ids stay monotonic.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore creates a PostgreSQL transaction store.
// Panics if pool is nil to fail fast during initialization.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	if pool == nil {
		panic("settlement: pgxpool.Pool is required")
	}
	return &PGStore{pool: pool}
}

// Migrate applies the settlement schema migrations.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to apply settlement migrations: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("failed to apply settlement migrations: %w", err)
	}
	return nil
}

func (s *PGStore) Append(ctx context.Context, tx *Transaction) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO settlement_transactions
			(subscriber_id, merchant_id, plan_id, subscription_id, amount, merchant_share, platform_share, currency, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`,
		tx.SubscriberID, tx.MerchantID, tx.PlanID, tx.SubscriptionID,
		int64(tx.Amount), int64(tx.MerchantShare), int64(tx.PlatformShare),
		tx.Currency, string(tx.Status), tx.CreatedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to append transaction: %w", err)
	}
	return id, nil
}

func (s *PGStore) Get(ctx context.Context, id int64) (*Transaction, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, subscriber_id, merchant_id, plan_id, subscription_id, amount, merchant_share, platform_share, currency, status, created_at
		FROM settlement_transactions WHERE id = $1`, id)

	tx, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return tx, nil
}

func (s *PGStore) ListByMerchant(ctx context.Context, merchantID uuid.UUID) ([]Transaction, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, subscriber_id, merchant_id, plan_id, subscription_id, amount, merchant_share, platform_share, currency, status, created_at
		FROM settlement_transactions WHERE merchant_id = $1 ORDER BY id`, merchantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		out = append(out, *tx)
	}
	return out, rows.Err()
}

// MerchantRevenue sums successful settlement amounts for a merchant, net of
// reversals.
func (s *PGStore) MerchantRevenue(ctx context.Context, merchantID uuid.UUID) (uint64, error) {
	var total int64
	err := s.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(CASE status
			WHEN $2 THEN amount
			WHEN $3 THEN -amount
			ELSE 0 END), 0)
		FROM settlement_transactions WHERE merchant_id = $1`,
		merchantID, string(StatusSuccessful), string(StatusReversed),
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum merchant revenue: %w", err)
	}
	return uint64(total), nil
}

func scanTransaction(row pgx.Row) (*Transaction, error) {
	var (
		tx            Transaction
		amount        int64
		merchantShare int64
		platformShare int64
		status        string
	)
	if err := row.Scan(&tx.ID, &tx.SubscriberID, &tx.MerchantID, &tx.PlanID,
		&tx.SubscriptionID, &amount, &merchantShare, &platformShare,
		&tx.Currency, &status, &tx.CreatedAt); err != nil {
		return nil, err
	}
	tx.Amount = uint64(amount)
	tx.MerchantShare = uint64(merchantShare)
	tx.PlatformShare = uint64(platformShare)
	tx.Status = Status(status)
	return &tx, nil
}
