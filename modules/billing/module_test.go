package billing_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/billingkit/modules/billing"
	"github.com/dmitrymomot/billingkit/pkg/authgate"
	"github.com/dmitrymomot/billingkit/pkg/ledger"
)

func noopTransferer() ledger.Transferer {
	return ledger.TransferFunc(func(ctx context.Context, account uuid.UUID, amount uint64) error {
		return nil
	})
}

func TestNewFromConfig(t *testing.T) {
	t.Parallel()

	t.Run("wires the module and seeds plans", func(t *testing.T) {
		t.Parallel()

		merchant := uuid.New()
		path := filepath.Join(t.TempDir(), "plans.yaml")
		content := `plans:
  - merchant: ` + merchant.String() + `
    name: Starter
    price: 1000
    currency: USD
    billing_cycle: 720h
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		m, err := billing.NewFromConfig(context.Background(), billing.Config{
			FeePercent:      2,
			PlatformAccount: uuid.New().String(),
			PlansFile:       path,
		}, noopTransferer(), authgate.NewMemoryGate())
		require.NoError(t, err)

		plan, err := m.Catalog.GetPlan(context.Background(), 1)
		require.NoError(t, err)
		assert.Equal(t, "Starter", plan.Name)
		assert.Equal(t, merchant, plan.MerchantID)
		assert.Equal(t, uint8(2), m.Settlement.FeePercent())
	})

	t.Run("rejects an invalid platform account", func(t *testing.T) {
		t.Parallel()

		_, err := billing.NewFromConfig(context.Background(), billing.Config{
			PlatformAccount: "not-a-uuid",
		}, noopTransferer(), authgate.NewMemoryGate())
		assert.Error(t, err)
	})

	t.Run("rejects an out of range fee", func(t *testing.T) {
		t.Parallel()

		_, err := billing.NewFromConfig(context.Background(), billing.Config{
			FeePercent:      150,
			PlatformAccount: uuid.New().String(),
		}, noopTransferer(), authgate.NewMemoryGate())
		assert.Error(t, err)
	})
}
