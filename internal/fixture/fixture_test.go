package fixture

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/plaid-ask/internal/common"
)

func day(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func TestDefault(t *testing.T) {
	src := Default()
	ctx := context.Background()

	accounts, err := src.GetAccounts(ctx)
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, "acc_123", accounts[0].ID)
	assert.Equal(t, "1111", accounts[0].Mask)
	assert.Equal(t, "2350.17", accounts[0].Balances.Available.Decimal.StringFixed(2))
	assert.Equal(t, "2435.17", accounts[0].Balances.Current.Decimal.StringFixed(2))
	assert.Equal(t, "acc_456", accounts[1].ID)
	assert.Equal(t, "10250.00", accounts[1].Balances.Current.Decimal.StringFixed(2))

	// The demo dataset ignores the requested window.
	txns, err := src.GetTransactions(ctx, day("2030-01-01"), day("2030-01-31"))
	require.NoError(t, err)
	require.Len(t, txns, 6)
	assert.Equal(t, "UBER EATS", txns[0].Name)
	assert.Equal(t, "24.50", txns[0].Amount.StringFixed(2))
	assert.Equal(t, []string{"Food and Drink", "Restaurants"}, txns[0].Category)
	assert.Equal(t, "fx_001", txns[0].ID)
}

func TestSource_FiltersByRange(t *testing.T) {
	src, err := Parse([]byte(`
transactions:
  - {date: "2025-09-30", name: A, amount: 1}
  - {date: "2025-10-01", name: B, amount: 2}
  - {date: "2025-10-31", name: C, amount: 3}
  - {date: "2025-11-01", name: D, amount: 4}
`))
	require.NoError(t, err)

	txns, err := src.GetTransactions(context.Background(), day("2025-10-01"), day("2025-10-31"))
	require.NoError(t, err)
	require.Len(t, txns, 2)
	assert.Equal(t, "B", txns[0].Name)
	assert.Equal(t, "C", txns[1].Name)
	assert.NotEmpty(t, txns[0].ID)
}

func TestSource_ReturnsCopies(t *testing.T) {
	src := Default()
	first, err := src.GetTransactions(context.Background(), day("2025-01-01"), day("2025-12-31"))
	require.NoError(t, err)
	first[0].Category[0] = "mutated"

	second, err := src.GetTransactions(context.Background(), day("2025-01-01"), day("2025-12-31"))
	require.NoError(t, err)
	assert.Equal(t, "Food and Drink", second[0].Category[0])
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse([]byte(`transactions: [{date: "2025-02-30", name: X, amount: 1}]`))
	require.ErrorIs(t, err, common.ErrInvalidConfig)

	_, err = Parse([]byte("accounts: {not: a list"))
	require.ErrorIs(t, err, common.ErrInvalidConfig)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
accounts:
  - account_id: a1
    name: Card
    type: credit
    balances: {current: 120.5}
transactions:
  - {date: "2025-10-01", name: Coffee, amount: 3.5, account_id: a1}
`), 0o600))

	src, err := LoadFile(path)
	require.NoError(t, err)

	accounts, err := src.GetAccounts(context.Background())
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.False(t, accounts[0].Balances.Available.Valid)
	assert.True(t, accounts[0].Balances.Current.Valid)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestSource_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Default().GetAccounts(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
