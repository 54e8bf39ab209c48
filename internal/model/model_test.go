package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "valid", input: "2025-10-01", want: "2025-10-01"},
		{name: "leap day", input: "2024-02-29", want: "2024-02-29"},
		{name: "not a calendar day", input: "2025-02-30", wantErr: true},
		{name: "wrong layout", input: "10/01/2025", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}

func TestDate_JSON(t *testing.T) {
	d := NewDate(time.Date(2025, 8, 1, 17, 30, 0, 0, time.FixedZone("EST", -5*3600)))

	data, err := json.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, `"2025-08-01"`, string(data))

	var back Date
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, d.Equal(back.Time))

	data, err = json.Marshal(Date{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))
}

func TestDate_DaysUntil(t *testing.T) {
	start, err := ParseDate("2025-08-01")
	require.NoError(t, err)
	end, err := ParseDate("2025-09-01")
	require.NoError(t, err)

	assert.Equal(t, 31, start.DaysUntil(end))
	assert.Equal(t, -31, end.DaysUntil(start))
	assert.Equal(t, "2025-08-08", start.AddDays(7).String())
}

func TestTransaction_DisplayName(t *testing.T) {
	assert.Equal(t, "UBER EATS", Transaction{Name: "UBER EATS", MerchantName: "Uber"}.DisplayName())
	assert.Equal(t, "Uber", Transaction{MerchantName: "Uber"}.DisplayName())
	assert.Empty(t, Transaction{}.DisplayName())
}

func TestTransaction_GenerateHash(t *testing.T) {
	tx1 := Transaction{Date: "2025-10-01", Name: "STARBUCKS", Amount: decimal.RequireFromString("7.80"), AccountID: "acc_123"}
	tx2 := tx1
	tx3 := tx1
	tx3.Amount = decimal.RequireFromString("7.81")

	assert.Equal(t, tx1.GenerateHash(), tx2.GenerateHash())
	assert.NotEqual(t, tx1.GenerateHash(), tx3.GenerateHash())
	assert.Len(t, tx1.GenerateHash(), 64)
}

func TestMergeAccounts(t *testing.T) {
	accounts := []Account{
		{ID: "acc_123", Name: "Checking", Type: "depository", Subtype: "checking", Mask: "1111"},
		{ID: "acc_456", OfficialName: "High Yield Savings", Type: "depository", Subtype: "savings", Mask: "2222"},
		{Name: "no id"},
	}
	txns := []Transaction{
		{Name: "STARBUCKS", AccountID: "acc_123"},
		{Name: "CD DEPOSIT", AccountID: "acc_456"},
		{Name: "UNKNOWN", AccountID: "acc_999"},
	}

	merged := MergeAccounts(txns, accounts)
	require.Len(t, merged, 3)

	assert.Equal(t, "Checking", merged[0].AccountName)
	assert.Equal(t, "checking", merged[0].AccountSubtype)
	assert.Equal(t, "1111", merged[0].AccountMask)

	assert.Equal(t, "High Yield Savings", merged[1].AccountName)
	assert.Equal(t, "savings", merged[1].AccountSubtype)

	assert.Empty(t, merged[2].AccountName)

	// Input is not modified.
	assert.Empty(t, txns[0].AccountName)
}

func TestMergeAccounts_Empty(t *testing.T) {
	merged := MergeAccounts(nil, nil)
	assert.NotNil(t, merged)
	assert.Empty(t, merged)
}
