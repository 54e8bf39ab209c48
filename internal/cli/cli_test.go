package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/plaid-ask/internal/model"
)

func TestRenderTransactions(t *testing.T) {
	out := RenderTransactions([]model.ClassifiedTransaction{
		{
			Transaction: model.Transaction{
				Date:      "2025-10-01",
				Name:      "STARBUCKS 1234",
				Amount:    decimal.RequireFromString("5.5"),
				AccountID: "acc-1",
			},
			NormalizedName:       "Starbucks",
			ConsolidatedCategory: "Coffee",
			TypeTag:              model.TypeSpend,
			IsSpend:              true,
		},
		{
			Transaction: model.Transaction{
				Date:        "2025-10-02",
				Name:        "GUSTO PAY",
				Amount:      decimal.RequireFromString("-2500"),
				AccountName: "Checking",
			},
			NormalizedName:       "Payroll",
			ConsolidatedCategory: "Income",
			TypeTag:              model.TypeIncome,
		},
	})

	for _, want := range []string{"Date", "Merchant", "Starbucks", "5.50", "Coffee", "acc-1", "-2500.00", "Checking", "income"} {
		assert.Contains(t, out, want)
	}
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 6)
}

func date(t *testing.T, s string) model.Date {
	t.Helper()
	d, err := model.ParseDate(s)
	require.NoError(t, err)
	return d
}

func TestRenderSubscriptions(t *testing.T) {
	out := RenderSubscriptions([]model.SubscriptionCandidate{{
		Merchant:      "NETFLIX.COM",
		Period:        model.PeriodMonthly,
		AverageAmount: decimal.RequireFromString("15.99"),
		Count:         3,
		FirstDate:     date(t, "2025-07-05"),
		LastDate:      date(t, "2025-09-05"),
	}})

	for _, want := range []string{"NETFLIX.COM", "monthly", "15.99", "3", "2025-07-05", "2025-09-05"} {
		assert.Contains(t, out, want)
	}
}

func TestPageProgress(t *testing.T) {
	var buf bytes.Buffer
	p := NewPageProgress(&buf, "Fetching transactions")

	p.Update(100, 250)
	p.Update(250, 250)
	p.Finish()

	assert.Equal(t, 250, p.bar.GetMax())
	assert.NotEmpty(t, buf.String())
}

func TestFormatHelpers(t *testing.T) {
	assert.Contains(t, FormatSuccess("done"), "done")
	assert.Contains(t, FormatError("boom"), ErrorIcon)
	assert.Contains(t, FormatWarning("careful"), "careful")
}

func TestRenderBox(t *testing.T) {
	tests := []struct {
		name     string
		title    string
		lines    []string
		contains []string
		rows     int
	}{
		{
			name:     "title only",
			title:    "Window",
			contains: []string{"Window"},
			rows:     3,
		},
		{
			name:     "one row per line",
			title:    "Window",
			lines:    []string{"2025-09-15 to 2025-10-15", "source: default"},
			contains: []string{"Window", "2025-09-15 to 2025-10-15", "source: default"},
			rows:     5,
		},
		{
			name:     "empty lines dropped",
			title:    "Date range",
			lines:    []string{"", "2024-02-01 to 2024-02-29", ""},
			contains: []string{"Date range", "2024-02-01 to 2024-02-29"},
			rows:     4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := RenderBox(tt.title, tt.lines...)
			for _, want := range tt.contains {
				assert.Contains(t, out, want)
			}
			// title and lines plus top and bottom border
			assert.Len(t, strings.Split(out, "\n"), tt.rows)
		})
	}
}
