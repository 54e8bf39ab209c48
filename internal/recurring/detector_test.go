package recurring

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/plaid-ask/internal/model"
	"github.com/Veraticus/plaid-ask/internal/testutil"
)

func tx(name, date, amount string) model.ClassifiedTransaction {
	return model.ClassifiedTransaction{
		Transaction: model.Transaction{
			Name:   name,
			Date:   date,
			Amount: decimal.RequireFromString(amount),
		},
		NormalizedName: name,
		TypeTag:        model.TypeSpend,
		IsSpend:        true,
	}
}

func TestDetector_MonthlyNetflix(t *testing.T) {
	got := DefaultDetector().Detect([]model.ClassifiedTransaction{
		tx("Netflix", "2025-08-01", "15.99"),
		tx("Netflix", "2025-09-01", "15.99"),
		tx("Netflix", "2025-10-01", "15.99"),
	})

	require.Len(t, got, 1)
	c := got[0]
	assert.Equal(t, "Netflix", c.Merchant)
	assert.Equal(t, model.PeriodMonthly, c.Period)
	assert.Equal(t, "15.99", c.AverageAmount.StringFixed(2))
	assert.Equal(t, 3, c.Count)
	assert.Equal(t, "2025-08-01", c.FirstDate.String())
	assert.Equal(t, "2025-10-01", c.LastDate.String())
}

func TestDetector_Weekly(t *testing.T) {
	got := DefaultDetector().Detect([]model.ClassifiedTransaction{
		tx("Gym Class", "2025-10-15", "12.00"),
		tx("Gym Class", "2025-10-01", "12.00"),
		tx("Gym Class", "2025-10-08", "12.50"),
		tx("Gym Class", "2025-10-22", "11.75"),
	})

	require.Len(t, got, 1)
	assert.Equal(t, model.PeriodWeekly, got[0].Period)
	assert.Equal(t, 4, got[0].Count)
	assert.Equal(t, "12.06", got[0].AverageAmount.StringFixed(2))
	assert.Equal(t, "2025-10-01", got[0].FirstDate.String())
	assert.Equal(t, "2025-10-22", got[0].LastDate.String())
}

func TestDetector_Discards(t *testing.T) {
	tests := []struct {
		name string
		txns []model.ClassifiedTransaction
	}{
		{
			name: "too few transactions",
			txns: []model.ClassifiedTransaction{
				tx("Spotify", "2025-08-01", "9.99"),
				tx("Spotify", "2025-09-01", "9.99"),
			},
		},
		{
			name: "too few parseable dates",
			txns: []model.ClassifiedTransaction{
				tx("Spotify", "2025-08-01", "9.99"),
				tx("Spotify", "2025-09-01", "9.99"),
				tx("Spotify", "09/01/2025", "9.99"),
				tx("Spotify", "", "9.99"),
			},
		},
		{
			name: "too few positive amounts",
			txns: []model.ClassifiedTransaction{
				tx("Spotify", "2025-08-01", "9.99"),
				tx("Spotify", "2025-09-01", "-9.99"),
				tx("Spotify", "2025-10-01", "0"),
			},
		},
		{
			name: "amounts spread too far",
			txns: []model.ClassifiedTransaction{
				tx("Electric", "2025-08-01", "80.00"),
				tx("Electric", "2025-09-01", "95.00"),
				tx("Electric", "2025-10-01", "110.00"),
			},
		},
		{
			name: "irregular interval",
			txns: []model.ClassifiedTransaction{
				tx("Hardware", "2025-08-01", "20.00"),
				tx("Hardware", "2025-08-16", "20.00"),
				tx("Hardware", "2025-08-31", "20.00"),
			},
		},
		{
			name: "nameless transactions",
			txns: []model.ClassifiedTransaction{
				tx("", "2025-08-01", "5.00"),
				tx("", "2025-09-01", "5.00"),
				tx("", "2025-10-01", "5.00"),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DefaultDetector().Detect(tt.txns)
			assert.Empty(t, got)
		})
	}
}

func TestDetector_ToleranceBoundaries(t *testing.T) {
	// $1 floor applies to small charges.
	got := DefaultDetector().Detect([]model.ClassifiedTransaction{
		tx("Cloud", "2025-08-01", "5.00"),
		tx("Cloud", "2025-09-01", "6.00"),
		tx("Cloud", "2025-10-01", "5.50"),
	})
	require.Len(t, got, 1)

	// 10% of the average applies to larger charges.
	got = DefaultDetector().Detect([]model.ClassifiedTransaction{
		tx("Insurance", "2025-08-01", "100.00"),
		tx("Insurance", "2025-09-01", "109.00"),
		tx("Insurance", "2025-10-01", "104.00"),
	})
	require.Len(t, got, 1)
	assert.Equal(t, "104.33", got[0].AverageAmount.StringFixed(2))
}

func TestDetector_SkipsBadDatesButKeepsGroup(t *testing.T) {
	got := DefaultDetector().Detect([]model.ClassifiedTransaction{
		tx("Hulu", "2025-07-01", "7.99"),
		tx("Hulu", "not a date", "7.99"),
		tx("Hulu", "2025-08-01", "7.99"),
		tx("Hulu", "2025-09-01", "7.99"),
	})

	require.Len(t, got, 1)
	assert.Equal(t, 3, got[0].Count)
}

func TestDetector_GroupsByNormalizedNameWithFallback(t *testing.T) {
	raw := tx("NETFLIX.COM", "2025-09-01", "15.99")
	raw.NormalizedName = ""

	txns := []model.ClassifiedTransaction{
		tx("Starbucks", "2025-08-03", "4.50"),
		raw,
		tx("Starbucks", "2025-09-03", "4.50"),
		{Transaction: model.Transaction{Name: "NETFLIX.COM", Date: "2025-08-01", Amount: decimal.RequireFromString("15.99")}},
		tx("Starbucks", "2025-10-03", "4.75"),
		{Transaction: model.Transaction{Name: "NETFLIX.COM", Date: "2025-10-01", Amount: decimal.RequireFromString("15.99")}},
	}

	got := DefaultDetector().Detect(txns)
	require.Len(t, got, 2)
	assert.Equal(t, "Starbucks", got[0].Merchant)
	assert.Equal(t, "NETFLIX.COM", got[1].Merchant)
}

func TestDetector_Empty(t *testing.T) {
	got := DefaultDetector().Detect(nil)
	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestDetector_CustomConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinOccurrences = 2

	got := NewDetector(cfg).Detect([]model.ClassifiedTransaction{
		tx("Patreon", "2025-09-05", "3.00"),
		tx("Patreon", "2025-10-05", "3.00"),
	})
	require.Len(t, got, 1)
	assert.Equal(t, model.PeriodMonthly, got[0].Period)
}

func TestDetector_MinOccurrencesFloor(t *testing.T) {
	tests := []struct {
		name           string
		minOccurrences int
		txns           []model.ClassifiedTransaction
		wantCount      int
	}{
		{
			name:           "zero with only refunds",
			minOccurrences: 0,
			txns: []model.ClassifiedTransaction{
				tx("Refund Co", "2025-09-01", "-15.99"),
				tx("Refund Co", "2025-10-01", "-15.99"),
			},
		},
		{
			name:           "negative with zero amounts",
			minOccurrences: -3,
			txns: []model.ClassifiedTransaction{
				tx("Free Trial", "2025-09-01", "0"),
			},
		},
		{
			name:           "zero with only bad dates",
			minOccurrences: 0,
			txns: []model.ClassifiedTransaction{
				tx("Netflix", "not-a-date", "15.99"),
			},
		},
		{
			name:           "zero still finds a monthly charge",
			minOccurrences: 0,
			txns: []model.ClassifiedTransaction{
				tx("Patreon", "2025-09-05", "3.00"),
				tx("Patreon", "2025-10-05", "3.00"),
			},
			wantCount: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.MinOccurrences = tt.minOccurrences
			d := NewDetector(cfg)
			assert.Equal(t, 1, d.config.MinOccurrences)

			var got []model.SubscriptionCandidate
			require.NotPanics(t, func() { got = d.Detect(tt.txns) })
			assert.Len(t, got, tt.wantCount)
		})
	}
}

func TestDetector_YearOfMixedActivity(t *testing.T) {
	b := testutil.NewBuilder(t).
		Monthly("NETFLIX.COM", "15.99", "2025-01-31", 12).
		Weekly("GYM", "12.00", "2025-03-03", 8).
		Every("GROCER", "54.10", "2025-01-02", 4, 20).
		Every("PAYROLL", "2500.00", "2025-01-10", 14, 10).
		Monthly("ELECTRIC", "40.00", "2025-01-20", 2).
		Add("2025-02-01", "CAFE", "4.00").
		Add("2025-03-01", "CAFE", "19.00").
		Add("2025-04-01", "CAFE", "4.50")

	got := DefaultDetector().Detect(b.BuildClassified())

	require.Len(t, got, 2)
	assert.Equal(t, "NETFLIX.COM", got[0].Merchant)
	assert.Equal(t, model.PeriodMonthly, got[0].Period)
	assert.Equal(t, 12, got[0].Count)
	assert.Equal(t, "2025-12-31", got[0].LastDate.String())

	assert.Equal(t, "GYM", got[1].Merchant)
	assert.Equal(t, model.PeriodWeekly, got[1].Period)
	assert.Equal(t, "12.00", got[1].AverageAmount.StringFixed(2))
}
