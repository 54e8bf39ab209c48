// Package recurring finds merchants whose charges repeat on a weekly or
// monthly cadence with stable amounts.
package recurring

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/plaid-ask/internal/model"
)

// Config holds the detector thresholds.
type Config struct {
	// AbsoluteTolerance is the minimum allowed spread between the largest
	// and smallest charge.
	AbsoluteTolerance decimal.Decimal
	// RelativeTolerance is the allowed spread as a fraction of the average.
	RelativeTolerance decimal.Decimal
	MinOccurrences    int
	MonthlyMinGap     float64
	MonthlyMaxGap     float64
	WeeklyMinGap      float64
	WeeklyMaxGap      float64
}

// DefaultConfig returns the standard thresholds: three or more charges within
// $1 or 10% of each other, 27-33 days apart (monthly) or 6-8 days (weekly).
func DefaultConfig() Config {
	return Config{
		MinOccurrences:    3,
		AbsoluteTolerance: decimal.NewFromInt(1),
		RelativeTolerance: decimal.NewFromFloat(0.10),
		MonthlyMinGap:     27,
		MonthlyMaxGap:     33,
		WeeklyMinGap:      6,
		WeeklyMaxGap:      8,
	}
}

// Detector groups tagged transactions by merchant and reports the groups that
// look like subscriptions.
type Detector struct {
	config Config
}

// NewDetector creates a detector with config. A MinOccurrences below one is
// raised to one.
func NewDetector(config Config) *Detector {
	config.MinOccurrences = max(config.MinOccurrences, 1)
	return &Detector{config: config}
}

// DefaultDetector creates a detector with DefaultConfig.
func DefaultDetector() *Detector {
	return NewDetector(DefaultConfig())
}

type datedTransaction struct {
	date   time.Time
	amount decimal.Decimal
}

// Detect returns one candidate per qualifying merchant, in the order each
// merchant first appears in txns. Transactions with unparseable dates are
// ignored individually; they never fail the batch.
func (d *Detector) Detect(txns []model.ClassifiedTransaction) []model.SubscriptionCandidate {
	order, groups := groupByMerchant(txns)

	candidates := make([]model.SubscriptionCandidate, 0)
	for _, merchant := range order {
		if c, ok := d.evaluate(merchant, groups[merchant]); ok {
			candidates = append(candidates, c)
		}
	}
	return candidates
}

func (d *Detector) evaluate(merchant string, txns []model.ClassifiedTransaction) (model.SubscriptionCandidate, bool) {
	minCount := d.config.MinOccurrences
	if len(txns) < minCount {
		return model.SubscriptionCandidate{}, false
	}

	dated := make([]datedTransaction, 0, len(txns))
	for _, tx := range txns {
		parsed, err := time.Parse(model.DateLayout, tx.Date)
		if err != nil {
			continue
		}
		dated = append(dated, datedTransaction{date: parsed, amount: tx.Amount})
	}
	if len(dated) < minCount {
		return model.SubscriptionCandidate{}, false
	}
	sort.SliceStable(dated, func(i, j int) bool {
		return dated[i].date.Before(dated[j].date)
	})

	average, ok := d.clusteredAverage(dated)
	if !ok {
		return model.SubscriptionCandidate{}, false
	}

	period, ok := d.classifyPeriod(dated)
	if !ok {
		return model.SubscriptionCandidate{}, false
	}

	return model.SubscriptionCandidate{
		Merchant:      merchant,
		Period:        period,
		AverageAmount: average.Round(2),
		Count:         len(dated),
		FirstDate:     model.NewDate(dated[0].date),
		LastDate:      model.NewDate(dated[len(dated)-1].date),
	}, true
}

// clusteredAverage averages the positive amounts and reports whether they sit
// within the configured spread.
func (d *Detector) clusteredAverage(dated []datedTransaction) (decimal.Decimal, bool) {
	positive := make([]decimal.Decimal, 0, len(dated))
	for _, tx := range dated {
		if tx.amount.IsPositive() {
			positive = append(positive, tx.amount)
		}
	}
	if len(positive) < d.config.MinOccurrences {
		return decimal.Zero, false
	}

	average := decimal.Avg(positive[0], positive[1:]...)
	spread := decimal.Max(positive[0], positive[1:]...).Sub(decimal.Min(positive[0], positive[1:]...))
	allowed := decimal.Max(d.config.AbsoluteTolerance, d.config.RelativeTolerance.Mul(average))
	if spread.GreaterThan(allowed) {
		return decimal.Zero, false
	}
	return average, true
}

func (d *Detector) classifyPeriod(dated []datedTransaction) (model.Period, bool) {
	if len(dated) < 2 {
		return "", false
	}

	total := 0
	for i := 1; i < len(dated); i++ {
		total += int(dated[i].date.Sub(dated[i-1].date).Hours() / 24)
	}
	mean := float64(total) / float64(len(dated)-1)

	switch {
	case mean >= d.config.MonthlyMinGap && mean <= d.config.MonthlyMaxGap:
		return model.PeriodMonthly, true
	case mean >= d.config.WeeklyMinGap && mean <= d.config.WeeklyMaxGap:
		return model.PeriodWeekly, true
	default:
		return "", false
	}
}

// groupByMerchant groups by normalized name, falling back to the raw name.
// Nameless transactions are skipped.
func groupByMerchant(txns []model.ClassifiedTransaction) ([]string, map[string][]model.ClassifiedTransaction) {
	groups := make(map[string][]model.ClassifiedTransaction)
	order := make([]string, 0)

	for _, tx := range txns {
		merchant := tx.NormalizedName
		if merchant == "" {
			merchant = tx.Name
		}
		if merchant == "" {
			continue
		}
		if _, seen := groups[merchant]; !seen {
			order = append(order, merchant)
		}
		groups[merchant] = append(groups[merchant], tx)
	}

	return order, groups
}
