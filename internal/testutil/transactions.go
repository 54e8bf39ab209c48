// Package testutil builds transaction histories for tests.
//
// Example:
//
//	txns := testutil.NewBuilder(t).
//		WithAccount("acc_123").
//		Monthly("NETFLIX.COM", "15.99", "2025-01-05", 6).
//		Weekly("GYM", "12.00", "2025-03-03", 4).
//		Add("2025-02-14", "FLORIST", "80.00").
//		Build()
package testutil

import (
	"sort"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/plaid-ask/internal/model"
)

// Builder accumulates transactions. Methods fail the test on malformed
// input, so a chain never needs error checks.
type Builder struct {
	t         *testing.T
	accountID string
	category  []string
	txns      []model.Transaction
}

// NewBuilder creates a builder for t. Transactions default to account "acc_test".
func NewBuilder(t *testing.T) *Builder {
	t.Helper()
	return &Builder{t: t, accountID: "acc_test"}
}

// WithAccount sets the account of transactions added afterwards.
func (b *Builder) WithAccount(id string) *Builder {
	b.accountID = id
	return b
}

// WithCategory sets the Plaid category path of transactions added afterwards.
func (b *Builder) WithCategory(path ...string) *Builder {
	b.category = path
	return b
}

// Add appends a single transaction.
func (b *Builder) Add(date, name, amount string) *Builder {
	b.t.Helper()
	d := b.parse(date)
	b.txns = append(b.txns, b.make(d, name, amount))
	return b
}

// Monthly appends count charges on the same day of consecutive months.
// Days past the end of a shorter month roll back to its last day.
func (b *Builder) Monthly(name, amount, first string, count int) *Builder {
	b.t.Helper()
	start := b.parse(first)
	for i := range count {
		d := addMonthsClamped(start, i)
		b.txns = append(b.txns, b.make(d, name, amount))
	}
	return b
}

// Weekly appends count charges seven days apart.
func (b *Builder) Weekly(name, amount, first string, count int) *Builder {
	b.t.Helper()
	return b.Every(name, amount, first, 7, count)
}

// Every appends count charges spaced days apart.
func (b *Builder) Every(name, amount, first string, days, count int) *Builder {
	b.t.Helper()
	start := b.parse(first)
	for i := range count {
		b.txns = append(b.txns, b.make(start.AddDate(0, 0, i*days), name, amount))
	}
	return b
}

// Build returns the transactions sorted by date, oldest first.
func (b *Builder) Build() []model.Transaction {
	out := make([]model.Transaction, len(b.txns))
	copy(out, b.txns)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// BuildClassified returns Build's transactions as spend, keyed by their raw
// name, for code that sits after the tagger.
func (b *Builder) BuildClassified() []model.ClassifiedTransaction {
	raw := b.Build()
	out := make([]model.ClassifiedTransaction, len(raw))
	for i, tx := range raw {
		out[i] = model.ClassifiedTransaction{
			Transaction:          tx,
			NormalizedName:       tx.Name,
			ConsolidatedCategory: "Other",
			TypeTag:              model.TypeSpend,
			IsSpend:              true,
		}
	}
	return out
}

func (b *Builder) make(d time.Time, name, amount string) model.Transaction {
	b.t.Helper()
	amt, err := decimal.NewFromString(amount)
	if err != nil {
		b.t.Fatalf("testutil: invalid amount %q: %v", amount, err)
	}
	tx := model.Transaction{
		Date:      d.Format(model.DateLayout),
		Name:      name,
		Amount:    amt,
		AccountID: b.accountID,
	}
	if len(b.category) > 0 {
		tx.Category = append([]string(nil), b.category...)
	}
	tx.ID = tx.GenerateHash()
	return tx
}

func (b *Builder) parse(date string) time.Time {
	b.t.Helper()
	d, err := time.Parse(model.DateLayout, date)
	if err != nil {
		b.t.Fatalf("testutil: invalid date %q: %v", date, err)
	}
	return d
}

func addMonthsClamped(t time.Time, n int) time.Time {
	firstOfTarget := time.Date(t.Year(), t.Month()+time.Month(n), 1, 0, 0, 0, 0, t.Location())
	lastDay := firstOfTarget.AddDate(0, 1, -1).Day()
	return firstOfTarget.AddDate(0, 0, min(t.Day(), lastDay)-1)
}
