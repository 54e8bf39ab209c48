// Package service defines the contracts between the assistant and its
// collaborators.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/plaid-ask/internal/model"
)

// TransactionSource supplies raw bank data. Plaid, fixture files and OFX
// statements all implement it.
type TransactionSource interface {
	// GetTransactions returns transactions dated within [start, end], inclusive.
	GetTransactions(ctx context.Context, start, end time.Time) ([]model.Transaction, error)
	// GetAccounts returns the accounts and their latest balances.
	GetAccounts(ctx context.Context) ([]model.Account, error)
}

// SourceKind names the backend behind a TransactionSource.
type SourceKind string

// Source kinds.
const (
	SourcePlaid     SourceKind = "plaid"
	SourceFixture   SourceKind = "fixture"
	SourceOFX       SourceKind = "ofx"
	SourceSimpleFIN SourceKind = "simplefin"
)

// DateRange is an inclusive window of calendar days.
type DateRange struct {
	Start model.Date `json:"start_date"`
	End   model.Date `json:"end_date"`
}

// NewDateRange truncates start and end to calendar days.
func NewDateRange(start, end time.Time) DateRange {
	return DateRange{Start: model.NewDate(start), End: model.NewDate(end)}
}
