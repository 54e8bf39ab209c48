package model

import "github.com/shopspring/decimal"

// Period is the cadence of a recurring charge.
type Period string

// Supported periods.
const (
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
)

// SubscriptionCandidate is a merchant whose charges look periodic.
type SubscriptionCandidate struct {
	Merchant      string          `json:"merchant"`
	Period        Period          `json:"period"`
	AverageAmount decimal.Decimal `json:"average_amount"`
	Count         int             `json:"count"`
	FirstDate     Date            `json:"first_date"`
	LastDate      Date            `json:"last_date"`
}
