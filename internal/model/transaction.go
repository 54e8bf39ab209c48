package model

import (
	"crypto/sha256"
	"fmt"

	"github.com/shopspring/decimal"
)

// Transaction is a raw transaction as supplied by a data source.
// Amount follows the Plaid convention: positive is money leaving the
// account, negative is money coming back in.
type Transaction struct {
	ID              string          `json:"transaction_id,omitempty"`
	Date            string          `json:"date"`
	Name            string          `json:"name"`
	MerchantName    string          `json:"merchant_name,omitempty"`
	AccountID       string          `json:"account_id"`
	TransactionType string          `json:"transaction_type,omitempty"`
	PaymentChannel  string          `json:"payment_channel,omitempty"`
	Amount          decimal.Decimal `json:"amount"`
	Category        []string        `json:"category"`

	// Account metadata attached by MergeAccounts.
	AccountName    string `json:"account_name,omitempty"`
	AccountType    string `json:"account_type,omitempty"`
	AccountSubtype string `json:"account_subtype,omitempty"`
	AccountMask    string `json:"account_mask,omitempty"`
}

// DisplayName returns the merchant text used for classification, preferring
// the raw name and falling back to the merchant name.
func (t Transaction) DisplayName() string {
	if t.Name != "" {
		return t.Name
	}
	return t.MerchantName
}

// GenerateHash creates a stable identifier for sources that do not supply one.
func (t *Transaction) GenerateHash() string {
	data := fmt.Sprintf("%s:%s:%s:%s",
		t.Date,
		t.Amount.StringFixed(2),
		t.DisplayName(),
		t.AccountID)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}

// TypeTag is the cash-flow classification of a transaction.
type TypeTag string

// Type tags.
const (
	TypeSpend             TypeTag = "spend"
	TypeIncome            TypeTag = "income"
	TypeTransferOrSavings TypeTag = "transfer_or_savings"
	TypeRefundOrInflow    TypeTag = "refund_or_inflow"
	TypeOther             TypeTag = "other"
)

// ClassifiedTransaction is a Transaction plus the fields derived from it.
// The derived fields are pure functions of the raw ones.
type ClassifiedTransaction struct {
	Transaction
	NormalizedName       string  `json:"normalized_name"`
	ConsolidatedCategory string  `json:"consolidated_category"`
	TypeTag              TypeTag `json:"type_tag"`
	IsSpend              bool    `json:"is_spend"`
}
