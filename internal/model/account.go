package model

import "github.com/shopspring/decimal"

// Account is a bank account with its latest balances.
type Account struct {
	ID           string   `json:"account_id"`
	Name         string   `json:"name"`
	OfficialName string   `json:"official_name,omitempty"`
	Type         string   `json:"type"`
	Subtype      string   `json:"subtype"`
	Mask         string   `json:"mask,omitempty"`
	Balances     Balances `json:"balances"`
}

// Balances holds the balances reported for an account.
type Balances struct {
	Available       decimal.NullDecimal `json:"available"`
	Current         decimal.NullDecimal `json:"current"`
	ISOCurrencyCode string              `json:"iso_currency_code"`
}

// MergeAccounts returns a copy of txns with account name, type, subtype and
// mask attached from the matching account. Transactions whose account is
// unknown are returned unchanged.
func MergeAccounts(txns []Transaction, accounts []Account) []Transaction {
	byID := make(map[string]Account, len(accounts))
	for _, acc := range accounts {
		if acc.ID == "" {
			continue
		}
		byID[acc.ID] = acc
	}

	merged := make([]Transaction, len(txns))
	for i, tx := range txns {
		if acc, ok := byID[tx.AccountID]; ok {
			tx.AccountType = acc.Type
			tx.AccountSubtype = acc.Subtype
			tx.AccountName = acc.Name
			if tx.AccountName == "" {
				tx.AccountName = acc.OfficialName
			}
			tx.AccountMask = acc.Mask
		}
		merged[i] = tx
	}
	return merged
}
