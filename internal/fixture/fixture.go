// Package fixture serves bank data from a YAML file instead of a live
// institution. It backs offline use and demos.
package fixture

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/Veraticus/plaid-ask/internal/common"
	"github.com/Veraticus/plaid-ask/internal/model"
	"github.com/Veraticus/plaid-ask/internal/service"
)

//go:embed default.yaml
var defaultDataset []byte

type file struct {
	Accounts     []accountRecord     `yaml:"accounts"`
	Transactions []transactionRecord `yaml:"transactions"`
	IgnoreRange  bool                `yaml:"ignore_range"`
}

type accountRecord struct {
	ID           string        `yaml:"account_id"`
	Name         string        `yaml:"name"`
	OfficialName string        `yaml:"official_name"`
	Type         string        `yaml:"type"`
	Subtype      string        `yaml:"subtype"`
	Mask         string        `yaml:"mask"`
	Balances     balanceRecord `yaml:"balances"`
}

type balanceRecord struct {
	Available       *float64 `yaml:"available"`
	Current         *float64 `yaml:"current"`
	ISOCurrencyCode string   `yaml:"iso_currency_code"`
}

type transactionRecord struct {
	ID              string   `yaml:"transaction_id"`
	Date            string   `yaml:"date"`
	Name            string   `yaml:"name"`
	MerchantName    string   `yaml:"merchant_name"`
	AccountID       string   `yaml:"account_id"`
	TransactionType string   `yaml:"transaction_type"`
	PaymentChannel  string   `yaml:"payment_channel"`
	Category        []string `yaml:"category"`
	Amount          float64  `yaml:"amount"`
}

// Source is an in-memory transaction source.
type Source struct {
	accounts     []model.Account
	transactions []model.Transaction
	ignoreRange  bool
}

// Default returns the embedded demo dataset.
func Default() *Source {
	src, err := Parse(defaultDataset)
	if err != nil {
		panic(fmt.Sprintf("embedded fixture: %v", err))
	}
	return src
}

// LoadFile reads a dataset from path.
func LoadFile(path string) (*Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture %s: %w", path, err)
	}
	src, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("fixture %s: %w", path, err)
	}
	return src, nil
}

// Parse decodes a YAML dataset. Transaction dates must be YYYY-MM-DD.
func Parse(data []byte) (*Source, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidConfig, err)
	}

	src := &Source{
		ignoreRange:  f.IgnoreRange,
		accounts:     make([]model.Account, 0, len(f.Accounts)),
		transactions: make([]model.Transaction, 0, len(f.Transactions)),
	}

	for _, a := range f.Accounts {
		src.accounts = append(src.accounts, model.Account{
			ID:           a.ID,
			Name:         a.Name,
			OfficialName: a.OfficialName,
			Type:         a.Type,
			Subtype:      a.Subtype,
			Mask:         a.Mask,
			Balances: model.Balances{
				Available:       nullDecimal(a.Balances.Available),
				Current:         nullDecimal(a.Balances.Current),
				ISOCurrencyCode: a.Balances.ISOCurrencyCode,
			},
		})
	}

	for i, r := range f.Transactions {
		if _, err := model.ParseDate(r.Date); err != nil {
			return nil, fmt.Errorf("%w: transaction %d: %w", common.ErrInvalidConfig, i, err)
		}
		tx := model.Transaction{
			ID:              r.ID,
			Date:            r.Date,
			Name:            r.Name,
			MerchantName:    r.MerchantName,
			AccountID:       r.AccountID,
			TransactionType: r.TransactionType,
			PaymentChannel:  r.PaymentChannel,
			Amount:          decimal.NewFromFloat(r.Amount),
			Category:        r.Category,
		}
		if tx.ID == "" {
			tx.ID = tx.GenerateHash()
		}
		src.transactions = append(src.transactions, tx)
	}

	return src, nil
}

// GetTransactions returns the transactions dated within [start, end]. A
// dataset with ignore_range set returns everything.
func (s *Source) GetTransactions(ctx context.Context, start, end time.Time) ([]model.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	from, to := model.NewDate(start), model.NewDate(end)
	out := make([]model.Transaction, 0, len(s.transactions))
	for _, tx := range s.transactions {
		if !s.ignoreRange {
			d, _ := model.ParseDate(tx.Date)
			if d.Before(from.Time) || d.After(to.Time) {
				continue
			}
		}
		out = append(out, copyTransaction(tx))
	}
	return out, nil
}

// GetAccounts returns every account in the dataset.
func (s *Source) GetAccounts(ctx context.Context) ([]model.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]model.Account, len(s.accounts))
	copy(out, s.accounts)
	return out, nil
}

func copyTransaction(tx model.Transaction) model.Transaction {
	if tx.Category != nil {
		tx.Category = append([]string(nil), tx.Category...)
	}
	return tx
}

func nullDecimal(v *float64) decimal.NullDecimal {
	if v == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(decimal.NewFromFloat(*v))
}

var _ service.TransactionSource = (*Source)(nil)
