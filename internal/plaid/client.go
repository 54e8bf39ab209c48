// Package plaid provides a transaction source backed by the Plaid API.
package plaid

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/plaid/plaid-go/v20/plaid"
	"github.com/shopspring/decimal"

	"github.com/Veraticus/plaid-ask/internal/common"
	"github.com/Veraticus/plaid-ask/internal/model"
	"github.com/Veraticus/plaid-ask/internal/service"
)

// pageSize is the largest page /transactions/get will return.
const pageSize = int32(500)

// Config holds Plaid API configuration.
type Config struct {
	ClientID    string `mapstructure:"client_id"`
	Secret      string `mapstructure:"secret"`
	Environment string `mapstructure:"env"` // sandbox or production
	AccessToken string `mapstructure:"access_token"`
}

// Validate ensures all required fields are present.
func (c *Config) Validate() error {
	if c.ClientID == "" {
		return fmt.Errorf("%w: plaid client ID is required", common.ErrMissingConfig)
	}
	if c.Secret == "" {
		return fmt.Errorf("%w: plaid secret is required", common.ErrMissingConfig)
	}
	if c.Environment == "" {
		return fmt.Errorf("%w: plaid environment is required", common.ErrMissingConfig)
	}

	validEnvs := map[string]bool{
		"sandbox":    true,
		"production": true,
	}
	if !validEnvs[c.Environment] {
		return fmt.Errorf("%w: invalid Plaid environment %q: must be sandbox or production", common.ErrInvalidConfig, c.Environment)
	}

	return nil
}

// SourceError is a failure reported by Plaid, or a request that could not be
// made at all. It matches common.ErrSourceUnavailable.
type SourceError struct {
	Op        string `json:"op"`
	Code      string `json:"error_code"`
	Type      string `json:"error_type,omitempty"`
	Message   string `json:"error_message"`
	RequestID string `json:"request_id,omitempty"`
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("plaid %s: %s - %s", e.Op, e.Code, e.Message)
}

func (e *SourceError) Unwrap() error {
	return common.ErrSourceUnavailable
}

// api is the slice of the Plaid API the client uses.
type api interface {
	TransactionsGet(ctx context.Context, req plaid.TransactionsGetRequest) (plaid.TransactionsGetResponse, error)
	AccountsBalanceGet(ctx context.Context, req plaid.AccountsBalanceGetRequest) ([]plaid.AccountBase, error)
}

type apiClient struct {
	client *plaid.APIClient
}

func (a apiClient) TransactionsGet(ctx context.Context, req plaid.TransactionsGetRequest) (plaid.TransactionsGetResponse, error) {
	resp, _, err := a.client.PlaidApi.TransactionsGet(ctx).TransactionsGetRequest(req).Execute()
	return resp, err
}

func (a apiClient) AccountsBalanceGet(ctx context.Context, req plaid.AccountsBalanceGetRequest) ([]plaid.AccountBase, error) {
	resp, _, err := a.client.PlaidApi.AccountsBalanceGet(ctx).AccountsBalanceGetRequest(req).Execute()
	if err != nil {
		return nil, err
	}
	return resp.GetAccounts(), nil
}

// Client implements service.TransactionSource against Plaid.
type Client struct {
	api         api
	logger      *slog.Logger
	onPage      func(fetched, total int)
	accessToken string
}

// NewClient creates a new Plaid client with the given configuration. A
// missing access token is not a construction error; requests report it as a
// SourceError instead.
func NewClient(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	configuration := plaid.NewConfiguration()
	configuration.AddDefaultHeader("PLAID-CLIENT-ID", cfg.ClientID)
	configuration.AddDefaultHeader("PLAID-SECRET", cfg.Secret)

	switch cfg.Environment {
	case "sandbox":
		configuration.UseEnvironment(plaid.Sandbox)
	case "production":
		configuration.UseEnvironment(plaid.Production)
	}

	return newClient(apiClient{client: plaid.NewAPIClient(configuration)}, cfg.AccessToken), nil
}

func newClient(a api, accessToken string) *Client {
	return &Client{
		api:         a,
		accessToken: accessToken,
		logger:      slog.Default().With("component", "plaid"),
	}
}

// OnPage registers fn to be called after every transactions page with the
// running count and Plaid's reported total.
func (c *Client) OnPage(fn func(fetched, total int)) {
	c.onPage = fn
}

// GetTransactions fetches transactions from Plaid within the specified date range.
func (c *Client) GetTransactions(ctx context.Context, startDate, endDate time.Time) ([]model.Transaction, error) {
	if startDate.After(endDate) {
		return nil, fmt.Errorf("start date %s is after end date %s",
			startDate.Format(model.DateLayout), endDate.Format(model.DateLayout))
	}
	if c.accessToken == "" {
		return nil, missingTokenError("transactions/get")
	}

	c.logger.Info("Fetching transactions from Plaid",
		"start_date", startDate.Format(model.DateLayout),
		"end_date", endDate.Format(model.DateLayout))

	var all []plaid.Transaction
	offset := int32(0)

	for {
		request := plaid.NewTransactionsGetRequest(
			c.accessToken,
			startDate.Format(model.DateLayout),
			endDate.Format(model.DateLayout),
		)
		request.SetOptions(plaid.TransactionsGetRequestOptions{
			Count:  plaid.PtrInt32(pageSize),
			Offset: plaid.PtrInt32(offset),
		})

		resp, err := c.api.TransactionsGet(ctx, *request)
		if err != nil {
			return nil, toSourceError("transactions/get", err)
		}

		page := resp.GetTransactions()
		total := int(resp.GetTotalTransactions())
		all = append(all, page...)

		c.logger.Debug("Fetched transaction batch",
			"count", len(page),
			"offset", offset,
			"total", total)

		if c.onPage != nil {
			c.onPage(len(all), total)
		}

		if len(page) == 0 || len(page) < int(pageSize) || len(all) >= total {
			break
		}
		offset += int32(len(page))
	}

	c.logger.Info("Fetched all transactions", "count", len(all))

	transactions := make([]model.Transaction, 0, len(all))
	for _, pt := range all {
		transactions = append(transactions, mapPlaidTransaction(pt))
	}
	return transactions, nil
}

// GetAccounts fetches accounts with their live balances.
func (c *Client) GetAccounts(ctx context.Context) ([]model.Account, error) {
	if c.accessToken == "" {
		return nil, missingTokenError("accounts/balance/get")
	}

	c.logger.Info("Fetching accounts from Plaid")

	accounts, err := c.api.AccountsBalanceGet(ctx, *plaid.NewAccountsBalanceGetRequest(c.accessToken))
	if err != nil {
		return nil, toSourceError("accounts/balance/get", err)
	}

	c.logger.Info("Fetched accounts", "count", len(accounts))

	out := make([]model.Account, 0, len(accounts))
	for _, acc := range accounts {
		out = append(out, mapPlaidAccount(acc))
	}
	return out, nil
}

// mapPlaidTransaction converts a Plaid transaction to our internal model.
// Plaid's sign convention (positive is money out) is kept as is.
func mapPlaidTransaction(pt plaid.Transaction) model.Transaction {
	transactionType := ""
	if channel := pt.GetPaymentChannel(); channel != "" {
		switch channel {
		case "online":
			transactionType = "ONLINE"
		case "in store", "in_store":
			transactionType = "POS"
		default:
			transactionType = "OTHER"
		}
	}
	if pt.HasCheckNumber() && pt.GetCheckNumber() != "" {
		transactionType = "CHECK"
	}

	tx := model.Transaction{
		ID:              pt.GetTransactionId(),
		Date:            pt.GetDate(),
		Name:            pt.GetName(),
		MerchantName:    cleanMerchantName(pt.GetMerchantName()),
		AccountID:       pt.GetAccountId(),
		Amount:          decimal.NewFromFloat(pt.GetAmount()),
		Category:        pt.GetCategory(),
		TransactionType: transactionType,
		PaymentChannel:  string(pt.GetPaymentChannel()),
	}
	if tx.ID == "" {
		tx.ID = tx.GenerateHash()
	}
	return tx
}

func mapPlaidAccount(acc plaid.AccountBase) model.Account {
	balances := acc.GetBalances()

	out := model.Account{
		ID:           acc.GetAccountId(),
		Name:         acc.GetName(),
		OfficialName: acc.GetOfficialName(),
		Type:         string(acc.GetType()),
		Subtype:      string(acc.GetSubtype()),
		Mask:         acc.GetMask(),
		Balances: model.Balances{
			ISOCurrencyCode: balances.GetIsoCurrencyCode(),
		},
	}
	if v, ok := balances.GetAvailableOk(); ok && v != nil {
		out.Balances.Available = decimal.NewNullDecimal(decimal.NewFromFloat(*v))
	}
	if v, ok := balances.GetCurrentOk(); ok && v != nil {
		out.Balances.Current = decimal.NewNullDecimal(decimal.NewFromFloat(*v))
	}
	return out
}

// cleanMerchantName drops trailing reference numbers and company suffixes
// and collapses whitespace. Case is preserved.
func cleanMerchantName(name string) string {
	parts := strings.Fields(name)
	if len(parts) > 1 {
		lastPart := parts[len(parts)-1]
		// A long run of digits at the end is a reference number.
		if len(lastPart) > 5 && isAllDigits(lastPart) {
			parts = parts[:len(parts)-1]
		}
	}
	name = strings.Join(parts, " ")

	suffixes := []string{
		" llc",
		" inc",
		" corp",
		" corporation",
		" company",
		" co",
		" ltd",
		" limited",
	}

	changed := true
	for changed {
		changed = false
		for _, suffix := range suffixes {
			if len(name) > len(suffix) && strings.EqualFold(name[len(name)-len(suffix):], suffix) {
				name = strings.TrimSpace(name[:len(name)-len(suffix)])
				changed = true
			}
		}
	}

	return strings.TrimSpace(name)
}

// isAllDigits checks if a string contains only digits.
func isAllDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func missingTokenError(op string) error {
	return &SourceError{
		Op:      op,
		Code:    "MISSING_ACCESS_TOKEN",
		Message: "PLAID_ACCESS_TOKEN is not set",
	}
}

// toSourceError decodes a Plaid API error body when there is one.
func toSourceError(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("plaid %s: %w", op, err)
	}

	plaidErr, convErr := plaid.ToPlaidError(err)
	if convErr != nil {
		return &SourceError{Op: op, Code: "REQUEST_FAILED", Message: err.Error()}
	}
	return &SourceError{
		Op:        op,
		Code:      plaidErr.GetErrorCode(),
		Type:      string(plaidErr.GetErrorType()),
		Message:   plaidErr.GetErrorMessage(),
		RequestID: plaidErr.GetRequestId(),
	}
}

// Ensure Client implements the source interface.
var _ service.TransactionSource = (*Client)(nil)
