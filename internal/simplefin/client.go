// Package simplefin provides a transaction source backed by a SimpleFIN
// Bridge access URL.
package simplefin

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/plaid-ask/internal/common"
	"github.com/Veraticus/plaid-ask/internal/model"
	"github.com/Veraticus/plaid-ask/internal/service"
)

// Config holds SimpleFIN settings. AccessURL wins; otherwise SetupToken is
// claimed once and the resulting access URL is saved to StatePath.
type Config struct {
	AccessURL  string `mapstructure:"access_url"`
	SetupToken string `mapstructure:"setup_token"`
	StatePath  string `mapstructure:"state_path"`
}

// SimpleFIN API response types.
type accountSet struct {
	Errors   []string  `json:"errors"`
	Accounts []account `json:"accounts"`
}

type account struct {
	Org              org           `json:"org"`
	ID               string        `json:"id"`
	Name             string        `json:"name"`
	Currency         string        `json:"currency"`
	Balance          string        `json:"balance"`
	AvailableBalance string        `json:"available-balance"`
	Transactions     []transaction `json:"transactions"`
}

type org struct {
	Name   string `json:"name"`
	Domain string `json:"domain"`
}

type transaction struct {
	ID          string `json:"id"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
	Payee       string `json:"payee"`
	Posted      int64  `json:"posted"`
	Pending     bool   `json:"pending"`
}

// Client implements service.TransactionSource against SimpleFIN.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	accessURL  string
}

var _ service.TransactionSource = (*Client)(nil)

// NewClient creates a client, claiming cfg.SetupToken first when no access
// URL is known yet.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	httpClient := &http.Client{Timeout: 30 * time.Second}

	accessURL := strings.TrimSpace(cfg.AccessURL)
	if accessURL == "" {
		if cfg.SetupToken == "" {
			return nil, fmt.Errorf("%w: simplefin.access_url or simplefin.setup_token is required", common.ErrMissingConfig)
		}
		state, err := LoadOrClaim(ctx, httpClient, cfg.SetupToken, cfg.StatePath)
		if err != nil {
			return nil, err
		}
		accessURL = state.AccessURL
	}
	return newClient(httpClient, accessURL)
}

func newClient(httpClient *http.Client, accessURL string) (*Client, error) {
	if _, err := parseHTTPURL(accessURL); err != nil {
		return nil, fmt.Errorf("%w: simplefin access URL: %w", common.ErrInvalidConfig, err)
	}
	return &Client{
		httpClient: httpClient,
		accessURL:  strings.TrimRight(accessURL, "/"),
		logger:     slog.Default().With("component", "simplefin"),
	}, nil
}

// GetTransactions returns posted transactions dated within [startDate, endDate].
// Amounts are flipped to the Plaid sign convention, positive for money out.
func (c *Client) GetTransactions(ctx context.Context, startDate, endDate time.Time) ([]model.Transaction, error) {
	from, to := model.NewDate(startDate), model.NewDate(endDate)

	q := url.Values{}
	q.Set("start-date", strconv.FormatInt(from.Unix(), 10))
	// end-date is exclusive
	q.Set("end-date", strconv.FormatInt(to.AddDays(1).Unix(), 10))

	set, err := c.fetch(ctx, q)
	if err != nil {
		return nil, err
	}

	transactions := make([]model.Transaction, 0)
	for _, acc := range set.Accounts {
		for _, tx := range acc.Transactions {
			if tx.Pending {
				continue
			}
			date := time.Unix(tx.Posted, 0).UTC().Format(model.DateLayout)
			if date < from.String() || date > to.String() {
				continue
			}

			amount, err := decimal.NewFromString(tx.Amount)
			if err != nil {
				return nil, fmt.Errorf("failed to parse amount %q of %s: %w", tx.Amount, tx.ID, err)
			}

			transactions = append(transactions, model.Transaction{
				ID:           acc.ID + "_" + tx.ID,
				Date:         date,
				Name:         strings.TrimSpace(tx.Description),
				MerchantName: strings.TrimSpace(tx.Payee),
				Amount:       amount.Neg(),
				AccountID:    acc.ID,
			})
		}
	}

	c.logger.Debug("Fetched SimpleFIN transactions",
		"start_date", from.String(),
		"end_date", to.String(),
		"count", len(transactions))
	return transactions, nil
}

// GetAccounts returns every account with its balances.
func (c *Client) GetAccounts(ctx context.Context) ([]model.Account, error) {
	q := url.Values{}
	q.Set("balances-only", "1")

	set, err := c.fetch(ctx, q)
	if err != nil {
		return nil, err
	}

	accounts := make([]model.Account, 0, len(set.Accounts))
	for _, acc := range set.Accounts {
		accounts = append(accounts, model.Account{
			ID:           acc.ID,
			Name:         acc.Name,
			OfficialName: strings.TrimSpace(acc.Org.Name + " " + acc.Name),
			Type:         "depository",
			Balances: model.Balances{
				Current:         nullDecimal(acc.Balance),
				Available:       nullDecimal(acc.AvailableBalance),
				ISOCurrencyCode: acc.Currency,
			},
		})
	}
	return accounts, nil
}

func (c *Client) fetch(ctx context.Context, q url.Values) (accountSet, error) {
	endpoint := c.accessURL + "/accounts"
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return accountSet{}, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return accountSet{}, ctxErr
		}
		return accountSet{}, fmt.Errorf("%w: simplefin request failed: %w", common.ErrSourceUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return accountSet{}, fmt.Errorf("%w: simplefin API error: %d - %s",
			common.ErrSourceUnavailable, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var set accountSet
	if err := json.NewDecoder(resp.Body).Decode(&set); err != nil {
		return accountSet{}, fmt.Errorf("failed to decode response: %w", err)
	}
	for _, msg := range set.Errors {
		c.logger.Warn("SimpleFIN reported a problem", "message", msg)
	}
	return set, nil
}

func nullDecimal(s string) decimal.NullDecimal {
	if s == "" {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

func parseHTTPURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("malformed URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%q is not an http(s) URL", redact(raw))
	}
	return u, nil
}

// redact drops credentials embedded in an access URL.
func redact(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	u.User = url.User("***")
	return u.String()
}
