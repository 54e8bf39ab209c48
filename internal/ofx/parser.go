// Package ofx reads OFX/QFX statements exported by banks and serves them as
// a transaction source.
package ofx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/aclindsa/ofxgo"
	"github.com/shopspring/decimal"

	"github.com/Veraticus/plaid-ask/internal/model"
	"github.com/Veraticus/plaid-ask/internal/service"
)

var (
	severityRegex = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	tagFixRegex   = regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
)

// Statement is the parsed content of one OFX file.
type Statement struct {
	Accounts     []model.Account
	Transactions []model.Transaction
}

// Parser implements OFX/QFX file parsing.
type Parser struct {
	logger *slog.Logger
}

// NewParser creates a new OFX parser.
func NewParser() *Parser {
	return &Parser{logger: slog.Default().With("component", "ofx")}
}

// preprocessOFX fixes common formatting issues in OFX files.
func (p *Parser) preprocessOFX(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")

	// SEVERITY must be upper case.
	content = severityRegex.ReplaceAllStringFunc(content, strings.ToUpper)

	// Some SGML exports drop the closing bracket on bare opening tags.
	return tagFixRegex.ReplaceAllString(content, "$1>")
}

// Parse reads an OFX/QFX document. Amounts are converted to the Plaid
// convention, so a debit (negative in OFX) becomes a positive outflow.
func (p *Parser) Parse(ctx context.Context, reader io.Reader) (*Statement, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(p.preprocessOFX(string(content))))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX file: %w", err)
	}

	stmt := &Statement{}
	var bankStmts, ccStmts int

	for _, msg := range resp.Bank {
		if s, ok := msg.(*ofxgo.StatementResponse); ok {
			bankStmts++
			accountID := string(s.BankAcctFrom.AcctID)
			stmt.Accounts = append(stmt.Accounts, bankAccount(s))
			if s.BankTranList != nil {
				stmt.Transactions = append(stmt.Transactions, p.convertAll(s.BankTranList.Transactions, accountID)...)
			}
		}
	}

	for _, msg := range resp.CreditCard {
		if s, ok := msg.(*ofxgo.CCStatementResponse); ok {
			ccStmts++
			accountID := string(s.CCAcctFrom.AcctID)
			stmt.Accounts = append(stmt.Accounts, creditAccount(s))
			if s.BankTranList != nil {
				stmt.Transactions = append(stmt.Transactions, p.convertAll(s.BankTranList.Transactions, accountID)...)
			}
		}
	}

	p.logger.Info("Parsed OFX file",
		"total_transactions", len(stmt.Transactions),
		"bank_statements", bankStmts,
		"cc_statements", ccStmts)

	return stmt, nil
}

func (p *Parser) convertAll(txns []ofxgo.Transaction, accountID string) []model.Transaction {
	out := make([]model.Transaction, 0, len(txns))
	for _, ofxTx := range txns {
		out = append(out, p.convertTransaction(ofxTx, accountID))
	}
	return out
}

// convertTransaction converts an OFX transaction to our model.
func (p *Parser) convertTransaction(ofxTx ofxgo.Transaction, accountID string) model.Transaction {
	tx := model.Transaction{
		ID:              string(ofxTx.FiTID),
		Date:            ofxTx.DtPosted.Time.Format(model.DateLayout),
		Name:            strings.TrimSpace(string(ofxTx.Name)),
		MerchantName:    p.extractMerchantName(ofxTx),
		Amount:          toDecimal(ofxTx.TrnAmt).Neg(),
		AccountID:       accountID,
		TransactionType: fmt.Sprintf("%v", ofxTx.TrnType), // e.g., DEBIT, CHECK, PAYMENT, ATM
	}

	// OFX has no categories; a few transaction types imply one.
	switch tx.TransactionType {
	case "INT":
		tx.Category = []string{"Income", "Interest"}
	case "FEE":
		tx.Category = []string{"Bank Fees"}
	case "ATM":
		tx.Category = []string{"Cash & ATM"}
	}

	if tx.ID == "" {
		tx.ID = tx.GenerateHash()
	}
	return tx
}

// extractMerchantName tries to get a clean merchant name from OFX data.
func (p *Parser) extractMerchantName(tx ofxgo.Transaction) string {
	if tx.Payee != nil && tx.Payee.Name != "" {
		return string(tx.Payee.Name)
	}

	name := string(tx.Name)
	if tx.Memo != "" && isGenericDescription(name) {
		name = string(tx.Memo)
	}
	name = strings.TrimSpace(name)

	prefixes := []string{
		"POS PURCHASE ",
		"PURCHASE AUTHORIZED ON ",
		"DEBIT CARD PURCHASE ",
		"ACH DEBIT ",
		"CHECK CARD ",
		"VISA PURCHASE ",
		"MC PURCHASE ",
		"DEBIT PURCHASE ",
	}
	for _, prefix := range prefixes {
		if strings.HasPrefix(strings.ToUpper(name), prefix) {
			name = name[len(prefix):]
			break
		}
	}

	// MM/DD date stamps at the start.
	if len(name) > 5 && name[2] == '/' && name[5] == ' ' {
		name = strings.TrimSpace(name[6:])
	}

	return name
}

// isGenericDescription checks if a transaction name is too generic.
func isGenericDescription(name string) bool {
	generic := []string{
		"DEBIT",
		"CREDIT",
		"PURCHASE",
		"PAYMENT",
		"POS TRANSACTION",
		"CARD PURCHASE",
	}

	upperName := strings.ToUpper(name)
	for _, g := range generic {
		if upperName == g {
			return true
		}
	}
	return false
}

func bankAccount(s *ofxgo.StatementResponse) model.Account {
	acctType := strings.ToLower(s.BankAcctFrom.AcctType.String())
	acc := model.Account{
		ID:      string(s.BankAcctFrom.AcctID),
		Name:    titleWord(acctType),
		Type:    "depository",
		Subtype: acctType,
		Mask:    mask(string(s.BankAcctFrom.AcctID)),
		Balances: model.Balances{
			Current:         decimal.NewNullDecimal(toDecimal(s.BalAmt)),
			ISOCurrencyCode: s.CurDef.String(),
		},
	}
	if s.AvailBalAmt != nil {
		acc.Balances.Available = decimal.NewNullDecimal(toDecimal(*s.AvailBalAmt))
	}
	return acc
}

// creditAccount reports the balance as the amount owed, as Plaid does.
func creditAccount(s *ofxgo.CCStatementResponse) model.Account {
	acc := model.Account{
		ID:      string(s.CCAcctFrom.AcctID),
		Name:    "Credit Card",
		Type:    "credit",
		Subtype: "credit card",
		Mask:    mask(string(s.CCAcctFrom.AcctID)),
		Balances: model.Balances{
			Current:         decimal.NewNullDecimal(toDecimal(s.BalAmt).Neg()),
			ISOCurrencyCode: s.CurDef.String(),
		},
	}
	if s.AvailBalAmt != nil {
		acc.Balances.Available = decimal.NewNullDecimal(toDecimal(*s.AvailBalAmt))
	}
	return acc
}

func toDecimal(a ofxgo.Amount) decimal.Decimal {
	d, err := decimal.NewFromString(a.FloatString(4))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func mask(accountID string) string {
	if len(accountID) <= 4 {
		return accountID
	}
	return accountID[len(accountID)-4:]
}

func titleWord(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// Source serves a parsed statement. Transactions are filtered by date.
type Source struct {
	stmt *Statement
}

// NewSource wraps an already parsed statement.
func NewSource(stmt *Statement) *Source {
	return &Source{stmt: stmt}
}

// Open parses the OFX file at path.
func Open(ctx context.Context, path string) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open OFX file: %w", err)
	}
	defer func() { _ = f.Close() }()

	stmt, err := NewParser().Parse(ctx, f)
	if err != nil {
		return nil, err
	}
	return NewSource(stmt), nil
}

// GetTransactions returns the statement's transactions posted within [start, end].
func (s *Source) GetTransactions(ctx context.Context, start, end time.Time) ([]model.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	from, to := model.NewDate(start), model.NewDate(end)
	out := make([]model.Transaction, 0, len(s.stmt.Transactions))
	for _, tx := range s.stmt.Transactions {
		d, err := model.ParseDate(tx.Date)
		if err != nil || d.Before(from.Time) || d.After(to.Time) {
			continue
		}
		out = append(out, tx)
	}
	return out, nil
}

// GetAccounts returns the accounts named in the statement.
func (s *Source) GetAccounts(ctx context.Context) ([]model.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]model.Account, len(s.stmt.Accounts))
	copy(out, s.stmt.Accounts)
	return out, nil
}

var _ service.TransactionSource = (*Source)(nil)
