package cli

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/Veraticus/plaid-ask/internal/model"
)

var (
	transactionHeaders  = []string{"Date", "Merchant", "Amount", "Category", "Type", "Account"}
	subscriptionHeaders = []string{"Merchant", "Period", "Average", "Count", "First", "Last"}
)

// RenderTransactions renders enriched transactions as a table.
func RenderTransactions(txns []model.ClassifiedTransaction) string {
	rows := make([][]string, 0, len(txns))
	for _, t := range txns {
		account := t.AccountName
		if account == "" {
			account = t.AccountID
		}
		rows = append(rows, []string{
			t.Date,
			t.NormalizedName,
			t.Amount.StringFixed(2),
			t.ConsolidatedCategory,
			string(t.TypeTag),
			account,
		})
	}
	return renderTable(transactionHeaders, rows, 2)
}

// RenderSubscriptions renders recurring charge candidates as a table.
func RenderSubscriptions(subs []model.SubscriptionCandidate) string {
	rows := make([][]string, 0, len(subs))
	for _, s := range subs {
		rows = append(rows, []string{
			s.Merchant,
			string(s.Period),
			s.AverageAmount.StringFixed(2),
			strconv.Itoa(s.Count),
			s.FirstDate.String(),
			s.LastDate.String(),
		})
	}
	return renderTable(subscriptionHeaders, rows, 2, 3)
}

func renderTable(headers []string, rows [][]string, numericCols ...int) string {
	numeric := make(map[int]bool, len(numericCols))
	for _, c := range numericCols {
		numeric[c] = true
	}

	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(SubtleStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return TableHeaderStyle
			case numeric[col]:
				return NumericCellStyle
			default:
				return TableCellStyle
			}
		}).
		Render()
}
