package classification

import (
	"fmt"
	"strings"

	"github.com/Veraticus/plaid-ask/internal/model"
)

// TypeRule assigns Tag when any keyword occurs in a transaction's combined
// name, category and type text.
type TypeRule struct {
	Name     string
	Tag      model.TypeTag
	Keywords []string
}

// Tagger derives normalized names, categories and cash-flow tags.
type Tagger struct {
	merchants *MerchantClassifier
	rules     []TypeRule
}

// NewTagger returns a tagger using merchants for identities and rules for the
// non-negative amount branch. Transactions no rule matches are spend.
func NewTagger(merchants *MerchantClassifier, rules []TypeRule) (*Tagger, error) {
	if merchants == nil {
		merchants = DefaultMerchantClassifier()
	}
	prepared := make([]TypeRule, 0, len(rules))
	for i, r := range rules {
		if r.Tag == "" {
			return nil, fmt.Errorf("%w: type rule %d (%s) has no tag", ErrInvalidRule, i, r.Name)
		}
		keywords, err := lowerKeywords(r.Keywords)
		if err != nil {
			return nil, fmt.Errorf("type rule %d (%s): %w", i, r.Name, err)
		}
		r.Keywords = keywords
		prepared = append(prepared, r)
	}
	return &Tagger{merchants: merchants, rules: prepared}, nil
}

// DefaultTagger returns a tagger over the default merchant and type tables.
func DefaultTagger() *Tagger {
	t, err := NewTagger(DefaultMerchantClassifier(), DefaultTypeRules())
	if err != nil {
		panic(err)
	}
	return t
}

// Tag classifies a single transaction. The input is copied, never modified.
//
// Negative amounts are money coming back and are always refund_or_inflow.
// Zero and positive amounts go through the keyword rules.
func (t *Tagger) Tag(tx model.Transaction) model.ClassifiedTransaction {
	name := tx.DisplayName()
	identity := t.merchants.Classify(name, tx.Category)

	out := model.ClassifiedTransaction{
		Transaction:          tx,
		NormalizedName:       identity.NormalizedName,
		ConsolidatedCategory: identity.ConsolidatedCategory,
	}
	if tx.Category != nil {
		out.Category = append([]string(nil), tx.Category...)
	}

	if tx.Amount.IsNegative() {
		out.TypeTag = model.TypeRefundOrInflow
		return out
	}

	text := combinedText(name, tx.Category, tx.TransactionType)
	for _, r := range t.rules {
		if containsAny(text, r.Keywords) {
			out.TypeTag = r.Tag
			out.IsSpend = r.Tag == model.TypeSpend
			return out
		}
	}

	out.TypeTag = model.TypeSpend
	out.IsSpend = true
	return out
}

// TagAll tags every transaction, preserving order.
func (t *Tagger) TagAll(txns []model.Transaction) []model.ClassifiedTransaction {
	out := make([]model.ClassifiedTransaction, 0, len(txns))
	for _, tx := range txns {
		out = append(out, t.Tag(tx))
	}
	return out
}

func combinedText(name string, categories []string, txType string) string {
	parts := make([]string, 0, len(categories)+2)
	parts = append(parts, name)
	parts = append(parts, categories...)
	parts = append(parts, txType)
	return strings.ToLower(strings.Join(parts, " "))
}
