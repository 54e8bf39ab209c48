// Package classification assigns merchant identities and cash-flow tags to
// transactions using ordered keyword tables.
package classification

import (
	"errors"
	"fmt"
	"strings"
)

// OtherCategory is used when neither a rule nor the source supplies a category.
const OtherCategory = "Other"

// ErrInvalidRule is returned when a rule table cannot be used.
var ErrInvalidRule = errors.New("invalid classification rule")

// MerchantRule maps any of its keywords, found as a substring of the
// lower-cased merchant text, to a canonical identity.
type MerchantRule struct {
	Name           string   `json:"name" yaml:"name" mapstructure:"name"`
	NormalizedName string   `json:"normalized_name" yaml:"normalized_name" mapstructure:"normalized_name"`
	Category       string   `json:"category" yaml:"category" mapstructure:"category"`
	Keywords       []string `json:"keywords" yaml:"keywords" mapstructure:"keywords"`
}

// MerchantIdentity is the outcome of classifying a merchant.
type MerchantIdentity struct {
	NormalizedName       string
	ConsolidatedCategory string
	Rule                 string
}

// MerchantClassifier evaluates merchant rules top to bottom.
type MerchantClassifier struct {
	rules []MerchantRule
}

// NewMerchantClassifier validates rules and returns a classifier that keeps
// their order. Keywords are matched case-insensitively.
func NewMerchantClassifier(rules []MerchantRule) (*MerchantClassifier, error) {
	prepared := make([]MerchantRule, 0, len(rules))
	for i, r := range rules {
		if r.NormalizedName == "" || r.Category == "" {
			return nil, fmt.Errorf("%w: merchant rule %d (%s) needs a normalized name and category", ErrInvalidRule, i, r.Name)
		}
		keywords, err := lowerKeywords(r.Keywords)
		if err != nil {
			return nil, fmt.Errorf("merchant rule %d (%s): %w", i, r.Name, err)
		}
		r.Keywords = keywords
		if r.Name == "" {
			r.Name = r.NormalizedName
		}
		prepared = append(prepared, r)
	}
	return &MerchantClassifier{rules: prepared}, nil
}

// DefaultMerchantClassifier returns a classifier over DefaultMerchantRules.
func DefaultMerchantClassifier() *MerchantClassifier {
	c, err := NewMerchantClassifier(DefaultMerchantRules())
	if err != nil {
		panic(err)
	}
	return c
}

// WithRules returns a classifier that checks extra before the receiver's own rules.
func (c *MerchantClassifier) WithRules(extra []MerchantRule) (*MerchantClassifier, error) {
	if len(extra) == 0 {
		return c, nil
	}
	head, err := NewMerchantClassifier(extra)
	if err != nil {
		return nil, err
	}
	combined := make([]MerchantRule, 0, len(head.rules)+len(c.rules))
	combined = append(combined, head.rules...)
	combined = append(combined, c.rules...)
	return &MerchantClassifier{rules: combined}, nil
}

// Rules returns a copy of the rule table in evaluation order.
func (c *MerchantClassifier) Rules() []MerchantRule {
	out := make([]MerchantRule, len(c.rules))
	copy(out, c.rules)
	return out
}

// Classify returns the identity of name. When no rule matches, the trimmed
// name is kept and the first category hint (or Other) becomes the category.
func (c *MerchantClassifier) Classify(name string, categories []string) MerchantIdentity {
	lowered := strings.ToLower(name)

	for _, r := range c.rules {
		if containsAny(lowered, r.Keywords) {
			return MerchantIdentity{
				NormalizedName:       r.NormalizedName,
				ConsolidatedCategory: r.Category,
				Rule:                 r.Name,
			}
		}
	}

	category := OtherCategory
	if len(categories) > 0 {
		category = categories[0]
	}
	return MerchantIdentity{
		NormalizedName:       strings.TrimSpace(name),
		ConsolidatedCategory: category,
	}
}

func lowerKeywords(keywords []string) ([]string, error) {
	if len(keywords) == 0 {
		return nil, fmt.Errorf("%w: no keywords", ErrInvalidRule)
	}
	out := make([]string, 0, len(keywords))
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" {
			return nil, fmt.Errorf("%w: empty keyword", ErrInvalidRule)
		}
		out = append(out, k)
	}
	return out, nil
}

func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}
