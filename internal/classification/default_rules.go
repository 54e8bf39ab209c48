package classification

import "github.com/Veraticus/plaid-ask/internal/model"

// DefaultMerchantRules returns the built-in merchant table. Order is
// precedence: a name containing both "uber" and "eats" is Transportation
// because the uber rule is reached before anything food related.
func DefaultMerchantRules() []MerchantRule {
	return []MerchantRule{
		{Name: "starbucks", Keywords: []string{"starbucks"}, NormalizedName: "Starbucks", Category: "Coffee"},
		{Name: "mcdonalds", Keywords: []string{"mcdonald"}, NormalizedName: "McDonald's", Category: "Fast Food"},
		{Name: "kfc", Keywords: []string{"kfc"}, NormalizedName: "KFC", Category: "Fast Food"},
		{Name: "whole_foods", Keywords: []string{"whole foods"}, NormalizedName: "Whole Foods", Category: "Groceries"},
		{Name: "rideshare", Keywords: []string{"uber", "lyft"}, NormalizedName: "Uber/Lyft", Category: "Transportation"},
		{Name: "payroll", Keywords: []string{"gusto pay", "payroll"}, NormalizedName: "Payroll", Category: "Income"},
		{Name: "deposit", Keywords: []string{"cd deposit", "deposit"}, NormalizedName: "Deposit", Category: "Savings/Deposit"},
		{Name: "automatic_payment", Keywords: []string{"automatic payment"}, NormalizedName: "Automatic Payment", Category: "Bill/Loan Payment"},
		{Name: "touchstone", Keywords: []string{"touchstone"}, NormalizedName: "Touchstone Climbing", Category: "Fitness"},
		{Name: "airline", Keywords: []string{"united airlines", "delta", "american airlines"}, NormalizedName: "Airline", Category: "Travel"},
		{Name: "sparkfun", Keywords: []string{"sparkfun"}, NormalizedName: "SparkFun", Category: "Electronics/Hobby"},
		{Name: "bike_shop", Keywords: []string{"madison bicycle"}, NormalizedName: "Bike Shop", Category: "Sporting Goods"},
	}
}

// DefaultTypeRules returns the cash-flow keyword checks applied to
// non-negative amounts, highest priority first.
func DefaultTypeRules() []TypeRule {
	return []TypeRule{
		{Name: "income", Tag: model.TypeIncome, Keywords: []string{"gusto pay", "payroll", "salary", "income"}},
		{Name: "refund", Tag: model.TypeRefundOrInflow, Keywords: []string{"refund", "reversal"}},
		{Name: "transfer", Tag: model.TypeTransferOrSavings, Keywords: []string{"transfer", "cd deposit", "deposit", "payment", "p2p"}},
	}
}
