package model

// Dataset is everything the analysis step is allowed to see for one question.
type Dataset struct {
	StartDate              string                  `json:"start_date,omitempty"`
	EndDate                string                  `json:"end_date,omitempty"`
	Accounts               []Account               `json:"accounts"`
	Transactions           []ClassifiedTransaction `json:"transactions"`
	RecurringSubscriptions []SubscriptionCandidate `json:"recurring_subscriptions"`
	SourceError            string                  `json:"plaid_error,omitempty"`
}
