package assistant

import (
	"time"

	"github.com/Veraticus/plaid-ask/internal/daterange"
	"github.com/Veraticus/plaid-ask/internal/llm"
	"github.com/Veraticus/plaid-ask/internal/model"
	"github.com/Veraticus/plaid-ask/internal/service"
)

// Route is how a question was handled.
type Route string

// Routes.
const (
	RouteTransactions Route = "transactions"
	RouteAccounts     Route = "accounts"
	RouteCannotAnswer Route = "cannot_answer"
	RouteNoToolCall   Route = "no_tool_call"
	RouteUnknownTool  Route = "unknown_tool"
)

// Where the effective window came from.
const (
	WindowFromQuestion        = "question"
	WindowSubscriptionDefault = "subscription_default"
	WindowFromRouter          = "router"
	WindowDefault             = "default"
)

// Result is everything produced while answering one question.
type Result struct {
	Decision     llm.RouteDecision  `json:"router"`
	DateRange    *daterange.Range   `json:"parsed_date_range,omitempty"`
	Window       *service.DateRange `json:"effective_date_range,omitempty"`
	Dataset      *model.Dataset     `json:"dataset,omitempty"`
	RequestID    string             `json:"request_id"`
	Question     string             `json:"question"`
	Route        Route              `json:"route"`
	WindowSource string             `json:"window_source,omitempty"`
	SourceKind   service.SourceKind `json:"source_kind,omitempty"`
	Prompt       string             `json:"analysis_prompt,omitempty"`
	Answer       string             `json:"answer"`
	Timings      Timings            `json:"timings"`
}

// Timings are per-stage durations.
type Timings struct {
	Route   time.Duration `json:"route_ns"`
	Fetch   time.Duration `json:"fetch_ns"`
	Enrich  time.Duration `json:"enrich_ns"`
	Analyze time.Duration `json:"analyze_ns"`
	Total   time.Duration `json:"total_ns"`
}

// DebugView is the trimmed summary printed by --debug.
type DebugView struct {
	RouterArgs       map[string]string  `json:"router_args,omitempty"`
	EffectiveRange   *service.DateRange `json:"effective_date_range"`
	RequestID        string             `json:"request_id"`
	Question         string             `json:"question"`
	Route            Route              `json:"route"`
	RouterTool       string             `json:"router_tool,omitempty"`
	WindowSource     string             `json:"window_source,omitempty"`
	SourceError      string             `json:"plaid_error,omitempty"`
	SourceKind       service.SourceKind `json:"source_kind,omitempty"`
	TransactionCount int                `json:"transaction_count"`
	AccountCount     int                `json:"account_count"`
	Subscriptions    int                `json:"recurring_subscriptions"`
}

// Debug returns the trimmed debug view of r.
func (r *Result) Debug() DebugView {
	view := DebugView{
		RequestID:      r.RequestID,
		Question:       r.Question,
		Route:          r.Route,
		RouterTool:     r.Decision.Tool,
		RouterArgs:     r.Decision.Args,
		EffectiveRange: r.Window,
		WindowSource:   r.WindowSource,
		SourceKind:     r.SourceKind,
	}
	if r.Dataset != nil {
		view.TransactionCount = len(r.Dataset.Transactions)
		view.AccountCount = len(r.Dataset.Accounts)
		view.Subscriptions = len(r.Dataset.RecurringSubscriptions)
		view.SourceError = r.Dataset.SourceError
	}
	return view
}

// Enriched is the deterministic part of the pipeline applied to raw
// transactions.
type Enriched struct {
	Transactions           []model.ClassifiedTransaction `json:"transactions"`
	RecurringSubscriptions []model.SubscriptionCandidate `json:"recurring_subscriptions"`
}

// Enrich tags txns and detects recurring subscriptions among them.
func (s *Service) Enrich(txns []model.Transaction) Enriched {
	tagged := s.deps.Tagger.TagAll(txns)
	subs := s.deps.Detector.Detect(tagged)

	s.deps.Metrics.AddTransactions(len(tagged))
	s.deps.Metrics.AddSubscriptions(len(subs))
	return Enriched{Transactions: tagged, RecurringSubscriptions: subs}
}

// Resolve exposes the service's date grammar relative to its clock.
func (s *Service) Resolve(text string) (daterange.Range, bool, error) {
	return s.deps.Resolver.Resolve(text, s.deps.Clock())
}
