// Package llm wraps the two hosted model calls the assistant makes: a router
// that picks which data tool answers a question, and an analyst that narrates
// an answer from the fetched dataset.
package llm

import (
	"context"
	"strings"

	"github.com/Veraticus/plaid-ask/internal/model"
)

// Tool names the router is allowed to call.
const (
	ToolTransactions = "get_plaid_transactions"
	ToolAccounts     = "get_plaid_accounts"
)

// CannotAnswerToken is the only plain-text reply the router may produce.
const CannotAnswerToken = "CANNOT_ANSWER_WITH_PLAID"

// Router decides whether a question can be answered from bank data and which
// tool should fetch it.
type Router interface {
	Route(ctx context.Context, question string) (RouteDecision, error)
}

// Analyst turns a dataset into a narrative answer.
type Analyst interface {
	Analyze(ctx context.Context, question string, data *model.Dataset) (Analysis, error)
}

// RouteDecision is the router's verdict. Tool is empty when the model replied
// with text instead of calling a function.
type RouteDecision struct {
	Args map[string]string `json:"args,omitempty"`
	Tool string            `json:"tool,omitempty"`
	Text string            `json:"text,omitempty"`
}

// CannotAnswer reports whether the router refused the question.
func (d RouteDecision) CannotAnswer() bool {
	return strings.TrimSpace(d.Text) == CannotAnswerToken
}

// HasToolCall reports whether the router called any function.
func (d RouteDecision) HasToolCall() bool {
	return d.Tool != ""
}

// Arg returns a trimmed tool argument, or "" when absent.
func (d RouteDecision) Arg(name string) string {
	return strings.TrimSpace(d.Args[name])
}

// Analysis is the analyst's answer together with the exact prompt it saw.
type Analysis struct {
	Prompt string `json:"prompt"`
	Answer string `json:"answer"`
}
