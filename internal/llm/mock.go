package llm

import (
	"context"
	"sync"

	"github.com/Veraticus/plaid-ask/internal/model"
)

// MockRouter is a Router for tests.
type MockRouter struct {
	RouteFn func(ctx context.Context, question string) (RouteDecision, error)

	Questions []string
	mu        sync.Mutex
}

// Route implements Router.
func (m *MockRouter) Route(ctx context.Context, question string) (RouteDecision, error) {
	m.mu.Lock()
	m.Questions = append(m.Questions, question)
	m.mu.Unlock()

	if m.RouteFn != nil {
		return m.RouteFn(ctx, question)
	}
	return RouteDecision{Text: CannotAnswerToken}, nil
}

// RouteTo returns a MockRouter that always calls tool with args.
func RouteTo(tool string, args map[string]string) *MockRouter {
	return &MockRouter{
		RouteFn: func(context.Context, string) (RouteDecision, error) {
			return RouteDecision{Tool: tool, Args: args}, nil
		},
	}
}

// MockAnalyst is an Analyst for tests. Without AnalyzeFn it builds the real
// prompt and answers with a fixed string.
type MockAnalyst struct {
	AnalyzeFn func(ctx context.Context, question string, data *model.Dataset) (Analysis, error)

	Calls []AnalyzeCall
	mu    sync.Mutex
}

// AnalyzeCall records the arguments of an Analyze call.
type AnalyzeCall struct {
	Data     *model.Dataset
	Question string
}

// Analyze implements Analyst.
func (m *MockAnalyst) Analyze(ctx context.Context, question string, data *model.Dataset) (Analysis, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, AnalyzeCall{Question: question, Data: data})
	m.mu.Unlock()

	if m.AnalyzeFn != nil {
		return m.AnalyzeFn(ctx, question, data)
	}

	prompt, err := BuildAnalysisPrompt(question, data)
	if err != nil {
		return Analysis{}, err
	}
	return Analysis{Prompt: prompt, Answer: "mock answer"}, nil
}

var (
	_ Router  = (*MockRouter)(nil)
	_ Analyst = (*MockAnalyst)(nil)
)
