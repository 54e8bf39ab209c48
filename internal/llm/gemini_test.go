package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/Veraticus/plaid-ask/internal/common"
	"github.com/Veraticus/plaid-ask/internal/model"
)

type fakeGenerator struct {
	resp   *genai.GenerateContentResponse
	err    error
	config *genai.GenerateContentConfig
	model  string
	prompt string
	calls  int
}

func (f *fakeGenerator) GenerateContent(_ context.Context, modelName string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.calls++
	f.model = modelName
	f.config = config
	if len(contents) > 0 && len(contents[0].Parts) > 0 {
		f.prompt = contents[0].Parts[0].Text
	}
	return f.resp, f.err
}

func response(parts ...*genai.Part) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Role: "model", Parts: parts}}},
	}
}

func TestGemini_Route(t *testing.T) {
	tests := []struct {
		name       string
		resp       *genai.GenerateContentResponse
		wantTool   string
		wantArgs   map[string]string
		wantRefuse bool
	}{
		{
			name: "transactions tool",
			resp: response(&genai.Part{FunctionCall: &genai.FunctionCall{
				Name: ToolTransactions,
				Args: map[string]any{"start_date": "2025-09-01", "end_date": "2025-09-30"},
			}}),
			wantTool: ToolTransactions,
			wantArgs: map[string]string{"start_date": "2025-09-01", "end_date": "2025-09-30"},
		},
		{
			name:     "accounts tool",
			resp:     response(&genai.Part{FunctionCall: &genai.FunctionCall{Name: ToolAccounts}}),
			wantTool: ToolAccounts,
			wantArgs: map[string]string{},
		},
		{
			name:       "refusal",
			resp:       response(&genai.Part{Text: "CANNOT_ANSWER_WITH_PLAID\n"}),
			wantRefuse: true,
		},
		{
			name: "function call in later candidate",
			resp: &genai.GenerateContentResponse{Candidates: []*genai.Candidate{
				{Content: &genai.Content{Parts: []*genai.Part{{Text: "thinking"}}}},
				{Content: &genai.Content{Parts: []*genai.Part{{FunctionCall: &genai.FunctionCall{Name: ToolAccounts}}}}},
			}},
			wantTool: ToolAccounts,
			wantArgs: map[string]string{},
		},
		{
			name: "empty response",
			resp: &genai.GenerateContentResponse{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &fakeGenerator{resp: tt.resp}
			g := newGemini(gen, Config{})

			decision, err := g.Route(context.Background(), "how much did I spend?")
			require.NoError(t, err)

			assert.Equal(t, tt.wantTool, decision.Tool)
			if tt.wantArgs != nil {
				assert.Equal(t, tt.wantArgs, decision.Args)
			}
			assert.Equal(t, tt.wantRefuse, decision.CannotAnswer())
			assert.Equal(t, DefaultModel, gen.model)
			assert.Equal(t, "how much did I spend?", gen.prompt)
		})
	}
}

func TestGemini_RouteSendsTools(t *testing.T) {
	gen := &fakeGenerator{resp: response(&genai.Part{Text: CannotAnswerToken})}
	g := newGemini(gen, Config{Model: "custom-model"})

	_, err := g.Route(context.Background(), "what is the weather?")
	require.NoError(t, err)

	require.NotNil(t, gen.config)
	assert.Equal(t, "custom-model", gen.model)
	require.Len(t, gen.config.Tools, 1)

	decls := gen.config.Tools[0].FunctionDeclarations
	require.Len(t, decls, 2)
	assert.Equal(t, ToolTransactions, decls[0].Name)
	assert.Equal(t, []string{"start_date", "end_date"}, decls[0].Parameters.Required)
	assert.Equal(t, ToolAccounts, decls[1].Name)
	assert.Equal(t, RouterInstruction, gen.config.SystemInstruction.Parts[0].Text)
}

func TestGemini_RouteError(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("quota exceeded")}
	g := newGemini(gen, Config{})

	_, err := g.Route(context.Background(), "q")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "router call failed")
}

func TestGemini_Analyze(t *testing.T) {
	gen := &fakeGenerator{resp: response(&genai.Part{Text: "  Total spending: $20.50\n"})}
	g := newGemini(gen, Config{})

	data := &model.Dataset{StartDate: "2025-09-01", EndDate: "2025-09-30"}
	analysis, err := g.Analyze(context.Background(), "how much did I spend?", data)
	require.NoError(t, err)

	assert.Equal(t, "Total spending: $20.50", analysis.Answer)
	assert.Equal(t, analysis.Prompt, gen.prompt)
	assert.Contains(t, analysis.Prompt, "start_date: 2025-09-01")
	assert.Equal(t, AnalystInstruction, gen.config.SystemInstruction.Parts[0].Text)
	assert.Empty(t, gen.config.Tools)
}

func TestGemini_AnalyzeEmptyAnswer(t *testing.T) {
	gen := &fakeGenerator{resp: &genai.GenerateContentResponse{}}
	g := newGemini(gen, Config{})

	analysis, err := g.Analyze(context.Background(), "q", &model.Dataset{})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrNoAnswer)
	assert.NotEmpty(t, analysis.Prompt)
}

func TestNewGemini_RequiresKey(t *testing.T) {
	_, err := NewGemini(context.Background(), Config{})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrMissingConfig)
}

func TestStringArgs(t *testing.T) {
	got := stringArgs(map[string]any{
		"start_date": "2025-01-01",
		"count":      float64(3),
		"missing":    nil,
	})
	assert.Equal(t, map[string]string{"start_date": "2025-01-01", "count": "3"}, got)
}

func TestBuildAnalysisPrompt(t *testing.T) {
	data := &model.Dataset{
		StartDate: "2025-09-01",
		EndDate:   "2025-09-30",
		Transactions: []model.ClassifiedTransaction{{
			Transaction: model.Transaction{Name: "STARBUCKS", Amount: decimal.RequireFromString("5.75"), Date: "2025-09-02"},
		}},
		SourceError: "plaid transactions: ITEM_LOGIN_REQUIRED - login required",
	}

	prompt, err := BuildAnalysisPrompt("coffee spend?", data)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(prompt, "You are given a user question and a Plaid-style JSON result.\n\n"))
	assert.Contains(t, prompt, "User question:\ncoffee spend?\n\n")
	assert.Contains(t, prompt, "start_date: 2025-09-01\nend_date:   2025-09-30\n\n")
	assert.Contains(t, prompt, `"name": "STARBUCKS"`)
	assert.Contains(t, prompt, `"plaid_error": "plaid transactions: ITEM_LOGIN_REQUIRED - login required"`)
	assert.True(t, strings.HasSuffix(prompt, "following the formats described in the system instruction.\n"))
}

func TestBuildAnalysisPrompt_NoRange(t *testing.T) {
	prompt, err := BuildAnalysisPrompt("balances?", nil)
	require.NoError(t, err)
	assert.Contains(t, prompt, "start_date: None\nend_date:   None\n")
}

func TestRouteDecision(t *testing.T) {
	d := RouteDecision{Tool: ToolTransactions, Args: map[string]string{"start_date": " 2025-01-01 "}}
	assert.True(t, d.HasToolCall())
	assert.False(t, d.CannotAnswer())
	assert.Equal(t, "2025-01-01", d.Arg("start_date"))
	assert.Empty(t, d.Arg("end_date"))

	assert.True(t, RouteDecision{Text: " CANNOT_ANSWER_WITH_PLAID "}.CannotAnswer())
	assert.False(t, RouteDecision{Text: "CANNOT_ANSWER_WITH_PLAID."}.CannotAnswer())
}

func TestMocks(t *testing.T) {
	router := RouteTo(ToolAccounts, nil)
	d, err := router.Route(context.Background(), "balances?")
	require.NoError(t, err)
	assert.Equal(t, ToolAccounts, d.Tool)
	assert.Equal(t, []string{"balances?"}, router.Questions)

	analyst := &MockAnalyst{}
	a, err := analyst.Analyze(context.Background(), "balances?", &model.Dataset{})
	require.NoError(t, err)
	assert.Equal(t, "mock answer", a.Answer)
	assert.Contains(t, a.Prompt, "balances?")
	require.Len(t, analyst.Calls, 1)
}
