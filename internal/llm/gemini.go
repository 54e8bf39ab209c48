package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/Veraticus/plaid-ask/internal/common"
	"github.com/Veraticus/plaid-ask/internal/model"
)

// DefaultModel is used when Config.Model is empty.
const DefaultModel = "gemini-2.5-flash"

// Config holds settings for the Gemini router and analyst.
type Config struct {
	APIKey            string        `mapstructure:"api_key"`
	Model             string        `mapstructure:"model"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
	Timeout           time.Duration `mapstructure:"timeout"`
}

// generator is the subset of *genai.Models used here.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Gemini implements Router and Analyst on the Gemini API.
type Gemini struct {
	models  generator
	limiter *rateLimiter
	logger  *slog.Logger
	model   string
	timeout time.Duration
}

// NewGemini creates a Gemini client. An API key is required.
func NewGemini(ctx context.Context, cfg Config) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key: %w", common.ErrMissingConfig)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return newGemini(client.Models, cfg), nil
}

func newGemini(models generator, cfg Config) *Gemini {
	modelName := cfg.Model
	if modelName == "" {
		modelName = DefaultModel
	}
	return &Gemini{
		models:  models,
		limiter: newRateLimiter(cfg.RequestsPerMinute),
		logger:  slog.Default().With("component", "gemini"),
		model:   modelName,
		timeout: cfg.Timeout,
	}
}

// Route asks the model to pick a tool for question.
func (g *Gemini) Route(ctx context.Context, question string) (RouteDecision, error) {
	resp, err := g.generate(ctx, question, &genai.GenerateContentConfig{
		SystemInstruction: textContent(RouterInstruction),
		Tools:             []*genai.Tool{dataTools()},
		Temperature:       genai.Ptr[float32](0),
	})
	if err != nil {
		return RouteDecision{}, fmt.Errorf("router call failed: %w", err)
	}

	decision := decisionFromResponse(resp)
	g.logger.Debug("router decision",
		"tool", decision.Tool,
		"args", decision.Args,
		"text", decision.Text)
	return decision, nil
}

// Analyze asks the model to answer question from data.
func (g *Gemini) Analyze(ctx context.Context, question string, data *model.Dataset) (Analysis, error) {
	prompt, err := BuildAnalysisPrompt(question, data)
	if err != nil {
		return Analysis{}, err
	}

	analysis := Analysis{Prompt: prompt}
	resp, err := g.generate(ctx, prompt, &genai.GenerateContentConfig{
		SystemInstruction: textContent(AnalystInstruction),
	})
	if err != nil {
		return analysis, fmt.Errorf("analyst call failed: %w", err)
	}

	analysis.Answer = strings.TrimSpace(responseText(resp))
	if analysis.Answer == "" {
		return analysis, fmt.Errorf("analyst returned no text: %w", common.ErrNoAnswer)
	}
	return analysis, nil
}

func (g *Gemini) generate(ctx context.Context, text string, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	if err := g.limiter.wait(ctx); err != nil {
		return nil, err
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := g.models.GenerateContent(ctx, g.model, []*genai.Content{
		{Role: "user", Parts: []*genai.Part{{Text: text}}},
	}, config)
	g.logger.Debug("generate content", "model", g.model, "duration", time.Since(start), "error", err)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func textContent(text string) *genai.Content {
	return &genai.Content{Parts: []*genai.Part{{Text: text}}}
}

func dataTools() *genai.Tool {
	dateParam := func(which string) *genai.Schema {
		return &genai.Schema{
			Type:        genai.TypeString,
			Description: which + " date (inclusive), in YYYY-MM-DD format.",
		}
	}

	return &genai.Tool{
		FunctionDeclarations: []*genai.FunctionDeclaration{
			{
				Name: ToolTransactions,
				Description: "Fetch the user's bank transactions via Plaid for a given date range. " +
					"Use this ONLY if the question can be answered purely from account " +
					"and transaction data (spending, merchants, categories, balances).",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"start_date": dateParam("Start"),
						"end_date":   dateParam("End"),
					},
					Required: []string{"start_date", "end_date"},
				},
			},
			{
				Name: ToolAccounts,
				Description: "Fetch the user's account list and balances via Plaid. " +
					"Use this for questions about balances, accounts, or cash on hand.",
				Parameters: &genai.Schema{
					Type:       genai.TypeObject,
					Properties: map[string]*genai.Schema{},
				},
			},
		},
	}
}

// decisionFromResponse takes the first function call found across all
// candidates and parts, and the concatenated text of the first candidate.
func decisionFromResponse(resp *genai.GenerateContentResponse) RouteDecision {
	var decision RouteDecision
	if resp == nil {
		return decision
	}

	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part == nil || part.FunctionCall == nil {
				continue
			}
			decision.Tool = part.FunctionCall.Name
			decision.Args = stringArgs(part.FunctionCall.Args)
			break
		}
		if decision.HasToolCall() {
			break
		}
	}

	decision.Text = strings.TrimSpace(responseText(resp))
	return decision
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	cand := resp.Candidates[0]
	if cand == nil || cand.Content == nil {
		return ""
	}

	var b strings.Builder
	for _, part := range cand.Content.Parts {
		if part != nil && part.Text != "" {
			b.WriteString(part.Text)
		}
	}
	return b.String()
}

func stringArgs(args map[string]any) map[string]string {
	out := make(map[string]string, len(args))
	for k, v := range args {
		switch val := v.(type) {
		case nil:
		case string:
			out[k] = val
		default:
			out[k] = fmt.Sprint(val)
		}
	}
	return out
}

var (
	_ Router  = (*Gemini)(nil)
	_ Analyst = (*Gemini)(nil)
)
