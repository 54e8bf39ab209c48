// Package assistant answers natural-language questions about a user's bank
// data. It routes the question with a language model, resolves the date
// window, fetches and enriches transactions, then asks a second model call
// for the narrative answer.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Veraticus/plaid-ask/internal/classification"
	"github.com/Veraticus/plaid-ask/internal/common"
	"github.com/Veraticus/plaid-ask/internal/daterange"
	"github.com/Veraticus/plaid-ask/internal/llm"
	"github.com/Veraticus/plaid-ask/internal/metrics"
	"github.com/Veraticus/plaid-ask/internal/model"
	"github.com/Veraticus/plaid-ask/internal/recurring"
	"github.com/Veraticus/plaid-ask/internal/service"
)

// Fixed answers for questions the pipeline cannot take further.
const (
	AnswerCannotAnswer = "This question cannot be answered using your Plaid transaction data."
	AnswerNoToolCall   = "I couldn't determine how to answer this question using Plaid data. " +
		"Try rephrasing or specifying a time period for your transactions."
)

// DefaultWindowDays is the look-back used when nothing else names a window.
const DefaultWindowDays = 30

var subscriptionKeywords = []string{
	"subscription", "subscriptions", "recurring", "monthly payment", "monthly payments",
}

// Deps are the collaborators of a Service. Source, Router and Analyst are
// required; the rest fall back to defaults.
type Deps struct {
	Source     service.TransactionSource
	Router     llm.Router
	Analyst    llm.Analyst
	Tagger     *classification.Tagger
	Detector   *recurring.Detector
	Resolver   *daterange.Resolver
	Metrics    *metrics.Metrics
	Clock      func() time.Time
	SourceKind service.SourceKind
}

// Validate ensures all required dependencies are provided.
func (d *Deps) Validate() error {
	if d.Source == nil {
		return fmt.Errorf("transaction source dependency is required")
	}
	if d.Router == nil {
		return fmt.Errorf("router dependency is required")
	}
	if d.Analyst == nil {
		return fmt.Errorf("analyst dependency is required")
	}
	return nil
}

// Service is the question-answering pipeline. It holds no per-question
// state and is safe for concurrent use.
type Service struct {
	deps   Deps
	logger *slog.Logger
}

// New creates a Service, filling in default tagger, detector, resolver and
// clock where deps leaves them nil.
func New(deps Deps) (*Service, error) {
	if err := deps.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dependencies: %w", err)
	}
	if deps.Tagger == nil {
		deps.Tagger = classification.DefaultTagger()
	}
	if deps.Detector == nil {
		deps.Detector = recurring.DefaultDetector()
	}
	if deps.Resolver == nil {
		deps.Resolver = daterange.NewResolver(daterange.DefaultRules())
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	return &Service{
		deps:   deps,
		logger: slog.Default().With("component", "assistant"),
	}, nil
}

// Ask runs the full pipeline for one question.
func (s *Service) Ask(ctx context.Context, question string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	question = strings.TrimSpace(question)
	if question == "" {
		return nil, common.NewUserError("Please ask a question about your accounts or spending.", common.ErrNoAnswer)
	}

	started := time.Now()
	res := &Result{
		RequestID:  uuid.NewString(),
		Question:   question,
		SourceKind: s.deps.SourceKind,
	}
	logger := s.logger.With("request_id", res.RequestID)
	defer func() {
		res.Timings.Total = time.Since(started)
		s.deps.Metrics.ObserveStage("total", res.Timings.Total)
	}()

	stage := time.Now()
	decision, err := s.deps.Router.Route(ctx, question)
	res.Timings.Route = s.since("route", stage)
	if err != nil {
		return nil, common.NewUserError("The assistant could not reach the language model. Please try again.",
			fmt.Errorf("route question: %w", err))
	}
	res.Decision = decision

	switch {
	case decision.CannotAnswer():
		return s.finish(res, RouteCannotAnswer, AnswerCannotAnswer), nil
	case !decision.HasToolCall():
		return s.finish(res, RouteNoToolCall, AnswerNoToolCall), nil
	}

	logger.Debug("router called tool", "tool", decision.Tool, "args", decision.Args)

	switch decision.Tool {
	case llm.ToolTransactions:
		res.Route = RouteTransactions
		if err := s.transactions(ctx, res); err != nil {
			return nil, err
		}
	case llm.ToolAccounts:
		res.Route = RouteAccounts
		if err := s.accounts(ctx, res); err != nil {
			return nil, err
		}
	default:
		answer := fmt.Sprintf("Router called an unknown tool '%s'. Unable to answer using Plaid data.", decision.Tool)
		return s.finish(res, RouteUnknownTool, answer), nil
	}

	stage = time.Now()
	analysis, err := s.deps.Analyst.Analyze(ctx, question, res.Dataset)
	res.Timings.Analyze = s.since("analyze", stage)
	res.Prompt = analysis.Prompt
	if err != nil {
		return nil, common.NewUserError("The assistant could not produce an answer. Please try again.",
			fmt.Errorf("analyze dataset: %w", err))
	}

	res.Answer = analysis.Answer
	s.deps.Metrics.IncQuestion(string(res.Route))
	logger.Info("question answered",
		"route", res.Route,
		"transactions", len(res.Dataset.Transactions),
		"subscriptions", len(res.Dataset.RecurringSubscriptions),
		"source_error", res.Dataset.SourceError != "")
	return res, nil
}

func (s *Service) transactions(ctx context.Context, res *Result) error {
	window, err := s.window(res)
	if err != nil {
		return err
	}
	res.Window = &window

	stage := time.Now()
	var (
		txns     []model.Transaction
		accounts []model.Account
		txErr    error
		accErr   error
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		txns, txErr = s.deps.Source.GetTransactions(gCtx, window.Start.Time, window.End.Time)
		return fatal(txErr)
	})
	g.Go(func() error {
		accounts, accErr = s.deps.Source.GetAccounts(gCtx)
		return fatal(accErr)
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("fetch bank data: %w", err)
	}
	res.Timings.Fetch = s.since("fetch", stage)

	data := &model.Dataset{
		StartDate: window.Start.String(),
		EndDate:   window.End.String(),
	}
	s.recordSourceError(data, "transactions", txErr)
	s.recordSourceError(data, "accounts", accErr)

	stage = time.Now()
	enriched := s.Enrich(model.MergeAccounts(txns, accounts))
	res.Timings.Enrich = s.since("enrich", stage)

	data.Accounts = nonNilAccounts(accounts)
	data.Transactions = enriched.Transactions
	data.RecurringSubscriptions = enriched.RecurringSubscriptions
	res.Dataset = data
	return nil
}

func (s *Service) accounts(ctx context.Context, res *Result) error {
	stage := time.Now()
	accounts, err := s.deps.Source.GetAccounts(ctx)
	res.Timings.Fetch = s.since("fetch", stage)
	if fatalErr := fatal(err); fatalErr != nil {
		return fmt.Errorf("fetch accounts: %w", fatalErr)
	}

	data := &model.Dataset{
		Accounts:               nonNilAccounts(accounts),
		Transactions:           []model.ClassifiedTransaction{},
		RecurringSubscriptions: []model.SubscriptionCandidate{},
	}
	s.recordSourceError(data, "accounts", err)
	res.Dataset = data
	return nil
}

// window picks the effective date window: the range named in the question,
// else twelve months for subscription questions, else the router's
// arguments, else the last DefaultWindowDays days.
func (s *Service) window(res *Result) (service.DateRange, error) {
	today := daterange.Day(s.deps.Clock())

	rng, ok, err := s.deps.Resolver.Resolve(res.Question, today)
	if err != nil {
		return service.DateRange{}, common.NewUserError(
			"The dates in your question are not valid calendar dates. Use YYYY-MM-DD, for example 2024-01-31.", err)
	}
	if ok {
		res.DateRange = &rng
		res.WindowSource = WindowFromQuestion
		return service.DateRange{Start: rng.Start, End: rng.End}, nil
	}

	if isSubscriptionQuestion(res.Question) {
		res.WindowSource = WindowSubscriptionDefault
		return service.NewDateRange(daterange.ShiftYears(today, 1), today), nil
	}

	if start, end, ok := routerWindow(res.Decision); ok {
		res.WindowSource = WindowFromRouter
		return service.DateRange{Start: start, End: end}, nil
	}

	res.WindowSource = WindowDefault
	return service.NewDateRange(today.AddDate(0, 0, -DefaultWindowDays), today), nil
}

// routerWindow accepts the router's dates only when both parse and are in
// order; a half-usable pair is discarded as a whole.
func routerWindow(d llm.RouteDecision) (model.Date, model.Date, bool) {
	start, err := model.ParseDate(d.Arg("start_date"))
	if err != nil {
		return model.Date{}, model.Date{}, false
	}
	end, err := model.ParseDate(d.Arg("end_date"))
	if err != nil {
		return model.Date{}, model.Date{}, false
	}
	if start.After(end.Time) {
		return model.Date{}, model.Date{}, false
	}
	return start, end, true
}

func isSubscriptionQuestion(question string) bool {
	lowered := strings.ToLower(question)
	for _, k := range subscriptionKeywords {
		if strings.Contains(lowered, k) {
			return true
		}
	}
	return false
}

func (s *Service) recordSourceError(data *model.Dataset, op string, err error) {
	if err == nil {
		return
	}
	s.deps.Metrics.IncSourceError(op)
	s.logger.Warn("source call failed", "operation", op, "error", err)

	if data.SourceError != "" {
		data.SourceError += "; "
	}
	data.SourceError += err.Error()
}

func (s *Service) finish(res *Result, route Route, answer string) *Result {
	res.Route = route
	res.Answer = answer
	s.deps.Metrics.IncQuestion(string(route))
	return res
}

func (s *Service) since(stage string, start time.Time) time.Duration {
	d := time.Since(start)
	s.deps.Metrics.ObserveStage(stage, d)
	return d
}

// fatal returns err when it should abort the question. Source failures are
// reported to the analyst instead; only cancellation stops the pipeline.
func fatal(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}

func nonNilAccounts(accounts []model.Account) []model.Account {
	if accounts == nil {
		return []model.Account{}
	}
	return accounts
}
