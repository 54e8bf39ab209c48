package main

import (
	"context"
	"fmt"

	"github.com/Veraticus/plaid-ask/internal/assistant"
	"github.com/Veraticus/plaid-ask/internal/classification"
	"github.com/Veraticus/plaid-ask/internal/common"
	"github.com/Veraticus/plaid-ask/internal/config"
	"github.com/Veraticus/plaid-ask/internal/fixture"
	"github.com/Veraticus/plaid-ask/internal/llm"
	"github.com/Veraticus/plaid-ask/internal/metrics"
	"github.com/Veraticus/plaid-ask/internal/ofx"
	"github.com/Veraticus/plaid-ask/internal/plaid"
	"github.com/Veraticus/plaid-ask/internal/service"
	"github.com/Veraticus/plaid-ask/internal/simplefin"
)

// appConfig is set by initConfig before any command runs.
var appConfig *config.Config

// currentConfig returns the loaded configuration.
func currentConfig() (*config.Config, error) {
	if appConfig == nil {
		return nil, fmt.Errorf("%w: configuration not loaded", common.ErrMissingConfig)
	}
	return appConfig, nil
}

// sourceBundle is the configured data source. Plaid is set only for the
// Plaid backend so callers can attach a page callback.
type sourceBundle struct {
	Source service.TransactionSource
	Plaid  *plaid.Client
	Kind   service.SourceKind
}

func newSource(ctx context.Context, cfg *config.Config) (sourceBundle, error) {
	kind := cfg.SourceKind()
	switch kind {
	case service.SourceFixture:
		if cfg.Source.FixturePath == "" {
			return sourceBundle{Source: fixture.Default(), Kind: kind}, nil
		}
		src, err := fixture.LoadFile(cfg.Source.FixturePath)
		if err != nil {
			return sourceBundle{}, err
		}
		return sourceBundle{Source: src, Kind: kind}, nil

	case service.SourceOFX:
		src, err := ofx.Open(ctx, cfg.Source.OFXPath)
		if err != nil {
			return sourceBundle{}, err
		}
		return sourceBundle{Source: src, Kind: kind}, nil

	case service.SourceSimpleFIN:
		client, err := simplefin.NewClient(ctx, cfg.SimpleFIN)
		if err != nil {
			return sourceBundle{}, fmt.Errorf("failed to create SimpleFIN client: %w", err)
		}
		return sourceBundle{Source: client, Kind: kind}, nil

	default:
		client, err := plaid.NewClient(cfg.Plaid)
		if err != nil {
			return sourceBundle{}, fmt.Errorf("failed to create Plaid client: %w", err)
		}
		return sourceBundle{Source: client, Plaid: client, Kind: kind}, nil
	}
}

func newTagger(cfg *config.Config) (*classification.Tagger, error) {
	merchants, err := classification.DefaultMerchantClassifier().WithRules(cfg.Classification.MerchantRules)
	if err != nil {
		return nil, fmt.Errorf("invalid merchant rules: %w", err)
	}
	return classification.NewTagger(merchants, classification.DefaultTypeRules())
}

// newAssistant wires the full question pipeline.
func newAssistant(ctx context.Context, cfg *config.Config, m *metrics.Metrics) (*assistant.Service, error) {
	src, err := newSource(ctx, cfg)
	if err != nil {
		return nil, err
	}

	tagger, err := newTagger(cfg)
	if err != nil {
		return nil, err
	}

	gemini, err := llm.NewGemini(ctx, cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("failed to create language model client: %w", err)
	}

	return assistant.New(assistant.Deps{
		Source:     src.Source,
		Router:     gemini,
		Analyst:    gemini,
		Tagger:     tagger,
		Metrics:    m,
		SourceKind: src.Kind,
	})
}

// startupWarnings lists configuration gaps worth telling an interactive
// user about before the first question. A missing model key is not listed;
// newAssistant refuses to start without one.
func startupWarnings(cfg *config.Config) []string {
	var warnings []string
	if cfg.SourceKind() == service.SourcePlaid && cfg.Plaid.AccessToken == "" {
		warnings = append(warnings,
			"USE_FAKE_PLAID is false and PLAID_ACCESS_TOKEN is missing. "+
				"Either set USE_FAKE_PLAID=true in .env, or provide a valid PLAID_ACCESS_TOKEN.")
	}
	return warnings
}
