package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Veraticus/plaid-ask/internal/assistant"
	"github.com/Veraticus/plaid-ask/internal/classification"
	"github.com/Veraticus/plaid-ask/internal/cli"
	"github.com/Veraticus/plaid-ask/internal/common"
	"github.com/Veraticus/plaid-ask/internal/daterange"
	"github.com/Veraticus/plaid-ask/internal/model"
	"github.com/Veraticus/plaid-ask/internal/recurring"
	"github.com/Veraticus/plaid-ask/internal/service"
)

// Output formats.
const (
	formatTable = "table"
	formatJSON  = "json"
	formatCSV   = "csv"
)

func enrichCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "enrich",
		Short: "Fetch, tag and scan transactions without the language model",
		Long: `Fetch transactions for a window, attach account details, normalize merchants,
tag each transaction and detect recurring subscriptions.

The window is --start-date/--end-date, or a phrase given with --range, or the
last 30 days.`,
		RunE: runEnrich,
	}

	cmd.Flags().StringP("start-date", "s", "", "start date (format: 2006-01-02)")
	cmd.Flags().StringP("end-date", "e", "", "end date (format: 2006-01-02)")
	cmd.Flags().StringP("range", "r", "", `date phrase such as "last 3 months"`)
	cmd.Flags().StringP("format", "f", formatTable, "output format (table, json, csv)")
	cmd.Flags().Bool("no-progress", false, "hide the Plaid paging progress bar")

	return cmd
}

func runEnrich(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg, err := currentConfig()
	if err != nil {
		return err
	}

	start, _ := cmd.Flags().GetString("start-date")
	end, _ := cmd.Flags().GetString("end-date")
	phrase, _ := cmd.Flags().GetString("range")
	format, _ := cmd.Flags().GetString("format")
	noProgress, _ := cmd.Flags().GetBool("no-progress")

	switch format {
	case formatTable, formatJSON, formatCSV:
	default:
		return fmt.Errorf("invalid --format %q: must be table, json or csv", format)
	}

	window, err := enrichWindow(start, end, phrase, time.Now())
	if err != nil {
		return err
	}

	src, err := newSource(ctx, cfg)
	if err != nil {
		return err
	}
	if src.Plaid != nil && !noProgress {
		progress := cli.NewPageProgress(cmd.ErrOrStderr(), "Fetching transactions")
		src.Plaid.OnPage(progress.Update)
		defer progress.Finish()
	}

	tagger, err := newTagger(cfg)
	if err != nil {
		return err
	}

	enriched, err := fetchAndEnrich(ctx, src.Source, window, tagger, recurring.DefaultDetector())
	if err != nil {
		return err
	}

	slog.Info("Enriched transactions",
		"start", window.Start.String(),
		"end", window.End.String(),
		"transactions", len(enriched.Transactions),
		"subscriptions", len(enriched.RecurringSubscriptions))

	return writeEnriched(cmd.OutOrStdout(), enriched, format)
}

// enrichWindow picks the fetch window from flags.
func enrichWindow(start, end, phrase string, now time.Time) (service.DateRange, error) {
	switch {
	case phrase != "":
		if start != "" || end != "" {
			return service.DateRange{}, fmt.Errorf("--range cannot be combined with --start-date/--end-date")
		}
		rng, ok, err := daterange.Resolve(phrase, now)
		if err != nil {
			return service.DateRange{}, err
		}
		if !ok {
			return service.DateRange{}, common.NewUserError(
				fmt.Sprintf("could not find a date range in %q", phrase), common.ErrInvalidConfig)
		}
		return service.DateRange{Start: rng.Start, End: rng.End}, nil

	case start != "" || end != "":
		if start == "" || end == "" {
			return service.DateRange{}, fmt.Errorf("--start-date and --end-date must be given together")
		}
		s, err := model.ParseDate(start)
		if err != nil {
			return service.DateRange{}, fmt.Errorf("invalid --start-date: %w", err)
		}
		e, err := model.ParseDate(end)
		if err != nil {
			return service.DateRange{}, fmt.Errorf("invalid --end-date: %w", err)
		}
		if s.After(e.Time) {
			return service.DateRange{}, &daterange.InvalidDateRangeError{
				Start: start,
				End:   end,
				Err:   errors.New("start is after end"),
			}
		}
		return service.DateRange{Start: s, End: e}, nil

	default:
		today := daterange.Day(now)
		return service.NewDateRange(today.AddDate(0, 0, -assistant.DefaultWindowDays), today), nil
	}
}

// fetchAndEnrich runs the deterministic half of the pipeline. An accounts
// failure only costs the account details.
func fetchAndEnrich(ctx context.Context, src service.TransactionSource, window service.DateRange,
	tagger *classification.Tagger, detector *recurring.Detector,
) (assistant.Enriched, error) {
	var (
		txns     []model.Transaction
		accounts []model.Account
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		txns, err = src.GetTransactions(gctx, window.Start.Time, window.End.Time)
		if err != nil {
			return fmt.Errorf("failed to fetch transactions: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		accounts, err = src.GetAccounts(gctx)
		if err != nil {
			if ctxErr := gctx.Err(); ctxErr != nil {
				return ctxErr
			}
			slog.Warn("Failed to fetch accounts", "error", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return assistant.Enriched{}, err
	}

	tagged := tagger.TagAll(model.MergeAccounts(txns, accounts))
	return assistant.Enriched{
		Transactions:           tagged,
		RecurringSubscriptions: detector.Detect(tagged),
	}, nil
}

// csvRow is one enriched transaction in CSV form.
type csvRow struct {
	Date                 string `csv:"date"`
	Name                 string `csv:"name"`
	MerchantName         string `csv:"merchant_name"`
	NormalizedName       string `csv:"normalized_name"`
	Amount               string `csv:"amount"`
	Category             string `csv:"category"`
	ConsolidatedCategory string `csv:"consolidated_category"`
	TypeTag              string `csv:"type_tag"`
	AccountID            string `csv:"account_id"`
	AccountName          string `csv:"account_name"`
	IsSpend              bool   `csv:"is_spend"`
}

func toCSVRows(txns []model.ClassifiedTransaction) []csvRow {
	rows := make([]csvRow, 0, len(txns))
	for _, t := range txns {
		rows = append(rows, csvRow{
			Date:                 t.Date,
			Name:                 t.Name,
			MerchantName:         t.MerchantName,
			NormalizedName:       t.NormalizedName,
			Amount:               t.Amount.StringFixed(2),
			Category:             strings.Join(t.Category, " > "),
			ConsolidatedCategory: t.ConsolidatedCategory,
			TypeTag:              string(t.TypeTag),
			AccountID:            t.AccountID,
			AccountName:          t.AccountName,
			IsSpend:              t.IsSpend,
		})
	}
	return rows
}

func writeEnriched(w io.Writer, enriched assistant.Enriched, format string) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(enriched)

	case formatCSV:
		rows := toCSVRows(enriched.Transactions)
		if err := gocsv.MarshalCSV(rows, gocsv.NewSafeCSVWriter(csv.NewWriter(w))); err != nil {
			return fmt.Errorf("failed to write CSV: %w", err)
		}
		return nil

	default:
		if _, err := fmt.Fprintln(w, cli.FormatTitle(fmt.Sprintf("Transactions (%d)", len(enriched.Transactions)))); err != nil {
			return err
		}
		if _, err := fmt.Fprintln(w, cli.RenderTransactions(enriched.Transactions)); err != nil {
			return err
		}
		if len(enriched.RecurringSubscriptions) == 0 {
			_, err := fmt.Fprintln(w, cli.SubtleStyle.Render("No recurring subscriptions detected."))
			return err
		}
		if _, err := fmt.Fprintln(w, cli.FormatTitle(fmt.Sprintf("Recurring subscriptions (%d)", len(enriched.RecurringSubscriptions)))); err != nil {
			return err
		}
		_, err := fmt.Fprintln(w, cli.RenderSubscriptions(enriched.RecurringSubscriptions))
		return err
	}
}
