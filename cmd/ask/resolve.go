package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/plaid-ask/internal/cli"
	"github.com/Veraticus/plaid-ask/internal/daterange"
	"github.com/Veraticus/plaid-ask/internal/model"
)

func resolveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve <text>",
		Short: "Show the date range a phrase resolves to",
		Long: `Resolve a natural-language date phrase without calling any data source.

Examples:
  plaid-ask resolve "last 3 months"
  plaid-ask resolve --today 2024-03-31 "last month"`,
		Args: cobra.MinimumNArgs(1),
		RunE: runResolve,
	}

	cmd.Flags().String("today", "", "reference date (format: 2006-01-02, default: today)")
	cmd.Flags().Bool("json", false, "print the range as JSON")

	return cmd
}

func runResolve(cmd *cobra.Command, args []string) error {
	today, _ := cmd.Flags().GetString("today")
	asJSON, _ := cmd.Flags().GetBool("json")

	ref := time.Now()
	if today != "" {
		d, err := model.ParseDate(today)
		if err != nil {
			return fmt.Errorf("invalid --today %q: expected YYYY-MM-DD", today)
		}
		ref = d.Time
	}

	rng, ok, err := daterange.Resolve(strings.Join(args, " "), ref)
	if err != nil {
		return err
	}
	return writeRange(cmd.OutOrStdout(), rng, ok, asJSON)
}

func writeRange(w io.Writer, rng daterange.Range, ok, asJSON bool) error {
	if asJSON {
		out := struct {
			Range *daterange.Range `json:"range,omitempty"`
			Match bool             `json:"match"`
		}{Match: ok}
		if ok {
			out.Range = &rng
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	if !ok {
		_, err := fmt.Fprintln(w, cli.FormatWarning("no date range found"))
		return err
	}
	_, err := fmt.Fprintln(w, cli.RenderBox(cli.FormatSuccess("Date range"),
		fmt.Sprintf("%s to %s (%d days, %s)", rng.Start, rng.End, rng.Days(), rng.Kind),
		cli.SubtleStyle.Render("matched: "+rng.RawText)))
	return err
}
