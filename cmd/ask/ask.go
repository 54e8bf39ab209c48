package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Veraticus/plaid-ask/internal/assistant"
	"github.com/Veraticus/plaid-ask/internal/cli"
)

func askCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer a single question",
		Long: `Answer one question about your accounts or transactions and exit.

Examples:
  plaid-ask ask "how much did I spend on coffee last month?"
  plaid-ask ask --debug "what subscriptions do I have?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: runAsk,
	}

	cmd.Flags().Bool("debug", false, "print the trimmed debug view after the answer")
	cmd.Flags().Bool("json", false, "print the full result as JSON")

	return cmd
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := currentConfig()
	if err != nil {
		return err
	}

	svc, err := newAssistant(ctx, cfg, nil)
	if err != nil {
		return err
	}

	res, err := svc.Ask(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}

	debug, _ := cmd.Flags().GetBool("debug")
	asJSON, _ := cmd.Flags().GetBool("json")
	return writeAnswer(cmd.OutOrStdout(), res, debug, asJSON)
}

func writeAnswer(w io.Writer, res *assistant.Result, debug, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	if _, err := fmt.Fprintf(w, "\n%s %s\n\n", cli.BoldStyle.Render("Assistant:"), res.Answer); err != nil {
		return err
	}
	if !debug {
		return nil
	}

	raw, err := json.MarshalIndent(res.Debug(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode debug view: %w", err)
	}
	if res.Window != nil {
		if _, err := fmt.Fprintln(w, cli.RenderBox("Window",
			fmt.Sprintf("%s to %s", res.Window.Start, res.Window.End),
			cli.SubtleStyle.Render("source: "+res.WindowSource))); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintf(w, "%s\n%s\n%s\n\n",
		cli.SubtleStyle.Render("---- DEBUG ----"),
		raw,
		cli.SubtleStyle.Render("---------------"))
	return err
}
