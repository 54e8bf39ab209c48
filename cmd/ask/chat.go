package main

import (
	"github.com/spf13/cobra"

	"github.com/Veraticus/plaid-ask/internal/tui"
)

func chatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive session",
		Long: `Start an interactive question and answer session.

Type a question and press Enter. Type 'exit' or 'quit' to stop.`,
		RunE: runChat,
	}

	cmd.Flags().Bool("debug", false, "show the trimmed debug view after each answer")
	cmd.Flags().String("theme", "default", "color theme (default, catppuccin)")
	cmd.Flags().Duration("question-timeout", 0, "bound each question (default: twice llm.timeout)")

	return cmd
}

func runChat(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg, err := currentConfig()
	if err != nil {
		return err
	}

	svc, err := newAssistant(ctx, cfg, nil)
	if err != nil {
		return err
	}

	debug, _ := cmd.Flags().GetBool("debug")
	theme, _ := cmd.Flags().GetString("theme")
	timeout, _ := cmd.Flags().GetDuration("question-timeout")
	if timeout == 0 {
		// routing and analysis are two model calls
		timeout = 2 * cfg.LLM.Timeout
	}

	return tui.Run(ctx, svc,
		tui.WithTheme(tui.ThemeByName(theme)),
		tui.WithWarnings(startupWarnings(cfg)...),
		tui.WithDebug(debug),
		tui.WithTimeout(timeout),
	)
}
