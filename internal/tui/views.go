package tui

import (
	"encoding/json"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/plaid-ask/internal/common"
)

// View renders the live part of the screen. Finished exchanges are printed
// above it and scroll with the terminal.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var line string
	if m.waiting {
		line = m.spinner.View() + " " + m.theme.Subtle.Render("thinking about: "+m.pending)
	} else {
		line = m.input.View()
	}

	status := m.help.ShortHelpView(m.keymap.ShortHelp())
	if m.showDebug {
		status += m.theme.Subtle.Render("  • debug on")
	}
	return lipgloss.JoinVertical(lipgloss.Left, line, status)
}

func (m Model) renderBanner() string {
	var b strings.Builder
	b.WriteString(m.theme.Banner.Render(Banner))
	b.WriteString("\n")
	b.WriteString(m.theme.Subtle.Render("Type 'exit' or 'quit' to stop."))
	for _, w := range m.config.Warnings {
		b.WriteString("\n")
		b.WriteString(m.theme.Warning.Render("WARNING: " + w))
	}
	b.WriteString("\n")
	return b.String()
}

func (m Model) renderQuestion(question string) string {
	return m.theme.Prompt.Render(promptText) + m.theme.Question.Render(question)
}

func (m Model) renderExchange(ex exchange) string {
	var b strings.Builder
	b.WriteString(m.theme.Speaker.Render("Assistant:"))
	b.WriteString("\n")

	if ex.err != nil {
		b.WriteString(m.theme.Error.Render("✗ " + common.UserMessage(ex.err)))
		b.WriteString("\n")
		return b.String()
	}

	answer := ""
	if ex.result != nil {
		answer = ex.result.Answer
	}
	b.WriteString(m.theme.Answer.Width(max(m.width-2, 0)).Render(answer))
	b.WriteString("\n")

	if m.showDebug && ex.result != nil {
		raw, err := json.MarshalIndent(ex.result.Debug(), "", "  ")
		if err == nil {
			b.WriteString(m.theme.Debug.Render(string(raw)))
			b.WriteString("\n")
		}
	}
	return b.String()
}
