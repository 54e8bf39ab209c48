// Package tui is the interactive chat front end for the assistant.
package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Veraticus/plaid-ask/internal/assistant"
)

// Banner is printed when a session starts.
const Banner = "Plaid Function-Calling Financial Assistant"

const (
	promptText = "You: "
	lenPrompt  = len(promptText)
)

// Asker answers one question.
type Asker interface {
	Ask(ctx context.Context, question string) (*assistant.Result, error)
}

// exchange is one finished question and its outcome.
type exchange struct {
	result   *assistant.Result
	err      error
	question string
}

// answerMsg carries the outcome of an Ask call back into Update.
type answerMsg struct {
	result   *assistant.Result
	err      error
	question string
}

// Model holds the chat state.
type Model struct {
	ctx       context.Context
	asker     Asker
	config    Config
	theme     Theme
	keymap    KeyMap
	help      help.Model
	input     textinput.Model
	spinner   spinner.Model
	history   []exchange
	pending   string
	width     int
	showDebug bool
	waiting   bool
	quitting  bool
}

// New creates a chat model bound to asker.
func New(ctx context.Context, asker Asker, opts ...Option) Model {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	input := textinput.New()
	input.Prompt = cfg.Theme.Prompt.Render(promptText)
	input.Placeholder = "ask about your transactions, accounts or subscriptions"
	input.CharLimit = 1000
	input.Focus()

	spin := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(cfg.Theme.Spinner),
	)

	return Model{
		ctx:       ctx,
		asker:     asker,
		config:    cfg,
		theme:     cfg.Theme,
		keymap:    DefaultKeyMap(),
		help:      help.New(),
		input:     input,
		spinner:   spin,
		showDebug: cfg.ShowDebug,
	}
}

// Init prints the banner and starts the cursor blinking.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tea.Println(m.renderBanner()),
		textinput.Blink,
	)
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		m.input.Width = max(msg.Width-lenPrompt-1, 10)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case answerMsg:
		m.waiting = false
		m.pending = ""
		ex := exchange(msg)
		m.history = append(m.history, ex)
		return m, tea.Println(m.renderExchange(ex))

	case spinner.TickMsg:
		if !m.waiting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.Quit):
		m.quitting = true
		return m, tea.Sequence(tea.Println(m.theme.Subtle.Render("Exiting.")), tea.Quit)

	case key.Matches(msg, m.keymap.ToggleDebug):
		m.showDebug = !m.showDebug
		return m, nil

	case key.Matches(msg, m.keymap.ClearScreen):
		return m, tea.ClearScreen

	case key.Matches(msg, m.keymap.Submit):
		if m.waiting {
			return m, nil
		}
		return m.submit()
	}

	if m.waiting {
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	question := strings.TrimSpace(m.input.Value())
	m.input.Reset()

	if question == "" {
		return m, nil
	}
	if isExit(question) {
		m.quitting = true
		return m, tea.Sequence(tea.Println(m.theme.Speaker.Render("Goodbye!")), tea.Quit)
	}

	m.waiting = true
	m.pending = question
	return m, tea.Batch(
		tea.Println(m.renderQuestion(question)),
		m.spinner.Tick,
		m.ask(question),
	)
}

// ask runs the question off the event loop.
func (m Model) ask(question string) tea.Cmd {
	asker := m.asker
	parent := m.ctx
	timeout := m.config.Timeout

	return func() tea.Msg {
		ctx := parent
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(parent, timeout)
			defer cancel()
		}
		res, err := asker.Ask(ctx, question)
		return answerMsg{question: question, result: res, err: err}
	}
}

func isExit(input string) bool {
	switch strings.ToLower(input) {
	case "exit", "quit":
		return true
	}
	return false
}
