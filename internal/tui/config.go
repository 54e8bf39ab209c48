package tui

import (
	"io"
	"time"
)

// Config holds TUI configuration.
type Config struct {
	Input     io.Reader
	Output    io.Writer
	Theme     Theme
	Warnings  []string
	Timeout   time.Duration
	ShowDebug bool
}

// Option is a functional option for configuring the TUI.
type Option func(*Config)

func defaultConfig() Config {
	return Config{
		Theme:   Default,
		Timeout: 2 * time.Minute,
	}
}

// WithTheme sets the theme.
func WithTheme(theme Theme) Option {
	return func(c *Config) {
		c.Theme = theme
	}
}

// WithWarnings adds lines shown under the banner, such as missing
// credentials.
func WithWarnings(warnings ...string) Option {
	return func(c *Config) {
		c.Warnings = append(c.Warnings, warnings...)
	}
}

// WithDebug prints the trimmed debug view after every answer.
func WithDebug(enabled bool) Option {
	return func(c *Config) {
		c.ShowDebug = enabled
	}
}

// WithTimeout bounds each question. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.Timeout = d
	}
}

// WithIO overrides the terminal, mainly for tests.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(c *Config) {
		c.Input = in
		c.Output = out
	}
}
