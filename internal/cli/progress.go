package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/schollz/progressbar/v3"
)

// PageProgress shows how many transactions have been fetched. The total is
// unknown until the first page arrives.
type PageProgress struct {
	bar    *progressbar.ProgressBar
	writer io.Writer
}

// NewPageProgress creates a progress bar writing to w.
func NewPageProgress(w io.Writer, description string) *PageProgress {
	p := &PageProgress{writer: w}
	p.bar = progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]"+description+"[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			if _, err := fmt.Fprintln(w); err != nil {
				slog.Warn("Failed to write newline after progress bar", "error", err)
			}
		}),
	)
	return p
}

// Update matches the plaid page callback signature.
func (p *PageProgress) Update(fetched, total int) {
	if total > 0 && p.bar.GetMax() != total {
		p.bar.ChangeMax(total)
	}
	if err := p.bar.Set(fetched); err != nil {
		slog.Warn("Failed to update progress bar", "error", err)
	}
}

// Finish completes the bar.
func (p *PageProgress) Finish() {
	if err := p.bar.Finish(); err != nil {
		slog.Warn("Failed to finish progress bar", "error", err)
	}
}
