package tui

import (
	"fmt"
	"io"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/bubbles/progress"
)

// ProgressBar wraps the charmbracelet/bubbles progress bar with wipecert styling.
// Supports adaptive width and NO_COLOR compatibility.
type ProgressBar struct {
	bar   progress.Model
	width int
}

// ProgressOption is a functional option for configuring a ProgressBar.
type ProgressOption func(*ProgressBar)

// WithWidth sets the progress bar width.
func WithWidth(w int) ProgressOption {
	return func(pb *ProgressBar) {
		pb.width = w
		pb.bar.Width = w
	}
}

// NewProgressBar creates a new progress bar.
// Uses a ColorPrimary gradient for styled rendering, solid fill for NO_COLOR mode.
func NewProgressBar(width int, opts ...ProgressOption) *ProgressBar {
	var bar progress.Model

	if HasColorSupport() {
		bar = progress.New(
			progress.WithWidth(width),
			progress.WithScaledGradient("#0087AF", "#00D7FF"),
		)
	} else {
		bar = progress.New(
			progress.WithWidth(width),
			progress.WithSolidFill("#808080"),
		)
	}

	pb := &ProgressBar{
		bar:   bar,
		width: width,
	}

	for _, opt := range opts {
		opt(pb)
	}

	return pb
}

// Render returns the progress bar as a string for the given percentage (0.0-1.0).
// Uses ViewAs for static rendering (no animation).
func (pb *ProgressBar) Render(percent float64) string {
	return pb.bar.ViewAs(min(max(percent, 0), 1))
}

// Width returns the current width of the progress bar.
func (pb *ProgressBar) Width() int {
	return pb.width
}

// PassProgress prints one line per completed overwrite pass. Its Observe
// method matches the destroyer's pass observer and is safe to call from
// concurrent erasures.
type PassProgress struct {
	mu  sync.Mutex
	w   io.Writer
	bar *ProgressBar
}

// NewPassProgress creates a PassProgress writing to w with a bar of the given width.
func NewPassProgress(w io.Writer, barWidth int) *PassProgress {
	return &PassProgress{w: w, bar: NewProgressBar(barWidth)}
}

// Observe records that pass of total finished for path.
func (p *PassProgress) Observe(path string, pass, total int) {
	if total <= 0 {
		return
	}
	line := fmt.Sprintf("  %s pass %s  %s",
		p.bar.Render(float64(pass)/float64(total)),
		StyleDim.Render(FormatPassCounter(pass, total)),
		filepath.Base(path))

	p.mu.Lock()
	defer p.mu.Unlock()
	_, _ = fmt.Fprintln(p.w, line)
}

// FormatPassCounter formats pass progress as "current/total" (e.g., "2/3").
func FormatPassCounter(current, total int) string {
	return fmt.Sprintf("%d/%d", current, total)
}
