// Package tui provides terminal user interface components for wipecert.
//
// This package provides a centralized style system using Lip Gloss for consistent
// styling. All colors use AdaptiveColor for light/dark terminal support.
//
// # Semantic Colors
//
// Five semantic colors are exported for use across components:
//   - ColorPrimary (Blue): headings, progress, informational output
//   - ColorSuccess (Green): SANITIZED records, valid signatures
//   - ColorWarning (Yellow): PARTIAL records, attention required
//   - ColorError (Red): FAILED records, invalid signatures
//   - ColorMuted (Gray): secondary text
//
// # Status Icons
//
// Every status display carries icon + color + text so it survives NO_COLOR.
//
// # NO_COLOR Support
//
// Call CheckNoColor() at the start of commands to respect the NO_COLOR environment
// variable. Colors are also disabled when TERM=dumb.
package tui

import (
	"os"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/mrz1836/wipecert/internal/domain"
)

//nolint:gochecknoglobals // Intentional package-level constants for TUI styling API
var (
	// ColorPrimary is blue, used for headings and progress.
	ColorPrimary = lipgloss.AdaptiveColor{Light: "#0087AF", Dark: "#00D7FF"}

	// ColorSuccess is green, used for sanitized records and valid signatures.
	ColorSuccess = lipgloss.AdaptiveColor{Light: "#008700", Dark: "#00FF87"}

	// ColorWarning is yellow, used for partial records.
	ColorWarning = lipgloss.AdaptiveColor{Light: "#AF8700", Dark: "#FFD700"}

	// ColorError is red, used for failed records and invalid signatures.
	ColorError = lipgloss.AdaptiveColor{Light: "#AF0000", Dark: "#FF5F5F"}

	// ColorMuted is gray, used for secondary text.
	ColorMuted = lipgloss.AdaptiveColor{Light: "#585858", Dark: "#6C6C6C"}

	// StyleBold applies bold formatting to text.
	StyleBold = lipgloss.NewStyle().Bold(true)

	// StyleDim applies dim/faint formatting to text.
	StyleDim = lipgloss.NewStyle().Faint(true)

	// titleCaser renders status labels such as SANITIZED as "Sanitized".
	titleCaser = cases.Title(language.English)
)

// DefaultTerminalWidth is used when terminal width cannot be determined.
const DefaultTerminalWidth = 80

// StatusColors returns the semantic color for each record status.
func StatusColors() map[domain.Status]lipgloss.AdaptiveColor {
	return map[domain.Status]lipgloss.AdaptiveColor{
		domain.StatusSanitized: ColorSuccess,
		domain.StatusPartial:   ColorWarning,
		domain.StatusFailed:    ColorError,
	}
}

// StatusIcon returns the icon for a record status.
func StatusIcon(status domain.Status) string {
	switch status {
	case domain.StatusSanitized:
		return "✓"
	case domain.StatusPartial:
		return "⚠"
	case domain.StatusFailed:
		return "✗"
	}
	return "?"
}

// StatusLabel returns the title-cased label for a status, e.g. "Sanitized".
func StatusLabel(status domain.Status) string {
	return titleCaser.String(strings.ToLower(string(status)))
}

// FormatStatus renders icon and label in the status color.
func FormatStatus(status domain.Status) string {
	text := StatusIcon(status) + " " + StatusLabel(status)
	color, ok := StatusColors()[status]
	if !ok || !HasColorSupport() {
		return text
	}
	return lipgloss.NewStyle().Foreground(color).Render(text)
}

// TableStyles holds lipgloss styles for table rendering.
type TableStyles struct {
	Header lipgloss.Style
	Cell   lipgloss.Style
	Dim    lipgloss.Style
}

// NewTableStyles creates styles for table rendering.
func NewTableStyles() *TableStyles {
	return &TableStyles{
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#333333", Dark: "#DDDDDD"}),
		Cell: lipgloss.NewStyle(),
		Dim: lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#666666", Dark: "#888888"}),
	}
}

// OutputStyles holds common output styles.
type OutputStyles struct {
	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style
	Dim     lipgloss.Style
}

// NewOutputStyles creates common output styles using AdaptiveColor for light/dark terminal support.
func NewOutputStyles() *OutputStyles {
	return &OutputStyles{
		Success: lipgloss.NewStyle().
			Foreground(ColorSuccess).
			Bold(true),
		Error: lipgloss.NewStyle().
			Foreground(ColorError).
			Bold(true),
		Warning: lipgloss.NewStyle().
			Foreground(ColorWarning),
		Info: lipgloss.NewStyle().
			Foreground(ColorPrimary),
		Dim: lipgloss.NewStyle().
			Foreground(ColorMuted),
	}
}

// CheckNoColor respects the NO_COLOR environment variable.
// Call this at the start of commands that output styled text.
func CheckNoColor() {
	if !HasColorSupport() {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}

// HasColorSupport returns true if the terminal supports colors.
// Returns false if NO_COLOR is set (any value including empty string) or TERM=dumb.
// This follows the NO_COLOR standard: https://no-color.org/
func HasColorSupport() bool {
	if _, exists := os.LookupEnv("NO_COLOR"); exists {
		return false
	}
	return os.Getenv("TERM") != "dumb"
}

// TerminalWidth returns the width of stdout, or DefaultTerminalWidth when
// stdout is not a terminal.
func TerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd())) //nolint:gosec // G115: file descriptors fit in int
	if err != nil || width <= 0 {
		return DefaultTerminalWidth
	}
	return width
}

// padRight pads s with spaces to the given visual width.
func padRight(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return s
	}
	return s + strings.Repeat(" ", width-n)
}
