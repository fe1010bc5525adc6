package tui

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/glamour"

	"github.com/mrz1836/wipecert/internal/domain"
)

//nolint:gochecknoglobals // cached renderers keyed by wrap width
var (
	glamourRenderers   = map[int]*glamour.TermRenderer{}
	glamourRenderersMu sync.Mutex
)

// getGlamourRenderer returns a cached glamour renderer for the given width,
// or nil if one cannot be built.
func getGlamourRenderer(width int) *glamour.TermRenderer {
	glamourRenderersMu.Lock()
	defer glamourRenderersMu.Unlock()

	if r, ok := glamourRenderers[width]; ok {
		return r
	}
	style := glamour.WithAutoStyle()
	if !HasColorSupport() {
		style = glamour.WithStandardStyle("notty")
	}
	r, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(width))
	if err != nil {
		return nil
	}
	glamourRenderers[width] = r
	return r
}

// CertificateMarkdown renders a certificate as a markdown document. When
// verified is non-nil the verification outcome is included.
func CertificateMarkdown(cert *domain.Certificate, verified *bool) string {
	r := cert.Record
	var b strings.Builder

	fmt.Fprintf(&b, "# Certificate of Data Sanitization\n\n")
	fmt.Fprintf(&b, "**%s** `%s`\n\n", StatusIcon(r.Status)+" "+StatusLabel(r.Status), r.RecordID)

	b.WriteString("| Field | Value |\n|---|---|\n")
	rows := [][2]string{
		{"Timestamp", r.Timestamp.UTC().Format(time.RFC3339Nano)},
		{"Operator", r.OperatorID},
		{"Device", r.DeviceID},
		{"File", r.FileName},
		{"Size", fmt.Sprintf("%d bytes", r.FileSize)},
		{"Method", fmt.Sprintf("%s (%d passes)", r.Method, r.Passes)},
		{"Standards", r.StandardsRefs},
		{"Digest before", "`" + string(r.DigestBefore) + "`"},
		{"Digest after", digestCell(r.DigestAfter)},
		{"Tool", r.ToolVersion},
	}
	for _, row := range rows {
		fmt.Fprintf(&b, "| %s | %s |\n", row[0], escapeCell(row[1]))
	}

	fmt.Fprintf(&b, "\n## Signature\n\n")
	fmt.Fprintf(&b, "- Algorithm: %s\n", cert.Algorithm)
	fmt.Fprintf(&b, "- Key fingerprint: `%s`\n", cert.KeyFingerprint)
	if verified != nil {
		if *verified {
			b.WriteString("- Verification: **valid**\n")
		} else {
			b.WriteString("- Verification: **INVALID**\n")
		}
	}
	return b.String()
}

// RenderMarkdown renders markdown for the terminal at the given width,
// falling back to the raw markdown if rendering fails.
func RenderMarkdown(md string, width int) string {
	if renderer := getGlamourRenderer(width); renderer != nil {
		if rendered, err := renderer.Render(md); err == nil {
			return rendered
		}
	}
	return md
}

func digestCell(d domain.Digest) string {
	if d.IsZero() {
		return "(none)"
	}
	return "`" + string(d) + "`"
}

// escapeCell keeps operator-supplied text from breaking the table.
func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
