package tui

import (
	"time"

	"github.com/mrz1836/wipecert/internal/domain"
)

// AuditHeaders are the column names used by AuditRows.
//
//nolint:gochecknoglobals // Immutable column list
var AuditHeaders = []string{"TIME", "KIND", "RECORD", "STATUS", "FILE", "OPERATOR", "DIGEST"}

// AuditRows flattens trail entries into table rows. Digests are shortened
// to their first 16 hex characters.
func AuditRows(entries []domain.Entry) [][]string {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		ts := e.Timestamp().UTC().Format(time.RFC3339)
		switch {
		case e.Anchor != nil:
			rows = append(rows, []string{ts, string(e.Kind), "", "", "", "", shortDigest(e.Anchor.Digest)})
		case e.Record != nil:
			r := e.Record.Record
			rows = append(rows, []string{
				ts, string(e.Kind), r.RecordID,
				StatusIcon(r.Status) + " " + StatusLabel(r.Status),
				r.FileName, r.OperatorID, shortDigest(r.DigestBefore),
			})
		}
	}
	return rows
}

func shortDigest(d domain.Digest) string {
	const n = 16
	if len(d) <= n {
		return string(d)
	}
	return string(d[:n])
}
