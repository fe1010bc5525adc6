package attest

import (
	"strconv"
	"strings"
	"time"

	"github.com/mrz1836/wipecert/internal/constants"
	"github.com/mrz1836/wipecert/internal/domain"
)

// Canonical returns the byte-exact serialization that is signed.
// Field order: record_id, timestamp, operator_id, device_id, file_name,
// file_size, passes, method, digest_before, digest_after, standards_refs,
// tool_version, status.
func Canonical(r domain.AttestationRecord) []byte {
	fields := []string{
		r.RecordID,
		r.Timestamp.UTC().Format(time.RFC3339Nano),
		r.OperatorID,
		r.DeviceID,
		r.FileName,
		strconv.FormatInt(r.FileSize, 10),
		strconv.Itoa(r.Passes),
		r.Method,
		r.DigestBefore.String(),
		r.DigestAfter.String(),
		r.StandardsRefs,
		r.ToolVersion,
		r.Status.String(),
	}

	var b strings.Builder
	b.WriteString(constants.CanonicalVersion)
	for _, f := range fields {
		b.WriteByte('|')
		b.WriteString(strconv.Quote(f))
	}
	return []byte(b.String())
}
