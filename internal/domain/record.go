package domain

import (
	"time"
)

// Status describes how far an erasure got.
type Status string

// Record statuses. Only StatusSanitized claims the content is gone and the
// file removed.
const (
	// StatusSanitized means every pass completed and the file was removed.
	StatusSanitized Status = "SANITIZED"

	// StatusPartial means the content was overwritten but the directory
	// entry could not be removed.
	StatusPartial Status = "PARTIAL"

	// StatusFailed means the overwrite did not complete. The file still
	// exists in an indeterminate byte state.
	StatusFailed Status = "FAILED"
)

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusSanitized, StatusPartial, StatusFailed:
		return true
	}
	return false
}

// AttestationRecord is the immutable fact-set describing one erasure event.
// A record is created exactly once and never mutated; any correction is a
// new record with a new RecordID.
//
// Example JSON representation:
//
//	{
//	    "record_id": "SWC-20260105-1a2b3c4d",
//	    "timestamp": "2026-01-05T10:00:00.123456789Z",
//	    "operator_id": "gov-admin",
//	    "device_id": "AA:BB:CC",
//	    "file_name": "report.txt",
//	    "file_size": 8,
//	    "passes": 3,
//	    "method": "NIST CLEAR",
//	    "digest_before": "3c5b...",
//	    "digest_after": "e3b0c442...",
//	    "standards_refs": "NIST SP 800-88 Rev. 1",
//	    "tool_version": "wipecert v1.0",
//	    "status": "SANITIZED"
//	}
type AttestationRecord struct {
	// RecordID uniquely identifies the record.
	// Format: SWC-YYYYMMDD-xxxxxxxx
	RecordID string `json:"record_id"`

	// Timestamp is when destruction completed, in UTC.
	Timestamp time.Time `json:"timestamp"`

	// OperatorID identifies who ran the erasure.
	OperatorID string `json:"operator_id"`

	// DeviceID identifies the machine the erasure ran on.
	DeviceID string `json:"device_id"`

	// FileName is the caller-supplied display name of the erased file.
	FileName string `json:"file_name"`

	// FileSize is the number of bytes overwritten.
	FileSize int64 `json:"file_size"`

	// Passes is the number of overwrite passes attempted.
	Passes int `json:"passes"`

	// Method is the human-readable sanitization method label.
	Method string `json:"method"`

	// DigestBefore is the SHA-256 of the content measured before destruction.
	DigestBefore Digest `json:"digest_before"`

	// DigestAfter is SHA-256("") for sanitized records and empty otherwise.
	DigestAfter Digest `json:"digest_after"`

	// StandardsRefs names the sanitization standards the erasure follows.
	StandardsRefs string `json:"standards_refs"`

	// ToolVersion identifies the software that produced the record.
	ToolVersion string `json:"tool_version"`

	// Status is the erasure outcome.
	Status Status `json:"status"`
}

// Sanitized reports whether the record claims full sanitation.
func (r AttestationRecord) Sanitized() bool {
	return r.Status == StatusSanitized
}

// DestroyOutcome is what the destroyer observed while erasing one file.
type DestroyOutcome struct {
	// Path is the cleaned absolute path that was erased.
	Path string `json:"path"`

	// Size is the file length at the time of the first pass.
	Size int64 `json:"size"`

	// Passes is the number of passes attempted.
	Passes int `json:"passes"`

	// Touched is true once the file was opened for overwriting. An
	// untouched file still holds its original content.
	Touched bool `json:"touched"`

	// Overwritten is true when every pass was written and synced.
	Overwritten bool `json:"overwritten"`

	// Removed is true when the directory entry was removed.
	Removed bool `json:"removed"`
}

// Status derives the record status for the outcome.
func (o DestroyOutcome) Status() Status {
	switch {
	case o.Overwritten && o.Removed:
		return StatusSanitized
	case o.Overwritten:
		return StatusPartial
	default:
		return StatusFailed
	}
}
