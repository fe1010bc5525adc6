package domain

import "time"

// EntryKind distinguishes the two kinds of audit trail entries.
type EntryKind string

// Entry kinds.
const (
	EntryKindAnchor EntryKind = "anchor"
	EntryKindRecord EntryKind = "record"
)

// Anchor is the lightweight (digest, timestamp) trail entry.
type Anchor struct {
	Timestamp time.Time `json:"timestamp"`
	Digest    Digest    `json:"digest"`
}

// SignedRecord pairs a record with its detached signature.
type SignedRecord struct {
	Record    AttestationRecord `json:"record"`
	Signature Signature         `json:"signature"`
}

// Entry is one element of the audit trail. Exactly one of Anchor and
// Record is set, according to Kind.
type Entry struct {
	Kind   EntryKind     `json:"kind"`
	Anchor *Anchor       `json:"anchor,omitempty"`
	Record *SignedRecord `json:"record,omitempty"`
}

// Timestamp returns the timestamp of whichever payload is set.
func (e Entry) Timestamp() time.Time {
	switch {
	case e.Anchor != nil:
		return e.Anchor.Timestamp
	case e.Record != nil:
		return e.Record.Record.Timestamp
	}
	return time.Time{}
}

// AnchorEntry wraps an anchor as a trail entry.
func AnchorEntry(a Anchor) Entry {
	return Entry{Kind: EntryKindAnchor, Anchor: &a}
}

// RecordEntry wraps a signed record as a trail entry.
func RecordEntry(r SignedRecord) Entry {
	r.Signature = append(Signature(nil), r.Signature...)
	return Entry{Kind: EntryKindRecord, Record: &r}
}
