// Package trail implements the append-only audit trail.
//
// The trail holds two kinds of entries: lightweight anchors (digest,
// timestamp) and full signed records. There is no update or delete
// operation. Absence of a record for a claimed erasure is detectable, and
// two records sharing a record id are reported as an integrity violation.
//
// On disk the trail is two line-oriented files in one directory:
//
//	anchors.log   one "<RFC3339Nano UTC> | <hex sha256>" per line
//	records.csv   header row, then one row per record:
//	              record_id,timestamp,operator_id,device_id,file_name,
//	              file_size,passes,method,digest_before,digest_after,
//	              standards_refs,tool_version,status,signature
//
// The schema is stable so external tooling can parse the files directly.
package trail

import (
	"context"
	"time"

	"github.com/mrz1836/wipecert/internal/domain"
)

// Reader is the read side of the trail.
type Reader interface {
	// Anchors returns every anchor in append order.
	Anchors(ctx context.Context) ([]domain.Anchor, error)

	// Records returns every signed record in append order.
	Records(ctx context.Context) ([]domain.SignedRecord, error)

	// ReadAll returns anchors and records as one sequence in append order.
	ReadAll(ctx context.Context) ([]domain.Entry, error)
}

// Appender is the write side of the trail.
type Appender interface {
	// AppendAnchor appends a (digest, timestamp) anchor.
	AppendAnchor(ctx context.Context, digest domain.Digest, ts time.Time) error

	// AppendRecord appends a signed record. A record id already present
	// fails with errors.ErrDuplicateRecord.
	AppendRecord(ctx context.Context, record domain.AttestationRecord, signature domain.Signature) error
}

// Trail is the append-only audit trail.
//
// Appends are atomic with respect to crashes: an entry is fully present or
// absent. Concurrent appends are serialized. The trail stores its own
// copies of everything appended.
//
// A record is appended with the anchor of the same digest and timestamp.
// ReadAll places each record directly after that anchor, so pairs written
// inside one Session read back exactly as they were appended.
type Trail interface {
	Reader
	Appender

	// Session runs fn while holding the trail's append lock, so no other
	// writer can append between the entries fn writes. fn must append
	// through the Appender it is given, never through the Trail.
	Session(ctx context.Context, fn func(Appender) error) error

	// Ready reports whether the trail can accept appends. Existing records
	// that cannot be decoded fail with errors.ErrTrailCorrupted.
	Ready(ctx context.Context) error
}

// mergeEntries rebuilds the single append sequence from the two logs.
//
// Each record is paired with the first unpaired anchor carrying its
// digest_before and timestamp, falling back to the digest alone. Anchors up
// to and including the paired one are emitted before the record. Anchors
// that never got a record keep their position, and a record with no anchor
// follows the anchors emitted so far.
func mergeEntries(anchors []domain.Anchor, records []domain.SignedRecord) []domain.Entry {
	entries := make([]domain.Entry, 0, len(anchors)+len(records))

	byDigest := make(map[domain.Digest][]int)
	for i, a := range anchors {
		byDigest[a.Digest] = append(byDigest[a.Digest], i)
	}
	paired := make([]bool, len(anchors))

	next := 0
	for _, r := range records {
		if k := pairAnchor(anchors, byDigest[r.Record.DigestBefore], paired, r.Record.Timestamp); k >= 0 {
			paired[k] = true
			for ; next <= k; next++ {
				entries = append(entries, domain.AnchorEntry(anchors[next]))
			}
		}
		entries = append(entries, domain.RecordEntry(r))
	}
	for ; next < len(anchors); next++ {
		entries = append(entries, domain.AnchorEntry(anchors[next]))
	}
	return entries
}

// pairAnchor picks the anchor index for a record from the candidate
// indexes sharing its digest, or -1.
func pairAnchor(anchors []domain.Anchor, candidates []int, paired []bool, ts time.Time) int {
	fallback := -1
	for _, i := range candidates {
		if paired[i] {
			continue
		}
		if anchors[i].Timestamp.Equal(ts) {
			return i
		}
		if fallback < 0 {
			fallback = i
		}
	}
	return fallback
}
