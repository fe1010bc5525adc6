package trail

import (
	"context"
	"crypto/rsa"
	"fmt"
	"time"

	"github.com/mrz1836/wipecert/internal/attest"
	"github.com/mrz1836/wipecert/internal/domain"
	wcerrors "github.com/mrz1836/wipecert/internal/errors"
)

// ProblemKind classifies an integrity problem.
type ProblemKind string

// Problem kinds reported by Check.
const (
	// ProblemDuplicateRecord means two rows share a record id.
	ProblemDuplicateRecord ProblemKind = "duplicate_record"

	// ProblemOrphanAnchor means an anchor has no record with its digest.
	// A crash between the two appends leaves one behind.
	ProblemOrphanAnchor ProblemKind = "orphan_anchor"

	// ProblemMissingAnchor means a record has no anchor for its digest.
	ProblemMissingAnchor ProblemKind = "missing_anchor"

	// ProblemBadSignature means a record's signature does not verify.
	ProblemBadSignature ProblemKind = "bad_signature"
)

// Problem is one integrity finding.
type Problem struct {
	Kind     ProblemKind   `json:"kind"`
	RecordID string        `json:"record_id,omitempty"`
	Digest   domain.Digest `json:"digest,omitempty"`
	Detail   string        `json:"detail"`
}

// Report summarizes a trail check.
type Report struct {
	Anchors  int       `json:"anchors"`
	Records  int       `json:"records"`
	Verified int       `json:"verified"`
	Problems []Problem `json:"problems"`
}

// OK reports whether the check found no problems.
func (r Report) OK() bool {
	return len(r.Problems) == 0
}

// Err returns errors.ErrIntegrityViolation when the report has problems.
func (r Report) Err() error {
	if r.OK() {
		return nil
	}
	return fmt.Errorf("%w: %d problem(s)", wcerrors.ErrIntegrityViolation, len(r.Problems))
}

// Check inspects the trail for duplicate record ids and for anchors and
// records that do not pair up by digest. When pub is non-nil every record
// signature is verified as well.
func Check(ctx context.Context, r Reader, pub *rsa.PublicKey) (Report, error) {
	anchors, err := r.Anchors(ctx)
	if err != nil {
		return Report{}, err
	}
	records, err := r.Records(ctx)
	if err != nil {
		return Report{}, err
	}

	report := Report{Anchors: len(anchors), Records: len(records), Problems: []Problem{}}

	seen := make(map[string]int, len(records))
	for _, rec := range records {
		id := rec.Record.RecordID
		seen[id]++
		if seen[id] == 2 {
			report.Problems = append(report.Problems, Problem{
				Kind:     ProblemDuplicateRecord,
				RecordID: id,
				Detail:   "record id appears more than once",
			})
		}
	}

	// Anchors and records pair up by digest as multisets; identical content
	// erased twice yields two of each.
	pending := make(map[domain.Digest]int, len(anchors))
	for _, a := range anchors {
		pending[a.Digest]++
	}
	for _, rec := range records {
		d := rec.Record.DigestBefore
		if pending[d] > 0 {
			pending[d]--
			continue
		}
		report.Problems = append(report.Problems, Problem{
			Kind:     ProblemMissingAnchor,
			RecordID: rec.Record.RecordID,
			Digest:   d,
			Detail:   "record has no matching anchor",
		})
	}
	for _, a := range anchors {
		if pending[a.Digest] == 0 {
			continue
		}
		pending[a.Digest]--
		report.Problems = append(report.Problems, Problem{
			Kind:   ProblemOrphanAnchor,
			Digest: a.Digest,
			Detail: fmt.Sprintf("anchor at %s has no matching record", a.Timestamp.Format(time.RFC3339)),
		})
	}

	if pub != nil {
		for _, rec := range records {
			ok, err := attest.Verify(rec.Record, rec.Signature, pub)
			if err != nil || !ok {
				detail := "signature does not verify"
				if err != nil {
					detail = err.Error()
				}
				report.Problems = append(report.Problems, Problem{
					Kind:     ProblemBadSignature,
					RecordID: rec.Record.RecordID,
					Detail:   detail,
				})
				continue
			}
			report.Verified++
		}
	}

	return report, nil
}
