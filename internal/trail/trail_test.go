package trail

import (
	"context"
	"crypto/sha256"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/wipecert/internal/domain"
	wcerrors "github.com/mrz1836/wipecert/internal/errors"
)

//nolint:gochecknoglobals // Fixed base instant for test records
var baseTime = time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)

func digestOf(s string) domain.Digest {
	return domain.DigestFromSum(sha256.Sum256([]byte(s)))
}

func testRecord(i int) domain.AttestationRecord {
	return domain.AttestationRecord{
		RecordID:      fmt.Sprintf("SWC-20260105-%08x", i),
		Timestamp:     baseTime.Add(time.Duration(i) * time.Second),
		OperatorID:    "gov-admin",
		DeviceID:      "AA:BB:CC",
		FileName:      fmt.Sprintf("file-%d.txt", i),
		FileSize:      int64(i),
		Passes:        3,
		Method:        "NIST CLEAR",
		DigestBefore:  digestOf(fmt.Sprintf("content-%d", i)),
		DigestAfter:   domain.EmptyDigest(),
		StandardsRefs: "NIST SP 800-88 Rev. 1",
		ToolVersion:   "wipecert v1.0",
		Status:        domain.StatusSanitized,
	}
}

// appendPair appends an anchor and record the way the erase pipeline does.
func appendPair(ctx context.Context, t *testing.T, tr Trail, r domain.AttestationRecord) {
	t.Helper()
	require.NoError(t, tr.AppendAnchor(ctx, r.DigestBefore, r.Timestamp))
	require.NoError(t, tr.AppendRecord(ctx, r, domain.Signature(r.RecordID)))
}

// trailContract runs the behavior every Trail implementation must share.
func trailContract(t *testing.T, newTrail func(t *testing.T) Trail) {
	ctx := context.Background()

	t.Run("empty trail reads empty", func(t *testing.T) {
		entries, err := newTrail(t).ReadAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("read order equals append order", func(t *testing.T) {
		tr := newTrail(t)
		for i := range 20 {
			appendPair(ctx, t, tr, testRecord(i))
		}

		entries, err := tr.ReadAll(ctx)
		require.NoError(t, err)
		require.Len(t, entries, 40)
		for i := range 20 {
			anchor, record := entries[2*i], entries[2*i+1]
			require.Equal(t, domain.EntryKindAnchor, anchor.Kind)
			require.Equal(t, domain.EntryKindRecord, record.Kind)
			assert.Equal(t, testRecord(i).DigestBefore, anchor.Anchor.Digest)
			assert.Equal(t, testRecord(i), record.Record.Record)
			assert.Equal(t, domain.Signature(testRecord(i).RecordID), record.Record.Signature)
		}
	})

	t.Run("pairs read back in append order regardless of timestamp", func(t *testing.T) {
		tr := newTrail(t)
		late, early := testRecord(2), testRecord(1)
		appendPair(ctx, t, tr, late)
		appendPair(ctx, t, tr, early)

		entries, err := tr.ReadAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{
			"anchor:" + late.DigestBefore.String(),
			late.RecordID,
			"anchor:" + early.DigestBefore.String(),
			early.RecordID,
		}, entryKeys(entries))
	})

	t.Run("anchor without record keeps its position", func(t *testing.T) {
		tr := newTrail(t)
		first, orphan, last := testRecord(1), testRecord(2), testRecord(3)
		appendPair(ctx, t, tr, first)
		require.NoError(t, tr.AppendAnchor(ctx, orphan.DigestBefore, orphan.Timestamp))
		appendPair(ctx, t, tr, last)

		entries, err := tr.ReadAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{
			"anchor:" + first.DigestBefore.String(),
			first.RecordID,
			"anchor:" + orphan.DigestBefore.String(),
			"anchor:" + last.DigestBefore.String(),
			last.RecordID,
		}, entryKeys(entries))
	})

	t.Run("concurrent sessions never interleave pairs", func(t *testing.T) {
		tr := newTrail(t)

		var wg sync.WaitGroup
		for i := range 16 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				// Later workers carry earlier timestamps.
				r := testRecord(100 - i)
				assert.NoError(t, tr.Session(ctx, func(a Appender) error {
					if err := a.AppendAnchor(ctx, r.DigestBefore, r.Timestamp); err != nil {
						return err
					}
					return a.AppendRecord(ctx, r, domain.Signature(r.RecordID))
				}))
			}()
		}
		wg.Wait()

		entries, err := tr.ReadAll(ctx)
		require.NoError(t, err)
		require.Len(t, entries, 32)
		for i := 0; i < len(entries); i += 2 {
			require.Equal(t, domain.EntryKindAnchor, entries[i].Kind)
			require.Equal(t, domain.EntryKindRecord, entries[i+1].Kind)
			assert.Equal(t, entries[i].Anchor.Digest, entries[i+1].Record.Record.DigestBefore)
		}
	})

	t.Run("session append failure surfaces", func(t *testing.T) {
		tr := newTrail(t)
		r := testRecord(1)
		appendPair(ctx, t, tr, r)

		err := tr.Session(ctx, func(a Appender) error {
			return a.AppendRecord(ctx, r, domain.Signature("again"))
		})
		require.ErrorIs(t, err, wcerrors.ErrDuplicateRecord)
		require.NoError(t, tr.Ready(ctx))
	})

	t.Run("records keep append order regardless of timestamp", func(t *testing.T) {
		tr := newTrail(t)
		late, early := testRecord(9), testRecord(1)
		require.NoError(t, tr.AppendRecord(ctx, late, domain.Signature("a")))
		require.NoError(t, tr.AppendRecord(ctx, early, domain.Signature("b")))

		records, err := tr.Records(ctx)
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, late.RecordID, records[0].Record.RecordID)
		assert.Equal(t, early.RecordID, records[1].Record.RecordID)
	})

	t.Run("duplicate record id rejected", func(t *testing.T) {
		tr := newTrail(t)
		r := testRecord(1)
		require.NoError(t, tr.AppendRecord(ctx, r, domain.Signature("a")))

		changed := r
		changed.Status = domain.StatusPartial
		err := tr.AppendRecord(ctx, changed, domain.Signature("b"))
		require.ErrorIs(t, err, wcerrors.ErrDuplicateRecord)

		records, err := tr.Records(ctx)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, domain.StatusSanitized, records[0].Record.Status, "existing record never replaced")
	})

	t.Run("stores copies", func(t *testing.T) {
		tr := newTrail(t)
		r := testRecord(1)
		sig := domain.Signature("signature")
		require.NoError(t, tr.AppendRecord(ctx, r, sig))
		sig[0] = 'X'
		r.OperatorID = "mallory"

		records, err := tr.Records(ctx)
		require.NoError(t, err)
		assert.Equal(t, "gov-admin", records[0].Record.OperatorID)
		assert.Equal(t, domain.Signature("signature"), records[0].Signature)

		records[0].Signature[0] = 'Y'
		again, err := tr.Records(ctx)
		require.NoError(t, err)
		assert.Equal(t, domain.Signature("signature"), again[0].Signature)
	})

	t.Run("invalid input rejected", func(t *testing.T) {
		tr := newTrail(t)
		require.ErrorIs(t, tr.AppendAnchor(ctx, "nothex", baseTime), wcerrors.ErrFormat)
		require.ErrorIs(t, tr.AppendRecord(ctx, domain.AttestationRecord{}, domain.Signature("a")), wcerrors.ErrEmptyValue)
	})

	t.Run("canceled context appends nothing", func(t *testing.T) {
		tr := newTrail(t)
		canceled, cancel := context.WithCancel(ctx)
		cancel()
		require.ErrorIs(t, tr.AppendAnchor(canceled, digestOf("x"), baseTime), context.Canceled)

		entries, err := tr.ReadAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}

func TestMemoryTrail(t *testing.T) {
	trailContract(t, func(*testing.T) Trail { return NewMemoryTrail() })
}

func TestFileTrail(t *testing.T) {
	trailContract(t, func(t *testing.T) Trail {
		tr, err := NewFileTrail(t.TempDir())
		require.NoError(t, err)
		return tr
	})
}

// entryKeys renders entries as "anchor:<digest>" or the record id.
func entryKeys(entries []domain.Entry) []string {
	keys := make([]string, len(entries))
	for i, e := range entries {
		if e.Anchor != nil {
			keys[i] = "anchor:" + e.Anchor.Digest.String()
		} else {
			keys[i] = e.Record.Record.RecordID
		}
	}
	return keys
}

func TestMergeEntries(t *testing.T) {
	anchorOf := func(r domain.AttestationRecord) domain.Anchor {
		return domain.Anchor{Timestamp: r.Timestamp, Digest: r.DigestBefore}
	}
	signed := func(r domain.AttestationRecord) domain.SignedRecord {
		return domain.SignedRecord{Record: r}
	}
	r1, r2, r3 := testRecord(1), testRecord(2), testRecord(3)

	sameContent := testRecord(4)
	sameContent.DigestBefore = r1.DigestBefore

	tests := []struct {
		name    string
		anchors []domain.Anchor
		records []domain.SignedRecord
		want    []string
	}{
		{
			name: "empty",
			want: []string{},
		},
		{
			name:    "pairs out of timestamp order",
			anchors: []domain.Anchor{anchorOf(r3), anchorOf(r1)},
			records: []domain.SignedRecord{signed(r3), signed(r1)},
			want:    []string{"anchor:" + r3.DigestBefore.String(), r3.RecordID, "anchor:" + r1.DigestBefore.String(), r1.RecordID},
		},
		{
			name:    "trailing orphan anchor",
			anchors: []domain.Anchor{anchorOf(r1), anchorOf(r2)},
			records: []domain.SignedRecord{signed(r1)},
			want:    []string{"anchor:" + r1.DigestBefore.String(), r1.RecordID, "anchor:" + r2.DigestBefore.String()},
		},
		{
			name:    "record without anchor",
			anchors: []domain.Anchor{anchorOf(r2)},
			records: []domain.SignedRecord{signed(r1), signed(r2)},
			want:    []string{r1.RecordID, "anchor:" + r2.DigestBefore.String(), r2.RecordID},
		},
		{
			name:    "identical content pairs by timestamp",
			anchors: []domain.Anchor{anchorOf(r1), anchorOf(sameContent)},
			records: []domain.SignedRecord{signed(sameContent), signed(r1)},
			want:    []string{"anchor:" + r1.DigestBefore.String(), "anchor:" + r1.DigestBefore.String(), sameContent.RecordID, r1.RecordID},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, entryKeys(mergeEntries(tt.anchors, tt.records)))
		})
	}
}
