package trail

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mrz1836/wipecert/internal/domain"
	wcerrors "github.com/mrz1836/wipecert/internal/errors"
)

// MemoryTrail is an in-memory Trail for tests and dry runs.
type MemoryTrail struct {
	mu      sync.RWMutex
	anchors []domain.Anchor
	records []domain.SignedRecord
	ids     map[string]struct{}
}

// NewMemoryTrail creates an empty MemoryTrail.
func NewMemoryTrail() *MemoryTrail {
	return &MemoryTrail{ids: make(map[string]struct{})}
}

// AppendAnchor implements Trail.
func (m *MemoryTrail) AppendAnchor(ctx context.Context, digest domain.Digest, ts time.Time) error {
	return m.Session(ctx, func(a Appender) error {
		return a.AppendAnchor(ctx, digest, ts)
	})
}

// AppendRecord implements Trail.
func (m *MemoryTrail) AppendRecord(ctx context.Context, record domain.AttestationRecord, signature domain.Signature) error {
	return m.Session(ctx, func(a Appender) error {
		return a.AppendRecord(ctx, record, signature)
	})
}

// Session implements Trail.
func (m *MemoryTrail) Session(ctx context.Context, fn func(Appender) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(memoryAppender{m: m})
}

// Ready implements Trail.
func (m *MemoryTrail) Ready(ctx context.Context) error {
	return ctx.Err()
}

// memoryAppender appends while the session holds m.mu.
type memoryAppender struct {
	m *MemoryTrail
}

func (a memoryAppender) AppendAnchor(ctx context.Context, digest domain.Digest, ts time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := digest.Validate(); err != nil {
		return fmt.Errorf("appending anchor: %w", err)
	}
	a.m.anchors = append(a.m.anchors, domain.Anchor{Timestamp: ts.UTC(), Digest: digest})
	return nil
}

func (a memoryAppender) AppendRecord(ctx context.Context, record domain.AttestationRecord, signature domain.Signature) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if record.RecordID == "" {
		return fmt.Errorf("appending record: record id %w", wcerrors.ErrEmptyValue)
	}
	if _, ok := a.m.ids[record.RecordID]; ok {
		return fmt.Errorf("%w: %s", wcerrors.ErrDuplicateRecord, record.RecordID)
	}
	a.m.ids[record.RecordID] = struct{}{}
	a.m.records = append(a.m.records, domain.SignedRecord{
		Record:    record,
		Signature: append(domain.Signature(nil), signature...),
	})
	return nil
}

// Anchors implements Reader.
func (m *MemoryTrail) Anchors(_ context.Context) ([]domain.Anchor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]domain.Anchor(nil), m.anchors...), nil
}

// Records implements Reader.
func (m *MemoryTrail) Records(_ context.Context) ([]domain.SignedRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.SignedRecord, len(m.records))
	for i, r := range m.records {
		out[i] = domain.SignedRecord{Record: r.Record, Signature: append(domain.Signature(nil), r.Signature...)}
	}
	return out, nil
}

// ReadAll implements Reader.
func (m *MemoryTrail) ReadAll(_ context.Context) ([]domain.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return mergeEntries(m.anchors, m.records), nil
}

var _ Trail = (*MemoryTrail)(nil)
