package trail

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/mrz1836/wipecert/internal/domain"
	wcerrors "github.com/mrz1836/wipecert/internal/errors"
)

// anchorSeparator separates the timestamp and digest on an anchor line.
const anchorSeparator = " | "

// RecordColumns is the records.csv header.
//
//nolint:gochecknoglobals // Fixed file schema
var RecordColumns = []string{
	"record_id",
	"timestamp",
	"operator_id",
	"device_id",
	"file_name",
	"file_size",
	"passes",
	"method",
	"digest_before",
	"digest_after",
	"standards_refs",
	"tool_version",
	"status",
	"signature",
}

func encodeAnchor(a domain.Anchor) []byte {
	return []byte(a.Timestamp.UTC().Format(time.RFC3339Nano) + anchorSeparator + a.Digest.String() + "\n")
}

func decodeAnchor(line string) (domain.Anchor, error) {
	tsText, digestText, ok := strings.Cut(line, anchorSeparator)
	if !ok {
		return domain.Anchor{}, fmt.Errorf("missing %q separator", anchorSeparator)
	}
	ts, err := time.Parse(time.RFC3339Nano, tsText)
	if err != nil {
		return domain.Anchor{}, fmt.Errorf("parsing timestamp: %w", err)
	}
	digest, err := domain.ParseDigest(digestText)
	if err != nil {
		return domain.Anchor{}, err
	}
	return domain.Anchor{Timestamp: ts.UTC(), Digest: digest}, nil
}

// decodeAnchors parses complete anchor lines.
func decodeAnchors(data []byte) ([]domain.Anchor, error) {
	var anchors []domain.Anchor
	for n, line := range strings.Split(strings.TrimSuffix(string(data), "\n"), "\n") {
		if line == "" {
			continue
		}
		a, err := decodeAnchor(line)
		if err != nil {
			return nil, fmt.Errorf("%w: anchors line %d: %w", wcerrors.ErrTrailCorrupted, n+1, err)
		}
		anchors = append(anchors, a)
	}
	return anchors, nil
}

func encodeRecordRow(r domain.AttestationRecord, sig domain.Signature) ([]byte, error) {
	return encodeCSV([]string{
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
		sig.String(),
	})
}

func encodeCSV(row []string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(row); err != nil {
		return nil, fmt.Errorf("encoding row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("encoding row: %w", err)
	}
	return buf.Bytes(), nil
}

// decodeRecords parses complete records.csv content, header included.
func decodeRecords(data []byte) ([]domain.SignedRecord, error) {
	return decodeRows(data, true)
}

// decodeRows parses complete records.csv rows. With header the first row
// must be the records.csv header.
func decodeRows(data []byte, header bool) ([]domain.SignedRecord, error) {
	if len(data) == 0 {
		return nil, nil
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = len(RecordColumns)
	r.ReuseRecord = true

	if header {
		row, err := r.Read()
		if err != nil {
			return nil, fmt.Errorf("%w: records header: %w", wcerrors.ErrTrailCorrupted, err)
		}
		if !slices.Equal(row, RecordColumns) {
			return nil, fmt.Errorf("%w: unexpected records header %q", wcerrors.ErrTrailCorrupted, strings.Join(row, ","))
		}
	}

	var records []domain.SignedRecord
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", wcerrors.ErrTrailCorrupted, err)
		}
		line, _ := r.FieldPos(0)
		rec, err := decodeRecordRow(row)
		if err != nil {
			return nil, fmt.Errorf("%w: records line %d: %w", wcerrors.ErrTrailCorrupted, line, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func decodeRecordRow(row []string) (domain.SignedRecord, error) {
	ts, err := time.Parse(time.RFC3339Nano, row[1])
	if err != nil {
		return domain.SignedRecord{}, fmt.Errorf("parsing timestamp: %w", err)
	}
	size, err := strconv.ParseInt(row[5], 10, 64)
	if err != nil {
		return domain.SignedRecord{}, fmt.Errorf("parsing file_size: %w", err)
	}
	passes, err := strconv.Atoi(row[6])
	if err != nil {
		return domain.SignedRecord{}, fmt.Errorf("parsing passes: %w", err)
	}
	before, err := domain.ParseDigest(row[8])
	if err != nil {
		return domain.SignedRecord{}, fmt.Errorf("digest_before: %w", err)
	}
	after := domain.Digest(row[9])
	if !after.IsZero() {
		if err := after.Validate(); err != nil {
			return domain.SignedRecord{}, fmt.Errorf("digest_after: %w", err)
		}
	}
	status := domain.Status(row[12])
	if !status.Valid() {
		return domain.SignedRecord{}, fmt.Errorf("unknown status %q", row[12])
	}
	sig, err := domain.ParseSignature(row[13])
	if err != nil {
		return domain.SignedRecord{}, err
	}

	return domain.SignedRecord{
		Record: domain.AttestationRecord{
			RecordID:      row[0],
			Timestamp:     ts.UTC(),
			OperatorID:    row[2],
			DeviceID:      row[3],
			FileName:      row[4],
			FileSize:      size,
			Passes:        passes,
			Method:        row[7],
			DigestBefore:  before,
			DigestAfter:   after,
			StandardsRefs: row[10],
			ToolVersion:   row[11],
			Status:        status,
		},
		Signature: sig,
	}, nil
}

// completeLines returns data up to and including its last newline.
// A trailing fragment is an append that never finished and is not part of
// the trail.
func completeLines(data []byte) []byte {
	i := bytes.LastIndexByte(data, '\n')
	return data[:i+1]
}
