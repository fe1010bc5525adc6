package erasure

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"testing/iotest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/wipecert/internal/attest"
	"github.com/mrz1836/wipecert/internal/crypto"
	"github.com/mrz1836/wipecert/internal/crypto/keystore"
	"github.com/mrz1836/wipecert/internal/domain"
	wcerrors "github.com/mrz1836/wipecert/internal/errors"
	"github.com/mrz1836/wipecert/internal/fingerprint"
	"github.com/mrz1836/wipecert/internal/shred"
	"github.com/mrz1836/wipecert/internal/testutil"
	"github.com/mrz1836/wipecert/internal/trail"
)

//nolint:gochecknoglobals // Key generation is slow; share one key across tests
var (
	seedOnce sync.Once
	seedPEM  []byte
)

func keySeed(t *testing.T) []byte {
	t.Helper()
	seedOnce.Do(func() {
		var err error
		seedPEM, err = crypto.EncodePrivateKeyPEM(testutil.RSAKey(t))
		require.NoError(t, err)
	})
	require.NotEmpty(t, seedPEM)
	return seedPEM
}

type fixture struct {
	svc   *Service
	keys  *keystore.Store
	trail *trail.MemoryTrail
	dir   string
}

func newFixture(t *testing.T, opts ...shred.Option) *fixture {
	t.Helper()
	keys := keystore.New(keystore.NewMemoryBackend(keySeed(t)))
	tr := trail.NewMemoryTrail()
	svc, err := New(Config{
		Keys:      keys,
		Trail:     tr,
		Destroyer: shred.New(opts...),
	})
	require.NoError(t, err)
	return &fixture{svc: svc, keys: keys, trail: tr, dir: t.TempDir()}
}

func (f *fixture) writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(f.dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func (f *fixture) entries(t *testing.T) []domain.Entry {
	t.Helper()
	entries, err := f.svc.ListAuditEntries(context.Background())
	require.NoError(t, err)
	return entries
}

func TestErase_ReportScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	path := f.writeFile(t, "report.txt", "SECRET!!")

	result, err := f.svc.Erase(ctx, EraseRequest{
		Path:       path,
		OperatorID: "gov-admin",
		DeviceID:   "AA:BB:CC",
		FileName:   "report.txt",
	})
	require.NoError(t, err)

	secret := sha256.Sum256([]byte("SECRET!!"))
	r := result.Record
	assert.Equal(t, domain.DigestFromSum(secret), r.DigestBefore)
	assert.Equal(t, domain.EmptyDigest(), r.DigestAfter)
	assert.Equal(t, domain.StatusSanitized, r.Status)
	assert.Equal(t, "gov-admin", r.OperatorID)
	assert.Equal(t, "AA:BB:CC", r.DeviceID)
	assert.Equal(t, "report.txt", r.FileName)
	assert.Equal(t, int64(8), r.FileSize)

	ok, err := f.svc.VerifyCertificate(ctx, r, result.Signature)
	require.NoError(t, err)
	assert.True(t, ok)

	assert.NoFileExists(t, path)
	_, err = fingerprint.DigestFile(ctx, path)
	require.ErrorIs(t, err, wcerrors.ErrNotFound)

	entries := f.entries(t)
	require.Len(t, entries, 2)
	assert.Equal(t, domain.EntryKindAnchor, entries[0].Kind)
	assert.Equal(t, r.DigestBefore, entries[0].Anchor.Digest)
	assert.Equal(t, r.Timestamp, entries[0].Anchor.Timestamp)
	assert.Equal(t, domain.EntryKindRecord, entries[1].Kind)
	assert.Equal(t, r, entries[1].Record.Record)
}

func TestErase_FromHandle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	path := f.writeFile(t, "upload.bin", "SECRET!!")

	result, err := f.svc.Erase(ctx, EraseRequest{
		File:       bytes.NewReader([]byte("SECRET!!")),
		Path:       path,
		OperatorID: "gov-admin",
		DeviceID:   "AA:BB:CC",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.DigestFromSum(sha256.Sum256([]byte("SECRET!!"))), result.Record.DigestBefore)
	assert.Equal(t, "upload.bin", result.Record.FileName)
}

func TestErase_NotFound(t *testing.T) {
	f := newFixture(t)

	result, err := f.svc.Erase(context.Background(), EraseRequest{
		Path:       filepath.Join(f.dir, "missing.txt"),
		OperatorID: "gov-admin",
		DeviceID:   "AA:BB:CC",
	})
	require.ErrorIs(t, err, wcerrors.ErrNotFound)
	assert.Nil(t, result)
	assert.Empty(t, f.entries(t), "nothing appended for a missing file")
}

func TestErase_PartialDestroy(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, shred.WithRemover(func(string) error {
		return testutil.ErrMockRemove
	}))
	path := f.writeFile(t, "report.txt", "SECRET!!")

	result, err := f.svc.Erase(ctx, EraseRequest{Path: path, OperatorID: "gov-admin", DeviceID: "AA:BB:CC"})
	require.ErrorIs(t, err, wcerrors.ErrPartialDestroy)
	require.NotNil(t, result, "a partial destroy is still attested")

	assert.Equal(t, domain.StatusPartial, result.Record.Status)
	assert.NotEqual(t, domain.StatusSanitized, result.Record.Status)
	assert.True(t, result.Record.DigestAfter.IsZero())

	entries := f.entries(t)
	require.Len(t, entries, 2)
	assert.Equal(t, domain.StatusPartial, entries[1].Record.Record.Status)

	ok, err := f.svc.VerifyCertificate(ctx, result.Record, result.Signature)
	require.NoError(t, err)
	assert.True(t, ok)

	content, readErr := os.ReadFile(path) //#nosec G304 -- test temp dir
	require.NoError(t, readErr)
	assert.NotEqual(t, "SECRET!!", string(content))
}

func TestErase_OverwriteFailure(t *testing.T) {
	f := newFixture(t, shred.WithRandom(iotest.ErrReader(testutil.ErrMockRead)))
	path := f.writeFile(t, "report.txt", "SECRET!!")

	result, err := f.svc.Erase(context.Background(), EraseRequest{Path: path, OperatorID: "gov-admin", DeviceID: "AA:BB:CC"})
	require.ErrorIs(t, err, wcerrors.ErrIO)
	require.NotNil(t, result)
	assert.Equal(t, domain.StatusFailed, result.Record.Status)
	assert.FileExists(t, path)
	assert.Len(t, f.entries(t), 2)
}

func TestErase_NothingTouchedOnEarlyFailure(t *testing.T) {
	ctx := context.Background()

	t.Run("missing identity", func(t *testing.T) {
		f := newFixture(t)
		path := f.writeFile(t, "report.txt", "SECRET!!")

		_, err := f.svc.Erase(ctx, EraseRequest{Path: path, DeviceID: "AA:BB:CC"})
		require.ErrorIs(t, err, wcerrors.ErrValidation)
		assert.FileExists(t, path)
		assert.Empty(t, f.entries(t))
	})

	t.Run("directory", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Erase(ctx, EraseRequest{Path: f.dir, OperatorID: "op", DeviceID: "dev"})
		require.ErrorIs(t, err, wcerrors.ErrIO)
		assert.Empty(t, f.entries(t))
	})

	t.Run("symlink", func(t *testing.T) {
		f := newFixture(t)
		target := f.writeFile(t, "target.txt", "SECRET!!")
		link := filepath.Join(f.dir, "link.txt")
		require.NoError(t, os.Symlink(target, link))

		result, err := f.svc.Erase(ctx, EraseRequest{Path: link, OperatorID: "op", DeviceID: "dev"})
		require.ErrorIs(t, err, wcerrors.ErrIO)
		assert.Nil(t, result)
		assert.Empty(t, f.entries(t))

		content, readErr := os.ReadFile(target) //#nosec G304 -- test temp dir
		require.NoError(t, readErr)
		assert.Equal(t, "SECRET!!", string(content))
	})

	t.Run("corrupted trail", func(t *testing.T) {
		trailDir := t.TempDir()
		tr, err := trail.NewFileTrail(trailDir)
		require.NoError(t, err)
		require.NoError(t, tr.AppendRecord(ctx, validRecord(t), domain.Signature("sig")))
		appendLine(t, tr.RecordPath(), "bogus,row")

		svc, err := New(Config{
			Keys:      keystore.New(keystore.NewMemoryBackend(keySeed(t))),
			Trail:     tr,
			Destroyer: shred.New(),
		})
		require.NoError(t, err)

		path := filepath.Join(t.TempDir(), "report.txt")
		require.NoError(t, os.WriteFile(path, []byte("SECRET!!"), 0o600))

		result, err := svc.Erase(ctx, EraseRequest{Path: path, OperatorID: "op", DeviceID: "dev"})
		require.ErrorIs(t, err, wcerrors.ErrTrailCorrupted)
		assert.Nil(t, result)
		assert.FileExists(t, path, "file is not destroyed when the trail cannot take its record")

		anchors, err := tr.Anchors(ctx)
		require.NoError(t, err)
		assert.Empty(t, anchors)
	})

	t.Run("control character in file name", func(t *testing.T) {
		f := newFixture(t)
		path := f.writeFile(t, "bad\nname.txt", "SECRET!!")

		_, err := f.svc.Erase(ctx, EraseRequest{Path: path, OperatorID: "op", DeviceID: "dev"})
		require.ErrorIs(t, err, wcerrors.ErrValidation)
		assert.FileExists(t, path)
		assert.Empty(t, f.entries(t))

		result, err := f.svc.Erase(ctx, EraseRequest{Path: path, OperatorID: "op", DeviceID: "dev", FileName: "bad-name.txt"})
		require.NoError(t, err)
		assert.Equal(t, "bad-name.txt", result.Record.FileName)
	})

	t.Run("corrupt key", func(t *testing.T) {
		tr := trail.NewMemoryTrail()
		svc, err := New(Config{
			Keys:      keystore.New(keystore.NewMemoryBackend([]byte("garbage"))),
			Trail:     tr,
			Destroyer: shred.New(),
		})
		require.NoError(t, err)

		path := filepath.Join(t.TempDir(), "report.txt")
		require.NoError(t, os.WriteFile(path, []byte("SECRET!!"), 0o600))

		_, err = svc.Erase(ctx, EraseRequest{Path: path, OperatorID: "op", DeviceID: "dev"})
		require.ErrorIs(t, err, wcerrors.ErrStorage)
		assert.FileExists(t, path, "file is not destroyed when it cannot be attested")

		entries, err := tr.ReadAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("canceled", func(t *testing.T) {
		f := newFixture(t)
		path := f.writeFile(t, "report.txt", "SECRET!!")

		canceled, cancel := context.WithCancel(ctx)
		cancel()
		_, err := f.svc.Erase(canceled, EraseRequest{Path: path, OperatorID: "op", DeviceID: "dev"})
		require.ErrorIs(t, err, context.Canceled)
		assert.FileExists(t, path)
		assert.Empty(t, f.entries(t))
	})
}

// recordFailingTrail is a MemoryTrail whose record appends fail.
type recordFailingTrail struct {
	*trail.MemoryTrail
}

func (r recordFailingTrail) Session(ctx context.Context, fn func(trail.Appender) error) error {
	return r.MemoryTrail.Session(ctx, func(a trail.Appender) error {
		return fn(recordFailingAppender{Appender: a})
	})
}

type recordFailingAppender struct {
	trail.Appender
}

func (recordFailingAppender) AppendRecord(context.Context, domain.AttestationRecord, domain.Signature) error {
	return testutil.ErrMockWrite
}

func TestErase_RecordAppendFailureKeepsResult(t *testing.T) {
	ctx := context.Background()
	mem := trail.NewMemoryTrail()
	keys := keystore.New(keystore.NewMemoryBackend(keySeed(t)))
	svc, err := New(Config{
		Keys:      keys,
		Trail:     recordFailingTrail{MemoryTrail: mem},
		Destroyer: shred.New(),
	})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "report.txt")
	require.NoError(t, os.WriteFile(path, []byte("SECRET!!"), 0o600))

	result, err := svc.Erase(ctx, EraseRequest{Path: path, OperatorID: "gov-admin", DeviceID: "AA:BB:CC"})
	require.ErrorIs(t, err, testutil.ErrMockWrite)
	require.NotNil(t, result, "the signed record is returned so its certificate can be kept")
	assert.NoFileExists(t, path)
	assert.Equal(t, domain.StatusSanitized, result.Record.Status)

	ok, err := svc.VerifyCertificate(ctx, result.Record, result.Signature)
	require.NoError(t, err)
	assert.True(t, ok)

	entries, err := mem.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.EntryKindAnchor, entries[0].Kind)
}

func TestEraseAll_TrailFollowsAppendOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, shred.WithPasses(1))

	var reqs []EraseRequest
	for i := range 12 {
		path := f.writeFile(t, fmt.Sprintf("f%02d.txt", i), fmt.Sprintf("content %d", i))
		reqs = append(reqs, EraseRequest{Path: path, OperatorID: "gov-admin", DeviceID: "AA:BB:CC"})
	}
	for _, item := range f.svc.EraseAll(ctx, reqs) {
		require.NoError(t, item.Err)
	}

	entries := f.entries(t)
	require.Len(t, entries, 24)
	for i := 0; i < len(entries); i += 2 {
		require.Equal(t, domain.EntryKindAnchor, entries[i].Kind)
		require.Equal(t, domain.EntryKindRecord, entries[i+1].Kind)
		assert.Equal(t, entries[i].Anchor.Digest, entries[i+1].Record.Record.DigestBefore)
		assert.Equal(t, entries[i].Anchor.Timestamp, entries[i+1].Record.Record.Timestamp)
	}
}

func TestVerifyCertificate_Tampered(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	path := f.writeFile(t, "report.txt", "SECRET!!")

	result, err := f.svc.Erase(ctx, EraseRequest{Path: path, OperatorID: "gov-admin", DeviceID: "AA:BB:CC"})
	require.NoError(t, err)

	tampered := result.Record
	tampered.OperatorID = "someone-else"
	ok, err := f.svc.VerifyCertificate(ctx, tampered, result.Signature)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = f.svc.VerifyCertificate(ctx, result.Record, nil)
	require.ErrorIs(t, err, wcerrors.ErrFormat)
}

func TestCertificate_OfflineVerification(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	path := f.writeFile(t, "report.txt", "SECRET!!")

	result, err := f.svc.Erase(ctx, EraseRequest{Path: path, OperatorID: "gov-admin", DeviceID: "AA:BB:CC"})
	require.NoError(t, err)

	cert, err := f.svc.Certificate(ctx, result)
	require.NoError(t, err)

	data, err := attest.MarshalCertificate(cert)
	require.NoError(t, err)
	parsed, err := attest.ParseCertificate(data)
	require.NoError(t, err)

	ok, err := attest.VerifyCertificate(parsed, nil)
	require.NoError(t, err)
	assert.True(t, ok)

	fp, err := f.keys.Fingerprint(ctx)
	require.NoError(t, err)
	assert.Equal(t, fp, parsed.KeyFingerprint)

	_, err = f.svc.Certificate(ctx, nil)
	require.ErrorIs(t, err, wcerrors.ErrEmptyValue)
}

func TestFindRecordAndCheckTrail(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	path := f.writeFile(t, "report.txt", "SECRET!!")

	result, err := f.svc.Erase(ctx, EraseRequest{Path: path, OperatorID: "gov-admin", DeviceID: "AA:BB:CC"})
	require.NoError(t, err)

	found, err := f.svc.FindRecord(ctx, result.Record.RecordID)
	require.NoError(t, err)
	assert.Equal(t, result.Record, found.Record)
	assert.Equal(t, result.Signature, found.Signature)

	_, err = f.svc.FindRecord(ctx, "SWC-00000000-deadbeef")
	require.ErrorIs(t, err, wcerrors.ErrNotFound)

	report, err := f.svc.CheckTrail(ctx, true)
	require.NoError(t, err)
	assert.True(t, report.OK())
	assert.Equal(t, 1, report.Verified)
}

func TestEraseAll(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, shred.WithPasses(1))

	var reqs []EraseRequest
	for i := range 10 {
		path := f.writeFile(t, fmt.Sprintf("f%02d.txt", i), fmt.Sprintf("content %d", i))
		reqs = append(reqs, EraseRequest{Path: path, OperatorID: "gov-admin", DeviceID: "AA:BB:CC"})
	}
	reqs = append(reqs, EraseRequest{Path: filepath.Join(f.dir, "missing.txt"), OperatorID: "gov-admin", DeviceID: "AA:BB:CC"})

	items := f.svc.EraseAll(ctx, reqs)
	require.Len(t, items, len(reqs))

	ids := make(map[string]bool)
	for i, item := range items[:10] {
		require.NoError(t, item.Err)
		assert.Equal(t, reqs[i].Path, item.Request.Path, "items keep request order")
		assert.Equal(t, domain.StatusSanitized, item.Result.Record.Status)
		ids[item.Result.Record.RecordID] = true
	}
	assert.Len(t, ids, 10)
	require.ErrorIs(t, items[10].Err, wcerrors.ErrNotFound)

	assert.Len(t, f.entries(t), 20)
	report, err := f.svc.CheckTrail(ctx, true)
	require.NoError(t, err)
	assert.True(t, report.OK(), "problems: %v", report.Problems)
}

func TestErase_PersistentDeployment(t *testing.T) {
	ctx := context.Background()
	home := t.TempDir()
	keyPath := filepath.Join(home, "keys", "signing.key")
	trailDir := filepath.Join(home, "trail")

	newService := func() *Service {
		tr, err := trail.NewFileTrail(trailDir)
		require.NoError(t, err)
		svc, err := New(Config{
			Keys:      keystore.New(keystore.NewFileBackend(keyPath, time.Second)),
			Trail:     tr,
			Destroyer: shred.New(),
		})
		require.NoError(t, err)
		return svc
	}

	path := filepath.Join(t.TempDir(), "report.txt")
	require.NoError(t, os.WriteFile(path, []byte("SECRET!!"), 0o600))

	result, err := newService().Erase(ctx, EraseRequest{Path: path, OperatorID: "gov-admin", DeviceID: "AA:BB:CC"})
	require.NoError(t, err)

	// A later process verifies against the same persisted key and trail.
	later := newService()
	ok, err := later.VerifyCertificate(ctx, result.Record, result.Signature)
	require.NoError(t, err)
	assert.True(t, ok)

	entries, err := later.ListAuditEntries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, result.Record, entries[1].Record.Record)
}

// validRecord returns a record that decodes cleanly from the trail.
func validRecord(t *testing.T) domain.AttestationRecord {
	t.Helper()
	digest, err := fingerprint.Digest(context.Background(), bytes.NewReader([]byte("earlier")))
	require.NoError(t, err)
	record, err := attest.NewBuilder().BuildRecord(digest, domain.DestroyOutcome{
		Path: "/data/earlier.txt", Size: 7, Passes: 3, Touched: true, Overwritten: true, Removed: true,
	}, "op", "dev", "")
	require.NoError(t, err)
	return record
}

func appendLine(t *testing.T, path, line string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0o600) //#nosec G304 -- test temp dir
	require.NoError(t, err)
	_, err = f.WriteString(line + "\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())
}

func TestNew_RequiresCollaborators(t *testing.T) {
	keys := keystore.New(keystore.NewMemoryBackend(nil))
	tr := trail.NewMemoryTrail()
	d := shred.New()

	_, err := New(Config{Trail: tr, Destroyer: d})
	require.ErrorIs(t, err, wcerrors.ErrEmptyValue)
	_, err = New(Config{Keys: keys, Destroyer: d})
	require.ErrorIs(t, err, wcerrors.ErrEmptyValue)
	_, err = New(Config{Keys: keys, Trail: tr})
	require.ErrorIs(t, err, wcerrors.ErrEmptyValue)

	_, err = New(Config{Keys: keys, Trail: tr, Destroyer: d, Builder: attest.NewBuilder(attest.WithStandards("NIST\nDoD"))})
	require.ErrorIs(t, err, wcerrors.ErrValidation)

	svc, err := New(Config{Keys: keys, Trail: tr, Destroyer: d, Concurrency: 1000})
	require.NoError(t, err)
	assert.Equal(t, 64, svc.concurrency)
}
