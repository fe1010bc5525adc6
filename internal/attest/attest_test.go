package attest

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mrz1836/wipecert/internal/domain"
)

//nolint:gochecknoglobals // Key generation is slow; share keys across tests
var (
	keysOnce sync.Once
	keyA     *rsa.PrivateKey
	keyB     *rsa.PrivateKey
)

func testKeys(t *testing.T) (*rsa.PrivateKey, *rsa.PrivateKey) {
	t.Helper()
	keysOnce.Do(func() {
		var err error
		keyA, err = rsa.GenerateKey(rand.Reader, 2048)
		require.NoError(t, err)
		keyB, err = rsa.GenerateKey(rand.Reader, 2048)
		require.NoError(t, err)
	})
	require.NotNil(t, keyA)
	return keyA, keyB
}

func secretDigest() domain.Digest {
	return domain.DigestFromSum(sha256.Sum256([]byte("SECRET!!")))
}

func sampleRecord() domain.AttestationRecord {
	return domain.AttestationRecord{
		RecordID:      "SWC-20260105-1a2b3c4d",
		Timestamp:     time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC),
		OperatorID:    "gov-admin",
		DeviceID:      "AA:BB:CC",
		FileName:      "report.txt",
		FileSize:      8,
		Passes:        3,
		Method:        "NIST CLEAR",
		DigestBefore:  secretDigest(),
		DigestAfter:   domain.EmptyDigest(),
		StandardsRefs: "NIST SP 800-88 Rev. 1",
		ToolVersion:   "wipecert v1.0",
		Status:        domain.StatusSanitized,
	}
}
