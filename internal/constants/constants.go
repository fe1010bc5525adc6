// Package constants provides centralized constant values used throughout wipecert.
// This package is the single source of truth for all shared constants and MUST NOT
// import any other internal packages.
package constants

import "time"

// Directory names and paths used by wipecert for organizing data.
const (
	// WipecertHome is the hidden directory name where wipecert stores its data.
	// This directory is created in the user's home directory.
	WipecertHome = ".wipecert"

	// KeysDir is the directory name where the signing key is stored.
	KeysDir = "keys"

	// TrailDir is the directory name where the audit trail logs are stored.
	TrailDir = "trail"

	// LogsDir is the directory name where log files are stored.
	LogsDir = "logs"

	// CertificatesDir is the directory name where exported certificates are written.
	CertificatesDir = "certificates"
)

// File names used by wipecert for persisted state.
const (
	// KeyFileName is the PEM file holding the deployment signing key.
	KeyFileName = "signing.key"

	// AnchorLogFileName is the append-only anchor log ("<timestamp> | <digest>" per line).
	AnchorLogFileName = "anchors.log"

	// RecordLogFileName is the append-only record log (CSV with header row).
	RecordLogFileName = "records.csv"

	// TrailLockFileName serializes appends across processes.
	TrailLockFileName = "trail.lock"

	// LockFileSuffix is appended to a path to derive its lock file.
	LockFileSuffix = ".lock"

	// CLILogFileName is the name of the global CLI log file.
	// This file is located in ~/.wipecert/logs/wipecert.log
	CLILogFileName = "wipecert.log"

	// GlobalConfigName is the name of the global configuration file.
	GlobalConfigName = "config.yaml"
)

// Log rotation settings for the CLI log file.
const (
	// LogMaxSizeMB is the maximum size in megabytes before a log file is rotated.
	LogMaxSizeMB = 10

	// LogMaxBackups is the maximum number of rotated log files to keep.
	LogMaxBackups = 5

	// LogMaxAgeDays is the maximum number of days to retain rotated log files.
	LogMaxAgeDays = 30

	// LogCompress enables gzip compression of rotated log files.
	LogCompress = true
)

// Erasure policy defaults.
const (
	// DefaultPasses is the default number of random overwrite passes.
	DefaultPasses = 3

	// MinPasses is the minimum number of overwrite passes.
	MinPasses = 1

	// MaxPasses is the maximum number of overwrite passes (Gutmann).
	MaxPasses = 35

	// DoDPasses is the pass count at which the method label becomes DoD 5220.22-M.
	DoDPasses = 7

	// DefaultConcurrency is the default number of files erased in parallel.
	DefaultConcurrency = 4

	// MaxConcurrency bounds parallel erasures.
	MaxConcurrency = 64

	// OverwriteBufferSize is the chunk size used when writing random bytes.
	OverwriteBufferSize = 64 * 1024

	// DigestBufferSize is the chunk size used when streaming file content into the hash.
	DigestBufferSize = 32 * 1024
)

// Signing key policy.
const (
	// DefaultRSAKeyBits is the default RSA modulus size for new signing keys.
	DefaultRSAKeyBits = 2048

	// SignatureAlgorithm names the signing scheme recorded in certificates.
	SignatureAlgorithm = "RSA-PSS-SHA256"
)

// Record content defaults.
const (
	// ToolVersion is recorded in every attestation.
	ToolVersion = "wipecert v1.0"

	// StandardNIST80088 is the default sanitization standard reference.
	StandardNIST80088 = "NIST SP 800-88 Rev. 1"

	// RecordIDPrefix prefixes every record id (Secure Wipe Certificate).
	RecordIDPrefix = "SWC"

	// CanonicalVersion is the first element of the canonical record serialization.
	CanonicalVersion = "wipecert/v1"

	// CertificateVersion is the current exported certificate format version.
	CertificateVersion = 1
)

// Method labels derived from the number of overwrite passes.
const (
	// MethodNISTClear is used for fewer than DoDPasses passes.
	MethodNISTClear = "NIST CLEAR"

	// MethodDoD is used for DoDPasses up to MaxPasses-1 passes.
	MethodDoD = "DOD 5220.22-M"

	// MethodGutmann is used for MaxPasses passes.
	MethodGutmann = "GUTMANN METHOD"
)

// Lock timing.
const (
	// DefaultLockTimeout is the maximum duration to wait for a file lock.
	DefaultLockTimeout = 5 * time.Second

	// LockRetryInterval is the delay between non-blocking lock attempts.
	LockRetryInterval = 50 * time.Millisecond
)

// File permissions.
const (
	// DirPerm is used for every directory wipecert creates.
	DirPerm = 0o700

	// FilePerm is used for logs and certificates.
	FilePerm = 0o600

	// KeyFilePerm is used for the private key file.
	KeyFilePerm = 0o600
)
