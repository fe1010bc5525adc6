// Package config provides configuration management for wipecert with layered precedence.
//
// Configuration sources are loaded in the following order (highest precedence first):
//  1. CLI flags (passed via LoadWithOverrides)
//  2. Environment variables (WIPECERT_* prefix)
//  3. Project config (.wipecert/config.yaml)
//  4. Global config (~/.wipecert/config.yaml)
//  5. Built-in defaults
//
// Each higher level completely overrides the lower level for the same key.
//
// IMPORTANT: This package may import internal/constants and internal/errors,
// but MUST NOT import internal/domain or other internal packages.
package config

import "time"

// Config is the root configuration structure for wipecert.
type Config struct {
	// Keys controls where the deployment signing key lives and how it is generated.
	Keys KeysConfig `yaml:"keys" mapstructure:"keys" json:"keys"`

	// Trail controls the location of the audit trail and its locking behavior.
	Trail TrailConfig `yaml:"trail" mapstructure:"trail" json:"trail"`

	// Erase contains the overwrite policy and record metadata.
	Erase EraseConfig `yaml:"erase" mapstructure:"erase" json:"erase"`

	// Identity holds the default operator and device recorded in attestations.
	Identity IdentityConfig `yaml:"identity" mapstructure:"identity" json:"identity"`
}

// KeysConfig contains settings for the signing key.
type KeysConfig struct {
	// Path is the PEM file holding the private key.
	// Empty means ~/.wipecert/keys/signing.key.
	Path string `yaml:"path" mapstructure:"path" json:"path"`

	// Bits is the RSA modulus size used when a key is first generated.
	// Must be 2048, 3072, or 4096. Ignored once a key exists.
	// Default: 2048
	Bits int `yaml:"bits" mapstructure:"bits" json:"bits"`
}

// TrailConfig contains settings for the append-only audit trail.
type TrailConfig struct {
	// Dir is the directory holding anchors.log and records.csv.
	// Empty means ~/.wipecert/trail.
	Dir string `yaml:"dir" mapstructure:"dir" json:"dir"`

	// LockTimeout bounds how long an append waits for the cross-process lock.
	// Default: 5s
	LockTimeout time.Duration `yaml:"lock_timeout" mapstructure:"lock_timeout" json:"lock_timeout"`
}

// EraseConfig contains settings for the overwrite policy.
type EraseConfig struct {
	// Passes is the number of random overwrite passes.
	// Must be between 1 and 35. Default: 3
	Passes int `yaml:"passes" mapstructure:"passes" json:"passes"`

	// Concurrency bounds how many files are erased at once by a batch.
	// Must be between 1 and 64. Default: 4
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency" json:"concurrency"`

	// Standards is recorded verbatim as standards_refs in every attestation.
	// Default: "NIST SP 800-88 Rev. 1"
	Standards string `yaml:"standards" mapstructure:"standards" json:"standards"`

	// CertificateDir is where `wipecert erase` writes exported certificates.
	// Empty means ~/.wipecert/certificates.
	CertificateDir string `yaml:"certificate_dir" mapstructure:"certificate_dir" json:"certificate_dir"`
}

// IdentityConfig holds the identity recorded when no flag overrides it.
type IdentityConfig struct {
	// OperatorID names the person or service performing erasures.
	OperatorID string `yaml:"operator_id" mapstructure:"operator_id" json:"operator_id"`

	// DeviceID names the machine. Empty means the hostname at erase time.
	DeviceID string `yaml:"device_id" mapstructure:"device_id" json:"device_id"`
}
