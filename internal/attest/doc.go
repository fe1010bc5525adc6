// Package attest builds attestation records and signs and verifies them.
//
// A record is signed over its canonical form: the version tag followed by
// every field in a fixed order, each Go-quoted, joined by "|":
//
//	wipecert/v1|"SWC-20260105-1a2b3c4d"|"2026-01-05T10:00:00Z"|"gov-admin"|...
//
// Quoting makes the encoding injective, so no two distinct records share a
// canonical form. Signatures are RSA-PSS over SHA-256 with a salt as long
// as the hash; signing the same record twice yields different bytes and
// both verify.
//
// Verification is a pure function of (record, signature, public key) and
// never consults the audit trail, so exported certificates can be checked
// offline.
package attest
