// Package domain provides the shared value types of the wipecert erasure
// pipeline: attestation records, digests, signatures, destroy outcomes and
// audit trail entries.
//
// This package follows strict import rules:
//   - CAN import: internal/constants, internal/errors, standard library
//   - MUST NOT import: any other internal packages
//
// All JSON field names use snake_case.
package domain
