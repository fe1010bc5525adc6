// Package testutil provides shared fixtures for wipecert tests.
//
// It should only be imported by test files (*_test.go).
package testutil

import "errors"

// Mock errors used to simulate failures in injected dependencies.
var (
	// ErrMockRemove simulates a directory entry that cannot be unlinked.
	ErrMockRemove = errors.New("mock remove failed")

	// ErrMockRead simulates a read failure on a content stream.
	ErrMockRead = errors.New("mock read failed")

	// ErrMockWrite simulates a write failure on an output stream.
	ErrMockWrite = errors.New("mock write failed")
)
