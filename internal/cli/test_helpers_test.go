package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mrz1836/wipecert/internal/constants"
	"github.com/mrz1836/wipecert/internal/crypto"
	"github.com/mrz1836/wipecert/internal/testutil"
)

// This file contains test utilities and mocks for testing CLI functions.

// mockFormRunner is a test helper that implements the formRunner interface.
// Use this to mock Charm Huh forms in tests.
type mockFormRunner struct {
	// runErr is the error to return from Run()
	runErr error

	// onRun is an optional callback executed when Run() is called
	// Use this to simulate user input by modifying form values
	onRun func()
}

// Run executes the mock form, optionally calling the onRun callback.
func (m *mockFormRunner) Run() error {
	if m.onRun != nil {
		m.onRun()
	}
	return m.runErr
}

// mockTerminalCheckFunc returns a function that can replace terminalCheck in tests.
// The returned cleanup function should be deferred to restore the original.
func mockTerminalCheckFunc(isTerminal bool) func() {
	original := terminalCheck
	terminalCheck = func() bool { return isTerminal }
	return func() { terminalCheck = original }
}

// mockConfirmForm replaces the erase confirmation form with one that
// answers answer. The returned cleanup function restores the original.
func mockConfirmForm(answer bool) func() {
	original := createEraseConfirmForm
	createEraseConfirmForm = func(_, _ int, confirm *bool) formRunner {
		return &mockFormRunner{onRun: func() { *confirm = answer }}
	}
	return func() { createEraseConfirmForm = original }
}

// cliEnv is an isolated home and working directory for one test.
type cliEnv struct {
	home string
	work string
}

// wipecertDir returns ~/.wipecert inside the test home.
func (e cliEnv) wipecertDir() string {
	return filepath.Join(e.home, constants.WipecertHome)
}

// certDir returns the default certificate directory.
func (e cliEnv) certDir() string {
	return filepath.Join(e.wipecertDir(), constants.CertificatesDir)
}

// trailDir returns the default trail directory.
func (e cliEnv) trailDir() string {
	return filepath.Join(e.wipecertDir(), constants.TrailDir)
}

// setupCLI isolates HOME, the working directory and WIPECERT_ variables,
// and installs the shared test key as the deployment key so commands do
// not generate a fresh one.
func setupCLI(t *testing.T) cliEnv {
	t.Helper()

	for _, env := range os.Environ() {
		key, _, _ := strings.Cut(env, "=")
		if strings.HasPrefix(key, "WIPECERT_") {
			t.Setenv(key, "")
			require.NoError(t, os.Unsetenv(key))
		}
	}

	env := cliEnv{home: t.TempDir(), work: t.TempDir()}
	t.Setenv("HOME", env.home)
	t.Setenv("WIPECERT_HOME", env.wipecertDir())
	t.Setenv("NO_COLOR", "1")
	t.Chdir(env.work)

	keyPEM, err := crypto.EncodePrivateKeyPEM(testutil.RSAKey(t))
	require.NoError(t, err)
	keyPath := filepath.Join(env.wipecertDir(), constants.KeysDir, constants.KeyFileName)
	require.NoError(t, os.MkdirAll(filepath.Dir(keyPath), constants.DirPerm))
	require.NoError(t, os.WriteFile(keyPath, keyPEM, constants.KeyFilePerm))

	return env
}

// runCLI executes the root command with args and returns what it wrote.
func runCLI(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()

	cmd := newRootCmd(&GlobalFlags{}, BuildInfo{Version: "test"})
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)

	err = cmd.ExecuteContext(context.Background())
	CloseLogFile()
	return out.String(), errOut.String(), err
}

// eraseJSON erases paths with --force and JSON output and decodes the result.
func eraseJSON(t *testing.T, args ...string) ([]eraseItem, error) {
	t.Helper()

	args = append([]string{"erase", "--force", "-o", "json", "--passes", "1"}, args...)
	stdout, _, err := runCLI(t, args...)

	var items []eraseItem
	require.NoError(t, json.Unmarshal([]byte(stdout), &items), stdout)
	return items, err
}
