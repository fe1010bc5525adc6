package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mrz1836/wipecert/internal/constants"
	"github.com/mrz1836/wipecert/internal/errors"
)

// GlobalConfigDir returns the path to the global wipecert directory.
// This is typically ~/.wipecert on Unix systems.
//
// Returns an error if the home directory cannot be determined.
func GlobalConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to get home directory")
	}
	return filepath.Join(home, constants.WipecertHome), nil
}

// ProjectConfigDir returns the relative path to the project configuration directory.
// This is always .wipecert relative to the working directory.
func ProjectConfigDir() string {
	return constants.WipecertHome
}

// GlobalConfigPath returns the full path to the global configuration file.
// This is typically ~/.wipecert/config.yaml on Unix systems.
//
// Returns an error if the home directory cannot be determined.
func GlobalConfigPath() (string, error) {
	dir, err := GlobalConfigDir()
	if err != nil {
		return "", fmt.Errorf("get global config path: %w", err)
	}
	return filepath.Join(dir, constants.GlobalConfigName), nil
}

// ProjectConfigPath returns the relative path to the project configuration file.
// This is always .wipecert/config.yaml relative to the working directory.
func ProjectConfigPath() string {
	return filepath.Join(ProjectConfigDir(), constants.GlobalConfigName)
}

// KeyPath returns the configured private key path, or the default
// ~/.wipecert/keys/signing.key when none is set.
func (c *Config) KeyPath() (string, error) {
	return resolve(c.Keys.Path, constants.KeysDir, constants.KeyFileName)
}

// TrailDir returns the configured trail directory, or ~/.wipecert/trail.
func (c *Config) TrailDir() (string, error) {
	return resolve(c.Trail.Dir, constants.TrailDir)
}

// CertificateDir returns the configured certificate directory, or
// ~/.wipecert/certificates.
func (c *Config) CertificateDir() (string, error) {
	return resolve(c.Erase.CertificateDir, constants.CertificatesDir)
}

// resolve returns configured with a leading ~ expanded, or the default
// location under the global directory when configured is empty.
func resolve(configured string, defaults ...string) (string, error) {
	if configured != "" {
		return expandHome(configured)
	}
	dir, err := GlobalConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(append([]string{dir}, defaults...)...), nil
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to get home directory")
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
