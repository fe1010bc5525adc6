package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mrz1836/wipecert/internal/constants"
	"github.com/mrz1836/wipecert/internal/errors"
)

// Marshal renders cfg as YAML.
func Marshal(cfg *Config) ([]byte, error) {
	if cfg == nil {
		return nil, errors.ErrConfigNil
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal config")
	}
	return data, nil
}

// Write saves cfg to path as YAML with a generated header, creating parent
// directories as needed. An existing file is only replaced when force is set.
func Write(path string, cfg *Config, force bool) error {
	if err := Validate(cfg); err != nil {
		return err
	}
	if !force && fileExists(path) {
		return errors.Wrapf(errors.ErrConfigExists, "%s", path)
	}

	data, err := Marshal(cfg)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), constants.DirPerm); err != nil {
		return errors.Wrap(err, "failed to create config directory")
	}

	header := fmt.Sprintf("# wipecert configuration\n# Generated by wipecert config init on %s\n\n",
		time.Now().UTC().Format(time.RFC3339))

	if err := os.WriteFile(path, append([]byte(header), data...), constants.FilePerm); err != nil {
		return errors.Wrap(err, "failed to write config file")
	}
	return nil
}
