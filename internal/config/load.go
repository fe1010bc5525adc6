package config

import (
	"context"
	stderrors "errors"
	"os"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/mrz1836/wipecert/internal/errors"
)

// newViperInstance creates a new Viper instance with standard wipecert configuration.
// This includes environment variable prefix (WIPECERT_), key replacer, and defaults.
func newViperInstance() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("WIPECERT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// isConfigNotFoundError returns true if the error is a viper config file not found error.
func isConfigNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	var configNotFoundErr viper.ConfigFileNotFoundError
	return stderrors.As(err, &configNotFoundErr)
}

// unmarshalAndValidate unmarshals viper config into Config struct and validates it.
func unmarshalAndValidate(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg, viperDecoderOption()); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	if err := Validate(&cfg); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return &cfg, nil
}

// Load reads configuration from all available sources with proper precedence.
// Configuration is loaded in the following order (highest precedence first):
//  1. Environment variables (WIPECERT_* prefix)
//  2. Project config (.wipecert/config.yaml)
//  3. Global config (~/.wipecert/config.yaml)
//  4. Built-in defaults
//
// For CLI flag overrides, use LoadWithOverrides instead.
//
// Missing config files are not an error.
func Load(ctx context.Context) (*Config, error) {
	v := newViperInstance()

	if err := loadGlobalConfig(v); err != nil {
		return nil, err
	}

	if err := loadProjectConfig(v); err != nil {
		return nil, err
	}

	cfg, err := unmarshalAndValidate(v)
	if err != nil {
		return nil, err
	}

	logger := zerolog.Ctx(ctx).With().Str("component", "config").Logger()
	logger.Debug().
		Int("keys.bits", cfg.Keys.Bits).
		Dur("trail.lock_timeout", cfg.Trail.LockTimeout).
		Int("erase.passes", cfg.Erase.Passes).
		Int("erase.concurrency", cfg.Erase.Concurrency).
		Msg("configuration loaded")

	return cfg, nil
}

// loadGlobalConfig attempts to load the global config file (~/.wipecert/config.yaml).
// Returns nil if the file doesn't exist or home directory cannot be determined.
func loadGlobalConfig(v *viper.Viper) error {
	globalConfigPath, err := GlobalConfigPath()
	if err != nil || !fileExists(globalConfigPath) {
		return nil
	}

	v.SetConfigFile(globalConfigPath)
	if err := v.ReadInConfig(); err != nil && !isConfigNotFoundError(err) {
		return errors.Wrap(err, "failed to read global config file")
	}
	return nil
}

// loadProjectConfig attempts to load the project config file (.wipecert/config.yaml).
// Returns nil if the file doesn't exist.
func loadProjectConfig(v *viper.Viper) error {
	projectConfigPath := ProjectConfigPath()
	if !fileExists(projectConfigPath) {
		return nil
	}

	v.SetConfigFile(projectConfigPath)
	if err := v.MergeInConfig(); err != nil && !isConfigNotFoundError(err) {
		return errors.Wrap(err, "failed to read project config file")
	}
	return nil
}

// fileExists returns true if the file at path exists.
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// LoadWithOverrides loads configuration and applies CLI flag overrides.
// The overrides parameter contains values from CLI flags which have the
// highest precedence in the configuration hierarchy.
//
// Only non-zero values in overrides are applied. Zero values are ignored
// to allow partial overrides.
func LoadWithOverrides(ctx context.Context, overrides *Config) (*Config, error) {
	cfg, err := Load(ctx)
	if err != nil {
		return nil, err
	}

	if overrides != nil {
		applyOverrides(cfg, overrides)
	}

	if err := Validate(cfg); err != nil {
		return nil, errors.Wrap(err, "invalid configuration after overrides")
	}

	return cfg, nil
}

// LoadFromPaths loads configuration from specific file paths for testing.
//
// projectConfigPath is the path to project-level config (higher priority).
// globalConfigPath is the path to global config (lower priority).
// Either path can be empty to skip that level.
func LoadFromPaths(_ context.Context, projectConfigPath, globalConfigPath string) (*Config, error) {
	v := newViperInstance()

	if globalConfigPath != "" {
		v.SetConfigFile(globalConfigPath)
		if err := v.ReadInConfig(); err != nil && !isConfigNotFoundError(err) && !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "failed to read global config: %s", globalConfigPath)
		}
	}

	if projectConfigPath != "" {
		v.SetConfigFile(projectConfigPath)
		if err := v.MergeInConfig(); err != nil && !isConfigNotFoundError(err) && !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "failed to read project config: %s", projectConfigPath)
		}
	}

	return unmarshalAndValidate(v)
}

// setDefaults configures all default values on the Viper instance.
// These defaults match the values from DefaultConfig().
// IMPORTANT: Keys must match the YAML tag names exactly for proper mapping.
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()

	v.SetDefault("keys.path", d.Keys.Path)
	v.SetDefault("keys.bits", d.Keys.Bits)

	v.SetDefault("trail.dir", d.Trail.Dir)
	v.SetDefault("trail.lock_timeout", d.Trail.LockTimeout.String())

	v.SetDefault("erase.passes", d.Erase.Passes)
	v.SetDefault("erase.concurrency", d.Erase.Concurrency)
	v.SetDefault("erase.standards", d.Erase.Standards)
	v.SetDefault("erase.certificate_dir", d.Erase.CertificateDir)

	// Registered so AutomaticEnv can see WIPECERT_IDENTITY_* during Unmarshal.
	v.SetDefault("identity.operator_id", d.Identity.OperatorID)
	v.SetDefault("identity.device_id", d.Identity.DeviceID)
}

// applyOverrides merges non-zero override values into the config.
// Only non-zero values are applied to allow partial overrides.
func applyOverrides(cfg, overrides *Config) {
	if overrides.Keys.Path != "" {
		cfg.Keys.Path = overrides.Keys.Path
	}
	if overrides.Keys.Bits != 0 {
		cfg.Keys.Bits = overrides.Keys.Bits
	}

	if overrides.Trail.Dir != "" {
		cfg.Trail.Dir = overrides.Trail.Dir
	}
	if overrides.Trail.LockTimeout != 0 {
		cfg.Trail.LockTimeout = overrides.Trail.LockTimeout
	}

	applyEraseOverrides(cfg, overrides)

	if overrides.Identity.OperatorID != "" {
		cfg.Identity.OperatorID = overrides.Identity.OperatorID
	}
	if overrides.Identity.DeviceID != "" {
		cfg.Identity.DeviceID = overrides.Identity.DeviceID
	}
}

// applyEraseOverrides applies erase-related overrides to the config.
// This is extracted from applyOverrides to reduce cognitive complexity.
func applyEraseOverrides(cfg, overrides *Config) {
	if overrides.Erase.Passes != 0 {
		cfg.Erase.Passes = overrides.Erase.Passes
	}
	if overrides.Erase.Concurrency != 0 {
		cfg.Erase.Concurrency = overrides.Erase.Concurrency
	}
	if overrides.Erase.Standards != "" {
		cfg.Erase.Standards = overrides.Erase.Standards
	}
	if overrides.Erase.CertificateDir != "" {
		cfg.Erase.CertificateDir = overrides.Erase.CertificateDir
	}
}

// viperDecoderOption returns the decoder options for Viper unmarshal.
// This configures mapstructure to handle time.Duration conversion from strings.
func viperDecoderOption() viper.DecoderConfigOption {
	return viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
		),
	)
}
