package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/mrz1836/wipecert/internal/attest"
	"github.com/mrz1836/wipecert/internal/config"
	"github.com/mrz1836/wipecert/internal/constants"
	"github.com/mrz1836/wipecert/internal/crypto/keystore"
	"github.com/mrz1836/wipecert/internal/erasure"
	"github.com/mrz1836/wipecert/internal/shred"
	"github.com/mrz1836/wipecert/internal/trail"
)

// app is the wired set of collaborators a command runs against.
type app struct {
	cfg     *config.Config
	keys    *keystore.Store
	trail   *trail.FileTrail
	service *erasure.Service
	logger  zerolog.Logger
}

// appOption customizes newApp.
type appOption func(*appSettings)

type appSettings struct {
	overrides *config.Config
	observer  shred.PassObserver
}

// withOverrides applies CLI flag values on top of the loaded configuration.
func withOverrides(overrides *config.Config) appOption {
	return func(s *appSettings) {
		s.overrides = overrides
	}
}

// withPassObserver reports overwrite pass progress.
func withPassObserver(fn shred.PassObserver) appOption {
	return func(s *appSettings) {
		s.observer = fn
	}
}

// newApp loads configuration and wires the key store, audit trail,
// destroyer and erasure service from it.
func newApp(ctx context.Context, opts ...appOption) (*app, error) {
	var settings appSettings
	for _, opt := range opts {
		opt(&settings)
	}

	logger := GetLogger()

	cfg, err := config.LoadWithOverrides(ctx, settings.overrides)
	if err != nil {
		return nil, err
	}

	keyPath, err := cfg.KeyPath()
	if err != nil {
		return nil, err
	}
	trailDir, err := cfg.TrailDir()
	if err != nil {
		return nil, err
	}

	keys := keystore.New(
		keystore.NewFileBackend(keyPath, cfg.Trail.LockTimeout),
		keystore.WithBits(cfg.Keys.Bits),
		keystore.WithLogger(logger.With().Str("component", "keystore").Logger()),
	)

	auditTrail, err := trail.NewFileTrail(trailDir,
		trail.WithLockTimeout(cfg.Trail.LockTimeout),
		trail.WithLogger(logger.With().Str("component", "trail").Logger()),
	)
	if err != nil {
		return nil, err
	}

	destroyer := shred.New(
		shred.WithPasses(cfg.Erase.Passes),
		shred.WithPassObserver(settings.observer),
		shred.WithLogger(logger.With().Str("component", "shred").Logger()),
	)

	service, err := erasure.New(erasure.Config{
		Keys:        keys,
		Trail:       auditTrail,
		Destroyer:   destroyer,
		Builder:     attest.NewBuilder(attest.WithStandards(cfg.Erase.Standards)),
		Concurrency: cfg.Erase.Concurrency,
		Logger:      logger,
	})
	if err != nil {
		return nil, err
	}

	logger.Debug().
		Str("key_path", keyPath).
		Str("trail_dir", trailDir).
		Int("passes", cfg.Erase.Passes).
		Msg("wipecert configured")

	return &app{
		cfg:     cfg,
		keys:    keys,
		trail:   auditTrail,
		service: service,
		logger:  logger,
	}, nil
}

// writeCertificate exports the certificate for result into dir as
// "<record_id>.json" and returns the file path.
func (a *app) writeCertificate(ctx context.Context, dir string, result *erasure.Result) (string, error) {
	cert, err := a.service.Certificate(ctx, result)
	if err != nil {
		return "", err
	}
	data, err := attest.MarshalCertificate(cert)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, constants.DirPerm); err != nil {
		return "", fmt.Errorf("creating certificate directory: %w", err)
	}
	path := filepath.Join(dir, cert.Record.RecordID+".json")
	if err := os.WriteFile(path, data, constants.FilePerm); err != nil {
		return "", fmt.Errorf("writing certificate: %w", err)
	}
	return path, nil
}

// encodeJSONIndented writes v as indented JSON.
func encodeJSONIndented(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
