// Package keystore owns the deployment signing key.
//
// The key is created once, on first use, and loaded from the backend on
// every later use. All attestations produced by one deployment therefore
// verify against a single persisted public key. The private key is stored
// as an unencrypted PKCS#8 PEM file readable only by its owner.
package keystore

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog"

	"github.com/mrz1836/wipecert/internal/constants"
	"github.com/mrz1836/wipecert/internal/crypto"
	wcerrors "github.com/mrz1836/wipecert/internal/errors"
)

// Store loads or creates the signing key and caches it for the life of the
// process.
type Store struct {
	backend Backend
	bits    int
	random  io.Reader
	logger  zerolog.Logger

	mu  sync.Mutex
	key *rsa.PrivateKey
}

// Option configures a Store.
type Option func(*Store)

// WithBits sets the modulus size for a newly generated key.
// Has no effect when a key already exists.
func WithBits(bits int) Option {
	return func(s *Store) {
		if bits > 0 {
			s.bits = bits
		}
	}
}

// WithRandom sets the entropy source used for key generation.
func WithRandom(r io.Reader) Option {
	return func(s *Store) {
		if r != nil {
			s.random = r
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New creates a Store on top of backend.
func New(backend Backend, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		bits:    constants.DefaultRSAKeyBits,
		random:  rand.Reader,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetOrCreateKey returns the signing key, generating and persisting it on
// first use. It is idempotent and safe for concurrent use.
// Storage and decoding failures wrap wcerrors.ErrStorage.
func (s *Store) GetOrCreateKey(ctx context.Context) (*rsa.PrivateKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.key != nil {
		return s.key, nil
	}

	generated := false
	data, err := s.backend.LoadOrCreate(ctx, func() ([]byte, error) {
		key, genErr := rsa.GenerateKey(s.random, s.bits)
		if genErr != nil {
			return nil, fmt.Errorf("generating %d-bit RSA key: %w", s.bits, genErr)
		}
		generated = true
		return crypto.EncodePrivateKeyPEM(key)
	})
	if err != nil {
		return nil, wcerrors.Join(wcerrors.ErrStorage, err)
	}

	key, err := crypto.DecodePrivateKeyPEM(data)
	if err != nil {
		return nil, wcerrors.Join(wcerrors.ErrStorage, err)
	}

	if generated {
		s.logger.Info().
			Int("bits", key.N.BitLen()).
			Msg("generated new signing key")
	} else {
		s.logger.Debug().Msg("loaded signing key")
	}

	s.key = key
	return key, nil
}

// PublicKey returns the public half of the signing key.
func (s *Store) PublicKey(ctx context.Context) (*rsa.PublicKey, error) {
	key, err := s.GetOrCreateKey(ctx)
	if err != nil {
		return nil, err
	}
	return &key.PublicKey, nil
}

// PublicKeyPEM returns the public key as a PKIX PEM block.
func (s *Store) PublicKeyPEM(ctx context.Context) ([]byte, error) {
	pub, err := s.PublicKey(ctx)
	if err != nil {
		return nil, err
	}
	data, err := crypto.EncodePublicKeyPEM(pub)
	if err != nil {
		return nil, wcerrors.Join(wcerrors.ErrStorage, err)
	}
	return data, nil
}

// Fingerprint returns the hex SHA-256 of the DER public key.
func (s *Store) Fingerprint(ctx context.Context) (string, error) {
	pub, err := s.PublicKey(ctx)
	if err != nil {
		return "", err
	}
	fp, err := crypto.Fingerprint(pub)
	if err != nil {
		return "", wcerrors.Join(wcerrors.ErrStorage, err)
	}
	return fp, nil
}

// Signer returns a crypto.Signer backed by the signing key.
func (s *Store) Signer(ctx context.Context) (*crypto.RSASigner, error) {
	key, err := s.GetOrCreateKey(ctx)
	if err != nil {
		return nil, err
	}
	return crypto.NewRSASigner(key)
}
