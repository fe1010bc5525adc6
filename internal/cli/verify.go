package cli

import (
	"context"
	"crypto/rsa"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mrz1836/wipecert/internal/attest"
	"github.com/mrz1836/wipecert/internal/crypto"
	"github.com/mrz1836/wipecert/internal/domain"
	wcerrors "github.com/mrz1836/wipecert/internal/errors"
	"github.com/mrz1836/wipecert/internal/tui"
)

// verifyOptions holds flags for the verify command.
type verifyOptions struct {
	publicKey string
	local     bool
}

// verifyResult is the JSON form of a verification.
type verifyResult struct {
	Certificate    string        `json:"certificate"`
	RecordID       string        `json:"record_id"`
	Status         domain.Status `json:"status"`
	Valid          bool          `json:"valid"`
	KeyFingerprint string        `json:"key_fingerprint"`
	TrustedKey     string        `json:"trusted_key"`
}

// AddVerifyCommand adds the verify command to the root command.
func AddVerifyCommand(root *cobra.Command, flags *GlobalFlags) {
	opts := &verifyOptions{}

	cmd := &cobra.Command{
		Use:   "verify <certificate.json>",
		Short: "Verify a certificate of sanitization offline",
		Long: `Check the signature of an exported certificate.

By default the public key embedded in the certificate is used, which
proves the record was not altered after signing. Pin the signer with
--public-key <file.pem>, or with --local to use this deployment's key.

Exit status is non-zero when the signature does not verify.

Examples:
  wipecert verify SWC-20250101-1a2b3c4d.json
  wipecert verify cert.json --public-key vendor.pem
  wipecert verify cert.json --local -o json`,
		Args: cobra.ExactArgs(1),
		RunE: withErrorOutput(flags, func(cmd *cobra.Command, args []string) error {
			return runVerify(cmd.Context(), cmd.OutOrStdout(), flags, opts, args[0])
		}),
	}

	cmd.Flags().StringVar(&opts.publicKey, "public-key", "", "PEM public key the certificate must be signed with")
	cmd.Flags().BoolVar(&opts.local, "local", false, "require the certificate to be signed by this deployment's key")
	cmd.MarkFlagsMutuallyExclusive("public-key", "local")

	root.AddCommand(cmd)
}

// runVerify executes the verify command.
func runVerify(ctx context.Context, w io.Writer, flags *GlobalFlags, opts *verifyOptions, path string) error {
	cert, err := readCertificate(path)
	if err != nil {
		return err
	}

	trusted, source, err := trustedKey(ctx, opts)
	if err != nil {
		return err
	}

	valid, err := attest.VerifyCertificate(cert, trusted)
	if err != nil {
		return err
	}

	logger := GetLogger()
	logger.Debug().
		Str("record_id", cert.Record.RecordID).
		Bool("valid", valid).
		Str("trusted_key", source).
		Msg("certificate verified")

	if flags.Output == OutputJSON {
		if err := encodeJSONIndented(w, verifyResult{
			Certificate:    path,
			RecordID:       cert.Record.RecordID,
			Status:         cert.Record.Status,
			Valid:          valid,
			KeyFingerprint: cert.KeyFingerprint,
			TrustedKey:     source,
		}); err != nil {
			return err
		}
	} else {
		out := tui.NewTTYOutput(w)
		if valid {
			out.Success(fmt.Sprintf("Certificate %s is valid (%s)", cert.Record.RecordID, tui.StatusLabel(cert.Record.Status)))
		}
		out.Info(fmt.Sprintf("Signer key %s (%s)", cert.KeyFingerprint, source))
	}

	if !valid {
		err := fmt.Errorf("certificate %s: %w", cert.Record.RecordID, wcerrors.ErrVerificationFailed)
		if flags.Output == OutputJSON {
			return fmt.Errorf("%w: %w", wcerrors.ErrJSONErrorOutput, err)
		}
		return err
	}
	return nil
}

// readCertificate loads and parses a certificate file.
func readCertificate(path string) (domain.Certificate, error) {
	data, err := os.ReadFile(path) //nolint:gosec // Path is supplied by the operator
	if err != nil {
		if os.IsNotExist(err) {
			return domain.Certificate{}, fmt.Errorf("certificate %s: %w", path, wcerrors.ErrInvalidArgument)
		}
		return domain.Certificate{}, fmt.Errorf("reading certificate: %w", err)
	}
	return attest.ParseCertificate(data)
}

// trustedKey resolves the key the certificate must verify against and
// names its source. A nil key means the embedded key is used.
func trustedKey(ctx context.Context, opts *verifyOptions) (*rsa.PublicKey, string, error) {
	switch {
	case opts.publicKey != "":
		data, err := os.ReadFile(opts.publicKey) //nolint:gosec // Path is supplied by the operator
		if err != nil {
			return nil, "", fmt.Errorf("reading public key: %w", err)
		}
		pub, err := crypto.DecodePublicKeyPEM(data)
		if err != nil {
			return nil, "", err
		}
		return pub, opts.publicKey, nil
	case opts.local:
		a, err := newApp(ctx)
		if err != nil {
			return nil, "", err
		}
		pub, err := a.keys.PublicKey(ctx)
		if err != nil {
			return nil, "", err
		}
		return pub, "local", nil
	default:
		return nil, "embedded", nil
	}
}
