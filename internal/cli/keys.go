package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mrz1836/wipecert/internal/tui"
)

// keyInfo is the JSON form of the deployment key.
type keyInfo struct {
	Path         string `json:"path"`
	Bits         int    `json:"bits"`
	Fingerprint  string `json:"fingerprint"`
	PublicKeyPEM string `json:"public_key_pem"`
}

// AddKeysCommand adds the keys command group to the root command.
func AddKeysCommand(root *cobra.Command, flags *GlobalFlags) {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage the deployment signing key",
		Long: `Every certificate is signed with one RSA key per deployment. The key is
generated on first use and stored at keys.path (default
~/.wipecert/keys/signing.key) with owner-only permissions.

The private key is never printed.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the public key and its fingerprint",
		Long: `Print the deployment's public key in PEM form and its SHA-256
fingerprint. Give the PEM to anyone who needs to pin certificates to
this deployment with 'wipecert verify --public-key'.

The key is generated if it does not exist yet.`,
		Args: cobra.NoArgs,
		RunE: withErrorOutput(flags, func(cmd *cobra.Command, _ []string) error {
			return runKeysShow(cmd.Context(), cmd.OutOrStdout(), flags)
		}),
	})

	root.AddCommand(cmd)
}

// runKeysShow executes the keys show command.
func runKeysShow(ctx context.Context, w io.Writer, flags *GlobalFlags) error {
	a, err := newApp(ctx)
	if err != nil {
		return err
	}

	pub, err := a.keys.PublicKey(ctx)
	if err != nil {
		return err
	}
	pemData, err := a.keys.PublicKeyPEM(ctx)
	if err != nil {
		return err
	}
	fingerprint, err := a.keys.Fingerprint(ctx)
	if err != nil {
		return err
	}
	keyPath, err := a.cfg.KeyPath()
	if err != nil {
		return err
	}

	info := keyInfo{
		Path:         keyPath,
		Bits:         pub.N.BitLen(),
		Fingerprint:  fingerprint,
		PublicKeyPEM: string(pemData),
	}

	if flags.Output == OutputJSON {
		return encodeJSONIndented(w, info)
	}

	out := tui.NewTTYOutput(w)
	out.Info(fmt.Sprintf("%s %s", tui.StyleBold.Render("Key:"), info.Path))
	out.Info(fmt.Sprintf("%s %d", tui.StyleBold.Render("Bits:"), info.Bits))
	out.Info(fmt.Sprintf("%s %s", tui.StyleBold.Render("Fingerprint:"), info.Fingerprint))
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprint(w, info.PublicKeyPEM)
	return nil
}
