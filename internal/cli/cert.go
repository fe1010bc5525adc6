package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mrz1836/wipecert/internal/attest"
	"github.com/mrz1836/wipecert/internal/domain"
	"github.com/mrz1836/wipecert/internal/tui"
)

// certView is the JSON form of 'cert show'.
type certView struct {
	Certificate domain.Certificate `json:"certificate"`
	Valid       bool               `json:"valid"`
}

// AddCertCommand adds the cert command group to the root command.
func AddCertCommand(root *cobra.Command, flags *GlobalFlags) {
	cmd := &cobra.Command{
		Use:   "cert",
		Short: "Display and export certificates",
		Long: `Display exported certificates and re-export certificates from the
audit trail.

Commands:
  show    Render a certificate file for reading or printing
  export  Write the certificate of a recorded erasure`,
	}

	cmd.AddCommand(newCertShowCmd(flags))
	cmd.AddCommand(newCertExportCmd(flags))

	root.AddCommand(cmd)
}

// newCertShowCmd creates the 'cert show' subcommand.
func newCertShowCmd(flags *GlobalFlags) *cobra.Command {
	var markdown bool

	cmd := &cobra.Command{
		Use:   "show <certificate.json>",
		Short: "Render a certificate",
		Long: `Render a certificate of data sanitization in the terminal. The
signature is checked against the embedded public key and the result is
shown with the certificate.

Examples:
  wipecert cert show SWC-20250101-1a2b3c4d.json
  wipecert cert show cert.json --markdown > cert.md`,
		Args: cobra.ExactArgs(1),
		RunE: withErrorOutput(flags, func(cmd *cobra.Command, args []string) error {
			return runCertShow(cmd.OutOrStdout(), flags, args[0], markdown)
		}),
	}

	cmd.Flags().BoolVar(&markdown, "markdown", false, "print raw markdown instead of rendering it")

	return cmd
}

// runCertShow executes the cert show command.
func runCertShow(w io.Writer, flags *GlobalFlags, path string, markdown bool) error {
	cert, err := readCertificate(path)
	if err != nil {
		return err
	}

	valid, err := attest.VerifyCertificate(cert, nil)
	if err != nil {
		return err
	}

	if flags.Output == OutputJSON {
		return encodeJSONIndented(w, certView{Certificate: cert, Valid: valid})
	}

	md := tui.CertificateMarkdown(&cert, &valid)
	if markdown {
		_, err = fmt.Fprint(w, md)
		return err
	}
	_, err = fmt.Fprint(w, tui.RenderMarkdown(md, tui.TerminalWidth()))
	return err
}

// newCertExportCmd creates the 'cert export' subcommand.
func newCertExportCmd(flags *GlobalFlags) *cobra.Command {
	var dir string
	var stdout bool

	cmd := &cobra.Command{
		Use:   "export <record-id>",
		Short: "Export the certificate of a recorded erasure",
		Long: `Look up a record in the audit trail and write its certificate as
<record-id>.json into the certificate directory, or to standard output
with --stdout.

Examples:
  wipecert cert export SWC-20250101-1a2b3c4d
  wipecert cert export SWC-20250101-1a2b3c4d --stdout`,
		Args: cobra.ExactArgs(1),
		RunE: withErrorOutput(flags, func(cmd *cobra.Command, args []string) error {
			return runCertExport(cmd.Context(), cmd.OutOrStdout(), flags, args[0], dir, stdout)
		}),
	}

	cmd.Flags().StringVar(&dir, "dir", "", "directory to write the certificate into")
	cmd.Flags().BoolVar(&stdout, "stdout", false, "write the certificate to standard output")
	cmd.MarkFlagsMutuallyExclusive("dir", "stdout")

	return cmd
}

// runCertExport executes the cert export command.
func runCertExport(ctx context.Context, w io.Writer, flags *GlobalFlags, recordID, dir string, stdout bool) error {
	a, err := newApp(ctx)
	if err != nil {
		return err
	}

	result, err := a.service.FindRecord(ctx, recordID)
	if err != nil {
		return err
	}

	if stdout {
		cert, certErr := a.service.Certificate(ctx, result)
		if certErr != nil {
			return certErr
		}
		data, certErr := attest.MarshalCertificate(cert)
		if certErr != nil {
			return certErr
		}
		_, err = w.Write(data)
		return err
	}

	if dir == "" {
		if dir, err = a.cfg.CertificateDir(); err != nil {
			return err
		}
	}
	path, err := a.writeCertificate(ctx, dir, result)
	if err != nil {
		return err
	}

	if flags.Output == OutputJSON {
		return encodeJSONIndented(w, map[string]string{"record_id": recordID, "certificate": path})
	}
	tui.NewTTYOutput(w).Success(fmt.Sprintf("Certificate written to %s", path))
	return nil
}
