package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	wcerrors "github.com/mrz1836/wipecert/internal/errors"
	"github.com/mrz1836/wipecert/internal/tui"
)

// AddAuditCommand adds the audit command group to the root command.
func AddAuditCommand(root *cobra.Command, flags *GlobalFlags) {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Inspect the audit trail",
		Long: `Inspect the append-only audit trail of anchors and signed records.

Commands:
  list   Show every anchor and record in timestamp order
  check  Check the trail for duplicates, orphans and bad signatures`,
	}

	cmd.AddCommand(newAuditListCmd(flags))
	cmd.AddCommand(newAuditCheckCmd(flags))

	root.AddCommand(cmd)
}

// newAuditListCmd creates the 'audit list' subcommand.
func newAuditListCmd(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List audit trail entries",
		Args:  cobra.NoArgs,
		RunE: withErrorOutput(flags, func(cmd *cobra.Command, _ []string) error {
			return runAuditList(cmd.Context(), cmd.OutOrStdout(), flags)
		}),
	}
}

// runAuditList executes the audit list command.
func runAuditList(ctx context.Context, w io.Writer, flags *GlobalFlags) error {
	a, err := newApp(ctx)
	if err != nil {
		return err
	}

	entries, err := a.service.ListAuditEntries(ctx)
	if err != nil {
		return err
	}

	if flags.Output == OutputJSON {
		return encodeJSONIndented(w, entries)
	}

	out := tui.NewTTYOutput(w)
	if len(entries) == 0 {
		out.Info("Audit trail is empty.")
		return nil
	}
	out.Table(tui.AuditHeaders, tui.AuditRows(entries))
	return nil
}

// newAuditCheckCmd creates the 'audit check' subcommand.
func newAuditCheckCmd(flags *GlobalFlags) *cobra.Command {
	var signatures bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check audit trail integrity",
		Long: `Check the audit trail for duplicate record ids, anchors without a
record (a crash between the two appends) and records without an anchor.

With --signatures every record is also verified against this
deployment's public key.

Exit status is non-zero when any problem is found.`,
		Args: cobra.NoArgs,
		RunE: withErrorOutput(flags, func(cmd *cobra.Command, _ []string) error {
			return runAuditCheck(cmd.Context(), cmd.OutOrStdout(), flags, signatures)
		}),
	}

	cmd.Flags().BoolVar(&signatures, "signatures", false, "verify every record signature")

	return cmd
}

// runAuditCheck executes the audit check command.
func runAuditCheck(ctx context.Context, w io.Writer, flags *GlobalFlags, signatures bool) error {
	a, err := newApp(ctx)
	if err != nil {
		return err
	}

	report, err := a.service.CheckTrail(ctx, signatures)
	if err != nil {
		return err
	}

	if flags.Output == OutputJSON {
		if err := encodeJSONIndented(w, report); err != nil {
			return err
		}
		if !report.OK() {
			return fmt.Errorf("%w: %w", wcerrors.ErrJSONErrorOutput, report.Err())
		}
		return nil
	}

	out := tui.NewTTYOutput(w)
	summary := fmt.Sprintf("%d anchors, %d records", report.Anchors, report.Records)
	if signatures {
		summary += fmt.Sprintf(", %d signatures verified", report.Verified)
	}

	if report.OK() {
		out.Success("Audit trail OK: " + summary)
		return nil
	}

	rows := make([][]string, 0, len(report.Problems))
	for _, p := range report.Problems {
		rows = append(rows, []string{string(p.Kind), p.RecordID, p.Digest.String(), p.Detail})
	}
	out.Table([]string{"PROBLEM", "RECORD", "DIGEST", "DETAIL"}, rows)
	out.Warning(summary)
	return report.Err()
}
