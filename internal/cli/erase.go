package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mrz1836/wipecert/internal/config"
	"github.com/mrz1836/wipecert/internal/erasure"
	wcerrors "github.com/mrz1836/wipecert/internal/errors"
	"github.com/mrz1836/wipecert/internal/signal"
	"github.com/mrz1836/wipecert/internal/tui"
)

// progressBarWidth is the width of the per-pass progress bar.
const progressBarWidth = 24

// eraseOptions holds flags for the erase command.
type eraseOptions struct {
	operator    string
	device      string
	passes      int
	concurrency int
	certDir     string
	noCert      bool
	force       bool
}

// eraseItem is the JSON form of one erasure outcome.
type eraseItem struct {
	Path        string `json:"path"`
	RecordID    string `json:"record_id,omitempty"`
	Status      string `json:"status,omitempty"`
	Method      string `json:"method,omitempty"`
	Certificate string `json:"certificate,omitempty"`
	Error       string `json:"error,omitempty"`
}

// AddEraseCommand adds the erase command to the root command.
func AddEraseCommand(root *cobra.Command, flags *GlobalFlags) {
	opts := &eraseOptions{}

	cmd := &cobra.Command{
		Use:   "erase <path>...",
		Short: "Securely erase files and issue signed certificates",
		Long: `Overwrite each file with random data, remove it, and record a signed
certificate of sanitization in the audit trail.

The operator and device identity are taken from the flags, then from
identity.operator_id and identity.device_id in the configuration. The
device defaults to the host name.

Certificates are written as <record-id>.json into the certificate
directory unless --no-cert is given.

This operation cannot be undone. Use --force to skip confirmation.

Examples:
  wipecert erase report.pdf --operator alice
  wipecert erase *.xlsx --operator alice --passes 7 --force
  wipecert erase secrets.db --operator alice -o json --force`,
		Args: cobra.MinimumNArgs(1),
		RunE: withErrorOutput(flags, func(cmd *cobra.Command, args []string) error {
			return runErase(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), flags, opts, args)
		}),
	}

	cmd.Flags().StringVar(&opts.operator, "operator", "", "operator id recorded in each certificate")
	cmd.Flags().StringVar(&opts.device, "device", "", "device id recorded in each certificate (default: host name)")
	cmd.Flags().IntVarP(&opts.passes, "passes", "p", 0, "number of random overwrite passes (1-35)")
	cmd.Flags().IntVar(&opts.concurrency, "concurrency", 0, "number of files erased in parallel")
	cmd.Flags().StringVar(&opts.certDir, "cert-dir", "", "directory for exported certificates")
	cmd.Flags().BoolVar(&opts.noCert, "no-cert", false, "do not export certificate files")
	cmd.Flags().BoolVarP(&opts.force, "force", "f", false, "skip confirmation prompt")

	root.AddCommand(cmd)
}

// runErase executes the erase command.
func runErase(ctx context.Context, stdout, stderr io.Writer, flags *GlobalFlags, opts *eraseOptions, paths []string) error {
	tui.CheckNoColor()

	var observer func(string, int, int)
	if flags.Output != OutputJSON && !flags.Quiet {
		observer = tui.NewPassProgress(stderr, progressBarWidth).Observe
	}

	a, err := newApp(ctx, withOverrides(eraseOverrides(opts)), withPassObserver(observer))
	if err != nil {
		return err
	}

	reqs, err := buildEraseRequests(a.cfg, paths)
	if err != nil {
		return err
	}

	if err := confirmErase(stdout, len(reqs), a.cfg.Erase.Passes, opts.force); err != nil {
		if stderrors.Is(err, wcerrors.ErrOperationCanceled) {
			return nil
		}
		return err
	}

	handler := signal.NewHandler(ctx)
	defer handler.Stop()

	items := a.service.EraseAll(handler.Context(), reqs)

	certDir := ""
	if !opts.noCert {
		if certDir, err = a.cfg.CertificateDir(); err != nil {
			return err
		}
	}

	// Exports run after the erasures on a context that outlives an
	// interrupt: every attested file gets its certificate.
	exportCtx := context.WithoutCancel(ctx)
	results := make([]eraseItem, len(items))
	var failures []error
	for i, item := range items {
		results[i] = eraseItem{Path: item.Request.Path}
		if item.Result != nil {
			results[i].RecordID = item.Result.Record.RecordID
			results[i].Status = item.Result.Record.Status.String()
			results[i].Method = item.Result.Record.Method
			if certDir != "" {
				certPath, certErr := a.writeCertificate(exportCtx, certDir, item.Result)
				if certErr != nil {
					a.logger.Error().Err(certErr).Str("record_id", results[i].RecordID).Msg("failed to export certificate")
					failures = append(failures, certErr)
				}
				results[i].Certificate = certPath
			}
		}
		if item.Err != nil {
			results[i].Error = item.Err.Error()
			failures = append(failures, fmt.Errorf("%s: %w", item.Request.Path, item.Err))
		}
	}

	if flags.Output == OutputJSON {
		if err := encodeJSONIndented(stdout, results); err != nil {
			return err
		}
	} else {
		displayEraseResults(stdout, results)
		if handler.WasInterrupted() {
			tui.NewTTYOutput(stderr).Warning("Interrupted: files not yet started were left untouched")
		}
	}

	if len(failures) == 0 {
		return nil
	}
	summary := fmt.Errorf("%d of %d files not sanitized: %w", countFailed(items), len(items), stderrors.Join(failures...))
	if flags.Output == OutputJSON {
		// The per-file errors are already in the JSON array.
		return fmt.Errorf("%w: %w", wcerrors.ErrJSONErrorOutput, summary)
	}
	return summary
}

// eraseOverrides converts erase flags into configuration overrides.
func eraseOverrides(opts *eraseOptions) *config.Config {
	overrides := &config.Config{}
	overrides.Identity.OperatorID = opts.operator
	overrides.Identity.DeviceID = opts.device
	overrides.Erase.Passes = opts.passes
	overrides.Erase.Concurrency = opts.concurrency
	overrides.Erase.CertificateDir = opts.certDir
	return overrides
}

// buildEraseRequests creates one request per path. An empty device id
// falls back to the host name. Identity is validated here so a missing
// operator fails before any confirmation prompt.
func buildEraseRequests(cfg *config.Config, paths []string) ([]erasure.EraseRequest, error) {
	device := cfg.Identity.DeviceID
	if device == "" {
		host, err := os.Hostname()
		if err != nil {
			return nil, fmt.Errorf("%w: device id not set and host name unavailable: %w", wcerrors.ErrValidation, err)
		}
		device = host
	}
	if cfg.Identity.OperatorID == "" {
		return nil, fmt.Errorf("%w: operator id is required", wcerrors.ErrValidation)
	}

	reqs := make([]erasure.EraseRequest, 0, len(paths))
	for _, p := range paths {
		reqs = append(reqs, erasure.EraseRequest{
			Path:       p,
			OperatorID: cfg.Identity.OperatorID,
			DeviceID:   device,
		})
	}
	return reqs, nil
}

// countFailed returns the number of items that did not end SANITIZED.
func countFailed(items []erasure.BatchItem) int {
	n := 0
	for _, item := range items {
		if item.Err != nil {
			n++
		}
	}
	return n
}

// displayEraseResults prints a result table.
func displayEraseResults(w io.Writer, results []eraseItem) {
	out := tui.NewTTYOutput(w)
	rows := make([][]string, 0, len(results))
	sanitized := 0
	for _, r := range results {
		status := r.Status
		if status == "" {
			status = "NOT ERASED"
		} else if status == "SANITIZED" {
			sanitized++
		}
		rows = append(rows, []string{r.Path, status, r.RecordID, r.Certificate})
	}
	out.Table([]string{"FILE", "STATUS", "RECORD", "CERTIFICATE"}, rows)

	summary := strconv.Itoa(sanitized) + " of " + strconv.Itoa(len(results)) + " files sanitized"
	if sanitized == len(results) {
		out.Success(summary)
	} else {
		out.Warning(summary)
	}
}

// confirmErase asks the user to confirm. It returns ErrOperationCanceled
// when the user declines and ErrNonInteractiveMode when no terminal is
// attached and force is false.
func confirmErase(w io.Writer, count, passes int, force bool) error {
	if force {
		return nil
	}
	if !terminalCheck() {
		return fmt.Errorf("cannot erase files: %w", wcerrors.ErrNonInteractiveMode)
	}

	var confirmed bool
	if err := createEraseConfirmForm(count, passes, &confirmed).Run(); err != nil {
		return fmt.Errorf("failed to get confirmation: %w", err)
	}
	if !confirmed {
		_, _ = fmt.Fprintln(w, "Operation canceled.")
		return wcerrors.ErrOperationCanceled
	}
	return nil
}

// formRunner is an interface that matches huh.Form's Run method.
type formRunner interface {
	Run() error
}

// createEraseConfirmForm is the factory for the erase confirmation form.
// Tests replace it to inject answers.
//
//nolint:gochecknoglobals // Test injection point - standard Go testing pattern
var createEraseConfirmForm = defaultCreateEraseConfirmForm

// defaultCreateEraseConfirmForm builds the huh confirmation form.
func defaultCreateEraseConfirmForm(count, passes int, confirm *bool) formRunner {
	noun := "file"
	if count != 1 {
		noun = "files"
	}
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Erase %d %s with %d overwrite passes?", count, noun, passes)).
				Description("Erased files cannot be recovered.").
				Affirmative("Yes, erase").
				Negative("No, cancel").
				Value(confirm),
		),
	)
}

// terminalCheck is a variable for the terminal check function, allowing tests to override it.
//
//nolint:gochecknoglobals // Required for test injection of terminal detection
var terminalCheck = isTerminal

// isTerminal returns true if stdin is a terminal.
func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}
