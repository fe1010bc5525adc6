package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mrz1836/wipecert/internal/config"
	"github.com/mrz1836/wipecert/internal/tui"
)

// configInitOptions holds flags for the config init command.
type configInitOptions struct {
	project  bool
	force    bool
	operator string
	device   string
}

// AddConfigCommand adds the config command group to the root command.
func AddConfigCommand(root *cobra.Command, flags *GlobalFlags) {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage wipecert configuration",
		Long: `Manage wipecert configuration.

Configuration is read in this order, later sources winning:
  - built-in defaults
  - global: ~/.wipecert/config.yaml
  - project: .wipecert/config.yaml
  - environment: WIPECERT_* variables (e.g. WIPECERT_ERASE_PASSES)
  - command-line flags`,
	}

	cmd.AddCommand(newConfigInitCmd(flags))
	cmd.AddCommand(newConfigShowCmd(flags))

	root.AddCommand(cmd)
}

// newConfigInitCmd creates the 'config init' subcommand.
func newConfigInitCmd(flags *GlobalFlags) *cobra.Command {
	opts := &configInitOptions{}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a configuration file with default values",
		Long: `Write a configuration file holding the default values, optionally with
the operator and device identity filled in.

Examples:
  wipecert config init --operator alice
  wipecert config init --project --force`,
		Args: cobra.NoArgs,
		RunE: withErrorOutput(flags, func(cmd *cobra.Command, _ []string) error {
			return runConfigInit(cmd.OutOrStdout(), flags, opts)
		}),
	}

	cmd.Flags().BoolVar(&opts.project, "project", false, "write .wipecert/config.yaml in the current directory")
	cmd.Flags().BoolVarP(&opts.force, "force", "f", false, "overwrite an existing configuration file")
	cmd.Flags().StringVar(&opts.operator, "operator", "", "default operator id")
	cmd.Flags().StringVar(&opts.device, "device", "", "default device id")

	return cmd
}

// runConfigInit executes the config init command.
func runConfigInit(w io.Writer, flags *GlobalFlags, opts *configInitOptions) error {
	path := config.ProjectConfigPath()
	if !opts.project {
		var err error
		if path, err = config.GlobalConfigPath(); err != nil {
			return err
		}
	}

	cfg := config.DefaultConfig()
	cfg.Identity.OperatorID = opts.operator
	cfg.Identity.DeviceID = opts.device

	if err := config.Write(path, cfg, opts.force); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	logger := GetLogger()
	logger.Info().Str("path", path).Msg("configuration written")

	if flags.Output == OutputJSON {
		return encodeJSONIndented(w, map[string]string{"path": path})
	}
	tui.NewTTYOutput(w).Success("Configuration written to " + path)
	return nil
}

// newConfigShowCmd creates the 'config show' subcommand.
func newConfigShowCmd(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display the effective configuration",
		Long: `Display the effective configuration after defaults, files and
environment variables are merged. Text output is YAML.`,
		Args: cobra.NoArgs,
		RunE: withErrorOutput(flags, func(cmd *cobra.Command, _ []string) error {
			return runConfigShow(cmd.Context(), cmd.OutOrStdout(), flags)
		}),
	}
}

// runConfigShow executes the config show command.
func runConfigShow(ctx context.Context, w io.Writer, flags *GlobalFlags) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	if flags.Output == OutputJSON {
		return encodeJSONIndented(w, cfg)
	}

	data, err := config.Marshal(cfg)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
