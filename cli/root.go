package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"cml-linkmap/config"
	"cml-linkmap/utils"
)

// NewRootCmd builds the cml-linkmap command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "cml-linkmap",
		Short:         "Render commercial microwave link metadata as interactive HTML maps",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().Bool("verbose", false, "Enable debug logging")
	root.PersistentFlags().String("env-file", "", "Load configuration from this .env file instead of ./.env")

	root.AddCommand(NewDrawCmd().Command())
	root.AddCommand(NewStationsCmd().Command())
	return root
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// setup reads the persistent flags shared by every subcommand.
func setup(cmd *cobra.Command) (*config.Config, *utils.Logger, error) {
	verbose, err := cmd.Root().PersistentFlags().GetBool("verbose")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get verbose flag: %w", err)
	}
	envFile, err := cmd.Root().PersistentFlags().GetString("env-file")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get env-file flag: %w", err)
	}

	var cfg *config.Config
	if envFile != "" {
		cfg = config.Load(envFile)
	} else {
		cfg = config.Load()
	}
	return cfg, utils.NewLoggerTo(cmd.OutOrStdout(), verbose), nil
}
