package main

import (
	"fmt"
	"io"
	"os"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Global flags
	verbose bool

	// fs is where input files and !include targets are read from.
	fs afero.Fs = afero.NewOsFs()

	// logger is built by the root command before any subcommand runs.
	logger = logr.Discard()
)

var rootCmd = &cobra.Command{
	Use:   "shapeyaml",
	Short: "Load, check and inspect YAML with trust levels",
	Long: `shapeyaml reads YAML documents with the safe engine.

Documents are loaded at the restricted trust level unless --unsafe is given:
only the standard YAML types are constructed and any other tag is refused.

Each command reads the file named by its argument, or standard input when
the argument is "-" or missing.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setupLogger,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log every failed document")
}

func setupLogger(cmd *cobra.Command, args []string) error {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	zl, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	logger = zapr.NewLogger(zl)
	return nil
}

// readInput returns the contents of the file named by args, or of standard
// input.
func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("reading standard input: %w", err)
		}
		return string(data), nil
	}
	data, err := afero.ReadFile(fs, args[0])
	if err != nil {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return string(data), nil
}
