package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shapestone/safeyaml/pkg/yaml"
	"github.com/shapestone/safeyaml/pkg/yaml/yamlprom"
)

var checkFlags struct {
	unsafe bool
}

var checkCmd = &cobra.Command{
	Use:   "check [file]",
	Short: "Report which documents of a stream load",
	Long: `Load every document of the input and report one line per document.

A document is reported as ok, or as a syntax, security or construct failure.
Checking goes on after a failing document. The command fails when any
document does.

Examples:
  # Check a stream of documents
  shapeyaml check stream.yaml

  # Check from standard input
  cat stream.yaml | shapeyaml check`,
	Args: cobra.MaximumNArgs(1),
	RunE: checkDocuments,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().BoolVar(&checkFlags.unsafe, "unsafe", false, "load at the unrestricted trust level")
}

func checkDocuments(cmd *cobra.Command, args []string) error {
	input, err := readInput(cmd, args)
	if err != nil {
		return err
	}

	trust := yaml.Restricted
	if checkFlags.unsafe {
		trust = yaml.Unrestricted
	}

	out := cmd.OutOrStdout()
	var total, failed int
	s := yaml.LoadStream(input, trust, yaml.WithFS(fs), yaml.WithLogger(logger))
	for s.Next() {
		total++
		err := s.Err()
		result := yamlprom.Result(err)
		if err == nil {
			fmt.Fprintf(out, "document %d: %s\n", s.Index(), result)
			continue
		}
		failed++
		fmt.Fprintf(out, "document %d: %s: %v\n", s.Index(), result, errorCause(err))
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d documents failed", failed, total)
	}
	return nil
}

// errorCause drops the document index that the report line already shows.
func errorCause(err error) error {
	var de *yaml.DocumentError
	if errors.As(err, &de) {
		return de.Err
	}
	return err
}
