package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shapestone/safeyaml/pkg/yaml"
)

var loadFlags struct {
	unsafe        bool
	ordered       bool
	sortKeys      bool
	flow          string
	indent        int
	width         int
	explicitStart bool
}

var loadCmd = &cobra.Command{
	Use:   "load [file]",
	Short: "Load YAML and write it back normalized",
	Long: `Load every document of the input and write the values back as YAML.

Loading resolves aliases, merge keys and tags, so the output shows the data
the input stands for. Any failing document stops the command.

Examples:
  # Normalize a file
  shapeyaml load config.yaml

  # Keep the key order of the source and use flow style where possible
  shapeyaml load --ordered --flow always config.yaml

  # Trust application tags
  shapeyaml load --unsafe deploy.yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: loadDocuments,
}

func init() {
	rootCmd.AddCommand(loadCmd)

	loadCmd.Flags().BoolVar(&loadFlags.unsafe, "unsafe", false, "load at the unrestricted trust level")
	loadCmd.Flags().BoolVar(&loadFlags.ordered, "ordered", false, "keep the key order of mappings")
	loadCmd.Flags().BoolVar(&loadFlags.sortKeys, "sort-keys", false, "sort mapping keys")
	loadCmd.Flags().StringVar(&loadFlags.flow, "flow", "auto", "flow style: auto, never, always")
	loadCmd.Flags().IntVar(&loadFlags.indent, "indent", 2, "spaces per nesting level")
	loadCmd.Flags().IntVar(&loadFlags.width, "width", 80, "preferred line width, 0 disables wrapping")
	loadCmd.Flags().BoolVar(&loadFlags.explicitStart, "explicit-start", false, "begin every document with ---")
}

func trustLevel() yaml.TrustLevel {
	if loadFlags.unsafe {
		return yaml.Unrestricted
	}
	return yaml.Restricted
}

func parseFlowStyle(s string) (yaml.FlowStyle, error) {
	for _, f := range []yaml.FlowStyle{yaml.FlowAuto, yaml.FlowNever, yaml.FlowAlways} {
		if f.String() == s {
			return f, nil
		}
	}
	return 0, fmt.Errorf("unknown flow style %q", s)
}

func loadDocuments(cmd *cobra.Command, args []string) error {
	input, err := readInput(cmd, args)
	if err != nil {
		return err
	}
	flow, err := parseFlowStyle(loadFlags.flow)
	if err != nil {
		return err
	}

	cfg := yaml.DefaultEmitterConfig()
	cfg.FlowStyle = flow
	cfg.Indent = loadFlags.indent
	cfg.LineWidth = loadFlags.width
	cfg.SortKeys = loadFlags.sortKeys
	cfg.ExplicitStart = loadFlags.explicitStart
	if err := cfg.Validate(); err != nil {
		return err
	}

	trust := trustLevel()
	opts := []yaml.Option{
		yaml.WithFS(fs),
		yaml.WithLogger(logger),
		yaml.WithOrderedMaps(loadFlags.ordered),
	}

	var values []any
	s := yaml.LoadStream(input, trust, opts...)
	for s.Next() {
		if err := s.Err(); err != nil {
			return err
		}
		values = append(values, s.Value())
	}

	out, err := yaml.DumpStream(values, trust, yaml.WithEmitter(cfg), yaml.WithLogger(logger))
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), out)
	return err
}
