package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shapestone/safeyaml/internal/tokenizer"
)

var tokensCmd = &cobra.Command{
	Use:   "tokens [file]",
	Short: "Print the scanner tokens of the input",
	Long: `Print one line per token the scanner produces, with its position.

Scanning stops at the first lexical error, which is reported after the
tokens scanned before it.

Examples:
  shapeyaml tokens config.yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: printTokens,
}

func init() {
	rootCmd.AddCommand(tokensCmd)
}

func printTokens(cmd *cobra.Command, args []string) error {
	input, err := readInput(cmd, args)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	s := tokenizer.NewScanner(input)
	for {
		tok, err := s.Next()
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%d:%d\t%s\n", tok.Pos.Line, tok.Pos.Column, tok)
		if tok.Kind == tokenizer.TokenStreamEnd {
			return nil
		}
	}
}
