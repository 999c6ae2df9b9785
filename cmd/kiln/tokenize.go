package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"kiln/internal/diag"
	"kiln/internal/lexer"
	"kiln/internal/source"
	"kiln/internal/token"
)

var tokenizeCmd = &cobra.Command{
	Use:   "tokenize file.kn",
	Short: "Tokenize a kiln source file",
	Long:  `Tokenize breaks down a kiln source file into its constituent tokens`,
	Args:  cobra.ExactArgs(1),
	RunE:  runTokenize,
}

func runTokenize(cmd *cobra.Command, args []string) error {
	path := args[0]

	fs := source.NewFileSet()
	id, err := fs.Load(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	bag := diag.NewBag()
	lx := lexer.New(fs.Get(id), bag)
	toks := lx.Tokens()

	out := cmd.OutOrStdout()
	for _, tok := range toks {
		start, _ := fs.Resolve(tok.Span)
		if tok.Kind == token.EOF {
			fmt.Fprintf(out, "%4d:%-4d %s\n", start.Line, start.Col, tok.Kind)
			continue
		}
		fmt.Fprintf(out, "%4d:%-4d %-12s %q\n", start.Line, start.Col, tok.Kind, tok.Text)
	}

	if bag.HasErrors() {
		bag.Write(os.Stderr, fs, useColor(cmd, os.Stderr))
		cmd.SilenceUsage = true
		cmd.SilenceErrors = true
		return errCompileFailed
	}
	return nil
}
