package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"kiln/internal/bytecode"
	"kiln/internal/runtime"
)

var buildCmd = &cobra.Command{
	Use:   "build [flags] file.kn",
	Short: "Compile a kiln source to a .knc artifact",
	Args:  cobra.ExactArgs(1),
	RunE:  runBuild,
}

func init() {
	buildCmd.Flags().StringP("output", "o", "", "output path (default: source with .knc extension)")
}

func runBuild(cmd *cobra.Command, args []string) error {
	srcPath := args[0]
	if filepath.Ext(srcPath) != ".kn" {
		return fmt.Errorf("%s: expected a .kn source file", srcPath)
	}

	outPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return fmt.Errorf("failed to get output flag: %w", err)
	}
	if outPath == "" {
		outPath = strings.TrimSuffix(srcPath, ".kn") + ".knc"
	}

	heap := runtime.New(runtime.Config{})
	chunk, err := compileFile(cmd, srcPath, heap)
	if err != nil {
		if errors.Is(err, errCompileFailed) {
			cmd.SilenceUsage = true
			cmd.SilenceErrors = true
		}
		return err
	}

	data, err := bytecode.Encode(chunk, heap)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", srcPath, err)
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", outPath, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", outPath, len(data))
	return nil
}
