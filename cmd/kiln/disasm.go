package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"kiln/internal/bytecode"
	"kiln/internal/runtime"
)

var disasmCmd = &cobra.Command{
	Use:   "disasm file.kn|file.knc",
	Short: "Disassemble a kiln program",
	Long:  `Disasm prints the bytecode listing for a source file or a prebuilt artifact`,
	Args:  cobra.ExactArgs(1),
	RunE:  runDisasm,
}

func runDisasm(cmd *cobra.Command, args []string) error {
	path := args[0]
	heap := runtime.New(runtime.Config{})
	chunk, err := loadChunk(cmd, path, heap)
	if err != nil {
		if errors.Is(err, errCompileFailed) {
			cmd.SilenceUsage = true
			cmd.SilenceErrors = true
		}
		return err
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	fmt.Fprint(cmd.OutOrStdout(), bytecode.Disassemble(chunk, name, heap))
	return nil
}
