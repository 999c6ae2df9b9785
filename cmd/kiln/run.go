package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"kiln/internal/runtime"
	"kiln/internal/vm"
)

var runCmd = &cobra.Command{
	Use:   "run [file.kn|file.knc]",
	Short: "Run a kiln program",
	Long:  `Run compiles and executes a .kn source, or executes a prebuilt .knc artifact. With no argument the program named by kiln.toml runs.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	manifest, found, err := loadProjectManifest(".")

	var target string
	if len(args) == 1 {
		// An explicit target runs even when a manifest up the tree is
		// broken; its [vm] settings apply only when it loaded.
		target = args[0]
	} else {
		if err != nil {
			return err
		}
		if !found {
			return errors.New(noKilnTomlMessage)
		}
		target, err = resolveProjectRunTarget(manifest)
		if err != nil {
			return err
		}
	}

	heap := runtime.New(manifest.runtimeConfig())
	chunk, err := loadChunk(cmd, target, heap)
	if err != nil {
		if errors.Is(err, errCompileFailed) {
			cmd.SilenceUsage = true
			cmd.SilenceErrors = true
		}
		return err
	}

	machine := vm.New(chunk, heap, os.Stdout)
	if fault := machine.Run(); fault != nil {
		cmd.SilenceUsage = true
		cmd.SilenceErrors = true
		fmt.Fprintln(os.Stderr, fault.Error())
		return fault
	}
	return nil
}
