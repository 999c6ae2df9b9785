package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"kiln/internal/bytecode"
	"kiln/internal/compiler"
	"kiln/internal/diag"
	"kiln/internal/parser"
	"kiln/internal/runtime"
	"kiln/internal/source"
)

// errCompileFailed signals that diagnostics on stderr already explain
// the failure.
var errCompileFailed = errors.New("compilation failed")

// compileFile loads, parses, and compiles one .kn source onto the
// given heap.
func compileFile(cmd *cobra.Command, path string, heap *runtime.Heap) (*bytecode.Chunk, error) {
	fs := source.NewFileSet()
	id, err := fs.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	bag := diag.NewBag()
	stmts := parser.Parse(fs.Get(id), bag)
	chunk := compiler.Compile(stmts, heap, fs, bag)
	if bag.HasErrors() {
		bag.Write(os.Stderr, fs, useColor(cmd, os.Stderr))
		return nil, errCompileFailed
	}
	return chunk, nil
}

// loadChunk produces a runnable chunk from either a source file or a
// compiled artifact, keyed by extension.
func loadChunk(cmd *cobra.Command, path string, heap *runtime.Heap) (*bytecode.Chunk, error) {
	switch filepath.Ext(path) {
	case ".kn":
		return compileFile(cmd, path, heap)
	case ".knc":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		chunk, err := bytecode.Decode(data, heap)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return chunk, nil
	default:
		return nil, fmt.Errorf("%s: expected a .kn source or .knc artifact", path)
	}
}
