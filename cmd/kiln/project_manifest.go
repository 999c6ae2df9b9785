package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"kiln/internal/runtime"
)

const noKilnTomlMessage = "no kiln.toml found\nplease specify the program explicitly, e.g.:\n  kiln run path/to/main.kn"

type projectManifest struct {
	Path   string
	Root   string
	Config projectConfig
}

type projectConfig struct {
	Package packageConfig `toml:"package"`
	Run     runConfig     `toml:"run"`
	VM      vmConfig      `toml:"vm"`
}

type packageConfig struct {
	Name string `toml:"name"`
}

type runConfig struct {
	Main string `toml:"main"`
}

// vmConfig tunes the runtime; both knobs are optional and zero means
// the built-in default.
type vmConfig struct {
	StackSize   int `toml:"stack-size"`
	GCThreshold int `toml:"gc-threshold"`
}

func findKilnToml(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, "kiln.toml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

func loadProjectManifest(startDir string) (*projectManifest, bool, error) {
	manifestPath, ok, err := findKilnToml(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	cfg, err := loadProjectConfig(manifestPath)
	if err != nil {
		return nil, true, err
	}
	return &projectManifest{
		Path:   manifestPath,
		Root:   filepath.Dir(manifestPath),
		Config: cfg,
	}, true, nil
}

func loadProjectConfig(path string) (projectConfig, error) {
	var cfg projectConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return projectConfig{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if !meta.IsDefined("package") {
		return projectConfig{}, fmt.Errorf("%s: missing [package]", path)
	}
	if !meta.IsDefined("package", "name") || strings.TrimSpace(cfg.Package.Name) == "" {
		return projectConfig{}, fmt.Errorf("%s: missing [package].name", path)
	}
	if !meta.IsDefined("run") {
		return projectConfig{}, fmt.Errorf("%s: missing [run]", path)
	}
	if !meta.IsDefined("run", "main") || strings.TrimSpace(cfg.Run.Main) == "" {
		return projectConfig{}, fmt.Errorf("%s: missing [run].main", path)
	}
	if cfg.VM.StackSize < 0 {
		return projectConfig{}, fmt.Errorf("%s: [vm].stack-size must be positive", path)
	}
	if cfg.VM.GCThreshold < 0 {
		return projectConfig{}, fmt.Errorf("%s: [vm].gc-threshold must be positive", path)
	}
	return cfg, nil
}

func resolveProjectRunTarget(manifest *projectManifest) (string, error) {
	if manifest == nil {
		return "", errors.New("missing project manifest")
	}
	mainRel := strings.TrimSpace(manifest.Config.Run.Main)
	mainPath := filepath.Join(manifest.Root, filepath.FromSlash(mainRel))
	info, err := os.Stat(mainPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%s: [run].main path does not exist: %s", manifest.Path, mainPath)
		}
		return "", fmt.Errorf("%s: failed to stat [run].main: %w", manifest.Path, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s: [run].main must be a .kn or .knc file", manifest.Path)
	}
	switch filepath.Ext(mainPath) {
	case ".kn", ".knc":
		return mainPath, nil
	default:
		return "", fmt.Errorf("%s: [run].main must be a .kn or .knc file", manifest.Path)
	}
}

// runtimeConfig maps manifest [vm] settings onto heap configuration.
func (m *projectManifest) runtimeConfig() runtime.Config {
	if m == nil {
		return runtime.Config{}
	}
	return runtime.Config{
		StackCapacity: m.Config.VM.StackSize,
		GCThreshold:   m.Config.VM.GCThreshold,
	}
}
