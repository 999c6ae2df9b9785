package version

import (
	"strings"
	"testing"
)

func TestVersionDefault(t *testing.T) {
	if Version == "" {
		t.Fatal("Version must have a default")
	}
	// The pre-release tag is appended uncolored, so it survives any
	// color mode.
	if !strings.HasSuffix(Version, "-"+pre) {
		t.Fatalf("default Version must end in %q: %q", "-"+pre, Version)
	}
}

func TestBuildMetadataDefaultsEmpty(t *testing.T) {
	// Both come from -ldflags; a plain build carries neither.
	if GitCommit != "" || BuildDate != "" {
		t.Fatalf("unexpected build metadata: %q %q", GitCommit, BuildDate)
	}
}
