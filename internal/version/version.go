package version

import "github.com/fatih/color"

// Version information for the kiln CLI.
// GitCommit and BuildDate can be overridden at build time via -ldflags.

const (
	major = "0"
	minor = "1"
	patch = "0"
	pre   = "dev"
)

// Ember palette: major burns hottest, patch has cooled off.
var (
	emberCore = color.New(color.FgRed, color.Bold)
	emberGlow = color.New(color.FgYellow, color.Bold)
	emberAsh  = color.New(color.FgHiBlack)
)

var (
	// Version is the semantic version of the CLI.
	Version = emberCore.Sprint(major) + "." + emberGlow.Sprint(minor) + "." + emberAsh.Sprint(patch) + "-" + pre

	// GitCommit is an optional git commit hash.
	GitCommit = ""

	// BuildDate is an optional build date in ISO-8601.
	BuildDate = ""
)
