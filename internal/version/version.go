package version

import "runtime"

// Build information set via ldflags at compile time:
//
//	-ldflags "-X secdash/internal/version.Version=1.2.0 -X secdash/internal/version.Commit=abc123"
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = ""
)

// Info returns version information as a structured map.
func Info() map[string]string {
	info := map[string]string{
		"name":    "secdash",
		"version": Version,
		"commit":  Commit,
		"go":      runtime.Version(),
	}
	if BuildDate != "" {
		info["build_date"] = BuildDate
	}
	return info
}
