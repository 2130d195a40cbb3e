// Package version holds the build-time version variables for the awsinv
// binary. The zero values ("dev", "none", "unknown") are used for local
// builds; release builds set them with -ldflags.
package version

import "fmt"

// These variables are overridden by -ldflags at release time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Info returns the formatted version string printed by awsinv version.
func Info() string {
	return fmt.Sprintf(
		"awsinv version %s\ncommit: %s\nbuilt: %s\n",
		Version,
		Commit,
		Date,
	)
}
