// Package version reports the build of the matching core
package version

// BuildInfo holds version information about the build.
type BuildInfo struct {
	Service string `json:"service"`
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// Info returns the build information. Version, commit and date are set with
// -ldflags "-X 'vendormatch/internal/core/version.version=v0.1.0' -X ...commit=abcd -X ...date=2026-10-19"
func Info() BuildInfo {
	return BuildInfo{
		Service: "vendormatch",
		Version: version,
		Commit:  commit,
		Date:    date,
	}
}

// String is the short form used in log lines and the postgres application name
func (b BuildInfo) String() string {
	return b.Service + "/" + b.Version
}

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)
