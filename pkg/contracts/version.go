package contracts

import "runtime/debug"

const (
	// Version is the current version of the application
	Version = "1.2.0"

	// ReportLayoutVersion changes whenever report columns or their order change.
	// Consumers that parse the workbook can pin it.
	ReportLayoutVersion = "v1"

	// APIVersion is the version of the HTTP API
	APIVersion = "v1"
)

// Set with -ldflags "-X fmrreport/pkg/contracts.BuildTime=... -X fmrreport/pkg/contracts.GitCommit=...".
var (
	BuildTime = ""
	GitCommit = ""
)

// Commit returns GitCommit, falling back to the VCS revision the go tool
// stamps into the binary. Empty when neither is known, as under go test.
func Commit() string {
	if GitCommit != "" {
		return GitCommit
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, setting := range info.Settings {
		if setting.Key == "vcs.revision" {
			return shortRevision(setting.Value)
		}
	}
	return ""
}

func shortRevision(rev string) string {
	if len(rev) > 12 {
		return rev[:12]
	}
	return rev
}
