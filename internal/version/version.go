package version

// Version is the version of argo-optimizer written into search reports.
// Set at build time with
// -ldflags "-X github.com/rxtech-lab/argo-optimizer/internal/version.Version=1.2.3".
// "main" marks a development build.
var Version = "v0.3.0"

// GetVersion returns the current version of the binary.
func GetVersion() string {
	return Version
}
