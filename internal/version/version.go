// Package version provides shared version information.
package version

// version is overridden at build time with -ldflags "-X github.com/gaussdb/gaussdb-mcp/internal/version.version=...".
var version = "1.0.0"

// Version returns the version of the daemon and client tools.
func Version() string {
	return version
}
