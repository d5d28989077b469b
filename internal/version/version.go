// Package version holds build information, set through ldflags.
package version

// Version is the build version string. Format: vX.Y.Z or vX.Y.Z-dev.
var Version = "v0.1.0-dev"

// BuildTime is the build timestamp.
var BuildTime = "unknown"

// UserAgent identifies the client to the storage service.
func UserAgent() string {
	return "w3s-cli/" + Version
}
