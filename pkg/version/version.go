// Package version provides the pyimpact tool version.
package version

// Version is the pyimpact tool version.
// Can be overridden at build time with:
//   go build -ldflags "-X github.com/ingo-eichhorst/pyimpact/pkg/version.Version=2.0.1"
var Version = "dev"
