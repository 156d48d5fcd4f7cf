// Package version carries the build version, overridden at link time via
// -ldflags "-X github.com/openvending/vending/internal/version.Version=...".
package version

var Version = "dev"
