// Package version holds build metadata injected at link time.
package version

// Version is the release version, set via -ldflags at build time.
var Version = "dev"

// Commit is the Git hash of the oxidiff binary which is executing.
var Commit = "<unknown>"

// Date is the build timestamp.
var Date = "<unknown>"
