// Package common holds build-time identifiers shared by the binaries.
package common

// PackageName identifies this service in logs and metrics.
const PackageName = "nicheimage-ingest"

// Version is overridden at build time with -ldflags "-X .../common.Version=...".
var Version = "dev"
