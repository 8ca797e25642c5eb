// Package constant defines immutable application-level identifiers and configuration defaults.
package constant

const (
	// Reelcast is the canonical application identifier used for filesystem paths and CLI branding.
	Reelcast = "reelcast"

	// Version is the current application semantic version string.
	Version = "0.3.0"

	// UserAgent is the HTTP User-Agent sent to the catalog API and media hosts.
	UserAgent = "reelcast/" + Version + " (+https://github.com/reelcast/reelcast)"
)
