// Package key defines the canonical set of configuration identifiers used for centralized settings management.
package key

// Catalog API - these keys locate the remote catalog serving video details.
const (
	CatalogBaseURL = "catalog.base_url"
)

// Response Cache - these keys tune the content-addressed metadata cache.
const (
	CacheTTL       = "cache.ttl"
	CacheRetention = "cache.retention"
)

// Network - these keys govern connectivity assumptions.
const (
	NetworkOffline = "network.offline"
)

// Media Playback - these keys configure the external media engine and the display it renders to.
const (
	Player             = "player.default"
	PlayerScreenHeight = "player.screen_height"
)

// Adaptive Quality - these keys tune the quality controller's timers and ceilings.
const (
	QualityDwell       = "quality.dwell"
	QualityMinInterval = "quality.min_interval"
	QualityDownloadCap = "quality.download_cap"
)

// History Tracking - these keys configure the persistence of watch history.
const (
	HistorySave = "history.save"
)

// Iconography - these keys manage the visual rendering of UI symbols.
const (
	IconsVariant = "icons.variant"
)

// Logging Infrastructure - these keys manage the application's internal diagnostics.
const (
	LogsWrite = "logs.write"
	LogsLevel = "logs.level"
	LogsJson  = "logs.json"
)

// CLI Execution Environment - these flags and settings govern the non-interactive application behavior.
const (
	CliColored      = "cli.colored"
	CliVersionCheck = "cli.version_check"
)
