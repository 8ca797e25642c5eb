// Package where implements a cross-platform resolver for application-specific filesystem paths.
package where

import (
	"os"
	"path/filepath"

	"github.com/reelcast/reelcast/constant"
	"github.com/reelcast/reelcast/filesystem"
	"github.com/samber/lo"
)

// EnvConfigPath is the environment variable identifier used to override the default configuration directory.
const EnvConfigPath = "REELCAST_CONFIG_PATH"

// EnvDownloadsPath overrides the directory downloaded videos are written to.
const EnvDownloadsPath = "REELCAST_DOWNLOADS_PATH"

func ensureDir(path string) string {
	lo.Must0(filesystem.API().MkdirAll(path, os.ModePerm))
	return path
}

// Config resolves the absolute path to the primary application configuration directory.
// The path can be overridden with the REELCAST_CONFIG_PATH environment variable.
func Config() string {
	if custom, ok := os.LookupEnv(EnvConfigPath); ok {
		return ensureDir(custom)
	}

	base, err := os.UserConfigDir()
	if err != nil {
		base = filepath.Join(".", "config")
	}
	return ensureDir(filepath.Join(base, constant.Reelcast))
}

// Cache resolves the absolute path to the application's persistent cache directory.
func Cache() string {
	base, err := os.UserCacheDir()
	if err != nil {
		base = filepath.Join(".", "cache")
	}
	return ensureDir(filepath.Join(base, constant.Reelcast))
}

// Responses resolves the root of the sharded API response cache.
func Responses() string {
	return ensureDir(filepath.Join(Cache(), "responses"))
}

// Logs resolves the absolute path to the directory used for application diagnostic logs.
func Logs() string {
	return ensureDir(filepath.Join(Config(), "logs"))
}

// Settings resolves the per-video settings store file.
func Settings() string {
	return filepath.Join(Config(), "settings.json")
}

// History resolves the absolute path to the localized watch history persistence file.
func History() string {
	return filepath.Join(Config(), "history.json")
}

// Downloads resolves the directory downloaded videos are stored in.
func Downloads() string {
	if custom, ok := os.LookupEnv(EnvDownloadsPath); ok {
		return ensureDir(custom)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ensureDir(filepath.Join(Cache(), "downloads"))
	}
	return ensureDir(filepath.Join(home, "Videos", constant.Reelcast))
}

// Temp resolves a volatile filesystem path for transient application artifacts.
func Temp() string {
	return ensureDir(filepath.Join(os.TempDir(), constant.Reelcast))
}
