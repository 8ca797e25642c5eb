// Package player drives the external media engine. The primary implementation
// talks to mpv over its JSON-IPC socket.
package player

import (
	"fmt"
	"time"

	"github.com/reelcast/reelcast/key"
	"github.com/spf13/viper"
)

// Player is a media engine the quality controller can reload.
type Player interface {
	// Load opens url at start, replacing whatever is playing.
	Load(url string, start time.Duration) error

	// Seek moves playback to an absolute position.
	Seek(pos time.Duration) error

	TogglePause() error

	// Position returns the current playback position.
	Position() (time.Duration, error)

	// IsRunning reports whether the engine process is alive and answering.
	IsRunning() bool

	// Listen subscribes callback to playback events until the engine exits.
	Listen(callback EventCallback) (*EventListener, error)

	// Close terminates the engine.
	Close() error

	// Wait returns a channel closed when the engine exits.
	Wait() <-chan struct{}
}

// New returns the engine named by player.default.
func New(title string) (Player, error) {
	switch name := viper.GetString(key.Player); name {
	case "", "mpv":
		return NewMPV(title), nil
	default:
		return nil, fmt.Errorf("unsupported player %q", name)
	}
}
