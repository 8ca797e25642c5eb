// Package icon renders status symbols in the variant chosen by icons.variant.
package icon

import (
	"github.com/reelcast/reelcast/key"
	"github.com/spf13/viper"
)

const (
	emoji   = "emoji"
	nerd    = "nerd"
	plain   = "plain"
	squares = "squares"
)

// AvailableVariants lists the values accepted by icons.variant.
func AvailableVariants() []string {
	return []string{emoji, nerd, plain, squares}
}

type iconDef struct {
	emoji   string
	nerd    string
	plain   string
	squares string
}

func (d *iconDef) Get() string {
	switch viper.GetString(key.IconsVariant) {
	case emoji:
		return d.emoji
	case nerd:
		return d.nerd
	case plain:
		return d.plain
	case squares:
		return d.squares
	default:
		return ""
	}
}

// Icon identifies a symbol.
type Icon int

const (
	Success Icon = iota
	Fail
	Progress
	Video
	Download
	Offline
)

var icons = map[Icon]*iconDef{
	Success:  {emoji: "🎉", nerd: "\uf00c", plain: "+", squares: "🟩"},
	Fail:     {emoji: "💥", nerd: "\uf00d", plain: "x", squares: "🟥"},
	Progress: {emoji: "⏳", nerd: "\uf252", plain: "~", squares: "🟦"},
	Video:    {emoji: "🎬", nerd: "\uf03d", plain: ">", squares: "🟪"},
	Download: {emoji: "📥", nerd: "\uf019", plain: "v", squares: "🟨"},
	Offline:  {emoji: "📴", nerd: "\uf127", plain: "!", squares: "⬛"},
}

// Get renders i in the configured variant.
func Get(i Icon) string {
	def, ok := icons[i]
	if !ok {
		return ""
	}
	return def.Get()
}
