// Package playlist normalizes the catalog's loosely-typed playlist documents into a uniform, navigable shape.
package playlist

import (
	"strconv"
	"strings"
)

// Placeholder is the token in a URL template that is replaced by a quality value.
const Placeholder = "%s"

// Playlist is either a *Movie or a *Series. A nil Playlist means there is nothing to play.
type Playlist interface {
	// Trailers returns the trailer translations in document order.
	Trailers() []Translation

	isPlaylist()
}

// Movie is a single-feature playlist with one entry per translation.
type Movie struct {
	TrailerList  []Translation `json:"trailers"`
	Translations []Translation `json:"translations"`
}

func (m *Movie) Trailers() []Translation { return m.TrailerList }
func (*Movie) isPlaylist()                {}

// Series groups episodes by season.
type Series struct {
	TrailerList []Translation `json:"trailers"`
	Seasons     []Season      `json:"seasons"`
}

func (s *Series) Trailers() []Translation { return s.TrailerList }
func (*Series) isPlaylist()                {}

// Season is a named, ordered list of episodes.
type Season struct {
	Name     string    `json:"name"`
	Episodes []Episode `json:"episodes"`
}

// Episode aggregates every translation that has content for it.
type Episode struct {
	Name         string        `json:"name"`
	Translations []Translation `json:"translations"`
}

// Translation is a named audio/subtitle variant with its own link.
type Translation struct {
	Name string    `json:"name"`
	Link VideoLink `json:"link"`
}

// VideoLink is a URL template plus the quality ladder it can be resolved with.
// Qualities is sorted strictly descending; an empty ladder means the template is a playable URL as is.
type VideoLink struct {
	URLTemplate string `json:"url_template"`
	Qualities   []int  `json:"qualities"`
}

// Switchable reports whether the link offers more than one way to be resolved.
func (l VideoLink) Switchable() bool {
	return len(l.Qualities) > 0 && strings.Contains(l.URLTemplate, Placeholder)
}

// URL resolves the template for quality. Quality 0 stands for "unconstrained" and
// resolves to the lowest tier of the ladder.
func (l VideoLink) URL(quality int) string {
	if !l.Switchable() {
		return l.URLTemplate
	}

	if quality <= 0 {
		quality = l.Qualities[len(l.Qualities)-1]
	}

	return strings.Replace(l.URLTemplate, Placeholder, strconv.Itoa(quality), 1)
}

// Relation is a pointer to another catalog video related to the current one.
type Relation struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
}
