package playlist

import (
	"github.com/invopop/jsonschema"
)

// Kind names the Playlist variant in serialized output.
type Kind string

const (
	KindEmpty  Kind = "empty"
	KindMovie  Kind = "movie"
	KindSeries Kind = "series"
)

// Envelope is the tagged JSON form of a Playlist.
type Envelope struct {
	Kind   Kind    `json:"kind" jsonschema:"enum=empty,enum=movie,enum=series"`
	Movie  *Movie  `json:"movie,omitempty"`
	Series *Series `json:"series,omitempty"`
}

// Wrap tags p with its variant.
func Wrap(p Playlist) Envelope {
	switch p := p.(type) {
	case *Movie:
		return Envelope{Kind: KindMovie, Movie: p}
	case *Series:
		return Envelope{Kind: KindSeries, Series: p}
	default:
		return Envelope{Kind: KindEmpty}
	}
}

// Unwrap returns the Playlist held by e, or nil for the empty variant.
func (e Envelope) Unwrap() Playlist {
	switch {
	case e.Kind == KindMovie && e.Movie != nil:
		return e.Movie
	case e.Kind == KindSeries && e.Series != nil:
		return e.Series
	default:
		return nil
	}
}

// Schema returns the JSON schema of Envelope.
func Schema() *jsonschema.Schema {
	reflector := new(jsonschema.Reflector)
	reflector.Anonymous = true
	return reflector.Reflect(&Envelope{})
}
