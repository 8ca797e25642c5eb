package playlist

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/samber/lo"
	"github.com/samber/mo"
)

// ErrEmpty is returned when a playlist offers nothing to play.
var ErrEmpty = errors.New("nothing to play")

// Season returns the season called name.
func (s *Series) Season(name string) mo.Option[Season] {
	season, ok := lo.Find(s.Seasons, func(season Season) bool { return season.Name == name })
	return mo.TupleToOption(season, ok)
}

// Episode returns the episode called name.
func (s Season) Episode(name string) mo.Option[Episode] {
	ep, ok := lo.Find(s.Episodes, func(ep Episode) bool { return ep.Name == name })
	return mo.TupleToOption(ep, ok)
}

// FindTranslation picks the translation best matching query: an exact
// case-insensitive name first, then the closest fuzzy match. An empty query
// selects the first translation.
func FindTranslation(translations []Translation, query string) mo.Option[Translation] {
	if len(translations) == 0 {
		return mo.None[Translation]()
	}

	if query == "" {
		return mo.Some(translations[0])
	}

	if t, ok := lo.Find(translations, func(t Translation) bool { return strings.EqualFold(t.Name, query) }); ok {
		return mo.Some(t)
	}

	names := lo.Map(translations, func(t Translation, _ int) string { return t.Name })
	ranks := fuzzy.RankFindNormalizedFold(query, names)
	if len(ranks) == 0 {
		return mo.None[Translation]()
	}

	sort.Stable(ranks)
	return mo.Some(translations[ranks[0].OriginalIndex])
}

// Selection identifies what to play inside a playlist.
type Selection struct {
	Season      string
	Episode     string
	Translation string
	Link        VideoLink
	Trailer     bool
}

// Select resolves the requested season, episode and translation against p.
// Empty names fall back to the first available entry; an unknown season or
// episode is an error, while an unknown translation falls back to the first one.
func Select(p Playlist, season, episode, translation string) (Selection, error) {
	var (
		sel     Selection
		options []Translation
	)

	switch p := p.(type) {
	case *Movie:
		options = p.Translations
	case *Series:
		if len(p.Seasons) == 0 {
			return sel, ErrEmpty
		}

		s := p.Seasons[0]
		if season != "" {
			found, ok := p.Season(season).Get()
			if !ok {
				return sel, fmt.Errorf("season %q not found", season)
			}
			s = found
		}

		if len(s.Episodes) == 0 {
			return sel, fmt.Errorf("season %q: %w", s.Name, ErrEmpty)
		}

		ep := s.Episodes[0]
		if episode != "" {
			found, ok := s.Episode(episode).Get()
			if !ok {
				return sel, fmt.Errorf("season %q: episode %q not found", s.Name, episode)
			}
			ep = found
		}

		sel.Season, sel.Episode = s.Name, ep.Name
		options = ep.Translations
	}

	if len(options) == 0 && p != nil && len(p.Trailers()) > 0 {
		options = p.Trailers()
		sel.Trailer = true
	}

	t, ok := FindTranslation(options, translation).Get()
	if !ok {
		t, ok = FindTranslation(options, "").Get()
	}
	if !ok {
		return sel, ErrEmpty
	}

	sel.Translation, sel.Link = t.Name, t.Link
	return sel, nil
}
