package playlist

import (
	"github.com/samber/lo"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Normalize converts a pre-parsed document into a Playlist.
// It returns nil when the document has neither movie links nor seasons.
func Normalize(doc Document) Playlist {
	trailers := translations(doc.Trailers)

	switch {
	case len(doc.Movies) > 0:
		return &Movie{
			TrailerList:  trailers,
			Translations: translations(doc.Movies),
		}
	case len(doc.Seasons) > 0:
		return &Series{
			TrailerList: trailers,
			Seasons: lo.Map(doc.Seasons, func(s RawSeason, _ int) Season {
				return normalizeSeason(s)
			}),
		}
	default:
		return nil
	}
}

// Parse decodes and normalizes a raw playlist document in one step.
func Parse(data []byte) (Playlist, error) {
	doc, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return Normalize(doc), nil
}

func translations(links []RawLink) []Translation {
	return lo.Map(links, func(l RawLink, _ int) Translation {
		return Translation{Name: l.Translation, Link: ParseLink(l.Link)}
	})
}

// normalizeSeason inverts translation -> episodes into episode -> translations,
// keeping the order in which episode names are first seen.
func normalizeSeason(raw RawSeason) Season {
	episodes := orderedmap.New[string, []Translation]()

	for _, group := range raw.Groups {
		for _, entry := range group.Entries {
			list, _ := episodes.Get(entry.Episode)
			episodes.Set(entry.Episode, append(list, Translation{
				Name: group.Translation,
				Link: ParseLink(entry.Link),
			}))
		}
	}

	season := Season{Name: raw.Name, Episodes: make([]Episode, 0, episodes.Len())}
	for ep := episodes.Oldest(); ep != nil; ep = ep.Next() {
		season.Episodes = append(season.Episodes, Episode{Name: ep.Key, Translations: ep.Value})
	}

	return season
}
