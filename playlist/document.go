package playlist

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/reelcast/reelcast/log"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Shape tags the JSON kind a loosely-typed field arrived as.
type Shape int

const (
	ShapeInvalid Shape = iota
	ShapeObject
	ShapeArray
)

func (s Shape) String() string {
	switch s {
	case ShapeObject:
		return "object"
	case ShapeArray:
		return "array"
	default:
		return "invalid"
	}
}

// shapeOf classifies raw by its first significant byte.
func shapeOf(raw json.RawMessage) Shape {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return ShapeInvalid
	}

	switch trimmed[0] {
	case '{':
		return ShapeObject
	case '[':
		return ShapeArray
	default:
		return ShapeInvalid
	}
}

// Document is the pre-parsed form of a raw playlist: every irregular field has
// been classified and reduced to one known shape, with object key order kept.
type Document struct {
	Movies   []RawLink   `json:"movies"`
	Trailers []RawLink   `json:"trailers"`
	Seasons  []RawSeason `json:"seasons"`
	Relates  []Relation  `json:"relates"`
}

// RawLink is a movie or trailer entry as found in the document.
type RawLink struct {
	Link        string `json:"link"`
	Translation string `json:"translation"`
}

// RawSeason holds one season's per-translation episode groups in document order.
type RawSeason struct {
	Name   string     `json:"name"`
	Groups []RawGroup `json:"groups"`
}

// RawGroup is the set of episodes one translation provides for a season.
type RawGroup struct {
	Translation string     `json:"translation"`
	Shape       Shape      `json:"shape"`
	Entries     []RawEntry `json:"entries"`
}

// RawEntry is a single episode link inside a group.
type RawEntry struct {
	Episode string `json:"episode"`
	Link    string `json:"link"`
	Watched bool   `json:"watched"`
}

type rawDocument struct {
	Movie    json.RawMessage `json:"movie"`
	Playlist json.RawMessage `json:"playlist"`
	Trailer  json.RawMessage `json:"trailer"`
	Relates  json.RawMessage `json:"relates"`
}

type rawEpisode struct {
	Link    string `json:"link"`
	Watched bool   `json:"watched"`
}

type rawRelation struct {
	ID    json.Number `json:"id"`
	Title string      `json:"title"`
}

// Decode pre-parses a raw playlist document. Only input that is not a JSON
// object at all is an error; every malformed field degrades to an empty value.
func Decode(data []byte) (Document, error) {
	var raw rawDocument
	if err := json.Unmarshal(data, &raw); err != nil {
		return Document{}, fmt.Errorf("decode playlist document: %w", err)
	}

	return Document{
		Movies:   decodeLinks(raw.Movie),
		Trailers: decodeLinks(raw.Trailer),
		Seasons:  decodeSeasons(raw.Playlist),
		Relates:  decodeRelations(raw.Relates),
	}, nil
}

func decodeLinks(raw json.RawMessage) []RawLink {
	if shapeOf(raw) != ShapeArray {
		return []RawLink{}
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		log.Warnf("playlist: links: %v", err)
		return []RawLink{}
	}

	links := make([]RawLink, 0, len(items))
	for _, item := range items {
		var link RawLink
		if shapeOf(item) != ShapeObject || json.Unmarshal(item, &link) != nil {
			continue
		}
		links = append(links, link)
	}

	return links
}

// decodeObject decodes raw into an insertion-ordered map, or nil if raw is not an object.
func decodeObject(raw json.RawMessage) *orderedmap.OrderedMap[string, json.RawMessage] {
	if shapeOf(raw) != ShapeObject {
		return nil
	}

	m := orderedmap.New[string, json.RawMessage]()
	if err := json.Unmarshal(raw, m); err != nil {
		log.Warnf("playlist: object: %v", err)
		return nil
	}

	return m
}

func decodeSeasons(raw json.RawMessage) []RawSeason {
	seasons := decodeObject(raw)
	if seasons == nil {
		return []RawSeason{}
	}

	result := make([]RawSeason, 0, seasons.Len())
	for season := seasons.Oldest(); season != nil; season = season.Next() {
		groups := decodeObject(season.Value)
		if groups == nil {
			continue
		}

		rs := RawSeason{Name: season.Key, Groups: make([]RawGroup, 0, groups.Len())}
		for group := groups.Oldest(); group != nil; group = group.Next() {
			rs.Groups = append(rs.Groups, decodeGroup(group.Key, group.Value))
		}

		result = append(result, rs)
	}

	return result
}

// decodeGroup normalizes an episode group. Array groups use position 0 as a
// trailer sentinel and name the remaining episodes by their 1-based position.
func decodeGroup(translation string, raw json.RawMessage) RawGroup {
	group := RawGroup{Translation: translation, Shape: shapeOf(raw), Entries: []RawEntry{}}

	switch group.Shape {
	case ShapeObject:
		episodes := decodeObject(raw)
		if episodes == nil {
			group.Shape = ShapeInvalid
			return group
		}

		for ep := episodes.Oldest(); ep != nil; ep = ep.Next() {
			if entry, ok := decodeEntry(ep.Key, ep.Value); ok {
				group.Entries = append(group.Entries, entry)
			}
		}
	case ShapeArray:
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			group.Shape = ShapeInvalid
			return group
		}

		for i := 1; i < len(items); i++ {
			if entry, ok := decodeEntry(strconv.Itoa(i), items[i]); ok {
				group.Entries = append(group.Entries, entry)
			}
		}
	}

	return group
}

// decodeEntry accepts either {"link": ...} or a bare link string.
func decodeEntry(name string, raw json.RawMessage) (RawEntry, bool) {
	var link string
	if err := json.Unmarshal(raw, &link); err == nil {
		return RawEntry{Episode: name, Link: link}, link != ""
	}

	if shapeOf(raw) != ShapeObject {
		return RawEntry{}, false
	}

	var ep rawEpisode
	if err := json.Unmarshal(raw, &ep); err != nil {
		return RawEntry{}, false
	}

	return RawEntry{Episode: name, Link: ep.Link, Watched: ep.Watched}, ep.Link != ""
}

// decodeRelations treats anything but a list (commonly `false`) as no relations.
func decodeRelations(raw json.RawMessage) []Relation {
	if shapeOf(raw) != ShapeArray {
		return []Relation{}
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return []Relation{}
	}

	relations := make([]Relation, 0, len(items))
	for _, item := range items {
		var rel rawRelation
		if json.Unmarshal(item, &rel) != nil {
			continue
		}

		id, err := rel.ID.Int64()
		if err != nil {
			continue
		}
		relations = append(relations, Relation{ID: int(id), Title: rel.Title})
	}

	return relations
}
