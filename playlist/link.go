package playlist

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/reelcast/reelcast/util"
	"github.com/samber/lo"
	"golang.org/x/exp/slices"
)

// qualityLinkPattern matches "<prefix>[<comma separated qualities>]<suffix>".
// The greedy prefix binds the last bracket group holding a number, so brackets
// elsewhere in the link, such as in a query string, stay part of the prefix or suffix.
var qualityLinkPattern = regexp.MustCompile(`^(?P<prefix>.*)\[(?P<qualities>[,\s]*[0-9][0-9,\s]*)\](?P<suffix>.*)$`)

// ParseLink extracts the quality ladder embedded in a raw link.
//
//	"https://cdn/v/[720,480,,1080]/index.m3u8" -> "https://cdn/v/%s/index.m3u8", [1080 720 480]
//
// Links without a bracketed list, or whose list holds no integers, are returned
// verbatim with an empty ladder.
func ParseLink(raw string) VideoLink {
	raw = strings.TrimSpace(raw)

	groups := util.ReGroups(qualityLinkPattern, raw)
	if len(groups) == 0 {
		return VideoLink{URLTemplate: raw, Qualities: []int{}}
	}

	qualities := parseQualities(groups["qualities"])
	if len(qualities) == 0 {
		return VideoLink{URLTemplate: raw, Qualities: []int{}}
	}

	return VideoLink{
		URLTemplate: groups["prefix"] + Placeholder + groups["suffix"],
		Qualities:   qualities,
	}
}

// parseQualities turns "720, 480,,1080" into a distinct, descending ladder.
func parseQualities(list string) []int {
	qualities := lo.FilterMap(strings.Split(list, ","), func(segment string, _ int) (int, bool) {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			return 0, false
		}

		q, err := strconv.Atoi(segment)
		return q, err == nil && q > 0
	})

	return Descending(qualities)
}

// Descending returns the distinct values of qualities sorted from highest to lowest.
func Descending(qualities []int) []int {
	ladder := lo.Uniq(qualities)
	slices.SortFunc(ladder, func(a, b int) int { return b - a })
	return ladder
}
