// Package quality picks the starting resolution of a stream and moves it up or
// down the quality ladder while playback reports stalls and steady progress.
package quality

import (
	"github.com/samber/lo"
	"github.com/samber/mo"
	"golang.org/x/exp/slices"
)

// DownloadCap is the ceiling applied to downloads when no positive cap is configured.
const DownloadCap = 720

// Ladder is a distinct, descending list of quality tiers.
type Ladder []int

// NewLadder builds a Ladder from arbitrary tiers, dropping non-positive values.
func NewLadder(qualities []int) Ladder {
	ladder := lo.Uniq(lo.Filter(qualities, func(q int, _ int) bool { return q > 0 }))
	slices.SortFunc(ladder, func(a, b int) int { return b - a })
	return ladder
}

// Contains reports whether q is one of the tiers.
func (l Ladder) Contains(q int) bool {
	return slices.Contains(l, q)
}

// Best returns the highest tier not above ceiling.
func (l Ladder) Best(ceiling int) mo.Option[int] {
	q, ok := lo.Find(l, func(q int) bool { return q <= ceiling })
	return mo.TupleToOption(q, ok)
}

// Higher returns the tier directly above q. Tiers are walked by position,
// so sparse ladders never skip a step.
func (l Ladder) Higher(q int) mo.Option[int] {
	i := slices.Index(l, q)
	if i <= 0 {
		return mo.None[int]()
	}
	return mo.Some(l[i-1])
}

// Lower returns the first tier strictly below q.
func (l Ladder) Lower(q int) mo.Option[int] {
	lower, ok := lo.Find(l, func(t int) bool { return t < q })
	return mo.TupleToOption(lower, ok)
}

// Lowest returns the bottom tier.
func (l Ladder) Lowest() mo.Option[int] {
	if len(l) == 0 {
		return mo.None[int]()
	}
	return mo.Some(l[len(l)-1])
}

// Ceiling returns the highest quality playback may start at. Live playback is
// bound by the screen height alone; downloads are additionally capped by
// downloadCap, or DownloadCap when downloadCap is not positive.
func Ceiling(screenHeight int, download bool, downloadCap int) int {
	if !download {
		return screenHeight
	}

	if downloadCap <= 0 {
		downloadCap = DownloadCap
	}
	return min(screenHeight, downloadCap)
}

// Initial chooses the starting quality: the persisted one if the ladder still
// offers it, otherwise the best tier under ceiling. When every tier is above
// ceiling the lowest one is used. Only an empty ladder yields 0.
func Initial(ladder Ladder, persisted mo.Option[int], ceiling int) int {
	if q, ok := persisted.Get(); ok && ladder.Contains(q) {
		return q
	}
	return ladder.Best(ceiling).OrElse(ladder.Lowest().OrElse(0))
}
