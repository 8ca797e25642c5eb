// Package history records the last position watched for every video.
package history

import (
	"sort"
	"strconv"
	"time"

	"github.com/metafates/gache"
	"github.com/reelcast/reelcast/filesystem"
	"github.com/reelcast/reelcast/where"
	"github.com/samber/lo"
)

var cacher = gache.New[map[string]*Entry](
	&gache.Options{
		Path:       where.History(),
		FileSystem: &filesystem.GacheFs{},
	},
)

// Get returns every entry keyed by video id.
func Get() (map[string]*Entry, error) {
	cached, expired, err := cacher.Get()
	if err != nil {
		return nil, err
	}
	if expired || cached == nil {
		return make(map[string]*Entry), nil
	}
	return cached, nil
}

// List returns entries, most recently updated first.
func List() ([]*Entry, error) {
	saved, err := Get()
	if err != nil {
		return nil, err
	}

	entries := lo.Values(saved)
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].UpdatedAt.Equal(entries[j].UpdatedAt) {
			return entries[i].VideoID < entries[j].VideoID
		}
		return entries[i].UpdatedAt.After(entries[j].UpdatedAt)
	})
	return entries, nil
}

// Find returns the entry of a video, if any.
func Find(videoID int) (*Entry, bool, error) {
	saved, err := Get()
	if err != nil {
		return nil, false, err
	}

	entry, ok := saved[strconv.Itoa(videoID)]
	return entry, ok, nil
}

// Save replaces the entry of the video, stamping it with the current time.
func Save(entry Entry) error {
	saved, err := Get()
	if err != nil {
		return err
	}

	entry.UpdatedAt = time.Now()
	entry.Position = entry.Position.Truncate(time.Second)
	saved[entry.encode()] = &entry

	return cacher.Set(saved)
}

// Remove deletes the entry of a video.
func Remove(videoID int) error {
	saved, err := Get()
	if err != nil {
		return err
	}

	delete(saved, strconv.Itoa(videoID))
	return cacher.Set(saved)
}

// Clear deletes every entry.
func Clear() error {
	return cacher.Set(make(map[string]*Entry))
}
