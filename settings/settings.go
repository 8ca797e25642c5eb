// Package settings persists small per-video values (quality, resume position, last selection) in namespaced records.
package settings

import (
	"strconv"
	"sync"

	"github.com/metafates/gache"
	"github.com/reelcast/reelcast/filesystem"
	"github.com/samber/mo"
)

// Keys stored in a video namespace.
const (
	KeyQuality      = "quality"
	KeyPosition     = "position"
	KeySeason       = "season"
	KeyEpisode      = "episode"
	KeyTranslation  = "translation"
	KeyDownloadPath = "downloadPath"
)

// Store is a namespaced key-value store with last-write-wins semantics.
type Store interface {
	GetInt(namespace, key string) mo.Option[int]
	PutInt(namespace, key string, value int) error
	GetLong(namespace, key string) mo.Option[int64]
	PutLong(namespace, key string, value int64) error
	GetString(namespace, key string) mo.Option[string]
	PutString(namespace, key, value string) error
}

// Namespace returns the namespace holding the settings of a video.
func Namespace(videoID int) string {
	return "video-" + strconv.Itoa(videoID)
}

type record struct {
	Numbers map[string]int64  `json:"numbers,omitempty"`
	Strings map[string]string `json:"strings,omitempty"`
}

// FileStore keeps every namespace in a single JSON file. Access is serialized.
type FileStore struct {
	mu     sync.Mutex
	cacher *gache.Cache[map[string]*record]
}

// Open returns a store backed by the file at path on the active filesystem.
func Open(path string) *FileStore {
	return &FileStore{
		cacher: gache.New[map[string]*record](
			&gache.Options{
				Path:       path,
				FileSystem: &filesystem.GacheFs{},
			},
		),
	}
}

func (s *FileStore) load() (map[string]*record, error) {
	cached, expired, err := s.cacher.Get()
	if err != nil {
		return nil, err
	}
	if expired || cached == nil {
		return make(map[string]*record), nil
	}
	return cached, nil
}

func (s *FileStore) lookup(namespace string) *record {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load()
	if err != nil {
		return nil
	}
	return all[namespace]
}

func (s *FileStore) update(namespace string, apply func(*record)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load()
	if err != nil {
		return err
	}

	rec, ok := all[namespace]
	if !ok {
		rec = &record{}
		all[namespace] = rec
	}
	if rec.Numbers == nil {
		rec.Numbers = make(map[string]int64)
	}
	if rec.Strings == nil {
		rec.Strings = make(map[string]string)
	}

	apply(rec)
	return s.cacher.Set(all)
}

// GetLong returns the number stored under key in namespace.
func (s *FileStore) GetLong(namespace, key string) mo.Option[int64] {
	rec := s.lookup(namespace)
	if rec == nil {
		return mo.None[int64]()
	}
	v, ok := rec.Numbers[key]
	return mo.TupleToOption(v, ok)
}

// PutLong stores value under key in namespace, replacing any previous value.
func (s *FileStore) PutLong(namespace, key string, value int64) error {
	return s.update(namespace, func(r *record) { r.Numbers[key] = value })
}

// GetInt is GetLong narrowed to int.
func (s *FileStore) GetInt(namespace, key string) mo.Option[int] {
	v, ok := s.GetLong(namespace, key).Get()
	return mo.TupleToOption(int(v), ok)
}

// PutInt stores value as a long.
func (s *FileStore) PutInt(namespace, key string, value int) error {
	return s.PutLong(namespace, key, int64(value))
}

// GetString returns the string stored under key in namespace.
func (s *FileStore) GetString(namespace, key string) mo.Option[string] {
	rec := s.lookup(namespace)
	if rec == nil {
		return mo.None[string]()
	}
	v, ok := rec.Strings[key]
	return mo.TupleToOption(v, ok)
}

// PutString stores value under key in namespace, replacing any previous value.
func (s *FileStore) PutString(namespace, key, value string) error {
	return s.update(namespace, func(r *record) { r.Strings[key] = value })
}

// Forget removes every value stored for namespace.
func (s *FileStore) Forget(namespace string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load()
	if err != nil {
		return err
	}

	delete(all, namespace)
	return s.cacher.Set(all)
}
