// Package catalog fetches video details from the catalog API through the response cache.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/reelcast/reelcast/internal/cache"
	"github.com/reelcast/reelcast/key"
	"github.com/reelcast/reelcast/log"
	"github.com/reelcast/reelcast/network"
	"github.com/reelcast/reelcast/playlist"
	"github.com/reelcast/reelcast/where"
	"github.com/spf13/viper"
)

// ErrNothingToPlay is returned for videos whose playlist has no playable link.
var ErrNothingToPlay = errors.New("nothing to play")

// Video is a catalog entry with its normalized playlist.
type Video struct {
	ID       int
	Title    string
	Year     int
	Document playlist.Document
	Playlist playlist.Playlist
}

type envelope struct {
	ID       int             `json:"id"`
	Title    string          `json:"title"`
	Year     int             `json:"year"`
	Playlist json.RawMessage `json:"playlist"`
}

// Client reads videos from the catalog API.
type Client struct {
	BaseURL string
	Cache   *cache.Cache
	HTTP    *http.Client
	// Online decides whether a stale entry may be refreshed. Defaults to network.Available.
	Online func() bool
}

// New returns a client configured from catalog.base_url and cache.ttl.
func New() *Client {
	ttl := time.Duration(viper.GetInt(key.CacheTTL)) * time.Second
	return &Client{
		BaseURL: viper.GetString(key.CatalogBaseURL),
		Cache:   cache.New(where.Responses(), ttl),
		HTTP:    network.Client,
		Online:  network.Available,
	}
}

func (c *Client) url(id int) string {
	return fmt.Sprintf("%s/videos/%d", strings.TrimSuffix(c.BaseURL, "/"), id)
}

// Raw returns the catalog response for a video, from the cache when it is fresh.
func (c *Client) Raw(ctx context.Context, id int) ([]byte, error) {
	url := c.url(id)
	online := c.Online == nil || c.Online()

	data, err := c.Cache.GetOrPopulate(ctx, url, online, func(ctx context.Context) ([]byte, error) {
		log.Debugf("catalog: fetching %s", url)
		resp, err := network.Get(ctx, c.HTTP, url)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		return io.ReadAll(resp.Body)
	})
	if err != nil {
		return nil, fmt.Errorf("video %d: %w", id, err)
	}
	return data, nil
}

// Video fetches and normalizes a video. ErrNothingToPlay is returned when the
// playlist holds neither movie links nor episodes.
func (c *Client) Video(ctx context.Context, id int) (*Video, error) {
	data, err := c.Raw(ctx, id)
	if err != nil {
		return nil, err
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("video %d: decode: %w", id, err)
	}

	video := &Video{ID: env.ID, Title: env.Title, Year: env.Year}
	if video.ID == 0 {
		video.ID = id
	}

	if len(env.Playlist) > 0 {
		doc, err := playlist.Decode(env.Playlist)
		if err != nil {
			log.Warnf("catalog: video %d: %v", id, err)
		} else {
			video.Document = doc
		}
	}

	video.Playlist = playlist.Normalize(video.Document)
	if video.Playlist == nil {
		return nil, fmt.Errorf("video %d: %w", id, ErrNothingToPlay)
	}

	return video, nil
}
