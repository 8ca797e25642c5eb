package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/reelcast/reelcast/filesystem"
	"github.com/reelcast/reelcast/internal/cache"
	"github.com/reelcast/reelcast/network"
	"github.com/reelcast/reelcast/playlist"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	filesystem.SetMemMapFs()
}

const movieResponse = `{
	"id": 11,
	"title": "Harbor",
	"year": 2019,
	"playlist": {
		"movie": [{"link": "https://cdn/h/[1080,720]/index.m3u8", "translation": "Original"}],
		"relates": false
	}
}`

func TestClient(t *testing.T) {
	Convey("Given a catalog server", t, func() {
		var hits atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			switch r.URL.Path {
			case "/videos/11":
				_, _ = w.Write([]byte(movieResponse))
			case "/videos/12":
				_, _ = w.Write([]byte(`{"id": 12, "title": "Empty", "playlist": {"movie": [], "playlist": {}}}`))
			case "/videos/13":
				_, _ = w.Write([]byte(`<html>`))
			default:
				http.NotFound(w, r)
			}
		}))
		defer server.Close()

		online := true
		client := &Client{
			BaseURL: server.URL + "/",
			Cache:   cache.New(fmt.Sprintf("/cache/catalog-%d", time.Now().UnixNano()), time.Minute),
			HTTP:    network.Client,
			Online:  func() bool { return online },
		}

		Convey("Video decodes the envelope and normalizes the playlist", func() {
			video, err := client.Video(context.Background(), 11)
			So(err, ShouldBeNil)
			So(video.Title, ShouldEqual, "Harbor")
			So(video.Year, ShouldEqual, 2019)

			movie, ok := video.Playlist.(*playlist.Movie)
			So(ok, ShouldBeTrue)
			So(movie.Translations[0].Link.Qualities, ShouldResemble, []int{1080, 720})
		})

		Convey("Repeated lookups are served from the cache", func() {
			_, err := client.Video(context.Background(), 11)
			So(err, ShouldBeNil)
			_, err = client.Video(context.Background(), 11)
			So(err, ShouldBeNil)
			So(hits.Load(), ShouldEqual, 1)
		})

		Convey("Offline lookups fall back to stored responses", func() {
			_, err := client.Video(context.Background(), 11)
			So(err, ShouldBeNil)

			client.Cache.Invalidate(client.url(11))
			online = false

			video, err := client.Video(context.Background(), 11)
			So(err, ShouldBeNil)
			So(video.Title, ShouldEqual, "Harbor")
			So(hits.Load(), ShouldEqual, 1)
		})

		Convey("Offline lookups without a stored response fail", func() {
			online = false
			_, err := client.Video(context.Background(), 11)
			So(errors.Is(err, cache.ErrNotFound), ShouldBeTrue)
		})

		Convey("An empty playlist is reported as nothing to play", func() {
			_, err := client.Video(context.Background(), 12)
			So(errors.Is(err, ErrNothingToPlay), ShouldBeTrue)
		})

		Convey("A malformed response is an error", func() {
			_, err := client.Video(context.Background(), 13)
			So(err, ShouldNotBeNil)
		})

		Convey("A missing video is not found", func() {
			_, err := client.Video(context.Background(), 99)
			So(errors.Is(err, cache.ErrNotFound), ShouldBeTrue)
		})
	})
}
