package download

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/reelcast/reelcast/filesystem"
	"github.com/reelcast/reelcast/internal/cache"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/afero"
)

func init() {
	filesystem.SetMemMapFs()
}

func partials(dir string) []string {
	matches, _ := afero.Glob(filesystem.API(), filepath.Join(dir, "*.part"))
	return matches
}

func TestDestination(t *testing.T) {
	Convey("Destination", t, func() {
		key := "https://cdn/v/720/movie.mkv"
		digest := cache.Digest(key)

		Convey("Should shard by digest and keep the title readable", func() {
			dest := Destination("/videos", key, "Harbor: Part 1")
			So(dest, ShouldEqual, filepath.Join("/videos", digest[:2], "Harbor_Part_1-"+digest[:12]+".mkv"))
		})

		Convey("Should fall back to the digest and .mp4", func() {
			dest := Destination("/videos", "https://cdn/v/720/index.m3u8", "")
			d := cache.Digest("https://cdn/v/720/index.m3u8")
			So(dest, ShouldEqual, filepath.Join("/videos", d[:2], d+".mp4"))
		})
	})
}

func TestDownload(t *testing.T) {
	payload := bytes.Repeat([]byte("reelcast"), 64*1024)

	Convey("Given a media server", t, func() {
		release := make(chan struct{})
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/video.mp4":
				w.Header().Set("Content-Length", strconv.Itoa(len(payload)))
				_, _ = w.Write(payload)
			case "/chunked.mp4":
				_, _ = w.Write(payload[:1024])
				w.(http.Flusher).Flush()
				_, _ = w.Write(payload[1024:])
			case "/stalled.mp4":
				w.Header().Set("Content-Length", "1000000")
				_, _ = w.Write(payload[:1024])
				w.(http.Flusher).Flush()
				select {
				case <-r.Context().Done():
				case <-release:
				}
			default:
				http.NotFound(w, r)
			}
		}))
		defer server.Close()
		defer close(release)

		dir := "/downloads/" + strings.ReplaceAll(t.Name(), "/", "_")

		Convey("A completed download is renamed into place", func() {
			dest := filepath.Join(dir, "ok.mp4")
			var last, total int64
			err := Download(context.Background(), server.URL+"/video.mp4", dest, func(w, t int64) {
				last, total = w, t
			})
			So(err, ShouldBeNil)

			data, err := afero.ReadFile(filesystem.API(), dest)
			So(err, ShouldBeNil)
			So(data, ShouldResemble, payload)
			So(last, ShouldEqual, int64(len(payload)))
			So(total, ShouldEqual, int64(len(payload)))
			So(partials(dir), ShouldBeEmpty)
		})

		Convey("An unannounced length is reported as -1", func() {
			dest := filepath.Join(dir, "chunked.mp4")
			var last, total int64
			err := Download(context.Background(), server.URL+"/chunked.mp4", dest, func(w, t int64) {
				last, total = w, t
			})
			So(err, ShouldBeNil)

			data, err := afero.ReadFile(filesystem.API(), dest)
			So(err, ShouldBeNil)
			So(data, ShouldResemble, payload)
			So(last, ShouldEqual, int64(len(payload)))
			So(total, ShouldEqual, int64(-1))
			So(partials(dir), ShouldBeEmpty)
		})

		Convey("A cancelled download leaves nothing behind", func() {
			dest := filepath.Join(dir, "cancelled.mp4")
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			err := Download(ctx, server.URL+"/stalled.mp4", dest, func(w, _ int64) {
				if w > 0 {
					cancel()
				}
			})
			So(err, ShouldEqual, context.Canceled)

			exists, _ := afero.Exists(filesystem.API(), dest)
			So(exists, ShouldBeFalse)
			So(partials(dir), ShouldBeEmpty)
		})

		Convey("A failed request creates no files", func() {
			dest := filepath.Join(dir, "missing.mp4")
			err := Download(context.Background(), server.URL+"/missing.mp4", dest, nil)
			So(err, ShouldNotBeNil)

			exists, _ := afero.Exists(filesystem.API(), dest)
			So(exists, ShouldBeFalse)
			So(partials(dir), ShouldBeEmpty)
		})
	})
}
