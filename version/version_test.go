package version

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/reelcast/reelcast/filesystem"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestCompare(t *testing.T) {
	Convey("Compare", t, func() {
		cmp, err := Compare("0.4.0", "v0.3.9")
		So(err, ShouldBeNil)
		So(cmp, ShouldEqual, 1)

		cmp, err = Compare("v1.2.3", "1.2.3")
		So(err, ShouldBeNil)
		So(cmp, ShouldEqual, 0)

		cmp, err = Compare("1.2.3", "1.10.0")
		So(err, ShouldBeNil)
		So(cmp, ShouldEqual, -1)

		_, err = Compare("latest", "1.0.0")
		So(err, ShouldNotBeNil)
	})
}

func TestLatest(t *testing.T) {
	Convey("Given a releases endpoint", t, func() {
		hits := 0
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits++
			_, _ = w.Write([]byte(`{"tag_name": "v0.4.1"}`))
		}))
		defer server.Close()

		previous := ReleasesURL
		ReleasesURL = server.URL
		defer func() { ReleasesURL = previous }()

		Convey("Latest strips the prefix and caches the answer", func() {
			latest, err := Latest(context.Background())
			So(err, ShouldBeNil)
			So(latest, ShouldEqual, "0.4.1")

			latest, err = Latest(context.Background())
			So(err, ShouldBeNil)
			So(latest, ShouldEqual, "0.4.1")
			So(hits, ShouldEqual, 1)
		})
	})
}
