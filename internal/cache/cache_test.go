package cache

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/reelcast/reelcast/filesystem"
	"github.com/samber/lo"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	filesystem.SetMemMapFs()
}

func counting(payload string, calls *atomic.Int32) PopulateFunc {
	return func(context.Context) ([]byte, error) {
		calls.Add(1)
		return []byte(payload), nil
	}
}

func TestDigest(t *testing.T) {
	Convey("Digest", t, func() {
		Convey("Should be a stable hex sha256", func() {
			d := Digest("https://api.example.com/videos/1")
			So(d, ShouldHaveLength, 64)
			So(Digest("https://api.example.com/videos/1"), ShouldEqual, d)
			So(Digest("https://api.example.com/videos/2"), ShouldNotEqual, d)
		})

		Convey("Should shard storage by the first two hex characters", func() {
			c := New("/responses", time.Minute)
			d := Digest("key")
			So(c.Path("key"), ShouldEqual, filepath.Join("/responses", d[:2], d))
		})
	})
}

func TestGetOrPopulate(t *testing.T) {
	Convey("Given an empty cache", t, func() {
		dir := "/responses-" + time.Now().Format("150405.000000000")
		c := New(dir, time.Minute)
		ctx := context.Background()
		var calls atomic.Int32

		Convey("When populated online", func() {
			data, err := c.GetOrPopulate(ctx, "a", true, counting("payload", &calls))

			Convey("Then the payload is returned and stored on disk", func() {
				So(err, ShouldBeNil)
				So(string(data), ShouldEqual, "payload")
				So(calls.Load(), ShouldEqual, 1)

				stored, err := filesystem.API().ReadFile(c.Path("a"))
				So(err, ShouldBeNil)
				So(string(stored), ShouldEqual, "payload")
				So(c.Exists("a"), ShouldBeTrue)
			})

			Convey("And a second read within the TTL does not populate again", func() {
				data, err := c.GetOrPopulate(ctx, "a", true, counting("other", &calls))
				So(err, ShouldBeNil)
				So(string(data), ShouldEqual, "payload")
				So(calls.Load(), ShouldEqual, 1)
			})

			Convey("And an invalidated key is refetched", func() {
				c.Invalidate("a")
				So(c.Exists("a"), ShouldBeFalse)

				data, err := c.GetOrPopulate(ctx, "a", true, counting("fresh", &calls))
				So(err, ShouldBeNil)
				So(string(data), ShouldEqual, "fresh")
				So(calls.Load(), ShouldEqual, 2)
			})

			Convey("And offline reads are served from storage", func() {
				c.Invalidate("a")
				data, err := c.GetOrPopulate(ctx, "a", false, counting("never", &calls))
				So(err, ShouldBeNil)
				So(string(data), ShouldEqual, "payload")
				So(calls.Load(), ShouldEqual, 1)
			})
		})

		Convey("When the marker has expired", func() {
			short := New(dir+"-short", 20*time.Millisecond)
			_, err := short.GetOrPopulate(ctx, "a", true, counting("v1", &calls))
			So(err, ShouldBeNil)
			time.Sleep(50 * time.Millisecond)

			Convey("Then the next online read populates again", func() {
				So(short.Exists("a"), ShouldBeFalse)
				data, err := short.GetOrPopulate(ctx, "a", true, counting("v2", &calls))
				So(err, ShouldBeNil)
				So(string(data), ShouldEqual, "v2")
				So(calls.Load(), ShouldEqual, 2)
			})
		})

		Convey("When offline with nothing stored", func() {
			_, err := c.GetOrPopulate(ctx, "missing", false, counting("never", &calls))

			Convey("Then it fails with ErrNotFound without populating", func() {
				So(errors.Is(err, ErrNotFound), ShouldBeTrue)
				So(calls.Load(), ShouldEqual, 0)
			})
		})

		Convey("When populate fails", func() {
			failing := func(context.Context) ([]byte, error) {
				calls.Add(1)
				return nil, errors.New("boom")
			}
			_, err := c.GetOrPopulate(ctx, "broken", true, failing)

			Convey("Then the read fails and no marker is left behind", func() {
				So(errors.Is(err, ErrNotFound), ShouldBeTrue)
				So(c.Exists("broken"), ShouldBeFalse)
			})

			Convey("And the next call retries", func() {
				data, err := c.GetOrPopulate(ctx, "broken", true, counting("recovered", &calls))
				So(err, ShouldBeNil)
				So(string(data), ShouldEqual, "recovered")
				So(calls.Load(), ShouldEqual, 2)
			})
		})

		Convey("When the payload file disappears behind a live marker", func() {
			_, err := c.GetOrPopulate(ctx, "gone", true, counting("payload", &calls))
			So(err, ShouldBeNil)
			So(filesystem.API().Remove(c.Path("gone")), ShouldBeNil)

			Convey("Then Exists reports false", func() {
				So(c.Exists("gone"), ShouldBeFalse)
			})
		})

		Convey("When the caller's context is already cancelled", func() {
			cancelled, cancel := context.WithCancel(ctx)
			cancel()
			block := make(chan struct{})
			defer close(block)

			_, err := c.GetOrPopulate(cancelled, "slow", true, func(context.Context) ([]byte, error) {
				<-block
				return []byte("late"), nil
			})

			Convey("Then it returns the context error", func() {
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
			})
		})
	})
}

func TestSingleFlight(t *testing.T) {
	Convey("Given N concurrent readers of the same key", t, func() {
		c := New("/single-flight", time.Minute)
		const n = 32

		var (
			calls   atomic.Int32
			release = make(chan struct{})
			wg      sync.WaitGroup
			results = make([]string, n)
			errs    = make([]error, n)
		)

		populate := func(context.Context) ([]byte, error) {
			calls.Add(1)
			<-release
			return []byte("shared"), nil
		}

		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				data, err := c.GetOrPopulate(context.Background(), "same", true, populate)
				results[i], errs[i] = string(data), err
			}(i)
		}

		time.Sleep(50 * time.Millisecond)
		close(release)
		wg.Wait()

		Convey("Then populate runs exactly once and every reader sees the same content", func() {
			So(calls.Load(), ShouldEqual, 1)
			So(lo.Compact(errs), ShouldBeEmpty)
			So(lo.Uniq(results), ShouldResemble, []string{"shared"})
		})
	})

	Convey("Given concurrent readers of different keys", t, func() {
		c := New("/parallel", time.Minute)
		var calls atomic.Int32
		started := make(chan struct{}, 2)
		release := make(chan struct{})

		populate := func(context.Context) ([]byte, error) {
			calls.Add(1)
			started <- struct{}{}
			<-release
			return []byte("x"), nil
		}

		var wg sync.WaitGroup
		for _, k := range []string{"k1", "k2"} {
			wg.Add(1)
			go func(k string) {
				defer wg.Done()
				_, _ = c.GetOrPopulate(context.Background(), k, true, populate)
			}(k)
		}

		Convey("Then both populations run in parallel", func() {
			for i := 0; i < 2; i++ {
				select {
				case <-started:
				case <-time.After(2 * time.Second):
					t.Fatal("population for a different key was blocked")
				}
			}
			close(release)
			wg.Wait()
			So(calls.Load(), ShouldEqual, 2)
		})
	})
}

func TestMaintenance(t *testing.T) {
	Convey("Given a populated cache", t, func() {
		c := New("/maintenance", time.Minute)
		var calls atomic.Int32
		_, err := c.GetOrPopulate(context.Background(), "k", true, counting("v", &calls))
		So(err, ShouldBeNil)

		Convey("CollectGarbage keeps fresh payloads", func() {
			c.CollectGarbage(time.Hour)
			So(lo.Must(filesystem.API().Exists(c.Path("k"))), ShouldBeTrue)
		})

		Convey("CollectGarbage removes payloads past retention", func() {
			old := time.Now().Add(-2 * time.Hour)
			So(filesystem.API().Chtimes(c.Path("k"), old, old), ShouldBeNil)
			c.CollectGarbage(time.Hour)
			So(lo.Must(filesystem.API().Exists(c.Path("k"))), ShouldBeFalse)
		})

		Convey("Clear removes markers and storage", func() {
			So(c.Clear(), ShouldBeNil)
			So(c.Exists("k"), ShouldBeFalse)
			_, err := c.GetOrPopulate(context.Background(), "k", false, counting("never", &calls))
			So(errors.Is(err, ErrNotFound), ShouldBeTrue)
		})
	})
}
