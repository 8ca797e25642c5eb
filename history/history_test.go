package history

import (
	"testing"
	"time"

	"github.com/reelcast/reelcast/filesystem"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestHistory(t *testing.T) {
	Convey("Given an empty history", t, func() {
		So(Clear(), ShouldBeNil)

		Convey("When a series episode is saved", func() {
			err := Save(Entry{
				VideoID:     7,
				Title:       "Northern Lights",
				Season:      "Season 1",
				Episode:     "3",
				Translation: "Dub",
				Position:    83*time.Second + 400*time.Millisecond,
			})
			So(err, ShouldBeNil)

			Convey("Then it can be found with a whole-second position", func() {
				entry, ok, err := Find(7)
				So(err, ShouldBeNil)
				So(ok, ShouldBeTrue)
				So(entry.Episode, ShouldEqual, "3")
				So(entry.Position, ShouldEqual, 83*time.Second)
				So(entry.UpdatedAt.IsZero(), ShouldBeFalse)
				So(entry.String(), ShouldEqual, "Northern Lights : Season 1 / 3 [Dub] at 1m23s")
			})

			Convey("Then saving again replaces the entry", func() {
				So(Save(Entry{VideoID: 7, Title: "Northern Lights", Season: "Season 1", Episode: "4"}), ShouldBeNil)

				saved, err := Get()
				So(err, ShouldBeNil)
				So(saved, ShouldHaveLength, 1)
				So(saved["7"].Episode, ShouldEqual, "4")
			})

			Convey("Then it can be removed", func() {
				So(Remove(7), ShouldBeNil)
				_, ok, err := Find(7)
				So(err, ShouldBeNil)
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When several videos are saved", func() {
			So(Save(Entry{VideoID: 1, Title: "First"}), ShouldBeNil)
			time.Sleep(2 * time.Millisecond)
			So(Save(Entry{VideoID: 2, Title: "Second", Translation: "Original"}), ShouldBeNil)

			Convey("Then List puts the most recent first", func() {
				entries, err := List()
				So(err, ShouldBeNil)
				So(entries, ShouldHaveLength, 2)
				So(entries[0].VideoID, ShouldEqual, 2)
				So(entries[0].String(), ShouldEqual, "Second [Original] at 0s")
				So(entries[1].VideoID, ShouldEqual, 1)
			})
		})
	})
}
