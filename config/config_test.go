package config

import (
	"encoding/json"
	"testing"

	"github.com/reelcast/reelcast/filesystem"
	"github.com/reelcast/reelcast/key"
	"github.com/reelcast/reelcast/where"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestSetup(t *testing.T) {
	Convey("Given a fresh configuration", t, func() {
		viper.Reset()

		Convey("Setup succeeds without a config file", func() {
			So(Setup(), ShouldBeNil)
		})

		Convey("Every registered key has its default", func() {
			So(Setup(), ShouldBeNil)
			for name, field := range Default {
				So(viper.Get(name), ShouldEqual, field.Value)
			}
			So(viper.GetInt(key.QualityDwell), ShouldEqual, 300)
			So(viper.GetInt(key.QualityMinInterval), ShouldEqual, 25)
			So(viper.GetInt(key.QualityDownloadCap), ShouldEqual, 720)
			So(viper.GetInt(key.CacheTTL), ShouldEqual, 300)
		})

		Convey("Environment variables override defaults", func() {
			t.Setenv("REELCAST_PLAYER_SCREEN_HEIGHT", "720")
			So(Setup(), ShouldBeNil)
			So(viper.GetInt(key.PlayerScreenHeight), ShouldEqual, 720)
		})

		Convey("The config file overrides defaults", func() {
			path := where.Config() + "/reelcast.toml"
			So(afero.WriteFile(filesystem.API(), path, []byte("[quality]\ndwell = 120\n"), 0o644), ShouldBeNil)
			defer filesystem.API().Remove(path)

			So(Setup(), ShouldBeNil)
			So(viper.GetInt(key.QualityDwell), ShouldEqual, 120)
		})
	})
}

func TestField(t *testing.T) {
	Convey("Given a registered field", t, func() {
		viper.Reset()
		So(Setup(), ShouldBeNil)
		field := Default[key.NetworkOffline]

		Convey("Env uses the application prefix", func() {
			So(field.Env(), ShouldEqual, "REELCAST_NETWORK_OFFLINE")
		})

		Convey("It marshals its current and default values", func() {
			data, err := json.Marshal(&field)
			So(err, ShouldBeNil)

			var decoded map[string]any
			So(json.Unmarshal(data, &decoded), ShouldBeNil)
			So(decoded["key"], ShouldEqual, key.NetworkOffline)
			So(decoded["type"], ShouldEqual, "bool")
			So(decoded["default"], ShouldEqual, false)
		})

		Convey("Pretty mentions the key", func() {
			So(field.Pretty(), ShouldContainSubstring, key.NetworkOffline)
		})

		Convey("Keys are sorted", func() {
			keys := Keys()
			So(keys, ShouldHaveLength, len(Default))
			So(keys[0], ShouldEqual, key.CacheRetention)
		})
	})
}
