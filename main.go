// Package main is the entry point for reelcast.
package main

import (
	"time"

	"github.com/reelcast/reelcast/cmd"
	"github.com/reelcast/reelcast/config"
	"github.com/reelcast/reelcast/internal/cache"
	"github.com/reelcast/reelcast/key"
	"github.com/reelcast/reelcast/log"
	"github.com/reelcast/reelcast/where"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

func main() {
	lo.Must0(config.Setup())
	lo.Must0(log.Setup())

	go cache.New(
		where.Responses(),
		time.Duration(viper.GetInt(key.CacheTTL))*time.Second,
	).CollectGarbage(time.Duration(viper.GetInt(key.CacheRetention)) * time.Hour)

	cmd.Execute()
}
