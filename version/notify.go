package version

import (
	"context"
	"fmt"
	"time"

	"github.com/reelcast/reelcast/color"
	"github.com/reelcast/reelcast/constant"
	"github.com/reelcast/reelcast/icon"
	"github.com/reelcast/reelcast/key"
	"github.com/reelcast/reelcast/style"
	"github.com/reelcast/reelcast/util"
	"github.com/spf13/viper"
)

// Notify prints a notice when a newer release exists.
func Notify() {
	if !viper.GetBool(key.CliVersionCheck) {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	erase := util.PrintErasable(fmt.Sprintf("%s Checking for a new version...", icon.Get(icon.Progress)))
	latest, err := Latest(ctx)
	erase()
	if err != nil {
		return
	}

	if cmp, err := Compare(latest, constant.Version); err != nil || cmp <= 0 {
		return
	}

	fmt.Printf(`
%s New version is available %s %s
%s

`,
		style.Fg(color.Green)("▇▇▇"),
		style.Bold(latest),
		style.Faint(fmt.Sprintf("(You're on %s)", constant.Version)),
		style.Faint("https://github.com/reelcast/reelcast/releases/tag/v"+latest),
	)
}
