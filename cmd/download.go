package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/reelcast/reelcast/color"
	"github.com/reelcast/reelcast/icon"
	"github.com/reelcast/reelcast/internal/download"
	"github.com/reelcast/reelcast/key"
	"github.com/reelcast/reelcast/open"
	"github.com/reelcast/reelcast/quality"
	"github.com/reelcast/reelcast/settings"
	"github.com/reelcast/reelcast/style"
	"github.com/reelcast/reelcast/util"
	"github.com/reelcast/reelcast/where"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(downloadCmd)

	downloadCmd.Flags().StringP("season", "s", "", "Season to download")
	downloadCmd.Flags().StringP("episode", "e", "", "Episode to download")
	downloadCmd.Flags().StringP("translation", "t", "", "Translation to download, matched fuzzily")
	downloadCmd.Flags().StringP("path", "p", "", "Directory to store the file in")
	downloadCmd.Flags().BoolP("open", "o", false, "Reveal the file once saved")
}

// downloadCmd saves one translation of a video to disk.
var downloadCmd = &cobra.Command{
	Use:   "download <video id>",
	Short: "Save a video for offline viewing",
	Long:  fmt.Sprintf("Save a video for offline viewing. Quality is capped by %s.", key.QualityDownloadCap),
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id, err := parseVideoID(args[0])
		handleErr(err)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		video, err := fetchVideo(ctx, id)
		handleErr(err)

		prefs := settings.ForVideo(settings.Open(where.Settings()), id)
		sel, err := resolve(video.Playlist, prefs, playOptions{
			Season:      lo.Must(cmd.Flags().GetString("season")),
			Episode:     lo.Must(cmd.Flags().GetString("episode")),
			Translation: lo.Must(cmd.Flags().GetString("translation")),
		})
		handleErr(err)

		ceiling := quality.Ceiling(viper.GetInt(key.PlayerScreenHeight), true, viper.GetInt(key.QualityDownloadCap))
		q := quality.Initial(quality.NewLadder(sel.Link.Qualities), mo.None[int](), ceiling)
		url := sel.Link.URL(q)

		root := lo.Must(cmd.Flags().GetString("path"))
		if root == "" {
			root = where.Downloads()
		}

		title := describe(video, sel)
		dest := download.Destination(root, url, title)

		fmt.Printf("%s Downloading %s %s\n", icon.Get(icon.Download), style.Bold(title), qualityTag(q))
		handleErr(download.Download(ctx, url, dest, progressBar()))
		fmt.Println()

		handleErr(prefs.SetDownloadPath(dest))
		fmt.Printf("%s Saved to %s\n", icon.Get(icon.Success), style.Fg(color.Yellow)(dest))

		if lo.Must(cmd.Flags().GetBool("open")) {
			handleErr(open.Reveal(dest))
		}
	},
}

// progressBar renders download progress on a single, rewritten line.
func progressBar() download.ProgressFunc {
	width := util.TerminalWidth(80) - 20
	if width < 10 {
		width = 10
	}

	return func(written, total int64) {
		if total <= 0 {
			fmt.Printf("\r%s %.1f MiB", icon.Get(icon.Progress), float64(written)/(1<<20))
			return
		}

		filled := min(int(int64(width)*written/total), width)
		bar := style.Fg(color.Purple)(strings.Repeat("█", filled)) + style.Faint(strings.Repeat("░", width-filled))
		fmt.Printf("\r%s %s %3d%%", icon.Get(icon.Progress), bar, 100*written/total)
	}
}
