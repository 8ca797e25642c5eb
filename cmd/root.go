// Package cmd implements the command-line interface for reelcast.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	cc "github.com/ivanpirog/coloredcobra"
	"github.com/reelcast/reelcast/color"
	"github.com/reelcast/reelcast/constant"
	"github.com/reelcast/reelcast/history"
	"github.com/reelcast/reelcast/icon"
	"github.com/reelcast/reelcast/key"
	"github.com/reelcast/reelcast/log"
	"github.com/reelcast/reelcast/style"
	"github.com/reelcast/reelcast/util"
	"github.com/reelcast/reelcast/version"
	"github.com/reelcast/reelcast/where"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print the application version")

	rootCmd.PersistentFlags().StringP("icons", "I", "", "Set the visual icon variant (e.g., nerd, emoji, squares)")
	lo.Must0(rootCmd.RegisterFlagCompletionFunc("icons", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return icon.AvailableVariants(), cobra.ShellCompDirectiveDefault
	}))
	lo.Must0(viper.BindPFlag(key.IconsVariant, rootCmd.PersistentFlags().Lookup("icons")))

	rootCmd.PersistentFlags().BoolP("write-history", "H", true, "Persist playback progress to the watch history")
	lo.Must0(viper.BindPFlag(key.HistorySave, rootCmd.PersistentFlags().Lookup("write-history")))

	rootCmd.PersistentFlags().Bool("offline", false, "Serve catalog responses from the cache only")
	lo.Must0(viper.BindPFlag(key.NetworkOffline, rootCmd.PersistentFlags().Lookup("offline")))

	rootCmd.Flags().BoolP("continue", "c", false, "Resume playback from the most recent history entry")

	helpFunc := rootCmd.HelpFunc()
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		helpFunc(cmd, args)
		version.Notify()
	})

	go func() {
		_ = util.Delete(where.Temp())
	}()
}

// rootCmd is the entry point; with --continue it resumes the latest history entry.
var rootCmd = &cobra.Command{
	Use:   constant.Reelcast,
	Short: "Stream catalog videos with adaptive quality",
	Long: style.New().Bold(true).Foreground(color.Purple).Render(constant.Reelcast) + "\n" +
		style.New().Italic(true).Foreground(color.Red).Render("    - Stream catalog videos in mpv, stepping quality up and down as the network allows"),
	Run: func(cmd *cobra.Command, args []string) {
		if cmd.Flags().Changed("version") {
			versionCmd.Run(versionCmd, args)
			return
		}

		if !lo.Must(cmd.Flags().GetBool("continue")) {
			handleErr(cmd.Help())
			return
		}

		entries, err := history.List()
		handleErr(err)
		if len(entries) == 0 {
			handleErr(errors.New("history is empty"))
		}

		last := entries[0]
		fmt.Printf("%s Continuing %s\n", icon.Get(icon.Video), style.Bold(last.String()))
		handleErr(play(context.Background(), last.VideoID, playOptions{
			Season:      last.Season,
			Episode:     last.Episode,
			Translation: last.Translation,
		}))
	},
}

// Execute runs the root command.
func Execute() {
	if viper.GetBool(key.CliColored) {
		cc.Init(&cc.Config{
			RootCmd:       rootCmd,
			Headings:      cc.HiCyan + cc.Bold + cc.Underline,
			Commands:      cc.HiYellow + cc.Bold,
			Example:       cc.Italic,
			ExecName:      cc.Bold,
			Flags:         cc.Bold,
			FlagsDataType: cc.Italic + cc.HiBlue,
		})
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func handleErr(err error) {
	if err != nil {
		log.Error(err)
		_, _ = fmt.Fprintf(os.Stderr, "%s %s\n", icon.Get(icon.Fail), strings.Trim(err.Error(), " \n"))
		os.Exit(1)
	}
}
