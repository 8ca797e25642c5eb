package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/reelcast/reelcast/color"
	"github.com/reelcast/reelcast/history"
	"github.com/reelcast/reelcast/icon"
	"github.com/reelcast/reelcast/style"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().BoolP("json", "j", false, "Print history as JSON")
	historyCmd.Flags().IntP("remove", "r", 0, "Forget the entry of the given video id")
	historyCmd.SetOut(os.Stdout)
}

// historyCmd lists and prunes the watch history.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recently watched videos",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if id := lo.Must(cmd.Flags().GetInt("remove")); id != 0 {
			handleErr(history.Remove(id))
			fmt.Printf("%s removed video %s from history\n", icon.Get(icon.Success), style.Fg(color.Purple)(fmt.Sprint(id)))
			return
		}

		entries, err := history.List()
		handleErr(err)

		if lo.Must(cmd.Flags().GetBool("json")) {
			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			handleErr(encoder.Encode(entries))
			return
		}

		if len(entries) == 0 {
			cmd.Println(style.Faint("No history yet"))
			return
		}

		for _, entry := range entries {
			cmd.Printf(
				"%s %s %s\n",
				style.Fg(color.Cyan)(fmt.Sprintf("#%-6d", entry.VideoID)),
				entry.String(),
				style.Faint(entry.UpdatedAt.Local().Format(time.DateTime)),
			)
		}
	},
}
