package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/reelcast/reelcast/catalog"
	"github.com/reelcast/reelcast/color"
	"github.com/reelcast/reelcast/icon"
	"github.com/reelcast/reelcast/playlist"
	"github.com/reelcast/reelcast/style"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(playlistCmd)
	playlistCmd.Flags().BoolP("json", "j", false, "Print the normalized playlist as JSON")
	playlistCmd.SetOut(os.Stdout)

	playlistCmd.AddCommand(playlistSchemaCmd)
	playlistSchemaCmd.SetOut(os.Stdout)
}

// playlistCmd prints the normalized playlist of a video.
var playlistCmd = &cobra.Command{
	Use:   "playlist <video id>",
	Short: "Show the seasons, episodes and translations of a video",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id, err := parseVideoID(args[0])
		handleErr(err)

		video, err := fetchVideo(context.Background(), id)
		handleErr(err)

		if lo.Must(cmd.Flags().GetBool("json")) {
			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			handleErr(encoder.Encode(playlist.Wrap(video.Playlist)))
			return
		}

		printPlaylist(cmd, video)
	},
}

// playlistSchemaCmd prints the JSON schema of the playlist envelope.
var playlistSchemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON schema of `playlist --json` output",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		handleErr(encoder.Encode(playlist.Schema()))
	},
}

func ladderTags(link playlist.VideoLink) string {
	if !link.Switchable() {
		return qualityTag(0)
	}
	return strings.Join(lo.Map(link.Qualities, func(q int, _ int) string { return qualityTag(q) }), " ")
}

func printTranslations(cmd *cobra.Command, indent string, translations []playlist.Translation) {
	for _, t := range translations {
		cmd.Printf("%s%s %s\n", indent, style.Fg(color.Yellow)(t.Name), ladderTags(t.Link))
	}
}

func printPlaylist(cmd *cobra.Command, video *catalog.Video) {
	header := video.Title
	if video.Year > 0 {
		header += " (" + strconv.Itoa(video.Year) + ")"
	}
	cmd.Printf("%s %s\n\n", icon.Get(icon.Video), style.Title(header))

	switch p := video.Playlist.(type) {
	case *playlist.Movie:
		printTranslations(cmd, "  ", p.Translations)
	case *playlist.Series:
		for _, season := range p.Seasons {
			cmd.Println(style.Bold(season.Name))
			for _, ep := range season.Episodes {
				cmd.Printf("  %s %s\n", style.Fg(color.Purple)("Episode"), ep.Name)
				printTranslations(cmd, "    ", ep.Translations)
			}
		}
	}

	if trailers := video.Playlist.Trailers(); len(trailers) > 0 {
		cmd.Println()
		cmd.Println(style.Faint("Trailers:"))
		printTranslations(cmd, "  ", trailers)
	}

	if relates := video.Document.Relates; len(relates) > 0 {
		cmd.Println()
		cmd.Println(style.Faint("Related:"))
		for _, rel := range relates {
			cmd.Printf("  %s %s\n", style.Fg(color.Cyan)(fmt.Sprintf("#%d", rel.ID)), rel.Title)
		}
	}
}
