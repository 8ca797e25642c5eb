package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/reelcast/reelcast/catalog"
	"github.com/reelcast/reelcast/color"
	"github.com/reelcast/reelcast/history"
	"github.com/reelcast/reelcast/icon"
	"github.com/reelcast/reelcast/key"
	"github.com/reelcast/reelcast/log"
	"github.com/reelcast/reelcast/player"
	"github.com/reelcast/reelcast/playlist"
	"github.com/reelcast/reelcast/quality"
	"github.com/reelcast/reelcast/settings"
	"github.com/reelcast/reelcast/style"
	"github.com/reelcast/reelcast/util"
	"github.com/reelcast/reelcast/where"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// playOptions are explicit choices; empty fields fall back to the
// video's stored settings and then to the first entry of the playlist.
type playOptions struct {
	Season      string
	Episode     string
	Translation string
	Height      int
}

func init() {
	rootCmd.AddCommand(playCmd)

	playCmd.Flags().StringP("season", "s", "", "Season to play")
	playCmd.Flags().StringP("episode", "e", "", "Episode to play")
	playCmd.Flags().StringP("translation", "t", "", "Translation to play, matched fuzzily")
	playCmd.Flags().Int("height", 0, "Screen height capping the starting quality")
}

// playCmd streams a video through the adaptive quality session.
var playCmd = &cobra.Command{
	Use:     "play <video id>",
	Short:   "Stream a video, adapting quality to the network",
	Example: "  reelcast play 4821 -s \"Season 1\" -e 3 -t dub",
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id, err := parseVideoID(args[0])
		handleErr(err)

		handleErr(play(context.Background(), id, playOptions{
			Season:      lo.Must(cmd.Flags().GetString("season")),
			Episode:     lo.Must(cmd.Flags().GetString("episode")),
			Translation: lo.Must(cmd.Flags().GetString("translation")),
			Height:      lo.Must(cmd.Flags().GetInt("height")),
		}))
	},
}

func parseVideoID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid video id %q", arg)
	}
	return id, nil
}

func seconds(k string) time.Duration {
	return time.Duration(viper.GetInt(k)) * time.Second
}

// fetchVideo loads the catalog entry behind a progress line.
func fetchVideo(ctx context.Context, id int) (*catalog.Video, error) {
	erase := util.PrintErasable(fmt.Sprintf("%s Fetching video %d...", icon.Get(icon.Progress), id))
	video, err := catalog.New().Video(ctx, id)
	erase()
	return video, err
}

// resolve picks what to play. Names remembered from a previous session that
// no longer exist in the playlist are dropped in favour of the defaults.
func resolve(p playlist.Playlist, prefs settings.Video, opts playOptions) (playlist.Selection, error) {
	var (
		season      = lo.Ternary(opts.Season != "", opts.Season, prefs.Season().OrElse(""))
		episode     = lo.Ternary(opts.Episode != "", opts.Episode, prefs.Episode().OrElse(""))
		translation = lo.Ternary(opts.Translation != "", opts.Translation, prefs.Translation().OrElse(""))
	)

	sel, err := playlist.Select(p, season, episode, translation)
	if err == nil || (season == opts.Season && episode == opts.Episode) {
		return sel, err
	}

	log.Warnf("stored selection no longer matches: %v", err)
	return playlist.Select(p, opts.Season, opts.Episode, translation)
}

func remember(prefs settings.Video, sel playlist.Selection) {
	if sel.Trailer {
		return
	}

	var errs []error
	if sel.Season != "" {
		errs = append(errs, prefs.SetSeason(sel.Season), prefs.SetEpisode(sel.Episode))
	}
	errs = append(errs, prefs.SetTranslation(sel.Translation))

	if err := errors.Join(errs...); err != nil {
		log.Warn(err)
	}
}

func describe(video *catalog.Video, sel playlist.Selection) string {
	title := video.Title
	if sel.Season != "" {
		title = fmt.Sprintf("%s : %s / %s", title, sel.Season, sel.Episode)
	}
	if sel.Trailer {
		title += " (trailer)"
	}
	return fmt.Sprintf("%s [%s]", title, sel.Translation)
}

func qualityTag(q int) string {
	if q <= 0 {
		return style.Tag(color.White, color.Gray)("auto")
	}
	return style.Tag(color.White, color.Purple)(strconv.Itoa(q) + "p")
}

func play(parent context.Context, id int, opts playOptions) error {
	CheckDependencies()

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	video, err := fetchVideo(ctx, id)
	if err != nil {
		return err
	}

	store := settings.Open(where.Settings())
	prefs := settings.ForVideo(store, id)

	sel, err := resolve(video.Playlist, prefs, opts)
	if err != nil {
		return err
	}
	remember(prefs, sel)

	title := describe(video, sel)
	engine, err := player.New(title)
	if err != nil {
		return err
	}
	defer func() {
		if err := engine.Close(); err != nil {
			log.Warn(err)
		}
	}()

	height := opts.Height
	if height <= 0 {
		height = viper.GetInt(key.PlayerScreenHeight)
	}

	session := quality.NewSession(quality.Options{
		VideoID:      id,
		Link:         sel.Link,
		Store:        store,
		Engine:       engine,
		ScreenHeight: height,
		DownloadCap:  viper.GetInt(key.QualityDownloadCap),
		Dwell:        seconds(key.QualityDwell),
		MinInterval:  seconds(key.QualityMinInterval),
	})

	runCtx, cancel := context.WithCancel(ctx)
	ran := make(chan error, 1)
	go func() { ran <- session.Run(runCtx) }()

	session.Start()
	if state := session.State(); state.Err != nil {
		cancel()
		<-ran
		return state.Err
	}

	fmt.Printf("%s Playing %s\n", icon.Get(icon.Video), style.Bold(title))

	listener, err := engine.Listen(player.Bind(session))
	if err != nil {
		log.WithVideo(id).Warnf("playback events unavailable, quality stays fixed: %v", err)
	} else {
		defer listener.Stop()
	}

	watch(ctx, session, engine)

	final := session.State()
	cancel()
	if err := <-ran; err != nil && !errors.Is(err, context.Canceled) {
		log.WithVideo(id).Warn(err)
	}

	position := final.Position
	if final.Phase != quality.PhaseEnded {
		if pos, err := engine.Position(); err == nil {
			position = pos.Truncate(time.Second)
		}
		if err := prefs.SetPosition(position); err != nil {
			log.WithVideo(id).Warn(err)
		}
	}

	if !viper.GetBool(key.HistorySave) || sel.Trailer {
		return nil
	}

	return history.Save(history.Entry{
		VideoID:     id,
		Title:       video.Title,
		Season:      sel.Season,
		Episode:     sel.Episode,
		Translation: sel.Translation,
		Position:    position,
	})
}

// watch reports quality changes until the engine exits or ctx is done.
func watch(ctx context.Context, session *quality.Session, engine player.Player) {
	var (
		updates = session.Updates()
		shown   = -1
	)

	for {
		select {
		case <-ctx.Done():
			return
		case <-engine.Wait():
			return
		case state, ok := <-updates:
			if !ok {
				updates = nil
				continue
			}

			if state.Err != nil {
				fmt.Printf("%s %s\n", icon.Get(icon.Fail), state.Err)
			}

			if state.Quality != shown {
				shown = state.Quality
				fmt.Printf("%s Quality %s %s\n", icon.Get(icon.Progress), qualityTag(state.Quality), style.Faint(state.Phase.String()))
			}
		}
	}
}
