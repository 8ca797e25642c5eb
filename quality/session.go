package quality

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/reelcast/reelcast/log"
	"github.com/reelcast/reelcast/playlist"
	"github.com/reelcast/reelcast/settings"
	"github.com/samber/lo"
)

// Defaults used when Options leaves a timer unset.
const (
	DefaultDwell       = 5 * time.Minute
	DefaultMinInterval = 25 * time.Second
)

// Engine is the external media engine rendering the stream.
type Engine interface {
	// Load opens url and seeks to start.
	Load(url string, start time.Duration) error
}

// Phase is the lifecycle stage of a Session.
type Phase int

const (
	PhaseSelectingInitial Phase = iota
	PhasePlaying
	PhaseBuffering
	PhaseEnded
)

func (p Phase) String() string {
	switch p {
	case PhaseSelectingInitial:
		return "selecting-initial"
	case PhasePlaying:
		return "playing"
	case PhaseBuffering:
		return "buffering"
	case PhaseEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// Downgrade remembers how long a quality played before a stall forced the
// session below it.
type Downgrade struct {
	PlayedFor time.Duration
	At        time.Time
}

// State is a snapshot of a Session.
type State struct {
	Phase      Phase
	Quality    int
	URL        string
	Position   time.Duration
	Paused     bool
	LastChange time.Time
	LastSeek   time.Time
	Downgrades map[int]Downgrade
	// Err holds the last engine failure, cleared by the next successful load.
	Err error
}

// Options configures a Session. Link, Store and Engine are required.
type Options struct {
	VideoID      int
	Link         playlist.VideoLink
	Store        settings.Store
	Engine       Engine
	ScreenHeight int
	Download     bool
	// DownloadCap bounds downloads; DownloadCap is used when it is not positive.
	DownloadCap int

	Dwell       time.Duration
	MinInterval time.Duration

	// Now defaults to time.Now.
	Now func() time.Time
}

// Session drives one playback of one video. Signal methods are safe for
// concurrent use; Run must be running for the dwell timer and background
// position writes to take effect.
type Session struct {
	opts    Options
	ladder  Ladder
	ceiling int
	video   settings.Video

	mu         sync.Mutex
	state      State
	cleanSince time.Time
	lastQueued int64

	writeMu sync.Mutex
	ended   bool

	updates   chan State
	rearm     chan time.Duration
	positions chan time.Duration
	done      chan struct{}
}

// NewSession prepares a session; playback begins with Start.
func NewSession(opts Options) *Session {
	if opts.Dwell <= 0 {
		opts.Dwell = DefaultDwell
	}
	if opts.MinInterval <= 0 {
		opts.MinInterval = DefaultMinInterval
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Session{
		opts:       opts,
		ladder:     NewLadder(opts.Link.Qualities),
		ceiling:    Ceiling(opts.ScreenHeight, opts.Download, opts.DownloadCap),
		video:      settings.ForVideo(opts.Store, opts.VideoID),
		state:      State{Phase: PhaseSelectingInitial, Downgrades: make(map[int]Downgrade)},
		lastQueued: -1,
		updates:    make(chan State, 1),
		rearm:      make(chan time.Duration, 1),
		positions:  make(chan time.Duration, 1),
		done:       make(chan struct{}),
	}
}

// Updates delivers the latest state after every transition. Stale snapshots
// are replaced rather than queued. The channel is closed once the session ends.
func (s *Session) Updates() <-chan State {
	return s.updates
}

// State returns the current snapshot.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// Start selects the initial quality, resumes the persisted position and opens
// the stream.
func (s *Session) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Phase != PhaseSelectingInitial {
		return
	}

	now := s.opts.Now()

	s.state.Quality = Initial(s.ladder, s.video.Quality(), s.ceiling)
	s.state.URL = s.opts.Link.URL(s.state.Quality)
	s.state.Position = s.video.Position().OrElse(0)
	s.state.LastChange = now
	s.cleanSince = now

	s.load()
	s.state.Phase = PhasePlaying
	s.arm(s.opts.Dwell)
	s.publish()
}

// Buffering reports a stall. If neither a quality change nor a seek happened
// within the minimum interval, the session steps down one tier.
func (s *Session) Buffering() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active() {
		return
	}

	now := s.opts.Now()
	s.state.Phase = PhaseBuffering
	s.cleanSince = now

	debounced := now.Sub(s.state.LastChange) > s.opts.MinInterval &&
		now.Sub(s.state.LastSeek) > s.opts.MinInterval

	if lower, ok := s.ladder.Lower(s.state.Quality).Get(); ok && debounced {
		s.state.Downgrades[s.state.Quality] = Downgrade{
			PlayedFor: now.Sub(s.state.LastChange),
			At:        now,
		}
		log.WithVideo(s.opts.VideoID).Infof("quality: downgrade %d -> %d", s.state.Quality, lower)
		s.switchTo(lower, now)
	}

	s.publish()
}

// Resumed reports that playback continues after a stall.
func (s *Session) Resumed() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Phase != PhaseBuffering {
		return
	}

	s.state.Phase = PhasePlaying
	s.cleanSince = s.opts.Now()
	s.arm(s.opts.Dwell)
	s.publish()
}

// Seek records an explicit seek to pos.
func (s *Session) Seek(pos time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active() {
		return
	}

	s.state.LastSeek = s.opts.Now()
	s.state.Position = pos
	s.queuePosition(pos, true)
	s.publish()
}

// Progress records the current playback position.
func (s *Session) Progress(pos time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active() {
		return
	}

	s.state.Position = pos
	s.queuePosition(pos, false)
	s.publish()
}

// SetPaused records a play/pause toggle.
func (s *Session) SetPaused(paused bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active() || s.state.Paused == paused {
		return
	}

	s.state.Paused = paused
	s.queuePosition(s.state.Position, true)
	s.publish()
}

// End finishes the session. The resume position is reset so the next
// playback of the video starts from the beginning.
func (s *Session) End() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Phase == PhaseEnded {
		return
	}

	s.writeMu.Lock()
	s.ended = true
	select {
	case <-s.positions:
	default:
	}
	if err := s.video.SetPosition(0); err != nil {
		log.WithVideo(s.opts.VideoID).Warnf("quality: reset position: %v", err)
	}
	s.writeMu.Unlock()

	s.state.Phase = PhaseEnded
	s.state.Position = 0
	s.publish()
	close(s.updates)
	close(s.done)
}

// ConsiderUpgrade steps up one tier when playback has been clean for the
// dwell time. It returns the delay before the next check, or 0 when no check
// is needed until the session state changes.
func (s *Session) ConsiderUpgrade() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Phase != PhasePlaying {
		return 0
	}

	now := s.opts.Now()
	if clean := now.Sub(s.cleanSince); clean < s.opts.Dwell {
		return s.opts.Dwell - clean
	}
	if s.state.Paused {
		return s.opts.Dwell
	}

	// The screen is already covered by the current tier.
	if s.state.Quality >= s.ceiling {
		return 0
	}

	higher, ok := s.ladder.Higher(s.state.Quality).Get()
	if !ok {
		return 0
	}

	if d, ok := s.state.Downgrades[higher]; ok {
		if since := now.Sub(d.At); since <= s.opts.MinInterval {
			return s.opts.MinInterval - since + time.Second
		}
	}

	log.WithVideo(s.opts.VideoID).Infof("quality: upgrade %d -> %d", s.state.Quality, higher)
	s.switchTo(higher, now)
	s.publish()
	return s.opts.Dwell
}

// Run owns the dwell timer and the background position writer until ctx is
// cancelled or the session ends.
func (s *Session) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	defer wg.Wait()
	defer cancel()

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.writePositions(ctx)
	}()

	timer := time.NewTimer(s.opts.Dwell)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.done:
			return nil
		case d := <-s.rearm:
			timer.Reset(d)
		case <-timer.C:
			if next := s.ConsiderUpgrade(); next > 0 {
				timer.Reset(next)
			}
		}
	}
}

func (s *Session) writePositions(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case pos := <-s.positions:
			s.writePosition(pos)
		}
	}
}

func (s *Session) writePosition(pos time.Duration) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if s.ended {
		return
	}
	if err := s.video.SetPosition(pos); err != nil {
		log.WithVideo(s.opts.VideoID).Warnf("quality: persist position: %v", err)
	}
}

// queuePosition hands pos to the background writer, replacing any write still
// pending. Periodic progress is only queued when the whole second changes.
func (s *Session) queuePosition(pos time.Duration, force bool) {
	secs := int64(pos / time.Second)
	if !force && secs == s.lastQueued {
		return
	}
	s.lastQueued = secs

	select {
	case <-s.positions:
	default:
	}
	select {
	case s.positions <- pos:
	default:
	}
}

// switchTo persists q and the current position before asking the engine to
// reload, so an interrupted reload still resumes at the intended quality.
func (s *Session) switchTo(q int, now time.Time) {
	if err := s.video.SetQuality(q); err != nil {
		log.WithVideo(s.opts.VideoID).Warnf("quality: persist quality: %v", err)
	}
	s.writePosition(s.state.Position)

	s.state.Quality = q
	s.state.URL = s.opts.Link.URL(q)
	s.state.LastChange = now
	s.cleanSince = now

	s.load()
	s.arm(s.opts.Dwell)
}

func (s *Session) load() {
	if s.opts.Engine == nil {
		s.state.Err = errors.New("no media engine")
		return
	}

	start := s.state.Position.Truncate(time.Second)
	if err := s.opts.Engine.Load(s.state.URL, start); err != nil {
		log.WithVideo(s.opts.VideoID).Errorf("quality: load %q: %v", s.state.URL, err)
		s.state.Err = err
		return
	}
	s.state.Err = nil
}

func (s *Session) active() bool {
	return s.state.Phase == PhasePlaying || s.state.Phase == PhaseBuffering
}

func (s *Session) arm(d time.Duration) {
	select {
	case <-s.rearm:
	default:
	}
	select {
	case s.rearm <- d:
	default:
	}
}

func (s *Session) publish() {
	select {
	case <-s.updates:
	default:
	}
	select {
	case s.updates <- s.snapshot():
	default:
	}
}

func (s *Session) snapshot() State {
	snap := s.state
	snap.Downgrades = lo.Assign(s.state.Downgrades)
	return snap
}
