package player

import "time"

// Signals receives playback events. *quality.Session implements it.
type Signals interface {
	Buffering()
	Resumed()
	Seek(pos time.Duration)
	Progress(pos time.Duration)
	SetPaused(paused bool)
	End()
}

// seekPhase tracks an mpv seek from its start to the first position after it.
type seekPhase int

const (
	seekIdle seekPhase = iota
	seekRunning
	seekSettled
)

// Bind translates mpv events into session signals. The returned callback is
// meant for a single EventListener.
//
// A seek is reported with the first time-pos that follows seeking=false, so the
// stored position is the seek target rather than the position it started from.
// A stall during a seek reports the seek early to keep the stall debounced.
func Bind(s Signals) EventCallback {
	var (
		last     time.Duration
		phase    seekPhase
		reported bool
	)

	return func(name string, data interface{}) {
		switch name {
		case "paused-for-cache":
			stalled, ok := data.(bool)
			if !ok {
				return
			}
			if stalled {
				if phase != seekIdle && !reported {
					reported = true
					s.Seek(last)
				}
				s.Buffering()
			} else {
				s.Resumed()
			}
		case "seeking":
			seeking, ok := data.(bool)
			switch {
			case !ok:
			case seeking:
				phase, reported = seekRunning, false
			case phase == seekRunning:
				phase = seekSettled
			}
		case "time-pos":
			secs, ok := data.(float64)
			if !ok || secs < 0 {
				return
			}
			switch phase {
			case seekRunning:
				// Positions reported mid-seek are not settled yet.
			case seekSettled:
				phase = seekIdle
				last = time.Duration(secs * float64(time.Second))
				s.Seek(last)
			default:
				last = time.Duration(secs * float64(time.Second))
				s.Progress(last)
			}
		case "pause":
			if paused, ok := data.(bool); ok {
				s.SetPaused(paused)
			}
		case "eof-reached":
			if eof, _ := data.(bool); eof {
				s.End()
			}
		case "end-file":
			// Replacing the stream on a quality change also ends a file, with reason "stop".
			if event, ok := data.(map[string]interface{}); ok && event["reason"] == "eof" {
				s.End()
			}
		}
	}
}
