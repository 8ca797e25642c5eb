package history

import (
	"fmt"
	"strconv"
	"time"
)

// Entry is the last thing watched from one video.
type Entry struct {
	VideoID     int           `json:"video_id"`
	Title       string        `json:"title"`
	Season      string        `json:"season,omitempty"`
	Episode     string        `json:"episode,omitempty"`
	Translation string        `json:"translation"`
	Position    time.Duration `json:"position"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

func (e *Entry) encode() string {
	return strconv.Itoa(e.VideoID)
}

// String renders the entry as "Title : Season / Episode [Translation] at position".
func (e *Entry) String() string {
	if e.Season == "" && e.Episode == "" {
		return fmt.Sprintf("%s [%s] at %s", e.Title, e.Translation, e.Position.Truncate(time.Second))
	}
	return fmt.Sprintf("%s : %s / %s [%s] at %s", e.Title, e.Season, e.Episode, e.Translation, e.Position.Truncate(time.Second))
}
