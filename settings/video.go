package settings

import (
	"time"

	"github.com/samber/mo"
)

// Video is a typed view over the namespace of one video.
type Video struct {
	store     Store
	namespace string
}

// ForVideo binds store to the namespace of videoID.
func ForVideo(store Store, videoID int) Video {
	return Video{store: store, namespace: Namespace(videoID)}
}

// Quality returns the last quality the video was played at.
func (v Video) Quality() mo.Option[int] {
	return v.store.GetInt(v.namespace, KeyQuality)
}

// SetQuality stores the quality the next playback starts from.
func (v Video) SetQuality(quality int) error {
	return v.store.PutInt(v.namespace, KeyQuality, quality)
}

// Position returns the stored resume position. Positions are kept in whole seconds.
func (v Video) Position() mo.Option[time.Duration] {
	secs, ok := v.store.GetLong(v.namespace, KeyPosition).Get()
	if !ok {
		return mo.None[time.Duration]()
	}
	return mo.Some(time.Duration(secs) * time.Second)
}

// SetPosition stores pos truncated to whole seconds.
func (v Video) SetPosition(pos time.Duration) error {
	return v.store.PutLong(v.namespace, KeyPosition, int64(pos/time.Second))
}

// Season returns the last season chosen for the video.
func (v Video) Season() mo.Option[string] {
	return v.store.GetString(v.namespace, KeySeason)
}

// SetSeason remembers the chosen season.
func (v Video) SetSeason(name string) error {
	return v.store.PutString(v.namespace, KeySeason, name)
}

// Episode returns the last episode chosen within the stored season.
func (v Video) Episode() mo.Option[string] {
	return v.store.GetString(v.namespace, KeyEpisode)
}

// SetEpisode remembers the chosen episode.
func (v Video) SetEpisode(name string) error {
	return v.store.PutString(v.namespace, KeyEpisode, name)
}

// Translation returns the last translation chosen for the video.
func (v Video) Translation() mo.Option[string] {
	return v.store.GetString(v.namespace, KeyTranslation)
}

// SetTranslation remembers the chosen translation.
func (v Video) SetTranslation(name string) error {
	return v.store.PutString(v.namespace, KeyTranslation, name)
}

// DownloadPath returns where the video was last downloaded to.
func (v Video) DownloadPath() mo.Option[string] {
	return v.store.GetString(v.namespace, KeyDownloadPath)
}

// SetDownloadPath records the file a download was saved as.
func (v Video) SetDownloadPath(path string) error {
	return v.store.PutString(v.namespace, KeyDownloadPath, path)
}
