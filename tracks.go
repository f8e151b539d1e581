package playercore

// OmpAudioTrack describes one audio track, embedded in the main media
// element or sourced independently as a sidecar (spec §3).
type OmpAudioTrack struct {
	ID           string
	Label        string
	Language     string // optional, empty if unset
	Src          string // optional, empty for embedded tracks
	Embedded     bool   // true for main tracks, false for sidecars
	Active       bool
	ChannelCount int // optional, 0 if unknown
}

// SubtitlesVttTrack describes one registered VTT subtitle track (spec
// §3, §4.8). At most one track is ever in the registry's active slot.
type SubtitlesVttTrack struct {
	ID       string
	Label    string
	Language string
	URL      string
	Default  bool
	Hidden   bool
}
