package audio

// Kind classifies an audio failure.
type Kind string

const (
	KindGesturePlayback Kind = "gesture_playback"
	KindSwitchPlayback  Kind = "switch_playback"
	KindResourceLoad    Kind = "resource_load"
	KindUnmutePlayback  Kind = "unmute_playback"
	KindExhausted       Kind = "exhausted"
)

// Message is the text shown to the listener for a failure of this kind.
func (k Kind) Message() string {
	switch k {
	case KindGesturePlayback:
		return "Failed to play audio. Trying fallback source..."
	case KindSwitchPlayback:
		return "Could not play the new audio source. Check URL."
	case KindResourceLoad:
		return "Audio file could not be loaded. Trying fallback source..."
	case KindUnmutePlayback:
		return "Failed to play audio. Please try again."
	case KindExhausted:
		return "All audio sources failed. Please check network or source URLs."
	}
	return ""
}

// Advances reports whether a failure of this kind moves on to the next source.
func (k Kind) Advances() bool {
	switch k {
	case KindGesturePlayback, KindSwitchPlayback, KindResourceLoad:
		return true
	}
	return false
}

// Event is the diagnostic record of one failure.
type Event struct {
	Kind    Kind
	Index   int
	Source  string
	Message string
	Cause   string
}

// Recorder receives failure events on the side channel.
type Recorder interface {
	Record(ev Event)
}

type RecorderFunc func(ev Event)

func (f RecorderFunc) Record(ev Event) { f(ev) }

type NopRecorder struct{}

func (NopRecorder) Record(Event) {}
