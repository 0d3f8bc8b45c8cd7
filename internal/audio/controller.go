// Package audio drives the single background audio resource of the page: silent
// preload, the entry gate, manual mute and ordered fallback across sources.
package audio

import (
	"go.uber.org/zap"
)

// Resource is the underlying playback element. Play reports its outcome through
// done, which may run synchronously or at any later time.
type Resource interface {
	Load(src string)
	SetMuted(muted bool)
	Muted() bool
	Play(done func(err error))
}

// State is a snapshot of the controller.
type State struct {
	Index     int
	Source    string
	Muted     bool
	Entered   bool
	Exhausted bool
	LastError string
}

// Controller owns one Resource. It is not safe for concurrent use; callers
// serialise access the way a single UI thread would.
type Controller struct {
	res      Resource
	sources  []string
	recorder Recorder
	log      *zap.Logger

	index     int
	muted     bool
	entered   bool
	audible   bool // listener wants sound
	exhausted bool
	lastErr   Kind
}

type Option func(*Controller)

func WithRecorder(r Recorder) Option {
	return func(c *Controller) { c.recorder = r }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) { c.log = l }
}

// NewController binds res to sources and starts the silent preload of the first
// source. An empty source list leaves the controller exhausted.
func NewController(res Resource, sources []string, opts ...Option) *Controller {
	c := &Controller{
		res:      res,
		sources:  append([]string(nil), sources...),
		recorder: NopRecorder{},
		log:      zap.NewNop(),
		muted:    true,
	}
	for _, opt := range opts {
		opt(c)
	}
	if len(c.sources) == 0 {
		c.exhaust()
		return c
	}
	c.preload()
	return c
}

// State returns the current playback state.
func (c *Controller) State() State {
	s := State{
		Index:     c.index,
		Muted:     c.muted,
		Entered:   c.entered,
		Exhausted: c.exhausted,
	}
	if c.index < len(c.sources) {
		s.Source = c.sources[c.index]
	}
	s.LastError = c.lastErr.Message()
	return s
}

// Sources returns the candidate list in fallback order.
func (c *Controller) Sources() []string {
	return append([]string(nil), c.sources...)
}

// preload assigns the active source muted and asks for silent playback. A
// rejected silent play is expected under autoplay policies and is dropped. When
// the listener already asked for sound the new source is played audibly.
func (c *Controller) preload() {
	index := c.index
	c.res.Load(c.sources[index])
	c.res.SetMuted(true)
	if !c.entered || !c.audible {
		c.res.Play(func(err error) {
			if err != nil {
				c.log.Debug("silent preload rejected", zap.Int("index", index), zap.Error(err))
			}
		})
		return
	}
	c.res.SetMuted(false)
	c.muted = false
	c.res.Play(func(err error) {
		if c.stale(index) {
			return
		}
		if err != nil {
			c.fail(KindSwitchPlayback, err)
			c.AdvanceSource()
			return
		}
		c.played()
	})
}

// Enter unmutes the resource and requests audible playback. Only the first call
// has any effect; it reports whether this call was that one.
func (c *Controller) Enter() bool {
	if c.entered {
		return false
	}
	c.entered = true
	c.audible = true
	if c.exhausted {
		return true
	}
	index := c.index
	c.res.SetMuted(false)
	c.muted = false
	c.res.Play(func(err error) {
		if c.stale(index) {
			return
		}
		if err != nil {
			c.fail(KindGesturePlayback, err)
			c.AdvanceSource()
			return
		}
		c.played()
	})
	return true
}

// ToggleMute flips the mute flag. Unmuting requests playback; a rejection is
// recorded but does not advance the source. Before Enter only the recorded
// preference flips and the resource stays silent.
func (c *Controller) ToggleMute() {
	if !c.entered {
		c.muted = !c.muted
		return
	}
	muted := !c.res.Muted()
	c.res.SetMuted(muted)
	c.muted = muted
	c.audible = !muted
	if muted || c.exhausted {
		return
	}
	index := c.index
	c.res.Play(func(err error) {
		if c.stale(index) {
			return
		}
		if err != nil {
			c.fail(KindUnmutePlayback, err)
			return
		}
		c.lastErr = ""
	})
}

// AdvanceSource moves to the next candidate and preloads it, or enters the
// terminal exhausted state when none is left. The index never decreases.
func (c *Controller) AdvanceSource() {
	if c.exhausted {
		c.lastErr = KindExhausted
		return
	}
	next := c.index + 1
	if next >= len(c.sources) {
		c.exhaust()
		return
	}
	c.index = next
	c.log.Info("switching audio source", zap.Int("index", next), zap.String("src", c.sources[next]))
	c.preload()
}

// OnResourceError is the resource's load failure callback for the active source.
func (c *Controller) OnResourceError(cause error) {
	if c.exhausted {
		return
	}
	c.fail(KindResourceLoad, cause)
	c.AdvanceSource()
}

// played settles a successful audible play. The listener may have muted while
// it was pending, so the flag follows the resource.
func (c *Controller) played() {
	c.lastErr = ""
	c.muted = c.res.Muted()
}

func (c *Controller) stale(index int) bool {
	return c.exhausted || index != c.index
}

func (c *Controller) exhaust() {
	c.exhausted = true
	c.fail(KindExhausted, nil)
}

func (c *Controller) fail(kind Kind, cause error) {
	c.lastErr = kind
	ev := Event{
		Kind:    kind,
		Index:   c.index,
		Message: kind.Message(),
	}
	if c.index < len(c.sources) {
		ev.Source = c.sources[c.index]
	}
	if cause != nil {
		ev.Cause = cause.Error()
	}
	c.log.Warn("audio failure",
		zap.String("kind", string(kind)),
		zap.Int("index", ev.Index),
		zap.String("src", ev.Source),
		zap.String("cause", ev.Cause))
	c.recorder.Record(ev)
}
