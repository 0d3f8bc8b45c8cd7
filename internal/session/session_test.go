package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/aquoric/aquoric-dev/internal/audio"
	"github.com/aquoric/aquoric-dev/internal/skill"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestStore(events *[]audio.Event) *Store {
	return NewStore(Config{
		Sources: []string{"A", "B"},
		Skills:  []skill.Def{{Title: "Go", Detail: "gin"}, {Title: "C++", Detail: "systems"}},
		IdleTTL: time.Minute,
		Recorder: func(string) audio.Recorder {
			return audio.RecorderFunc(func(ev audio.Event) { *events = append(*events, ev) })
		},
	}, nil)
}

func TestCreatePreloadsSilently(t *testing.T) {
	var events []audio.Event
	s := newTestStore(&events).Create(false)

	snap := s.Snapshot()
	assert.False(t, snap.Entered)
	assert.Equal(t, "A", snap.Player.Src)
	assert.True(t, snap.Player.Muted)
	assert.Equal(t, uint64(1), snap.Player.Play)
	assert.True(t, snap.Audio.Muted)
	assert.Len(t, snap.Skills, 2)
}

func TestEnterAndFallback(t *testing.T) {
	var events []audio.Event
	s := newTestStore(&events).Create(false)

	require.NoError(t, s.ReportPlay(1, errors.New("NotAllowedError")))
	require.True(t, s.Enter())
	assert.False(t, s.Enter())

	snap := s.Snapshot()
	require.True(t, snap.Entered)
	assert.False(t, snap.Player.Muted)
	require.Equal(t, uint64(2), snap.Player.Play)

	require.NoError(t, s.ReportError(0, errors.New("MEDIA_ERR_NETWORK")))
	assert.ErrorIs(t, s.ReportError(0, errors.New("again")), ErrStaleSource)

	snap = s.Snapshot()
	assert.Equal(t, 1, snap.Audio.Index)
	assert.Equal(t, "B", snap.Player.Src)
	assert.Equal(t, uint64(3), snap.Player.Play, "B is played audibly")
	assert.False(t, snap.Player.Muted)

	require.NoError(t, s.ReportPlay(2, errors.New("late")))
	assert.Equal(t, 1, s.Snapshot().Audio.Index, "late outcome for A is ignored")

	require.NoError(t, s.ReportPlay(3, nil))
	snap = s.Snapshot()
	assert.Empty(t, snap.Audio.LastError)
	assert.False(t, snap.Audio.Muted)
	assert.Zero(t, snap.Player.Play)

	require.Len(t, events, 1)
	assert.Equal(t, audio.KindResourceLoad, events[0].Kind)
}

func TestReportPlayUnknown(t *testing.T) {
	var events []audio.Event
	s := newTestStore(&events).Create(false)
	require.NoError(t, s.ReportPlay(1, nil))
	assert.ErrorIs(t, s.ReportPlay(1, nil), ErrUnknownPlay)
	assert.ErrorIs(t, s.ReportPlay(99, nil), ErrUnknownPlay)
}

func TestToggleSkill(t *testing.T) {
	var events []audio.Event
	s := newTestStore(&events).Create(false)

	st, err := s.ToggleSkill(1)
	require.NoError(t, err)
	assert.True(t, st.Expanded)
	assert.Equal(t, "C++", st.Title)
	assert.False(t, s.Snapshot().Skills[0].Expanded)

	_, err = s.ToggleSkill(5)
	assert.ErrorIs(t, err, skill.ErrNoSuchSkill)
}

func TestDoNotTrackSkipsRecorder(t *testing.T) {
	var events []audio.Event
	s := newTestStore(&events).Create(true)
	s.Enter()
	require.NoError(t, s.ReportError(0, errors.New("network")))
	require.NoError(t, s.ReportError(1, errors.New("network")))

	assert.True(t, s.Snapshot().Audio.Exhausted)
	assert.Empty(t, events)
}

func TestGetAndSweep(t *testing.T) {
	var events []audio.Event
	st := newTestStore(&events)
	now := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	st.now = func() time.Time { return now }

	old := st.Create(false)
	now = now.Add(45 * time.Second)
	fresh := st.Create(false)

	_, err := st.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)

	now = now.Add(30 * time.Second)
	assert.Equal(t, 1, st.Sweep())

	_, err = st.Get(old.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	got, err := st.Get(fresh.ID)
	require.NoError(t, err)
	assert.Same(t, fresh, got)
}

func TestCreateEvictsLeastRecentlySeen(t *testing.T) {
	st := NewStore(Config{Sources: []string{"A"}, MaxSessions: 2}, nil)
	now := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	st.now = func() time.Time { return now }

	first := st.Create(false)
	now = now.Add(time.Second)
	second := st.Create(false)
	now = now.Add(time.Second)
	_, err := st.Get(first.ID)
	require.NoError(t, err, "touching first makes second the oldest")

	now = now.Add(time.Second)
	third := st.Create(false)
	assert.Equal(t, 2, st.Len())

	_, err = st.Get(second.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	for _, s := range []*Session{first, third} {
		_, err := st.Get(s.ID)
		assert.NoError(t, err)
	}
}

func TestStoreNeverExceedsCapacity(t *testing.T) {
	st := NewStore(Config{Sources: []string{"A"}, MaxSessions: 3}, nil)
	for range 50 {
		st.Create(false)
	}
	assert.Equal(t, 3, st.Len())
}

func TestRunStopsWithContext(t *testing.T) {
	var events []audio.Event
	st := newTestStore(&events)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- st.Run(ctx, time.Millisecond) }()

	time.Sleep(5 * time.Millisecond)
	cancel()
	assert.NoError(t, <-done)
}

func TestRemoteResourceBoundsPending(t *testing.T) {
	r := NewRemoteResource()
	for range 100 {
		r.Play(func(error) {})
	}
	assert.LessOrEqual(t, len(r.pending), maxPending)
	assert.Equal(t, uint64(100), r.Command().Play)
	assert.ErrorIs(t, r.Resolve(1, nil), ErrUnknownPlay)
	assert.NoError(t, r.Resolve(100, nil))
	assert.Zero(t, r.Command().Play)
}
