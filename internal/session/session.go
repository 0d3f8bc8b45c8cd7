// Package session keeps the per-page-load interaction state in memory. A reload
// starts a new session; nothing outlives the process.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/aquoric/aquoric-dev/internal/audio"
	"github.com/aquoric/aquoric-dev/internal/skill"
)

var ErrStaleSource = errors.New("report for a superseded source")

// Session serialises every mutation of one visitor's state behind a mutex, so
// the controller sees a single writer as it would on a UI thread.
type Session struct {
	ID  string
	DNT bool

	mu       sync.Mutex
	lastSeen time.Time
	player   *RemoteResource
	ctrl     *audio.Controller
	gate     *audio.Gate
	skills   *skill.Board
}

// SkillState is a read-only copy of one skill entry.
type SkillState struct {
	ID       int
	Title    string
	Detail   string
	Expanded bool
}

// Snapshot is a consistent copy of the session for rendering.
type Snapshot struct {
	ID      string
	Entered bool
	Audio   audio.State
	Player  Command
	Skills  []SkillState
}

// Enter dismisses the gate and starts audible playback. It reports false when
// the gate was already open.
func (s *Session) Enter() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gate.Enter()
}

func (s *Session) ToggleMute() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ctrl.ToggleMute()
}

func (s *Session) ToggleSkill(i int) (SkillState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.skills.Toggle(i)
	if err != nil {
		return SkillState{}, err
	}
	return SkillState{ID: i, Title: e.Title, Detail: e.Detail, Expanded: e.Expanded()}, nil
}

// ReportPlay delivers the outcome of play request seq.
func (s *Session) ReportPlay(seq uint64, cause error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.player.Resolve(seq, cause)
}

// ReportError delivers a load failure of the source at index. Reports for a
// source that has already been replaced are rejected.
func (s *Session) ReportError(index int, cause error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index != s.ctrl.State().Index {
		return ErrStaleSource
	}
	s.ctrl.OnResourceError(cause)
	return nil
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

func (s *Session) snapshot() Snapshot {
	snap := Snapshot{
		ID:      s.ID,
		Entered: s.gate.Entered(),
		Audio:   s.ctrl.State(),
		Player:  s.player.Command(),
		Skills:  make([]SkillState, 0, s.skills.Len()),
	}
	for i, e := range s.skills.Entries() {
		snap.Skills = append(snap.Skills, SkillState{ID: i, Title: e.Title, Detail: e.Detail, Expanded: e.Expanded()})
	}
	return snap
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}
