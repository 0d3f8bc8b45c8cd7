package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aquoric/aquoric-dev/internal/audio"
	"github.com/aquoric/aquoric-dev/internal/skill"
)

var ErrNotFound = errors.New("session not found")

// Config describes what every new session starts with.
type Config struct {
	Sources  []string
	Skills   []skill.Def
	IdleTTL  time.Duration
	// MaxSessions caps the live sessions; the least recently seen one is
	// evicted to make room.
	MaxSessions int
	Recorder    func(sessionID string) audio.Recorder
}

// Store holds live sessions in memory.
type Store struct {
	cfg Config
	log *zap.Logger
	now func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewStore(cfg Config, log *zap.Logger) *Store {
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 30 * time.Minute
	}
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = 10000
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		cfg:      cfg,
		log:      log,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Create starts a session: the controller preloads its first source silently.
func (st *Store) Create(dnt bool) *Session {
	id := uuid.NewString()
	var rec audio.Recorder = audio.NopRecorder{}
	if st.cfg.Recorder != nil && !dnt {
		rec = st.cfg.Recorder(id)
	}
	player := NewRemoteResource()
	ctrl := audio.NewController(player, st.cfg.Sources,
		audio.WithRecorder(rec),
		audio.WithLogger(st.log.With(zap.String("session", id[:8]))))
	s := &Session{
		ID:       id,
		DNT:      dnt,
		lastSeen: st.now(),
		player:   player,
		ctrl:     ctrl,
		gate:     audio.NewGate(ctrl),
		skills:   skill.NewBoard(st.cfg.Skills),
	}

	st.mu.Lock()
	for len(st.sessions) >= st.cfg.MaxSessions {
		st.evictOldest()
	}
	st.sessions[id] = s
	st.mu.Unlock()
	return s
}

// evictOldest drops the least recently seen session. st.mu must be held.
func (st *Store) evictOldest() {
	var (
		oldestID string
		oldest   time.Time
	)
	for id, s := range st.sessions {
		if seen := s.idleSince(); oldestID == "" || seen.Before(oldest) {
			oldestID, oldest = id, seen
		}
	}
	delete(st.sessions, oldestID)
	st.log.Debug("evicted session at capacity", zap.Int("max", st.cfg.MaxSessions))
}

// Get returns a live session and marks it as seen.
func (st *Store) Get(id string) (*Session, error) {
	st.mu.RLock()
	s, ok := st.sessions[id]
	st.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	s.touch(st.now())
	return s, nil
}

func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Sweep drops sessions idle for longer than the TTL: their page is gone.
func (st *Store) Sweep() int {
	cutoff := st.now().Add(-st.cfg.IdleTTL)
	st.mu.Lock()
	defer st.mu.Unlock()
	n := 0
	for id, s := range st.sessions {
		if s.idleSince().Before(cutoff) {
			delete(st.sessions, id)
			n++
		}
	}
	return n
}

// Run sweeps every interval until ctx is done.
func (st *Store) Run(ctx context.Context, interval time.Duration) error {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			if n := st.Sweep(); n > 0 {
				st.log.Debug("swept idle sessions", zap.Int("count", n), zap.Int("live", st.Len()))
			}
		}
	}
}
