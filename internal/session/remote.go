package session

import (
	"errors"
	"fmt"
)

var ErrUnknownPlay = errors.New("unknown play request")

// RemoteResource is the browser's audio element seen from the server. Commands
// are rendered into the page and the element reports each play outcome back
// under the sequence number it was issued with.
type RemoteResource struct {
	src     string
	muted   bool
	seq     uint64
	pending map[uint64]func(error)
}

func NewRemoteResource() *RemoteResource {
	return &RemoteResource{muted: true, pending: make(map[uint64]func(error))}
}

func (r *RemoteResource) Load(src string) { r.src = src }

func (r *RemoteResource) SetMuted(muted bool) { r.muted = muted }

func (r *RemoteResource) Muted() bool { return r.muted }

// maxPending bounds requests a client never reported on.
const maxPending = 32

func (r *RemoteResource) Play(done func(error)) {
	r.seq++
	r.pending[r.seq] = done
	if len(r.pending) <= maxPending {
		return
	}
	for seq := range r.pending {
		if seq+maxPending <= r.seq {
			delete(r.pending, seq)
		}
	}
}

// Resolve delivers the outcome of play request seq. Each request resolves once.
func (r *RemoteResource) Resolve(seq uint64, err error) error {
	done, ok := r.pending[seq]
	if !ok {
		return fmt.Errorf("play %d: %w", seq, ErrUnknownPlay)
	}
	delete(r.pending, seq)
	done(err)
	return nil
}

// Command is what the element should currently be doing.
type Command struct {
	Src   string
	Muted bool
	// Play is the newest play request still waiting for an outcome, or 0.
	Play uint64
}

func (r *RemoteResource) Command() Command {
	c := Command{Src: r.src, Muted: r.muted}
	if _, ok := r.pending[r.seq]; ok {
		c.Play = r.seq
	}
	return c
}
