// Package page maps static content and session state to the view rendered by
// the templates.
package page

import (
	"fmt"
	"html/template"
	"math/rand/v2"
	"time"

	"github.com/aquoric/aquoric-dev/internal/content"
	"github.com/aquoric/aquoric-dev/internal/session"
)

// Particle is one falling dot of the background field.
type Particle struct {
	Style template.CSS
}

// Particles scatters n particles with random position, fall duration in
// [5s,15s) and delay in [0s,5s).
func Particles(n int, r *rand.Rand) []Particle {
	out := make([]Particle, n)
	for i := range out {
		out[i].Style = template.CSS(fmt.Sprintf(
			"top: %.2f%%; left: %.2f%%; animation-duration: %.2fs; animation-delay: %.2fs;",
			r.Float64()*100, r.Float64()*100, 5+r.Float64()*10, r.Float64()*5))
	}
	return out
}

// Player is what the audio element and the mute toggle need.
type Player struct {
	Index     int
	Src       string
	Muted     bool
	Play      uint64
	ShowMuted bool
	Error     string
}

type Skill struct {
	ID       int
	Title    string
	Detail   string
	Expanded bool
}

// Card is the data of the glowing card partial. Toggle, when set, is the
// endpoint a click posts to; the response replaces Target.
type Card struct {
	Title  string
	Icon   string
	Body   string
	Link   string
	Toggle string
	Target string
}

func (s Skill) Card() Card {
	return Card{
		Title:  s.Title,
		Toggle: fmt.Sprintf("/skills/%d/toggle", s.ID),
		Target: fmt.Sprintf("#skill-%d", s.ID),
	}
}

func ProjectCard(p content.Project) Card {
	return Card{Title: p.Title, Icon: p.Icon, Body: p.Description, Link: p.Link}
}

// View is the data of one full page render.
type View struct {
	Site      *content.Site
	Session   string
	Entered   bool
	Player    Player
	Skills    []Skill
	Projects  []Card
	Particles []Particle
	Year      int
	// OOB marks the player for an out-of-band swap.
	OOB       bool
}

// Compose builds the view for snap. It keeps no state of its own.
func Compose(site *content.Site, snap session.Snapshot, particles []Particle, now time.Time) View {
	v := View{
		Site:      site,
		Session:   snap.ID,
		Entered:   snap.Entered,
		Player:    PlayerOf(snap),
		Skills:    make([]Skill, len(snap.Skills)),
		Projects:  make([]Card, len(site.Projects)),
		Particles: particles,
		Year:      now.Year(),
	}
	for i, s := range snap.Skills {
		v.Skills[i] = SkillOf(s)
	}
	for i, p := range site.Projects {
		v.Projects[i] = ProjectCard(p)
	}
	return v
}

func PlayerOf(snap session.Snapshot) Player {
	return Player{
		Index:     snap.Audio.Index,
		Src:       snap.Player.Src,
		Muted:     snap.Player.Muted,
		Play:      snap.Player.Play,
		ShowMuted: snap.Audio.Muted,
		Error:     snap.Audio.LastError,
	}
}

func SkillOf(s session.SkillState) Skill {
	return Skill{ID: s.ID, Title: s.Title, Detail: s.Detail, Expanded: s.Expanded}
}
