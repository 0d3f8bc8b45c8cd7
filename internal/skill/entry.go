// Package skill holds the click-to-expand skill cards.
package skill

import (
	"errors"
	"fmt"
)

var ErrNoSuchSkill = errors.New("no such skill")

// Entry is one skill card whose detail panel can be shown or hidden.
type Entry struct {
	Title    string
	Detail   string
	expanded bool
}

// Toggle expands a collapsed entry and collapses an expanded one.
func (e *Entry) Toggle() { e.expanded = !e.expanded }

func (e *Entry) Expanded() bool { return e.expanded }

// Board is a set of independent entries, one per displayed skill.
type Board struct {
	entries []*Entry
}

// Def is the static title and detail of a skill.
type Def struct {
	Title  string
	Detail string
}

func NewBoard(defs []Def) *Board {
	b := &Board{entries: make([]*Entry, len(defs))}
	for i, d := range defs {
		b.entries[i] = &Entry{Title: d.Title, Detail: d.Detail}
	}
	return b
}

// Toggle flips entry i and returns it. No other entry changes.
func (b *Board) Toggle(i int) (*Entry, error) {
	e, err := b.Entry(i)
	if err != nil {
		return nil, err
	}
	e.Toggle()
	return e, nil
}

func (b *Board) Entry(i int) (*Entry, error) {
	if i < 0 || i >= len(b.entries) {
		return nil, fmt.Errorf("skill %d: %w", i, ErrNoSuchSkill)
	}
	return b.entries[i], nil
}

func (b *Board) Entries() []*Entry { return b.entries }

func (b *Board) Len() int { return len(b.entries) }
