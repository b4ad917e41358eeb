package perspective

import (
	"errors"
	"fmt"
	"strings"
)

// Mode selects which perspective set drives a run.
type Mode string

const (
	ModeWorldview Mode = "worldview"
	ModeCommittee Mode = "committee"
)

var ErrIndexOutOfRange = errors.New("perspective index out of range")

// ParseMode normalizes a client supplied mode. "prism" and "" map to the
// worldview set for compatibility with older clients.
func ParseMode(raw string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "prism", string(ModeWorldview):
		return ModeWorldview, nil
	case string(ModeCommittee):
		return ModeCommittee, nil
	default:
		return "", fmt.Errorf("unknown mode %q", raw)
	}
}

// Definition is one fixed viewpoint.
//
// Description is the perspective text embedded in perspective and conflict
// prompts and echoed into results. Label is the longer framing used when all
// perspectives are listed together in the final synthesis.
type Definition struct {
	Index       int    `yaml:"-" json:"index"`
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
	Label       string `yaml:"label" json:"label"`
}

// Set is an immutable, ordered list of definitions.
type Set struct {
	mode Mode
	defs []Definition
}

func newSet(mode Mode, defs []Definition) *Set {
	out := make([]Definition, len(defs))
	for i, d := range defs {
		d.Index = i
		d.Name = strings.TrimSpace(d.Name)
		d.Description = strings.TrimSpace(d.Description)
		d.Label = strings.TrimSpace(d.Label)
		if d.Label == "" {
			d.Label = d.Description
		}
		out[i] = d
	}
	return &Set{mode: mode, defs: out}
}

func (s *Set) Mode() Mode { return s.mode }

func (s *Set) Count() int {
	if s == nil {
		return 0
	}
	return len(s.defs)
}

func (s *Set) Get(index int) (Definition, error) {
	if s == nil || index < 0 || index >= len(s.defs) {
		return Definition{}, fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	return s.defs[index], nil
}

// All returns a copy of the definitions in registry order.
func (s *Set) All() []Definition {
	if s == nil {
		return nil
	}
	return append([]Definition(nil), s.defs...)
}

// Descriptions returns the perspective texts in registry order.
func (s *Set) Descriptions() []string {
	out := make([]string, 0, s.Count())
	for _, d := range s.All() {
		out = append(out, d.Description)
	}
	return out
}

// Labels returns the long-form labels in registry order.
func (s *Set) Labels() []string {
	out := make([]string, 0, s.Count())
	for _, d := range s.All() {
		out = append(out, d.Label)
	}
	return out
}

// Registry maps modes to their sets.
type Registry struct {
	sets map[Mode]*Set
}

// Default returns the built-in worldview and committee sets.
func Default() *Registry {
	return &Registry{sets: map[Mode]*Set{
		ModeWorldview: newSet(ModeWorldview, worldviews),
		ModeCommittee: newSet(ModeCommittee, committee),
	}}
}

// With returns a copy of the registry with the set for mode replaced.
func (r *Registry) With(mode Mode, defs []Definition) *Registry {
	next := &Registry{sets: make(map[Mode]*Set, len(r.sets)+1)}
	for k, v := range r.sets {
		next.sets[k] = v
	}
	next.sets[mode] = newSet(mode, defs)
	return next
}

func (r *Registry) Set(mode Mode) (*Set, error) {
	if r == nil {
		return nil, fmt.Errorf("perspective registry is nil")
	}
	s, ok := r.sets[mode]
	if !ok || s.Count() == 0 {
		return nil, fmt.Errorf("no perspectives registered for mode %q", mode)
	}
	return s, nil
}
