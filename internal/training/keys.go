// Package training tracks which keys are unlocked, in focus or locked.
package training

import (
	"sort"
	"strings"
	"unicode"
)

// Status is the training state of a single key.
type Status int

const (
	StatusNone Status = iota
	StatusFocus
	StatusUnlocked
	StatusLocked
)

func (s Status) String() string {
	switch s {
	case StatusFocus:
		return "focus"
	case StatusUnlocked:
		return "unlocked"
	case StatusLocked:
		return "locked"
	default:
		return "none"
	}
}

// KeyState pairs a key with its status.
type KeyState struct {
	Key    rune
	Status Status
}

// Tier is a labelled group of keys not yet introduced.
type Tier struct {
	Label string
	Keys  []KeyState
}

// State is the training setup grouped the way it was configured.
type State struct {
	Unlocked [][]KeyState
	Focus    [][]KeyState
	Locked   []Tier
}

// Keys classifies runes by training status.
type Keys struct {
	opened []string
	focus  []string
	locked map[string][]string

	openedSet map[rune]struct{}
	focusSet  map[rune]struct{}
	lockedSet map[rune]struct{}
}

// NewKeys builds a classifier from configured key groups. A group containing
// spaces lists individual keys; otherwise every character is a key.
func NewKeys(opened, focus []string, locked map[string][]string) *Keys {
	k := &Keys{
		opened:    opened,
		focus:     focus,
		locked:    locked,
		openedSet: map[rune]struct{}{},
		focusSet:  map[rune]struct{}{},
		lockedSet: map[rune]struct{}{},
	}
	for _, g := range opened {
		addAll(k.openedSet, ParseGroup(g))
	}
	for _, g := range focus {
		addAll(k.focusSet, ParseGroup(g))
	}
	for _, groups := range locked {
		for _, g := range groups {
			addAll(k.lockedSet, ParseGroup(g))
		}
	}
	return k
}

// ParseGroup splits a configured key group into runes.
func ParseGroup(group string) []rune {
	if group == "" {
		return nil
	}
	if !strings.Contains(group, " ") {
		return []rune(group)
	}
	var out []rune
	for _, part := range strings.Fields(group) {
		out = append(out, []rune(part)...)
	}
	return out
}

// Status returns the status of r. Whitespace has no status, focus wins over
// unlocked and every other key is locked.
func (k *Keys) Status(r rune) Status {
	if unicode.IsSpace(r) {
		return StatusNone
	}
	if _, ok := k.focusSet[r]; ok {
		return StatusFocus
	}
	if _, ok := k.openedSet[r]; ok {
		return StatusUnlocked
	}
	return StatusLocked
}

// StatusOf classifies a key label as produced by the key aggregator.
func (k *Keys) StatusOf(label string) Status {
	if label == "SPC" {
		return StatusNone
	}
	runes := []rune(label)
	if len(runes) != 1 {
		return StatusLocked
	}
	return k.Status(runes[0])
}

// FocusLabels returns the focus keys as labels in configuration order.
func (k *Keys) FocusLabels() []string {
	var out []string
	seen := map[rune]struct{}{}
	for _, g := range k.focus {
		for _, r := range ParseGroup(g) {
			if _, ok := seen[r]; ok {
				continue
			}
			seen[r] = struct{}{}
			out = append(out, string(r))
		}
	}
	return out
}

// Counts returns how many distinct keys are unlocked, in focus and explicitly locked.
func (k *Keys) Counts() (unlocked, focus, locked int) {
	return len(k.openedSet), len(k.focusSet), len(k.lockedSet)
}

// State returns the configured groups annotated with statuses. Locked tiers
// are ordered by label.
func (k *Keys) State() State {
	var st State
	for _, g := range k.opened {
		st.Unlocked = append(st.Unlocked, k.annotate(ParseGroup(g)))
	}
	for _, g := range k.focus {
		st.Focus = append(st.Focus, k.annotate(ParseGroup(g)))
	}
	labels := make([]string, 0, len(k.locked))
	for label := range k.locked {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	for _, label := range labels {
		var runes []rune
		for _, g := range k.locked[label] {
			runes = append(runes, ParseGroup(g)...)
		}
		st.Locked = append(st.Locked, Tier{Label: label, Keys: k.annotate(runes)})
	}
	return st
}

func (k *Keys) annotate(runes []rune) []KeyState {
	out := make([]KeyState, len(runes))
	for i, r := range runes {
		out[i] = KeyState{Key: r, Status: k.Status(r)}
	}
	return out
}

func addAll(set map[rune]struct{}, runes []rune) {
	for _, r := range runes {
		set[r] = struct{}{}
	}
}
