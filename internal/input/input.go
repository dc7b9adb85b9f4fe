// Package input turns terminal key events into tank controls.
//
// Terminals report key presses and repeats but no releases, so a direction
// counts as held while its key was seen within the hold window. Fire and
// reload are edge triggers delivered once.
package input

import (
	"time"
	"unicode"

	"github.com/ErikKalkoken/go-set"
	"github.com/gdamore/tcell/v2"

	"tank-arena/internal/sim"
)

// Action is what a key does for its slot.
type Action uint8

const (
	Left Action = iota + 1
	Right
	Forward
	Back
	Fire
	Reload
)

func (a Action) String() string {
	switch a {
	case Left:
		return "left"
	case Right:
		return "right"
	case Forward:
		return "forward"
	case Back:
		return "back"
	case Fire:
		return "fire"
	case Reload:
		return "reload"
	default:
		return "none"
	}
}

func (a Action) edge() bool { return a == Fire || a == Reload }

// Key identifies a physical key. Rune is set for printable keys only.
type Key struct {
	Code tcell.Key
	Rune rune
}

func RuneKey(r rune) Key      { return Key{Code: tcell.KeyRune, Rune: unicode.ToLower(r)} }
func CodeKey(k tcell.Key) Key { return Key{Code: k} }

// KeyOf normalizes an event; letters match regardless of shift.
func KeyOf(ev *tcell.EventKey) Key {
	if ev.Key() == tcell.KeyRune {
		return RuneKey(ev.Rune())
	}
	return CodeKey(ev.Key())
}

// Binding is one slot's action.
type Binding struct {
	Slot   sim.Slot
	Action Action
}

// Scheme maps keys to the actions of one slot.
type Scheme map[Key]Action

// Player1Scheme is WASD, space to fire and r to reload.
func Player1Scheme() Scheme {
	return Scheme{
		RuneKey('a'): Left,
		RuneKey('d'): Right,
		RuneKey('w'): Forward,
		RuneKey('s'): Back,
		RuneKey(' '): Fire,
		RuneKey('r'): Reload,
	}
}

// Player2Scheme is the arrow keys, Enter to fire and Backspace to reload.
func Player2Scheme() Scheme {
	return Scheme{
		CodeKey(tcell.KeyLeft):       Left,
		CodeKey(tcell.KeyRight):      Right,
		CodeKey(tcell.KeyUp):         Forward,
		CodeKey(tcell.KeyDown):       Back,
		CodeKey(tcell.KeyEnter):      Fire,
		CodeKey(tcell.KeyBackspace):  Reload,
		CodeKey(tcell.KeyBackspace2): Reload,
	}
}

// Mapper collects key events between frames and applies them to the
// World's live tanks. It is owned by the frame goroutine.
type Mapper struct {
	holdWindow time.Duration
	bindings   map[Key]Binding
	lastSeen   map[Binding]time.Time
	edges      []Binding
}

// NewMapper binds Player1Scheme and Player2Scheme.
func NewMapper(holdWindow time.Duration) *Mapper {
	m := &Mapper{
		holdWindow: holdWindow,
		bindings:   make(map[Key]Binding),
		lastSeen:   make(map[Binding]time.Time),
	}
	m.Bind(sim.Player1, Player1Scheme())
	m.Bind(sim.Player2, Player2Scheme())
	return m
}

// Bind assigns scheme to slot. Keys already bound move to the new slot.
func (m *Mapper) Bind(slot sim.Slot, scheme Scheme) {
	for k, a := range scheme {
		m.bindings[k] = Binding{Slot: slot, Action: a}
	}
}

// Handle records ev seen at the given time and reports whether it asks to
// quit.
func (m *Mapper) Handle(ev *tcell.EventKey, at time.Time) (quit bool) {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	}
	b, ok := m.bindings[KeyOf(ev)]
	if !ok {
		return false
	}
	if b.Action.edge() {
		m.edges = append(m.edges, b)
	} else {
		m.lastSeen[b] = at
	}
	return false
}

// Held returns the directional bindings seen within the hold window.
func (m *Mapper) Held(at time.Time) set.Set[Binding] {
	var held set.Set[Binding]
	for b, seen := range m.lastSeen {
		if at.Sub(seen) <= m.holdWindow {
			held.Add(b)
		}
	}
	return held
}

// Apply sets the controls of every live tank and delivers pending edge
// actions. Edges for a slot without a live tank are dropped.
func (m *Mapper) Apply(w *sim.World, at time.Time) {
	held := m.Held(at)
	for _, slot := range sim.Slots {
		if t := w.Tank(slot); t != nil {
			t.SetControls(sim.Controls{
				Left:    held.Contains(Binding{slot, Left}),
				Right:   held.Contains(Binding{slot, Right}),
				Forward: held.Contains(Binding{slot, Forward}),
				Back:    held.Contains(Binding{slot, Back}),
			})
		}
	}
	for _, b := range m.edges {
		t := w.Tank(b.Slot)
		if t == nil {
			continue
		}
		switch b.Action {
		case Fire:
			t.PressFire()
		case Reload:
			t.Reload(w)
		}
	}
	clear(m.edges)
	m.edges = m.edges[:0]
}
