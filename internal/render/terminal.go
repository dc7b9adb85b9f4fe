// Package render draws frames on the terminal with tcell.
package render

import (
	"math"
	"slices"
	"sync"

	"github.com/gdamore/tcell/v2"

	"tank-arena/internal/hud"
	"tank-arena/internal/sim"
)

const hudLines = 3

const helpLine = "P1 WASD move  SPACE fire  R reload   P2 arrows  ENTER fire  BKSP reload   ESC quit"

// Terminal implements sim.RenderSink on a tcell screen. The arena is fitted
// to the window with two columns per world unit so cells stay roughly square.
type Terminal struct {
	screen    tcell.Screen
	board     *hud.Board
	arenaSize int

	mu     sync.Mutex
	live   map[sim.EntityID]sim.Kind
	styles map[string]tcell.Style
}

// NewTerminal creates a renderer drawing on screen, with the board's lines
// below the arena.
func NewTerminal(screen tcell.Screen, board *hud.Board, arenaSize int) *Terminal {
	return &Terminal{
		screen:    screen,
		board:     board,
		arenaSize: arenaSize,
		live:      make(map[sim.EntityID]sim.Kind),
		styles:    make(map[string]tcell.Style),
	}
}

func (r *Terminal) Attach(id sim.EntityID, s sim.Sprite) {
	r.mu.Lock()
	r.live[id] = s.Kind
	r.mu.Unlock()
}

func (r *Terminal) Detach(id sim.EntityID) {
	r.mu.Lock()
	delete(r.live, id)
	r.mu.Unlock()
}

// Live returns the number of attached entities.
func (r *Terminal) Live() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.live)
}

// grid maps world units to cells.
type grid struct {
	unit   int // rows per world unit; columns are twice that
	size   int // arena size in world units
	width  int
	height int
}

func (r *Terminal) fit() grid {
	w, h := r.screen.Size()
	n := r.arenaSize + 1
	unit := max(1, min(w/(2*n), (h-hudLines)/n))
	return grid{unit: unit, size: r.arenaSize, width: 2 * unit * n, height: unit * n}
}

// cell returns the top-left cell of the world unit containing p. World +Y is
// up the screen, as seen by a camera looking down on the arena.
func (g grid) cell(x, y float64) (int, int) {
	return int(math.Round(x)) * 2 * g.unit, (g.size - int(math.Round(y))) * g.unit
}

func (r *Terminal) Present(f sim.Frame) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.screen.Clear()
	g := r.fit()

	sprites := slices.Clone(f.Sprites)
	slices.SortStableFunc(sprites, func(a, b sim.Sprite) int { return a.Layer - b.Layer })
	for _, s := range sprites {
		r.draw(g, s)
	}

	row := g.height
	if r.board != nil {
		for _, slot := range sim.Slots {
			r.text(0, row, r.board.Line(slot), tcell.StyleDefault.Bold(true))
			row++
		}
	}
	r.text(0, row, helpLine, tcell.StyleDefault.Dim(true))
	r.screen.Show()
}

func (r *Terminal) draw(g grid, s sim.Sprite) {
	style := r.style(s.Color)
	switch s.Kind {
	case sim.KindMap:
		r.fill(0, 0, g.width, g.height, s.Glyph, style)
	case sim.KindWall:
		x, y := g.cell(s.Position.X(), s.Position.Y())
		r.fill(x, y, 2*g.unit, g.unit, s.Glyph, style)
	case sim.KindPlayer1, sim.KindPlayer2:
		x, y := g.cell(s.Position.X(), s.Position.Y())
		r.fill(x, y, 2*g.unit, g.unit, s.Glyph, style)
		r.screen.SetContent(x+g.unit, y+g.unit/2, turretGlyph(s.Yaw), nil, r.style(s.AccentColor).Reverse(true))
	case sim.KindEffect:
		x, y := g.cell(s.Position.X(), s.Position.Y())
		reach := int(math.Round(s.Size * float64(g.unit) / 2))
		r.fill(x-2*reach, y-reach, 2*g.unit+4*reach, g.unit+2*reach, s.Glyph, style)
	case sim.KindProjectile, sim.KindGeneral:
		x, y := g.cell(s.Position.X(), s.Position.Y())
		r.screen.SetContent(x+g.unit, y+g.unit/2, s.Glyph, nil, style)
	}
}

// turretGlyph points along the heading. Yaw 0 faces -Y, down the screen, and
// growing yaw turns counter-clockwise.
func turretGlyph(yaw float64) rune {
	arrows := [...]rune{'▼', '◢', '▶', '◥', '▲', '◤', '◀', '◣'}
	i := int(math.Round(sim.NormalizeYaw(yaw)/(math.Pi/4))) % len(arrows)
	return arrows[i]
}

func (r *Terminal) fill(x, y, w, h int, ch rune, style tcell.Style) {
	if ch == 0 {
		return
	}
	for dy := range h {
		for dx := range w {
			r.screen.SetContent(x+dx, y+dy, ch, nil, style)
		}
	}
}

func (r *Terminal) text(x, y int, s string, style tcell.Style) {
	for _, ch := range s {
		r.screen.SetContent(x, y, ch, nil, style)
		x++
	}
}

func (r *Terminal) style(color string) tcell.Style {
	if st, ok := r.styles[color]; ok {
		return st
	}
	st := tcell.StyleDefault
	if color != "" {
		st = st.Foreground(tcell.GetColor(color))
	}
	r.styles[color] = st
	return st
}
