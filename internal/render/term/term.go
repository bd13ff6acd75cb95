// Package term draws match frames on a character terminal.
package term

import (
	"fmt"
	"math"

	"github.com/gdamore/tcell/v2"

	"kickoff.ai/internal/observerproto"
)

var (
	stylePitch  = tcell.StyleDefault.Foreground(tcell.ColorGreen)
	styleHome   = tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)
	styleAway   = tcell.StyleDefault.Foreground(tcell.ColorBlue).Bold(true)
	styleBall   = tcell.StyleDefault.Foreground(tcell.ColorWhite).Bold(true)
	styleStatus = tcell.StyleDefault.Foreground(tcell.ColorYellow)
	styleGoal   = tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorYellow)
)

// Renderer maps pitch coordinates onto the screen. The bottom row is the
// status line; everything above it is pitch, with +y pointing up.
type Renderer struct {
	screen tcell.Screen
	field  observerproto.FieldParams
	marks  []observerproto.Marking
}

func New(screen tcell.Screen, boot observerproto.BootstrapResponse) *Renderer {
	return &Renderer{screen: screen, field: boot.FieldParams, marks: boot.Markings}
}

// Cell returns the screen cell for a pitch point.
func (r *Renderer) Cell(x, y float64) (col, row int) {
	w, h := r.screen.Size()
	rows := h - 1
	if w < 2 || rows < 2 || r.field.Length <= 0 || r.field.Width <= 0 {
		return 0, 0
	}
	col = int(math.Round(x / r.field.Length * float64(w-1)))
	row = (rows - 1) - int(math.Round(y/r.field.Width*float64(rows-1)))
	return clamp(col, 0, w-1), clamp(row, 0, rows-1)
}

func (r *Renderer) Draw(f observerproto.FrameMsg) {
	r.screen.Clear()
	for _, m := range r.marks {
		r.drawMarking(m)
	}
	for _, p := range f.Players {
		st := styleHome
		if p.Team == 2 {
			st = styleAway
		}
		if p.Connected {
			st = st.Underline(true)
		}
		col, row := r.Cell(p.Pos[0], p.Pos[1])
		r.screen.SetContent(col, row, rune('1'+p.Index), nil, st)
	}
	col, row := r.Cell(f.Ball[0], f.Ball[1])
	r.screen.SetContent(col, row, 'o', nil, styleBall)

	r.drawStatus(f)
	r.screen.Show()
}

func (r *Renderer) drawStatus(f observerproto.FrameMsg) {
	w, h := r.screen.Size()
	line := fmt.Sprintf(" tick %d  HOME %d-%d AWAY  kickoffs %d", f.Tick, f.Score[0], f.Score[1], f.Kickoffs)
	st := styleStatus
	if f.Goal != nil {
		line += fmt.Sprintf("  GOAL team %d", f.Goal.ScoringTeam)
		if f.Goal.OwnGoal {
			line += " (own goal)"
		}
		st = styleGoal
	}
	r.puts(0, h-1, w, line, st)
}

func (r *Renderer) puts(x, y, maxW int, s string, st tcell.Style) {
	for _, c := range s {
		if x >= maxW {
			return
		}
		r.screen.SetContent(x, y, c, nil, st)
		x++
	}
}

func (r *Renderer) drawMarking(m observerproto.Marking) {
	switch m.Kind {
	case "CIRCLE":
		steps := 48
		for i := 0; i < steps; i++ {
			a := 2 * math.Pi * float64(i) / float64(steps)
			col, row := r.Cell(m.From[0]+m.Radius*math.Cos(a), m.From[1]+m.Radius*math.Sin(a))
			r.screen.SetContent(col, row, '.', nil, stylePitch)
		}
	default:
		x0, y0 := r.Cell(m.From[0], m.From[1])
		x1, y1 := r.Cell(m.To[0], m.To[1])
		ch := '-'
		if x0 == x1 {
			ch = '|'
		}
		r.line(x0, y0, x1, y1, ch)
	}
}

// line draws with Bresenham's algorithm.
func (r *Renderer) line(x0, y0, x1, y1 int, ch rune) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		r.screen.SetContent(x0, y0, ch, nil, stylePitch)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
