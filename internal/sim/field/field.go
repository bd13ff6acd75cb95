package field

import (
	"fmt"

	"github.com/paulmach/orb"
)

const (
	DefaultLength    = 120.0
	DefaultWidth     = 80.0
	DefaultGoalWidth = 10.0
	DefaultGoalInset = 10.0
	DefaultMouthMinY = 30.0
	DefaultMouthMaxY = 50.0
	DefaultCircleR   = 10.0
)

// Geometry is the fixed layout of the pitch. All coordinates are in field units,
// x along the length and y along the width, origin at the bottom-left corner.
type Geometry struct {
	Length float64 `yaml:"length" json:"length"`
	Width  float64 `yaml:"width" json:"width"`

	// GoalWidth is the scoring depth at each end (ball x at or beyond it scores).
	GoalWidth float64 `yaml:"goal_width" json:"goal_width"`
	// GoalInset is the horizontal margin reserved for the goal mouths; players
	// never leave [GoalInset, Length-GoalInset].
	GoalInset float64 `yaml:"goal_inset" json:"goal_inset"`

	MouthMinY float64 `yaml:"mouth_min_y" json:"mouth_min_y"`
	MouthMaxY float64 `yaml:"mouth_max_y" json:"mouth_max_y"`

	CenterCircleR float64 `yaml:"center_circle_r" json:"center_circle_r"`
}

func Default() Geometry {
	return Geometry{
		Length:        DefaultLength,
		Width:         DefaultWidth,
		GoalWidth:     DefaultGoalWidth,
		GoalInset:     DefaultGoalInset,
		MouthMinY:     DefaultMouthMinY,
		MouthMaxY:     DefaultMouthMaxY,
		CenterCircleR: DefaultCircleR,
	}
}

func (g Geometry) Validate() error {
	if g.Length <= 0 || g.Width <= 0 {
		return fmt.Errorf("field: length/width must be > 0 (got %gx%g)", g.Length, g.Width)
	}
	if g.GoalInset < 0 || 2*g.GoalInset >= g.Length {
		return fmt.Errorf("field: goal_inset %g does not fit length %g", g.GoalInset, g.Length)
	}
	if g.GoalWidth < 0 || 2*g.GoalWidth >= g.Length {
		return fmt.Errorf("field: goal_width %g does not fit length %g", g.GoalWidth, g.Length)
	}
	if g.MouthMinY < 0 || g.MouthMaxY > g.Width || g.MouthMinY > g.MouthMaxY {
		return fmt.Errorf("field: goal mouth span [%g,%g] outside width %g", g.MouthMinY, g.MouthMaxY, g.Width)
	}
	return nil
}

// Bounds is the full pitch; the ball is clamped to it.
func (g Geometry) Bounds() orb.Bound {
	return orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{g.Length, g.Width}}
}

// PlayBounds is the region players may occupy.
func (g Geometry) PlayBounds() orb.Bound {
	return orb.Bound{Min: orb.Point{g.GoalInset, 0}, Max: orb.Point{g.Length - g.GoalInset, g.Width}}
}

func (g Geometry) Center() orb.Point {
	return g.Bounds().Center()
}

// GoalCenter returns the centre of the goal mouth defended by the team whose
// own goal line is at the left (left=true) or right end.
func (g Geometry) GoalCenter(left bool) orb.Point {
	y := (g.MouthMinY + g.MouthMaxY) / 2
	if left {
		return orb.Point{g.GoalInset, y}
	}
	return orb.Point{g.Length - g.GoalInset, y}
}

// InMouth reports whether y lies inside the goal-mouth span (inclusive).
func (g Geometry) InMouth(y float64) bool {
	return y >= g.MouthMinY && y <= g.MouthMaxY
}

// Clamp returns p limited to b.
func Clamp(p orb.Point, b orb.Bound) orb.Point {
	return orb.Point{clamp(p[0], b.Min[0], b.Max[0]), clamp(p[1], b.Min[1], b.Max[1])}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
