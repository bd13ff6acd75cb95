// Package geo renders match frames as GeoJSON in pitch coordinates, for map
// style viewers and offline plotting.
package geo

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"kickoff.ai/internal/observerproto"
)

const circleSegments = 32

// Pitch returns the static markings as LineString features.
func Pitch(b observerproto.BootstrapResponse) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, m := range b.Markings {
		var geom orb.Geometry
		switch m.Kind {
		case "CIRCLE":
			geom = circle(orb.Point{m.From[0], m.From[1]}, m.Radius)
		default:
			geom = orb.LineString{{m.From[0], m.From[1]}, {m.To[0], m.To[1]}}
		}
		f := geojson.NewFeature(geom)
		f.Properties["kind"] = "marking"
		f.Properties["name"] = m.Name
		fc.Append(f)
	}
	return fc
}

// Frame returns one Point feature per player plus the ball.
func Frame(f observerproto.FrameMsg) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, p := range f.Players {
		ft := geojson.NewFeature(orb.Point{p.Pos[0], p.Pos[1]})
		ft.Properties["kind"] = "player"
		ft.Properties["team"] = p.Team
		ft.Properties["index"] = p.Index
		ft.Properties["role"] = p.Role
		ft.Properties["has_ball"] = p.HasBall
		ft.Properties["connected"] = p.Connected
		fc.Append(ft)
	}
	ball := geojson.NewFeature(orb.Point{f.Ball[0], f.Ball[1]})
	ball.Properties["kind"] = "ball"
	ball.Properties["tick"] = f.Tick
	ball.Properties["score"] = []int{f.Score[0], f.Score[1]}
	fc.Append(ball)
	return fc
}

// Merge appends the frame features after the pitch markings.
func Merge(b observerproto.BootstrapResponse, f observerproto.FrameMsg) *geojson.FeatureCollection {
	fc := Pitch(b)
	fc.Features = append(fc.Features, Frame(f).Features...)
	return fc
}

func circle(c orb.Point, r float64) orb.LineString {
	ls := make(orb.LineString, 0, circleSegments+1)
	for i := 0; i <= circleSegments; i++ {
		a := 2 * math.Pi * float64(i) / circleSegments
		ls = append(ls, orb.Point{c[0] + r*math.Cos(a), c[1] + r*math.Sin(a)})
	}
	return ls
}
