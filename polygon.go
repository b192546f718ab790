/*
Copyright © 2021 the geotraitement authors.
This file is part of geotraitement.

geotraitement is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

geotraitement is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with geotraitement.  If not, see <http://www.gnu.org/licenses/>.
*/

package geotraitement

import (
	"math"
	"sort"

	"github.com/ctessum/geom"
)

const epsilon = 1e-12

func add(a, b geom.Point) geom.Point { return geom.Point{X: a.X + b.X, Y: a.Y + b.Y} }
func sub(a, b geom.Point) geom.Point { return geom.Point{X: a.X - b.X, Y: a.Y - b.Y} }
func scale(a geom.Point, s float64) geom.Point { return geom.Point{X: a.X * s, Y: a.Y * s} }
func dot(a, b geom.Point) float64 { return a.X*b.X + a.Y*b.Y }
func cross(a, b geom.Point) float64 { return a.X*b.Y - a.Y*b.X }
func norm(a geom.Point) float64 { return math.Hypot(a.X, a.Y) }

// perp returns a rotated 90 degrees counter-clockwise.
func perp(a geom.Point) geom.Point { return geom.Point{X: -a.Y, Y: a.X} }

// unitVec returns a normalized to a length of one, or false if a has no
// length.
func unitVec(a geom.Point) (geom.Point, bool) {
	n := norm(a)
	if n < epsilon {
		return geom.Point{}, false
	}
	return scale(a, 1/n), true
}

// signedArea returns the signed area of ring, positive when the ring
// is counter-clockwise.
func signedArea(ring []geom.Point) float64 {
	var a float64
	for i := range ring {
		j := (i + 1) % len(ring)
		a += ring[i].X*ring[j].Y - ring[j].X*ring[i].Y
	}
	return a / 2
}

// closeRing returns ring with its first point appended if it is not
// already closed.
func closeRing(ring []geom.Point) []geom.Point {
	if len(ring) == 0 || ring[0].Equals(ring[len(ring)-1]) {
		return ring
	}
	return append(ring, ring[0])
}

// openRing returns ring without the closing point.
func openRing(ring []geom.Point) []geom.Point {
	if len(ring) > 1 && ring[0].Equals(ring[len(ring)-1]) {
		return ring[:len(ring)-1]
	}
	return ring
}

// orient returns a closed copy of ring, counter-clockwise if ccw is true
// and clockwise otherwise.
func orient(ring []geom.Point, ccw bool) []geom.Point {
	r := append([]geom.Point{}, openRing(ring)...)
	if (signedArea(r) > 0) != ccw {
		for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
			r[i], r[j] = r[j], r[i]
		}
	}
	return closeRing(r)
}

// unionAll returns the union of polys.
func unionAll(polys []geom.Polygon) geom.Polygon {
	var rings [][]geom.Point
	for _, p := range polys {
		for _, part := range splitPolygon(p) {
			for _, r := range part {
				rings = append(rings, r)
			}
		}
	}
	if len(rings) == 0 {
		return nil
	}
	return positiveFill(rings)
}

// toPolygon flattens g into a single polygon. The parts of multipolygons
// are unioned so that overlapping parts don't cancel each other.
func toPolygon(g geom.Polygonal) geom.Polygon {
	switch t := g.(type) {
	case geom.Polygon:
		return t
	case geom.MultiPolygon:
		return unionAll(append([]geom.Polygon{}, t...))
	default:
		return unionAll(g.Polygons())
	}
}

// ringContains returns whether inner lies inside outer. The first vertex
// of inner that is not on the edge of outer decides; rings that share
// all their vertices are compared by area.
func ringContains(outer, inner []geom.Point) bool {
	op := geom.Polygon{outer}
	for _, p := range inner {
		switch p.Within(op) {
		case geom.Inside:
			return true
		case geom.Outside:
			return false
		}
	}
	return math.Abs(signedArea(openRing(inner))) < math.Abs(signedArea(openRing(outer)))
}

// splitPolygon separates the flat list of rings held in p into outer
// shells and the holes they contain. Shells are counter-clockwise and
// holes clockwise. Rings with no area are dropped.
func splitPolygon(p geom.Polygon) geom.MultiPolygon {
	type ring struct {
		pts    []geom.Point
		area   float64
		depth  int
		parent int
	}
	var rings []*ring
	for _, r := range p {
		pts := openRing(r)
		if len(pts) < 3 {
			continue
		}
		a := math.Abs(signedArea(pts))
		if a < epsilon {
			continue
		}
		rings = append(rings, &ring{pts: pts, area: a, parent: -1})
	}
	// Larger rings first so that a ring's parent is found before it.
	sort.SliceStable(rings, func(i, j int) bool { return rings[i].area > rings[j].area })
	for i, r := range rings {
		for j := 0; j < i; j++ {
			if ringContains(rings[j].pts, r.pts) {
				r.depth++
				// The smallest containing ring is the direct parent.
				r.parent = j
			}
		}
	}
	var o geom.MultiPolygon
	shell := make(map[int]int)
	for i, r := range rings {
		if r.depth%2 == 0 {
			shell[i] = len(o)
			o = append(o, geom.Polygon{orient(r.pts, true)})
		}
	}
	for _, r := range rings {
		if r.depth%2 == 1 && r.parent >= 0 {
			k := shell[r.parent]
			o[k] = append(o[k], orient(r.pts, false))
		}
	}
	return o
}
