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
	"context"
	"fmt"
	"math"

	"github.com/ctessum/geom"
	"github.com/nicolas-roelandt/geotraitement/internal/hash"
)

// EndCapStyle specifies how the ends of buffered lines are shaped.
type EndCapStyle int

// End cap styles.
const (
	EndCapRound EndCapStyle = iota
	EndCapFlat
	EndCapSquare
)

// JoinStyle specifies how the outer corners of buffered lines and
// polygons are shaped.
type JoinStyle int

// Join styles.
const (
	JoinRound JoinStyle = iota
	JoinMiter
	JoinBevel
)

// BufferOptions specify the shape of a buffer.
type BufferOptions struct {
	// Segments is the number of segments used to approximate a
	// quarter circle.
	Segments int

	EndCap EndCapStyle
	Join   JoinStyle

	// MiterLimit limits the distance of a mitred corner from its vertex,
	// as a multiple of the buffer distance. Corners that would extend
	// further are clipped.
	MiterLimit float64

	// Dissolve specifies whether all buffered features are combined
	// into a single feature.
	Dissolve bool
}

// DefaultBufferOptions returns the buffer shape used by the algorithms in
// this package: 5 segments, flat end caps, mitred joins with a limit of 2,
// and no dissolving.
func DefaultBufferOptions() BufferOptions {
	return BufferOptions{
		Segments:   5,
		EndCap:     EndCapFlat,
		Join:       JoinMiter,
		MiterLimit: 2,
	}
}

func (o BufferOptions) normalize() BufferOptions {
	if o.Segments < 1 {
		o.Segments = 1
	}
	if o.MiterLimit < 1 {
		o.MiterLimit = 1
	}
	return o
}

// Buffer returns a polygon layer holding the areas lying within
// distance of the features in l. distance is in the linear unit of the
// CRS of l.
//
// Without dissolving, each input feature gives at most one output
// feature with the same attributes. With dissolving, all buffers are
// combined into one feature carrying the attributes of the first input
// feature. A distance of zero keeps polygons as they are and drops
// points and lines.
func Buffer(ctx context.Context, l *Layer, distance float64, o BufferOptions) (*Layer, error) {
	if math.IsNaN(distance) || distance < 0 {
		return nil, fmt.Errorf("%w: %g", ErrNegativeDistance, distance)
	}
	o = o.normalize()
	name := hash.Name("buffer", struct {
		Layer    string
		N        int
		Distance float64
		Options  BufferOptions
	}{Layer: l.Name, N: l.Len(), Distance: distance, Options: o})
	out := NewLayer(name, l.CRS, PolygonGeometry)

	var parts []geom.Polygon
	for i, f := range l.Features {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p, err := bufferGeom(f.Geom, distance, o)
		if err != nil {
			return nil, fmt.Errorf("geotraitement: buffer %s feature %d: %v", l.Name, i, err)
		}
		if len(p) == 0 {
			continue
		}
		if o.Dissolve {
			parts = append(parts, p)
			continue
		}
		if err := out.Add(&Feature{Geom: p, Attributes: copyAttributes(f.Attributes)}); err != nil {
			return nil, err
		}
	}
	if o.Dissolve && len(parts) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		u := unionAll(parts)
		if len(u) > 0 {
			attrs := copyAttributes(l.Features[0].Attributes)
			if err := out.Add(&Feature{Geom: u, Attributes: attrs}); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

// bufferGeom returns the buffer of g.
func bufferGeom(g geom.Geom, d float64, o BufferOptions) (geom.Polygon, error) {
	switch t := g.(type) {
	case geom.Point:
		if d == 0 {
			return nil, nil
		}
		return circle(t, d, o.Segments), nil
	case geom.MultiPoint:
		if d == 0 {
			return nil, nil
		}
		parts := make([]geom.Polygon, len(t))
		for i, p := range t {
			parts[i] = circle(p, d, o.Segments)
		}
		return unionAll(parts), nil
	case geom.LineString:
		if d == 0 {
			return nil, nil
		}
		return bufferLine(t, d, o), nil
	case geom.MultiLineString:
		if d == 0 {
			return nil, nil
		}
		parts := make([]geom.Polygon, 0, len(t))
		for _, l := range t {
			parts = append(parts, bufferLine(l, d, o))
		}
		return unionAll(parts), nil
	case geom.Polygon:
		if d == 0 {
			return t, nil
		}
		return bufferPolygon(t, d, o), nil
	case geom.MultiPolygon:
		if d == 0 {
			return toPolygon(t), nil
		}
		parts := make([]geom.Polygon, 0, len(t))
		for _, p := range t {
			parts = append(parts, bufferPolygon(p, d, o))
		}
		return unionAll(parts), nil
	default:
		return nil, fmt.Errorf("%v: %T", ErrUnsupportedGeometry, g)
	}
}

// circle returns a regular polygon approximating a circle of radius r
// around c, with segs segments per quarter circle.
func circle(c geom.Point, r float64, segs int) geom.Polygon {
	n := 4 * segs
	ring := make([]geom.Point, n+1)
	for i := 0; i < n; i++ {
		a := 2 * math.Pi * float64(i) / float64(n)
		ring[i] = geom.Point{X: c.X + r*math.Cos(a), Y: c.Y + r*math.Sin(a)}
	}
	ring[n] = ring[0]
	return geom.Polygon{ring}
}

// cleanPath removes repeated vertices and vertices in the middle of
// straight runs from pts. Reversals are kept.
func cleanPath(pts []geom.Point, closed bool) []geom.Point {
	o := make([]geom.Point, 0, len(pts))
	for _, p := range pts {
		if len(o) > 0 && norm(sub(p, o[len(o)-1])) < epsilon {
			continue
		}
		o = append(o, p)
	}
	if closed {
		for len(o) > 1 && norm(sub(o[0], o[len(o)-1])) < epsilon {
			o = o[:len(o)-1]
		}
	}
	straight := func(a, b, c geom.Point) bool {
		u, v := sub(b, a), sub(c, b)
		return math.Abs(cross(u, v)) <= epsilon*norm(u)*norm(v) && dot(u, v) > 0
	}
	for changed := true; changed && len(o) > 2; {
		changed = false
		n := len(o)
		for i := 0; i < n; i++ {
			if !closed && (i == 0 || i == n-1) {
				continue
			}
			a, b, c := o[(i+n-1)%n], o[i], o[(i+1)%n]
			if straight(a, b, c) {
				o = append(o[:i], o[i+1:]...)
				changed = true
				break
			}
		}
	}
	return o
}

// segmentRect returns the rectangle covering the points within d of
// segment ab, measured perpendicular to the segment.
func segmentRect(a, b geom.Point, d float64) geom.Polygon {
	u, _ := unitVec(sub(b, a))
	n := scale(perp(u), d)
	return geom.Polygon{{sub(a, n), sub(b, n), add(b, n), add(a, n), sub(a, n)}}
}

// endCap returns the cap of a line ending at p, where w is the unit
// direction pointing away from the line.
func endCap(p, w geom.Point, d float64, o BufferOptions) geom.Polygon {
	switch o.EndCap {
	case EndCapRound:
		return circle(p, d, o.Segments)
	case EndCapSquare:
		n := scale(perp(w), d)
		e := scale(w, d)
		ring := []geom.Point{sub(p, n), add(sub(p, n), e), add(add(p, n), e), add(p, n)}
		return geom.Polygon{orient(ring, true)}
	default:
		return nil
	}
}

// joinPath returns the outer boundary of the join at vertex v, from
// v+d*n1 to v+d*n2, where n1 and n2 are the unit normals of the
// incoming and outgoing segments on the outer side and u1 is the unit
// direction of the incoming segment.
func joinPath(v, n1, n2, u1 geom.Point, d float64, o BufferOptions) []geom.Point {
	a := add(v, scale(n1, d))
	bb := add(v, scale(n2, d))
	b, ok := unitVec(add(n1, n2))
	if !ok {
		// Reversal: the corner points straight ahead.
		b = u1
	}
	cosHalf := dot(b, n1)
	sinHalf := math.Sqrt(math.Max(0, 1-cosHalf*cosHalf))
	if sinHalf < epsilon {
		return []geom.Point{a}
	}

	switch o.Join {
	case JoinRound:
		theta := 2 * math.Acos(math.Max(-1, math.Min(1, cosHalf)))
		step := math.Pi / float64(2*o.Segments)
		n := int(math.Ceil(theta/step - 1e-9))
		if n < 1 {
			n = 1
		}
		dir := 1.
		if s := cross(n1, n2); s < 0 || (math.Abs(s) < epsilon && cross(n1, b) < 0) {
			dir = -1
		}
		a0 := math.Atan2(n1.Y, n1.X)
		pts := make([]geom.Point, 0, n+1)
		pts = append(pts, a)
		for i := 1; i < n; i++ {
			t := a0 + dir*theta*float64(i)/float64(n)
			pts = append(pts, geom.Point{X: v.X + d*math.Cos(t), Y: v.Y + d*math.Sin(t)})
		}
		return append(pts, bb)
	case JoinMiter:
		if cosHalf > epsilon && 1/cosHalf <= o.MiterLimit {
			return []geom.Point{a, add(v, scale(b, d/cosHalf)), bb}
		}
		limit := o.MiterLimit * d
		if limit <= d*cosHalf {
			return []geom.Point{a, bb}
		}
		s := (limit - d*cosHalf) / sinHalf
		e1 := scale(sub(b, scale(n1, cosHalf)), 1/sinHalf)
		e2 := scale(sub(b, scale(n2, cosHalf)), 1/sinHalf)
		return []geom.Point{a, add(a, scale(e1, s)), add(bb, scale(e2, s)), bb}
	default:
		return []geom.Point{a, bb}
	}
}

// joinWedge returns the polygon filling the outer corner at vertex v.
// The arguments are those of joinPath.
func joinWedge(v, n1, n2, u1 geom.Point, d float64, o BufferOptions) geom.Polygon {
	path := joinPath(v, n1, n2, u1, d, o)
	if len(path) < 2 {
		return nil
	}
	return geom.Polygon{orient(append([]geom.Point{v}, path...), true)}
}

// bufferLine returns the buffer of a line string.
func bufferLine(l geom.LineString, d float64, o BufferOptions) geom.Polygon {
	pts := cleanPath(l, false)
	switch len(pts) {
	case 0:
		return nil
	case 1:
		return circle(pts[0], d, o.Segments)
	}
	parts := make([]geom.Polygon, 0, 2*len(pts)+1)
	for i := 1; i < len(pts); i++ {
		parts = append(parts, segmentRect(pts[i-1], pts[i], d))
	}
	for i := 1; i < len(pts)-1; i++ {
		u1, _ := unitVec(sub(pts[i], pts[i-1]))
		u2, _ := unitVec(sub(pts[i+1], pts[i]))
		n1, n2 := perp(u1), perp(u2)
		if cross(u1, u2) > 0 {
			// Left turn: the outer side is on the right.
			n1, n2 = scale(n1, -1), scale(n2, -1)
		}
		if w := joinWedge(pts[i], n1, n2, u1, d, o); w != nil {
			parts = append(parts, w)
		}
	}
	first, _ := unitVec(sub(pts[0], pts[1]))
	last, _ := unitVec(sub(pts[len(pts)-1], pts[len(pts)-2]))
	if c := endCap(pts[0], first, d, o); c != nil {
		parts = append(parts, c)
	}
	if c := endCap(pts[len(pts)-1], last, d, o); c != nil {
		parts = append(parts, c)
	}
	return unionAll(parts)
}

// convexCorner returns whether the corner between the incoming
// direction u1 and the outgoing direction u2 turns left, so that a
// buffer on the right side needs a join there.
func convexCorner(u1, u2 geom.Point) bool {
	t := cross(u1, u2)
	return t > 0 || (math.Abs(t) <= epsilon && dot(u1, u2) < 0)
}

// bufferPolygon returns the buffer of a polygon. Each part is offset
// ring by ring where the offset rings are simple; the other parts are
// built from the pieces that make up their buffer.
func bufferPolygon(p geom.Polygon, d float64, o BufferOptions) geom.Polygon {
	parts := splitPolygon(p)
	bufs := make([]geom.Polygon, 0, len(parts))
	for _, part := range parts {
		b, ok := offsetPolygon(part, d, o)
		if !ok {
			b = bufferPieces(part, d, o)
		}
		bufs = append(bufs, b)
	}
	if len(bufs) == 1 {
		return bufs[0]
	}
	return unionAll(bufs)
}

// offsetPolygon offsets the counter-clockwise shell of p outwards and
// its clockwise holes inwards by d. Holes that close up are dropped.
// It returns false if an offset ring crosses itself.
func offsetPolygon(p geom.Polygon, d float64, o BufferOptions) (geom.Polygon, bool) {
	var out geom.Polygon
	for i, r := range p {
		pts := cleanPath(r, true)
		if len(pts) < 3 {
			if i == 0 {
				return nil, false
			}
			continue
		}
		ring, ok := offsetRing(pts, d, o)
		if !ok {
			return nil, false
		}
		a := signedArea(ring)
		if i == 0 && a <= 0 {
			return nil, false
		}
		if i > 0 && a >= 0 {
			continue
		}
		out = append(out, closeRing(ring))
	}
	return out, true
}

// offsetRing returns the ring at distance d on the right of the open
// ring pts, with joins around the corners turning left and the offset
// edges meeting at the corners turning right. It returns false if the
// offset ring reverses an edge or crosses itself.
func offsetRing(pts []geom.Point, d float64, o BufferOptions) ([]geom.Point, bool) {
	n := len(pts)
	var ring []geom.Point
	first := make([]int, n)
	last := make([]int, n)
	for k := 0; k < n; k++ {
		prev, v, next := pts[(k+n-1)%n], pts[k], pts[(k+1)%n]
		u1, _ := unitVec(sub(v, prev))
		u2, _ := unitVec(sub(next, v))
		n1, n2 := scale(perp(u1), -1), scale(perp(u2), -1)
		first[k] = len(ring)
		if convexCorner(u1, u2) {
			ring = append(ring, joinPath(v, n1, n2, u1, d, o)...)
		} else {
			c := 1 + dot(n1, n2)
			if c < epsilon {
				return nil, false
			}
			ring = append(ring, add(v, scale(add(n1, n2), d/c)))
		}
		last[k] = len(ring) - 1
	}
	for k := 0; k < n; k++ {
		u := sub(pts[(k+1)%n], pts[k])
		if dot(sub(ring[first[(k+1)%n]], ring[last[k]]), u) < 0 {
			return nil, false
		}
	}
	if !simpleRing(ring) {
		return nil, false
	}
	return ring, true
}

// simpleRing returns whether no two non-adjacent edges of the open ring
// r touch.
func simpleRing(r []geom.Point) bool {
	n := len(r)
	for i := 0; i < n; i++ {
		a, b := r[i], r[(i+1)%n]
		for j := i + 2; j < n; j++ {
			if i == 0 && j == n-1 {
				continue
			}
			if segmentsTouch(a, b, r[j], r[(j+1)%n]) {
				return false
			}
		}
	}
	return true
}

// segmentsTouch returns whether segments ab and cd share a point.
func segmentsTouch(a, b, c, d geom.Point) bool {
	if math.Max(a.X, b.X) < math.Min(c.X, d.X) || math.Max(c.X, d.X) < math.Min(a.X, b.X) ||
		math.Max(a.Y, b.Y) < math.Min(c.Y, d.Y) || math.Max(c.Y, d.Y) < math.Min(a.Y, b.Y) {
		return false
	}
	d1 := cross(sub(d, c), sub(a, c))
	d2 := cross(sub(d, c), sub(b, c))
	d3 := cross(sub(b, a), sub(c, a))
	d4 := cross(sub(b, a), sub(d, a))
	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) && ((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}
	in := func(p, q, r geom.Point) bool {
		return math.Min(p.X, q.X) <= r.X && r.X <= math.Max(p.X, q.X) &&
			math.Min(p.Y, q.Y) <= r.Y && r.Y <= math.Max(p.Y, q.Y)
	}
	return (d1 == 0 && in(c, d, a)) || (d2 == 0 && in(c, d, b)) ||
		(d3 == 0 && in(a, b, c)) || (d4 == 0 && in(a, b, d))
}

// bufferPieces returns the buffer of a polygon with a counter-clockwise
// shell and clockwise holes as the union of the polygon, a band of
// width d on both sides of every edge and a join at every corner
// turning away from the polygon.
func bufferPieces(p geom.Polygon, d float64, o BufferOptions) geom.Polygon {
	parts := []geom.Polygon{p}
	for _, r := range p {
		pts := cleanPath(r, true)
		if len(pts) < 3 {
			continue
		}
		n := len(pts)
		for k := 0; k < n; k++ {
			parts = append(parts, segmentRect(pts[k], pts[(k+1)%n], d))
		}
		for k := 0; k < n; k++ {
			prev, v, next := pts[(k+n-1)%n], pts[k], pts[(k+1)%n]
			u1, _ := unitVec(sub(v, prev))
			u2, _ := unitVec(sub(next, v))
			if !convexCorner(u1, u2) {
				continue
			}
			n1, n2 := scale(perp(u1), -1), scale(perp(u2), -1)
			if w := joinWedge(v, n1, n2, u1, d, o); w != nil {
				parts = append(parts, w)
			}
		}
	}
	return unionAll(parts)
}
