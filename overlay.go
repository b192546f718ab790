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
	"github.com/ctessum/geom/index/rtree"
)

// snapTolerance is the distance, relative to the largest coordinate,
// under which two vertices of an overlay are merged.
const snapTolerance = 1e-10

// overlaySegment is a directed edge of an input ring along with the
// points where other edges cross or touch it.
type overlaySegment struct {
	a, b  geom.Point
	split []splitPoint
}

type splitPoint struct {
	t float64
	p geom.Point
}

// addPoint records p as a split point if it lies within tol of the
// inside of s.
func (s *overlaySegment) addPoint(p geom.Point, tol float64) {
	d := sub(s.b, s.a)
	l := norm(d)
	t := dot(sub(p, s.a), d) / (l * l)
	if t*l <= tol || (1-t)*l <= tol {
		return
	}
	if norm(sub(p, add(s.a, scale(d, t)))) > tol {
		return
	}
	s.split = append(s.split, splitPoint{t: t, p: p})
}

// splitPair records where s and s2 cross or touch each other.
func splitPair(s, s2 *overlaySegment, tol float64) {
	s.addPoint(s2.a, tol)
	s.addPoint(s2.b, tol)
	s2.addPoint(s.a, tol)
	s2.addPoint(s.b, tol)

	d1, d2 := sub(s.b, s.a), sub(s2.b, s2.a)
	l1, l2 := norm(d1), norm(d2)
	den := cross(d1, d2)
	if math.Abs(den) <= epsilon*l1*l2 {
		return
	}
	w := sub(s2.a, s.a)
	t := cross(w, d2) / den
	u := cross(w, d1) / den
	if t*l1 <= tol || (1-t)*l1 <= tol || u*l2 <= tol || (1-u)*l2 <= tol {
		return
	}
	p := add(s.a, scale(d1, t))
	s.split = append(s.split, splitPoint{t: t, p: p})
	s2.split = append(s2.split, splitPoint{t: u, p: p})
}

// segmentRef is an overlay segment stored in the search tree.
type segmentRef struct {
	geom.LineString
	i      int
	bounds *geom.Bounds
}

func (s *segmentRef) Bounds() *geom.Bounds { return s.bounds }

// overlayGraph is the planar graph formed by a set of rings once every
// crossing has been turned into a vertex.
type overlayGraph struct {
	tol   float64
	nodes []geom.Point
	grid  map[[2]int64][]int

	// edges holds each undirected edge once, from its lower to its higher
	// node, with the winding number change from its right to its left.
	edges     [][2]int
	delta     []int
	edgeIndex map[[2]int]int
}

func newOverlayGraph(tol float64) *overlayGraph {
	return &overlayGraph{
		tol:       tol,
		grid:      make(map[[2]int64][]int),
		edgeIndex: make(map[[2]int]int),
	}
}

// node returns the index of the vertex within tol of p, adding one if
// there is none.
func (g *overlayGraph) node(p geom.Point) int {
	cx, cy := int64(math.Floor(p.X/g.tol)), int64(math.Floor(p.Y/g.tol))
	for dx := int64(-1); dx <= 1; dx++ {
		for dy := int64(-1); dy <= 1; dy++ {
			for _, i := range g.grid[[2]int64{cx + dx, cy + dy}] {
				if norm(sub(g.nodes[i], p)) <= g.tol {
					return i
				}
			}
		}
	}
	i := len(g.nodes)
	g.nodes = append(g.nodes, p)
	k := [2]int64{cx, cy}
	g.grid[k] = append(g.grid[k], i)
	return i
}

// addEdge adds the directed edge from node i to node j.
func (g *overlayGraph) addEdge(i, j int) {
	if i == j {
		return
	}
	key, d := [2]int{i, j}, 1
	if i > j {
		key, d = [2]int{j, i}, -1
	}
	k, ok := g.edgeIndex[key]
	if !ok {
		k = len(g.edges)
		g.edgeIndex[key] = k
		g.edges = append(g.edges, key)
		g.delta = append(g.delta, 0)
	}
	g.delta[k] += d
}

// windingAt returns the winding number around p of the edges for which
// use returns true.
func (g *overlayGraph) windingAt(p geom.Point, use func(k int) bool) int {
	var w int
	for k, e := range g.edges {
		if g.delta[k] == 0 || !use(k) {
			continue
		}
		a, b := g.nodes[e[0]], g.nodes[e[1]]
		if a.Y <= p.Y {
			if b.Y > p.Y && cross(sub(b, a), sub(p, a)) > 0 {
				w += g.delta[k]
			}
		} else if b.Y <= p.Y && cross(sub(b, a), sub(p, a)) < 0 {
			w -= g.delta[k]
		}
	}
	return w
}

// positiveFill returns the region where the winding number of rings is
// positive, as counter-clockwise shells and clockwise holes. Rings may
// cross, touch and share edges. Counter-clockwise rings add to the
// winding number and clockwise rings subtract from it, so the union of
// polygons with counter-clockwise shells and clockwise holes is the
// positive fill of all their rings.
func positiveFill(rings [][]geom.Point) geom.Polygon {
	return windingFill(rings, 1)
}

// intersectPolygons returns the region covered by both a and b.
func intersectPolygons(a, b geom.Polygon) geom.Polygon {
	var rings [][]geom.Point
	for _, p := range []geom.Polygon{a, b} {
		u := unionAll([]geom.Polygon{p})
		if len(u) == 0 {
			return nil
		}
		for _, r := range u {
			rings = append(rings, r)
		}
	}
	return windingFill(rings, 2)
}

// windingFill returns the region where the winding number of rings is at
// least level.
func windingFill(rings [][]geom.Point, level int) geom.Polygon {
	var segs []overlaySegment
	var maxCoord float64
	for _, r := range rings {
		r = openRing(r)
		if len(r) < 3 {
			continue
		}
		for i, p := range r {
			q := r[(i+1)%len(r)]
			maxCoord = math.Max(maxCoord, math.Max(math.Abs(p.X), math.Abs(p.Y)))
			if p.Equals(q) {
				continue
			}
			segs = append(segs, overlaySegment{a: p, b: q})
		}
	}
	if len(segs) == 0 {
		return nil
	}
	tol := snapTolerance * math.Max(maxCoord, 1)

	tree := rtree.NewTree(25, 50)
	bounds := make([]*geom.Bounds, len(segs))
	for i, s := range segs {
		b := geom.NewBoundsPoint(s.a)
		b.Extend(geom.NewBoundsPoint(s.b))
		b.Min.X -= tol
		b.Min.Y -= tol
		b.Max.X += tol
		b.Max.Y += tol
		bounds[i] = b
		tree.Insert(&segmentRef{LineString: geom.LineString{s.a, s.b}, i: i, bounds: b})
	}
	for i := range segs {
		for _, x := range tree.SearchIntersect(bounds[i]) {
			if j := x.(*segmentRef).i; j > i {
				splitPair(&segs[i], &segs[j], tol)
			}
		}
	}

	g := newOverlayGraph(tol)
	for _, s := range segs {
		sort.Slice(s.split, func(a, b int) bool { return s.split[a].t < s.split[b].t })
		prev := g.node(s.a)
		for _, sp := range s.split {
			n := g.node(sp.p)
			g.addEdge(prev, n)
			prev = n
		}
		g.addEdge(prev, g.node(s.b))
	}
	return g.fill(level)
}

// fill traces the faces of g, finds their winding numbers and returns
// the boundary of the faces with a winding number of at least level.
func (g *overlayGraph) fill(level int) geom.Polygon {
	// Half-edges 2k and 2k+1 run along edge k, from its lower to its higher
	// node and back.
	var edgeOf []int
	for k := range g.edges {
		if g.delta[k] != 0 {
			edgeOf = append(edgeOf, k, k)
		}
	}
	nh := len(edgeOf)
	if nh == 0 {
		return nil
	}
	from := func(h int) int { return g.edges[edgeOf[h]][h%2] }
	to := func(h int) int { return g.edges[edgeOf[h]][1-h%2] }
	delta := func(h int) int {
		if h%2 == 0 {
			return g.delta[edgeOf[h]]
		}
		return -g.delta[edgeOf[h]]
	}

	out := make([][]int, len(g.nodes))
	angle := make([]float64, nh)
	for h := 0; h < nh; h++ {
		a, b := g.nodes[from(h)], g.nodes[to(h)]
		angle[h] = math.Atan2(b.Y-a.Y, b.X-a.X)
		out[from(h)] = append(out[from(h)], h)
	}
	pos := make([]int, nh)
	for _, o := range out {
		sort.SliceStable(o, func(i, j int) bool { return angle[o[i]] < angle[o[j]] })
		for i, h := range o {
			pos[h] = i
		}
	}
	// cwNext returns the half-edge leaving the same node as h that comes
	// next in clockwise order.
	cwNext := func(h int) int {
		o := out[from(h)]
		return o[(pos[h]+len(o)-1)%len(o)]
	}

	// Faces lie on the left of their half-edges.
	face := make([]int, nh)
	for h := range face {
		face[h] = -1
	}
	var faceEdges [][]int
	var faceArea []float64
	for h := 0; h < nh; h++ {
		if face[h] >= 0 {
			continue
		}
		f := len(faceEdges)
		var es []int
		var a float64
		for e := h; face[e] < 0; e = cwNext(e ^ 1) {
			face[e] = f
			es = append(es, e)
			p, q := g.nodes[from(e)], g.nodes[to(e)]
			a += p.X*q.Y - q.X*p.Y
		}
		faceEdges = append(faceEdges, es)
		faceArea = append(faceArea, a/2)
	}

	// Connected components, each with an outer face of negative area.
	comp := make([]int, len(g.nodes))
	for i := range comp {
		comp[i] = i
	}
	var find func(i int) int
	find = func(i int) int {
		for comp[i] != i {
			comp[i] = comp[comp[i]]
			i = comp[i]
		}
		return i
	}
	for h := 0; h < nh; h += 2 {
		if a, b := find(from(h)), find(to(h)); a != b {
			comp[a] = b
		}
	}
	outer := make(map[int]int)
	var roots []int
	for f, es := range faceEdges {
		c := find(from(es[0]))
		o, ok := outer[c]
		if !ok {
			roots = append(roots, c)
		}
		if !ok || faceArea[f] < faceArea[o] {
			outer[c] = f
		}
	}

	winding := make([]int, len(faceEdges))
	known := make([]bool, len(faceEdges))
	for _, c := range roots {
		f := outer[c]
		p := g.nodes[from(faceEdges[f][0])]
		winding[f] = g.windingAt(p, func(k int) bool { return find(g.edges[k][0]) != c })
		known[f] = true
		queue := []int{f}
		for len(queue) > 0 {
			f := queue[0]
			queue = queue[1:]
			for _, h := range faceEdges[f] {
				if f2 := face[h^1]; !known[f2] {
					winding[f2] = winding[f] - delta(h)
					known[f2] = true
					queue = append(queue, f2)
				}
			}
		}
	}

	keep := make([]bool, nh)
	for h := range keep {
		keep[h] = winding[face[h]] >= level && winding[face[h^1]] < level
	}
	used := make([]bool, nh)
	var o geom.Polygon
	for h := 0; h < nh; h++ {
		if !keep[h] || used[h] {
			continue
		}
		var ring []geom.Point
		for e := h; !used[e]; {
			used[e] = true
			ring = append(ring, g.nodes[from(e)])
			next := cwNext(e ^ 1)
			for i := 0; !keep[next] && i < len(out[from(next)]); i++ {
				next = cwNext(next)
			}
			e = next
		}
		ring = cleanPath(ring, true)
		if len(ring) < 3 || math.Abs(signedArea(ring)) < epsilon {
			continue
		}
		o = append(o, closeRing(ring))
	}
	return o
}
