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
	"sort"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/index/rtree"
	"github.com/nicolas-roelandt/geotraitement/internal/hash"
)

// IntersectionOptions specify which attributes are carried over to the
// result of an intersection.
type IntersectionOptions struct {
	// InputFields and OverlayFields are the names of the input and overlay
	// attributes to keep. When both layers have an attribute with the same
	// name, the overlay one is renamed with an "overlay_" prefix.
	// Empty lists keep no attributes.
	InputFields, OverlayFields []string
}

// indexedFeature is an overlay feature stored in the search tree.
type indexedFeature struct {
	*Feature
	i int
}

// Intersection returns the parts of the features in input that lie
// within the features in overlay. Each pair of overlapping input and
// overlay features gives one output feature, in input order and then
// overlay order. The output has the geometry type and CRS of input.
// overlay must hold polygons.
func Intersection(ctx context.Context, input, overlay *Layer, o IntersectionOptions) (*Layer, error) {
	if overlay.Type != PolygonGeometry && overlay.Len() > 0 {
		return nil, fmt.Errorf("%w: layer %s holds %v geometries", ErrUnsupportedOverlay,
			overlay.Name, overlay.Type)
	}
	name := hash.Name("intersection", struct {
		Input, Overlay   string
		NInput, NOverlay int
		Options          IntersectionOptions
	}{input.Name, overlay.Name, input.Len(), overlay.Len(), o})
	out := NewLayer(name, input.CRS, input.Type)

	tree := rtree.NewTree(25, 50)
	for i, f := range overlay.Features {
		tree.Insert(&indexedFeature{Feature: f, i: i})
	}

	for i, f := range input.Features {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		found := tree.SearchIntersect(f.Bounds())
		cands := make([]*indexedFeature, len(found))
		for j, x := range found {
			cands[j] = x.(*indexedFeature)
		}
		sort.Slice(cands, func(a, b int) bool { return cands[a].i < cands[b].i })

		for _, c := range cands {
			g, err := clip(f.Geom, c.Geom.(geom.Polygonal))
			if err != nil {
				return nil, fmt.Errorf("geotraitement: intersection %s feature %d: %v", input.Name, i, err)
			}
			if g == nil {
				continue
			}
			attrs := mergeAttributes(selectAttributes(f.Attributes, o.InputFields),
				selectAttributes(c.Attributes, o.OverlayFields))
			if err := out.Add(&Feature{Geom: g, Attributes: attrs}); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

func mergeAttributes(in, overlay map[string]string) map[string]string {
	if len(overlay) == 0 {
		return in
	}
	if in == nil {
		in = make(map[string]string, len(overlay))
	}
	for k, v := range overlay {
		if _, ok := in[k]; ok {
			k = "overlay_" + k
		}
		in[k] = v
	}
	return in
}

// clip returns the part of g within p, or nil if there is none.
func clip(g geom.Geom, p geom.Polygonal) (geom.Geom, error) {
	switch t := g.(type) {
	case geom.Point:
		if pointIn(t, p) {
			return t, nil
		}
		return nil, nil
	case geom.MultiPoint:
		var o geom.MultiPoint
		for _, pt := range t {
			if pointIn(pt, p) {
				o = append(o, pt)
			}
		}
		if len(o) == 0 {
			return nil, nil
		}
		return o, nil
	case geom.LineString:
		o := clipLine(t, p)
		if len(o) == 0 {
			return nil, nil
		}
		return o, nil
	case geom.MultiLineString:
		var o geom.MultiLineString
		for _, l := range t {
			o = append(o, clipLine(l, p)...)
		}
		if len(o) == 0 {
			return nil, nil
		}
		return o, nil
	case geom.Polygon, geom.MultiPolygon:
		r := intersectPolygons(toPolygon(t.(geom.Polygonal)), toPolygon(p))
		if len(r) == 0 || math.Abs(r.Area()) < epsilon {
			return nil, nil
		}
		return r, nil
	default:
		return nil, fmt.Errorf("%v: %T", ErrUnsupportedGeometry, g)
	}
}

// pointIn returns whether pt is inside or on the edge of any of the
// polygons in p.
func pointIn(pt geom.Point, p geom.Polygonal) bool {
	for _, pp := range p.Polygons() {
		if pt.Within(pp) != geom.Outside {
			return true
		}
	}
	return false
}

// clipLine returns the pieces of l that lie within p. Each segment of l
// is split where it crosses the edges of p and the pieces whose middle
// is inside p are kept and joined back together.
func clipLine(l geom.LineString, p geom.Polygonal) geom.MultiLineString {
	var o geom.MultiLineString
	var cur geom.LineString
	flush := func() {
		if len(cur) > 1 {
			o = append(o, cur)
		}
		cur = nil
	}
	for i := 1; i < len(l); i++ {
		a, b := l[i-1], l[i]
		if norm(sub(b, a)) < epsilon {
			continue
		}
		ts := []float64{0, 1}
		for _, pp := range p.Polygons() {
			for _, ring := range pp {
				ring = closeRing(ring)
				for k := 1; k < len(ring); k++ {
					ts = append(ts, segmentCrossings(a, b, ring[k-1], ring[k])...)
				}
			}
		}
		sort.Float64s(ts)
		r := sub(b, a)
		for k := 1; k < len(ts); k++ {
			t0, t1 := ts[k-1], ts[k]
			if t1-t0 < epsilon {
				continue
			}
			mid := add(a, scale(r, (t0+t1)/2))
			if !pointIn(mid, p) {
				flush()
				continue
			}
			p0, p1 := add(a, scale(r, t0)), add(a, scale(r, t1))
			if len(cur) == 0 || !cur[len(cur)-1].Equals(p0) {
				flush()
				cur = geom.LineString{p0}
			}
			cur = append(cur, p1)
		}
	}
	flush()
	return o
}

// segmentCrossings returns the positions along segment ab, as fractions
// of its length, where it meets segment cd.
func segmentCrossings(a, b, c, d geom.Point) []float64 {
	r, s := sub(b, a), sub(d, c)
	qp := sub(c, a)
	denom := cross(r, s)
	if math.Abs(denom) < epsilon*norm(r)*norm(s) {
		if math.Abs(cross(qp, r)) > epsilon*norm(r)*math.Max(norm(qp), 1) {
			return nil
		}
		// Collinear: the overlap begins and ends at the projections of c
		// and d.
		rr := dot(r, r)
		var o []float64
		for _, e := range []geom.Point{c, d} {
			t := dot(sub(e, a), r) / rr
			if t > 0 && t < 1 {
				o = append(o, t)
			}
		}
		return o
	}
	t := cross(qp, s) / denom
	u := cross(qp, r) / denom
	if t <= 0 || t >= 1 || u < 0 || u > 1 {
		return nil
	}
	return []float64{t}
}
