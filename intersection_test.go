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
	"errors"
	"testing"

	"github.com/ctessum/geom"
	"github.com/kr/pretty"
	"gonum.org/v1/gonum/floats"
)

func TestIntersectionPolygons(t *testing.T) {
	in := newTestLayer(t, "in", lambert93, square(0, 0, 10, 10))
	overlay := newTestLayer(t, "overlay", lambert93, square(5, 5, 15, 15))
	out, err := Intersection(context.Background(), in, overlay, IntersectionOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if out.Len() != 1 {
		t.Fatalf("features: have %d, want 1", out.Len())
	}
	if have := out.Area(); !floats.EqualWithinAbsOrRel(have, 25, testTolerance, testTolerance) {
		t.Errorf("area: have %g, want 25", have)
	}
	if out.Features[0].Attributes != nil {
		t.Errorf("attributes should be empty: %v", out.Features[0].Attributes)
	}
}

func TestIntersectionSharedEdges(t *testing.T) {
	tests := []struct {
		name     string
		in, over geom.Polygon
		want     float64
	}{
		{name: "identical", in: square(0, 0, 10, 10), over: square(0, 0, 10, 10), want: 100},
		{name: "collinear edges", in: square(0, 0, 10, 10), over: square(5, 0, 15, 10), want: 50},
		{name: "inside touching", in: square(0, 0, 10, 10), over: square(0, 0, 5, 5), want: 25},
		{name: "touching", in: square(0, 0, 10, 10), over: square(10, 0, 20, 10)},
		{name: "corner", in: square(0, 0, 10, 10), over: square(10, 10, 20, 20)},
		{
			name: "hole",
			in:   square(0, 0, 10, 10),
			over: geom.Polygon{square(-5, -5, 15, 15)[0], orient(square(2, 2, 8, 8)[0], false)},
			want: 64,
		},
		{
			name: "lambert93",
			in:   square(652000, 6862000, 652010, 6862010),
			over: square(652005, 6862000, 652015, 6862010),
			want: 50,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			in := newTestLayer(t, "in", lambert93, test.in)
			overlay := newTestLayer(t, "overlay", lambert93, test.over)
			out, err := Intersection(context.Background(), in, overlay, IntersectionOptions{})
			if err != nil {
				t.Fatal(err)
			}
			if test.want == 0 {
				if out.Len() != 0 {
					t.Errorf("features: have %d, want 0", out.Len())
				}
				return
			}
			if out.Len() != 1 {
				t.Fatalf("features: have %d, want 1", out.Len())
			}
			if have := out.Area(); !floats.EqualWithinAbsOrRel(have, test.want, testTolerance, testTolerance) {
				t.Errorf("area: have %g, want %g", have, test.want)
			}
		})
	}
}

func TestIntersectionPoints(t *testing.T) {
	in := newTestLayer(t, "in", lambert93,
		geom.Point{X: 1, Y: 1},   // inside both
		geom.Point{X: 20, Y: 20}, // outside
		geom.Point{X: 10, Y: 5},  // on edge
	)
	overlay := newTestLayer(t, "overlay", lambert93, square(0, 0, 10, 10), square(0, 0, 2, 2))
	out, err := Intersection(context.Background(), in, overlay, IntersectionOptions{})
	if err != nil {
		t.Fatal(err)
	}
	want := []geom.Geom{geom.Point{X: 1, Y: 1}, geom.Point{X: 1, Y: 1}, geom.Point{X: 10, Y: 5}}
	have := make([]geom.Geom, out.Len())
	for i, f := range out.Features {
		have[i] = f.Geom
	}
	if diff := pretty.Diff(have, want); len(diff) > 0 {
		t.Errorf("geometries differ: %v", diff)
	}
	if out.Type != PointGeometry {
		t.Errorf("type: have %v, want %v", out.Type, PointGeometry)
	}
}

func TestIntersectionLine(t *testing.T) {
	in := newTestLayer(t, "in", lambert93, geom.LineString{{X: -5, Y: 5}, {X: 15, Y: 5}})
	overlay := newTestLayer(t, "overlay", lambert93, square(0, 0, 10, 10))
	out, err := Intersection(context.Background(), in, overlay, IntersectionOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if out.Len() != 1 {
		t.Fatalf("features: have %d, want 1", out.Len())
	}
	ml, ok := out.Features[0].Geom.(geom.MultiLineString)
	if !ok {
		t.Fatalf("have %T, want geom.MultiLineString", out.Features[0].Geom)
	}
	if have := ml.Length(); !floats.EqualWithinAbsOrRel(have, 10, testTolerance, testTolerance) {
		t.Errorf("length: have %g, want 10", have)
	}
}

func TestIntersectionAttributes(t *testing.T) {
	in := NewLayer("in", lambert93, UnknownGeometry)
	in.Add(&Feature{Geom: geom.Point{X: 1, Y: 1}, Attributes: map[string]string{"id": "1", "nom": "x"}})
	overlay := NewLayer("overlay", lambert93, UnknownGeometry)
	overlay.Add(&Feature{Geom: square(0, 0, 10, 10), Attributes: map[string]string{"id": "2"}})

	out, err := Intersection(context.Background(), in, overlay, IntersectionOptions{
		InputFields:   []string{"id"},
		OverlayFields: []string{"id"},
	})
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]string{"id": "1", "overlay_id": "2"}
	if diff := pretty.Diff(out.Features[0].Attributes, want); len(diff) > 0 {
		t.Errorf("attributes differ: %v", diff)
	}
}

func TestIntersectionEmpty(t *testing.T) {
	in := newTestLayer(t, "in", lambert93, square(0, 0, 10, 10))
	overlay := NewLayer("overlay", lambert93, PolygonGeometry)
	out, err := Intersection(context.Background(), in, overlay, IntersectionOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if out.Len() != 0 {
		t.Errorf("features: have %d, want 0", out.Len())
	}

	far := newTestLayer(t, "far", lambert93, square(100, 100, 110, 110))
	out, err = Intersection(context.Background(), in, far, IntersectionOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if out.Len() != 0 {
		t.Errorf("disjoint features: have %d, want 0", out.Len())
	}
}

func TestIntersectionUnsupportedOverlay(t *testing.T) {
	in := newTestLayer(t, "in", lambert93, square(0, 0, 10, 10))
	overlay := newTestLayer(t, "overlay", lambert93, geom.Point{X: 1, Y: 1})
	_, err := Intersection(context.Background(), in, overlay, IntersectionOptions{})
	if !errors.Is(err, ErrUnsupportedOverlay) {
		t.Errorf("have error %v, want %v", err, ErrUnsupportedOverlay)
	}
}

func TestSegmentCrossings(t *testing.T) {
	a, b := geom.Point{X: 0, Y: 0}, geom.Point{X: 10, Y: 0}
	tests := []struct {
		c, d geom.Point
		want []float64
	}{
		{c: geom.Point{X: 5, Y: -1}, d: geom.Point{X: 5, Y: 1}, want: []float64{0.5}},
		{c: geom.Point{X: 5, Y: 1}, d: geom.Point{X: 5, Y: 2}, want: nil},
		{c: geom.Point{X: 2, Y: 0}, d: geom.Point{X: 4, Y: 0}, want: []float64{0.2, 0.4}},
		{c: geom.Point{X: 0, Y: 1}, d: geom.Point{X: 10, Y: 1}, want: nil},
	}
	for i, test := range tests {
		have := segmentCrossings(a, b, test.c, test.d)
		if len(have) != len(test.want) {
			t.Errorf("%d: have %v, want %v", i, have, test.want)
			continue
		}
		if !floats.EqualApprox(have, test.want, testTolerance) {
			t.Errorf("%d: have %v, want %v", i, have, test.want)
		}
	}
}
