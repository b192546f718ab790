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
	"testing"

	"github.com/ctessum/geom"
	"gonum.org/v1/gonum/floats"
)

func TestPositiveFill(t *testing.T) {
	ccw := func(p geom.Polygon) []geom.Point { return orient(p[0], true) }
	cw := func(p geom.Polygon) []geom.Point { return orient(p[0], false) }
	tests := []struct {
		name      string
		in        [][]geom.Point
		wantArea  float64
		wantRings int
		inside    []geom.Point
		outside   []geom.Point
	}{
		{
			name:      "identical",
			in:        [][]geom.Point{ccw(square(0, 0, 10, 10)), ccw(square(0, 0, 10, 10))},
			wantArea:  100,
			wantRings: 1,
			inside:    []geom.Point{{X: 5, Y: 5}},
		},
		{
			name:      "shared edge",
			in:        [][]geom.Point{ccw(square(0, 0, 10, 10)), ccw(square(10, 0, 20, 10))},
			wantArea:  200,
			wantRings: 1,
			inside:    []geom.Point{{X: 10, Y: 5}, {X: 15, Y: 5}},
		},
		{
			name:      "shared corner",
			in:        [][]geom.Point{ccw(square(0, 0, 10, 10)), ccw(square(10, 10, 20, 20))},
			wantArea:  200,
			wantRings: 2,
			outside:   []geom.Point{{X: 15, Y: 5}, {X: 5, Y: 15}},
		},
		{
			name:      "hole",
			in:        [][]geom.Point{ccw(square(0, 0, 10, 10)), cw(square(2, 2, 8, 8))},
			wantArea:  64,
			wantRings: 2,
			inside:    []geom.Point{{X: 1, Y: 5}},
			outside:   []geom.Point{{X: 5, Y: 5}},
		},
		{
			name:      "nested",
			in:        [][]geom.Point{ccw(square(0, 0, 10, 10)), ccw(square(2, 2, 4, 4))},
			wantArea:  100,
			wantRings: 1,
			inside:    []geom.Point{{X: 3, Y: 3}, {X: 6, Y: 6}},
		},
		{
			name:      "crossing",
			in:        [][]geom.Point{ccw(square(0, 0, 10, 10)), ccw(square(5, -5, 15, 5))},
			wantArea:  175,
			wantRings: 1,
			inside:    []geom.Point{{X: 12, Y: 0}, {X: 7, Y: 7}},
			outside:   []geom.Point{{X: 12, Y: 8}},
		},
		{
			name:      "hole filled by another shell",
			in:        [][]geom.Point{ccw(square(0, 0, 10, 10)), cw(square(2, 2, 8, 8)), ccw(square(1, 1, 9, 9))},
			wantArea:  100,
			wantRings: 1,
			inside:    []geom.Point{{X: 5, Y: 5}},
		},
		{
			name:     "cancelled",
			in:       [][]geom.Point{ccw(square(0, 0, 10, 10)), cw(square(0, 0, 10, 10))},
			wantArea: 0,
			outside:  []geom.Point{{X: 5, Y: 5}},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			p := positiveFill(test.in)
			if len(p) != test.wantRings {
				t.Errorf("rings: have %d, want %d", len(p), test.wantRings)
			}
			if have := p.Area(); !floats.EqualWithinAbsOrRel(have, test.wantArea, testTolerance, testTolerance) {
				t.Errorf("area: have %g, want %g", have, test.wantArea)
			}
			for _, pt := range test.inside {
				if pt.Within(p) == geom.Outside {
					t.Errorf("%v should be covered", pt)
				}
			}
			for _, pt := range test.outside {
				if pt.Within(p) != geom.Outside {
					t.Errorf("%v should not be covered", pt)
				}
			}
			for _, r := range p {
				if !r[0].Equals(r[len(r)-1]) {
					t.Errorf("ring %v is not closed", r)
				}
			}
		})
	}
}

func TestPositiveFillOrientation(t *testing.T) {
	p := positiveFill([][]geom.Point{
		orient(square(0, 0, 10, 10)[0], true),
		orient(square(3, 3, 6, 6)[0], false),
	})
	if len(p) != 2 {
		t.Fatalf("rings: have %d, want 2", len(p))
	}
	var shells, holes int
	for _, r := range p {
		if signedArea(r) > 0 {
			shells++
		} else {
			holes++
		}
	}
	if shells != 1 || holes != 1 {
		t.Errorf("have %d shells and %d holes, want 1 and 1", shells, holes)
	}
}

func TestPositiveFillEmpty(t *testing.T) {
	if p := positiveFill(nil); p != nil {
		t.Errorf("have %v, want nil", p)
	}
	degenerate := []geom.Point{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 0}}
	if p := positiveFill([][]geom.Point{degenerate}); p != nil {
		t.Errorf("have %v, want nil", p)
	}
}

func TestPositiveFillLargeCoordinates(t *testing.T) {
	// Lambert-93 coordinates around Paris.
	const x0, y0 = 652000., 6862000.
	p := positiveFill([][]geom.Point{
		orient(square(x0, y0, x0+10, y0+10)[0], true),
		orient(square(x0+10, y0, x0+20, y0+10)[0], true),
		orient(square(x0+5, y0+5, x0+15, y0+15)[0], true),
	})
	if len(p) != 1 {
		t.Fatalf("rings: have %d, want 1", len(p))
	}
	if have := p.Area(); !floats.EqualWithinAbsOrRel(have, 250, testTolerance, testTolerance) {
		t.Errorf("area: have %g, want 250", have)
	}
}
