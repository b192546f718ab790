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
	"math"
	"strings"
	"testing"

	"github.com/ctessum/geom"
	"github.com/kr/pretty"
)

func proximiteParams(t *testing.T, srcCRS, supCRS CRS) (*Parameters, *MemorySink) {
	src := newTestLayer(t, "source", srcCRS,
		geom.Point{X: 0, Y: 0},
		geom.Point{X: 500, Y: 0},
		geom.Point{X: 5000, Y: 0},
	)
	sup := newTestLayer(t, "superposition", supCRS,
		geom.Point{X: 0, Y: 0},
		geom.Point{X: 100, Y: 0},
	)
	sink := new(MemorySink)
	return &Parameters{
		Sources: map[string]*Layer{
			SourceParameter:        src,
			SuperpositionParameter: sup,
		},
		Output: sink,
	}, sink
}

func TestProximite(t *testing.T) {
	p, sink := proximiteParams(t, lambert93, lambert93)
	fb := new(MemoryFeedback)
	r, err := Run(context.Background(), NewProximite(), p, fb)
	if err != nil {
		t.Fatal(err)
	}
	out := r[OutputParameter]
	if sink.Writes != 1 || sink.Layer != out {
		t.Errorf("sink: %d writes of %v", sink.Writes, sink.Layer)
	}
	// Buffers are not dissolved, so a source point near both
	// superposition points is output twice.
	want := []geom.Geom{
		geom.Point{X: 0, Y: 0}, geom.Point{X: 0, Y: 0},
		geom.Point{X: 500, Y: 0}, geom.Point{X: 500, Y: 0},
	}
	have := make([]geom.Geom, out.Len())
	for i, f := range out.Features {
		have[i] = f.Geom
		if len(f.Attributes) != 0 {
			t.Errorf("feature %d has attributes %v", i, f.Attributes)
		}
	}
	if diff := pretty.Diff(have, want); len(diff) > 0 {
		t.Errorf("output differs: %v", diff)
	}
	if !out.CRS.Equal(lambert93) || out.Type != PointGeometry {
		t.Errorf("output is %v in %v", out.Type, out.CRS)
	}

	wantInfo := []string{
		"Source CRS is EPSG:2154",
		"Superposition CRS is EPSG:2154",
		"Buffering SUPERPOSITION by 1000",
		"Intersecting SOURCE with buffer_",
		"proximite wrote 4 features",
	}
	if len(fb.Info) != len(wantInfo) {
		t.Fatalf("info: have %v", fb.Info)
	}
	for i, w := range wantInfo {
		if !strings.HasPrefix(fb.Info[i], w) {
			t.Errorf("info %d: have %q, want prefix %q", i, fb.Info[i], w)
		}
	}
	if diff := pretty.Diff(fb.Progress, []float64{0.5, 1}); len(diff) > 0 {
		t.Errorf("progress differs: %v", diff)
	}
}

func TestProximiteCRSMismatch(t *testing.T) {
	p, sink := proximiteParams(t, lambert93, MustParseCRS("EPSG:4326"))
	if err := NewProximite().Validate(p); err != nil {
		t.Fatalf("validate: %v", err)
	}
	fb := new(MemoryFeedback)
	_, err := Run(context.Background(), NewProximite(), p, fb)
	var e *CRSMismatchError
	if !errors.As(err, &e) {
		t.Fatalf("have error %v, want *CRSMismatchError", err)
	}
	if e.Source != "EPSG:2154" || e.Superposition != "EPSG:4326" {
		t.Errorf("error: %+v", e)
	}
	if sink.Writes != 0 {
		t.Error("nothing should be written")
	}
	wantInfo := []string{"Source CRS is EPSG:2154", "Superposition CRS is EPSG:4326"}
	if diff := pretty.Diff(fb.Info, wantInfo); len(diff) > 0 {
		t.Errorf("info differs: %v", diff)
	}
	if len(fb.Progress) != 0 {
		t.Errorf("buffering should not start: progress %v", fb.Progress)
	}
}

func TestProximiteMissingSource(t *testing.T) {
	p, sink := proximiteParams(t, lambert93, lambert93)
	delete(p.Sources, SourceParameter)
	_, err := Run(context.Background(), NewProximite(), p, nil)
	var e *InvalidSourceError
	if !errors.As(err, &e) {
		t.Fatalf("have error %v, want *InvalidSourceError", err)
	}
	if e.Parameter != SourceParameter {
		t.Errorf("parameter: have %s, want %s", e.Parameter, SourceParameter)
	}
	if sink.Writes != 0 {
		t.Error("nothing should be written")
	}
}

func TestProximiteNegativeDistance(t *testing.T) {
	p, sink := proximiteParams(t, lambert93, lambert93)
	p.Distances = map[string]float64{BufferDistParameter: -5}
	_, err := Run(context.Background(), NewProximite(), p, nil)
	if !errors.Is(err, ErrNegativeDistance) {
		t.Errorf("have error %v, want %v", err, ErrNegativeDistance)
	}
	if sink.Writes != 0 {
		t.Error("nothing should be written")
	}
}

func TestProximiteDistance(t *testing.T) {
	p, _ := proximiteParams(t, lambert93, lambert93)
	p.Distances = map[string]float64{BufferDistParameter: 50}
	r, err := Run(context.Background(), NewProximite(), p, nil)
	if err != nil {
		t.Fatal(err)
	}
	// Only the source point at the origin is within 50 of the
	// superposition point there.
	if have := r[OutputParameter].Len(); have != 1 {
		t.Errorf("features: have %d, want 1", have)
	}
}

func TestProximiteEmptySource(t *testing.T) {
	p, sink := proximiteParams(t, lambert93, lambert93)
	p.Sources[SourceParameter] = NewLayer("empty", lambert93, PolygonGeometry)
	r, err := Run(context.Background(), NewProximite(), p, nil)
	if err != nil {
		t.Fatal(err)
	}
	if r[OutputParameter].Len() != 0 || sink.Writes != 1 {
		t.Errorf("have %d features and %d writes", r[OutputParameter].Len(), sink.Writes)
	}
}

func TestProximitePolygons(t *testing.T) {
	src := newTestLayer(t, "source", lambert93,
		square(0, 0, 100, 100),
		square(5000, 5000, 5100, 5100),
	)
	sup := newTestLayer(t, "superposition", lambert93, geom.Point{X: 0, Y: 0})
	p := &Parameters{
		Sources: map[string]*Layer{
			SourceParameter:        src,
			SuperpositionParameter: sup,
		},
		Output: new(MemorySink),
	}
	r, err := Run(context.Background(), NewProximite(), p, nil)
	if err != nil {
		t.Fatal(err)
	}
	out := r[OutputParameter]
	if out.Len() != 1 || out.Type != PolygonGeometry {
		t.Fatalf("have %d %v features, want 1 polygon", out.Len(), out.Type)
	}
	b, err := Buffer(context.Background(), sup, 1000, DefaultBufferOptions())
	if err != nil {
		t.Fatal(err)
	}
	a := out.Area()
	if a > src.Area()+testTolerance || a > b.Area()+testTolerance {
		t.Errorf("area %g exceeds source %g or buffer %g", a, src.Area(), b.Area())
	}
	if math.Abs(a-10000) > testTolerance {
		t.Errorf("area: have %g, want 10000", a)
	}
}

func TestProximitePolygonSuperposition(t *testing.T) {
	sup := newTestLayer(t, "superposition", lambert93, regularPolygon(geom.Point{X: 0, Y: 0}, 100, 8))
	run := func(src *Layer) *Layer {
		p := &Parameters{
			Sources: map[string]*Layer{
				SourceParameter:        src,
				SuperpositionParameter: sup,
			},
			Distances: map[string]float64{BufferDistParameter: 50},
			Output:    new(MemorySink),
		}
		r, err := Run(context.Background(), NewProximite(), p, nil)
		if err != nil {
			t.Fatal(err)
		}
		return r[OutputParameter]
	}

	pts := run(newTestLayer(t, "source", lambert93,
		geom.Point{X: 0, Y: 0},
		geom.Point{X: 130, Y: 0},
		geom.Point{X: 0, Y: 140},
		geom.Point{X: 300, Y: 0},
	))
	want := []geom.Geom{
		geom.Point{X: 0, Y: 0},
		geom.Point{X: 130, Y: 0},
		geom.Point{X: 0, Y: 140},
	}
	have := make([]geom.Geom, pts.Len())
	for i, f := range pts.Features {
		have[i] = f.Geom
	}
	if diff := pretty.Diff(have, want); len(diff) > 0 {
		t.Errorf("points differ: %v", diff)
	}

	polys := run(newTestLayer(t, "source", lambert93, square(-10, -10, 10, 10), square(90, -10, 110, 10)))
	if polys.Len() != 2 {
		t.Fatalf("polygons: have %d, want 2", polys.Len())
	}
	if a := polys.Area(); math.Abs(a-800) > testTolerance {
		t.Errorf("area: have %g, want 800", a)
	}
}
