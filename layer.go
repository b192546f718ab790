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
	"fmt"
	"math"
	"sort"

	"github.com/ctessum/geom"
)

// GeometryType is the kind of geometry held by a Layer.
type GeometryType int

// These are the geometry types a Layer can hold. Single and multi-part
// geometries of the same kind share a type.
const (
	UnknownGeometry GeometryType = iota
	PointGeometry
	LineGeometry
	PolygonGeometry
)

func (t GeometryType) String() string {
	switch t {
	case PointGeometry:
		return "Point"
	case LineGeometry:
		return "Line"
	case PolygonGeometry:
		return "Polygon"
	default:
		return "Unknown"
	}
}

// geometryTypeOf returns the GeometryType of g.
func geometryTypeOf(g geom.Geom) (GeometryType, error) {
	switch g.(type) {
	case geom.Point, geom.MultiPoint:
		return PointGeometry, nil
	case geom.LineString, geom.MultiLineString:
		return LineGeometry, nil
	case geom.Polygon, geom.MultiPolygon:
		return PolygonGeometry, nil
	default:
		return UnknownGeometry, fmt.Errorf("%v: %T", ErrUnsupportedGeometry, g)
	}
}

// Feature is a geometry with attributes.
type Feature struct {
	geom.Geom
	Attributes map[string]string
}

// Layer is an ordered collection of features sharing a coordinate
// reference system and a geometry type.
type Layer struct {
	Name     string
	CRS      CRS
	Type     GeometryType
	Features []*Feature
}

// NewLayer returns an empty layer.
func NewLayer(name string, crs CRS, t GeometryType) *Layer {
	return &Layer{Name: name, CRS: crs, Type: t}
}

// Add appends f to the layer. The geometry of f must match the type
// of the layer; the first feature added to a layer of UnknownGeometry
// type sets its type.
func (l *Layer) Add(f *Feature) error {
	if f.Geom == nil {
		return fmt.Errorf("geotraitement: layer %s: feature without geometry", l.Name)
	}
	t, err := geometryTypeOf(f.Geom)
	if err != nil {
		return fmt.Errorf("geotraitement: layer %s: %v", l.Name, err)
	}
	if l.Type == UnknownGeometry {
		l.Type = t
	} else if t != l.Type {
		return fmt.Errorf("geotraitement: layer %s holds %v geometries; can't add %v",
			l.Name, l.Type, t)
	}
	l.Features = append(l.Features, f)
	return nil
}

// Len returns the number of features in l.
func (l *Layer) Len() int { return len(l.Features) }

// Bounds returns the extent of all features in l.
func (l *Layer) Bounds() *geom.Bounds {
	b := geom.NewBounds()
	for _, f := range l.Features {
		b.Extend(f.Bounds())
	}
	return b
}

// Area returns the summed area of the polygonal features in l.
func (l *Layer) Area() float64 {
	var a float64
	for _, f := range l.Features {
		if p, ok := f.Geom.(geom.Polygonal); ok {
			a += math.Abs(p.Area())
		}
	}
	return a
}

// Fields returns the sorted names of all attributes present in l.
func (l *Layer) Fields() []string {
	names := make(map[string]struct{})
	for _, f := range l.Features {
		for k := range f.Attributes {
			names[k] = struct{}{}
		}
	}
	o := make([]string, 0, len(names))
	for k := range names {
		o = append(o, k)
	}
	sort.Strings(o)
	return o
}

// selectAttributes returns the attributes in a whose names are in
// fields. It returns nil when nothing is selected.
func selectAttributes(a map[string]string, fields []string) map[string]string {
	if len(fields) == 0 || len(a) == 0 {
		return nil
	}
	o := make(map[string]string)
	for _, f := range fields {
		if v, ok := a[f]; ok {
			o[f] = v
		}
	}
	if len(o) == 0 {
		return nil
	}
	return o
}

func copyAttributes(a map[string]string) map[string]string {
	if a == nil {
		return nil
	}
	o := make(map[string]string, len(a))
	for k, v := range a {
		o[k] = v
	}
	return o
}
