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
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/geojson"
	"github.com/ctessum/geom/encoding/shp"
	goshp "github.com/jonas-p/go-shp"
	"github.com/spf13/cast"
)

// ReadLayer reads the layer in the shapefile or GeoJSON file at path.
// If crs is not empty it is parsed with ParseCRS and used instead of the
// CRS stored with the file.
func ReadLayer(path, crs string) (*Layer, error) {
	var (
		l   *Layer
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".shp":
		l, err = readShapefile(path)
	case ".geojson", ".json":
		l, err = readGeoJSON(path)
	default:
		return nil, fmt.Errorf("geotraitement: unsupported layer file type '%s'", path)
	}
	if err != nil {
		return nil, err
	}
	if crs != "" {
		c, err := ParseCRS(crs)
		if err != nil {
			return nil, fmt.Errorf("geotraitement: CRS for layer %s: %v", path, err)
		}
		l.CRS = c
	}
	return l, nil
}

func layerName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

func readShapefile(path string) (*Layer, error) {
	f, err := shp.NewDecoder(path)
	if err != nil {
		return nil, fmt.Errorf("geotraitement: opening shapefile '%s': %v", path, err)
	}
	defer f.Close()

	l := NewLayer(layerName(path), CRS{}, UnknownGeometry)
	prj := strings.TrimSuffix(path, filepath.Ext(path)) + ".prj"
	if b, err := os.ReadFile(prj); err == nil {
		if c, err := ParseCRS(string(b)); err == nil {
			l.CRS = c
		}
	}

	var fields []string
	for _, fd := range f.Fields() {
		fields = append(fields, string(bytes.Trim(fd.Name[:], "\x00")))
	}
	for {
		g, attrs, more := f.DecodeRowFields(fields...)
		if !more {
			break
		}
		if g == nil {
			continue
		}
		if len(attrs) == 0 {
			attrs = nil
		}
		for k, v := range attrs {
			attrs[k] = strings.TrimSpace(strings.Trim(v, "\x00"))
		}
		if err := l.Add(&Feature{Geom: g, Attributes: attrs}); err != nil {
			return nil, fmt.Errorf("geotraitement: reading shapefile '%s': %v", path, err)
		}
	}
	if err := f.Error(); err != nil {
		return nil, fmt.Errorf("geotraitement: reading shapefile '%s': %v", path, err)
	}
	return l, nil
}

// writeShapefile writes l to the shapefile at path, with a .prj file
// when the CRS of l has a definition. Polygon shells are written
// clockwise and holes counter-clockwise.
func writeShapefile(path string, l *Layer) error {
	var t goshp.ShapeType
	switch l.Type {
	case PointGeometry:
		t = goshp.POINT
		for _, f := range l.Features {
			if _, ok := f.Geom.(geom.MultiPoint); ok {
				t = goshp.MULTIPOINT
				break
			}
		}
	case LineGeometry:
		t = goshp.POLYLINE
	default:
		t = goshp.POLYGON
	}

	names := l.Fields()
	fields := []goshp.Field{goshp.NumberField("FID", 10)}
	used := map[string]bool{"FID": true}
	for _, n := range names {
		fields = append(fields, goshp.StringField(shpFieldName(n, used), 254))
	}

	e, err := shp.NewEncoderFromFields(path, t, fields...)
	if err != nil {
		return fmt.Errorf("geotraitement: creating shapefile '%s': %v", path, err)
	}
	for i, f := range l.Features {
		g, err := shpGeom(f.Geom, t)
		if err != nil {
			e.Close()
			return fmt.Errorf("geotraitement: writing shapefile '%s': %v", path, err)
		}
		vals := make([]interface{}, len(fields))
		vals[0] = i
		for j, n := range names {
			vals[j+1] = f.Attributes[n]
		}
		if err := e.EncodeFields(g, vals...); err != nil {
			e.Close()
			return fmt.Errorf("geotraitement: writing shapefile '%s': %v", path, err)
		}
	}
	e.Close()

	if l.CRS.Definition != "" {
		prj := strings.TrimSuffix(path, filepath.Ext(path)) + ".prj"
		if err := os.WriteFile(prj, []byte(l.CRS.Definition), 0644); err != nil {
			return fmt.Errorf("geotraitement: creating prj file: %v", err)
		}
	}
	return nil
}

// shpFieldName returns name shortened to the 10 characters allowed in
// shapefile field names, made unique among the names in used.
func shpFieldName(name string, used map[string]bool) string {
	const max = 10
	n := name
	if len(n) > max {
		n = n[:max]
	}
	for i := 1; used[n]; i++ {
		s := fmt.Sprintf("_%d", i)
		base := name
		if len(base) > max-len(s) {
			base = base[:max-len(s)]
		}
		n = base + s
	}
	used[n] = true
	return n
}

// shpGeom converts g to a geometry the shapefile encoder supports for
// shape type t.
func shpGeom(g geom.Geom, t goshp.ShapeType) (geom.Geom, error) {
	switch v := g.(type) {
	case geom.Point:
		if t == goshp.MULTIPOINT {
			return geom.MultiPoint{v}, nil
		}
		return v, nil
	case geom.MultiPoint:
		return v, nil
	case geom.LineString:
		return geom.MultiLineString{v}, nil
	case geom.MultiLineString:
		return v, nil
	case geom.Polygon, geom.MultiPolygon:
		var o geom.Polygon
		for _, p := range splitPolygon(toPolygon(v.(geom.Polygonal))) {
			for i, r := range p {
				o = append(o, orient(r, i != 0))
			}
		}
		return o, nil
	default:
		return nil, fmt.Errorf("%v: %T", ErrUnsupportedGeometry, g)
	}
}

type geoJSONCRS struct {
	Type       string `json:"type"`
	Properties struct {
		Name string `json:"name"`
	} `json:"properties"`
}

type geoJSONFeature struct {
	Type       string                 `json:"type"`
	Geometry   json.RawMessage        `json:"geometry"`
	Properties map[string]interface{} `json:"properties"`
}

type geoJSONCollection struct {
	Type     string           `json:"type"`
	Name     string           `json:"name,omitempty"`
	CRS      *geoJSONCRS      `json:"crs,omitempty"`
	Features []geoJSONFeature `json:"features"`
}

func readGeoJSON(path string) (*Layer, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("geotraitement: reading GeoJSON '%s': %v", path, err)
	}
	var fc geoJSONCollection
	if err := json.Unmarshal(b, &fc); err != nil {
		return nil, fmt.Errorf("geotraitement: decoding GeoJSON '%s': %v", path, err)
	}
	if fc.Type != "FeatureCollection" {
		return nil, fmt.Errorf("geotraitement: GeoJSON '%s' is a %s, not a FeatureCollection", path, fc.Type)
	}
	name := fc.Name
	if name == "" {
		name = layerName(path)
	}
	crs := "EPSG:4326"
	if fc.CRS != nil && fc.CRS.Properties.Name != "" {
		crs = fc.CRS.Properties.Name
	}
	c, err := ParseCRS(crs)
	if err != nil {
		return nil, fmt.Errorf("geotraitement: GeoJSON '%s': %v", path, err)
	}
	l := NewLayer(name, c, UnknownGeometry)
	for i, f := range fc.Features {
		if len(f.Geometry) == 0 || string(f.Geometry) == "null" {
			continue
		}
		var gj geojson.Geometry
		if err := json.Unmarshal(f.Geometry, &gj); err != nil {
			return nil, fmt.Errorf("geotraitement: GeoJSON '%s' feature %d: %v", path, i, err)
		}
		g, err := fromGeoJSON(&gj)
		if err != nil {
			return nil, fmt.Errorf("geotraitement: GeoJSON '%s' feature %d: %v", path, i, err)
		}
		var attrs map[string]string
		if len(f.Properties) > 0 {
			attrs = make(map[string]string, len(f.Properties))
			for k, v := range f.Properties {
				if v == nil {
					continue
				}
				attrs[k] = cast.ToString(v)
			}
		}
		if err := l.Add(&Feature{Geom: g, Attributes: attrs}); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// fromGeoJSON decodes single and multi-part geometries.
func fromGeoJSON(g *geojson.Geometry) (geom.Geom, error) {
	parts := func(single string) ([]geom.Geom, error) {
		coords, ok := g.Coordinates.([]interface{})
		if !ok {
			return nil, geojson.InvalidGeometryError{}
		}
		o := make([]geom.Geom, len(coords))
		for i, c := range coords {
			p, err := geojson.FromGeoJSON(&geojson.Geometry{Type: single, Coordinates: c})
			if err != nil {
				return nil, err
			}
			o[i] = p
		}
		return o, nil
	}
	switch g.Type {
	case "MultiPoint":
		p, err := parts("Point")
		if err != nil {
			return nil, err
		}
		o := make(geom.MultiPoint, len(p))
		for i, pp := range p {
			o[i] = pp.(geom.Point)
		}
		return o, nil
	case "MultiLineString":
		p, err := parts("LineString")
		if err != nil {
			return nil, err
		}
		o := make(geom.MultiLineString, len(p))
		for i, pp := range p {
			o[i] = pp.(geom.LineString)
		}
		return o, nil
	case "MultiPolygon":
		p, err := parts("Polygon")
		if err != nil {
			return nil, err
		}
		o := make(geom.MultiPolygon, len(p))
		for i, pp := range p {
			o[i] = pp.(geom.Polygon)
		}
		return o, nil
	default:
		return geojson.FromGeoJSON(g)
	}
}

func coords(pts []geom.Point) [][]float64 {
	o := make([][]float64, len(pts))
	for i, p := range pts {
		o[i] = []float64{p.X, p.Y}
	}
	return o
}

func polygonCoords(p geom.Polygon) [][][]float64 {
	o := make([][][]float64, len(p))
	for i, r := range p {
		o[i] = coords(closeRing(append([]geom.Point{}, r...)))
	}
	return o
}

// toGeoJSON encodes g, splitting polygons into shells and holes.
func toGeoJSON(g geom.Geom) (*geojson.Geometry, error) {
	switch t := g.(type) {
	case geom.MultiPoint:
		return &geojson.Geometry{Type: "MultiPoint", Coordinates: coords(t)}, nil
	case geom.MultiLineString:
		c := make([][][]float64, len(t))
		for i, l := range t {
			c[i] = coords(l)
		}
		return &geojson.Geometry{Type: "MultiLineString", Coordinates: c}, nil
	case geom.Polygon, geom.MultiPolygon:
		mp := splitPolygon(toPolygon(t.(geom.Polygonal)))
		if len(mp) == 1 {
			return &geojson.Geometry{Type: "Polygon", Coordinates: polygonCoords(mp[0])}, nil
		}
		c := make([][][][]float64, len(mp))
		for i, p := range mp {
			c[i] = polygonCoords(p)
		}
		return &geojson.Geometry{Type: "MultiPolygon", Coordinates: c}, nil
	default:
		return geojson.ToGeoJSON(g)
	}
}

// writeGeoJSON writes l to path as a FeatureCollection. The CRS is
// recorded in a crs member unless it is EPSG:4326.
func writeGeoJSON(path string, l *Layer) error {
	fc := geoJSONCollection{
		Type:     "FeatureCollection",
		Name:     layerName(path),
		Features: make([]geoJSONFeature, 0, l.Len()),
	}
	if l.CRS.AuthID != "" && l.CRS.AuthID != "EPSG:4326" {
		fc.CRS = &geoJSONCRS{Type: "name"}
		name := l.CRS.AuthID
		if i := strings.Index(name, ":"); i > 0 && authCodeRE.MatchString(name) {
			name = "urn:ogc:def:crs:" + name[:i] + "::" + name[i+1:]
		}
		fc.CRS.Properties.Name = name
	}
	for i, f := range l.Features {
		g, err := toGeoJSON(f.Geom)
		if err != nil {
			return fmt.Errorf("geotraitement: encoding feature %d: %v", i, err)
		}
		b, err := json.Marshal(g)
		if err != nil {
			return fmt.Errorf("geotraitement: encoding feature %d: %v", i, err)
		}
		props := make(map[string]interface{}, len(f.Attributes))
		for k, v := range f.Attributes {
			props[k] = v
		}
		fc.Features = append(fc.Features, geoJSONFeature{Type: "Feature", Geometry: b, Properties: props})
	}
	b, err := json.MarshalIndent(fc, "", " ")
	if err != nil {
		return fmt.Errorf("geotraitement: encoding GeoJSON: %v", err)
	}
	if err := os.WriteFile(path, b, 0644); err != nil {
		return fmt.Errorf("geotraitement: writing GeoJSON '%s': %v", path, err)
	}
	return nil
}
