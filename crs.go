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
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/ctessum/geom/proj"
	"github.com/ctessum/unit"
)

// CRS is a coordinate reference system. Two CRS are considered the same
// when their authority identifiers are identical; no reprojection is
// ever attempted.
type CRS struct {
	// AuthID is the authority identifier, for example "EPSG:2154".
	AuthID string

	// Definition is the WKT or PROJ.4 text the CRS was created from,
	// if any. It is written to the .prj file of shapefile outputs.
	Definition string

	// SR is the parsed spatial reference. It is nil when the
	// definition could not be parsed.
	SR *proj.SR
}

var (
	authCodeRE  = regexp.MustCompile(`^[A-Za-z]+:[0-9]+$`)
	wktAuthRE   = regexp.MustCompile(`AUTHORITY\[\s*"([^"]+)"\s*,\s*"?([0-9]+)"?\s*\]`)
	projInitRE  = regexp.MustCompile(`\+init=([A-Za-z]+):([0-9]+)`)
	ogcURNRE    = regexp.MustCompile(`(?i)^urn:ogc:def:crs:([A-Za-z]+):[^:]*:([0-9]+)$`)
	ogcCRS84URN = regexp.MustCompile(`(?i)^urn:ogc:def:crs:OGC:[^:]*:CRS84$`)
)

// knownCRS holds definitions for the authority codes that can be given
// without a definition.
var knownCRS = map[string]string{
	"EPSG:4326":  `GEOGCS["WGS 84",DATUM["WGS_1984",SPHEROID["WGS 84",6378137,298.257223563,AUTHORITY["EPSG","7030"]],AUTHORITY["EPSG","6326"]],PRIMEM["Greenwich",0,AUTHORITY["EPSG","8901"]],UNIT["degree",0.0174532925199433,AUTHORITY["EPSG","9122"]],AUTHORITY["EPSG","4326"]]`,
	"EPSG:4171":  `GEOGCS["RGF93",DATUM["Reseau_Geodesique_Francais_1993",SPHEROID["GRS 1980",6378137,298.257222101,AUTHORITY["EPSG","7019"]],TOWGS84[0,0,0,0,0,0,0],AUTHORITY["EPSG","6171"]],PRIMEM["Greenwich",0,AUTHORITY["EPSG","8901"]],UNIT["degree",0.0174532925199433,AUTHORITY["EPSG","9122"]],AUTHORITY["EPSG","4171"]]`,
	"EPSG:32631": `PROJCS["WGS 84 / UTM zone 31N",GEOGCS["WGS 84",DATUM["WGS_1984",SPHEROID["WGS 84",6378137,298.257223563,AUTHORITY["EPSG","7030"]],AUTHORITY["EPSG","6326"]],PRIMEM["Greenwich",0,AUTHORITY["EPSG","8901"]],UNIT["degree",0.0174532925199433,AUTHORITY["EPSG","9122"]],AUTHORITY["EPSG","4326"]],PROJECTION["Transverse_Mercator"],PARAMETER["latitude_of_origin",0],PARAMETER["central_meridian",3],PARAMETER["scale_factor",0.9996],PARAMETER["false_easting",500000],PARAMETER["false_northing",0],UNIT["metre",1,AUTHORITY["EPSG","9001"]],AXIS["Easting",EAST],AXIS["Northing",NORTH],AUTHORITY["EPSG","32631"]]`,
	"EPSG:2154":  `PROJCS["RGF93 / Lambert-93",GEOGCS["RGF93",DATUM["Reseau_Geodesique_Francais_1993",SPHEROID["GRS 1980",6378137,298.257222101,AUTHORITY["EPSG","7019"]],TOWGS84[0,0,0,0,0,0,0],AUTHORITY["EPSG","6171"]],PRIMEM["Greenwich",0,AUTHORITY["EPSG","8901"]],UNIT["degree",0.0174532925199433,AUTHORITY["EPSG","9122"]],AUTHORITY["EPSG","4171"]],PROJECTION["Lambert_Conformal_Conic_2SP"],PARAMETER["standard_parallel_1",49],PARAMETER["standard_parallel_2",44],PARAMETER["latitude_of_origin",46.5],PARAMETER["central_meridian",3],PARAMETER["false_easting",700000],PARAMETER["false_northing",6600000],UNIT["metre",1,AUTHORITY["EPSG","9001"]],AXIS["X",EAST],AXIS["Y",NORTH],AUTHORITY["EPSG","2154"]]`,
}

var (
	knownSROnce sync.Once
	knownSR     map[string]*proj.SR
	knownCodes  []string
)

// matchKnownCRS returns the code of the known CRS with the same
// projection, parameters, ellipsoid and unit as sr, or "" if there is
// none. ESRI .prj files carry no AUTHORITY clause and are identified
// this way.
func matchKnownCRS(sr *proj.SR) string {
	knownSROnce.Do(func() {
		knownSR = make(map[string]*proj.SR)
		for code, def := range knownCRS {
			if ksr, err := proj.Parse(def); err == nil {
				knownSR[code] = ksr
				knownCodes = append(knownCodes, code)
			}
		}
		sort.Strings(knownCodes)
	})
	for _, code := range knownCodes {
		if sameSR(sr, knownSR[code]) {
			return code
		}
	}
	return ""
}

// projectionName returns the name of the projection of sr without the
// variant suffixes that ESRI and EPSG spell differently.
func projectionName(sr *proj.SR) string {
	n := strings.ToLower(sr.Name)
	n = strings.TrimSuffix(n, "_2sp")
	return strings.TrimSuffix(n, "_1sp")
}

func sameSR(a, b *proj.SR) bool {
	if projectionName(a) != projectionName(b) {
		return false
	}
	for _, v := range [][2]float64{
		{a.Lat0, b.Lat0}, {a.Lat1, b.Lat1}, {a.Lat2, b.Lat2}, {a.Long0, b.Long0},
		{a.X0, b.X0}, {a.Y0, b.Y0}, {a.K0, b.K0},
		{a.A, b.A}, {a.Rf, b.Rf}, {a.ToMeter, b.ToMeter},
	} {
		if !sameFloat(v[0], v[1]) {
			return false
		}
	}
	return true
}

func sameFloat(a, b float64) bool {
	if math.IsNaN(a) || math.IsNaN(b) {
		return math.IsNaN(a) && math.IsNaN(b)
	}
	return math.Abs(a-b) <= 1e-9*math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
}

// ParseCRS creates a CRS from an authority code ("EPSG:2154"), an OGC
// URN, a WKT string or a PROJ.4 string. The authority identifier is
// taken from the code itself, from the last AUTHORITY clause of a WKT
// string, from the +init parameter of a PROJ.4 string, from a known CRS
// with the same parameters, or from the name of the projection, in that
// order.
func ParseCRS(def string) (CRS, error) {
	def = strings.TrimSpace(def)
	if def == "" {
		return CRS{}, fmt.Errorf("geotraitement: empty CRS definition")
	}
	if ogcCRS84URN.MatchString(def) {
		def = "EPSG:4326"
	} else if m := ogcURNRE.FindStringSubmatch(def); m != nil {
		def = m[1] + ":" + m[2]
	}
	if authCodeRE.MatchString(def) {
		c := CRS{AuthID: strings.ToUpper(def)}
		if d, ok := knownCRS[c.AuthID]; ok {
			c.Definition = d
			if sr, err := proj.Parse(d); err == nil {
				c.SR = sr
			}
		}
		return c, nil
	}

	c := CRS{Definition: def}
	if m := wktAuthRE.FindAllStringSubmatch(def, -1); len(m) > 0 {
		last := m[len(m)-1]
		c.AuthID = strings.ToUpper(last[1]) + ":" + last[2]
	} else if m := projInitRE.FindStringSubmatch(def); m != nil {
		c.AuthID = strings.ToUpper(m[1]) + ":" + m[2]
	}
	sr, err := proj.Parse(def)
	if err != nil {
		if c.AuthID == "" {
			return CRS{}, fmt.Errorf("geotraitement: parsing CRS: %v", err)
		}
		return c, nil
	}
	c.SR = sr
	if c.AuthID == "" {
		c.AuthID = matchKnownCRS(sr)
	}
	if c.AuthID == "" {
		if name := strings.Trim(sr.SRSCode, "\" "); name != "" {
			c.AuthID = name
		} else {
			c.AuthID = def
		}
	}
	return c, nil
}

// MustParseCRS is like ParseCRS but panics if the definition cannot be
// parsed.
func MustParseCRS(def string) CRS {
	c, err := ParseCRS(def)
	if err != nil {
		panic(err)
	}
	return c
}

// Equal returns whether c and c2 have the same authority identifier.
func (c CRS) Equal(c2 CRS) bool {
	return c.AuthID == c2.AuthID
}

func (c CRS) String() string {
	if c.AuthID == "" {
		return "unknown"
	}
	return c.AuthID
}

// LinearUnit returns one unit of distance of c expressed in meters.
// It returns false when c is geographic or has no parsed definition.
func (c CRS) LinearUnit() (*unit.Unit, bool) {
	if c.SR == nil || c.SR.Name == "longlat" {
		return nil, false
	}
	toMeter := c.SR.ToMeter
	if toMeter == 0 {
		toMeter = 1
	}
	return unit.New(toMeter, unit.Meter), true
}
