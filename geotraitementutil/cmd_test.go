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

package geotraitementutil

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ctessum/geom"
	"github.com/nicolas-roelandt/geotraitement"
)

// writePoints writes a point shapefile in EPSG:2154 to dir and returns
// its path.
func writePoints(t *testing.T, dir, name string, pts ...geom.Point) string {
	l := geotraitement.NewLayer(name, geotraitement.MustParseCRS("EPSG:2154"), geotraitement.PointGeometry)
	for _, p := range pts {
		if err := l.Add(&geotraitement.Feature{Geom: p, Attributes: map[string]string{"nom": name}}); err != nil {
			t.Fatal(err)
		}
	}
	path := filepath.Join(dir, name+".shp")
	s, err := geotraitement.NewFileSink(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Write(l); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestVersion(t *testing.T) {
	var buf bytes.Buffer
	Root.SetOutput(&buf)
	defer Root.SetOutput(nil)
	Cfg.Set("config", "")
	Root.SetArgs([]string{"version"})
	if err := Root.Execute(); err != nil {
		t.Fatal(err)
	}
	if have, want := buf.String(), "geotraitement v"+geotraitement.Version+"\n"; have != want {
		t.Errorf("have %q, want %q", have, want)
	}
}

func TestList(t *testing.T) {
	var buf bytes.Buffer
	Root.SetOutput(&buf)
	defer Root.SetOutput(nil)
	Cfg.Set("config", "")
	Root.SetArgs([]string{"list"})
	if err := Root.Execute(); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"geotraitement:proximite\tObjets à proximité (Scripts PyQGIS)",
		"geotraitement:lieux_propices\tLieux Propices (Scripts PyQGIS)",
		"\tBUFFERDIST_espaceV\tdistance, default 200",
	} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("output does not contain %q:\n%s", want, buf.String())
		}
	}
}

func TestProximiteCmd(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "proches.shp")
	var buf bytes.Buffer
	Root.SetOutput(&buf)
	defer Root.SetOutput(nil)

	Cfg.Set("config", "")
	Cfg.Set("Source", writePoints(t, dir, "batiments", geom.Point{X: 0, Y: 0}, geom.Point{X: 3000, Y: 0}))
	Cfg.Set("Superposition", writePoints(t, dir, "arrets", geom.Point{X: 10, Y: 10}))
	Cfg.Set("BufferDist", 500.0)
	Cfg.Set("OutputFile", out)
	Cfg.Set("LogFile", "")
	Cfg.Set("CRS", "")
	Root.SetArgs([]string{"proximite"})
	if err := Root.Execute(); err != nil {
		t.Fatal(err)
	}

	l, err := geotraitement.ReadLayer(out, "")
	if err != nil {
		t.Fatal(err)
	}
	if l.Len() != 1 {
		t.Errorf("features: have %d, want 1", l.Len())
	}
	log, err := os.ReadFile(filepath.Join(dir, "proches.log"))
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Buffering SUPERPOSITION by 500", "msg=done"} {
		if !strings.Contains(string(log), want) {
			t.Errorf("log does not contain %q:\n%s", want, log)
		}
	}
	if !strings.Contains(buf.String(), "msg=done") {
		t.Errorf("command output does not contain the log:\n%s", buf.String())
	}
}

func TestProximiteCmdCRSMismatch(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "proches.shp")
	Root.SetOutput(new(bytes.Buffer))
	defer Root.SetOutput(nil)

	Cfg.Set("config", "")
	Cfg.Set("Source", writePoints(t, dir, "batiments", geom.Point{X: 0, Y: 0}))
	Cfg.Set("Superposition", writePoints(t, dir, "arrets", geom.Point{X: 10, Y: 10}))
	Cfg.Set("BufferDist", 500.0)
	Cfg.Set("OutputFile", out)
	Cfg.Set("LogFile", "")
	Cfg.Set("CRS", `{"SUPERPOSITION":"EPSG:4326"}`)
	defer Cfg.Set("CRS", "")
	Root.SetArgs([]string{"proximite"})
	if err := Root.Execute(); err == nil {
		t.Fatal("expected a CRS mismatch error")
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Errorf("output should not exist: %v", err)
	}
}

func TestLieuxPropicesCmd(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "lieux.geojson")
	Root.SetOutput(new(bytes.Buffer))
	defer Root.SetOutput(nil)

	Cfg.Set("config", "")
	Cfg.Set("Gare", writePoints(t, dir, "gares", geom.Point{X: 0, Y: 0}))
	Cfg.Set("EspaceV", writePoints(t, dir, "parcs", geom.Point{X: 50, Y: 0}))
	Cfg.Set("Metro", writePoints(t, dir, "metros", geom.Point{X: 0, Y: 50}))
	Cfg.Set("Piscine", writePoints(t, dir, "piscines", geom.Point{X: 50, Y: 50}))
	Cfg.Set("BufferDistGare", 1000.0)
	Cfg.Set("BufferDistEspaceV", 200.0)
	Cfg.Set("BufferDistMetro", 300.0)
	Cfg.Set("BufferDistPiscine", 500.0)
	Cfg.Set("OutputFile", out)
	Cfg.Set("LogFile", filepath.Join(dir, "lieux_propices.log"))
	Cfg.Set("CRS", "")
	Root.SetArgs([]string{"lieuxpropices"})
	if err := Root.Execute(); err != nil {
		t.Fatal(err)
	}

	l, err := geotraitement.ReadLayer(out, "")
	if err != nil {
		t.Fatal(err)
	}
	if l.Len() != 1 || l.Type != geotraitement.PolygonGeometry {
		t.Errorf("read %v layer with %d features", l.Type, l.Len())
	}
	if l.CRS.AuthID != "EPSG:2154" {
		t.Errorf("crs: have %s, want EPSG:2154", l.CRS.AuthID)
	}
	if _, err := os.Stat(filepath.Join(dir, "lieux_propices.log")); err != nil {
		t.Errorf("log file: %v", err)
	}
}

func TestLieuxPropicesCmdMissingLayer(t *testing.T) {
	dir := t.TempDir()
	Root.SetOutput(new(bytes.Buffer))
	defer Root.SetOutput(nil)

	Cfg.Set("config", "")
	Cfg.Set("Gare", writePoints(t, dir, "gares", geom.Point{X: 0, Y: 0}))
	Cfg.Set("EspaceV", writePoints(t, dir, "parcs", geom.Point{X: 50, Y: 0}))
	Cfg.Set("Metro", "")
	Cfg.Set("Piscine", writePoints(t, dir, "piscines", geom.Point{X: 50, Y: 50}))
	Cfg.Set("OutputFile", filepath.Join(dir, "lieux.shp"))
	Cfg.Set("LogFile", "")
	Cfg.Set("CRS", "")
	Root.SetArgs([]string{"lieuxpropices"})
	err := Root.Execute()
	if err == nil || !strings.Contains(err.Error(), "invalid source parameter metro") {
		t.Errorf("have error %v", err)
	}
}
