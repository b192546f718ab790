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
	"os"
	"path/filepath"
	"strings"
)

// Sink receives the final layer of an algorithm.
type Sink interface {
	Write(l *Layer) error
}

// MemorySink is a Sink that keeps the layer in memory.
type MemorySink struct {
	Layer *Layer

	// Writes is the number of times Write has been called.
	Writes int
}

// Write stores l.
func (s *MemorySink) Write(l *Layer) error {
	s.Layer = l
	s.Writes++
	return nil
}

// FileSink is a Sink that writes a shapefile or a GeoJSON file. The
// files are created in a temporary directory next to the destination
// and moved into place once complete, so a failed write leaves nothing
// at the destination.
type FileSink struct {
	Path string
	w    func(path string, l *Layer) error
	exts []string
}

// NewFileSink returns a sink writing to path. The format is chosen from
// the file extension: ".shp" for a shapefile, ".geojson" or ".json"
// for GeoJSON.
func NewFileSink(path string) (*FileSink, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".shp":
		return &FileSink{Path: path, w: writeShapefile, exts: []string{".shp", ".shx", ".dbf", ".prj"}}, nil
	case ".geojson", ".json":
		return &FileSink{Path: path, w: writeGeoJSON, exts: []string{filepath.Ext(path)}}, nil
	default:
		return nil, fmt.Errorf("geotraitement: unsupported output file type '%s'", path)
	}
}

// Write writes l to the destination file(s), replacing any existing
// ones.
func (s *FileSink) Write(l *Layer) error {
	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return fmt.Errorf("geotraitement: creating output directory: %v", err)
	}
	tmp, err := os.MkdirTemp(dir, ".geotraitement-")
	if err != nil {
		return fmt.Errorf("geotraitement: creating temporary directory: %v", err)
	}
	defer os.RemoveAll(tmp)

	base := filepath.Base(s.Path)
	if err := s.w(filepath.Join(tmp, base), l); err != nil {
		return err
	}
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	destStem := strings.TrimSuffix(s.Path, filepath.Ext(s.Path))
	for _, ext := range s.exts {
		src := filepath.Join(tmp, stem+ext)
		if ext == filepath.Ext(base) {
			src = filepath.Join(tmp, base)
		}
		dst := destStem + ext
		if ext == filepath.Ext(base) {
			dst = s.Path
		}
		if _, err := os.Stat(src); os.IsNotExist(err) {
			// Remove sidecar files left over from an earlier run.
			os.Remove(dst)
			continue
		}
		if err := os.Rename(src, dst); err != nil {
			return fmt.Errorf("geotraitement: moving output into place: %v", err)
		}
	}
	return nil
}
