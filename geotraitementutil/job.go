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
	"fmt"
	"io"

	"github.com/BurntSushi/toml"
)

// Job describes one algorithm run.
type Job struct {
	// Algorithm is the algorithm identifier, for example
	// "geotraitement:proximite".
	Algorithm string

	// Sources maps feature source parameter names to layer paths.
	Sources map[string]string

	// CRS maps feature source parameter names to CRS definitions that
	// override the ones stored with the layers.
	CRS map[string]string

	// Distances maps distance parameter names to buffer distances.
	// Missing distances take their default value.
	Distances map[string]float64

	// Output is the path of the output layer.
	Output string

	// LogFile is the path of the log file. By default it is the output
	// path with a .log extension.
	LogFile string
}

// ReadJob reads a TOML job description from r.
func ReadJob(r io.Reader) (*Job, error) {
	j := new(Job)
	if _, err := toml.DecodeReader(r, j); err != nil {
		return nil, fmt.Errorf("geotraitement: reading job file: %v", err)
	}
	if j.Algorithm == "" {
		return nil, fmt.Errorf("geotraitement: job file does not specify an Algorithm")
	}
	if j.Output == "" {
		return nil, fmt.Errorf("geotraitement: job file does not specify an Output")
	}
	return j, nil
}
