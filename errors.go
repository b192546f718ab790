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
	"errors"
	"fmt"
)

var (
	// ErrNegativeDistance is returned when a buffer distance is negative
	// or not a number.
	ErrNegativeDistance = errors.New("geotraitement: buffer distance must be a non-negative number")

	// ErrUnsupportedOverlay is returned when the overlay of an
	// intersection is not polygonal.
	ErrUnsupportedOverlay = errors.New("geotraitement: intersection overlay must be polygonal")

	// ErrUnsupportedGeometry is returned for geometry types that can't
	// be processed.
	ErrUnsupportedGeometry = errors.New("geotraitement: unsupported geometry type")

	// ErrMissingOutput is returned when an algorithm is run without an
	// output sink.
	ErrMissingOutput = errors.New("geotraitement: missing output destination")
)

// InvalidSourceError is returned when a required feature source parameter
// is missing or can't be loaded.
type InvalidSourceError struct {
	Parameter string
}

func (e *InvalidSourceError) Error() string {
	return fmt.Sprintf("geotraitement: invalid source parameter %s", e.Parameter)
}

// CRSMismatchError is returned when two layers that must share a
// coordinate reference system do not.
type CRSMismatchError struct {
	Source, Superposition string
}

func (e *CRSMismatchError) Error() string {
	return fmt.Sprintf("geotraitement: source CRS %s does not match superposition CRS %s",
		e.Source, e.Superposition)
}
