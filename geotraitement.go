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

// Package geotraitement holds geoprocessing algorithms that chain buffer and
// intersection operations over vector layers: finding the objects of a
// layer that lie near the objects of another layer ("proximite"), and
// finding the zones that lie simultaneously near train stations, green
// spaces, metro entrances and pools ("lieux_propices").
//
// The buffer and intersection primitives the algorithms are built from are
// also exported, together with readers and writers for shapefile and
// GeoJSON layers.
package geotraitement

// Version gives the version number.
const Version = "1.0.0"

// Group and GroupID identify the group all algorithms in this package
// belong to.
const (
	Group   = "Scripts PyQGIS"
	GroupID = "scriptspyqgis"
)

// OutputParameter is the name of the destination parameter shared by
// all algorithms.
const OutputParameter = "OUTPUT"
