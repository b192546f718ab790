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
	"fmt"
	"math"

	"github.com/ctessum/unit"
)

// ParameterKind is the kind of value an algorithm parameter takes.
type ParameterKind int

// Parameter kinds.
const (
	FeatureSourceParameter ParameterKind = iota
	DistanceParameter
	VectorDestinationParameter
)

func (k ParameterKind) String() string {
	switch k {
	case FeatureSourceParameter:
		return "feature source"
	case DistanceParameter:
		return "distance"
	case VectorDestinationParameter:
		return "vector destination"
	default:
		return fmt.Sprintf("ParameterKind(%d)", int(k))
	}
}

// ParameterDefinition describes one parameter of an algorithm.
type ParameterDefinition struct {
	Name        string
	Description string
	Kind        ParameterKind

	// Default is the default value of distance parameters.
	Default float64

	// Parent is the name of the feature source parameter whose CRS
	// gives the unit of a distance parameter.
	Parent string
}

// Parameters holds the values an algorithm is run with.
type Parameters struct {
	// Sources holds the feature source parameters, by name.
	Sources map[string]*Layer

	// Distances holds the distance parameters, by name. Missing
	// distances take their default value.
	Distances map[string]float64

	// Output receives the result of the algorithm.
	Output Sink
}

// Source returns the feature source parameter called name, or an
// *InvalidSourceError if it is missing.
func (p *Parameters) Source(name string) (*Layer, error) {
	if p == nil || p.Sources == nil {
		return nil, &InvalidSourceError{Parameter: name}
	}
	l, ok := p.Sources[name]
	if !ok || l == nil {
		return nil, &InvalidSourceError{Parameter: name}
	}
	return l, nil
}

// Distance returns the value of distance parameter def.
func (p *Parameters) Distance(def ParameterDefinition) float64 {
	if p != nil && p.Distances != nil {
		if d, ok := p.Distances[def.Name]; ok {
			return d
		}
	}
	return def.Default
}

// Results holds the layers produced by an algorithm, by output
// parameter name.
type Results map[string]*Layer

// Algorithm is a geoprocessing algorithm.
type Algorithm interface {
	// Name is the identifier of the algorithm within its provider.
	Name() string

	// DisplayName is the human readable name of the algorithm.
	DisplayName() string

	Group() string
	GroupID() string

	// ShortHelp describes what the algorithm does.
	ShortHelp() string

	// Parameters returns the definitions of the parameters the
	// algorithm takes.
	Parameters() []ParameterDefinition

	// Validate checks that p holds everything the algorithm needs
	// before any processing is done.
	Validate(p *Parameters) error

	// Process runs the algorithm. It does not write to p.Output.
	Process(ctx context.Context, p *Parameters, fb Feedback) (Results, error)
}

// parameter returns the definition of the parameter called name.
func parameter(a Algorithm, name string) ParameterDefinition {
	for _, d := range a.Parameters() {
		if d.Name == name {
			return d
		}
	}
	panic(fmt.Errorf("geotraitement: algorithm %s has no parameter %s", a.Name(), name))
}

// checkDistance returns an error if the distance parameter def is
// negative.
func checkDistance(p *Parameters, def ParameterDefinition) error {
	if d := p.Distance(def); d < 0 || math.IsNaN(d) {
		return fmt.Errorf("geotraitement: parameter %s: %w", def.Name, ErrNegativeDistance)
	}
	return nil
}

// describeDistance returns a description of distance d in the unit of
// the CRS of l, converted to meters when the CRS is projected.
func describeDistance(d float64, l *Layer) string {
	if u, ok := l.CRS.LinearUnit(); ok {
		return fmt.Sprintf("%g (%v)", d, unit.Mul(unit.New(d, unit.Dimless), u))
	}
	return fmt.Sprintf("%g", d)
}
