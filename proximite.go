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
)

// Parameter names of the proximite algorithm.
const (
	SourceParameter        = "SOURCE"
	SuperpositionParameter = "SUPERPOSITION"
	BufferDistParameter    = "BUFFERDIST"
)

// Proximite finds the parts of the features of a source layer that lie
// within a buffer distance of the features of a superposition layer.
// Both layers must have the same CRS.
type Proximite struct{}

// NewProximite returns a new Proximite algorithm.
func NewProximite() Algorithm { return &Proximite{} }

// Name returns "proximite".
func (*Proximite) Name() string { return "proximite" }

// DisplayName returns "Objets à proximité".
func (*Proximite) DisplayName() string { return "Objets à proximité" }

// Group returns the name of the algorithm group.
func (*Proximite) Group() string { return Group }

// GroupID returns the identifier of the algorithm group.
func (*Proximite) GroupID() string { return GroupID }

// ShortHelp describes the algorithm.
func (*Proximite) ShortHelp() string {
	return "Trouve les objets d'une couche situé à un certain rayon des objets d'une autre couche."
}

// Parameters returns the SOURCE, SUPERPOSITION, BUFFERDIST and OUTPUT
// parameters.
func (*Proximite) Parameters() []ParameterDefinition {
	return []ParameterDefinition{
		{Name: SourceParameter, Description: "Couche d'intérêt", Kind: FeatureSourceParameter},
		{Name: SuperpositionParameter, Description: "Couche sur laquelle sera faite le tampon", Kind: FeatureSourceParameter},
		{
			Name:        BufferDistParameter,
			Description: "Distance du tampon",
			Kind:        DistanceParameter,
			Default:     1000,
			Parent:      SuperpositionParameter,
		},
		{Name: OutputParameter, Description: "Sortie", Kind: VectorDestinationParameter},
	}
}

// layers returns the source and superposition layers.
func (*Proximite) layers(p *Parameters) (src, sup *Layer, err error) {
	if src, err = p.Source(SourceParameter); err != nil {
		return nil, nil, err
	}
	if sup, err = p.Source(SuperpositionParameter); err != nil {
		return nil, nil, err
	}
	return src, sup, nil
}

// Validate checks that both layers are present and that the buffer
// distance is not negative.
func (a *Proximite) Validate(p *Parameters) error {
	if _, _, err := a.layers(p); err != nil {
		return err
	}
	return checkDistance(p, parameter(a, BufferDistParameter))
}

// Process reports the CRS of both layers, checks that they are the
// same, then buffers the superposition layer without dissolving and
// intersects the source layer with the result. No attributes are kept.
func (a *Proximite) Process(ctx context.Context, p *Parameters, fb Feedback) (Results, error) {
	if fb == nil {
		fb = nopFeedback{}
	}
	src, sup, err := a.layers(p)
	if err != nil {
		return nil, err
	}
	fb.PushInfo(fmt.Sprintf("Source CRS is %s", src.CRS))
	fb.PushInfo(fmt.Sprintf("Superposition CRS is %s", sup.CRS))
	if !src.CRS.Equal(sup.CRS) {
		return nil, &CRSMismatchError{Source: src.CRS.String(), Superposition: sup.CRS.String()}
	}

	d := p.Distance(parameter(a, BufferDistParameter))
	fb.PushInfo(fmt.Sprintf("Buffering %s by %s", SuperpositionParameter, describeDistance(d, sup)))
	buf, err := Buffer(ctx, sup, d, DefaultBufferOptions())
	if err != nil {
		return nil, fmt.Errorf("geotraitement: proximite: %w", err)
	}
	fb.SetProgress(0.5)

	fb.PushInfo(fmt.Sprintf("Intersecting %s with %s", SourceParameter, buf.Name))
	out, err := Intersection(ctx, src, buf, IntersectionOptions{})
	if err != nil {
		return nil, fmt.Errorf("geotraitement: proximite: %w", err)
	}
	fb.SetProgress(1)
	return Results{OutputParameter: out}, nil
}
