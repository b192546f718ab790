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

// Feature source parameter names of the lieux_propices algorithm.
const (
	GareParameter    = "gare"
	EspaceVParameter = "espaceV"
	MetroParameter   = "metro"
	PiscineParameter = "piscine"
)

// lieuxPropicesLayers lists the reference layers in processing order,
// paired as (gare, espaceV) and (metro, piscine).
var lieuxPropicesLayers = []string{GareParameter, EspaceVParameter, MetroParameter, PiscineParameter}

// DistanceParameterName returns the name of the distance parameter that
// goes with the feature source parameter layer.
func DistanceParameterName(layer string) string { return "BUFFERDIST_" + layer }

// LieuxPropices finds the zones lying within given distances of train
// stations, green spaces, metro entrances and pools at the same time.
type LieuxPropices struct{}

// NewLieuxPropices returns a new LieuxPropices algorithm.
func NewLieuxPropices() Algorithm { return &LieuxPropices{} }

// Name returns "lieux_propices".
func (*LieuxPropices) Name() string { return "lieux_propices" }

// DisplayName returns "Lieux Propices".
func (*LieuxPropices) DisplayName() string { return "Lieux Propices" }

// Group returns the name of the algorithm group.
func (*LieuxPropices) Group() string { return Group }

// GroupID returns the identifier of the algorithm group.
func (*LieuxPropices) GroupID() string { return GroupID }

// ShortHelp describes the algorithm.
func (*LieuxPropices) ShortHelp() string {
	return "Trouve les zones situés en même temps à des distances définis des " +
		"gares, espaces verts, métros et piscines."
}

// Parameters returns the four feature source parameters, their buffer
// distances, and OUTPUT.
func (*LieuxPropices) Parameters() []ParameterDefinition {
	return []ParameterDefinition{
		{Name: GareParameter, Description: "Couche des gares SNCF", Kind: FeatureSourceParameter},
		{Name: EspaceVParameter, Description: "Couche des espaces verts", Kind: FeatureSourceParameter},
		{Name: MetroParameter, Description: "Couche des entrées et sorties de métro", Kind: FeatureSourceParameter},
		{Name: PiscineParameter, Description: "Couche des piscines", Kind: FeatureSourceParameter},
		{Name: DistanceParameterName(GareParameter), Description: "Distance du tampon pour les gares SNCF",
			Kind: DistanceParameter, Default: 1000, Parent: GareParameter},
		{Name: DistanceParameterName(EspaceVParameter), Description: "Distance du tampon pour les espaces verts",
			Kind: DistanceParameter, Default: 200, Parent: EspaceVParameter},
		{Name: DistanceParameterName(MetroParameter), Description: "Distance du tampon pour les métros",
			Kind: DistanceParameter, Default: 300, Parent: MetroParameter},
		{Name: DistanceParameterName(PiscineParameter), Description: "Distance du tampon pour les piscines",
			Kind: DistanceParameter, Default: 500, Parent: PiscineParameter},
		{Name: OutputParameter, Description: "Sortie", Kind: VectorDestinationParameter},
	}
}

// Validate checks that all four layers are present and that no
// buffer distance is negative. The layers' CRS are not compared.
func (a *LieuxPropices) Validate(p *Parameters) error {
	for _, name := range lieuxPropicesLayers {
		if _, err := p.Source(name); err != nil {
			return err
		}
	}
	for _, name := range lieuxPropicesLayers {
		if err := checkDistance(p, parameter(a, DistanceParameterName(name))); err != nil {
			return err
		}
	}
	return nil
}

// Process buffers each layer with dissolving, intersects the gare and
// espaceV buffers, then the metro and piscine buffers, and finally
// intersects the two results.
func (a *LieuxPropices) Process(ctx context.Context, p *Parameters, fb Feedback) (Results, error) {
	if fb == nil {
		fb = nopFeedback{}
	}
	layers := make([]*Layer, len(lieuxPropicesLayers))
	for i, name := range lieuxPropicesLayers {
		l, err := p.Source(name)
		if err != nil {
			return nil, err
		}
		layers[i] = l
		fb.PushInfo(fmt.Sprintf("%s CRS is %s", name, l.CRS))
	}
	for i, l := range layers[1:] {
		if !l.CRS.Equal(layers[0].CRS) {
			fb.PushWarning(fmt.Sprintf("%s CRS %s differs from %s CRS %s; layers are not reprojected",
				lieuxPropicesLayers[i+1], l.CRS, lieuxPropicesLayers[0], layers[0].CRS))
		}
	}

	const steps = 7
	step := 0
	progress := func() {
		step++
		fb.SetProgress(float64(step) / steps)
	}

	opts := DefaultBufferOptions()
	opts.Dissolve = true
	buffers := make([]*Layer, len(layers))
	for i, l := range layers {
		name := lieuxPropicesLayers[i]
		d := p.Distance(parameter(a, DistanceParameterName(name)))
		fb.PushInfo(fmt.Sprintf("Buffering %s by %s", name, describeDistance(d, l)))
		b, err := Buffer(ctx, l, d, opts)
		if err != nil {
			return nil, fmt.Errorf("geotraitement: lieux_propices: %s: %w", name, err)
		}
		buffers[i] = b
		progress()
	}

	intersect := func(in, overlay *Layer) (*Layer, error) {
		fb.PushInfo(fmt.Sprintf("Intersecting %s with %s", in.Name, overlay.Name))
		o, err := Intersection(ctx, in, overlay, IntersectionOptions{})
		if err != nil {
			return nil, fmt.Errorf("geotraitement: lieux_propices: %w", err)
		}
		progress()
		return o, nil
	}
	gareEspaceV, err := intersect(buffers[0], buffers[1])
	if err != nil {
		return nil, err
	}
	metroPiscine, err := intersect(buffers[2], buffers[3])
	if err != nil {
		return nil, err
	}
	out, err := intersect(gareEspaceV, metroPiscine)
	if err != nil {
		return nil, err
	}
	return Results{OutputParameter: out}, nil
}
