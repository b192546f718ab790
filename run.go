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

// Run validates p for alg, runs alg, and writes its OUTPUT layer to
// p.Output. Nothing is written if any step fails.
func Run(ctx context.Context, alg Algorithm, p *Parameters, fb Feedback) (Results, error) {
	if fb == nil {
		fb = nopFeedback{}
	}
	if p == nil || p.Output == nil {
		return nil, ErrMissingOutput
	}
	if err := alg.Validate(p); err != nil {
		return nil, err
	}
	r, err := alg.Process(ctx, p, fb)
	if err != nil {
		return nil, err
	}
	out, ok := r[OutputParameter]
	if !ok || out == nil {
		return nil, fmt.Errorf("geotraitement: %s produced no %s layer", alg.Name(), OutputParameter)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := p.Output.Write(out); err != nil {
		return nil, fmt.Errorf("geotraitement: writing %s output: %v", alg.Name(), err)
	}
	fb.PushInfo(fmt.Sprintf("%s wrote %d features", alg.Name(), out.Len()))
	return r, nil
}
