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
	"sort"
	"strings"
	"sync"
)

// Factory creates a new instance of an algorithm.
type Factory func() Algorithm

// Provider is a registry of algorithms. Algorithms are identified as
// "<provider id>:<algorithm name>".
type Provider struct {
	ID, Name string

	mu        sync.RWMutex
	factories map[string]Factory
}

// NewProvider returns an empty provider.
func NewProvider(id, name string) *Provider {
	return &Provider{ID: id, Name: name, factories: make(map[string]Factory)}
}

// Register adds the algorithm created by f to the provider.
func (p *Provider) Register(f Factory) error {
	name := f().Name()
	if name == "" || strings.Contains(name, ":") {
		return fmt.Errorf("geotraitement: invalid algorithm name %q", name)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.factories[name]; ok {
		return fmt.Errorf("geotraitement: algorithm %s:%s is already registered", p.ID, name)
	}
	p.factories[name] = f
	return nil
}

// Algorithm returns a new instance of the algorithm with identifier id,
// given either as "<provider id>:<name>" or as the bare name.
func (p *Provider) Algorithm(id string) (Algorithm, error) {
	name := id
	if i := strings.Index(id, ":"); i >= 0 {
		if id[:i] != p.ID {
			return nil, fmt.Errorf("geotraitement: algorithm %s does not belong to provider %s", id, p.ID)
		}
		name = id[i+1:]
	}
	p.mu.RLock()
	f, ok := p.factories[name]
	p.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("geotraitement: unknown algorithm %s", id)
	}
	return f(), nil
}

// Algorithms returns the sorted identifiers of all registered
// algorithms.
func (p *Provider) Algorithms() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	o := make([]string, 0, len(p.factories))
	for name := range p.factories {
		o = append(o, p.ID+":"+name)
	}
	sort.Strings(o)
	return o
}

var (
	defaultProvider     *Provider
	defaultProviderOnce sync.Once
)

// DefaultProvider returns the provider holding the algorithms of this
// package.
func DefaultProvider() *Provider {
	defaultProviderOnce.Do(func() {
		defaultProvider = NewProvider("geotraitement", "Geotraitement")
		for _, f := range []Factory{NewProximite, NewLieuxPropices} {
			if err := defaultProvider.Register(f); err != nil {
				panic(err)
			}
		}
	})
	return defaultProvider
}
