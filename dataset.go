/*
Copyright © 2026 the climstats authors.
This file is part of climstats.

climstats is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

climstats is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with climstats.  If not, see <http://www.gnu.org/licenses/>.
*/

package climstats

import (
	"bytes"
	"fmt"
	"sort"
)

// Role identifies the kind of coordinate a variable provides.
type Role string

// Coordinate roles recognized from unit metadata.
const (
	Latitude  Role = "latitude"
	Longitude Role = "longitude"
	Time      Role = "time"
)

// Dataset is a collection of dimensions and variables with global
// attributes. Variables are classified as coordinate, data or ancillary
// variables each time one is added.
type Dataset struct {
	dims   []*Dimension
	vars   []*Variable
	byName map[string]*Variable
	attrs  *Attributes

	coords       map[Role]*Variable
	data         []*Variable
	ancillary    []*Variable
	unclassified []*Variable
	timeDim      DimID
	classified   bool
}

// NewDataset creates an empty dataset with the given global attributes,
// which may be nil.
func NewDataset(attrs *Attributes) *Dataset {
	return &Dataset{
		byName:  make(map[string]*Variable),
		attrs:   attrs.Clone(),
		coords:  make(map[Role]*Variable),
		timeDim: -1,
	}
}

// Attributes returns the global attributes. Changes to the returned
// value are reflected in the dataset.
func (d *Dataset) Attributes() *Attributes { return d.attrs }

// AddDimension adds a new dimension. Unlimited dimensions may start at
// size zero and grow as values are assigned.
func (d *Dataset) AddDimension(name string, size int, unlimited bool) (*Dimension, error) {
	if name == "" {
		return nil, fmt.Errorf("climstats: dimension name must not be empty: %w", ErrConfiguration)
	}
	if size < 0 {
		return nil, fmt.Errorf("climstats: dimension %s has negative size %d: %w", name, size, ErrBounds)
	}
	if _, ok := d.dimID(name); ok {
		return nil, fmt.Errorf("climstats: dimension %s: %w", name, ErrDuplicateDim)
	}
	dim := &Dimension{name: name, size: size, unlimited: unlimited}
	d.dims = append(d.dims, dim)
	return dim, nil
}

func (d *Dataset) dimID(name string) (DimID, bool) {
	for i, dim := range d.dims {
		if dim.name == name {
			return DimID(i), true
		}
	}
	return -1, false
}

// Dimension returns the named dimension.
func (d *Dataset) Dimension(name string) (*Dimension, error) {
	id, ok := d.dimID(name)
	if !ok {
		return nil, fmt.Errorf("climstats: dimension %s: %w", name, ErrUnknownDimension)
	}
	return d.dims[id], nil
}

// Dimensions returns all dimensions in the order they were added.
func (d *Dataset) Dimensions() []*Dimension {
	return append([]*Dimension(nil), d.dims...)
}

func (d *Dataset) dim(id DimID) *Dimension { return d.dims[id] }

// AddVariable creates an in-memory variable over the named dimensions,
// with every value missing, and registers it with the dataset.
func (d *Dataset) AddVariable(name string, dims []string, dtype DType, attrs *Attributes) (*Variable, error) {
	ids, err := d.resolveDims(name, dims)
	if err != nil {
		return nil, err
	}
	shape := make([]int, len(ids))
	for i, id := range ids {
		shape[i] = d.dims[id].size
	}
	return d.register(name, ids, dtype, attrs, newMemStorage(shape))
}

// AddVariableStorage registers a variable whose values are held in s.
// The shape of s must match the current sizes of dims.
func (d *Dataset) AddVariableStorage(name string, dims []string, dtype DType, attrs *Attributes, s Storage) (*Variable, error) {
	ids, err := d.resolveDims(name, dims)
	if err != nil {
		return nil, err
	}
	shape := s.Shape()
	if len(shape) != len(ids) {
		return nil, fmt.Errorf("climstats: variable %s: storage rank %d does not match %d dimensions: %w",
			name, len(shape), len(ids), ErrBounds)
	}
	for i, id := range ids {
		if shape[i] != d.dims[id].size {
			return nil, fmt.Errorf("climstats: variable %s: storage size %d does not match dimension %s size %d: %w",
				name, shape[i], d.dims[id].name, d.dims[id].size, ErrBounds)
		}
	}
	return d.register(name, ids, dtype, attrs, s)
}

func (d *Dataset) resolveDims(name string, dims []string) ([]DimID, error) {
	if name == "" {
		return nil, fmt.Errorf("climstats: variable name must not be empty: %w", ErrConfiguration)
	}
	if _, ok := d.byName[name]; ok {
		return nil, fmt.Errorf("climstats: variable %s: %w", name, ErrDuplicateVariable)
	}
	ids := make([]DimID, len(dims))
	for i, dn := range dims {
		id, ok := d.dimID(dn)
		if !ok {
			return nil, fmt.Errorf("climstats: variable %s: dimension %s: %w", name, dn, ErrUnknownDimension)
		}
		for _, prev := range ids[:i] {
			if prev == id {
				return nil, fmt.Errorf("climstats: variable %s uses dimension %s twice: %w", name, dn, ErrConfiguration)
			}
		}
		ids[i] = id
	}
	return ids, nil
}

func (d *Dataset) register(name string, dims []DimID, dtype DType, attrs *Attributes, s Storage) (*Variable, error) {
	if dtype < Byte || dtype > Double {
		return nil, fmt.Errorf("climstats: variable %s has invalid type %v: %w", name, dtype, ErrConfiguration)
	}
	v := &Variable{
		name:  name,
		ds:    d,
		dims:  dims,
		dtype: dtype,
		attrs: attrs.Clone(),
		store: s,
	}
	d.vars = append(d.vars, v)
	d.byName[name] = v
	d.classify()
	return v, nil
}

// Variable returns the named variable.
func (d *Dataset) Variable(name string) (*Variable, error) {
	v, ok := d.byName[name]
	if !ok {
		return nil, fmt.Errorf("climstats: variable %s: %w", name, ErrUnknownVariable)
	}
	return v, nil
}

// Variables returns every registered variable in registration order.
func (d *Dataset) Variables() []*Variable {
	return append([]*Variable(nil), d.vars...)
}

// Coordinates returns the coordinate variables by role.
func (d *Dataset) Coordinates() map[Role]*Variable {
	o := make(map[Role]*Variable, len(d.coords))
	for r, v := range d.coords {
		o[r] = v
	}
	return o
}

// Coordinate returns the coordinate variable for role.
func (d *Dataset) Coordinate(role Role) (*Variable, error) {
	v, ok := d.coords[role]
	if !ok {
		return nil, fmt.Errorf("climstats: %s: %w", role, ErrUnknownCoordinate)
	}
	return v, nil
}

// DataVariables returns the variables that vary along the time
// dimension, sorted by name.
func (d *Dataset) DataVariables() []*Variable { return append([]*Variable(nil), d.data...) }

// Ancillary returns the non-coordinate variables that do not vary along
// the time dimension, sorted by name.
func (d *Dataset) Ancillary() []*Variable { return append([]*Variable(nil), d.ancillary...) }

// Unclassified returns the non-coordinate variables while the dataset
// has no time coordinate.
func (d *Dataset) Unclassified() []*Variable { return append([]*Variable(nil), d.unclassified...) }

// Classified reports whether a time coordinate has been identified.
func (d *Dataset) Classified() bool { return d.classified }

// TimeDimension returns the dimension of the time coordinate.
func (d *Dataset) TimeDimension() (*Dimension, error) {
	if !d.classified {
		return nil, fmt.Errorf("climstats: dataset: %w", ErrNoTimeCoordinate)
	}
	return d.dims[d.timeDim], nil
}

// grow grows dimension id to size n along with the storage of every
// variable that uses it.
func (d *Dataset) grow(id DimID, n int) error {
	dim := d.dims[id]
	if n <= dim.size {
		return nil
	}
	if !dim.unlimited {
		return dim.grow(n)
	}
	for _, v := range d.vars {
		axis := v.axis(id)
		if axis < 0 {
			continue
		}
		shape := v.Shape()
		shape[axis] = n
		if err := v.store.Grow(shape); err != nil {
			return fmt.Errorf("climstats: growing variable %s along %s: %w", v.name, dim.name, err)
		}
	}
	return dim.grow(n)
}

// CopyVariable adds a new in-memory variable to d holding the values of
// src. The dimensions of src must exist in d by name with sizes equal to
// the shape of src. If name is empty the name of the source variable is
// used.
func (d *Dataset) CopyVariable(src *View, name string) (*Variable, error) {
	if name == "" {
		name = src.v.name
	}
	dims := src.v.DimNames()
	shape := src.Shape()
	for i, dn := range dims {
		dim, err := d.Dimension(dn)
		if err != nil {
			return nil, fmt.Errorf("climstats: copying %s: %w", name, err)
		}
		if dim.size != shape[i] {
			return nil, fmt.Errorf("climstats: copying %s: dimension %s has size %d, want %d: %w",
				name, dn, dim.size, shape[i], ErrBounds)
		}
	}
	vals, err := src.Get()
	if err != nil {
		return nil, err
	}
	ids, err := d.resolveDims(name, dims)
	if err != nil {
		return nil, err
	}
	s := newMemStorage(shape)
	if err := s.Write(make([]int, len(shape)), vals); err != nil {
		return nil, err
	}
	return d.register(name, ids, src.v.dtype, src.v.attrs, s)
}

func (d *Dataset) String() string {
	b := new(bytes.Buffer)
	fmt.Fprintln(b, "dimensions:")
	for _, dim := range d.dims {
		fmt.Fprintf(b, "\t%s ;\n", dim)
	}
	fmt.Fprintln(b, "variables:")
	vars := d.Variables()
	sort.Slice(vars, func(i, j int) bool { return vars[i].name < vars[j].name })
	for _, v := range vars {
		fmt.Fprintf(b, "\t%s ;\n", v)
		for _, a := range v.attrs.All() {
			fmt.Fprintf(b, "\t\t%s:%s ;\n", v.name, a)
		}
	}
	if d.attrs.Len() > 0 {
		fmt.Fprintln(b, "// global attributes:")
		for _, a := range d.attrs.All() {
			fmt.Fprintf(b, "\t\t:%s ;\n", a)
		}
	}
	return b.String()
}
