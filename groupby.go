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
	"fmt"
	"math"
	"sort"

	"github.com/ctessum/sparse"
	"github.com/sirupsen/logrus"
)

// Group is a set of window-relative positions along a coordinate that
// are reduced together.
type Group struct {
	Key     string
	Indices []int
}

// GroupingFunc partitions the positions of a 1-D coordinate into groups.
type GroupingFunc func(coord *View) ([]Group, error)

// Reducer collapses an array along one axis. The returned array must
// have one element for each position of a along the other axes.
// Reducers treat NaN as missing.
type Reducer struct {
	Name  string
	Units string // units of the result, if they differ from the input
	Func  func(a *sparse.DenseArray, axis int) (*sparse.DenseArray, error)
}

// group is a Group whose positions are either a contiguous range
// [start, stop) or an explicit list.
type group struct {
	key         string
	start, stop int
	indices     []int // nil when contiguous
}

func (g group) last() int {
	if g.indices == nil {
		return g.stop - 1
	}
	return g.indices[len(g.indices)-1]
}

func (g group) positions() []int {
	if g.indices != nil {
		return g.indices
	}
	o := make([]int, g.stop-g.start)
	for i := range o {
		o[i] = g.start + i
	}
	return o
}

// GroupBy holds the partition of a view along one of its coordinates.
type GroupBy struct {
	label    string
	source   *View
	coord    *View
	groups   []group
	warnings []error
}

// GroupBy partitions the view along the coordinate for role using fn.
// Groups are ordered by the coordinate value at their last position.
func (w *View) GroupBy(role Role, fn GroupingFunc) (*GroupBy, error) {
	if fn == nil {
		return nil, fmt.Errorf("climstats: %s: no grouping function: %w", w.v.name, ErrConfiguration)
	}
	c, err := w.Coordinate(role)
	if err != nil {
		return nil, err
	}
	if len(c.v.dims) != 1 {
		return nil, fmt.Errorf("climstats: %s: grouping by coordinate %s: %w", w.v.name, c.v.name, ErrMultiDimCoordinate)
	}
	raw, err := fn(c)
	if err != nil {
		return nil, fmt.Errorf("climstats: %s: grouping by %s: %v: %w", w.v.name, role, err, ErrGrouping)
	}
	vals, err := c.Values()
	if err != nil {
		return nil, err
	}
	n := len(vals)
	seen := make(map[string]bool, len(raw))
	owner := make(map[int]string, n)
	groups := make([]group, len(raw))
	for i, r := range raw {
		if len(r.Indices) == 0 {
			return nil, fmt.Errorf("climstats: %s: group %q is empty: %w", w.v.name, r.Key, ErrGrouping)
		}
		if seen[r.Key] {
			return nil, fmt.Errorf("climstats: %s: duplicate group %q: %w", w.v.name, r.Key, ErrGrouping)
		}
		seen[r.Key] = true
		contiguous := true
		for j, x := range r.Indices {
			if x < 0 || x >= n {
				return nil, fmt.Errorf("climstats: %s: group %q index %d out of range [0, %d): %w",
					w.v.name, r.Key, x, n, ErrGrouping)
			}
			if k, ok := owner[x]; ok {
				return nil, fmt.Errorf("climstats: %s: index %d is in both group %q and group %q: %w",
					w.v.name, x, k, r.Key, ErrGrouping)
			}
			owner[x] = r.Key
			if j > 0 && x != r.Indices[j-1]+1 {
				contiguous = false
			}
		}
		if contiguous {
			groups[i] = group{key: r.Key, start: r.Indices[0], stop: r.Indices[len(r.Indices)-1] + 1}
		} else {
			groups[i] = group{key: r.Key, indices: append([]int(nil), r.Indices...)}
		}
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return vals[groups[i].last()] < vals[groups[j].last()]
	})
	return &GroupBy{label: string(role), source: w, coord: c, groups: groups}, nil
}

// Len returns the number of groups.
func (g *GroupBy) Len() int { return len(g.groups) }

// Keys returns the group keys in output order.
func (g *GroupBy) Keys() []string {
	o := make([]string, len(g.groups))
	for i, gr := range g.groups {
		o[i] = gr.key
	}
	return o
}

// Indices returns the positions belonging to group i.
func (g *GroupBy) Indices(i int) []int { return append([]int(nil), g.groups[i].positions()...) }

// Contiguous reports whether group i covers a contiguous range.
func (g *GroupBy) Contiguous(i int) bool { return g.groups[i].indices == nil }

// Warnings returns the non-fatal problems recorded by Apply.
func (g *GroupBy) Warnings() []error { return append([]error(nil), g.warnings...) }

// ApplyOptions control GroupBy.Apply.
type ApplyOptions struct {
	// Name of the result variable. Defaults to "<source>_<reducer>".
	Name string

	// Units of the result variable. Defaults to the reducer's units,
	// or the source units if the reducer does not declare any.
	Units string

	// Tolerance is the minimum fraction of valid samples a group needs
	// for its result to be valid. Results are masked where the fraction
	// is strictly less than Tolerance, so zero never masks.
	Tolerance float64

	// Scale and Offset are applied to every value before reducing:
	// value*Scale + Offset. A Scale of zero is treated as one.
	Scale, Offset float64

	// Log receives warnings. Defaults to the standard logrus logger.
	Log logrus.FieldLogger
}

// Apply reduces each group with r and returns the results in a new
// dataset, along with the grouping coordinate labeled by the last
// value in each group, the other coordinates of the source and the
// ancillary variables of the source dataset.
func (g *GroupBy) Apply(r Reducer, o ApplyOptions) (*Dataset, error) {
	log := o.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	if r.Func == nil {
		return nil, fmt.Errorf("climstats: reducer %q has no function: %w", r.Name, ErrConfiguration)
	}
	scale := o.Scale
	if scale == 0 {
		scale = 1
	}
	src := g.source
	sv := src.v
	cdim := g.coord.v.dims[0]
	axis := sv.axis(cdim)
	if axis < 0 {
		return nil, fmt.Errorf("climstats: %s does not vary along %s: %w",
			sv.name, sv.ds.dim(cdim).name, ErrUnknownAxis)
	}

	ds := NewDataset(sv.ds.attrs)
	shape := src.Shape()
	outShape := append([]int(nil), shape...)
	outShape[axis] = len(g.groups)
	for i, id := range sv.dims {
		dim := sv.ds.dim(id)
		if _, err := ds.AddDimension(dim.name, outShape[i], dim.unlimited && i != axis); err != nil {
			return nil, err
		}
	}

	coordOut, err := ds.AddVariable(g.coord.v.name, []string{sv.ds.dim(cdim).name}, g.coord.v.dtype, g.coord.v.attrs)
	if err != nil {
		return nil, err
	}
	name := o.Name
	if name == "" {
		name = sv.name + "_" + r.Name
	}
	attrs := sv.attrs.Clone()
	units := o.Units
	if units == "" {
		units = r.Units
	}
	if units != "" {
		attrs.SetText("units", units)
	}
	result, err := ds.AddVariable(name, sv.DimNames(), sv.dtype, attrs)
	if err != nil {
		return nil, err
	}

	all, err := src.Get()
	if err != nil {
		return nil, err
	}
	coordVals, err := g.coord.Values()
	if err != nil {
		return nil, err
	}
	out := NewArray(outShape...)
	labels := make([]float64, len(g.groups))
	count := append([]int(nil), outShape...)
	count[axis] = 1
	zero := make([]int, len(shape))
	for k, gr := range g.groups {
		slice, err := take(all, axis, gr.positions())
		if err != nil {
			return nil, err
		}
		frac := validFraction(slice, axis)
		for i, v := range slice.Elements {
			slice.Elements[i] = v*scale + o.Offset
		}
		red, err := r.Func(slice, axis)
		if err != nil {
			return nil, fmt.Errorf("climstats: reducing %s group %q with %s: %w", sv.name, gr.key, r.Name, err)
		}
		if len(red.Elements) != len(frac) {
			return nil, fmt.Errorf("climstats: reducer %s returned %d values, want %d",
				r.Name, len(red.Elements), len(frac))
		}
		block := sparse.ZerosDense(count...)
		for i, v := range red.Elements {
			if frac[i] < o.Tolerance {
				v = math.NaN()
			}
			block.Elements[i] = v
		}
		dst := append([]int(nil), zero...)
		dst[axis] = k
		copyBlock(out, dst, block, zero, count)
		labels[k] = coordVals[gr.last()]
	}
	if err := result.Set(out); err != nil {
		return nil, err
	}
	if err := coordOut.SetValues(labels); err != nil {
		return nil, err
	}

	g.warnings = nil
	for _, role := range []Role{Time, Latitude, Longitude} {
		c, ok := src.Coordinates()[role]
		if !ok || c.v == g.coord.v || c.v == sv {
			continue
		}
		if _, err := ds.CopyVariable(c, ""); err != nil {
			g.warnings = append(g.warnings, err)
			log.WithField("variable", c.v.name).Warn(err)
		}
	}
	for _, a := range sv.ds.ancillary {
		if err := g.copyAncillary(ds, a, cdim); err != nil {
			g.warnings = append(g.warnings, err)
			log.WithField("variable", a.name).Warn(err)
		}
	}
	return ds, nil
}

// copyAncillary copies ancillary variable a, windowed like the source,
// into ds, adding any dimensions it needs that ds does not have.
func (g *GroupBy) copyAncillary(ds *Dataset, a *Variable, grouped DimID) error {
	if _, ok := ds.byName[a.name]; ok {
		return fmt.Errorf("climstats: ancillary variable %s conflicts with an existing variable: %w", a.name, ErrAncillaryCopy)
	}
	p := g.source.project(a)
	shape := p.Shape()
	for i, id := range a.dims {
		dim := a.ds.dim(id)
		if id == grouped {
			return fmt.Errorf("climstats: ancillary variable %s varies along grouped dimension %s: %w",
				a.name, dim.name, ErrAncillaryCopy)
		}
		have, err := ds.Dimension(dim.name)
		if err != nil {
			if _, err := ds.AddDimension(dim.name, shape[i], dim.unlimited); err != nil {
				return fmt.Errorf("climstats: %v: %w", err, ErrAncillaryCopy)
			}
			continue
		}
		if have.size != shape[i] {
			return fmt.Errorf("climstats: ancillary variable %s needs %s of size %d, have %d: %w",
				a.name, dim.name, shape[i], have.size, ErrAncillaryCopy)
		}
	}
	if _, err := ds.CopyVariable(p, ""); err != nil {
		return fmt.Errorf("climstats: %v: %w", err, ErrAncillaryCopy)
	}
	return nil
}

// validFraction returns, for each position of a along the axes other
// than axis, the fraction of non-NaN values along axis.
func validFraction(a *sparse.DenseArray, axis int) []float64 {
	n := a.Shape[axis]
	inner := product(a.Shape[axis+1:])
	outer := product(a.Shape[:axis])
	o := make([]float64, outer*inner)
	for i, v := range a.Elements {
		if !math.IsNaN(v) {
			j := (i/(n*inner))*inner + i%inner
			o[j]++
		}
	}
	for i := range o {
		o[i] /= float64(n)
	}
	return o
}
