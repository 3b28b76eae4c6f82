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
	"strings"

	"github.com/ctessum/sparse"
)

// Variable is an n-dimensional array registered in a Dataset. It owns
// its storage; Views over it share that storage.
type Variable struct {
	name   string
	ds     *Dataset
	dims   []DimID
	dtype  DType
	attrs  *Attributes
	store  Storage
	coords map[Role]*Variable
}

// Name returns the variable name.
func (v *Variable) Name() string { return v.name }

// Dataset returns the dataset the variable is registered in.
func (v *Variable) Dataset() *Dataset { return v.ds }

// DType returns the element type.
func (v *Variable) DType() DType { return v.dtype }

// Attributes returns the variable attributes. Changes to the returned
// value are reflected in the variable.
func (v *Variable) Attributes() *Attributes { return v.attrs }

// Storage returns the storage holding the variable's values.
func (v *Variable) Storage() Storage { return v.store }

// Dims returns the dimensions of the variable in order.
func (v *Variable) Dims() []*Dimension {
	o := make([]*Dimension, len(v.dims))
	for i, id := range v.dims {
		o[i] = v.ds.dim(id)
	}
	return o
}

// DimNames returns the names of the variable's dimensions.
func (v *Variable) DimNames() []string {
	o := make([]string, len(v.dims))
	for i, id := range v.dims {
		o[i] = v.ds.dim(id).name
	}
	return o
}

// Rank returns the number of dimensions.
func (v *Variable) Rank() int { return len(v.dims) }

// Shape returns the current extent of the variable, which always
// equals the sizes of its dimensions.
func (v *Variable) Shape() []int {
	o := make([]int, len(v.dims))
	for i, id := range v.dims {
		o[i] = v.ds.dim(id).size
	}
	return o
}

// axis returns the position of dimension id in v, or -1.
func (v *Variable) axis(id DimID) int {
	for i, d := range v.dims {
		if d == id {
			return i
		}
	}
	return -1
}

// Axis returns the position of the named dimension in v, or -1.
func (v *Variable) Axis(dim string) int {
	id, ok := v.ds.dimID(dim)
	if !ok {
		return -1
	}
	return v.axis(id)
}

// MakeCoordinates recomputes which of the dataset's coordinate
// variables apply to v: those whose dimensions are all dimensions of v.
// The previous coordinate map is replaced entirely.
func (v *Variable) MakeCoordinates() {
	coords := make(map[Role]*Variable)
	for r, c := range v.ds.coords {
		ok := true
		for _, id := range c.dims {
			if v.axis(id) < 0 {
				ok = false
				break
			}
		}
		if ok {
			coords[r] = c
		}
	}
	v.coords = coords
}

// Coordinates returns the coordinate variables of v by role.
func (v *Variable) Coordinates() map[Role]*Variable {
	o := make(map[Role]*Variable, len(v.coords))
	for r, c := range v.coords {
		o[r] = c
	}
	return o
}

// View returns a view over the full extent of v. The view follows
// growth of unlimited dimensions.
func (v *Variable) View() *View {
	w := &View{v: v, win: make([]bound, len(v.dims))}
	for i := range w.win {
		w.win[i] = bound{open: true}
	}
	return w
}

// Get returns a copy of the values in the selected region.
func (v *Variable) Get(idx ...Index) (*sparse.DenseArray, error) { return v.View().Get(idx...) }

// Set assigns values to the selected region. See View.Set.
func (v *Variable) Set(a *sparse.DenseArray, idx ...Index) error { return v.View().Set(a, idx...) }

// SetScalar assigns val to every position in the selected region.
func (v *Variable) SetScalar(val float64, idx ...Index) error { return v.View().SetScalar(val, idx...) }

// SetValues assigns a flat row-major slice of values to the selected
// region.
func (v *Variable) SetValues(vals []float64, idx ...Index) error {
	return v.View().SetValues(vals, idx...)
}

func (v *Variable) String() string {
	return fmt.Sprintf("%s %s(%s)", v.dtype, v.name, strings.Join(v.DimNames(), ", "))
}
