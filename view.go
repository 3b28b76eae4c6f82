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

// Index selects a range along one dimension of a View, relative to the
// start of the view's window. A missing start or stop defaults to the
// corresponding bound of the window.
type Index struct {
	start, stop       int
	hasStart, hasStop bool
}

// All selects the whole window.
func All() Index { return Index{} }

// At selects the single position i.
func At(i int) Index { return Index{start: i, stop: i + 1, hasStart: true, hasStop: true} }

// Span selects positions [start, stop).
func Span(start, stop int) Index {
	return Index{start: start, stop: stop, hasStart: true, hasStop: true}
}

// From selects positions from start to the end of the window.
func From(start int) Index { return Index{start: start, hasStart: true} }

// To selects positions from the start of the window up to stop.
func To(stop int) Index { return Index{stop: stop, hasStop: true} }

func (ix Index) String() string {
	s, e := "", ""
	if ix.hasStart {
		s = fmt.Sprint(ix.start)
	}
	if ix.hasStop {
		e = fmt.Sprint(ix.stop)
	}
	return s + ":" + e
}

// bound is the window of a View along one dimension. An open bound ends
// at the current size of the dimension.
type bound struct {
	start, stop int
	open        bool
}

// View is a window onto a Variable. It shares the variable's storage:
// values set through a view are visible through the variable and every
// other view of it. Narrowing a view changes only the view.
type View struct {
	v   *Variable
	win []bound
}

// Variable returns the variable the view is a window onto.
func (w *View) Variable() *Variable { return w.v }

// Name returns the name of the underlying variable.
func (w *View) Name() string { return w.v.name }

// DimNames returns the names of the view's dimensions.
func (w *View) DimNames() []string { return w.v.DimNames() }

// Attributes returns the attributes of the underlying variable.
func (w *View) Attributes() *Attributes { return w.v.attrs }

// extent returns the absolute window along axis i.
func (w *View) extent(i int) (start, stop int) {
	b := w.win[i]
	if b.open {
		return b.start, w.v.ds.dim(w.v.dims[i]).size
	}
	return b.start, b.stop
}

// Shape returns the extent of the window.
func (w *View) Shape() []int {
	o := make([]int, len(w.win))
	for i := range w.win {
		s, e := w.extent(i)
		o[i] = e - s
	}
	return o
}

// Len returns the number of elements in the window.
func (w *View) Len() int { return product(w.Shape()) }

// Window returns the absolute [start, stop) bounds of the view along
// each dimension of the variable.
func (w *View) Window() [][2]int {
	o := make([][2]int, len(w.win))
	for i := range w.win {
		s, e := w.extent(i)
		o[i] = [2]int{s, e}
	}
	return o
}

// resolve translates window-relative indices into absolute storage
// bounds. If grow is true, selections past the end of an open window on
// an unlimited dimension are allowed and the required sizes are
// returned by axis.
func (w *View) resolve(idx []Index, grow bool) (begin, end []int, growTo map[int]int, err error) {
	if len(idx) > len(w.win) {
		return nil, nil, nil, fmt.Errorf("climstats: %s: %d indices for %d dimensions: %w",
			w.v.name, len(idx), len(w.win), ErrBounds)
	}
	begin = make([]int, len(w.win))
	end = make([]int, len(w.win))
	for i := range w.win {
		ws, we := w.extent(i)
		n := we - ws
		ix := All()
		if i < len(idx) {
			ix = idx[i]
		}
		s, e := 0, n
		if ix.hasStart {
			s = ix.start
		}
		if ix.hasStop {
			e = ix.stop
		}
		dim := w.v.ds.dim(w.v.dims[i])
		if s < 0 || e < s {
			return nil, nil, nil, fmt.Errorf("climstats: %s: invalid index %s along %s: %w",
				w.v.name, ix, dim.name, ErrBounds)
		}
		if e > n {
			if !grow || !w.win[i].open || !dim.unlimited {
				return nil, nil, nil, fmt.Errorf("climstats: %s: index %s exceeds size %d along %s: %w",
					w.v.name, ix, n, dim.name, ErrBounds)
			}
			if growTo == nil {
				growTo = make(map[int]int)
			}
			growTo[i] = ws + e
		}
		begin[i], end[i] = ws+s, ws+e
	}
	return begin, end, growTo, nil
}

// Get returns a copy of the values in the selected region of the
// window. Dimensions beyond the supplied indices are selected whole.
// Single-position selections keep their dimension with length one.
func (w *View) Get(idx ...Index) (*sparse.DenseArray, error) {
	begin, end, _, err := w.resolve(idx, false)
	if err != nil {
		return nil, err
	}
	count := make([]int, len(begin))
	for i := range begin {
		count[i] = end[i] - begin[i]
	}
	if product(count) == 0 {
		return sparse.ZerosDense(count...), nil
	}
	return w.v.store.Read(begin, end)
}

// Values returns the values of the selected region flattened in
// row-major order.
func (w *View) Values(idx ...Index) ([]float64, error) {
	a, err := w.Get(idx...)
	if err != nil {
		return nil, err
	}
	return a.Elements, nil
}

// Set assigns the values of a to the selected region. a must have the
// same number of elements as the region, or a single element, which is
// assigned to every position. If the region extends past the end of an
// unlimited dimension along which the view's window is open, the
// dimension grows, along with every variable in the dataset that uses
// it. New positions that are not assigned are missing. Otherwise
// selections out of range return ErrBounds and nothing is modified.
func (w *View) Set(a *sparse.DenseArray, idx ...Index) error {
	begin, end, growTo, err := w.resolve(idx, true)
	if err != nil {
		return err
	}
	count := make([]int, len(begin))
	for i := range begin {
		count[i] = end[i] - begin[i]
	}
	n := product(count)
	var block *sparse.DenseArray
	switch len(a.Elements) {
	case n:
		block = &sparse.DenseArray{Elements: a.Elements, Shape: count}
		block.Fix()
	case 1:
		block = sparse.ZerosDense(count...)
		for i := range block.Elements {
			block.Elements[i] = a.Elements[0]
		}
	default:
		return fmt.Errorf("climstats: %s: cannot assign %d values to a region of %d: %w",
			w.v.name, len(a.Elements), n, ErrBounds)
	}
	for axis, size := range growTo {
		if err := w.v.ds.grow(w.v.dims[axis], size); err != nil {
			return err
		}
	}
	if n == 0 {
		return nil
	}
	return w.v.store.Write(begin, block)
}

// SetScalar assigns val to every position in the selected region.
func (w *View) SetScalar(val float64, idx ...Index) error {
	return w.Set(&sparse.DenseArray{Elements: []float64{val}, Shape: []int{1}}, idx...)
}

// SetValues assigns a flat row-major slice of values to the selected
// region.
func (w *View) SetValues(vals []float64, idx ...Index) error {
	return w.Set(&sparse.DenseArray{Elements: vals, Shape: []int{len(vals)}}, idx...)
}

// Coordinates returns views of the variable's coordinates whose
// windows follow this view's window along shared dimensions.
func (w *View) Coordinates() map[Role]*View {
	o := make(map[Role]*View, len(w.v.coords))
	for r, c := range w.v.coords {
		o[r] = w.project(c)
	}
	return o
}

// Coordinate returns the view of the coordinate for role.
func (w *View) Coordinate(role Role) (*View, error) {
	c, ok := w.v.coords[role]
	if !ok {
		return nil, fmt.Errorf("climstats: %s has no %s coordinate: %w", w.v.name, role, ErrUnknownCoordinate)
	}
	return w.project(c), nil
}

// project returns a view of c with the window of w along the
// dimensions they share.
func (w *View) project(c *Variable) *View {
	cv := c.View()
	for i, id := range c.dims {
		if a := w.v.axis(id); a >= 0 {
			cv.win[i] = w.win[a]
		}
	}
	return cv
}

// NarrowDim narrows the window in place to positions [start, stop)
// along the named dimension, relative to the current window.
func (w *View) NarrowDim(dim string, start, stop int) error {
	axis := w.v.Axis(dim)
	if axis < 0 {
		return fmt.Errorf("climstats: %s: dimension %s: %w", w.v.name, dim, ErrUnknownDimension)
	}
	return w.narrowAxis(axis, start, stop)
}

func (w *View) narrowAxis(axis, start, stop int) error {
	ws, we := w.extent(axis)
	if start < 0 || stop <= start || ws+start >= we {
		return fmt.Errorf("climstats: %s: empty or invalid selection [%d, %d) of %d along %s: %w",
			w.v.name, start, stop, we-ws, w.v.ds.dim(w.v.dims[axis]).name, ErrBounds)
	}
	e := ws + stop
	if e > we {
		e = we
	}
	w.win[axis] = bound{start: ws + start, stop: e}
	return nil
}

// Narrow narrows the window in place to the positions whose coordinate
// values for role fall within sel.
func (w *View) Narrow(role Role, sel Selector) error {
	c, err := w.Coordinate(role)
	if err != nil {
		return err
	}
	if len(c.v.dims) != 1 {
		return fmt.Errorf("climstats: %s: coordinate %s has %d dimensions: %w",
			w.v.name, c.v.name, len(c.v.dims), ErrMultiDimCoordinate)
	}
	start, stop, err := sel.positions(c)
	if err != nil {
		return fmt.Errorf("climstats: %s: selecting %s: %w", w.v.name, role, err)
	}
	return w.narrowAxis(w.v.axis(c.v.dims[0]), start, stop)
}

// Reset reopens the window to the full extent of the variable.
func (w *View) Reset() {
	for i := range w.win {
		w.win[i] = bound{open: true}
	}
}

// Materialize copies the values in the window and those of the
// corresponding coordinates into a new, independent dataset and returns
// a view of the full copy.
func (w *View) Materialize() (*View, error) {
	ds := NewDataset(w.v.ds.attrs)
	shape := w.Shape()
	sizes := make(map[string]int)
	for i, dn := range w.v.DimNames() {
		sizes[dn] = shape[i]
	}
	coords := w.Coordinates()
	for _, c := range coords {
		cs := c.Shape()
		for i, dn := range c.v.DimNames() {
			if _, ok := sizes[dn]; !ok {
				sizes[dn] = cs[i]
			}
		}
	}
	// Keep the dimension order of the source dataset.
	for _, dim := range w.v.ds.dims {
		size, ok := sizes[dim.name]
		if !ok {
			continue
		}
		if _, err := ds.AddDimension(dim.name, size, dim.unlimited); err != nil {
			return nil, err
		}
	}
	for _, role := range []Role{Time, Latitude, Longitude} {
		c, ok := coords[role]
		if !ok || c.v == w.v {
			continue
		}
		if _, err := ds.CopyVariable(c, ""); err != nil {
			return nil, err
		}
	}
	v, err := ds.CopyVariable(w, "")
	if err != nil {
		return nil, err
	}
	return v.View(), nil
}

// NarrowCopy returns a narrowed view over an independent copy of the
// window. The receiver is not modified.
func (w *View) NarrowCopy(role Role, sel Selector) (*View, error) {
	m, err := w.Materialize()
	if err != nil {
		return nil, err
	}
	if err := m.Narrow(role, sel); err != nil {
		return nil, err
	}
	return m, nil
}

// Take returns the values of the window at the given window-relative
// positions along the named dimension.
func (w *View) Take(dim string, indices []int) (*sparse.DenseArray, error) {
	axis := w.v.Axis(dim)
	if axis < 0 {
		return nil, fmt.Errorf("climstats: %s: dimension %s: %w", w.v.name, dim, ErrUnknownDimension)
	}
	a, err := w.Get()
	if err != nil {
		return nil, err
	}
	return take(a, axis, indices)
}

// take gathers positions indices along axis of a.
func take(a *sparse.DenseArray, axis int, indices []int) (*sparse.DenseArray, error) {
	n := a.Shape[axis]
	for _, i := range indices {
		if i < 0 || i >= n {
			return nil, fmt.Errorf("climstats: index %d out of range [0, %d): %w", i, n, ErrBounds)
		}
	}
	shape := append([]int(nil), a.Shape...)
	shape[axis] = len(indices)
	o := sparse.ZerosDense(shape...)
	if len(o.Elements) == 0 {
		return o, nil
	}
	src := make([]int, len(shape))
	count := append([]int(nil), shape...)
	count[axis] = 1
	dst := make([]int, len(shape))
	for j, i := range indices {
		src[axis], dst[axis] = i, j
		copyBlock(o, dst, a, src, count)
	}
	return o, nil
}

func (w *View) String() string {
	s := make([]string, len(w.win))
	for i, dn := range w.v.DimNames() {
		a, b := w.extent(i)
		s[i] = fmt.Sprintf("%s=%d:%d", dn, a, b)
	}
	return fmt.Sprintf("%s[%s]", w.v.name, strings.Join(s, ", "))
}
