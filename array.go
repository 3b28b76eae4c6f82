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

	"github.com/ctessum/sparse"
)

// NewArray returns an array of the given shape with every element
// set to NaN (missing).
func NewArray(shape ...int) *sparse.DenseArray {
	a := sparse.ZerosDense(append([]int(nil), shape...)...)
	for i := range a.Elements {
		a.Elements[i] = math.NaN()
	}
	return a
}

// CopyArray returns a deep copy of a.
func CopyArray(a *sparse.DenseArray) *sparse.DenseArray {
	b := sparse.ZerosDense(append([]int(nil), a.Shape...)...)
	copy(b.Elements, a.Elements)
	return b
}

func product(shape []int) int {
	n := 1
	for _, s := range shape {
		n *= s
	}
	return n
}

func strides(shape []int) []int {
	s := make([]int, len(shape))
	n := 1
	for i := len(shape) - 1; i >= 0; i-- {
		s[i] = n
		n *= shape[i]
	}
	return s
}

// nextIndex advances idx through shape in row-major order and reports
// whether there are more elements.
func nextIndex(idx, shape []int) bool {
	for i := len(idx) - 1; i >= 0; i-- {
		idx[i]++
		if idx[i] < shape[i] {
			return true
		}
		idx[i] = 0
	}
	return false
}

// copyBlock copies a block of size count from src starting at srcBegin
// into dst starting at dstBegin.
func copyBlock(dst *sparse.DenseArray, dstBegin []int, src *sparse.DenseArray, srcBegin, count []int) {
	if product(count) == 0 {
		return
	}
	ds, ss := strides(dst.Shape), strides(src.Shape)
	idx := make([]int, len(count))
	for {
		di, si := 0, 0
		for i, x := range idx {
			di += (dstBegin[i] + x) * ds[i]
			si += (srcBegin[i] + x) * ss[i]
		}
		dst.Elements[di] = src.Elements[si]
		if !nextIndex(idx, count) {
			return
		}
	}
}

func sameShape(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// memStorage holds variable data in memory. Missing values are NaN.
type memStorage struct {
	arr *sparse.DenseArray
}

func newMemStorage(shape []int) *memStorage {
	return &memStorage{arr: NewArray(shape...)}
}

func (m *memStorage) Shape() []int { return append([]int(nil), m.arr.Shape...) }

func (m *memStorage) checkBlock(begin, count []int) error {
	if len(begin) != len(m.arr.Shape) || len(count) != len(m.arr.Shape) {
		return fmt.Errorf("climstats: block rank %d does not match storage rank %d: %w",
			len(begin), len(m.arr.Shape), ErrBounds)
	}
	for i, b := range begin {
		if b < 0 || count[i] < 0 || b+count[i] > m.arr.Shape[i] {
			return fmt.Errorf("climstats: block [%d, %d) exceeds storage size %d along axis %d: %w",
				b, b+count[i], m.arr.Shape[i], i, ErrBounds)
		}
	}
	return nil
}

func (m *memStorage) Read(begin, end []int) (*sparse.DenseArray, error) {
	count := make([]int, len(end))
	for i := range end {
		count[i] = end[i] - begin[i]
	}
	if err := m.checkBlock(begin, count); err != nil {
		return nil, err
	}
	o := sparse.ZerosDense(count...)
	copyBlock(o, make([]int, len(count)), m.arr, begin, count)
	return o, nil
}

func (m *memStorage) Write(begin []int, a *sparse.DenseArray) error {
	if err := m.checkBlock(begin, a.Shape); err != nil {
		return err
	}
	copyBlock(m.arr, begin, a, make([]int, len(a.Shape)), a.Shape)
	return nil
}

func (m *memStorage) Grow(shape []int) error {
	if len(shape) != len(m.arr.Shape) {
		return fmt.Errorf("climstats: cannot change storage rank from %d to %d", len(m.arr.Shape), len(shape))
	}
	if sameShape(shape, m.arr.Shape) {
		return nil
	}
	for i, s := range shape {
		if s < m.arr.Shape[i] {
			return fmt.Errorf("climstats: storage cannot shrink along axis %d: %w", i, ErrBounds)
		}
	}
	n := NewArray(shape...)
	old := m.arr.Shape
	copyBlock(n, make([]int, len(old)), m.arr, make([]int, len(old)), old)
	m.arr = n
	return nil
}
