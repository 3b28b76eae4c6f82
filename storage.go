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

import "github.com/ctessum/sparse"

// Storage holds the values of a single variable. Implementations
// represent missing values as NaN.
type Storage interface {
	// Shape returns the current extent of the storage.
	Shape() []int

	// Read returns the block [begin, end) in row-major order.
	Read(begin, end []int) (*sparse.DenseArray, error)

	// Write stores a at offset begin. The block must fit within Shape.
	Write(begin []int, a *sparse.DenseArray) error

	// Grow extends the storage to shape, keeping existing values in
	// place. New positions read as missing.
	Grow(shape []int) error
}
