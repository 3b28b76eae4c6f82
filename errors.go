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

import "errors"

// Errors returned by this package. They are wrapped with additional context,
// so callers should test for them with errors.Is.
var (
	// ErrConfiguration indicates an unknown aggregation, statistic,
	// grouping function or expression. It is fatal and reported before
	// any data is read.
	ErrConfiguration = errors.New("configuration error")

	// ErrBounds indicates an index or value selection outside of the
	// permissible range. Nothing is modified when it is returned.
	ErrBounds = errors.New("index out of bounds")

	// ErrNoTimeCoordinate indicates that the dataset has no recognizable
	// time coordinate, so its variables cannot be classified.
	ErrNoTimeCoordinate = errors.New("no time coordinate")

	// ErrGrouping indicates that a grouping function failed or returned
	// invalid groups.
	ErrGrouping = errors.New("grouping failure")

	// ErrUnknownAxis indicates that the grouping coordinate's dimension is
	// not one of the dimensions of the variable being reduced.
	ErrUnknownAxis = errors.New("unknown axis")

	ErrUnknownCoordinate = errors.New("unknown coordinate")
	ErrUnknownDimension  = errors.New("unknown dimension")
	ErrUnknownVariable   = errors.New("unknown variable")
	ErrDuplicateVariable = errors.New("duplicate variable")
	ErrDuplicateDim      = errors.New("duplicate dimension")

	// ErrMultiDimCoordinate is returned when a value-based selection is
	// attempted through a coordinate with more than one dimension.
	ErrMultiDimCoordinate = errors.New("multi-dimensional coordinate")

	// ErrAncillaryCopy is recorded, not returned, when an ancillary
	// variable cannot be carried into an aggregated dataset.
	ErrAncillaryCopy = errors.New("ancillary copy failure")
)
