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
	"sort"

	"github.com/spatialmodel/climstats/cf"
)

// role returns the coordinate role that the units of v suggest, if any.
func (v *Variable) role() (Role, bool) {
	u, err := cf.ParseUnits(v.attrs.Text("units"))
	if err != nil {
		return "", false
	}
	switch u.Kind {
	case cf.Latitude:
		return Latitude, true
	case cf.Longitude:
		return Longitude, true
	case cf.ReferenceTime:
		// Only a variable literally named time can be the time
		// coordinate; bounds and auxiliary time variables share its units.
		if v.name == string(Time) {
			return Time, true
		}
	}
	return "", false
}

// coordinateRank orders candidates for the same role: a 1-D variable
// named after its own dimension first, then other 1-D variables, then
// everything else.
func (v *Variable) coordinateRank() int {
	switch {
	case len(v.dims) == 1 && v.ds.dims[v.dims[0]].name == v.name:
		return 0
	case len(v.dims) == 1:
		return 1
	default:
		return 2
	}
}

// classify recomputes the coordinate, data and ancillary partitions
// from scratch. The result depends only on the set of registered
// variables, not on the order in which they were added.
func (d *Dataset) classify() {
	vars := d.Variables()
	sort.Slice(vars, func(i, j int) bool { return vars[i].name < vars[j].name })

	coords := make(map[Role]*Variable)
	for _, v := range vars {
		r, ok := v.role()
		if !ok {
			continue
		}
		prev, ok := coords[r]
		if !ok || v.coordinateRank() < prev.coordinateRank() {
			coords[r] = v
		}
	}
	isCoord := make(map[*Variable]bool, len(coords))
	for _, v := range coords {
		isCoord[v] = true
	}
	d.coords = coords
	d.data, d.ancillary, d.unclassified = nil, nil, nil

	t, ok := coords[Time]
	if !ok || len(t.dims) != 1 {
		d.classified = false
		d.timeDim = -1
		for _, v := range vars {
			if !isCoord[v] {
				d.unclassified = append(d.unclassified, v)
			}
		}
	} else {
		d.classified = true
		d.timeDim = t.dims[0]
		for _, v := range vars {
			switch {
			case isCoord[v]:
			case v.axis(d.timeDim) >= 0:
				d.data = append(d.data, v)
			default:
				d.ancillary = append(d.ancillary, v)
			}
		}
	}
	for _, v := range vars {
		v.MakeCoordinates()
	}
}
