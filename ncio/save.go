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

package ncio

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/ctessum/cdf"
	"github.com/spatialmodel/climstats"
)

// Save writes ds to a netCDF file at path. The data are written to a
// temporary file in the same directory, which then replaces path, so a
// failed save never leaves a partial file behind.
func Save(ds *climstats.Dataset, path string) error {
	tmp, err := ioutil.TempFile(filepath.Dir(path), "."+filepath.Base(path)+".tmp")
	if err != nil {
		return fmt.Errorf("ncio: creating output file: %v", err)
	}
	if err := Write(ds, tmp); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("ncio: closing output file: %v", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("ncio: moving output into place: %v", err)
	}
	return nil
}

// recordDimension returns the unlimited dimension that can be stored as
// the netCDF record dimension: the first whose variables all use it as
// their outermost dimension.
func recordDimension(ds *climstats.Dataset) string {
	for _, d := range ds.Dimensions() {
		if !d.Unlimited() {
			continue
		}
		ok := true
		for _, v := range ds.Variables() {
			if a := v.Axis(d.Name()); a > 0 {
				ok = false
				break
			}
		}
		if ok {
			return d.Name()
		}
	}
	return ""
}

// zeroValue returns an empty value of the type cdf uses to declare a
// variable of type t.
func zeroValue(t climstats.DType) interface{} {
	if t == climstats.Char {
		return ""
	}
	return typed(nil, t)
}

// Write writes ds in netCDF classic format to f.
func Write(ds *climstats.Dataset, f *os.File) error {
	rec := recordDimension(ds)
	var names []string
	var lengths []int
	for _, d := range ds.Dimensions() {
		l := d.Len()
		if d.Name() == rec {
			l = 0
		} else if l == 0 {
			return fmt.Errorf("ncio: dimension %s has size zero and cannot be written", d.Name())
		}
		names = append(names, d.Name())
		lengths = append(lengths, l)
	}
	h := cdf.NewHeader(names, lengths)
	for _, at := range ds.Attributes().All() {
		h.AddAttribute("", at.Name, attributeValue(at))
	}
	fills := make(map[string]float64)
	for _, v := range ds.Variables() {
		h.AddVariable(v.Name(), v.DimNames(), zeroValue(v.DType()))
		if v.DType() == climstats.Char {
			for _, at := range v.Attributes().All() {
				h.AddAttribute(v.Name(), at.Name, attributeValue(at))
			}
			continue
		}
		fill := v.DType().DefaultFill()
		if fv, ok := v.Attributes().Numbers("_FillValue"); ok && len(fv) == 1 {
			fill = v.DType().Coerce(fv[0])
		}
		fills[v.Name()] = fill
		hasFill := false
		for _, at := range v.Attributes().All() {
			if at.Name == "_FillValue" {
				// The fill value must have the type of the variable.
				at = climstats.Attribute{Name: at.Name, Numbers: []float64{fill}, Type: v.DType()}
				hasFill = true
			}
			h.AddAttribute(v.Name(), at.Name, attributeValue(at))
		}
		if !hasFill {
			h.AddAttribute(v.Name(), "_FillValue", typed([]float64{fill}, v.DType()))
		}
	}
	h.Define()
	nc, err := cdf.Create(f, h)
	if err != nil {
		return fmt.Errorf("ncio: writing header: %v", err)
	}
	for _, v := range ds.Variables() {
		vals, err := v.Get()
		if err != nil {
			return fmt.Errorf("ncio: reading %s: %v", v.Name(), err)
		}
		shape := v.Shape()
		pack := packingOf(v.Attributes())
		fill := fills[v.Name()]
		err = runs(shape, make([]int, len(shape)), shape, func(first, last []int, off, n int) error {
			w := nc.Writer(v.Name(), first, last)
			if err := writeRun(w, encodeValues(vals.Elements[off:off+n], v.DType(), fill, pack), n); err != nil {
				return fmt.Errorf("ncio: writing %s: %v", v.Name(), err)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	if err := cdf.UpdateNumRecs(f); err != nil {
		return fmt.Errorf("ncio: updating record count: %v", err)
	}
	return nil
}
