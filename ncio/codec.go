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
	"math"

	"github.com/ctessum/cdf"
	"github.com/spatialmodel/climstats"
)

// packing is the CF scale_factor and add_offset of a variable.
type packing struct {
	scale, offset float64
}

func packingOf(a *climstats.Attributes) packing {
	p := packing{scale: 1}
	if s, ok := a.Numbers("scale_factor"); ok && len(s) == 1 {
		p.scale = s[0]
	}
	if o, ok := a.Numbers("add_offset"); ok && len(o) == 1 {
		p.offset = o[0]
	}
	return p
}

// decode converts raw file values into out, replacing fill and missing
// values with NaN and unpacking the rest.
func (s *storage) decode(raw interface{}, out []float64) {
	get := func(i int) float64 { return 0 }
	switch r := raw.(type) {
	case []uint8:
		if s.dtype == climstats.Byte {
			get = func(i int) float64 { return float64(int8(r[i])) }
		} else {
			get = func(i int) float64 { return float64(r[i]) }
		}
	case []int16:
		get = func(i int) float64 { return float64(r[i]) }
	case []int32:
		get = func(i int) float64 { return float64(r[i]) }
	case []float32:
		get = func(i int) float64 { return float64(r[i]) }
	case []float64:
		get = func(i int) float64 { return r[i] }
	}
	for i := range out {
		x := get(i)
		if s.dtype != climstats.Char && s.isMissing(x) {
			out[i] = math.NaN()
			continue
		}
		out[i] = x*s.pack.scale + s.pack.offset
	}
}

func (s *storage) isMissing(x float64) bool {
	if x == s.fill || math.IsNaN(x) {
		return true
	}
	for _, m := range s.missing {
		if x == m {
			return true
		}
	}
	return false
}

// encode converts values into the file type of the variable, packing
// them and replacing NaN with the fill value.
func (s *storage) encode(vals []float64) interface{} {
	return encodeValues(vals, s.dtype, s.fill, s.pack)
}

func encodeValues(vals []float64, t climstats.DType, fill float64, p packing) interface{} {
	raw := make([]float64, len(vals))
	for i, v := range vals {
		switch {
		case math.IsNaN(v) && t == climstats.Char:
			raw[i] = 0
		case math.IsNaN(v):
			raw[i] = fill
		default:
			raw[i] = (v - p.offset) / p.scale
			if t.Integer() {
				raw[i] = math.Round(raw[i])
			}
		}
	}
	return typed(raw, t)
}

// typed converts values to the slice type cdf uses for t.
func typed(vals []float64, t climstats.DType) interface{} {
	switch t {
	case climstats.Byte:
		o := make([]uint8, len(vals))
		for i, v := range vals {
			o[i] = uint8(int8(v))
		}
		return o
	case climstats.Char:
		o := make([]uint8, len(vals))
		for i, v := range vals {
			o[i] = uint8(v)
		}
		return o
	case climstats.Short:
		o := make([]int16, len(vals))
		for i, v := range vals {
			o[i] = int16(v)
		}
		return o
	case climstats.Int:
		o := make([]int32, len(vals))
		for i, v := range vals {
			o[i] = int32(v)
		}
		return o
	case climstats.Float:
		o := make([]float32, len(vals))
		for i, v := range vals {
			o[i] = float32(v)
		}
		return o
	default:
		return append([]float64(nil), vals...)
	}
}

// readAttributes converts the attributes of variable v, or the global
// attributes if v is empty.
func readAttributes(h *cdf.Header, v string) (*climstats.Attributes, error) {
	a := new(climstats.Attributes)
	for _, name := range h.Attributes(v) {
		var err error
		switch x := h.GetAttribute(v, name).(type) {
		case string:
			err = a.Set(climstats.Attribute{Name: name, Text: x, Type: climstats.Char})
		case []uint8:
			n := make([]float64, len(x))
			for i, b := range x {
				n[i] = float64(int8(b))
			}
			err = a.SetNumbers(name, climstats.Byte, n...)
		case []int16:
			n := make([]float64, len(x))
			for i, b := range x {
				n[i] = float64(b)
			}
			err = a.SetNumbers(name, climstats.Short, n...)
		case []int32:
			n := make([]float64, len(x))
			for i, b := range x {
				n[i] = float64(b)
			}
			err = a.SetNumbers(name, climstats.Int, n...)
		case []float32:
			n := make([]float64, len(x))
			for i, b := range x {
				n[i] = float64(b)
			}
			err = a.SetNumbers(name, climstats.Float, n...)
		case []float64:
			err = a.SetNumbers(name, climstats.Double, x...)
		}
		if err != nil {
			if v == "" {
				return nil, fmt.Errorf("global attribute %q: %v", name, err)
			}
			return nil, fmt.Errorf("attribute %q of %s: %v", name, v, err)
		}
	}
	return a, nil
}

// attributeValue converts an attribute to the value type cdf stores.
func attributeValue(at climstats.Attribute) interface{} {
	if at.IsText() {
		return at.Text
	}
	return typed(at.Numbers, at.Type)
}
