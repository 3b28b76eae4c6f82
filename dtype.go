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
)

// DType is the element type a variable is stored as. Values are always
// handled as float64 in memory; the DType determines how they are
// written and which fill value marks missing data.
type DType int

// Element types, matching the netCDF classic model.
const (
	Byte DType = iota + 1
	Char
	Short
	Int
	Float
	Double
)

func (t DType) String() string {
	switch t {
	case Byte:
		return "byte"
	case Char:
		return "char"
	case Short:
		return "short"
	case Int:
		return "int"
	case Float:
		return "float"
	case Double:
		return "double"
	default:
		return fmt.Sprintf("DType(%d)", int(t))
	}
}

// ParseDType returns the DType with the given name.
func ParseDType(name string) (DType, error) {
	for t := Byte; t <= Double; t++ {
		if t.String() == name {
			return t, nil
		}
	}
	return 0, fmt.Errorf("climstats: invalid element type %q: %w", name, ErrConfiguration)
}

// DefaultFill returns the default fill value for the type.
func (t DType) DefaultFill() float64 {
	switch t {
	case Byte:
		return -127
	case Char:
		return 0
	case Short:
		return -32767
	case Int:
		return -2147483647
	case Float, Double:
		return 9.9692099683868690e+36
	default:
		return math.NaN()
	}
}

// Integer reports whether values of the type are whole numbers.
func (t DType) Integer() bool {
	return t == Byte || t == Char || t == Short || t == Int
}

// Size returns the number of bytes a value of the type occupies on disk.
func (t DType) Size() int {
	switch t {
	case Byte, Char:
		return 1
	case Short:
		return 2
	case Int, Float:
		return 4
	default:
		return 8
	}
}

// Coerce converts v to the precision of the type. NaN is passed through.
func (t DType) Coerce(v float64) float64 {
	if math.IsNaN(v) {
		return v
	}
	switch t {
	case Byte:
		return float64(int8(v))
	case Char:
		return float64(uint8(v))
	case Short:
		return float64(int16(v))
	case Int:
		return float64(int32(v))
	case Float:
		return float64(float32(v))
	default:
		return v
	}
}
