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
	"strconv"
	"strings"
	"time"

	"github.com/spatialmodel/climstats/cf"
)

// Selector selects positions along a coordinate by value. Bounds may be
// numbers in the coordinate's native units, times, or strings holding
// either a number or a date literal. Dates are converted using the
// coordinate's units and calendar attributes.
type Selector struct {
	lo, hi interface{}
}

// Value selects the positions whose coordinate value equals v.
func Value(v interface{}) Selector { return Selector{lo: v, hi: v} }

// Between selects the positions whose coordinate values lie in the
// closed interval [lo, hi].
func Between(lo, hi interface{}) Selector { return Selector{lo: lo, hi: hi} }

// ParseSelector parses "lo,hi" or "value".
func ParseSelector(s string) Selector {
	if parts := strings.SplitN(s, ",", 2); len(parts) == 2 {
		return Between(strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]))
	}
	return Value(strings.TrimSpace(s))
}

func (s Selector) String() string { return fmt.Sprintf("[%v, %v]", s.lo, s.hi) }

// positions returns the window-relative range [start, stop) of c whose
// values lie within s. Values of c are assumed to increase.
func (s Selector) positions(c *View) (start, stop int, err error) {
	lo, err := coordinateValue(c, s.lo)
	if err != nil {
		return 0, 0, err
	}
	hi, err := coordinateValue(c, s.hi)
	if err != nil {
		return 0, 0, err
	}
	vals, err := c.Values()
	if err != nil {
		return 0, 0, err
	}
	start = sort.Search(len(vals), func(i int) bool { return vals[i] >= lo })
	stop = sort.Search(len(vals), func(i int) bool { return vals[i] > hi })
	if stop <= start {
		return 0, 0, fmt.Errorf("no %s values within %v: %w", c.v.name, s, ErrBounds)
	}
	return start, stop, nil
}

// coordinateValue converts a selector bound into the native units of
// coordinate c.
func coordinateValue(c *View, x interface{}) (float64, error) {
	switch v := x.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case time.Time:
		return dateValue(c, cf.FromTime(v))
	case cf.Date:
		return dateValue(c, v)
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f, nil
		}
		d, err := cf.ParseDate(v)
		if err != nil {
			return math.NaN(), fmt.Errorf("invalid selection value %q: %v: %w", v, err, ErrConfiguration)
		}
		return dateValue(c, d)
	default:
		return math.NaN(), fmt.Errorf("invalid selection value %v of type %T: %w", x, x, ErrConfiguration)
	}
}

func dateValue(c *View, d cf.Date) (float64, error) {
	u, err := cf.ParseUnits(c.v.attrs.Text("units"))
	if err != nil || u.Kind != cf.ReferenceTime {
		return math.NaN(), fmt.Errorf("coordinate %s does not have time units: %w", c.v.name, ErrConfiguration)
	}
	return cf.DateToNum(d, u, c.v.attrs.Text("calendar"))
}
