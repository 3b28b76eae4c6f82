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

// Package reduce provides reducers that summarize a series of values
// along one axis of an array, and a registry that resolves them by name.
// Missing values are NaN and are ignored by every reducer; a series with
// no valid values reduces to NaN unless stated otherwise.
package reduce

import (
	"fmt"
	"math"
	"sort"

	"github.com/ctessum/sparse"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Along applies f to every series of a along axis. The result has the
// shape of a with the length of axis set to one.
func Along(a *sparse.DenseArray, axis int, f func(series []float64) (float64, error)) (*sparse.DenseArray, error) {
	if axis < 0 || axis >= len(a.Shape) {
		return nil, fmt.Errorf("reduce: axis %d out of range for %d dimensions", axis, len(a.Shape))
	}
	n := a.Shape[axis]
	inner := 1
	for _, s := range a.Shape[axis+1:] {
		inner *= s
	}
	shape := append([]int(nil), a.Shape...)
	shape[axis] = 1
	o := sparse.ZerosDense(shape...)
	series := make([]float64, n)
	for j := range o.Elements {
		outer, in := j/inner, j%inner
		base := outer*n*inner + in
		for k := 0; k < n; k++ {
			series[k] = a.Elements[base+k*inner]
		}
		v, err := f(series)
		if err != nil {
			return nil, err
		}
		o.Elements[j] = v
	}
	return o, nil
}

// valid returns the non-NaN values of s.
func valid(s []float64) []float64 {
	o := make([]float64, 0, len(s))
	for _, v := range s {
		if !math.IsNaN(v) {
			o = append(o, v)
		}
	}
	return o
}

// series wraps f so that it only sees valid values and so that series
// without any return NaN.
func series(f func(valid []float64) float64) func([]float64) (float64, error) {
	return func(s []float64) (float64, error) {
		v := valid(s)
		if len(v) == 0 {
			return math.NaN(), nil
		}
		return f(v), nil
	}
}

func reducer(f func([]float64) (float64, error)) func(*sparse.DenseArray, int) (*sparse.DenseArray, error) {
	return func(a *sparse.DenseArray, axis int) (*sparse.DenseArray, error) {
		return Along(a, axis, f)
	}
}

// Mean returns the mean of the valid values.
func Mean(s []float64) (float64, error) {
	return series(func(v []float64) float64 { return stat.Mean(v, nil) })(s)
}

// Sum returns the sum of the valid values.
func Sum(s []float64) (float64, error) { return series(floats.Sum)(s) }

// Max returns the largest valid value.
func Max(s []float64) (float64, error) { return series(floats.Max)(s) }

// Min returns the smallest valid value.
func Min(s []float64) (float64, error) { return series(floats.Min)(s) }

// StdDev returns the sample standard deviation of the valid values.
func StdDev(s []float64) (float64, error) {
	return series(func(v []float64) float64 {
		if len(v) < 2 {
			return math.NaN()
		}
		return stat.StdDev(v, nil)
	})(s)
}

// Count returns the number of valid values. It is zero, not NaN, for a
// series without valid values.
func Count(s []float64) (float64, error) { return float64(len(valid(s))), nil }

// Percentile returns a function computing the p-th percentile (0 to
// 100) of the valid values using the empirical distribution.
func Percentile(p float64) func([]float64) (float64, error) {
	return series(func(v []float64) float64 {
		sort.Float64s(v)
		return stat.Quantile(p/100, stat.Empirical, v, nil)
	})
}

// DaysAbove returns a function counting the valid values strictly
// greater than threshold.
func DaysAbove(threshold float64) func([]float64) (float64, error) {
	return series(func(v []float64) float64 {
		n := 0
		for _, x := range v {
			if x > threshold {
				n++
			}
		}
		return float64(n)
	})
}

// DaysBelow returns a function counting the valid values strictly less
// than threshold.
func DaysBelow(threshold float64) func([]float64) (float64, error) {
	return series(func(v []float64) float64 {
		n := 0
		for _, x := range v {
			if x < threshold {
				n++
			}
		}
		return float64(n)
	})
}

// WindowAbove returns a function counting the windows of width
// consecutive values whose summary f is strictly greater than threshold.
// Every complete window is considered; windows containing a missing
// value are not counted.
func WindowAbove(width int, threshold float64, f func([]float64) float64) func([]float64) (float64, error) {
	return func(s []float64) (float64, error) {
		if len(valid(s)) == 0 {
			return math.NaN(), nil
		}
		n := 0
	windows:
		for i := 0; i+width <= len(s); i++ {
			w := s[i : i+width]
			for _, x := range w {
				if math.IsNaN(x) {
					continue windows
				}
			}
			if f(w) > threshold {
				n++
			}
		}
		return float64(n), nil
	}
}

// Spell returns a function giving the length of the longest run of
// consecutive values for which in is true. Missing values end a run.
func Spell(in func(float64) bool) func([]float64) (float64, error) {
	return func(s []float64) (float64, error) {
		if len(valid(s)) == 0 {
			return math.NaN(), nil
		}
		longest, run := 0, 0
		for _, x := range s {
			if !math.IsNaN(x) && in(x) {
				run++
				if run > longest {
					longest = run
				}
			} else {
				run = 0
			}
		}
		return float64(longest), nil
	}
}

// ZScore returns the standardized anomaly of the last valid value
// relative to the mean and standard deviation of all valid values.
func ZScore(s []float64) (float64, error) {
	v := valid(s)
	if len(v) < 2 {
		return math.NaN(), nil
	}
	mean, std := stat.MeanStdDev(v, nil)
	if std == 0 {
		return 0, nil
	}
	return (v[len(v)-1] - mean) / std, nil
}
