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

package reduce

import (
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// FitGamma estimates the shape and rate of a gamma distribution from
// positive values using Thom's approximation to the maximum likelihood
// estimate. ok is false if the values do not determine a distribution.
func FitGamma(positive []float64) (shape, rate float64, ok bool) {
	if len(positive) < 2 {
		return 0, 0, false
	}
	logs := make([]float64, len(positive))
	for i, x := range positive {
		logs[i] = math.Log(x)
	}
	mean := stat.Mean(positive, nil)
	a := math.Log(mean) - stat.Mean(logs, nil)
	if a <= 0 || math.IsNaN(a) {
		return 0, 0, false
	}
	shape = (1 + math.Sqrt(1+4*a/3)) / (4 * a)
	return shape, shape / mean, true
}

// SPI returns the standardized precipitation index of the last valid
// value of a series: the standard normal quantile of its probability
// under a gamma distribution fitted to the series, with zeros accounted
// for separately.
func SPI(s []float64) (float64, error) {
	v := valid(s)
	if len(v) == 0 {
		return math.NaN(), nil
	}
	var positive []float64
	for _, x := range v {
		if x > 0 {
			positive = append(positive, x)
		}
	}
	shape, rate, ok := FitGamma(positive)
	if !ok {
		return math.NaN(), nil
	}
	q := float64(len(v)-len(positive)) / float64(len(v))
	last := v[len(v)-1]
	h := q
	if last > 0 {
		h += (1 - q) * distuv.Gamma{Alpha: shape, Beta: rate}.CDF(last)
	}
	const eps = 1e-9
	h = math.Max(eps, math.Min(1-eps, h))
	return distuv.UnitNormal.Quantile(h), nil
}
