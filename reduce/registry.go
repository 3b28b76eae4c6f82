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
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spatialmodel/climstats"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

type entry struct {
	params []string // parameter names
	units  string
	make   func(p []float64) (func([]float64) (float64, error), error)
}

func fixed(f func([]float64) (float64, error)) func([]float64) (func([]float64) (float64, error), error) {
	return func([]float64) (func([]float64) (float64, error), error) { return f, nil }
}

func windowed(f func([]float64) float64) func([]float64) (func([]float64) (float64, error), error) {
	return func(p []float64) (func([]float64) (float64, error), error) {
		w := int(p[0])
		if float64(w) != p[0] || w < 1 {
			return nil, fmt.Errorf("window must be a positive integer, not %g", p[0])
		}
		return WindowAbove(w, p[1], f), nil
	}
}

var registry = map[string]entry{
	"mean":  {make: fixed(Mean)},
	"sum":   {make: fixed(Sum)},
	"max":   {make: fixed(Max)},
	"min":   {make: fixed(Min)},
	"std":   {make: fixed(StdDev)},
	"count": {units: "1", make: fixed(Count)},
	"percentile": {params: []string{"percent"}, make: func(p []float64) (func([]float64) (float64, error), error) {
		if p[0] < 0 || p[0] > 100 {
			return nil, fmt.Errorf("percent must be between 0 and 100, not %g", p[0])
		}
		return Percentile(p[0]), nil
	}},
	"days_above": {params: []string{"threshold"}, units: "days",
		make: func(p []float64) (func([]float64) (float64, error), error) { return DaysAbove(p[0]), nil }},
	"days_below": {params: []string{"threshold"}, units: "days",
		make: func(p []float64) (func([]float64) (float64, error), error) { return DaysBelow(p[0]), nil }},
	"window_sum_above":  {params: []string{"window", "threshold"}, units: "days", make: windowed(floats.Sum)},
	"window_mean_above": {params: []string{"window", "threshold"}, units: "days", make: windowed(func(v []float64) float64 { return stat.Mean(v, nil) })},
	"window_min_above":  {params: []string{"window", "threshold"}, units: "days", make: windowed(floats.Min)},
	"spell_above": {params: []string{"threshold"}, units: "days",
		make: func(p []float64) (func([]float64) (float64, error), error) {
			return Spell(func(x float64) bool { return x > p[0] }), nil
		}},
	"spell_below": {params: []string{"threshold"}, units: "days",
		make: func(p []float64) (func([]float64) (float64, error), error) {
			return Spell(func(x float64) bool { return x < p[0] }), nil
		}},
	"zscore": {units: "1", make: fixed(ZScore)},
	"spi":    {units: "1", make: fixed(SPI)},
}

// Parse resolves a statistic specification of the form
// "name[,param...]", for example "days_above,30" or
// "window_sum_above,5,100", into a reducer.
func Parse(spec string) (climstats.Reducer, error) {
	parts := strings.Split(spec, ",")
	name := strings.TrimSpace(parts[0])
	e, ok := registry[name]
	if !ok {
		return climstats.Reducer{}, fmt.Errorf("reduce: unknown statistic %q (valid options are %v): %w",
			name, Names(), climstats.ErrConfiguration)
	}
	args := parts[1:]
	if len(args) != len(e.params) {
		return climstats.Reducer{}, fmt.Errorf("reduce: statistic %s takes %d parameters %v, got %d: %w",
			name, len(e.params), e.params, len(args), climstats.ErrConfiguration)
	}
	p := make([]float64, len(args))
	for i, a := range args {
		var err error
		p[i], err = strconv.ParseFloat(strings.TrimSpace(a), 64)
		if err != nil {
			return climstats.Reducer{}, fmt.Errorf("reduce: statistic %s parameter %s: %v: %w",
				name, e.params[i], err, climstats.ErrConfiguration)
		}
	}
	f, err := e.make(p)
	if err != nil {
		return climstats.Reducer{}, fmt.Errorf("reduce: statistic %s: %v: %w", name, err, climstats.ErrConfiguration)
	}
	return climstats.Reducer{Name: name, Units: e.units, Func: reducer(f)}, nil
}

// Names returns the names of the registered statistics.
func Names() []string {
	o := make([]string, 0, len(registry))
	for n := range registry {
		o = append(o, n)
	}
	sort.Strings(o)
	return o
}
