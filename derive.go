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

	"github.com/Knetic/govaluate"
)

func oneArg(name string, f func(float64) float64) govaluate.ExpressionFunction {
	return func(arg ...interface{}) (interface{}, error) {
		if len(arg) != 1 {
			return nil, fmt.Errorf("climstats: got %d arguments for function '%s', but needs 1", len(arg), name)
		}
		x, ok := arg[0].(float64)
		if !ok {
			return nil, fmt.Errorf("climstats: invalid argument %v for function '%s'", arg[0], name)
		}
		return f(x), nil
	}
}

func twoArg(name string, f func(float64, float64) float64) govaluate.ExpressionFunction {
	return func(arg ...interface{}) (interface{}, error) {
		if len(arg) != 2 {
			return nil, fmt.Errorf("climstats: got %d arguments for function '%s', but needs 2", len(arg), name)
		}
		x, ok1 := arg[0].(float64)
		y, ok2 := arg[1].(float64)
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("climstats: invalid arguments %v for function '%s'", arg, name)
		}
		return f(x, y), nil
	}
}

// DeriveFunctions are the functions available to Derive expressions.
var DeriveFunctions = map[string]govaluate.ExpressionFunction{
	"exp":  oneArg("exp", math.Exp),
	"log":  oneArg("log", math.Log),
	"sqrt": oneArg("sqrt", math.Sqrt),
	"abs":  oneArg("abs", math.Abs),
	"min":  twoArg("min", math.Min),
	"max":  twoArg("max", math.Max),
	"pow":  twoArg("pow", math.Pow),
}

// Derive evaluates expression element by element over the variables of
// ds it references, which must all have the same dimensions, and adds
// the result to ds as a new in-memory variable called name.
func Derive(ds *Dataset, name, expression string, attrs *Attributes) (*Variable, error) {
	expr, err := govaluate.NewEvaluableExpressionWithFunctions(expression, DeriveFunctions)
	if err != nil {
		return nil, fmt.Errorf("climstats: parsing expression for %s: %v: %w", name, err, ErrConfiguration)
	}
	names := uniqueStrings(expr.Vars())
	if len(names) == 0 {
		return nil, fmt.Errorf("climstats: expression for %s does not reference any variables: %w", name, ErrConfiguration)
	}
	var dims []string
	vals := make(map[string][]float64, len(names))
	for _, n := range names {
		v, err := ds.Variable(n)
		if err != nil {
			return nil, fmt.Errorf("climstats: expression for %s: %v: %w", name, err, ErrConfiguration)
		}
		if dims == nil {
			dims = v.DimNames()
		} else if !equalStrings(dims, v.DimNames()) {
			return nil, fmt.Errorf("climstats: expression for %s: %s has dimensions %v, want %v: %w",
				name, n, v.DimNames(), dims, ErrConfiguration)
		}
		a, err := v.Get()
		if err != nil {
			return nil, err
		}
		vals[n] = a.Elements
	}
	out := make([]float64, len(vals[names[0]]))
	params := make(map[string]interface{}, len(names))
	for i := range out {
		for _, n := range names {
			params[n] = vals[n][i]
		}
		r, err := expr.Evaluate(params)
		if err != nil {
			return nil, fmt.Errorf("climstats: evaluating expression for %s: %v", name, err)
		}
		f, ok := r.(float64)
		if !ok {
			return nil, fmt.Errorf("climstats: expression for %s evaluates to %T, not a number: %w", name, r, ErrConfiguration)
		}
		out[i] = f
	}
	v, err := ds.AddVariable(name, dims, Double, attrs)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return v, nil
	}
	if err := v.SetValues(out); err != nil {
		return nil, err
	}
	return v, nil
}

func uniqueStrings(s []string) []string {
	m := make(map[string]struct{}, len(s))
	for _, x := range s {
		m[x] = struct{}{}
	}
	o := make([]string, 0, len(m))
	for x := range m {
		o = append(o, x)
	}
	sort.Strings(o)
	return o
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
