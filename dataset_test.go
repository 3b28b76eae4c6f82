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
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"
)

// station builds a dataset with an unlimited daily time dimension of n
// steps starting 1977-01-01 and a tas variable over (time, lat) whose
// value at time i and latitude j is 10*i + j.
func station(t *testing.T, n int) *Dataset {
	t.Helper()
	ds := NewDataset(NewAttributes("title", "test"))
	if _, err := ds.AddDimension("time", n, true); err != nil {
		t.Fatal(err)
	}
	if _, err := ds.AddDimension("lat", 2, false); err != nil {
		t.Fatal(err)
	}
	tv, err := ds.AddVariable("time", []string{"time"}, Double,
		NewAttributes("units", "days since 1977-01-01", "calendar", "standard"))
	if err != nil {
		t.Fatal(err)
	}
	lat, err := ds.AddVariable("lat", []string{"lat"}, Float, NewAttributes("units", "degrees_north"))
	if err != nil {
		t.Fatal(err)
	}
	if err := lat.SetValues([]float64{45, 46}); err != nil {
		t.Fatal(err)
	}
	tas, err := ds.AddVariable("tas", []string{"time", "lat"}, Float, NewAttributes("units", "K"))
	if err != nil {
		t.Fatal(err)
	}
	times := make([]float64, n)
	vals := make([]float64, 2*n)
	for i := range times {
		times[i] = float64(i)
		vals[2*i] = float64(10 * i)
		vals[2*i+1] = float64(10*i + 1)
	}
	if n > 0 {
		if err := tv.SetValues(times); err != nil {
			t.Fatal(err)
		}
		if err := tas.SetValues(vals); err != nil {
			t.Fatal(err)
		}
	}
	return ds
}

func mustVariable(t *testing.T, ds *Dataset, name string) *Variable {
	t.Helper()
	v, err := ds.Variable(name)
	if err != nil {
		t.Fatal(err)
	}
	return v
}

func names(vars []*Variable) []string {
	o := make([]string, len(vars))
	for i, v := range vars {
		o[i] = v.Name()
	}
	return o
}

func TestGrowth(t *testing.T) {
	ds := station(t, 40)
	tv := mustVariable(t, ds, "time")
	tas := mustVariable(t, ds, "tas")
	full := tas.View()

	more := make([]float64, 10)
	for i := range more {
		more[i] = float64(40 + i)
	}
	if err := tv.View().SetValues(more, Span(40, 50)); err != nil {
		t.Fatal(err)
	}
	dim, err := ds.Dimension("time")
	if err != nil {
		t.Fatal(err)
	}
	if dim.Len() != 50 {
		t.Fatalf("time has %d steps, want 50", dim.Len())
	}
	if want := []int{50, 2}; !reflect.DeepEqual(tas.Shape(), want) {
		t.Errorf("tas shape: have %v, want %v", tas.Shape(), want)
	}
	if want := []int{50, 2}; !reflect.DeepEqual(full.Shape(), want) {
		t.Errorf("open view should follow growth: have %v, want %v", full.Shape(), want)
	}
	old, err := tas.View().Values(At(39))
	if err != nil {
		t.Fatal(err)
	}
	if want := []float64{390, 391}; !reflect.DeepEqual(old, want) {
		t.Errorf("existing values: have %v, want %v", old, want)
	}
	added, err := tas.View().Values(From(40))
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range added {
		if !math.IsNaN(v) {
			t.Errorf("grown position %d: have %g, want missing", i, v)
		}
	}

	w := tas.View()
	if err := w.Narrow(Time, Between("1977-02-10", "1977-02-19")); err != nil {
		t.Fatal(err)
	}
	if want := [][2]int{{40, 50}, {0, 2}}; !reflect.DeepEqual(w.Window(), want) {
		t.Errorf("window: have %v, want %v", w.Window(), want)
	}
}

func TestGrowthFromEmpty(t *testing.T) {
	ds := NewDataset(nil)
	for _, d := range []struct {
		name      string
		size      int
		unlimited bool
	}{{"time", 0, true}, {"lat", 2, false}, {"lon", 3, false}} {
		if _, err := ds.AddDimension(d.name, d.size, d.unlimited); err != nil {
			t.Fatal(err)
		}
	}
	tv, err := ds.AddVariable("time", []string{"time"}, Double, NewAttributes("units", "days since 1977-01-01"))
	if err != nil {
		t.Fatal(err)
	}
	tas, err := ds.AddVariable("tas", []string{"time", "lat", "lon"}, Float, NewAttributes("units", "K"))
	if err != nil {
		t.Fatal(err)
	}
	if want := []int{0, 2, 3}; !reflect.DeepEqual(tas.Shape(), want) {
		t.Fatalf("tas shape: have %v, want %v", tas.Shape(), want)
	}

	vals := make([]float64, 10*2*3)
	for i := range vals {
		vals[i] = float64(i)
	}
	if err := tas.View().SetValues(vals, Span(40, 50)); err != nil {
		t.Fatal(err)
	}
	if want := []int{50}; !reflect.DeepEqual(tv.Shape(), want) {
		t.Fatalf("time coordinate should grow with the data: have %v, want %v", tv.Shape(), want)
	}
	times, err := tv.View().Values()
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range times {
		if !math.IsNaN(v) {
			t.Fatalf("time[%d]: have %g, want missing", i, v)
		}
	}
	before, err := tas.View().Values(Span(0, 40))
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range before {
		if !math.IsNaN(v) {
			t.Fatalf("tas element %d: have %g, want missing", i, v)
		}
	}
	stored, err := tas.View().Values(Span(40, 50))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(stored, vals) {
		t.Errorf("tas: have %v, want %v", stored, vals)
	}

	days := make([]float64, 10)
	for i := range days {
		days[i] = float64(40 + i)
	}
	if err := tv.View().SetValues(days, Span(40, 50)); err != nil {
		t.Fatal(err)
	}
	w := tas.View()
	if err := w.Narrow(Time, Between("1977-02-10", "1977-02-19")); err != nil {
		t.Fatal(err)
	}
	if want := [][2]int{{40, 50}, {0, 2}, {0, 3}}; !reflect.DeepEqual(w.Window(), want) {
		t.Errorf("window: have %v, want %v", w.Window(), want)
	}
}

func TestTimeUnitsClassification(t *testing.T) {
	for _, units := range []string{
		"days since 1977-01-01",
		"days since 1977-01-01 00:00:00 UTC",
		"seconds since 1970-01-01T00:00:00Z",
		"Hours Since 1900-01-01 00:00:00",
	} {
		t.Run(units, func(t *testing.T) {
			ds := NewDataset(nil)
			if _, err := ds.AddDimension("time", 2, true); err != nil {
				t.Fatal(err)
			}
			if _, err := ds.AddVariable("time", []string{"time"}, Double, NewAttributes("units", units)); err != nil {
				t.Fatal(err)
			}
			if _, err := ds.AddVariable("tas", []string{"time"}, Float, NewAttributes("units", "K")); err != nil {
				t.Fatal(err)
			}
			if !ds.Classified() {
				t.Fatal("dataset should be classified")
			}
			if want := []string{"tas"}; !reflect.DeepEqual(names(ds.DataVariables()), want) {
				t.Errorf("data: have %v, want %v", names(ds.DataVariables()), want)
			}
		})
	}
}

func TestGrowClosedWindow(t *testing.T) {
	ds := station(t, 5)
	tas := mustVariable(t, ds, "tas")
	w := tas.View()
	if err := w.NarrowDim("time", 0, 5); err != nil {
		t.Fatal(err)
	}
	err := w.SetScalar(1, Span(5, 6))
	if !errors.Is(err, ErrBounds) {
		t.Fatalf("have %v, want ErrBounds", err)
	}
	if dim, _ := ds.Dimension("time"); dim.Len() != 5 {
		t.Errorf("time should not grow, have %d", dim.Len())
	}
}

func TestBounds(t *testing.T) {
	ds := station(t, 3)
	tas := mustVariable(t, ds, "tas")
	before, err := tas.Get()
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name string
		err  error
	}{
		{name: "fixed dimension", err: tas.View().SetScalar(1, All(), Span(1, 3))},
		{name: "too many values", err: tas.View().SetValues([]float64{1, 2, 3}, At(0))},
		{name: "too many indices", err: tas.View().SetScalar(1, All(), All(), All())},
		{name: "negative", err: tas.View().SetScalar(1, Span(-1, 1))},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if !errors.Is(test.err, ErrBounds) {
				t.Errorf("have %v, want ErrBounds", test.err)
			}
		})
	}
	after, err := tas.Get()
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(before.Elements, after.Elements) {
		t.Error("a failed assignment modified the variable")
	}
	if _, err := tas.View().Get(From(4)); !errors.Is(err, ErrBounds) {
		t.Errorf("reading past the end: have %v, want ErrBounds", err)
	}
}

func TestViewAliasing(t *testing.T) {
	ds := station(t, 4)
	tas := mustVariable(t, ds, "tas")
	a := tas.View()
	if err := a.NarrowDim("time", 1, 3); err != nil {
		t.Fatal(err)
	}
	if err := a.SetScalar(-1, At(0), At(1)); err != nil {
		t.Fatal(err)
	}
	vals, err := tas.View().Values(At(1))
	if err != nil {
		t.Fatal(err)
	}
	if want := []float64{10, -1}; !reflect.DeepEqual(vals, want) {
		t.Errorf("have %v, want %v", vals, want)
	}
	a.Reset()
	if want := []int{4, 2}; !reflect.DeepEqual(a.Shape(), want) {
		t.Errorf("reset shape: have %v, want %v", a.Shape(), want)
	}
}

func TestNarrowCopy(t *testing.T) {
	ds := station(t, 10)
	tas := mustVariable(t, ds, "tas")
	src := tas.View()
	c, err := src.NarrowCopy(Time, Between(2.0, 4.0))
	if err != nil {
		t.Fatal(err)
	}
	if want := []int{3, 2}; !reflect.DeepEqual(c.Shape(), want) {
		t.Fatalf("copy shape: have %v, want %v", c.Shape(), want)
	}
	if want := []int{10, 2}; !reflect.DeepEqual(src.Shape(), want) {
		t.Errorf("the source view was modified: %v", src.Shape())
	}
	if err := c.SetScalar(-5); err != nil {
		t.Fatal(err)
	}
	vals, err := src.Values(At(2))
	if err != nil {
		t.Fatal(err)
	}
	if want := []float64{20, 21}; !reflect.DeepEqual(vals, want) {
		t.Errorf("the copy aliases the source: have %v, want %v", vals, want)
	}
	c.Reset()
	if want := []int{10, 2}; !reflect.DeepEqual(c.Shape(), want) {
		t.Errorf("the copy holds the full source window: have %v, want %v", c.Shape(), want)
	}
	tc, err := c.Coordinate(Time)
	if err != nil {
		t.Fatal(err)
	}
	if tc.Variable() == mustVariable(t, ds, "time") {
		t.Error("the copied time coordinate aliases the source")
	}
	if _, err := src.NarrowCopy(Time, Between(20.0, 30.0)); !errors.Is(err, ErrBounds) {
		t.Errorf("empty selection: have %v, want ErrBounds", err)
	}
}

func TestMaterializeWindow(t *testing.T) {
	ds := station(t, 6)
	w := mustVariable(t, ds, "tas").View()
	if err := w.Narrow(Latitude, Value(46)); err != nil {
		t.Fatal(err)
	}
	if err := w.NarrowDim("time", 2, 4); err != nil {
		t.Fatal(err)
	}
	m, err := w.Materialize()
	if err != nil {
		t.Fatal(err)
	}
	vals, err := m.Values()
	if err != nil {
		t.Fatal(err)
	}
	if want := []float64{21, 31}; !reflect.DeepEqual(vals, want) {
		t.Errorf("values: have %v, want %v", vals, want)
	}
	lat, err := m.Coordinate(Latitude)
	if err != nil {
		t.Fatal(err)
	}
	if lv, _ := lat.Values(); !reflect.DeepEqual(lv, []float64{46}) {
		t.Errorf("latitude: have %v, want [46]", lv)
	}
	if m.Variable().Dataset().Attributes().Text("title") != "test" {
		t.Error("global attributes were not copied")
	}
}

func TestClassifyOrder(t *testing.T) {
	type def struct {
		name, units string
		dims        []string
	}
	defs := []def{
		{name: "time", units: "days since 2000-01-01", dims: []string{"time"}},
		{name: "time_bnds", units: "days since 2000-01-01", dims: []string{"time", "bnds"}},
		{name: "lat", units: "degrees_north", dims: []string{"lat"}},
		{name: "lat_2d", units: "degrees_north", dims: []string{"lat", "lon"}},
		{name: "lon", units: "degrees_east", dims: []string{"lon"}},
		{name: "pr", units: "kg m-2 s-1", dims: []string{"time", "lat", "lon"}},
		{name: "tas", units: "K", dims: []string{"time", "lat", "lon"}},
		{name: "orog", units: "m", dims: []string{"lat", "lon"}},
	}
	build := func(order []int) *Dataset {
		ds := NewDataset(nil)
		for _, d := range []string{"time", "bnds", "lat", "lon"} {
			if _, err := ds.AddDimension(d, 2, d == "time"); err != nil {
				t.Fatal(err)
			}
		}
		for _, i := range order {
			d := defs[i]
			if _, err := ds.AddVariable(d.name, d.dims, Double, NewAttributes("units", d.units)); err != nil {
				t.Fatal(err)
			}
		}
		return ds
	}
	orders := [][]int{
		{0, 1, 2, 3, 4, 5, 6, 7},
		{7, 6, 5, 4, 3, 2, 1, 0},
		{3, 1, 6, 0, 7, 2, 5, 4},
	}
	for _, order := range orders {
		ds := build(order)
		if !ds.Classified() {
			t.Fatalf("order %v: not classified", order)
		}
		coords := make(map[Role]string)
		for r, v := range ds.Coordinates() {
			coords[r] = v.Name()
		}
		want := map[Role]string{Time: "time", Latitude: "lat", Longitude: "lon"}
		if !reflect.DeepEqual(coords, want) {
			t.Errorf("order %v: coordinates %v, want %v", order, coords, want)
		}
		if want := []string{"pr", "tas", "time_bnds"}; !reflect.DeepEqual(names(ds.DataVariables()), want) {
			t.Errorf("order %v: data %v, want %v", order, names(ds.DataVariables()), want)
		}
		if want := []string{"lat_2d", "orog"}; !reflect.DeepEqual(names(ds.Ancillary()), want) {
			t.Errorf("order %v: ancillary %v, want %v", order, names(ds.Ancillary()), want)
		}
		tas := mustVariable(t, ds, "tas")
		if len(tas.Coordinates()) != 3 {
			t.Errorf("order %v: tas has %d coordinates, want 3", order, len(tas.Coordinates()))
		}
		orog := mustVariable(t, ds, "orog")
		if _, ok := orog.Coordinates()[Time]; ok {
			t.Errorf("order %v: orog should not have a time coordinate", order)
		}
	}
}

func TestUnclassified(t *testing.T) {
	ds := NewDataset(nil)
	if _, err := ds.AddDimension("x", 3, false); err != nil {
		t.Fatal(err)
	}
	for _, n := range []string{"b", "a"} {
		if _, err := ds.AddVariable(n, []string{"x"}, Float, nil); err != nil {
			t.Fatal(err)
		}
	}
	if ds.Classified() {
		t.Error("a dataset without time should not be classified")
	}
	if want := []string{"a", "b"}; !reflect.DeepEqual(names(ds.Unclassified()), want) {
		t.Errorf("have %v, want %v", names(ds.Unclassified()), want)
	}
	if _, err := ds.TimeDimension(); !errors.Is(err, ErrNoTimeCoordinate) {
		t.Errorf("have %v, want ErrNoTimeCoordinate", err)
	}
	a := mustVariable(t, ds, "a")
	if err := a.View().Narrow(Time, Value(1.0)); !errors.Is(err, ErrUnknownCoordinate) {
		t.Errorf("have %v, want ErrUnknownCoordinate", err)
	}

	// Adding a time coordinate reclassifies the existing variables.
	if _, err := ds.AddDimension("time", 1, true); err != nil {
		t.Fatal(err)
	}
	if _, err := ds.AddVariable("time", []string{"time"}, Double, NewAttributes("units", "hours since 2000-01-01")); err != nil {
		t.Fatal(err)
	}
	if !ds.Classified() || len(ds.Unclassified()) != 0 {
		t.Error("the dataset should now be classified")
	}
	if want := []string{"a", "b"}; !reflect.DeepEqual(names(ds.Ancillary()), want) {
		t.Errorf("ancillary: have %v, want %v", names(ds.Ancillary()), want)
	}
}

func TestMultiDimCoordinate(t *testing.T) {
	ds := NewDataset(nil)
	for _, d := range []string{"time", "y", "x"} {
		if _, err := ds.AddDimension(d, 2, false); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := ds.AddVariable("time", []string{"time"}, Double, NewAttributes("units", "days since 2000-01-01")); err != nil {
		t.Fatal(err)
	}
	if _, err := ds.AddVariable("latitude", []string{"y", "x"}, Double, NewAttributes("units", "degrees_north")); err != nil {
		t.Fatal(err)
	}
	v, err := ds.AddVariable("tas", []string{"time", "y", "x"}, Double, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := v.View().Narrow(Latitude, Between(0.0, 1.0)); !errors.Is(err, ErrMultiDimCoordinate) {
		t.Errorf("have %v, want ErrMultiDimCoordinate", err)
	}
}

func TestRegistrationErrors(t *testing.T) {
	ds := station(t, 2)
	if _, err := ds.AddDimension("lat", 3, false); !errors.Is(err, ErrDuplicateDim) {
		t.Errorf("duplicate dimension: have %v", err)
	}
	if _, err := ds.AddVariable("tas", []string{"time"}, Float, nil); !errors.Is(err, ErrDuplicateVariable) {
		t.Errorf("duplicate variable: have %v", err)
	}
	if _, err := ds.AddVariable("pr", []string{"level"}, Float, nil); !errors.Is(err, ErrUnknownDimension) {
		t.Errorf("unknown dimension: have %v", err)
	}
	if _, err := ds.AddVariable("pr", []string{"lat", "lat"}, Float, nil); !errors.Is(err, ErrConfiguration) {
		t.Errorf("repeated dimension: have %v", err)
	}
	if _, err := ds.Variable("pr"); !errors.Is(err, ErrUnknownVariable) {
		t.Errorf("unknown variable: have %v", err)
	}
	if _, err := ds.AddVariableStorage("pr", []string{"lat"}, Float, nil, newMemStorage([]int{3})); !errors.Is(err, ErrBounds) {
		t.Errorf("mismatched storage: have %v", err)
	}
}

func TestResize(t *testing.T) {
	ds := station(t, 0)
	tas := mustVariable(t, ds, "tas")
	for i := 0; i < 3; i++ {
		if err := tas.View().SetValues([]float64{float64(i), float64(-i)}, At(i)); err != nil {
			t.Fatal(err)
		}
	}
	vals, err := tas.View().Values()
	if err != nil {
		t.Fatal(err)
	}
	if want := []float64{0, 0, 1, -1, 2, -2}; !reflect.DeepEqual(vals, want) {
		t.Errorf("have %v, want %v", vals, want)
	}
	tv, err := mustVariable(t, ds, "time").View().Values()
	if err != nil {
		t.Fatal(err)
	}
	for _, v := range tv {
		if !math.IsNaN(v) {
			t.Errorf("time values were never assigned, have %v", tv)
			break
		}
	}
}

func TestTake(t *testing.T) {
	ds := station(t, 4)
	w := mustVariable(t, ds, "tas").View()
	a, err := w.Take("time", []int{3, 0})
	if err != nil {
		t.Fatal(err)
	}
	if want := []float64{30, 31, 0, 1}; !reflect.DeepEqual(a.Elements, want) {
		t.Errorf("have %v, want %v", a.Elements, want)
	}
	if _, err := w.Take("time", []int{4}); !errors.Is(err, ErrBounds) {
		t.Errorf("have %v, want ErrBounds", err)
	}
	if _, err := w.Take("level", nil); !errors.Is(err, ErrUnknownDimension) {
		t.Errorf("have %v, want ErrUnknownDimension", err)
	}
}

func TestSelectors(t *testing.T) {
	ds := station(t, 40)
	tests := []struct {
		sel  Selector
		want [2]int
		err  error
	}{
		{sel: ParseSelector("1977-01-03,1977-01-05"), want: [2]int{2, 5}},
		{sel: ParseSelector("7"), want: [2]int{7, 8}},
		{sel: Between(-10, 1.5), want: [2]int{0, 2}},
		{sel: Value(float32(39)), want: [2]int{39, 40}},
		{sel: Between(int64(38), "1999-01-01"), want: [2]int{38, 40}},
		{sel: Value("soon"), err: ErrConfiguration},
		{sel: Value(true), err: ErrConfiguration},
		{sel: Value(7.5), err: ErrBounds},
	}
	for _, test := range tests {
		t.Run(test.sel.String(), func(t *testing.T) {
			w := mustVariable(t, ds, "tas").View()
			err := w.Narrow(Time, test.sel)
			if test.err != nil {
				if !errors.Is(err, test.err) {
					t.Fatalf("have %v, want %v", err, test.err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if have := w.Window()[0]; have != test.want {
				t.Errorf("have %v, want %v", have, test.want)
			}
		})
	}
}

func TestAttributes(t *testing.T) {
	a := NewAttributes("units", "K", "long_name", "temperature")
	if err := a.SetNumbers("valid_range", Float, 200, 350); err != nil {
		t.Fatal(err)
	}
	a.SetText("units", "degC")
	if want := []string{"units", "long_name", "valid_range"}; !reflect.DeepEqual(a.Names(), want) {
		t.Errorf("names: have %v, want %v", a.Names(), want)
	}
	if a.Text("units") != "degC" {
		t.Errorf("units: have %q", a.Text("units"))
	}
	if a.Text("valid_range") != "" {
		t.Error("numeric attributes have no text")
	}
	n, ok := a.Numbers("valid_range")
	if !ok || !reflect.DeepEqual(n, []float64{200, 350}) {
		t.Errorf("valid_range: have %v", n)
	}
	c := a.Clone()
	c.Delete("units")
	if !a.Has("units") || c.Has("units") {
		t.Error("clones should be independent")
	}
	if err := a.SetNumbers("bad", Char, 1); !errors.Is(err, ErrConfiguration) {
		t.Errorf("char numbers: have %v", err)
	}
	if err := a.Set(Attribute{Text: "x", Type: Char}); !errors.Is(err, ErrConfiguration) {
		t.Errorf("empty name: have %v", err)
	}
	var empty *Attributes
	if empty.Len() != 0 || empty.Clone().Len() != 0 {
		t.Error("nil attributes should be empty")
	}
}

func TestString(t *testing.T) {
	ds := station(t, 2)
	s := ds.String()
	for _, want := range []string{"time = UNLIMITED // (2 currently)", "lat = 2", "tas:units"} {
		if !strings.Contains(s, want) {
			t.Errorf("%q is missing %q", s, want)
		}
	}
}
