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
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/ctessum/cdf"
	"github.com/spatialmodel/climstats"
)

// sample returns a small dataset with a record dimension, a packed
// integer variable and a character variable.
func sample(t *testing.T) *climstats.Dataset {
	t.Helper()
	ds := climstats.NewDataset(climstats.NewAttributes("title", "sample", "history", "created"))
	for _, d := range []struct {
		name      string
		size      int
		unlimited bool
	}{{"time", 2, true}, {"station", 2, false}, {"strlen", 3, false}} {
		if _, err := ds.AddDimension(d.name, d.size, d.unlimited); err != nil {
			t.Fatal(err)
		}
	}
	add := func(name string, dims []string, dtype climstats.DType, attrs *climstats.Attributes, vals []float64) {
		v, err := ds.AddVariable(name, dims, dtype, attrs)
		if err != nil {
			t.Fatal(err)
		}
		if err := v.SetValues(vals); err != nil {
			t.Fatal(err)
		}
	}
	add("time", []string{"time"}, climstats.Double,
		climstats.NewAttributes("units", "days since 2000-01-01", "calendar", "noleap"), []float64{0, 1})

	tasAttrs := climstats.NewAttributes("units", "K")
	if err := tasAttrs.SetNumbers("_FillValue", climstats.Double, -999); err != nil {
		t.Fatal(err)
	}
	add("tas", []string{"time", "station"}, climstats.Float, tasAttrs, []float64{280.5, math.NaN(), 281, 282.25})

	elevAttrs := climstats.NewAttributes("units", "m")
	if err := elevAttrs.SetNumbers("scale_factor", climstats.Float, 0.5); err != nil {
		t.Fatal(err)
	}
	add("elevation", []string{"station"}, climstats.Short, elevAttrs, []float64{100.5, math.NaN()})
	add("name", []string{"station", "strlen"}, climstats.Char, nil, []float64{'a', 'b', 'c', 'd', 'e', 0})
	return ds
}

func load(t *testing.T, path string) *climstats.Dataset {
	t.Helper()
	ds, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	return ds
}

func valuesOf(t *testing.T, ds *climstats.Dataset, name string) []float64 {
	t.Helper()
	v, err := ds.Variable(name)
	if err != nil {
		t.Fatal(err)
	}
	vals, err := v.View().Values()
	if err != nil {
		t.Fatal(err)
	}
	return vals
}

func equalNaN(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.IsNaN(a[i]) != math.IsNaN(b[i]) {
			return false
		}
		if !math.IsNaN(a[i]) && a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.nc")
	if err := Save(sample(t), path); err != nil {
		t.Fatal(err)
	}
	ds := load(t, path)

	if ds.Attributes().Text("title") != "sample" {
		t.Errorf("title: have %q", ds.Attributes().Text("title"))
	}
	dim, err := ds.Dimension("time")
	if err != nil {
		t.Fatal(err)
	}
	if !dim.Unlimited() || dim.Len() != 2 {
		t.Errorf("time: have %s", dim)
	}
	if !ds.Classified() {
		t.Fatal("the loaded dataset should have a time coordinate")
	}

	tests := []struct {
		name  string
		dtype climstats.DType
		want  []float64
	}{
		{name: "time", dtype: climstats.Double, want: []float64{0, 1}},
		{name: "tas", dtype: climstats.Float, want: []float64{280.5, math.NaN(), 281, 282.25}},
		{name: "elevation", dtype: climstats.Short, want: []float64{100.5, math.NaN()}},
		{name: "name", dtype: climstats.Char, want: []float64{'a', 'b', 'c', 'd', 'e', 0}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			v, err := ds.Variable(test.name)
			if err != nil {
				t.Fatal(err)
			}
			if v.DType() != test.dtype {
				t.Errorf("type: have %v, want %v", v.DType(), test.dtype)
			}
			if have := valuesOf(t, ds, test.name); !equalNaN(have, test.want) {
				t.Errorf("values: have %v, want %v", have, test.want)
			}
		})
	}

	tas, _ := ds.Variable("tas")
	if fill, ok := tas.Attributes().Numbers("_FillValue"); !ok || !reflect.DeepEqual(fill, []float64{-999}) {
		t.Errorf("_FillValue: have %v", fill)
	}
	elev, _ := ds.Variable("elevation")
	if _, ok := elev.Attributes().Numbers("_FillValue"); !ok {
		t.Error("a default _FillValue should be written")
	}
	if want := []string{"elevation", "name"}; !reflect.DeepEqual(varNames(ds.Ancillary()), want) {
		t.Errorf("ancillary: have %v, want %v", varNames(ds.Ancillary()), want)
	}
}

func varNames(vars []*climstats.Variable) []string {
	o := make([]string, len(vars))
	for i, v := range vars {
		o[i] = v.Name()
	}
	return o
}

func TestOpenGrow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grow.nc")
	if err := Save(sample(t), path); err != nil {
		t.Fatal(err)
	}
	f, err := Open(path, true)
	if err != nil {
		t.Fatal(err)
	}
	tv, err := f.Variable("time")
	if err != nil {
		t.Fatal(err)
	}
	if err := tv.View().SetValues([]float64{2, 3}, climstats.Span(2, 4)); err != nil {
		f.Close()
		t.Fatal(err)
	}
	tas, err := f.Variable("tas")
	if err != nil {
		f.Close()
		t.Fatal(err)
	}
	if want := []int{4, 2}; !reflect.DeepEqual(tas.Shape(), want) {
		t.Errorf("tas shape: have %v, want %v", tas.Shape(), want)
	}
	if err := tas.View().SetScalar(290, climstats.At(3), climstats.At(1)); err != nil {
		f.Close()
		t.Fatal(err)
	}
	row, err := tas.View().Values(climstats.At(1))
	if err != nil {
		f.Close()
		t.Fatal(err)
	}
	if want := []float64{281, 282.25}; !equalNaN(row, want) {
		t.Errorf("partial read: have %v, want %v", row, want)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	ds := load(t, path)
	if want := []float64{0, 1, 2, 3}; !equalNaN(valuesOf(t, ds, "time"), want) {
		t.Errorf("time: have %v, want %v", valuesOf(t, ds, "time"), want)
	}
	want := []float64{280.5, math.NaN(), 281, 282.25, math.NaN(), math.NaN(), math.NaN(), 290}
	if have := valuesOf(t, ds, "tas"); !equalNaN(have, want) {
		t.Errorf("tas: have %v, want %v", have, want)
	}
}

func TestReadOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ro.nc")
	if err := Save(sample(t), path); err != nil {
		t.Fatal(err)
	}
	f, err := Open(path, false)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	tas, err := f.Variable("tas")
	if err != nil {
		t.Fatal(err)
	}
	if err := tas.View().SetScalar(1, climstats.At(0)); err == nil {
		t.Error("writing to a read-only file should fail")
	}
	if err := tas.View().SetScalar(1, climstats.At(2)); err == nil {
		t.Error("growing a read-only file should fail")
	}
	if err := tas.View().SetScalar(1, climstats.All(), climstats.At(2)); !errors.Is(err, climstats.ErrBounds) {
		t.Errorf("have %v, want ErrBounds", err)
	}
}

func TestNonRecordUnlimited(t *testing.T) {
	ds := climstats.NewDataset(nil)
	if _, err := ds.AddDimension("station", 2, false); err != nil {
		t.Fatal(err)
	}
	if _, err := ds.AddDimension("time", 3, true); err != nil {
		t.Fatal(err)
	}
	v, err := ds.AddVariable("pr", []string{"station", "time"}, climstats.Int, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := v.SetValues([]float64{1, 2, 3, 4, 5, 6}); err != nil {
		t.Fatal(err)
	}
	if recordDimension(ds) != "" {
		t.Fatalf("time is not the outermost dimension of pr")
	}
	path := filepath.Join(t.TempDir(), "fixed.nc")
	if err := Save(ds, path); err != nil {
		t.Fatal(err)
	}
	out := load(t, path)
	dim, err := out.Dimension("time")
	if err != nil {
		t.Fatal(err)
	}
	if dim.Unlimited() || dim.Len() != 3 {
		t.Errorf("time: have %s", dim)
	}
	if want := []float64{1, 2, 3, 4, 5, 6}; !equalNaN(valuesOf(t, out, "pr"), want) {
		t.Errorf("pr: have %v, want %v", valuesOf(t, out, "pr"), want)
	}
}

func TestRuns(t *testing.T) {
	type run struct {
		first, last []int
		off, n      int
	}
	tests := []struct {
		name              string
		shape, begin, end []int
		want              []run
	}{
		{
			name: "whole", shape: []int{2, 3}, begin: []int{0, 0}, end: []int{2, 3},
			want: []run{{first: []int{0, 0}, last: []int{1, 2}, off: 0, n: 6}},
		},
		{
			name: "inner block", shape: []int{2, 3, 4}, begin: []int{0, 1, 0}, end: []int{2, 3, 4},
			want: []run{
				{first: []int{0, 1, 0}, last: []int{0, 2, 3}, off: 0, n: 8},
				{first: []int{1, 1, 0}, last: []int{1, 2, 3}, off: 8, n: 8},
			},
		},
		{
			name: "column", shape: []int{3, 2}, begin: []int{0, 1}, end: []int{3, 2},
			want: []run{
				{first: []int{0, 1}, last: []int{0, 1}, off: 0, n: 1},
				{first: []int{1, 1}, last: []int{1, 1}, off: 1, n: 1},
				{first: []int{2, 1}, last: []int{2, 1}, off: 2, n: 1},
			},
		},
		{name: "empty", shape: []int{3, 2}, begin: []int{1, 0}, end: []int{1, 2}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var have []run
			err := runs(test.shape, test.begin, test.end, func(first, last []int, off, n int) error {
				have = append(have, run{first: first, last: last, off: off, n: n})
				return nil
			})
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(have, test.want) {
				t.Errorf("have %v, want %v", have, test.want)
			}
		})
	}
}

func TestSaveFixed(t *testing.T) {
	ds := climstats.NewDataset(nil)
	if _, err := ds.AddDimension("x", 3, false); err != nil {
		t.Fatal(err)
	}
	a, err := ds.AddVariable("a", []string{"x"}, climstats.Double, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := a.SetValues([]float64{1, 2, 3}); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "fixed1d.nc")
	if err := Save(ds, path); err != nil {
		t.Fatal(err)
	}
	if want := []float64{1, 2, 3}; !equalNaN(valuesOf(t, load(t, path), "a"), want) {
		t.Errorf("a: have %v, want %v", valuesOf(t, load(t, path), "a"), want)
	}
}

type stubWriter struct {
	n   int
	err error
}

func (w stubWriter) Write(interface{}) (int, error) { return w.n, w.err }

func TestWriteRun(t *testing.T) {
	tests := []struct {
		name string
		w    stubWriter
		ok   bool
	}{
		{name: "complete", w: stubWriter{n: 4}, ok: true},
		{name: "end of run", w: stubWriter{n: 4, err: io.EOF}, ok: true},
		{name: "cut short", w: stubWriter{n: 2, err: io.EOF}},
		{name: "short", w: stubWriter{n: 2}},
		{name: "failure", w: stubWriter{n: 4, err: errors.New("disk full")}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := writeRun(test.w, []float64{1, 2, 3, 4}, 4)
			if (err == nil) != test.ok {
				t.Errorf("have error %v, want ok=%v", err, test.ok)
			}
		})
	}
}

func TestInvalidAttribute(t *testing.T) {
	h := cdf.NewHeader([]string{"x"}, []int{1})
	h.AddVariable("a", []string{"x"}, []float64{0})
	h.AddAttribute("a", "", []float64{1})
	h.Define()
	path := filepath.Join(t.TempDir(), "badattr.nc")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := cdf.Create(f, h); err != nil {
		f.Close()
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("an attribute without a name should fail to load")
	}
}
