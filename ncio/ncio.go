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

// Package ncio reads and writes climstats datasets in the netCDF classic
// format.
package ncio

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
	"github.com/spatialmodel/climstats"
)

// File is an open netCDF file whose variables are read from and
// written to the file on demand.
type File struct {
	*climstats.Dataset

	path     string
	f        *os.File
	nc       *cdf.File
	numRecs  int
	writable bool
}

// Open opens the netCDF file at path. If writable is true, values
// assigned to the dataset's variables are written to the file and the
// record dimension, if any, can grow. The file must be closed with
// Close.
func Open(path string, writable bool) (*File, error) {
	flag := os.O_RDONLY
	if writable {
		flag = os.O_RDWR
	}
	f, err := os.OpenFile(path, flag, 0)
	if err != nil {
		return nil, fmt.Errorf("ncio: opening %s: %v", path, err)
	}
	nc, err := cdf.Open(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("ncio: reading header of %s: %v", path, err)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	file := &File{
		path:     path,
		f:        f,
		nc:       nc,
		numRecs:  int(nc.Header.NumRecs(fi.Size())),
		writable: writable,
	}
	if err := file.init(); err != nil {
		f.Close()
		return nil, fmt.Errorf("ncio: %s: %v", path, err)
	}
	return file, nil
}

func (f *File) init() error {
	h := f.nc.Header
	attrs, err := readAttributes(h, "")
	if err != nil {
		return err
	}
	f.Dataset = climstats.NewDataset(attrs)
	lengths := h.Lengths("")
	for i, name := range h.Dimensions("") {
		size, unlimited := lengths[i], lengths[i] == 0
		if unlimited {
			size = f.numRecs
		}
		if _, err := f.AddDimension(name, size, unlimited); err != nil {
			return err
		}
	}
	for _, name := range h.Variables() {
		s, err := f.newStorage(name)
		if err != nil {
			return err
		}
		if _, err := f.AddVariableStorage(name, h.Dimensions(name), s.dtype, s.attrs, s); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the file, first recording the number of records if the
// file was opened for writing.
func (f *File) Close() error {
	if f.writable {
		if err := cdf.UpdateNumRecs(f.f); err != nil {
			f.f.Close()
			return fmt.Errorf("ncio: updating record count of %s: %v", f.path, err)
		}
	}
	return f.f.Close()
}

// Load reads the netCDF file at path into memory.
func Load(path string) (*climstats.Dataset, error) {
	f, err := Open(path, false)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return InMemory(f.Dataset)
}

// InMemory returns a copy of ds whose variables are all held in memory.
func InMemory(ds *climstats.Dataset) (*climstats.Dataset, error) {
	o := climstats.NewDataset(ds.Attributes())
	for _, d := range ds.Dimensions() {
		if _, err := o.AddDimension(d.Name(), d.Len(), d.Unlimited()); err != nil {
			return nil, err
		}
	}
	for _, v := range ds.Variables() {
		if _, err := o.CopyVariable(v.View(), ""); err != nil {
			return nil, fmt.Errorf("ncio: loading %s: %v", v.Name(), err)
		}
	}
	return o, nil
}

// storage holds the values of one variable in a netCDF file.
type storage struct {
	file    *File
	name    string
	dtype   climstats.DType
	attrs   *climstats.Attributes
	lengths []int
	record  bool

	fill    float64
	missing []float64
	pack    packing
}

func (f *File) newStorage(name string) (*storage, error) {
	h := f.nc.Header
	attrs, err := readAttributes(h, name)
	if err != nil {
		return nil, err
	}
	s := &storage{
		file:    f,
		name:    name,
		attrs:   attrs,
		lengths: append([]int(nil), h.Lengths(name)...),
		record:  h.IsRecordVariable(name),
	}
	switch h.ZeroValue(name, 0).(type) {
	case []uint8:
		s.dtype = climstats.Byte
	case string:
		s.dtype = climstats.Char
	case []int16:
		s.dtype = climstats.Short
	case []int32:
		s.dtype = climstats.Int
	case []float32:
		s.dtype = climstats.Float
	case []float64:
		s.dtype = climstats.Double
	default:
		return nil, fmt.Errorf("variable %s has an unsupported type", name)
	}
	s.fill = toFloat(h.FillValue(name), s.dtype)
	s.missing, _ = s.attrs.Numbers("missing_value")
	s.pack = packingOf(s.attrs)
	return s, nil
}

func (s *storage) Shape() []int {
	o := append([]int(nil), s.lengths...)
	if s.record {
		o[0] = s.file.numRecs
	}
	return o
}

func (s *storage) checkBlock(begin, end []int) error {
	shape := s.Shape()
	if len(begin) != len(shape) || len(end) != len(shape) {
		return fmt.Errorf("ncio: %s: block rank does not match %d dimensions: %w", s.name, len(shape), climstats.ErrBounds)
	}
	for i := range shape {
		if begin[i] < 0 || end[i] < begin[i] || end[i] > shape[i] {
			return fmt.Errorf("ncio: %s: block [%d, %d) outside [0, %d) along axis %d: %w",
				s.name, begin[i], end[i], shape[i], i, climstats.ErrBounds)
		}
	}
	return nil
}

func (s *storage) Read(begin, end []int) (*sparse.DenseArray, error) {
	if err := s.checkBlock(begin, end); err != nil {
		return nil, err
	}
	count := make([]int, len(begin))
	for i := range begin {
		count[i] = end[i] - begin[i]
	}
	o := sparse.ZerosDense(count...)
	err := runs(s.Shape(), begin, end, func(first, last []int, off, n int) error {
		r := s.file.nc.Reader(s.name, first, last)
		buf := r.Zero(n)
		if _, err := r.Read(buf); err != nil {
			return fmt.Errorf("ncio: reading %s at %v: %v", s.name, first, err)
		}
		s.decode(buf, o.Elements[off:off+n])
		return nil
	})
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (s *storage) Write(begin []int, a *sparse.DenseArray) error {
	if !s.file.writable {
		return fmt.Errorf("ncio: %s was opened read-only", s.file.path)
	}
	end := make([]int, len(begin))
	for i := range begin {
		end[i] = begin[i] + a.Shape[i]
	}
	if err := s.checkBlock(begin, end); err != nil {
		return err
	}
	return runs(s.Shape(), begin, end, func(first, last []int, off, n int) error {
		if err := writeRun(s.file.nc.Writer(s.name, first, last), s.encode(a.Elements[off:off+n]), n); err != nil {
			return fmt.Errorf("ncio: writing %s at %v: %v", s.name, first, err)
		}
		return nil
	})
}

// writeRun writes the n values of a run whose inclusive end corner was
// given to w. The strider reports io.EOF once its end is reached, which
// is only an error if the run was cut short.
func writeRun(w cdf.Writer, vals interface{}, n int) error {
	nw, err := w.Write(vals)
	if err == io.EOF && nw == n {
		return nil
	}
	if err == nil && nw != n {
		return io.ErrShortWrite
	}
	return err
}

// Grow appends fill records. Only the record dimension can grow.
func (s *storage) Grow(shape []int) error {
	cur := s.Shape()
	for i := range cur {
		if shape[i] == cur[i] {
			continue
		}
		if i != 0 || !s.record || shape[i] < cur[i] {
			return fmt.Errorf("ncio: %s can only grow along the record dimension: %w", s.name, climstats.ErrBounds)
		}
	}
	if !s.file.writable {
		return fmt.Errorf("ncio: %s was opened read-only", s.file.path)
	}
	for r := s.file.numRecs; s.record && r < shape[0]; r++ {
		if err := s.file.nc.FillRecord(r); err != nil {
			return fmt.Errorf("ncio: adding record %d: %v", r, err)
		}
		s.file.numRecs = r + 1
	}
	return nil
}

// runs calls fn for each block of elements within [begin, end) that is
// stored contiguously in a variable of the given shape. first and last
// are the inclusive corners of the run; off is the position of its
// first element in the row-major block.
func runs(shape, begin, end []int, fn func(first, last []int, off, n int) error) error {
	rank := len(shape)
	for i := range begin {
		if end[i] == begin[i] {
			return nil
		}
	}
	if rank == 0 {
		return fn(nil, nil, 0, 1)
	}
	split := rank - 1
	for split > 0 && begin[split] == 0 && end[split] == shape[split] {
		split--
	}
	n := end[split] - begin[split]
	for _, l := range shape[split+1:] {
		n *= l
	}
	outer := make([]int, split)
	counts := make([]int, split)
	for i := range counts {
		counts[i] = end[i] - begin[i]
	}
	off := 0
	for {
		first := make([]int, rank)
		last := make([]int, rank)
		for i := 0; i < split; i++ {
			first[i] = begin[i] + outer[i]
			last[i] = first[i]
		}
		first[split], last[split] = begin[split], end[split]-1
		for i := split + 1; i < rank; i++ {
			last[i] = shape[i] - 1
		}
		if err := fn(first, last, off, n); err != nil {
			return err
		}
		off += n
		if !next(outer, counts) {
			return nil
		}
	}
}

func next(idx, shape []int) bool {
	for i := len(idx) - 1; i >= 0; i-- {
		idx[i]++
		if idx[i] < shape[i] {
			return true
		}
		idx[i] = 0
	}
	return false
}

// toFloat converts a scalar value of a netCDF type to float64.
func toFloat(v interface{}, t climstats.DType) float64 {
	switch x := v.(type) {
	case int8:
		return float64(x)
	case uint8:
		if t == climstats.Byte {
			return float64(int8(x))
		}
		return float64(x)
	case int16:
		return float64(x)
	case int32:
		return float64(x)
	case float32:
		return float64(x)
	case float64:
		return x
	}
	return math.NaN()
}
