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

package climstatsutil

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/climstats"
	"github.com/spatialmodel/climstats/cf"
	"github.com/spatialmodel/climstats/grouping"
	"github.com/spatialmodel/climstats/ncio"
	"github.com/spatialmodel/climstats/reduce"
)

// StatsConfig holds the settings of a statistics run.
type StatsConfig struct {
	// Source is the input dataset: a local path, an http(s) URL or a
	// blob path.
	Source string

	// Output is the path of the output dataset, which may be a blob
	// path.
	Output string

	// Variables are the variables to compute statistics of. If empty,
	// every data variable is used.
	Variables []string

	// Aggregation names the grouping of time steps, e.g. "yearmonth".
	Aggregation string

	// Statistic is the reducer specification, e.g. "days_above,30".
	Statistic string

	Tolerance     float64
	Scale, Offset float64

	// Units, if set, are the units of the results. If Scale and Offset
	// are left at 1 and 0, they are derived from the source units.
	Units string

	// Subset holds selections of the form "role=lo,hi".
	Subset []string

	// Derive holds derived variables of the form "name=expression".
	Derive []string

	// Name is the name of the result variable. It can only be set when
	// a single variable is processed.
	Name string

	// History is recorded in the history attribute of the output.
	History string

	CacheDir string
	Retries  int
}

type subset struct {
	role climstats.Role
	sel  climstats.Selector
}

type derivation struct {
	name, expr string
}

func parseSubsets(s []string) ([]subset, error) {
	var o []subset
	for _, x := range s {
		parts := strings.SplitN(x, "=", 2)
		if len(parts) != 2 {
			return nil, stageErr(StageConfig, x, fmt.Errorf("subset must have the form role=lo,hi: %w", climstats.ErrConfiguration))
		}
		role := climstats.Role(strings.TrimSpace(parts[0]))
		switch role {
		case climstats.Time, climstats.Latitude, climstats.Longitude:
		default:
			return nil, stageErr(StageConfig, x, fmt.Errorf("invalid coordinate %q (valid options are time, latitude, longitude): %w",
				role, climstats.ErrConfiguration))
		}
		o = append(o, subset{role: role, sel: climstats.ParseSelector(parts[1])})
	}
	return o, nil
}

func parseDerivations(s []string) ([]derivation, error) {
	var o []derivation
	for _, x := range s {
		parts := strings.SplitN(x, "=", 2)
		if len(parts) != 2 || strings.TrimSpace(parts[0]) == "" {
			return nil, stageErr(StageConfig, x, fmt.Errorf("derived variable must have the form name=expression: %w", climstats.ErrConfiguration))
		}
		o = append(o, derivation{name: strings.TrimSpace(parts[0]), expr: parts[1]})
	}
	return o, nil
}

// Stats computes a statistic of the variables of the source dataset
// over the groups of time steps given by the aggregation and writes the
// results to the output dataset.
func Stats(ctx context.Context, c StatsConfig, log logrus.FieldLogger) error {
	fn, err := grouping.Lookup(c.Aggregation)
	if err != nil {
		return stageErr(StageConfig, "aggregation", err)
	}
	red, err := reduce.Parse(c.Statistic)
	if err != nil {
		return stageErr(StageConfig, "statistic", err)
	}
	subsets, err := parseSubsets(c.Subset)
	if err != nil {
		return err
	}
	derivations, err := parseDerivations(c.Derive)
	if err != nil {
		return err
	}
	if c.Output == "" {
		return stageErr(StageConfig, "output", fmt.Errorf("no output file specified: %w", climstats.ErrConfiguration))
	}
	if c.Tolerance < 0 || c.Tolerance > 1 {
		return stageErr(StageConfig, "tolerance", fmt.Errorf("tolerance %g is not between 0 and 1: %w", c.Tolerance, climstats.ErrConfiguration))
	}

	ds, err := load(ctx, c.Source, c.CacheDir, c.Retries, log)
	if err != nil {
		return err
	}
	if !ds.Classified() {
		return stageErr(StageLoad, c.Source, climstats.ErrNoTimeCoordinate)
	}

	for _, d := range derivations {
		if _, err := climstats.Derive(ds, d.name, d.expr, nil); err != nil {
			return stageErr(StageDerive, d.name, err)
		}
		log.WithField("variable", d.name).Debug("derived variable")
	}

	vars, err := selectVariables(ds, c.Variables)
	if err != nil {
		return err
	}
	if c.Name != "" && len(vars) != 1 {
		return stageErr(StageConfig, "name", fmt.Errorf("a result name can only be given for a single variable, not %d: %w",
			len(vars), climstats.ErrConfiguration))
	}

	var out *climstats.Dataset
	for _, v := range vars {
		res, err := statistic(v, fn, red, subsets, c, log)
		if err != nil {
			return err
		}
		if out == nil {
			out = res
			continue
		}
		if err := merge(out, res); err != nil {
			return stageErr(StageApply, v.Name(), err)
		}
	}
	addHistory(out.Attributes(), c.History)

	up := &uploader{retries: uint64(c.Retries), log: log}
	return save(ctx, out, c.Output, up, log)
}

// selectVariables returns the named variables, or, if names is empty,
// every data variable that does not hold reference times.
func selectVariables(ds *climstats.Dataset, names []string) ([]*climstats.Variable, error) {
	var o []*climstats.Variable
	if len(names) == 0 {
		for _, v := range ds.DataVariables() {
			u, _ := cf.ParseUnits(v.Attributes().Text("units"))
			if u.Kind == cf.ReferenceTime {
				continue
			}
			o = append(o, v)
		}
		if len(o) == 0 {
			return nil, stageErr(StageLoad, "variable", fmt.Errorf("dataset has no data variables: %w", climstats.ErrUnknownVariable))
		}
		return o, nil
	}
	for _, n := range names {
		v, err := ds.Variable(n)
		if err != nil {
			return nil, stageErr(StageLoad, n, err)
		}
		o = append(o, v)
	}
	return o, nil
}

// statistic runs the subset, groupby and apply stages for one variable.
func statistic(v *climstats.Variable, fn climstats.GroupingFunc, red climstats.Reducer, subsets []subset, c StatsConfig, log logrus.FieldLogger) (*climstats.Dataset, error) {
	view := v.View()
	for _, s := range subsets {
		if err := view.Narrow(s.role, s.sel); err != nil {
			return nil, stageErr(StageSubset, v.Name(), err)
		}
	}
	gb, err := view.GroupBy(climstats.Time, fn)
	if err != nil {
		return nil, stageErr(StageGroupBy, v.Name(), err)
	}
	opts := climstats.ApplyOptions{
		Name:      c.Name,
		Units:     c.Units,
		Tolerance: c.Tolerance,
		Scale:     c.Scale,
		Offset:    c.Offset,
		Log:       log,
	}
	if opts.Scale == 0 {
		opts.Scale = 1
	}
	from := v.Attributes().Text("units")
	if c.Units != "" && from != "" && from != c.Units && opts.Scale == 1 && opts.Offset == 0 {
		opts.Scale, opts.Offset, err = cf.Conversion(from, c.Units)
		if err != nil {
			return nil, stageErr(StageApply, v.Name(), err)
		}
		log.WithFields(logrus.Fields{
			"variable": v.Name(),
			"from":     from,
			"to":       c.Units,
		}).Info("converting units")
	}
	res, err := gb.Apply(red, opts)
	if err != nil {
		return nil, stageErr(StageApply, v.Name(), err)
	}
	log.WithFields(logrus.Fields{
		"variable":  v.Name(),
		"groups":    gb.Len(),
		"statistic": red.Name,
	}).Info("computed statistic")
	return res, nil
}

// merge adds the variables of src missing from dst to dst, along with
// any dimensions dst does not have.
func merge(dst, src *climstats.Dataset) error {
	for _, d := range src.Dimensions() {
		have, err := dst.Dimension(d.Name())
		if err != nil {
			if _, err := dst.AddDimension(d.Name(), d.Len(), d.Unlimited()); err != nil {
				return err
			}
			continue
		}
		if have.Len() != d.Len() {
			return fmt.Errorf("dimension %s has size %d in one result and %d in another: %w",
				d.Name(), have.Len(), d.Len(), climstats.ErrBounds)
		}
	}
	for _, v := range src.Variables() {
		if _, err := dst.Variable(v.Name()); err == nil {
			continue
		}
		if _, err := dst.CopyVariable(v.View(), ""); err != nil {
			return err
		}
	}
	return nil
}

// addHistory prefixes the history attribute with a timestamped entry.
func addHistory(a *climstats.Attributes, entry string) {
	if entry == "" {
		return
	}
	h := time.Now().UTC().Format(time.RFC3339) + ": " + entry
	if old := a.Text("history"); old != "" {
		h += "\n" + old
	}
	a.SetText("history", h)
}

func load(ctx context.Context, source, cacheDir string, retries int, log logrus.FieldLogger) (*climstats.Dataset, error) {
	f := &fetcher{cacheDir: cacheDir, retries: uint64(retries), log: log}
	local, err := f.maybeDownload(ctx, source)
	if err != nil {
		return nil, stageErr(StageLoad, source, err)
	}
	ds, err := ncio.Load(local)
	if err != nil {
		return nil, stageErr(StageLoad, source, err)
	}
	log.WithField("source", source).Info("loaded dataset")
	return ds, nil
}

func save(ctx context.Context, ds *climstats.Dataset, output string, up *uploader, log logrus.FieldLogger) error {
	local, err := up.maybeUpload(output)
	if err != nil {
		return stageErr(StageSave, output, err)
	}
	if err := ncio.Save(ds, local); err != nil {
		return stageErr(StageSave, output, err)
	}
	if err := up.upload(ctx); err != nil {
		return stageErr(StageSave, output, err)
	}
	log.WithField("output", output).Info("saved dataset")
	return nil
}
