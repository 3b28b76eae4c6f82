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
	"math"

	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/climstats"
)

// FilterConfig holds the settings of a station filter run.
type FilterConfig struct {
	Source, Output string

	// Variable is the station data variable, with a time dimension and
	// a station dimension.
	Variable string

	// Start and End bound the time period to keep. Empty values leave
	// the period open.
	Start, End string

	// Threshold is the minimum percentage of valid values a station
	// needs within the period.
	Threshold float64

	// ElevationMin and ElevationMax bound the "elevation" variable of
	// the kept stations.
	ElevationMin, ElevationMax float64

	History  string
	CacheDir string
	Retries  int
}

// Filter writes the stations of the source dataset that have enough
// valid data within a time period, and lie within an elevation range,
// to a new dataset restricted to that period.
func Filter(ctx context.Context, c FilterConfig, log logrus.FieldLogger) error {
	if c.Variable == "" {
		return stageErr(StageConfig, "variable", fmt.Errorf("no station variable specified: %w", climstats.ErrConfiguration))
	}
	if c.Output == "" {
		return stageErr(StageConfig, "output", fmt.Errorf("no output file specified: %w", climstats.ErrConfiguration))
	}
	ds, err := load(ctx, c.Source, c.CacheDir, c.Retries, log)
	if err != nil {
		return err
	}
	v, err := ds.Variable(c.Variable)
	if err != nil {
		return stageErr(StageLoad, c.Variable, err)
	}
	timeDim, err := ds.TimeDimension()
	if err != nil {
		return stageErr(StageLoad, c.Source, err)
	}
	stationDim, err := stationDimension(v, timeDim.Name())
	if err != nil {
		return stageErr(StageLoad, c.Variable, err)
	}

	view := v.View()
	var lo, hi interface{} = math.Inf(-1), math.Inf(1)
	if c.Start != "" {
		lo = c.Start
	}
	if c.End != "" {
		hi = c.End
	}
	if err := view.Narrow(climstats.Time, climstats.Between(lo, hi)); err != nil {
		return stageErr(StageSubset, c.Variable, err)
	}
	period := view.Window()[v.Axis(timeDim.Name())]

	keep, err := selectStations(ds, view, stationDim, c)
	if err != nil {
		return stageErr(StageSubset, c.Variable, err)
	}
	log.WithFields(logrus.Fields{
		"stations": len(keep),
		"of":       view.Shape()[v.Axis(stationDim)],
	}).Info("filtered stations")
	if len(keep) == 0 {
		return stageErr(StageSubset, c.Variable, fmt.Errorf("no stations pass the filter: %w", climstats.ErrBounds))
	}

	out, err := restrict(ds, timeDim.Name(), period, stationDim, keep)
	if err != nil {
		return stageErr(StageSubset, c.Variable, err)
	}
	addHistory(out.Attributes(), c.History)
	up := &uploader{retries: uint64(c.Retries), log: log}
	return save(ctx, out, c.Output, up, log)
}

// stationDimension returns the dimension of 2-D variable v that is not
// the time dimension.
func stationDimension(v *climstats.Variable, timeDim string) (string, error) {
	names := v.DimNames()
	if len(names) != 2 || v.Axis(timeDim) < 0 {
		return "", fmt.Errorf("station variable must have a time and a station dimension, not %v: %w",
			names, climstats.ErrConfiguration)
	}
	if names[0] == timeDim {
		return names[1], nil
	}
	return names[0], nil
}

// selectStations returns the station positions that pass the data
// threshold and elevation filters.
func selectStations(ds *climstats.Dataset, view *climstats.View, stationDim string, c FilterConfig) ([]int, error) {
	var elevation []float64
	if e, err := ds.Variable("elevation"); err == nil && e.Rank() == 1 && e.DimNames()[0] == stationDim {
		if elevation, err = e.View().Values(); err != nil {
			return nil, err
		}
	} else if !math.IsInf(c.ElevationMin, -1) || !math.IsInf(c.ElevationMax, 1) {
		return nil, fmt.Errorf("elevation bounds given but the dataset has no elevation along %s: %w",
			stationDim, climstats.ErrUnknownVariable)
	}
	n := view.Shape()[view.Variable().Axis(stationDim)]
	var keep []int
	for s := 0; s < n; s++ {
		vals, err := view.Take(stationDim, []int{s})
		if err != nil {
			return nil, err
		}
		if len(vals.Elements) == 0 {
			continue
		}
		valid := 0
		for _, x := range vals.Elements {
			if !math.IsNaN(x) {
				valid++
			}
		}
		if 100*float64(valid)/float64(len(vals.Elements)) < c.Threshold {
			continue
		}
		if elevation != nil && (elevation[s] < c.ElevationMin || elevation[s] > c.ElevationMax) {
			continue
		}
		keep = append(keep, s)
	}
	return keep, nil
}

// restrict returns a copy of ds holding the time steps within period and
// the stations at positions keep.
func restrict(ds *climstats.Dataset, timeDim string, period [2]int, stationDim string, keep []int) (*climstats.Dataset, error) {
	out := climstats.NewDataset(ds.Attributes())
	for _, d := range ds.Dimensions() {
		size := d.Len()
		switch d.Name() {
		case timeDim:
			size = period[1] - period[0]
		case stationDim:
			size = len(keep)
		}
		if _, err := out.AddDimension(d.Name(), size, d.Unlimited()); err != nil {
			return nil, err
		}
	}
	for _, v := range ds.Variables() {
		view := v.View()
		if v.Axis(timeDim) >= 0 {
			if err := view.NarrowDim(timeDim, period[0], period[1]); err != nil {
				return nil, err
			}
		}
		if v.Axis(stationDim) < 0 {
			if _, err := out.CopyVariable(view, ""); err != nil {
				return nil, err
			}
			continue
		}
		vals, err := view.Take(stationDim, keep)
		if err != nil {
			return nil, err
		}
		nv, err := out.AddVariable(v.Name(), v.DimNames(), v.DType(), v.Attributes())
		if err != nil {
			return nil, err
		}
		if len(vals.Elements) > 0 {
			if err := nv.Set(vals); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}
