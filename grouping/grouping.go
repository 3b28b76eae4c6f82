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

// Package grouping provides functions that partition a time coordinate
// into calendar periods for aggregation.
package grouping

import (
	"fmt"
	"sort"

	"github.com/spatialmodel/climstats"
	"github.com/spatialmodel/climstats/cf"
)

// Dates decodes the values of a time coordinate using its units and
// calendar attributes.
func Dates(c *climstats.View) ([]cf.Date, error) {
	u, err := cf.ParseUnits(c.Attributes().Text("units"))
	if err != nil {
		return nil, err
	}
	if u.Kind != cf.ReferenceTime {
		return nil, fmt.Errorf("grouping: coordinate %s has units %q, not reference-time units", c.Name(), u.Raw)
	}
	vals, err := c.Values()
	if err != nil {
		return nil, err
	}
	cal := c.Attributes().Text("calendar")
	o := make([]cf.Date, len(vals))
	for i, v := range vals {
		o[i], err = cf.NumToDate(v, u, cal)
		if err != nil {
			return nil, fmt.Errorf("grouping: %s[%d]: %v", c.Name(), i, err)
		}
	}
	return o, nil
}

// ByKey returns a grouping function that puts positions whose dates
// share a key into the same group. Groups are returned in order of
// first appearance.
func ByKey(key func(cf.Date) string) climstats.GroupingFunc {
	return func(c *climstats.View) ([]climstats.Group, error) {
		dates, err := Dates(c)
		if err != nil {
			return nil, err
		}
		var groups []climstats.Group
		index := make(map[string]int)
		for i, d := range dates {
			k := key(d)
			j, ok := index[k]
			if !ok {
				j = len(groups)
				index[k] = j
				groups = append(groups, climstats.Group{Key: k})
			}
			groups[j].Indices = append(groups[j].Indices, i)
		}
		return groups, nil
	}
}

// Season returns the meteorological season of a month: DJF, MAM, JJA
// or SON.
func Season(month int) string {
	switch month {
	case 12, 1, 2:
		return "DJF"
	case 3, 4, 5:
		return "MAM"
	case 6, 7, 8:
		return "JJA"
	default:
		return "SON"
	}
}

// SeasonYear returns the year a date's season belongs to. December
// belongs to the winter of the following year.
func SeasonYear(d cf.Date) int {
	if d.Month == 12 {
		return d.Year + 1
	}
	return d.Year
}

var (
	// Day groups by calendar day.
	Day = ByKey(func(d cf.Date) string { return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day) })

	// Month groups by month of the year across all years.
	Month = ByKey(func(d cf.Date) string { return fmt.Sprintf("%02d", d.Month) })

	// Season groups by season across all years.
	SeasonOfYear = ByKey(func(d cf.Date) string { return Season(d.Month) })

	// Year groups by year.
	Year = ByKey(func(d cf.Date) string { return fmt.Sprintf("%04d", d.Year) })

	// YearMonth groups by month of each year.
	YearMonth = ByKey(func(d cf.Date) string { return fmt.Sprintf("%04d-%02d", d.Year, d.Month) })

	// YearSeason groups by season of each year.
	YearSeason = ByKey(func(d cf.Date) string { return fmt.Sprintf("%04d-%s", SeasonYear(d), Season(d.Month)) })
)

var registry = map[string]climstats.GroupingFunc{
	"day":        Day,
	"month":      Month,
	"season":     SeasonOfYear,
	"year":       Year,
	"yearmonth":  YearMonth,
	"yearseason": YearSeason,
}

// Lookup returns the grouping function with the given name.
func Lookup(name string) (climstats.GroupingFunc, error) {
	f, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("grouping: unknown aggregation %q (valid options are %v): %w",
			name, Names(), climstats.ErrConfiguration)
	}
	return f, nil
}

// Names returns the names of the registered grouping functions.
func Names() []string {
	o := make([]string, 0, len(registry))
	for n := range registry {
		o = append(o, n)
	}
	sort.Strings(o)
	return o
}
