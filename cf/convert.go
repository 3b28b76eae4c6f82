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

package cf

import (
	"fmt"
	"strings"

	"github.com/ctessum/unit"
)

// physical describes a unit as factor*x + offset in SI base units.
type physical struct {
	factor, offset float64
	dims           unit.Dimensions
}

var massFlux = unit.Dimensions{unit.MassDim: 1, unit.LengthDim: -2, unit.TimeDim: -1}
var massPerArea = unit.Dimensions{unit.MassDim: 1, unit.LengthDim: -2}

// physicalUnits are the units Conversion understands. Precipitation
// depths are water equivalents: 1 mm of water is 1 kg m-2.
var physicalUnits = map[string]physical{
	"1":          {1, 0, unit.Dimless},
	"%":          {0.01, 0, unit.Dimless},
	"percent":    {0.01, 0, unit.Dimless},
	"fraction":   {1, 0, unit.Dimless},
	"k":          {1, 0, unit.Kelvin},
	"kelvin":     {1, 0, unit.Kelvin},
	"degc":       {1, 273.15, unit.Kelvin},
	"deg_c":      {1, 273.15, unit.Kelvin},
	"celsius":    {1, 273.15, unit.Kelvin},
	"degrees_c":  {1, 273.15, unit.Kelvin},
	"degree_c":   {1, 273.15, unit.Kelvin},
	"c":          {1, 273.15, unit.Kelvin},
	"degf":       {5.0 / 9, 273.15 - 32*5.0/9, unit.Kelvin},
	"deg_f":      {5.0 / 9, 273.15 - 32*5.0/9, unit.Kelvin},
	"f":          {5.0 / 9, 273.15 - 32*5.0/9, unit.Kelvin},
	"fahrenheit": {5.0 / 9, 273.15 - 32*5.0/9, unit.Kelvin},
	"m":          {1, 0, unit.Meter},
	"cm":         {0.01, 0, unit.Meter},
	"km":         {1000, 0, unit.Meter},
	"in":         {0.0254, 0, unit.Meter},
	"ft":         {0.3048, 0, unit.Meter},
	"m s-1":      {1, 0, unit.MeterPerSecond},
	"m/s":        {1, 0, unit.MeterPerSecond},
	"km/h":       {1000.0 / 3600, 0, unit.MeterPerSecond},
	"km h-1":     {1000.0 / 3600, 0, unit.MeterPerSecond},
	"mph":        {0.44704, 0, unit.MeterPerSecond},
	"knots":      {1852.0 / 3600, 0, unit.MeterPerSecond},
	"pa":         {1, 0, unit.Pascal},
	"hpa":        {100, 0, unit.Pascal},
	"mb":         {100, 0, unit.Pascal},
	"kpa":        {1000, 0, unit.Pascal},
	"s":          {1, 0, unit.Second},
	"hours":      {3600, 0, unit.Second},
	"days":       {86400, 0, unit.Second},
	"kg m-2":     {1, 0, massPerArea},
	"mm":         {1, 0, massPerArea},
	"kg m-2 s-1": {1, 0, massFlux},
	"kg/m2/s":    {1, 0, massFlux},
	"mm s-1":     {1, 0, massFlux},
	"mm/s":       {1, 0, massFlux},
	"mm h-1":     {1.0 / 3600, 0, massFlux},
	"mm/h":       {1.0 / 3600, 0, massFlux},
	"mm/hr":      {1.0 / 3600, 0, massFlux},
	"mm d-1":     {1.0 / 86400, 0, massFlux},
	"mm day-1":   {1.0 / 86400, 0, massFlux},
	"mm/day":     {1.0 / 86400, 0, massFlux},
	"mm/d":       {1.0 / 86400, 0, massFlux},
}

func lookupPhysical(s string) (physical, error) {
	p, ok := physicalUnits[strings.ToLower(strings.Join(strings.Fields(s), " "))]
	if !ok {
		return physical{}, fmt.Errorf("cf: unsupported units %q", s)
	}
	return p, nil
}

// Conversion returns scale and offset such that x*scale + offset
// converts a value in units from to units to.
func Conversion(from, to string) (scale, offset float64, err error) {
	f, err := lookupPhysical(from)
	if err != nil {
		return 0, 0, err
	}
	t, err := lookupPhysical(to)
	if err != nil {
		return 0, 0, err
	}
	if err := unit.New(f.factor, f.dims).Check(t.dims); err != nil {
		return 0, 0, fmt.Errorf("cf: cannot convert %q to %q: %v", from, to, err)
	}
	return f.factor / t.factor, (f.offset - t.offset) / t.factor, nil
}
