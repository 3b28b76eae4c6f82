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

// Package cf interprets the unit and calendar metadata of the Climate and
// Forecast (CF) conventions: coordinate units, reference-time encodings,
// calendars and conversions between physical units.
package cf

import (
	"fmt"
	"regexp"
	"strings"
)

// Kind is the kind of quantity a units string describes.
type Kind int

// Kinds of units.
const (
	Other Kind = iota
	Latitude
	Longitude
	ReferenceTime
)

func (k Kind) String() string {
	switch k {
	case Latitude:
		return "latitude"
	case Longitude:
		return "longitude"
	case ReferenceTime:
		return "reference time"
	default:
		return "other"
	}
}

// Units is a parsed units attribute.
type Units struct {
	Kind Kind
	Raw  string

	// For ReferenceTime units, the length of one step in seconds and the
	// reference date, e.g. "days since 1977-01-01".
	Step      string
	Seconds   float64
	Reference Date
}

func (u Units) String() string { return u.Raw }

var latitudeUnits = map[string]bool{
	"degrees_north": true, "degree_north": true, "degree_n": true,
	"degrees_n": true, "degreen": true, "degreesn": true,
}

var longitudeUnits = map[string]bool{
	"degrees_east": true, "degree_east": true, "degree_e": true,
	"degrees_e": true, "degreee": true, "degreese": true,
}

var timeSteps = map[string]float64{
	"weeks": 7 * 86400, "week": 7 * 86400,
	"days": 86400, "day": 86400, "d": 86400,
	"hours": 3600, "hour": 3600, "hrs": 3600, "hr": 3600, "h": 3600,
	"minutes": 60, "minute": 60, "mins": 60, "min": 60,
	"seconds": 1, "second": 1, "secs": 1, "sec": 1, "s": 1,
}

// sinceUnits matches "<step> since <date>". The date keeps its case.
var sinceUnits = regexp.MustCompile(`(?i)^\s*(\S+)\s+since\s+(.*\S)\s*$`)

// ParseUnits classifies a units string. Strings that are not latitude,
// longitude or reference-time units are returned with Kind Other and no
// error; a malformed "<step> since <date>" string is an error.
func ParseUnits(s string) (Units, error) {
	u := Units{Raw: s}
	t := strings.ToLower(strings.TrimSpace(s))
	switch {
	case latitudeUnits[t]:
		u.Kind = Latitude
		return u, nil
	case longitudeUnits[t]:
		u.Kind = Longitude
		return u, nil
	}
	m := sinceUnits.FindStringSubmatch(s)
	if m == nil {
		return u, nil
	}
	step := strings.ToLower(m[1])
	secs, ok := timeSteps[step]
	if !ok {
		return u, fmt.Errorf("cf: unsupported time step %q in units %q", step, s)
	}
	ref, err := parseISODate(m[2])
	if err != nil {
		return u, fmt.Errorf("cf: invalid reference date in units %q: %v", s, err)
	}
	u.Kind = ReferenceTime
	u.Step = step
	u.Seconds = secs
	u.Reference = ref
	return u, nil
}

// TimeUnits returns reference-time units of the given step since ref,
// for example TimeUnits("days", d) gives "days since 1977-01-01 00:00:00".
func TimeUnits(step string, ref Date) (Units, error) {
	return ParseUnits(fmt.Sprintf("%s since %s", step, ref))
}
