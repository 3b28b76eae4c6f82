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
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

var isoDate = regexp.MustCompile(`(?i)^(-?\d{1,4})-(\d{1,2})-(\d{1,2})` +
	`(?:[ T](\d{1,2}):(\d{1,2})(?::(\d{1,2})(\.\d+)?)?)?` +
	`\s*(Z|UTC|GMT|[+-]\d{1,2}(?::?\d{2})?)?$`)

// parseISODate parses dates of the form used in CF reference times,
// "1977-1-1", "1977-01-01 00:00:00" or "1977-01-01T00:00:00Z". Month
// and day are not checked against any calendar. Numeric time zone
// offsets are applied to the time of day.
func parseISODate(s string) (Date, error) {
	m := isoDate.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return Date{}, fmt.Errorf("cf: invalid date %q", s)
	}
	atoi := func(x string) int {
		if x == "" {
			return 0
		}
		i, _ := strconv.Atoi(x)
		return i
	}
	d := Date{
		Year: atoi(m[1]), Month: atoi(m[2]), Day: atoi(m[3]),
		Hour: atoi(m[4]), Minute: atoi(m[5]), Second: atoi(m[6]),
	}
	if m[7] != "" {
		f, _ := strconv.ParseFloat(m[7], 64)
		d.Nanosecond = int(math.Round(f * 1e9))
	}
	if d.Month < 1 || d.Month > 12 || d.Day < 1 || d.Day > 31 || d.Hour > 23 || d.Minute > 59 || d.Second > 60 {
		return Date{}, fmt.Errorf("cf: invalid date %q", s)
	}
	if tz := strings.ToUpper(m[8]); tz != "" && tz != "Z" && tz != "UTC" && tz != "GMT" {
		sign := 1
		if tz[0] == '-' {
			sign = -1
		}
		tz = strings.Replace(tz[1:], ":", "", 1)
		h, mm := tz, ""
		if len(tz) > 2 {
			h, mm = tz[:len(tz)-2], tz[len(tz)-2:]
		}
		off := sign * (atoi(h)*60 + atoi(mm))
		d.Minute -= off
		for d.Minute < 0 {
			d.Minute += 60
			d.Hour--
		}
		for d.Minute >= 60 {
			d.Minute -= 60
			d.Hour++
		}
		if d.Hour < 0 || d.Hour > 23 {
			return Date{}, fmt.Errorf("cf: time zone offset in %q crosses a day boundary, which is not supported", s)
		}
	}
	return d, nil
}

// ParseDate parses a date literal. ISO-like dates are parsed directly
// so that dates valid only in non-standard calendars are accepted;
// other layouts, such as "Feb 10, 1977" or "1977/02/10", are parsed as
// UTC times.
func ParseDate(s string) (Date, error) {
	if d, err := parseISODate(s); err == nil {
		return d, nil
	}
	t, err := dateparse.ParseIn(strings.TrimSpace(s), time.UTC)
	if err != nil {
		return Date{}, fmt.Errorf("cf: invalid date %q: %v", s, err)
	}
	return FromTime(t), nil
}
