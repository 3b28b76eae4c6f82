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
	"strings"
	"time"
)

// Date is a calendar date and time of day. Unlike time.Time it can
// represent dates that exist only in non-standard calendars, such as
// February 30 in the 360-day calendar.
type Date struct {
	Year, Month, Day     int
	Hour, Minute, Second int
	Nanosecond           int
}

// FromTime returns the date of t in UTC.
func FromTime(t time.Time) Date {
	t = t.UTC()
	return Date{
		Year: t.Year(), Month: int(t.Month()), Day: t.Day(),
		Hour: t.Hour(), Minute: t.Minute(), Second: t.Second(),
		Nanosecond: t.Nanosecond(),
	}
}

// Time returns d as a UTC time.Time. Dates that do not exist in the
// proleptic Gregorian calendar are normalized by time.Date.
func (d Date) Time() time.Time {
	return time.Date(d.Year, time.Month(d.Month), d.Day, d.Hour, d.Minute, d.Second, d.Nanosecond, time.UTC)
}

func (d Date) String() string {
	s := fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d", d.Year, d.Month, d.Day, d.Hour, d.Minute, d.Second)
	if d.Nanosecond != 0 {
		s += strings.TrimRight(fmt.Sprintf(".%09d", d.Nanosecond), "0")
	}
	return s
}

// Before reports whether d is earlier than e.
func (d Date) Before(e Date) bool {
	a := [...]int{d.Year, d.Month, d.Day, d.Hour, d.Minute, d.Second, d.Nanosecond}
	b := [...]int{e.Year, e.Month, e.Day, e.Hour, e.Minute, e.Second, e.Nanosecond}
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

func (d Date) secondsOfDay() float64 {
	return float64(d.Hour*3600+d.Minute*60+d.Second) + float64(d.Nanosecond)/1e9
}

// Calendar counts days according to one of the CF calendars.
type Calendar interface {
	// Name returns the canonical calendar name.
	Name() string

	// DaysInMonth returns the length of the month.
	DaysInMonth(year, month int) int

	// Ordinal returns the number of days from 0001-01-01 to the date.
	Ordinal(year, month, day int) (int, error)

	// FromOrdinal is the inverse of Ordinal.
	FromOrdinal(n int) (year, month, day int)
}

var monthDays = [13]int{0, 31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// simple is a calendar with a fixed leap year rule.
type simple struct {
	name   string
	leap   func(y int) bool
	before func(y int) int // days before January 1 of year y
	flat   bool            // all months have 30 days
}

func (c simple) Name() string { return c.name }

func (c simple) DaysInMonth(y, m int) int {
	if c.flat {
		return 30
	}
	if m == 2 && c.leap(y) {
		return 29
	}
	return monthDays[m]
}

func (c simple) Ordinal(y, m, d int) (int, error) {
	if m < 1 || m > 12 || d < 1 || d > c.DaysInMonth(y, m) {
		return 0, fmt.Errorf("cf: date %04d-%02d-%02d does not exist in the %s calendar", y, m, d, c.name)
	}
	n := c.before(y)
	for i := 1; i < m; i++ {
		n += c.DaysInMonth(y, i)
	}
	return n + d - 1, nil
}

func (c simple) FromOrdinal(n int) (y, m, d int) {
	y = floorDiv(n, 366) + 1
	for c.before(y+1) <= n {
		y++
	}
	for c.before(y) > n {
		y--
	}
	n -= c.before(y)
	m = 1
	for n >= c.DaysInMonth(y, m) {
		n -= c.DaysInMonth(y, m)
		m++
	}
	return y, m, n + 1
}

func gregorianLeap(y int) bool { return y%4 == 0 && (y%100 != 0 || y%400 == 0) }
func julianLeap(y int) bool    { return floorDiv(y, 4)*4 == y }

var (
	proleptic = simple{
		name: "proleptic_gregorian",
		leap: gregorianLeap,
		before: func(y int) int {
			p := y - 1
			return 365*p + floorDiv(p, 4) - floorDiv(p, 100) + floorDiv(p, 400)
		},
	}
	julian = simple{
		name:   "julian",
		leap:   julianLeap,
		before: func(y int) int { return 365*(y-1) + floorDiv(y-1, 4) },
	}
	noLeap = simple{
		name:   "noleap",
		leap:   func(int) bool { return false },
		before: func(y int) int { return 365 * (y - 1) },
	}
	allLeap = simple{
		name:   "all_leap",
		leap:   func(int) bool { return true },
		before: func(y int) int { return 366 * (y - 1) },
	}
	day360 = simple{
		name:   "360_day",
		leap:   func(int) bool { return false },
		before: func(y int) int { return 360 * (y - 1) },
		flat:   true,
	}
)

// mixed is the standard CF calendar: Julian before 1582-10-15 and
// Gregorian from then on. Ordinals are continuous across the switch.
type mixed struct{}

var (
	switchGregorian, _ = proleptic.Ordinal(1582, 10, 15)
	switchJulian, _    = julian.Ordinal(1582, 10, 4)
)

func (mixed) Name() string { return "standard" }

func (mixed) DaysInMonth(y, m int) int {
	if y < 1582 || (y == 1582 && m < 10) {
		return julian.DaysInMonth(y, m)
	}
	return proleptic.DaysInMonth(y, m)
}

func (c mixed) Ordinal(y, m, d int) (int, error) {
	if y > 1582 || (y == 1582 && (m > 10 || (m == 10 && d >= 15))) {
		return proleptic.Ordinal(y, m, d)
	}
	if y == 1582 && m == 10 && d > 4 {
		return 0, fmt.Errorf("cf: date %04d-%02d-%02d does not exist in the standard calendar", y, m, d)
	}
	n, err := julian.Ordinal(y, m, d)
	if err != nil {
		return 0, err
	}
	return n - switchJulian + switchGregorian - 1, nil
}

func (mixed) FromOrdinal(n int) (y, m, d int) {
	if n >= switchGregorian {
		return proleptic.FromOrdinal(n)
	}
	return julian.FromOrdinal(n + switchJulian - switchGregorian + 1)
}

// LookupCalendar returns the calendar with the given CF name. The empty
// name selects the standard calendar.
func LookupCalendar(name string) (Calendar, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "standard", "gregorian":
		return mixed{}, nil
	case "proleptic_gregorian":
		return proleptic, nil
	case "julian":
		return julian, nil
	case "noleap", "365_day":
		return noLeap, nil
	case "all_leap", "366_day":
		return allLeap, nil
	case "360_day":
		return day360, nil
	default:
		return nil, fmt.Errorf("cf: unsupported calendar %q", name)
	}
}

// DateToNum encodes d as a number in reference-time units u using the
// named calendar.
func DateToNum(d Date, u Units, calendar string) (float64, error) {
	if u.Kind != ReferenceTime {
		return math.NaN(), fmt.Errorf("cf: units %q are not reference-time units", u.Raw)
	}
	cal, err := LookupCalendar(calendar)
	if err != nil {
		return math.NaN(), err
	}
	n, err := cal.Ordinal(d.Year, d.Month, d.Day)
	if err != nil {
		return math.NaN(), err
	}
	ref := u.Reference
	r, err := cal.Ordinal(ref.Year, ref.Month, ref.Day)
	if err != nil {
		return math.NaN(), err
	}
	secs := float64(n-r)*86400 + d.secondsOfDay() - ref.secondsOfDay()
	return secs / u.Seconds, nil
}

// NumToDate decodes v, a number in reference-time units u, using the
// named calendar. Times are rounded to the nearest microsecond.
func NumToDate(v float64, u Units, calendar string) (Date, error) {
	if u.Kind != ReferenceTime {
		return Date{}, fmt.Errorf("cf: units %q are not reference-time units", u.Raw)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Date{}, fmt.Errorf("cf: cannot convert %g to a date", v)
	}
	cal, err := LookupCalendar(calendar)
	if err != nil {
		return Date{}, err
	}
	ref := u.Reference
	r, err := cal.Ordinal(ref.Year, ref.Month, ref.Day)
	if err != nil {
		return Date{}, err
	}
	micro := math.Round((v*u.Seconds + ref.secondsOfDay()) * 1e6)
	days := math.Floor(micro / 86400e6)
	rem := int64(micro - days*86400e6)
	var d Date
	d.Year, d.Month, d.Day = cal.FromOrdinal(r + int(days))
	d.Hour = int(rem / 3600e6)
	rem -= int64(d.Hour) * 3600e6
	d.Minute = int(rem / 60e6)
	rem -= int64(d.Minute) * 60e6
	d.Second = int(rem / 1e6)
	rem -= int64(d.Second) * 1e6
	d.Nanosecond = int(rem) * 1000
	return d, nil
}
