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
	"math"
	"reflect"
	"testing"
	"time"
)

func TestParseUnits(t *testing.T) {
	tests := []struct {
		units string
		kind  Kind
		secs  float64
		ref   Date
		err   bool
	}{
		{units: "degrees_north", kind: Latitude},
		{units: "Degrees_East", kind: Longitude},
		{units: "K", kind: Other},
		{units: "", kind: Other},
		{units: "days since 1977-01-01", kind: ReferenceTime, secs: 86400, ref: Date{Year: 1977, Month: 1, Day: 1}},
		{units: "hours since 1900-01-01 00:00:00", kind: ReferenceTime, secs: 3600, ref: Date{Year: 1900, Month: 1, Day: 1}},
		{units: "seconds since 1970-1-1T06:30:00Z", kind: ReferenceTime, secs: 1, ref: Date{Year: 1970, Month: 1, Day: 1, Hour: 6, Minute: 30}},
		{units: "days since 1977-01-01 00:00:00 UTC", kind: ReferenceTime, secs: 86400, ref: Date{Year: 1977, Month: 1, Day: 1}},
		{units: "seconds since 1970-01-01T00:00:00Z", kind: ReferenceTime, secs: 1, ref: Date{Year: 1970, Month: 1, Day: 1}},
		{units: "Hours Since 2000-01-01t03:00:00utc", kind: ReferenceTime, secs: 3600, ref: Date{Year: 2000, Month: 1, Day: 1, Hour: 3}},
		{units: "minutes since 2000-01-01 12:00 +02:00", kind: ReferenceTime, secs: 60, ref: Date{Year: 2000, Month: 1, Day: 1, Hour: 10}},
		{units: "fortnights since 2000-01-01", err: true},
		{units: "days since yesterday", err: true},
	}
	for _, test := range tests {
		t.Run(test.units, func(t *testing.T) {
			u, err := ParseUnits(test.units)
			if test.err {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if u.Kind != test.kind {
				t.Errorf("kind: have %v, want %v", u.Kind, test.kind)
			}
			if u.Seconds != test.secs {
				t.Errorf("step: have %g s, want %g s", u.Seconds, test.secs)
			}
			if u.Reference != test.ref {
				t.Errorf("reference: have %v, want %v", u.Reference, test.ref)
			}
		})
	}
}

func TestDateToNum(t *testing.T) {
	days1970, err := ParseUnits("days since 1970-01-01")
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		calendar string
		date     Date
		want     float64
	}{
		{calendar: "standard", date: Date{Year: 2000, Month: 1, Day: 1}, want: 10957},
		{calendar: "proleptic_gregorian", date: Date{Year: 2000, Month: 1, Day: 1}, want: 10957},
		{calendar: "noleap", date: Date{Year: 2000, Month: 1, Day: 1}, want: 10950},
		{calendar: "365_day", date: Date{Year: 2000, Month: 3, Day: 1}, want: 10950 + 59},
		{calendar: "all_leap", date: Date{Year: 1971, Month: 1, Day: 1}, want: 366},
		{calendar: "360_day", date: Date{Year: 2000, Month: 2, Day: 30}, want: 10800 + 59},
		{calendar: "julian", date: Date{Year: 2000, Month: 1, Day: 1}, want: 10957},
		{calendar: "", date: Date{Year: 1970, Month: 1, Day: 2, Hour: 12}, want: 1.5},
	}
	for _, test := range tests {
		t.Run(test.calendar+" "+test.date.String(), func(t *testing.T) {
			have, err := DateToNum(test.date, days1970, test.calendar)
			if err != nil {
				t.Fatal(err)
			}
			if have != test.want {
				t.Errorf("have %g, want %g", have, test.want)
			}
			back, err := NumToDate(have, days1970, test.calendar)
			if err != nil {
				t.Fatal(err)
			}
			if back != test.date {
				t.Errorf("round trip: have %v, want %v", back, test.date)
			}
		})
	}
}

func TestGregorianSwitch(t *testing.T) {
	u, err := ParseUnits("days since 1582-10-04")
	if err != nil {
		t.Fatal(err)
	}
	n, err := DateToNum(Date{Year: 1582, Month: 10, Day: 15}, u, "standard")
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("1582-10-15 follows 1582-10-04 in the standard calendar: have %g days, want 1", n)
	}
	if _, err := DateToNum(Date{Year: 1582, Month: 10, Day: 10}, u, "standard"); err == nil {
		t.Error("1582-10-10 does not exist in the standard calendar")
	}
	n, err = DateToNum(Date{Year: 1582, Month: 10, Day: 15}, u, "proleptic_gregorian")
	if err != nil {
		t.Fatal(err)
	}
	if n != 11 {
		t.Errorf("proleptic: have %g days, want 11", n)
	}

	// 1900 is a leap year only in the Julian calendar.
	u, _ = ParseUnits("days since 1900-02-28")
	for cal, want := range map[string]float64{"julian": 2, "standard": 1, "proleptic_gregorian": 1} {
		n, err := DateToNum(Date{Year: 1900, Month: 3, Day: 1}, u, cal)
		if err != nil {
			t.Fatal(err)
		}
		if n != want {
			t.Errorf("%s: have %g days, want %g", cal, n, want)
		}
	}
}

func TestInvalidDates(t *testing.T) {
	u, _ := ParseUnits("days since 2000-01-01")
	if _, err := DateToNum(Date{Year: 2001, Month: 2, Day: 29}, u, "noleap"); err == nil {
		t.Error("2001-02-29 should not exist")
	}
	if _, err := DateToNum(Date{Year: 2000, Month: 1, Day: 1}, u, "martian"); err == nil {
		t.Error("unknown calendars should be rejected")
	}
	if _, err := NumToDate(math.NaN(), u, ""); err == nil {
		t.Error("NaN should not convert to a date")
	}
	k, _ := ParseUnits("K")
	if _, err := DateToNum(Date{Year: 2000, Month: 1, Day: 1}, k, ""); err == nil {
		t.Error("non-time units should be rejected")
	}
}

func TestNumToDateRounding(t *testing.T) {
	u, _ := ParseUnits("hours since 2000-01-01")
	d, err := NumToDate(1.0/3, u, "standard")
	if err != nil {
		t.Fatal(err)
	}
	want := Date{Year: 2000, Month: 1, Day: 1, Minute: 20}
	if d != want {
		t.Errorf("have %v, want %v", d, want)
	}
	d, err = NumToDate(-1, u, "standard")
	if err != nil {
		t.Fatal(err)
	}
	want = Date{Year: 1999, Month: 12, Day: 31, Hour: 23}
	if d != want {
		t.Errorf("have %v, want %v", d, want)
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want Date
		err  bool
	}{
		{in: "1977-02-10", want: Date{Year: 1977, Month: 2, Day: 10}},
		{in: "2000-02-30", want: Date{Year: 2000, Month: 2, Day: 30}},
		{in: "1977-02-10T06:00:00Z", want: Date{Year: 1977, Month: 2, Day: 10, Hour: 6}},
		{in: "1977-02-10 06:00:00.5", want: Date{Year: 1977, Month: 2, Day: 10, Hour: 6, Nanosecond: 5e8}},
		{in: "Feb 10, 1977", want: Date{Year: 1977, Month: 2, Day: 10}},
		{in: "1977/02/10", want: Date{Year: 1977, Month: 2, Day: 10}},
		{in: "not a date", err: true},
	}
	for _, test := range tests {
		t.Run(test.in, func(t *testing.T) {
			have, err := ParseDate(test.in)
			if test.err {
				if err == nil {
					t.Fatalf("expected an error, got %v", have)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if have != test.want {
				t.Errorf("have %v, want %v", have, test.want)
			}
		})
	}
}

func TestDate(t *testing.T) {
	tm := time.Date(1977, 2, 10, 6, 30, 0, 0, time.UTC)
	d := FromTime(tm)
	if !d.Time().Equal(tm) {
		t.Errorf("time round trip: have %v, want %v", d.Time(), tm)
	}
	if d.String() != "1977-02-10 06:30:00" {
		t.Errorf("string: have %q", d.String())
	}
	if !d.Before(Date{Year: 1977, Month: 2, Day: 10, Hour: 7}) || d.Before(d) {
		t.Error("incorrect ordering")
	}
}

func TestConversion(t *testing.T) {
	tests := []struct {
		from, to      string
		scale, offset float64
		err           bool
	}{
		{from: "K", to: "degC", scale: 1, offset: -273.15},
		{from: "degC", to: "K", scale: 1, offset: 273.15},
		{from: "degC", to: "degF", scale: 9.0 / 5, offset: 32},
		{from: "kg m-2 s-1", to: "mm/day", scale: 86400},
		{from: "m s-1", to: "km/h", scale: 3.6},
		{from: "hPa", to: "Pa", scale: 100},
		{from: "K", to: "m", err: true},
		{from: "furlongs", to: "m", err: true},
	}
	for _, test := range tests {
		t.Run(test.from+"->"+test.to, func(t *testing.T) {
			s, o, err := Conversion(test.from, test.to)
			if test.err {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if !similar(s, test.scale) || !similar(o, test.offset) {
				t.Errorf("have (%g, %g), want (%g, %g)", s, o, test.scale, test.offset)
			}
		})
	}
}

func TestLookupCalendar(t *testing.T) {
	var names []string
	for _, n := range []string{"", "gregorian", "noleap", "365_day", "360_day", "all_leap", "julian", "proleptic_gregorian"} {
		c, err := LookupCalendar(n)
		if err != nil {
			t.Fatal(err)
		}
		names = append(names, c.Name())
	}
	want := []string{"standard", "standard", "noleap", "noleap", "360_day", "all_leap", "julian", "proleptic_gregorian"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("have %v, want %v", names, want)
	}
}

func similar(a, b float64) bool {
	return math.Abs(a-b) <= 1e-9*math.Max(1, math.Abs(b))
}
