// Copyright (c) 2025 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package builtin

import (
	"testing"
	"time"
)

var cet = time.FixedZone("CET", 3600)

var formatDateTests = []struct {
	t        time.Time
	format   string
	expected string
}{
	{time.Date(2005, 12, 29, 16, 5, 7, 123456000, cet), `jS \o\f F`, "29th of December"},
	{time.Date(2005, 12, 29, 16, 5, 7, 123456000, cet), "D d M Y", "Thu 29 Dec 2005"},
	{time.Date(2005, 12, 29, 16, 5, 7, 123456000, cet), "a A", "p.m. PM"},
	{time.Date(2005, 12, 29, 16, 5, 7, 123456000, cet), "P", "4:05 p.m."},
	{time.Date(2005, 12, 29, 16, 5, 7, 123456000, cet), "f", "4:05"},
	{time.Date(2005, 12, 29, 16, 5, 7, 123456000, cet), "g G h H i s", "4 16 04 16 05 07"},
	{time.Date(2005, 12, 29, 16, 5, 7, 123456000, cet), "b E F l L", "dec December December Thursday False"},
	{time.Date(2005, 12, 29, 16, 5, 7, 123456000, cet), "N n m y Y", "Dec. 12 12 05 2005"},
	{time.Date(2005, 12, 29, 16, 5, 7, 123456000, cet), "O T Z e", "+0100 CET 3600 CET"},
	{time.Date(2005, 12, 29, 16, 5, 7, 123456000, cet), "t w z W o", "31 4 363 52 2005"},
	{time.Date(2005, 12, 29, 16, 5, 7, 123456000, cet), "c", "2005-12-29T16:05:07.123456+01:00"},
	{time.Date(2005, 12, 29, 16, 5, 7, 0, cet), "c", "2005-12-29T16:05:07+01:00"},
	{time.Date(2005, 12, 29, 16, 5, 7, 123456000, cet), "r", "Thu, 29 Dec 2005 16:05:07 +0100"},
	{time.Date(2005, 12, 29, 16, 5, 7, 123456000, cet), "u", "123456"},
	{time.Date(2005, 12, 29, 16, 5, 7, 0, cet), "u", "000000"},
	{time.Date(1970, 1, 1, 0, 1, 40, 0, time.UTC), "U", "100"},
	{time.Date(2005, 12, 29, 16, 5, 7, 0, cet), "DATE_FORMAT", "Dec. 29, 2005"},
	{time.Date(2005, 12, 29, 16, 5, 7, 0, cet), "DATETIME_FORMAT", "Dec. 29, 2005, 4:05 p.m."},
	{time.Date(2005, 12, 29, 16, 5, 7, 0, cet), "SHORT_DATE_FORMAT", "12/29/2005"},
	{time.Date(2005, 3, 9, 16, 0, 0, 0, cet), "SHORT_DATETIME_FORMAT", "03/09/2005 4 p.m."},
	{time.Date(2005, 3, 9, 16, 0, 0, 0, cet), "YEAR_MONTH_FORMAT", "March 2005"},
	{time.Date(2005, 9, 9, 16, 0, 0, 0, cet), "MONTH_DAY_FORMAT", "September 9"},
	{time.Date(2005, 9, 9, 16, 0, 0, 0, cet), "N", "Sept."},
	{time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC), "P", "midnight"},
	{time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC), "P", "noon"},
	{time.Date(2000, 1, 1, 0, 30, 0, 0, time.UTC), "P", "12:30 a.m."},
	{time.Date(2000, 2, 1, 0, 0, 0, 0, time.UTC), "L t", "True 29"},
	{time.Date(1900, 2, 1, 0, 0, 0, 0, time.UTC), "L t", "False 28"},
	{time.Date(33, 2, 1, 0, 0, 0, 0, time.UTC), "Y y", "0033 33"},
	{time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC), `\Y\\ Y`, `Y\ 2000`},
	{time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC), "", ""},
}

func TestFormatDate(t *testing.T) {
	for _, test := range formatDateTests {
		got, err := FormatDate(test.t, test.format)
		if err != nil {
			t.Errorf("format %q: unexpected error: %s", test.format, err)
			continue
		}
		if got != test.expected {
			t.Errorf("format %q: expecting %q, got %q", test.format, test.expected, got)
		}
	}
}

func TestOrdinalSuffix(t *testing.T) {
	expected := map[int]string{1: "st", 2: "nd", 3: "rd", 4: "th", 11: "th", 12: "th", 13: "th", 21: "st", 22: "nd", 23: "rd", 31: "st"}
	for day, suffix := range expected {
		if got := ordinalSuffix(day); got != suffix {
			t.Errorf("day %d: expecting %q, got %q", day, suffix, got)
		}
	}
}
