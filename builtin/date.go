// Copyright (c) 2025 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package builtin

import (
	"strconv"
	"strings"
	"time"
)

// namedFormats are the formats that can be used by name in place of a
// format string.
var namedFormats = map[string]string{
	"DATE_FORMAT":           "N j, Y",
	"DATETIME_FORMAT":       "N j, Y, P",
	"MONTH_DAY_FORMAT":      "F j",
	"SHORT_DATE_FORMAT":     "m/d/Y",
	"SHORT_DATETIME_FORMAT": "m/d/Y P",
	"TIME_FORMAT":           "P",
	"YEAR_MONTH_FORMAT":     "F Y",
}

var apMonths = [...]string{"Jan.", "Feb.", "March", "April", "May", "June", "July", "Aug.", "Sept.", "Oct.", "Nov.", "Dec."}

// FormatDate formats t according to format. format is a sequence of format
// characters, as "D d M Y", or the name of a predefined format, as
// "DATE_FORMAT". A character preceded by a backslash and any character that
// is not a format character are written as they are.
//
// The format characters are:
//
//	a  'a.m.' or 'p.m.'
//	A  'AM' or 'PM'
//	b  month, textual, 3 letters, lowercase, as 'jan'
//	c  ISO 8601 format, as '2008-01-02T10:30:00.000123+02:00'
//	d  day of the month, 2 digits with leading zeros
//	D  day of the week, textual, 3 letters, as 'Fri'
//	e  time zone name
//	E  month, textual, as 'January'
//	f  time, in 12-hour hours and minutes, with minutes left off if zero
//	F  month, textual, long, as 'January'
//	g  hour, 12-hour format without leading zeros
//	G  hour, 24-hour format without leading zeros
//	h  hour, 12-hour format
//	H  hour, 24-hour format
//	i  minutes
//	I  daylight saving time, '1' or '0'
//	j  day of the month without leading zeros
//	l  day of the week, textual, long, as 'Friday'
//	L  whether it is a leap year, 'True' or 'False'
//	m  month, 2 digits with leading zeros
//	M  month, textual, 3 letters, as 'Jan'
//	n  month without leading zeros
//	N  month abbreviation in Associated Press style, as 'Jan.' or 'March'
//	o  ISO 8601 week-numbering year
//	O  difference to Greenwich time in hours, as '+0200'
//	P  time, in 12-hour hours, minutes and 'a.m.'/'p.m.', with minutes left
//	   off if zero and the special strings 'midnight' and 'noon'
//	r  RFC 5322 formatted date, as 'Thu, 21 Dec 2000 16:01:07 +0200'
//	s  seconds, 2 digits with leading zeros
//	S  English ordinal suffix for the day of the month, 2 characters
//	t  number of days in the month
//	T  time zone abbreviation
//	u  microseconds
//	U  seconds since the Unix epoch
//	w  day of the week, digits without leading zeros, 0 is Sunday
//	W  ISO 8601 week number of the year
//	y  year, 2 digits with leading zeros
//	Y  year, 4 digits with leading zeros
//	z  day of the year, starting from 1
//	Z  time zone offset in seconds
func FormatDate(t time.Time, format string) (string, error) {
	if f, ok := namedFormats[format]; ok {
		format = f
	}
	var b strings.Builder
	escaped := false
	for _, c := range format {
		if escaped {
			b.WriteRune(c)
			escaped = false
			continue
		}
		if c == '\\' {
			escaped = true
			continue
		}
		writeDateField(&b, t, c)
	}
	return b.String(), nil
}

// writeDateField writes the field of t identified by the format character c.
func writeDateField(b *strings.Builder, t time.Time, c rune) {
	switch c {
	case 'a':
		if t.Hour() < 12 {
			b.WriteString("a.m.")
		} else {
			b.WriteString("p.m.")
		}
	case 'A':
		b.WriteString(t.Format("PM"))
	case 'b':
		b.WriteString(strings.ToLower(t.Format("Jan")))
	case 'c':
		if t.Nanosecond()/1000 != 0 {
			b.WriteString(t.Format("2006-01-02T15:04:05.000000-07:00"))
		} else {
			b.WriteString(t.Format("2006-01-02T15:04:05-07:00"))
		}
	case 'd':
		b.WriteString(t.Format("02"))
	case 'D':
		b.WriteString(t.Format("Mon"))
	case 'e':
		if name, _ := t.Zone(); name != "" {
			b.WriteString(name)
		} else {
			b.WriteString(t.Format("-0700"))
		}
	case 'E', 'F':
		b.WriteString(t.Format("January"))
	case 'f':
		writeClock(b, t)
	case 'g':
		b.WriteString(t.Format("3"))
	case 'G':
		b.WriteString(strconv.Itoa(t.Hour()))
	case 'h':
		b.WriteString(t.Format("03"))
	case 'H':
		b.WriteString(t.Format("15"))
	case 'i':
		b.WriteString(t.Format("04"))
	case 'I':
		if t.IsDST() {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	case 'j':
		b.WriteString(strconv.Itoa(t.Day()))
	case 'l':
		b.WriteString(t.Format("Monday"))
	case 'L':
		if isLeap(t.Year()) {
			b.WriteString("True")
		} else {
			b.WriteString("False")
		}
	case 'm':
		b.WriteString(t.Format("01"))
	case 'M':
		b.WriteString(t.Format("Jan"))
	case 'n':
		b.WriteString(strconv.Itoa(int(t.Month())))
	case 'N':
		b.WriteString(apMonths[t.Month()-1])
	case 'o':
		year, _ := t.ISOWeek()
		b.WriteString(strconv.Itoa(year))
	case 'O':
		b.WriteString(t.Format("-0700"))
	case 'P':
		switch h, m := t.Hour(), t.Minute(); {
		case h == 0 && m == 0:
			b.WriteString("midnight")
		case h == 12 && m == 0:
			b.WriteString("noon")
		default:
			writeClock(b, t)
			b.WriteByte(' ')
			writeDateField(b, t, 'a')
		}
	case 'r':
		b.WriteString(t.Format("Mon, 02 Jan 2006 15:04:05 -0700"))
	case 's':
		b.WriteString(t.Format("05"))
	case 'S':
		b.WriteString(ordinalSuffix(t.Day()))
	case 't':
		b.WriteString(strconv.Itoa(daysIn(t.Month(), t.Year())))
	case 'T':
		b.WriteString(t.Format("MST"))
	case 'u':
		b.WriteString(pad(t.Nanosecond()/1000, 6))
	case 'U':
		b.WriteString(strconv.FormatInt(t.Unix(), 10))
	case 'w':
		b.WriteString(strconv.Itoa(int(t.Weekday())))
	case 'W':
		_, week := t.ISOWeek()
		b.WriteString(strconv.Itoa(week))
	case 'y':
		b.WriteString(pad(t.Year()%100, 2))
	case 'Y':
		b.WriteString(pad(t.Year(), 4))
	case 'z':
		b.WriteString(strconv.Itoa(t.YearDay()))
	case 'Z':
		_, offset := t.Zone()
		b.WriteString(strconv.Itoa(offset))
	default:
		b.WriteRune(c)
	}
}

// writeClock writes the time of t in 12-hour hours and minutes, with the
// minutes left off if they are zero.
func writeClock(b *strings.Builder, t time.Time) {
	b.WriteString(t.Format("3"))
	if t.Minute() != 0 {
		b.WriteString(t.Format(":04"))
	}
}

func ordinalSuffix(day int) string {
	if day >= 11 && day <= 13 {
		return "th"
	}
	switch day % 10 {
	case 1:
		return "st"
	case 2:
		return "nd"
	case 3:
		return "rd"
	}
	return "th"
}

func isLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

func daysIn(m time.Month, year int) int {
	return time.Date(year, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// pad formats n in base 10 with at least width digits.
func pad(n, width int) string {
	s := strconv.Itoa(n)
	if len(s) < width {
		s = strings.Repeat("0", width-len(s)) + s
	}
	return s
}
