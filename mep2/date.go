package mep2

import (
	"strings"
	"time"
)

// mep2DateLayout is the fixed 25-character weekday/month/day/year/time
// prefix of an MEP2 date, in Go reference-time form. Grounded on
// original_source/src/date.cpp's "%a %B %2d, %4Y %2I:%2M %p" chrono format
// string, narrowed to the 3-letter month abbreviation the fixed 29-byte
// total length and spec.md §8 scenario 9 both require.
const mep2DateLayout = "Mon Jan 02, 2006 03:04 PM"

// mep2DateLen is the total fixed width of an MEP2 date-and-zone literal.
const mep2DateLen = 29

// mep2Zones maps each MEP2 zone abbreviation to its fixed UTC hour offset,
// per spec.md §4.7's table. These are NOT IANA zones — MEP2 predates
// widespread zone-database use, so the mapping is a small fixed table, not a
// live lookup. Case-sensitive, as the original: a mixed-case tag does not
// match.
var mep2Zones = map[string]int{
	"AHS": -10, "AHD": -9, "YST": -9, "YDT": -8,
	"PST": -8, "PDT": -7, "MST": -7, "MDT": -6,
	"CST": -6, "CDT": -5, "EST": -5, "EDT": -4,
	"AST": -4, "GMT": 0, "BST": 1, "WES": 1,
	"WED": 2, "EMT": 2, "MTS": 3, "MTD": 4,
	"JST": 9, "EAD": 10,
}

// Date is a parsed MEP2 timestamp: the UTC instant at minute precision plus
// the original zone abbreviation, retained verbatim for round-tripping.
// Grounded on original_source/include/date.hpp's Date.
type Date struct {
	utc      time.Time
	origZone string
}

// ParseDate parses a 29-character MEP2 date literal. Grounded on
// original_source/src/date.cpp's Date::parse.
func ParseDate(line string) (Date, error) {
	if len(line) != mep2DateLen {
		return Date{}, ErrMalformedData("Failed to parse date and time")
	}

	local, err := time.Parse(mep2DateLayout, line[:25])
	if err != nil || line[25] != ' ' {
		return Date{}, ErrMalformedData("Failed to parse date and time at position: 0 data: '" + line + "'")
	}

	zone := line[26:]
	offsetHours, ok := mep2Zones[zone]
	if !ok {
		return Date{}, ErrMalformedData("Invalid timezone specifier " + zone)
	}

	utc := time.Date(local.Year(), local.Month(), local.Day(), local.Hour(), local.Minute(), 0, 0, time.UTC).
		Add(-time.Duration(offsetHours) * time.Hour)

	return Date{utc: utc, origZone: zone}, nil
}

// xparseDate parses line or panics with the underlying Malformed_Data error,
// for use inside the envelope parser's panic/recover validation chain.
func xparseDate(line string) Date {
	d, err := ParseDate(line)
	if err != nil {
		panic(err)
	}
	return d
}

// UTC returns the parsed instant at minute precision, in UTC.
func (d Date) UTC() time.Time { return d.utc }

// OrigZone returns the original MEP2 zone abbreviation, verbatim.
func (d Date) OrigZone() string { return d.origZone }

// ToUTCString renders the date in its GMT form: the client never learns a
// real UTC label, only the literal suffix "GMT".
func (d Date) ToUTCString() string {
	return d.utc.Format(mep2DateLayout) + " GMT"
}

// ToOrigString renders the date against its original zone offset, suffixed
// with the verbatim zone abbreviation.
func (d Date) ToOrigString() string {
	offset := mep2Zones[d.origZone]
	local := d.utc.Add(time.Duration(offset) * time.Hour)
	return local.Format(mep2DateLayout) + " " + d.origZone
}

// Equal compares (original zone tag, UTC instant), per spec.md §3.
func (d Date) Equal(o Date) bool {
	return d.origZone == o.origZone && d.utc.Equal(o.utc)
}

// trimMep2 strips ASCII space/tab from both ends, matching
// original_source/include/string_utils.hpp's strip.
func trimMep2(s string) string {
	return strings.Trim(s, " \t")
}
