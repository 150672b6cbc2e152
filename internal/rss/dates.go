package rss

import (
	"fmt"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

// ISO-8601 shapes; the ones without an offset are read in the run zone.
var isoLayouts = []struct {
	layout    string
	hasOffset bool
}{
	{time.RFC3339Nano, true},
	{"2006-01-02T15:04Z07:00", true},
	{"2006-01-02T15:04:05", false},
	{"2006-01-02T15:04", false},
	{"2006-01-02", false},
}

// RFC 2822 shapes, with and without weekday and seconds.
var rfc2822Layouts = []string{
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	"Mon, 2 Jan 2006 15:04 -0700",
	"Mon, 2 Jan 2006 15:04 MST",
	"2 Jan 2006 15:04:05 -0700",
	"2 Jan 2006 15:04:05 MST",
	"2 Jan 2006 15:04 -0700",
	"2 Jan 2006 15:04 MST",
}

// obsZones are the named zones RFC 2822 allows; time.Parse would read them
// with a zero offset.
var obsZones = map[string]int{
	"UT":  0,
	"UTC": 0,
	"GMT": 0,
	"Z":   0,
	"EST": -5,
	"EDT": -4,
	"CST": -6,
	"CDT": -5,
	"MST": -7,
	"MDT": -6,
	"PST": -8,
	"PDT": -7,
}

// numericZone rewrites a trailing named zone into a -0700 style offset.
func numericZone(value string) string {
	i := strings.LastIndexByte(value, ' ')
	if i < 0 {
		return value
	}
	hours, ok := obsZones[strings.ToUpper(value[i+1:])]
	if !ok {
		return value
	}
	sign := '+'
	if hours < 0 {
		sign = '-'
		hours = -hours
	}
	return fmt.Sprintf("%s %c%02d00", value[:i], sign, hours)
}

// ParseTimestamp reads value as ISO-8601, then as RFC 2822, and returns it in loc.
func ParseTimestamp(value string, loc *time.Location) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}

	for _, l := range isoLayouts {
		var (
			t   time.Time
			err error
		)
		if l.hasOffset {
			t, err = time.Parse(l.layout, value)
		} else {
			t, err = time.ParseInLocation(l.layout, value, loc)
		}
		if err == nil {
			return t.In(loc), true
		}
	}

	rfc := numericZone(value)
	for _, layout := range rfc2822Layouts {
		if t, err := time.Parse(layout, rfc); err == nil {
			return t.In(loc), true
		}
	}

	return time.Time{}, false
}

// entryTimestamp tries the entry's date fields in priority order and returns
// the first that parses.
func entryTimestamp(item *gofeed.Item, loc *time.Location) (time.Time, bool) {
	candidates := []string{item.Published, item.Updated}
	if item.DublinCoreExt != nil {
		candidates = append(candidates, item.DublinCoreExt.Date...)
	}

	for _, c := range candidates {
		if t, ok := ParseTimestamp(c, loc); ok {
			return t, true
		}
	}
	return time.Time{}, false
}
