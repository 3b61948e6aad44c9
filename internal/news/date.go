package news

import (
	"errors"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

var errEmptyDate = errors.New("empty published date")

// Layouts tried in order by ParsePublished. Zone-less layouts are read in the
// reference location.
var publishedLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	"2 Jan 2006 15:04:05 -0700",
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// North American zone names RFC 822 gives fixed offsets. Go only knows an
// abbreviation's offset when it belongs to the parse location.
var rfc822Zones = map[string]int{
	"EST": -5 * 3600,
	"EDT": -4 * 3600,
	"CST": -6 * 3600,
	"CDT": -5 * 3600,
	"MST": -7 * 3600,
	"MDT": -6 * 3600,
	"PST": -8 * 3600,
	"PDT": -7 * 3600,
}

// ParsePublished parses a feed date. The fixed layouts are tried first, in
// order, and the first match wins; dateparse is the last resort for the
// long tail of feed formats.
func ParsePublished(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errEmptyDate
	}
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range publishedLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return withRFC822Zone(t), nil
		}
	}
	t, err := dateparse.ParseIn(s, loc)
	if err != nil {
		return time.Time{}, err
	}
	return withRFC822Zone(t), nil
}

// withRFC822Zone rebuilds t with the fixed offset of its zone name when the
// parser fabricated a zero offset for one of rfc822Zones. A location that owns
// the name (America/Chicago CDT, Asia/Shanghai CST) already has its own offset.
func withRFC822Zone(t time.Time) time.Time {
	name, offset := t.Zone()
	want, ok := rfc822Zones[name]
	if !ok || offset != 0 {
		return t
	}
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.FixedZone(name, want))
}
