package adapter

import (
	"strings"
	"time"
)

// UnknownDate is shown when the server sent no creation date.
const UnknownDate = "Date inconnue"

const displayLayout = "02/01/2006"

type dateLayout struct {
	layout string
	// lenient lets the layout match the longest parsable start of a longer
	// input, e.g. "05/03/2024 10:00" against "2/1/2006".
	lenient bool
}

// Tried in order; the first match wins. Day, month and hour accept one or
// two digits.
var inputLayouts = []dateLayout{
	{layout: "2006-1-2T15:04:05.000Z07:00"},
	{layout: "2006-1-2T15:04:05.000-0700"},
	{layout: "2006-1-2T15:04:05", lenient: true},
	{layout: "2006-1-2 15:04:05", lenient: true},
	{layout: "2006-1-2", lenient: true},
	{layout: "2/1/2006", lenient: true},
}

// FormatDate renders a server creation date as dd/MM/yyyy. Blank input shows
// UnknownDate; text in no known layout is returned unchanged. The calendar
// date is kept as written, without converting time zones.
func FormatDate(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return UnknownDate
	}

	for _, l := range inputLayouts {
		if t, ok := l.parse(raw); ok {
			return t.Format(displayLayout)
		}
	}
	return raw
}

func (l dateLayout) parse(s string) (time.Time, bool) {
	if t, err := time.Parse(l.layout, s); err == nil {
		return t, true
	}
	if !l.lenient {
		return time.Time{}, false
	}
	for n := len(s) - 1; n > 0; n-- {
		if t, err := time.Parse(l.layout, s[:n]); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
