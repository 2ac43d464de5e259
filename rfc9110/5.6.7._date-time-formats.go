package rfc9110

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// §  5.6.7.  Date/Time Formats
// §
// §     Prior to 1995, there were three different formats commonly used by
// §     servers to communicate timestamps.  For compatibility with old
// §     implementations, all three are defined here.

// HttpDate parses an HTTP-date in any of the three formats a recipient has to accept.
func HttpDate(dateStr string) (time.Time, error) {
	if date, err := imfDate(dateStr); err == nil {
		return date, nil
	} else {
		// §  A recipient that parses a timestamp value in an HTTP field MUST
		// §  accept all three HTTP-date formats.
		if date, obsErr := obsDate(dateStr); obsErr == nil {
			return date, nil
		}
		return time.Time{}, err
	}
}

// FormatHttpDate returns the preferred (IMF-fixdate) representation of t.
func FormatHttpDate(t time.Time) string {
	// §  When a sender generates a field that contains one or more timestamps
	// §  defined as HTTP-date, the sender MUST generate those timestamps in
	// §  the IMF-fixdate format.
	return t.UTC().Format(http.TimeFormat)
}

const imfDateLayout = "Mon, 02 Jan 2006 15:04:05 MST"

func imfDate(dateStr string) (time.Time, error) {
	date, err := time.Parse(imfDateLayout, normalizeDateStr(dateStr))
	if err != nil {
		return date, err
	}
	if name, offset := date.Zone(); offset != 0 {
		return date, fmt.Errorf("date %s is not in GMT time, but %s", dateStr, name)
	}
	return date.UTC(), nil
}

func obsDate(dateStr string) (time.Time, error) {
	str := normalizeDateStr(dateStr)
	if date, err := time.Parse(time.RFC850, str); err == nil {
		return date.UTC(), nil
	}
	date, err := time.Parse(time.ANSIC, strings.TrimSpace(dateStr))
	return date.UTC(), err
}

func normalizeDateStr(dateStr string) string {
	str := strings.TrimSpace(dateStr)
	// zone names are case-insensitive on the wire, but time.Parse wants "GMT"
	if len(str) > 3 && strings.EqualFold(str[len(str)-3:], "gmt") {
		str = str[:len(str)-3] + "GMT"
	}
	return str
}
