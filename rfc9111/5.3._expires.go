package rfc9111

import (
	"net/http"
	"time"

	"github.com/always-cache/pagecache/rfc9110"
)

// §  5.3.  Expires
// §
// §     The "Expires" response header field gives the date/time after which
// §     the response is considered stale.
// §
// §       Expires = HTTP-date

// GetExpires returns the parsed Expires field.
func GetExpires(header http.Header) (time.Time, error) {
	// §  A cache recipient MUST interpret invalid date formats, especially the
	// §  value "0", as representing a time in the past (i.e., "already
	// §  expired").
	return rfc9110.HttpDate(header.Get("Expires"))
}

// SetExpires sets the Expires field.
func SetExpires(header http.Header, expires time.Time) {
	header.Set("Expires", rfc9110.FormatHttpDate(expires))
}
