package rfc9111

import (
	"net/http"
	"time"
)

// §  4.2.3.  Calculating Age
// §
// §     The "Age" header field is used to convey an estimated age of the
// §     response message when obtained from a cache.

// RefreshForReuse rewrites the freshness fields of a stored response that is about to be
// reused at time now. If the stored response has a valid Expires field, max-age is set to
// the time left until then, and Age becomes the stored max-age minus that remaining time.
// It returns the remaining freshness and whether Expires could be used at all.
func RefreshForReuse(header http.Header, now time.Time) (time.Duration, bool) {
	expires, err := GetExpires(header)
	if err != nil {
		return 0, false
	}
	remaining := expires.Sub(now).Truncate(time.Second)
	if remaining < 0 {
		remaining = 0
	}
	storedMaxAge, hasMaxAge := HeaderMaxAge(header)
	SetMaxAge(header, int(remaining/time.Second))
	// §  When a stored response is used to satisfy a request without
	// §  validation, a cache MUST generate an Age header field (Section 5.1),
	// §  replacing any present in the response with a value equal to the
	// §  stored response's current_age; see Section 4.2.3.
	if hasMaxAge {
		SetAge(header, time.Duration(storedMaxAge)*time.Second-remaining)
	} else {
		header.Del("Age")
	}
	return remaining, true
}
