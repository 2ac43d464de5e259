package rfc9111

import (
	"net/http"
	"time"
)

// §  5.1.  Age
// §
// §     The "Age" response header field conveys the sender's estimate of the
// §     time since the response was generated or successfully validated at
// §     the origin server.
// §
// §       Age = delta-seconds

// SetAge replaces any Age field with the given age.
func SetAge(header http.Header, age time.Duration) {
	header.Set("Age", toDeltaSeconds(age))
}
