package rfc9111

import (
	"strconv"
	"strings"
	"time"
)

// §  1.2.2.  Delta Seconds
// §
// §     The delta-seconds rule specifies a non-negative integer, representing
// §     time in seconds.
// §
// §       delta-seconds  = 1*DIGIT
// §
// §     A recipient parsing a delta-seconds value and converting it to binary
// §     form ought to use an arithmetic type of at least 31 bits of non-
// §     negative integer range.  If a cache receives a delta-seconds value
// §     greater than the greatest integer it can represent, or if any of its
// §     subsequent calculations overflows, the cache MUST consider the value
// §     to be 2147483648 (2^31) or the greatest positive integer it can
// §     conveniently represent.

const maxDeltaSeconds = 2147483648

// deltaSeconds parses delta-seconds, ignoring any parameters.
// The boolean is false if the value is not a valid delta-seconds.
func deltaSeconds(secondsStr string) (time.Duration, bool) {
	secondsStr, _, _ = strings.Cut(secondsStr, ";")
	secondsStr = strings.TrimSpace(secondsStr)
	if secondsStr == "" || strings.TrimLeft(secondsStr, "0123456789") != "" {
		return 0, false
	}
	seconds, err := strconv.ParseUint(secondsStr, 10, 64)
	if err != nil || seconds > maxDeltaSeconds {
		seconds = maxDeltaSeconds
	}
	return time.Second * time.Duration(seconds), true
}

func toDeltaSeconds(duration time.Duration) string {
	if duration < 0 {
		duration = 0
	}
	return strconv.FormatInt(int64(duration/time.Second), 10)
}
