package rfc9110

import (
	"net/http"
)

// §  13.  Conditional Requests
// §
// §     A conditional request is an HTTP request with one or more request
// §     header fields that indicate a precondition to be tested before
// §     applying the request method to the target resource.

// NotModified evaluates the If-None-Match and If-Modified-Since preconditions of req
// against the validators in header (the selected representation).
// It returns true if a 304 (Not Modified) response should be sent instead of the representation.
//
// If-Match and If-Unmodified-Since are not evaluated: a cache is not the origin of the
// representation, and those preconditions are for state-changing requests.
func NotModified(req *http.Request, header http.Header) bool {
	// a 304 only ever stands in for a GET or HEAD response
	if !isSafeRetrieval(req) {
		return false
	}
	// §  13.2.2.  Precedence of Preconditions
	// §
	// §     3.  When If-None-Match is present, evaluate the If-None-Match
	// §         precondition:
	// §
	// §         *  if true, continue to step 5
	// §
	// §         *  if false for GET/HEAD, respond 304 (Not Modified)
	if !FieldAbsent(req.Header, "If-None-Match") {
		return !ifNoneMatch(req, header)
	}
	// §     4.  When the method is GET or HEAD, If-None-Match is not present, and
	// §         If-Modified-Since is present, evaluate the If-Modified-Since
	// §         precondition:
	// §
	// §         *  if true, continue to step 5
	// §
	// §         *  if false, respond 304 (Not Modified)
	if !FieldAbsent(req.Header, "If-Modified-Since") {
		return !ifModifiedSince(req, header)
	}
	return false
}

// ifNoneMatch returns the result of the If-None-Match precondition.
func ifNoneMatch(req *http.Request, header http.Header) bool {
	tags, star := parseEntityTagList(req.Header, "If-None-Match")
	current, hasCurrent := GetETag(header)
	// §  1.  If the field value is "*", the condition is false if the origin
	// §      server has a current representation for the target resource.
	if star {
		return false
	}
	// §  2.  If the field value is a list of entity tags, the condition is
	// §      false if one of the listed tags matches the entity tag of the
	// §      selected representation.
	if hasCurrent {
		for _, tag := range tags {
			// §  A recipient MUST use the weak comparison function when comparing
			// §  entity tags for If-None-Match
			if tag.WeakMatch(current) {
				return false
			}
		}
	}
	// §  3.  Otherwise, the condition is true.
	return true
}

// ifModifiedSince returns the result of the If-Modified-Since precondition.
func ifModifiedSince(req *http.Request, header http.Header) bool {
	// §  A recipient MUST ignore the If-Modified-Since header field if the
	// §  received field value is not a valid HTTP-date
	since, err := HttpDate(req.Header.Get("If-Modified-Since"))
	if err != nil {
		return true
	}
	lastModified, err := HttpDate(header.Get("Last-Modified"))
	if err != nil {
		return true
	}
	// §  1.  If the selected representation's last modification date is
	// §      earlier or equal to the date provided in the field value, the
	// §      condition is false.
	if !lastModified.After(since) {
		return false
	}
	// §  2.  Otherwise, the condition is true.
	return true
}

func isSafeRetrieval(req *http.Request) bool {
	return req.Method == http.MethodGet || req.Method == http.MethodHead
}
