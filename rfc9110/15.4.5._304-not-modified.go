package rfc9110

import "net/http"

// §  15.4.5.  304 Not Modified
// §
// §     The server generating a 304 response MUST generate any of the
// §     following header fields that would have been sent in a 200 (OK)
// §     response to the same request:
// §
// §     *  Content-Location, Date, ETag, and Vary
// §
// §     *  Cache-Control and Expires (see [CACHING])
//
// Date is left to the server.
var notModifiedFields = []string{
	"Cache-Control",
	"Content-Location",
	"ETag",
	"Expires",
	"Vary",
}

// NotModifiedHeader returns the header fields of a 304 response for the representation
// described by header. Last-Modified is carried along when present, so clients can
// keep revalidating with If-Modified-Since.
func NotModifiedHeader(header http.Header) http.Header {
	h := make(http.Header)
	for _, name := range notModifiedFields {
		if values := header.Values(name); len(values) > 0 {
			h[http.CanonicalHeaderKey(name)] = append([]string(nil), values...)
		}
	}
	if lastModified := header.Get("Last-Modified"); lastModified != "" {
		h.Set("Last-Modified", lastModified)
	}
	return h
}

// Negotiate returns the status and header to send for the representation described by
// status and header, given the preconditions in req. Only 200 responses are turned into
// 304 responses; everything else is returned unchanged.
func Negotiate(req *http.Request, status int, header http.Header) (int, http.Header) {
	if status != http.StatusOK || !NotModified(req, header) {
		return status, header
	}
	return http.StatusNotModified, NotModifiedHeader(header)
}
