package rfc9111

import (
	"errors"
	"net/http"
)

var ErrIncompleteResponse = errors.New("response incomplete")

// MustNotStore returns a boolean indicating if a particular response
// MUST NOT be stored in the cache.
//
// The response may be a "real" response from e.g. HttpClient.Do(), OR a Response
// struct with the following fields set:
//
// - Header
// - StatusCode
// - Request with at least .Method set
//
// All of the above are strictly needed as defined by the standard.
// An error will be returned if any of these fields are not present.
func MustNotStore(res *http.Response) (bool, error) {
	if res.Header == nil {
		return true, errors.Join(ErrIncompleteResponse, errors.New("response headers empty"))
	}
	if res.StatusCode == 0 {
		return true, errors.Join(ErrIncompleteResponse, errors.New("response status code empty"))
	}
	if res.Request == nil {
		return true, errors.Join(ErrIncompleteResponse, errors.New("response request object empty"))
	}
	if res.Request.Method == "" {
		return true, errors.Join(ErrIncompleteResponse, errors.New("response request method empty"))
	}
	return mustNotStore(res.Request, res), nil
}

// RequestForcesRevalidation reports whether the request's own Cache-Control
// asks for an end-to-end reload, i.e. max-age=0.
func RequestForcesRevalidation(req *http.Request) bool {
	// §  5.2.1.1.  max-age
	// §
	// §     The max-age request directive indicates that the client prefers a
	// §     response whose age is less than or equal to the specified number of
	// §     seconds.
	maxAge, ok := HeaderMaxAge(req.Header)
	return ok && maxAge == 0
}
