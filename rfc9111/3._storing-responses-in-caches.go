package rfc9111

import (
	"net/http"
	"strings"

	"github.com/pquerna/cachecontrol/cacheobject"
)

// §  3.  Storing Responses in Caches

func mustNotStore(req *http.Request, res *http.Response) bool {
	resCacheControl := parseResponseDirectives(res.Header)
	// §    A cache MUST NOT store a response to a request unless:
	// §      *  the request method is understood by the cache;
	mayStore := requestMethodIsUnderstood(req.Method) &&
		// §  *  the response status code is final (see Section 15 of [HTTP]);
		responseStatusCodeIsFinal(res.StatusCode) &&
		// §  *  if the response status code is 206 or 304, or the must-understand
		// §     cache directive (see Section 5.2.2.3) is present: the cache
		// §     understands the response status code;
		//
		// a page cache only ever stores complete 200 responses
		responseStatusCodeIsUnderstood(res.StatusCode) &&
		// §  *  the no-store cache directive is not present in the response (see
		// §     Section 5.2.2.5);
		!resCacheControl.NoStore &&
		!requestHasNoStore(req) &&
		// §  *  if the cache is shared: the private response directive is either
		// §     not present or allows a shared cache to store a modified response;
		// §     see Section 5.2.2.7);
		//
		// the second part of the or is a "MAY" - we don't do that
		!resCacheControl.PrivatePresent &&
		// §  *  if the cache is shared: the Authorization header field is not
		// §     present in the request (see Section 11.6.2 of [HTTP]) or a
		// §     response directive is present that explicitly allows shared
		// §     caching (see Section 3.5); and
		(req.Header.Get("Authorization") == "" || mayUseResponseForAuthenticatedRequest(resCacheControl))
	// §  *  the response contains at least one of the following: [...]
	//
	// the route timeout is the cache extension that makes any remaining response
	// cacheable, so the explicit freshness requirement is not checked here
	//
	// §  Note that a cache extension can override any of the requirements
	// §  listed; see Section 5.2.3.
	return !mayStore
}

// parseResponseDirectives parses the response Cache-Control field.
// Values the strict parser rejects fall back to the lenient one, so that
// a malformed argument never hides a no-store or private directive.
func parseResponseDirectives(header http.Header) *cacheobject.ResponseCacheDirectives {
	value := strings.Join(header.Values("Cache-Control"), ", ")
	if directives, err := cacheobject.ParseResponseCacheControl(value); err == nil {
		return directives
	}
	cc := ParseCacheControl(header.Values("Cache-Control"))
	return &cacheobject.ResponseCacheDirectives{
		NoStore:        cc.HasDirective("no-store"),
		PrivatePresent: cc.HasDirective("private"),
		Public:         cc.HasDirective("public"),
		MustRevalidate: cc.HasDirective("must-revalidate"),
		MaxAge:         -1,
		SMaxAge:        -1,
	}
}

func requestHasNoStore(req *http.Request) bool {
	value := strings.Join(req.Header.Values("Cache-Control"), ", ")
	if value == "" {
		return false
	}
	if directives, err := cacheobject.ParseRequestCacheControl(value); err == nil {
		return directives.NoStore
	}
	return ParseCacheControl(req.Header.Values("Cache-Control")).HasDirective("no-store")
}

// §  3.5.  Storing Responses to Authenticated Requests
func mayUseResponseForAuthenticatedRequest(resCacheControl *cacheobject.ResponseCacheDirectives) bool {
	return resCacheControl.Public || resCacheControl.SMaxAge >= 0 || resCacheControl.MustRevalidate
}

func requestMethodIsUnderstood(method string) bool {
	switch method {
	case http.MethodGet:
		return true
	case http.MethodHead:
		return true
	}
	return false
}

func responseStatusCodeIsUnderstood(statusCode int) bool {
	switch statusCode {
	case http.StatusOK:
		return true
	}
	return false
}

func responseStatusCodeIsFinal(statusCode int) bool {
	return statusCode >= 200 && statusCode <= 599
}
