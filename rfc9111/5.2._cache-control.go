package rfc9111

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// §  5.2.  Cache-Control
// §
// §     The "Cache-Control" header field is used to list directives for
// §     caches along the request/response chain.

// CacheControl implements parsing of the "Cache-Control" header (/field).
type CacheControl struct {
	directives map[string]string
}

// Get returns the value (/argument) of the specified directive,
// along with a boolean indicating whether this directive is present
func (c CacheControl) Get(directive string) (string, bool) {
	val, ok := c.directives[directive]
	return val, ok
}

// HasDirective returns whether the specified directive is present
func (c CacheControl) HasDirective(directive string) bool {
	_, ok := c.Get(directive)
	return ok
}

// ParseCacheControl takes Cache-Control headers as a slice of strings
// and returns an instance of `CacheControl`.
func ParseCacheControl(headers []string) CacheControl {
	m := make(map[string]string)
	// note setting map values like this means last defined directive wins
	for _, header := range headers {
		for _, directive := range splitDirectives(header) {
			name, arg := parseDirective(directive)
			m[name] = arg
		}
	}
	return CacheControl{m}
}

// MaxAge returns "max-age" as a duration, along with a boolean indicating
// whether a valid "max-age" directive was present.
func (c CacheControl) MaxAge() (time.Duration, bool) {
	return c.getDeltaSeconds("max-age")
}

// getDeltaSeconds returns the "delta-seconds" as `time.Duration`,
// as well as a boolean indicating whether the directive was set to a valid value.
//
// Examples:
// directive    -> 0,  false
// directive=x  -> 0,  false
// directive=0  -> 0,  true
// directive=60 -> 60, true
func (c CacheControl) getDeltaSeconds(directive string) (time.Duration, bool) {
	if secondsStr, ok := c.Get(directive); ok {
		return deltaSeconds(secondsStr)
	}
	return 0, false
}

// ExtractMaxAge returns the max-age directive of a Cache-Control field value in seconds.
// A missing or malformed max-age is reported as absent.
func ExtractMaxAge(cacheControl string) (int, bool) {
	if maxAge, ok := ParseCacheControl([]string{cacheControl}).MaxAge(); ok {
		return int(maxAge / time.Second), true
	}
	return 0, false
}

// HeaderMaxAge is like ExtractMaxAge, for all Cache-Control lines of a header.
func HeaderMaxAge(header http.Header) (int, bool) {
	if maxAge, ok := ParseCacheControl(header.Values("Cache-Control")).MaxAge(); ok {
		return int(maxAge / time.Second), true
	}
	return 0, false
}

// SetMaxAge sets the max-age directive of the Cache-Control header,
// keeping every other directive as it was.
func SetMaxAge(header http.Header, seconds int) {
	if seconds < 0 {
		seconds = 0
	}
	directives := make([]string, 0)
	for _, value := range header.Values("Cache-Control") {
		for _, directive := range splitDirectives(value) {
			if name, _ := parseDirective(directive); name != "max-age" {
				directives = append(directives, directive)
			}
		}
	}
	directives = append(directives, "max-age="+strconv.Itoa(seconds))
	header.Set("Cache-Control", strings.Join(directives, ", "))
}

func splitDirectives(header string) []string {
	directives := make([]string, 0)
	// §  Cache-Control   = #cache-directive
	for _, directive := range strings.Split(header, ",") {
		if directive = strings.TrimSpace(directive); directive != "" {
			directives = append(directives, directive)
		}
	}
	return directives
}

func parseDirective(directive string) (string, string) {
	parts := strings.SplitN(directive, "=", 2)
	name := getCacheControlDirectiveName(parts[0])
	var arg string
	if len(parts) > 1 {
		arg = getCacheControlDirectiveArgument(parts[1])
	}
	return name, arg
}

// getCacheControlDirectiveName returns a normalized name for the given directive.
func getCacheControlDirectiveName(token string) string {
	// §  [...] to be compared case-insensitively [...]
	return strings.ToLower(strings.TrimSpace(token))
}

// getCacheControlDirectiveArgument returns the directive argument in token form,
// i.e. it converts the argument from "quoted-string" to "token" form if needed.
func getCacheControlDirectiveArgument(arg string) string {
	// §  [...] argument that can use both token and quoted-string syntax. [...]
	return strings.Trim(strings.TrimSpace(arg), "\"")
}
