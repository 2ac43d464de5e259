package cachekey

import (
	"errors"
	"net/http"
	"sort"
	"strings"

	"github.com/always-cache/pagecache/rfc9110"
)

var ErrMethodNotSupported = errors.New("method not supported")

const (
	prefixSeparator = ":"
	methodSeparator = ":"
	varySeparator   = "\t"
	varyLinePrefix  = "\n"
	headerListTag   = "vary"
)

// CacheKeyer builds the keys of one cache namespace.
//
// Two kinds of keys exist per URL: the header list key, under which the names of the
// request headers the stored response varies on are kept, and the page key, which
// carries the method and the values of those request headers.
type CacheKeyer struct {
	// Prefix all keys of this keyer start with.
	Prefix string
}

func NewCacheKeyer(prefix string) CacheKeyer {
	return CacheKeyer{
		Prefix: prefix,
	}
}

// HeaderListKey returns the key of the Vary header list stored for the request URL.
func (c CacheKeyer) HeaderListKey(r *http.Request) string {
	return c.Prefix + prefixSeparator + headerListTag + methodSeparator + requestURL(r)
}

// PageKey returns the key of the response stored for the request when fetched with
// the given method, taking the values of the request headers named in varyNames into account.
// Only GET and HEAD responses are ever stored.
func (c CacheKeyer) PageKey(method string, r *http.Request, varyNames []string) (string, error) {
	if method != http.MethodGet && method != http.MethodHead {
		return "", ErrMethodNotSupported
	}
	key := c.Prefix + prefixSeparator + method + methodSeparator + requestURL(r) + varySeparator
	for _, name := range varyNames {
		if !rfc9110.FieldAbsent(r.Header, name) {
			key = key + varyLinePrefix + name + ": " + strings.Join(r.Header.Values(name), ",")
		}
	}
	return key, nil
}

// VaryNames returns the normalized (lower case, sorted, unique) field names the response
// varies on. The boolean is false if the response varies on "*", i.e. it can never be selected.
func VaryNames(header http.Header) ([]string, bool) {
	seen := make(map[string]bool)
	names := make([]string, 0)
	for _, name := range rfc9110.GetListHeader(header, "Vary") {
		if name == "*" {
			return nil, false
		}
		name = strings.ToLower(name)
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, true
}

// EncodeHeaderList serializes field names for storage under the header list key.
func EncodeHeaderList(names []string) []byte {
	return []byte(strings.Join(names, "\n"))
}

// DecodeHeaderList is the inverse of EncodeHeaderList.
func DecodeHeaderList(b []byte) []string {
	if len(b) == 0 {
		return []string{}
	}
	return strings.Split(string(b), "\n")
}

func requestURL(r *http.Request) string {
	return r.Host + r.URL.RequestURI()
}
