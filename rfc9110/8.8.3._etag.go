package rfc9110

import (
	"net/http"
	"strings"
)

// §  8.8.3.  ETag
// §
// §     The "ETag" field in a response provides the current entity tag for
// §     the selected representation, as determined at the conclusion of
// §     handling the request.
// §
// §       ETag       = entity-tag
// §
// §       entity-tag = [ weak ] opaque-tag
// §       weak       = %s"W/"
// §       opaque-tag = DQUOTE *etagc DQUOTE

// EntityTag is a parsed entity-tag.
type EntityTag struct {
	Weak   bool
	Opaque string
}

// String returns the entity-tag in its field value form.
func (e EntityTag) String() string {
	if e.Weak {
		return "W/" + quote(e.Opaque)
	}
	return quote(e.Opaque)
}

// ParseEntityTag parses a single entity-tag.
// Unquoted values are accepted as well, since some clients send them.
func ParseEntityTag(value string) (EntityTag, bool) {
	value = strings.TrimSpace(value)
	tag := EntityTag{}
	if strings.HasPrefix(value, "W/") || strings.HasPrefix(value, "w/") {
		tag.Weak = true
		value = value[2:]
	}
	value = strings.Trim(value, "\"")
	if value == "" || strings.ContainsAny(value, "\" ") {
		return tag, false
	}
	tag.Opaque = value
	return tag, true
}

// WeakMatch implements the weak comparison function.
func (e EntityTag) WeakMatch(other EntityTag) bool {
	// §  Weak comparison: two entity tags are equivalent if their opaque-tags
	// §  match character-by-character, regardless of either or both being
	// §  tagged as "weak".
	return e.Opaque == other.Opaque
}

// GetETag returns the entity-tag of the selected representation, if any.
func GetETag(header http.Header) (EntityTag, bool) {
	if value := header.Get("ETag"); value != "" {
		return ParseEntityTag(value)
	}
	return EntityTag{}, false
}

// parseEntityTagList parses the value of If-Match or If-None-Match.
// The boolean is true if the value is "*".
func parseEntityTagList(header http.Header, field string) ([]EntityTag, bool) {
	tags := make([]EntityTag, 0)
	for _, item := range GetListHeader(header, field) {
		if item == "*" {
			return nil, true
		}
		if tag, ok := ParseEntityTag(item); ok {
			tags = append(tags, tag)
		}
	}
	return tags, false
}

func quote(opaque string) string {
	return "\"" + opaque + "\""
}
