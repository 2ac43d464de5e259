package rfc9110

import (
	"net/http"
	"strings"
)

// §  5.6.1.  Lists (#rule ABNF Extension)
// §
// §     A #rule extension to the ABNF rules of [RFC5234] is used to improve
// §     readability in the definitions of some list-based field values.

// GetListHeader returns the members of a list-based field, across all field lines.
func GetListHeader(header http.Header, field string) []string {
	list := make([]string, 0)
	for _, hdr := range header.Values(field) {
		for _, item := range strings.Split(hdr, ",") {
			// §  a recipient MUST parse and ignore a reasonable number of empty
			// §  list elements
			if item = strings.TrimSpace(item); item != "" {
				list = append(list, item)
			}
		}
	}
	return list
}

// HasListMember reports whether the list-based field contains member (compared case-insensitively).
func HasListMember(header http.Header, field, member string) bool {
	for _, item := range GetListHeader(header, field) {
		if strings.EqualFold(item, member) {
			return true
		}
	}
	return false
}

// AddListMembers adds the given members to a list-based field, skipping the ones already present.
// The resulting field is written as a single field line.
func AddListMembers(header http.Header, field string, members ...string) {
	list := GetListHeader(header, field)
	for _, member := range members {
		found := false
		for _, item := range list {
			if strings.EqualFold(item, member) {
				found = true
				break
			}
		}
		if !found {
			list = append(list, member)
		}
	}
	if len(list) > 0 {
		header.Set(field, strings.Join(list, ", "))
	}
}

// FieldAbsent reports whether the request carries no line of the named field.
func FieldAbsent(header http.Header, name string) bool {
	return len(header.Values(name)) == 0
}
