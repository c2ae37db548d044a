package urlparam

import (
	"net/url"
	"strings"
)

// Decode returns the URL-decoded value of the first parameter named name in
// query. A leading '?' is optional. The result is "" when the parameter is
// absent, has no value, or carries a malformed escape sequence.
//
// Keys are matched exactly: looking up "search" does not match "searchTerm".
func Decode(query, name string) string {
	if name == "" {
		return ""
	}
	for _, segment := range splitQuery(query) {
		key, value, hasValue := strings.Cut(segment, "=")
		if key != name {
			continue
		}
		if !hasValue {
			return ""
		}
		// Only the text between the first and second '=' is the value.
		value, _, _ = strings.Cut(value, "=")
		decoded, err := url.PathUnescape(value)
		if err != nil {
			return ""
		}
		return decoded
	}
	return ""
}

// Encode returns "?name=value" with value percent-encoded, or "" when value
// is empty. The result replaces the whole query string; other parameters are
// not carried over.
func Encode(name, value string) string {
	if value == "" {
		return ""
	}
	return "?" + name + "=" + escape(value)
}

// Has reports whether query contains a parameter named name, with or
// without a value.
func Has(query, name string) bool {
	for _, segment := range splitQuery(query) {
		key, _, _ := strings.Cut(segment, "=")
		if key == name {
			return true
		}
	}
	return false
}

// Normalize returns query with a leading '?' or "" when it has no content.
func Normalize(query string) string {
	query = strings.TrimPrefix(query, "?")
	if query == "" {
		return ""
	}
	return "?" + query
}

func splitQuery(query string) []string {
	query = strings.TrimPrefix(query, "?")
	if query == "" {
		return nil
	}
	return strings.Split(query, "&")
}

// escape percent-encodes s so that Decode restores it. Spaces become %20
// because Decode does not treat '+' as a space.
func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
