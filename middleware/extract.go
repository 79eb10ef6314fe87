package middleware

import (
	"net/http"
	"strings"
)

// Extractor pulls a single credential out of a request. It returns the empty
// string when the source carries nothing.
type Extractor func(r *http.Request) string

// FromBearerHeader extracts a token from "Authorization: Bearer <token>".
func FromBearerHeader() Extractor {
	return func(r *http.Request) string {
		const bearer = "Bearer "
		value := r.Header.Get("Authorization")
		if !strings.HasPrefix(value, bearer) {
			return ""
		}
		return value[len(bearer):]
	}
}

// FromHeader extracts a token carried verbatim in the named header.
func FromHeader(name string) Extractor {
	return func(r *http.Request) string {
		return r.Header.Get(name)
	}
}

// FromCookie extracts a token from the named cookie.
func FromCookie(name string) Extractor {
	return func(r *http.Request) string {
		c, err := r.Cookie(name)
		if err != nil {
			return ""
		}
		return c.Value
	}
}

// extractFirst returns the first non-empty value produced by the extractors,
// in order. Header sources are listed before cookie sources so an explicit
// header always wins.
func extractFirst(r *http.Request, extractors ...Extractor) string {
	for _, extract := range extractors {
		if v := extract(r); v != "" {
			return v
		}
	}
	return ""
}
