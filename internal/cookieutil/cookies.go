// Package cookieutil converts raw cookie headers and debugger cookie-store
// records into archive cookie records. Parsing defers to net/http's
// standard cookie parsers; malformed entries are skipped, never fatal.
package cookieutil

import (
	"net/http"
	"strings"
	"time"

	"github.com/UppaJung/hardy-har/internal/cdp"
	"github.com/UppaJung/hardy-har/internal/domain"
)

// FromRequestHeader parses a Cookie header value (semicolon-delimited) into
// name/value records.
func FromRequestHeader(value string) []domain.Cookie {
	parsed, err := http.ParseCookie(value)
	if err != nil && len(parsed) == 0 {
		return nil
	}
	out := make([]domain.Cookie, 0, len(parsed))
	for _, c := range parsed {
		out = append(out, domain.Cookie{Name: c.Name, Value: c.Value})
	}
	return out
}

// FromSetCookieHeader parses a Set-Cookie header value. Multiple cookies
// arrive as newline-delimited entries within a single value.
func FromSetCookieHeader(value string) []domain.Cookie {
	var out []domain.Cookie
	for _, line := range strings.Split(value, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		c, err := http.ParseSetCookie(line)
		if err != nil {
			continue
		}
		cookie := domain.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Path:     c.Path,
			Domain:   c.Domain,
			HTTPOnly: c.HttpOnly,
			Secure:   c.Secure,
		}
		if !c.Expires.IsZero() {
			cookie.Expires = c.Expires.UTC().Format(time.RFC3339)
		}
		switch c.SameSite {
		case http.SameSiteStrictMode:
			cookie.SameSite = "Strict"
		case http.SameSiteLaxMode:
			cookie.SameSite = "Lax"
		case http.SameSiteNoneMode:
			cookie.SameSite = "None"
		}
		out = append(out, cookie)
	}
	return out
}

// FromStore converts a debugger cookie-store record, which carries the
// domain/path/expiry detail header parsing cannot recover.
func FromStore(c cdp.StoreCookie) domain.Cookie {
	cookie := domain.Cookie{
		Name:     c.Name,
		Value:    c.Value,
		Path:     c.Path,
		Domain:   c.Domain,
		HTTPOnly: c.HTTPOnly,
		Secure:   c.Secure,
		SameSite: c.SameSite,
	}
	if c.Expires > 0 {
		cookie.Expires = time.Unix(int64(c.Expires), 0).UTC().Format(time.RFC3339)
	}
	return cookie
}

// ExcludeNames returns cookies whose names are not in blocked.
func ExcludeNames(cookies []domain.Cookie, blocked map[string]bool) []domain.Cookie {
	if len(blocked) == 0 {
		return cookies
	}
	out := cookies[:0:0]
	for _, c := range cookies {
		if !blocked[c.Name] {
			out = append(out, c)
		}
	}
	return out
}

// PreferAssociated overlays store-derived records onto header-derived ones:
// an associated record replaces a header record of the same name; header
// records for names absent from the associated set are retained, and
// associated records with no header counterpart are appended.
func PreferAssociated(fromHeader, associated []domain.Cookie) []domain.Cookie {
	if len(associated) == 0 {
		return fromHeader
	}
	byName := make(map[string]domain.Cookie, len(associated))
	for _, c := range associated {
		byName[c.Name] = c
	}
	out := make([]domain.Cookie, 0, len(fromHeader)+len(associated))
	seen := make(map[string]bool, len(fromHeader))
	for _, c := range fromHeader {
		if rich, ok := byName[c.Name]; ok {
			out = append(out, rich)
		} else {
			out = append(out, c)
		}
		seen[c.Name] = true
	}
	for _, c := range associated {
		if !seen[c.Name] {
			out = append(out, c)
		}
	}
	return out
}
