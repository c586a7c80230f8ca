// Package headerutil provides case-insensitive lookup, merge, and
// serialized-size estimation over ordered header name/value pairs.
//
// Headers are kept as ordered pairs rather than a net/http canonical-key
// map: the archive must preserve wire order, original casing, and duplicate
// names, all of which http.Header destroys.
package headerutil

import (
	"strings"

	"github.com/UppaJung/hardy-har/internal/cdp"
	"github.com/UppaJung/hardy-har/internal/domain"
)

// FromWire converts the protocol's header map into ordered pairs.
func FromWire(h cdp.Headers) []domain.NameValuePair {
	raw := h.Pairs()
	if len(raw) == 0 {
		return []domain.NameValuePair{}
	}
	out := make([]domain.NameValuePair, 0, len(raw))
	for _, p := range raw {
		out = append(out, domain.NameValuePair{Name: p[0], Value: p[1]})
	}
	return out
}

// Get returns the first value for name, case-insensitively.
func Get(pairs []domain.NameValuePair, name string) (string, bool) {
	for _, p := range pairs {
		if strings.EqualFold(p.Name, name) {
			return p.Value, true
		}
	}
	return "", false
}

// Values returns every value recorded for name, case-insensitively.
func Values(pairs []domain.NameValuePair, name string) []string {
	var out []string
	for _, p := range pairs {
		if strings.EqualFold(p.Name, name) {
			out = append(out, p.Value)
		}
	}
	return out
}

// Merge combines header layers in increasing precedence: a later layer's
// value replaces an earlier layer's value on a case-insensitive name
// collision, in place, keeping the earlier layer's position; names new to a
// later layer are appended.
func Merge(layers ...[]domain.NameValuePair) []domain.NameValuePair {
	merged := []domain.NameValuePair{}
	for _, layer := range layers {
		for _, p := range layer {
			replaced := false
			for i := range merged {
				if strings.EqualFold(merged[i].Name, p.Name) {
					merged[i] = p
					replaced = true
					break
				}
			}
			if !replaced {
				merged = append(merged, p)
			}
		}
	}
	return merged
}

// BlockSize estimates the serialized size of an HTTP/1.x header block:
// the given start line, one "name: value" line per pair, and the blank
// terminator line, all CRLF-delimited.
func BlockSize(startLine string, pairs []domain.NameValuePair) int64 {
	size := int64(len(startLine)) + 2
	for _, p := range pairs {
		size += int64(len(p.Name)) + 2 + int64(len(p.Value)) + 2
	}
	return size + 2
}

// IsHTTP1x reports whether the protocol string names an HTTP/1.x version.
func IsHTTP1x(protocol string) bool {
	p := strings.ToLower(protocol)
	return p == "http/1.0" || p == "http/1.1" || p == "http/0.9"
}
