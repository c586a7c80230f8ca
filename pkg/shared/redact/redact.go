package redact

import (
	"encoding/json"
	"strings"
)

// Masked replaces any sensitive value.
const Masked = "***"

var sensitiveKeys = []string{"authorization", "cookie", "set-cookie", "proxy-authorization", "access_token", "id_token", "session", "apikey", "x-api-key"}

// Sensitive reports whether a header or field name is credential-bearing.
func Sensitive(name string) bool {
	name = strings.ToLower(name)
	for _, s := range sensitiveKeys {
		if name == s {
			return true
		}
	}
	return false
}

// Mask returns the value unchanged unless its name is sensitive.
func Mask(name, value string) string {
	if Sensitive(name) {
		return Masked
	}
	return value
}

// JSON masks sensitive fields in a JSON string best-effort; non-JSON input
// is returned unchanged.
func JSON(s string) string {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return s
	}
	redactNode(&v)
	b, err := json.Marshal(v)
	if err != nil {
		return s
	}
	return string(b)
}

func redactNode(n *any) {
	switch t := (*n).(type) {
	case map[string]any:
		for k, v := range t {
			if Sensitive(k) {
				t[k] = Masked
				continue
			}
			vv := any(v)
			redactNode(&vv)
			t[k] = vv
		}
	case []any:
		for i := range t {
			vv := any(t[i])
			redactNode(&vv)
			t[i] = vv
		}
	}
}
