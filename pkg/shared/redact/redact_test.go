package redact

import (
	"strings"
	"testing"
)

func TestMask(t *testing.T) {
	if got := Mask("Authorization", "Bearer abc"); got != Masked {
		t.Fatalf("authorization should be masked, got %q", got)
	}
	if got := Mask("Accept", "text/html"); got != "text/html" {
		t.Fatalf("accept should pass through, got %q", got)
	}
}

func TestJSON(t *testing.T) {
	in := `{"user":"a","access_token":"secret","nested":{"cookie":"sid=1"}}`
	out := JSON(in)
	if !strings.Contains(out, `"access_token":"***"`) {
		t.Fatalf("token not masked: %s", out)
	}
	if !strings.Contains(out, `"cookie":"***"`) {
		t.Fatalf("nested cookie not masked: %s", out)
	}
}

func TestJSONPassthroughNonJSON(t *testing.T) {
	if got := JSON("plain text"); got != "plain text" {
		t.Fatalf("non-JSON should pass through, got %q", got)
	}
}
